// Package notify turns state transitions into outbound notifications.
//
// The resolver expands contacts and contact groups into a deduplicated
// recipient set split by channel. The dispatcher fans a notification out to
// those recipients: spoken announcement, one email per recipient, and a
// single batched SMS call.
package notify

import (
	"sort"

	"github.com/argusmon/argus/internal/monitor"
)

// RecipientSet is the channel-split output of recipient resolution.
// A contact with both an email address and a phone number appears in both
// slices, but never twice in the same slice.
type RecipientSet struct {
	Email []monitor.Contact
	SMS   []monitor.Contact
}

// Empty reports whether there is nobody to notify on any channel.
func (s RecipientSet) Empty() bool {
	return len(s.Email) == 0 && len(s.SMS) == 0
}

// Resolve merges direct contacts and group members into one deduplicated
// set, keeping only contacts that opted into at least one trigger. Group
// members that reference an unknown contact id are skipped.
func Resolve(contacts []monitor.Contact, groups []monitor.ContactGroup) RecipientSet {
	return resolve(contacts, groups, monitor.Contact.WantsAny)
}

// ResolveFor is Resolve restricted to contacts that opted into
// notifications for the given transition.
func ResolveFor(to monitor.CheckStatus, contacts []monitor.Contact, groups []monitor.ContactGroup) RecipientSet {
	return resolve(contacts, groups, func(c monitor.Contact) bool {
		return c.Wants(to)
	})
}

func resolve(contacts []monitor.Contact, groups []monitor.ContactGroup, keep func(monitor.Contact) bool) RecipientSet {
	index := make(map[string]monitor.Contact, len(contacts))
	for _, c := range contacts {
		index[c.ID] = c
	}

	// Map insertion is the deduplication: a contact reachable directly and
	// through any number of groups lands in the set exactly once.
	merged := make(map[string]monitor.Contact, len(contacts))
	add := func(c monitor.Contact) {
		if keep(c) {
			merged[c.ID] = c
		}
	}

	for _, c := range contacts {
		add(c)
	}
	for _, g := range groups {
		for _, id := range g.ContactIDs {
			if c, ok := index[id]; ok {
				add(c)
			}
		}
	}

	var set RecipientSet
	for _, c := range merged {
		if c.Email != "" && c.EmailEnabled {
			set.Email = append(set.Email, c)
		}
		if c.Phone != "" && c.SMSEnabled {
			set.SMS = append(set.SMS, c)
		}
	}

	sort.Slice(set.Email, func(i, j int) bool { return set.Email[i].ID < set.Email[j].ID })
	sort.Slice(set.SMS, func(i, j int) bool { return set.SMS[i].ID < set.SMS[j].ID })

	return set
}
