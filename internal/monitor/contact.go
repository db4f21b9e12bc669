package monitor

import (
	"time"
)

// Contact is a person who can receive notifications. The Notify* flags
// select which transitions they care about; EmailEnabled and SMSEnabled
// select the channels used to reach them.
type Contact struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	Phone            string    `json:"phone"`
	EmailEnabled     bool      `json:"email_enabled"`
	SMSEnabled       bool      `json:"sms_enabled"`
	NotifyOnDown     bool      `json:"notify_on_down"`
	NotifyOnUp       bool      `json:"notify_on_up"`
	NotifyOnIncident bool      `json:"notify_on_incident"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// WantsAny reports whether the contact has at least one notify flag set.
// Contacts with none set are dropped during recipient resolution.
func (c Contact) WantsAny() bool {
	return c.NotifyOnDown || c.NotifyOnUp || c.NotifyOnIncident
}

// Wants reports whether the contact cares about a transition to the given
// status. Incident subscribers hear about both directions.
func (c Contact) Wants(to CheckStatus) bool {
	switch to {
	case StatusDown:
		return c.NotifyOnDown || c.NotifyOnIncident
	case StatusUp:
		return c.NotifyOnUp || c.NotifyOnIncident
	default:
		return false
	}
}

// ContactGroup is a named set of contact IDs. Endpoints reference groups,
// and recipient resolution expands them back into contacts.
type ContactGroup struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	ContactIDs []string  `json:"contact_ids"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Has reports whether the group contains the given contact ID.
func (g ContactGroup) Has(contactID string) bool {
	for _, id := range g.ContactIDs {
		if id == contactID {
			return true
		}
	}
	return false
}
