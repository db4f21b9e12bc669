package store

import (
	"sort"
	"time"

	"github.com/argusmon/argus/internal/monitor"
)

// PutContact creates or updates a contact.
func (s *Store) PutContact(c monitor.Contact) {
	s.mu.Lock()

	now := time.Now()
	if old, ok := s.contacts[c.ID]; ok {
		c.CreatedAt = old.CreatedAt
	} else {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	s.contacts[c.ID] = c

	s.mu.Unlock()

	s.commit(nil)
}

// DeleteContact removes a contact and drops it from every group.
func (s *Store) DeleteContact(id string) error {
	s.mu.Lock()

	if _, ok := s.contacts[id]; !ok {
		s.mu.Unlock()
		return ErrUnknownContact
	}
	delete(s.contacts, id)

	for gid, g := range s.groups {
		if !g.Has(id) {
			continue
		}
		ids := make([]string, 0, len(g.ContactIDs)-1)
		for _, cid := range g.ContactIDs {
			if cid != id {
				ids = append(ids, cid)
			}
		}
		g.ContactIDs = ids
		s.groups[gid] = g
	}

	s.mu.Unlock()

	s.commit(nil)
	return nil
}

// GetContact looks up one contact by id.
func (s *Store) GetContact(id string) (monitor.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.contacts[id]
	if !ok {
		return monitor.Contact{}, ErrUnknownContact
	}
	return c, nil
}

// Contacts returns every contact ordered by id.
func (s *Store) Contacts() []monitor.Contact {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]monitor.Contact, 0, len(s.contacts))
	for _, c := range s.contacts {
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// PutGroup creates or updates a contact group.
func (s *Store) PutGroup(g monitor.ContactGroup) {
	s.mu.Lock()

	now := time.Now()
	if old, ok := s.groups[g.ID]; ok {
		g.CreatedAt = old.CreatedAt
	} else {
		g.CreatedAt = now
	}
	g.UpdatedAt = now
	s.groups[g.ID] = g

	s.mu.Unlock()

	s.commit(nil)
}

// DeleteGroup removes a contact group. Its members stay.
func (s *Store) DeleteGroup(id string) error {
	s.mu.Lock()

	if _, ok := s.groups[id]; !ok {
		s.mu.Unlock()
		return ErrUnknownGroup
	}
	delete(s.groups, id)

	s.mu.Unlock()

	s.commit(nil)
	return nil
}

// GetGroup looks up one contact group by id.
func (s *Store) GetGroup(id string) (monitor.ContactGroup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.groups[id]
	if !ok {
		return monitor.ContactGroup{}, ErrUnknownGroup
	}

	cp := g
	cp.ContactIDs = append([]string(nil), g.ContactIDs...)
	return cp, nil
}

// Groups returns every contact group ordered by id.
func (s *Store) Groups() []monitor.ContactGroup {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]monitor.ContactGroup, 0, len(s.groups))
	for _, g := range s.groups {
		cp := g
		cp.ContactIDs = append([]string(nil), g.ContactIDs...)
		result = append(result, cp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}
