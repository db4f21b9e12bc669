// Package store is the in-memory database of Argus and the state machine
// that turns check results into statuses, incidents and alerts.
package store

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/argusmon/argus/internal/monitor"
)

const (
	ACTIVITY_LOG_LEN = 1000
)

var (
	ErrUnknownEndpoint = errors.New("no such endpoint")
	ErrUnknownIncident = errors.New("no such incident")
	ErrUnknownAlert    = errors.New("no such alert")
	ErrUnknownContact  = errors.New("no such contact")
	ErrUnknownGroup    = errors.New("no such contact group")
)

// EventHandler receives change events after the store has committed them.
type EventHandler func(monitor.Event)

// SaveFunc receives a fresh snapshot after every mutation. It must not
// block; persistence happens off the caller's path.
type SaveFunc func(monitor.Snapshot)

// Store holds every entity collection behind one lock.
//
// Mutations collect their change events under the lock but fire handlers
// and the save hook only after unlocking, so a handler may freely read the
// store again.
type Store struct {
	mu sync.RWMutex

	endpoints map[string]monitor.Endpoint
	statuses  map[string]*monitor.Status
	incidents map[string]*monitor.Incident
	alerts    map[string]*monitor.Alert
	contacts  map[string]monitor.Contact
	groups    map[string]monitor.ContactGroup
	activity  []monitor.ActivityEntry
	settings  monitor.Settings

	// ongoing maps an endpoint id to its single ongoing incident id.
	ongoing map[string]string

	OnEvent []EventHandler

	// HistoryLength caps the per-endpoint check history. Zero means the
	// default. Set it before the first Apply, like OnEvent.
	HistoryLength int

	save SaveFunc
}

// New creates an empty Store with default settings.
// The save hook may be nil.
func New(save SaveFunc) *Store {
	return &Store{
		endpoints: make(map[string]monitor.Endpoint),
		statuses:  make(map[string]*monitor.Status),
		incidents: make(map[string]*monitor.Incident),
		alerts:    make(map[string]*monitor.Alert),
		contacts:  make(map[string]monitor.Contact),
		groups:    make(map[string]monitor.ContactGroup),
		ongoing:   make(map[string]string),
		settings:  monitor.DefaultSettings(),
		save:      save,
	}
}

// Load replaces the whole state with a snapshot, usually the one read from
// disk at startup. It rebuilds derived indexes and drops statuses of
// endpoints that no longer exist.
func (s *Store) Load(snap monitor.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.endpoints = make(map[string]monitor.Endpoint, len(snap.Endpoints))
	for _, e := range snap.Endpoints {
		s.endpoints[e.ID] = e
	}

	s.statuses = make(map[string]*monitor.Status, len(snap.Statuses))
	for _, st := range snap.Statuses {
		if _, ok := s.endpoints[st.EndpointID]; !ok && st.EndpointID != monitor.SelfMonitorID {
			continue
		}
		st := st
		s.statuses[st.EndpointID] = &st
	}
	for id := range s.endpoints {
		if _, ok := s.statuses[id]; !ok {
			s.statuses[id] = monitor.NewStatus(id)
		}
	}

	s.incidents = make(map[string]*monitor.Incident, len(snap.Incidents))
	s.ongoing = make(map[string]string)
	for _, in := range snap.Incidents {
		in := in
		s.incidents[in.ID] = &in
		if in.Ongoing() {
			s.ongoing[in.EndpointID] = in.ID
		}
	}

	s.alerts = make(map[string]*monitor.Alert, len(snap.Alerts))
	for _, a := range snap.Alerts {
		a := a
		s.alerts[a.ID] = &a
	}

	s.contacts = make(map[string]monitor.Contact, len(snap.Contacts))
	for _, c := range snap.Contacts {
		s.contacts[c.ID] = c
	}

	s.groups = make(map[string]monitor.ContactGroup, len(snap.Groups))
	for _, g := range snap.Groups {
		s.groups[g.ID] = g
	}

	s.activity = append([]monitor.ActivityEntry(nil), snap.Activity...)
	s.settings = snap.Settings.Normalize()
}

// Snapshot copies the whole state into a plain value, ordered
// deterministically so persisted files stay diffable.
func (s *Store) Snapshot() monitor.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() monitor.Snapshot {
	snap := monitor.Snapshot{
		Endpoints: make([]monitor.Endpoint, 0, len(s.endpoints)),
		Statuses:  make([]monitor.Status, 0, len(s.statuses)),
		Incidents: make([]monitor.Incident, 0, len(s.incidents)),
		Alerts:    make([]monitor.Alert, 0, len(s.alerts)),
		Contacts:  make([]monitor.Contact, 0, len(s.contacts)),
		Groups:    make([]monitor.ContactGroup, 0, len(s.groups)),
		Activity:  append([]monitor.ActivityEntry(nil), s.activity...),
		Settings:  s.settings,
	}

	for _, e := range s.endpoints {
		snap.Endpoints = append(snap.Endpoints, e)
	}
	sort.Slice(snap.Endpoints, func(i, j int) bool { return snap.Endpoints[i].ID < snap.Endpoints[j].ID })

	for _, st := range s.statuses {
		cp := *st
		cp.History = append([]monitor.HistoryEntry(nil), st.History...)
		snap.Statuses = append(snap.Statuses, cp)
	}
	sort.Slice(snap.Statuses, func(i, j int) bool { return snap.Statuses[i].EndpointID < snap.Statuses[j].EndpointID })

	for _, in := range s.incidents {
		cp := *in
		cp.Updates = append([]monitor.IncidentUpdate(nil), in.Updates...)
		snap.Incidents = append(snap.Incidents, cp)
	}
	sort.Slice(snap.Incidents, func(i, j int) bool {
		if snap.Incidents[i].StartedAt.Equal(snap.Incidents[j].StartedAt) {
			return snap.Incidents[i].ID < snap.Incidents[j].ID
		}
		return snap.Incidents[i].StartedAt.Before(snap.Incidents[j].StartedAt)
	})

	for _, a := range s.alerts {
		snap.Alerts = append(snap.Alerts, *a)
	}
	sort.Slice(snap.Alerts, func(i, j int) bool {
		if snap.Alerts[i].CreatedAt.Equal(snap.Alerts[j].CreatedAt) {
			return snap.Alerts[i].ID < snap.Alerts[j].ID
		}
		return snap.Alerts[i].CreatedAt.Before(snap.Alerts[j].CreatedAt)
	})

	for _, c := range s.contacts {
		snap.Contacts = append(snap.Contacts, c)
	}
	sort.Slice(snap.Contacts, func(i, j int) bool { return snap.Contacts[i].ID < snap.Contacts[j].ID })

	for _, g := range s.groups {
		cp := g
		cp.ContactIDs = append([]string(nil), g.ContactIDs...)
		snap.Groups = append(snap.Groups, cp)
	}
	sort.Slice(snap.Groups, func(i, j int) bool { return snap.Groups[i].ID < snap.Groups[j].ID })

	return snap
}

// commit fires collected events and hands a fresh snapshot to the save
// hook. Call it after the lock is released.
func (s *Store) commit(events []monitor.Event) {
	for _, ev := range events {
		for _, h := range s.OnEvent {
			h(ev)
		}
	}

	if s.save != nil {
		s.save(s.Snapshot())
	}
}

// Settings returns the current runtime settings.
func (s *Store) Settings() monitor.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.settings
}

// SetSettings replaces the runtime settings.
func (s *Store) SetSettings(settings monitor.Settings) {
	s.mu.Lock()
	s.settings = settings.Normalize()
	s.mu.Unlock()

	s.commit(nil)
}

// PutEndpoint creates or updates an endpoint. A new endpoint gets a fresh
// status entry; an update keeps the existing one and the original creation
// time.
func (s *Store) PutEndpoint(ep monitor.Endpoint) {
	s.mu.Lock()

	now := time.Now()
	if old, ok := s.endpoints[ep.ID]; ok {
		ep.CreatedAt = old.CreatedAt
	} else {
		ep.CreatedAt = now
		s.statuses[ep.ID] = monitor.NewStatus(ep.ID)
	}
	ep.UpdatedAt = now
	s.endpoints[ep.ID] = ep

	s.mu.Unlock()

	s.commit(nil)
}

// DeleteEndpoint removes an endpoint with its status, resolving whatever
// incident and alerts were still open for it.
func (s *Store) DeleteEndpoint(id string) error {
	s.mu.Lock()

	if _, ok := s.endpoints[id]; !ok {
		s.mu.Unlock()
		return ErrUnknownEndpoint
	}

	var events []monitor.Event
	events = append(events, s.resolveEndpointLocked(id, time.Now(), "endpoint deleted")...)

	delete(s.endpoints, id)
	delete(s.statuses, id)

	s.mu.Unlock()

	s.commit(events)
	return nil
}

// GetEndpoint looks up one endpoint by id.
func (s *Store) GetEndpoint(id string) (monitor.Endpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ep, ok := s.endpoints[id]
	if !ok {
		return monitor.Endpoint{}, ErrUnknownEndpoint
	}
	return ep, nil
}

// Endpoints returns every endpoint ordered by id.
func (s *Store) Endpoints() []monitor.Endpoint {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]monitor.Endpoint, 0, len(s.endpoints))
	for _, e := range s.endpoints {
		result = append(result, e)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}
