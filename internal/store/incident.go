package store

import (
	"sort"
	"time"

	"github.com/argusmon/argus/internal/monitor"
)

// AcknowledgeAlert marks an active alert as seen by an operator.
func (s *Store) AcknowledgeAlert(id string) error {
	s.mu.Lock()

	al, ok := s.alerts[id]
	if !ok {
		s.mu.Unlock()
		return ErrUnknownAlert
	}
	if al.Status != monitor.AlertActive {
		s.mu.Unlock()
		return nil
	}

	now := time.Now()
	al.Status = monitor.AlertAcknowledged
	al.AcknowledgedAt = now

	events := []monitor.Event{{
		Type:       monitor.EventAlertAcknowledged,
		EndpointID: al.EndpointID,
		Time:       now,
		Payload:    *al,
	}}

	s.mu.Unlock()

	s.commit(events)
	return nil
}

// ResolveAlert closes a single alert by hand.
func (s *Store) ResolveAlert(id string) error {
	s.mu.Lock()

	al, ok := s.alerts[id]
	if !ok {
		s.mu.Unlock()
		return ErrUnknownAlert
	}
	if !al.Open() {
		s.mu.Unlock()
		return nil
	}

	now := time.Now()
	al.Status = monitor.AlertResolved
	al.ResolvedAt = now

	events := []monitor.Event{{
		Type:       monitor.EventAlertResolved,
		EndpointID: al.EndpointID,
		Time:       now,
		Payload:    *al,
	}}

	s.mu.Unlock()

	s.commit(events)
	return nil
}

// ResolveIncident closes an ongoing incident by hand, together with every
// open alert of its endpoint. The consecutive failure counter is left
// alone, so a still failing endpoint can reach the threshold and alert
// again.
func (s *Store) ResolveIncident(id string, reason string) error {
	s.mu.Lock()

	in, ok := s.incidents[id]
	if !ok {
		s.mu.Unlock()
		return ErrUnknownIncident
	}
	if !in.Ongoing() {
		s.mu.Unlock()
		return nil
	}

	if reason == "" {
		reason = "resolved manually"
	}
	events := s.resolveEndpointLocked(in.EndpointID, time.Now(), reason)

	s.mu.Unlock()

	s.commit(events)
	return nil
}

// AddIncidentUpdate appends a note to an incident's timeline.
func (s *Store) AddIncidentUpdate(id string, message string) error {
	s.mu.Lock()

	in, ok := s.incidents[id]
	if !ok {
		s.mu.Unlock()
		return ErrUnknownIncident
	}

	in.Updates = append(in.Updates, monitor.IncidentUpdate{
		Time:    time.Now(),
		Message: message,
	})

	s.mu.Unlock()

	s.commit(nil)
	return nil
}

// GetIncident looks up one incident by id.
func (s *Store) GetIncident(id string) (monitor.Incident, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	in, ok := s.incidents[id]
	if !ok {
		return monitor.Incident{}, ErrUnknownIncident
	}

	cp := *in
	cp.Updates = append([]monitor.IncidentUpdate(nil), in.Updates...)
	return cp, nil
}

// Incidents returns every incident, newest first.
func (s *Store) Incidents() []monitor.Incident {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]monitor.Incident, 0, len(s.incidents))
	for _, in := range s.incidents {
		cp := *in
		cp.Updates = append([]monitor.IncidentUpdate(nil), in.Updates...)
		result = append(result, cp)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].StartedAt.Equal(result[j].StartedAt) {
			return result[i].ID > result[j].ID
		}
		return result[i].StartedAt.After(result[j].StartedAt)
	})
	return result
}

// OngoingIncident returns the ongoing incident of an endpoint, if any.
func (s *Store) OngoingIncident(endpointID string) (monitor.Incident, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.ongoing[endpointID]
	if !ok {
		return monitor.Incident{}, false
	}

	cp := *s.incidents[id]
	cp.Updates = append([]monitor.IncidentUpdate(nil), s.incidents[id].Updates...)
	return cp, true
}

// GetAlert looks up one alert by id.
func (s *Store) GetAlert(id string) (monitor.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	al, ok := s.alerts[id]
	if !ok {
		return monitor.Alert{}, ErrUnknownAlert
	}
	return *al, nil
}

// Alerts returns every alert, newest first.
func (s *Store) Alerts() []monitor.Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]monitor.Alert, 0, len(s.alerts))
	for _, al := range s.alerts {
		result = append(result, *al)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID > result[j].ID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result
}

// OpenAlerts returns the alerts that still need attention, newest first.
func (s *Store) OpenAlerts() []monitor.Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []monitor.Alert
	for _, al := range s.alerts {
		if al.Open() {
			result = append(result, *al)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID > result[j].ID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result
}
