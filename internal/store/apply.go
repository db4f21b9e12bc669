package store

import (
	"time"

	"github.com/google/uuid"

	"github.com/argusmon/argus/internal/monitor"
)

// Apply feeds one check result through the state machine.
//
// The rules, in order:
//
//  1. UP resets the consecutive failure counter, DOWN increments it.
//  2. Any transition into DOWN opens an incident and creates an alert right
//     away, whatever the failure threshold says.
//  3. While DOWN continues, reaching the threshold opens an incident and an
//     alert again only if none is ongoing (it was resolved by hand during
//     the outage).
//  4. A transition to UP resolves the ongoing incident and every open alert
//     of the endpoint, but only when auto resolve is enabled.
//
// Results for unknown endpoints are rejected, except under the reserved
// self monitor id which gets its status entry on first use. Aborted results
// are dropped without touching any state.
func (s *Store) Apply(rec monitor.CheckResult) error {
	if rec.Status == monitor.StatusAborted || rec.Status == monitor.StatusUnknown {
		return nil
	}

	s.mu.Lock()

	st, ok := s.statuses[rec.EndpointID]
	if !ok {
		if rec.EndpointID != monitor.SelfMonitorID {
			s.mu.Unlock()
			return ErrUnknownEndpoint
		}
		st = monitor.NewStatus(rec.EndpointID)
		s.statuses[rec.EndpointID] = st
	}

	prev := st.Current

	st.TotalChecks++
	if rec.Status == monitor.StatusUp {
		st.TotalSuccesses++
		st.ConsecutiveFails = 0
	} else {
		st.ConsecutiveFails++
	}
	histLen := s.HistoryLength
	if histLen <= 0 {
		histLen = monitor.DefaultHistoryLength
	}

	st.Current = rec.Status
	st.LastCheckedAt = rec.CheckedAt
	st.PushHistory(monitor.HistoryEntry{
		Status:    rec.Status,
		LatencyMS: rec.LatencyMS,
		Message:   rec.Message,
		Time:      rec.CheckedAt,
	}, histLen)

	var events []monitor.Event

	if prev != rec.Status {
		s.pushActivityLocked(monitor.ActivityEntry{
			Time:       rec.CheckedAt,
			EndpointID: rec.EndpointID,
			From:       prev,
			To:         rec.Status,
			Message:    rec.Message,
		})
		events = append(events, monitor.Event{
			Type:       monitor.EventStatusChanged,
			EndpointID: rec.EndpointID,
			Time:       rec.CheckedAt,
			Payload: monitor.StatusChange{
				From:    prev,
				To:      rec.Status,
				Message: rec.Message,
			},
		})
	}

	switch {
	case rec.Status == monitor.StatusDown && prev != monitor.StatusDown:
		events = append(events, s.openIncidentLocked(rec)...)

	case rec.Status == monitor.StatusDown:
		// still down; re-open only at the threshold and only when the
		// previous incident was closed by hand mid-outage
		if _, ongoing := s.ongoing[rec.EndpointID]; !ongoing && st.ConsecutiveFails >= s.settings.FailureThreshold {
			events = append(events, s.openIncidentLocked(rec)...)
		}

	case rec.Status == monitor.StatusUp && prev == monitor.StatusDown:
		if s.settings.AutoResolve {
			events = append(events, s.resolveEndpointLocked(rec.EndpointID, rec.CheckedAt, "resolved automatically: endpoint recovered")...)
		}
	}

	s.mu.Unlock()

	s.commit(events)
	return nil
}

// openIncidentLocked opens an incident and its alert for a failing
// endpoint. It refuses to stack a second ongoing incident.
func (s *Store) openIncidentLocked(rec monitor.CheckResult) []monitor.Event {
	if _, ok := s.ongoing[rec.EndpointID]; ok {
		return nil
	}

	in := &monitor.Incident{
		ID:         uuid.NewString(),
		EndpointID: rec.EndpointID,
		Status:     monitor.IncidentOngoing,
		StartedAt:  rec.CheckedAt,
	}
	s.incidents[in.ID] = in
	s.ongoing[rec.EndpointID] = in.ID

	al := &monitor.Alert{
		ID:         uuid.NewString(),
		EndpointID: rec.EndpointID,
		Severity:   monitor.SeverityCritical,
		Status:     monitor.AlertActive,
		Message:    rec.Message,
		CreatedAt:  rec.CheckedAt,
	}
	s.alerts[al.ID] = al

	return []monitor.Event{
		{
			Type:       monitor.EventIncidentOpened,
			EndpointID: rec.EndpointID,
			Time:       rec.CheckedAt,
			Payload:    *in,
		},
		{
			Type:       monitor.EventAlertCreated,
			EndpointID: rec.EndpointID,
			Time:       rec.CheckedAt,
			Payload:    *al,
		},
	}
}

// resolveEndpointLocked closes the ongoing incident and every open alert of
// an endpoint, recording why.
func (s *Store) resolveEndpointLocked(endpointID string, now time.Time, reason string) []monitor.Event {
	var events []monitor.Event

	if id, ok := s.ongoing[endpointID]; ok {
		in := s.incidents[id]
		in.Status = monitor.IncidentResolved
		in.ResolvedAt = now
		in.DurationMS = float64(now.Sub(in.StartedAt).Microseconds()) / 1000
		in.Updates = append(in.Updates, monitor.IncidentUpdate{Time: now, Message: reason})
		delete(s.ongoing, endpointID)

		events = append(events, monitor.Event{
			Type:       monitor.EventIncidentResolved,
			EndpointID: endpointID,
			Time:       now,
			Payload:    *in,
		})
	}

	for _, al := range s.alerts {
		if al.EndpointID == endpointID && al.Open() {
			al.Status = monitor.AlertResolved
			al.ResolvedAt = now

			events = append(events, monitor.Event{
				Type:       monitor.EventAlertResolved,
				EndpointID: endpointID,
				Time:       now,
				Payload:    *al,
			})
		}
	}

	return events
}

func (s *Store) pushActivityLocked(entry monitor.ActivityEntry) {
	s.activity = append(s.activity, entry)
	if len(s.activity) > ACTIVITY_LOG_LEN {
		s.activity = s.activity[len(s.activity)-ACTIVITY_LOG_LEN:]
	}
}

// Activity returns the transition log, oldest first.
func (s *Store) Activity() []monitor.ActivityEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]monitor.ActivityEntry(nil), s.activity...)
}
