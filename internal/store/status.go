package store

import (
	"sort"

	"github.com/argusmon/argus/internal/monitor"
)

// GetStatus returns a copy of one endpoint's status.
func (s *Store) GetStatus(endpointID string) (monitor.Status, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.statuses[endpointID]
	if !ok {
		return monitor.Status{}, ErrUnknownEndpoint
	}

	cp := *st
	cp.History = append([]monitor.HistoryEntry(nil), st.History...)
	return cp, nil
}

// Statuses returns a copy of every status ordered by endpoint id.
func (s *Store) Statuses() []monitor.Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]monitor.Status, 0, len(s.statuses))
	for _, st := range s.statuses {
		cp := *st
		cp.History = append([]monitor.HistoryEntry(nil), st.History...)
		result = append(result, cp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].EndpointID < result[j].EndpointID })
	return result
}
