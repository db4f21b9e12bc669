package monitor

import (
	"time"
)

// DefaultHistoryLength is how many recent checks a Status retains.
const DefaultHistoryLength = 50

// HistoryEntry is one check outcome in a Status history ring.
type HistoryEntry struct {
	Status    CheckStatus `json:"status"`
	LatencyMS float64     `json:"latency_ms"`
	Message   string      `json:"message,omitempty"`
	Time      time.Time   `json:"time"`
}

// Status is the derived health state of one endpoint. There is exactly one
// Status per Endpoint; it is created with the endpoint, mutated only by the
// state machine, and deleted with the endpoint.
//
// History is most-recent-first and capped; older entries fall off the end.
type Status struct {
	EndpointID       string         `json:"endpoint_id"`
	Current          CheckStatus    `json:"current"`
	ConsecutiveFails int            `json:"consecutive_fails"`
	TotalChecks      int            `json:"total_checks"`
	TotalSuccesses   int            `json:"total_successes"`
	History          []HistoryEntry `json:"history,omitempty"`
	LastCheckedAt    time.Time      `json:"last_checked_at"`
}

// NewStatus returns the initial Status for a fresh endpoint.
func NewStatus(endpointID string) *Status {
	return &Status{
		EndpointID: endpointID,
		Current:    StatusUnknown,
	}
}

// PushHistory prepends an entry and trims the ring to limit entries.
func (s *Status) PushHistory(e HistoryEntry, limit int) {
	if limit <= 0 {
		limit = DefaultHistoryLength
	}
	s.History = append([]HistoryEntry{e}, s.History...)
	if len(s.History) > limit {
		s.History = s.History[:limit]
	}
}

// Uptime returns the share of successful checks in [0, 1], or 1 when the
// endpoint has not been checked yet.
func (s Status) Uptime() float64 {
	if s.TotalChecks == 0 {
		return 1
	}
	return float64(s.TotalSuccesses) / float64(s.TotalChecks)
}

// AvgLatencyMS returns the mean latency over the retained history window.
func (s Status) AvgLatencyMS() float64 {
	if len(s.History) == 0 {
		return 0
	}
	var sum float64
	for _, h := range s.History {
		sum += h.LatencyMS
	}
	return sum / float64(len(s.History))
}

// ActivityEntry records one status transition. The activity log is
// append-only, unlike the bounded per-endpoint history ring.
type ActivityEntry struct {
	Time       time.Time   `json:"time"`
	EndpointID string      `json:"endpoint_id"`
	From       CheckStatus `json:"from"`
	To         CheckStatus `json:"to"`
	Message    string      `json:"message,omitempty"`
}
