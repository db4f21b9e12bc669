package monitor

import (
	"time"
)

// IncidentStatus is the lifecycle state of an Incident.
type IncidentStatus string

const (
	IncidentOngoing  IncidentStatus = "ongoing"
	IncidentResolved IncidentStatus = "resolved"
)

// IncidentUpdate is one timestamped note on an incident's timeline.
type IncidentUpdate struct {
	Time    time.Time `json:"time"`
	Message string    `json:"message"`
}

// Incident is a bounded outage record for an endpoint. An endpoint has at
// most one ongoing incident at any time; the store enforces this.
type Incident struct {
	ID         string           `json:"id"`
	EndpointID string           `json:"endpoint_id"`
	Status     IncidentStatus   `json:"status"`
	StartedAt  time.Time        `json:"started_at"`
	ResolvedAt time.Time        `json:"resolved_at"`
	DurationMS float64          `json:"duration_ms"`
	Updates    []IncidentUpdate `json:"updates,omitempty"`
}

// Ongoing reports whether the incident is still open.
func (i Incident) Ongoing() bool {
	return i.Status == IncidentOngoing
}

// Duration returns the incident length: resolved incidents report their
// recorded duration, ongoing ones the time elapsed since they started.
func (i Incident) Duration() time.Duration {
	if i.Status == IncidentResolved {
		return time.Duration(i.DurationMS * float64(time.Millisecond))
	}
	return time.Since(i.StartedAt)
}
