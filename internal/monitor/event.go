package monitor

import (
	"time"
)

// EventType names the change events emitted by the store.
type EventType string

const (
	EventStatusChanged     EventType = "status_changed"
	EventIncidentOpened    EventType = "incident_opened"
	EventIncidentResolved  EventType = "incident_resolved"
	EventAlertCreated      EventType = "alert_created"
	EventAlertAcknowledged EventType = "alert_acknowledged"
	EventAlertResolved     EventType = "alert_resolved"
)

// Event is one change notification. Payload carries the affected record:
// a StatusChange for status events, an Incident or an Alert otherwise.
type Event struct {
	Type       EventType `json:"type"`
	EndpointID string    `json:"endpoint_id"`
	Time       time.Time `json:"time"`
	Payload    any       `json:"payload,omitempty"`
}

// StatusChange is the payload of an EventStatusChanged event.
type StatusChange struct {
	From    CheckStatus `json:"from"`
	To      CheckStatus `json:"to"`
	Message string      `json:"message"`
}
