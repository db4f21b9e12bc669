package monitor

import (
	"time"
)

// Severity classifies an Alert.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

// AlertStatus is the lifecycle state of an Alert.
type AlertStatus string

const (
	AlertActive       AlertStatus = "active"
	AlertAcknowledged AlertStatus = "acknowledged"
	AlertResolved     AlertStatus = "resolved"
)

// Alert is a notifiable event tied to an endpoint outage, with its own
// acknowledge/resolve lifecycle. Resolving an endpoint's incident resolves
// every unresolved alert of that endpoint.
type Alert struct {
	ID             string      `json:"id"`
	EndpointID     string      `json:"endpoint_id"`
	Severity       Severity    `json:"severity"`
	Status         AlertStatus `json:"status"`
	Message        string      `json:"message"`
	CreatedAt      time.Time   `json:"created_at"`
	AcknowledgedAt time.Time   `json:"acknowledged_at"`
	ResolvedAt     time.Time   `json:"resolved_at"`
}

// Open reports whether the alert still needs attention (not yet resolved).
func (a Alert) Open() bool {
	return a.Status != AlertResolved
}
