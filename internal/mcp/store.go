package mcp

import (
	"github.com/argusmon/argus/internal/monitor"
)

// Store is the read-only view of monitoring data the MCP tools work on.
type Store interface {
	// Endpoints returns every configured endpoint ordered by id.
	Endpoints() []monitor.Endpoint

	// Statuses returns the derived status of every endpoint, including the
	// reserved network self-monitor entry.
	Statuses() []monitor.Status

	// Incidents returns every incident, newest first.
	Incidents() []monitor.Incident

	// Alerts returns every alert, newest first.
	Alerts() []monitor.Alert
}
