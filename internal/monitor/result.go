package monitor

import (
	"time"
)

const (
	// StatusUnknown is the state of an endpoint that has not been checked yet.
	StatusUnknown CheckStatus = iota

	// StatusUp means the last check succeeded.
	StatusUp

	// StatusDown means the last check failed.
	StatusDown

	// StatusAborted means the check was canceled before it finished, for
	// example because the endpoint was disabled or deleted. Aborted results
	// are never applied to an endpoint's status.
	StatusAborted
)

// CheckStatus is the outcome of a single check, and the derived current
// state of an endpoint.
type CheckStatus int8

// ParseCheckStatus parses a status string. Unsupported values parse as
// StatusUnknown rather than returning an error.
func ParseCheckStatus(raw string) CheckStatus {
	switch raw {
	case "UP":
		return StatusUp
	case "DOWN":
		return StatusDown
	case "ABORTED":
		return StatusAborted
	default:
		return StatusUnknown
	}
}

func (s CheckStatus) String() string {
	switch s {
	case StatusUp:
		return "UP"
	case StatusDown:
		return "DOWN"
	case StatusAborted:
		return "ABORTED"
	default:
		return "UNKNOWN"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s CheckStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. It never fails;
// unsupported input becomes StatusUnknown.
func (s *CheckStatus) UnmarshalText(text []byte) error {
	*s = ParseCheckStatus(string(text))
	return nil
}

// CheckResult is the normalized outcome of one probe execution. It is
// ephemeral: only the Status derived from it is persisted.
type CheckResult struct {
	EndpointID string         `json:"endpoint_id"`
	Status     CheckStatus    `json:"status"`
	Latency    time.Duration  `json:"-"`
	LatencyMS  float64        `json:"latency_ms"`
	Message    string         `json:"message"`
	Extra      map[string]any `json:"extra,omitempty"`
	CheckedAt  time.Time      `json:"checked_at"`
}

// NewResult builds a CheckResult. CheckedAt is the time the check started;
// the millisecond latency field is derived from d.
func NewResult(endpointID string, status CheckStatus, startedAt time.Time, d time.Duration, message string) CheckResult {
	return CheckResult{
		EndpointID: endpointID,
		Status:     status,
		Latency:    d,
		LatencyMS:  float64(d.Microseconds()) / 1000,
		Message:    message,
		CheckedAt:  startedAt,
	}
}
