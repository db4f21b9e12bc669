package monitor

import (
	"time"
)

// Settings holds the runtime tunables kept in the snapshot and editable
// through the API, as opposed to process configuration which is fixed at
// startup.
type Settings struct {
	FailureThreshold  int  `json:"failure_threshold"`
	AutoResolve       bool `json:"auto_resolve"`
	EmailEnabled      bool `json:"email_enabled"`
	SMSEnabled        bool `json:"sms_enabled"`
	SpeechEnabled     bool `json:"speech_enabled"`
	SelfCheckInterval int  `json:"self_check_interval"`
	SelfCheckCooldown int  `json:"self_check_cooldown"`
}

// DefaultSettings returns the values used when the snapshot has none.
func DefaultSettings() Settings {
	return Settings{
		FailureThreshold:  3,
		AutoResolve:       true,
		EmailEnabled:      true,
		SMSEnabled:        false,
		SpeechEnabled:     false,
		SelfCheckInterval: 30,
		SelfCheckCooldown: 300,
	}
}

// SelfCheckIntervalDuration returns the self check period, falling back to
// the default when unset.
func (s Settings) SelfCheckIntervalDuration() time.Duration {
	if s.SelfCheckInterval <= 0 {
		return 30 * time.Second
	}
	return time.Duration(s.SelfCheckInterval) * time.Second
}

// SelfCheckCooldownDuration returns how long a repeated self check
// notification of the same kind stays suppressed.
func (s Settings) SelfCheckCooldownDuration() time.Duration {
	if s.SelfCheckCooldown <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(s.SelfCheckCooldown) * time.Second
}

// Normalize clamps out-of-range values back to usable ones.
func (s Settings) Normalize() Settings {
	if s.FailureThreshold < 1 {
		s.FailureThreshold = 1
	}
	if s.SelfCheckInterval < 0 {
		s.SelfCheckInterval = 0
	}
	if s.SelfCheckCooldown < 0 {
		s.SelfCheckCooldown = 0
	}
	return s
}
