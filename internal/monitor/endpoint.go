package monitor

import (
	"fmt"
	"time"
)

// SelfMonitorID is the reserved endpoint id of the host's own network
// reachability monitor. It has no Endpoint entity; results reported under
// this id flow through the same status/incident/alert pipeline as real
// endpoints.
const SelfMonitorID = "argus:network"

// Kind is the probe protocol of an endpoint.
type Kind string

const (
	KindHTTP   Kind = "http"
	KindICMP   Kind = "icmp"
	KindTCP    Kind = "tcp"
	KindSSH    Kind = "ssh"
	KindTelnet Kind = "telnet"
	KindSFTP   Kind = "sftp"
)

// Kinds lists every supported probe kind.
func Kinds() []Kind {
	return []Kind{KindHTTP, KindICMP, KindTCP, KindSSH, KindTelnet, KindSFTP}
}

// Valid reports whether k is one of the supported probe kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindHTTP, KindICMP, KindTCP, KindSSH, KindTelnet, KindSFTP:
		return true
	}
	return false
}

func (k Kind) String() string {
	return string(k)
}

// Endpoint is a configured target to be health-checked on a schedule.
//
// Only the fields relevant to its Kind are meaningful: URL, ExpectStatus and
// ExpectContent for http; Host for icmp; Host and Port for tcp and telnet;
// Host, Port and the credential fields for ssh and sftp.
type Endpoint struct {
	ID      string `json:"id"`
	Name    string `json:"name,omitempty"`
	Kind    Kind   `json:"kind"`
	Enabled bool   `json:"enabled"`

	URL           string `json:"url,omitempty"`
	Host          string `json:"host,omitempty"`
	Port          int    `json:"port,omitempty"`
	Username      string `json:"username,omitempty"`
	Password      string `json:"password,omitempty"`
	IdentityFile  string `json:"identity_file,omitempty"`
	Fingerprint   string `json:"fingerprint,omitempty"`
	RemotePath    string `json:"remote_path,omitempty"`
	ExpectStatus  int    `json:"expect_status,omitempty"`
	ExpectContent string `json:"expect_content,omitempty"`

	// Timeout and Interval are in seconds. Schedule, when set, is a cron
	// expression that overrides Interval.
	Timeout  int    `json:"timeout,omitempty"`
	Interval int    `json:"interval,omitempty"`
	Schedule string `json:"schedule,omitempty"`

	ApplicationID string `json:"application_id,omitempty"`
	GroupID       string `json:"group_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

const (
	DefaultTimeout  = 10 * time.Second
	DefaultInterval = 60 * time.Second
)

// TimeoutDuration returns the probe timeout, falling back to the default.
func (e Endpoint) TimeoutDuration() time.Duration {
	if e.Timeout <= 0 {
		return DefaultTimeout
	}
	return time.Duration(e.Timeout) * time.Second
}

// IntervalDuration returns the check interval, falling back to the default.
func (e Endpoint) IntervalDuration() time.Duration {
	if e.Interval <= 0 {
		return DefaultInterval
	}
	return time.Duration(e.Interval) * time.Second
}

// Addr returns the host:port address for kinds that connect to a socket.
func (e Endpoint) Addr() string {
	return fmt.Sprintf("%s:%d", e.Host, e.Port)
}

// Target returns the connection detail of the endpoint: the URL for http,
// the bare host for icmp, host:port for everything else. Empty when the
// endpoint has no connection detail at all.
func (e Endpoint) Target() string {
	switch e.Kind {
	case KindHTTP:
		return e.URL
	case KindICMP:
		return e.Host
	default:
		if e.Host == "" {
			return ""
		}
		return e.Addr()
	}
}

// Label returns a short human readable identifier for messages and logs.
func (e Endpoint) Label() string {
	if e.Name != "" {
		return e.Name
	}
	switch e.Kind {
	case KindHTTP:
		return e.URL
	case KindICMP:
		return string(e.Kind) + ":" + e.Host
	default:
		return string(e.Kind) + ":" + e.Addr()
	}
}
