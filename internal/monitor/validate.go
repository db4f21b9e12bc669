package monitor

import (
	"net/url"
	"strings"

	"github.com/argusmon/argus/internal/argerr"
)

// Validate checks that the endpoint has everything its kind needs to run a
// check. It reports every problem at once rather than stopping at the first.
// Cron expressions in Schedule are checked where the endpoint gets scheduled.
func (e Endpoint) Validate() error {
	errs := &argerr.ListBuilder{What: argerr.ErrConfiguration}

	if strings.TrimSpace(e.Name) == "" {
		errs.Pushf("name is required")
	}

	if !e.Kind.Valid() {
		errs.Pushf("unsupported kind: %q", e.Kind)
		return errs.Build()
	}

	switch e.Kind {
	case KindHTTP:
		e.validateHTTP(errs)
	case KindICMP:
		if e.Host == "" {
			errs.Pushf("host is required")
		}
	case KindTCP, KindTelnet:
		if e.Host == "" {
			errs.Pushf("host is required")
		}
		if e.Port < 1 || e.Port > 65535 {
			errs.Pushf("port %d is out of range", e.Port)
		}
	case KindSSH, KindSFTP:
		e.validateSSH(errs)
	}

	if e.Timeout < 0 {
		errs.Pushf("timeout must not be negative")
	}
	if e.Interval < 0 {
		errs.Pushf("interval must not be negative")
	}

	return errs.Build()
}

func (e Endpoint) validateHTTP(errs *argerr.ListBuilder) {
	if e.URL == "" {
		errs.Pushf("url is required")
		return
	}

	u, err := url.Parse(e.URL)
	if err != nil {
		errs.Pushf("invalid url: %s", e.URL)
		return
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		errs.Pushf("unsupported url scheme: %q", u.Scheme)
	}
	if u.Host == "" {
		errs.Pushf("missing host in url")
	}

	if e.ExpectStatus != 0 && (e.ExpectStatus < 100 || e.ExpectStatus > 599) {
		errs.Pushf("expected status %d is not a valid HTTP status", e.ExpectStatus)
	}
}

func (e Endpoint) validateSSH(errs *argerr.ListBuilder) {
	if e.Host == "" {
		errs.Pushf("host is required")
	}
	if e.Port < 0 || e.Port > 65535 {
		errs.Pushf("port %d is out of range", e.Port)
	}
	if e.Username == "" {
		errs.Pushf("username is required")
	}
	if e.Password == "" && e.IdentityFile == "" {
		errs.Pushf("password or identity file is required")
	}
	if e.Fingerprint != "" && !strings.HasPrefix(e.Fingerprint, "SHA256:") && !strings.HasPrefix(e.Fingerprint, "MD5:") {
		errs.Pushf("unsupported fingerprint format: %q", e.Fingerprint)
	}
}
