// Package probe runs protocol checks against endpoints.
//
// Every prober resolves to exactly one CheckResult: network and protocol
// errors become a DOWN result with a message, never an error return, so a
// broken target can not take the caller down with it.
package probe

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/argusmon/argus/internal/argerr"
	"github.com/argusmon/argus/internal/monitor"
)

// Prober is the interface to check the target is dead or alive.
type Prober interface {
	// Endpoint returns the endpoint this prober was built for.
	// It should not change during lifetime of the instance.
	Endpoint() monitor.Endpoint

	// Check probes the target once and reports the outcome.
	Check(ctx context.Context) monitor.CheckResult
}

// New builds a Prober for the endpoint's kind.
// Invalid definitions are rejected here, before any network activity.
func New(ep monitor.Endpoint) (Prober, error) {
	if err := ep.Validate(); err != nil {
		return nil, err
	}

	switch ep.Kind {
	case monitor.KindHTTP:
		return NewHTTPProbe(ep)
	case monitor.KindICMP:
		return NewPingProbe(ep)
	case monitor.KindTCP:
		return NewTCPProbe(ep)
	case monitor.KindSSH:
		return NewSSHProbe(ep)
	case monitor.KindTelnet:
		return NewTelnetProbe(ep)
	case monitor.KindSFTP:
		return NewSFTPProbe(ep)
	default:
		return nil, argerr.New(argerr.ErrConfiguration, nil, "unsupported kind: %q", ep.Kind)
	}
}

// Check runs a prober and turns a panic inside it into a DOWN result, so a
// misbehaving check surfaces as a failed check instead of a crash.
func Check(ctx context.Context, p Prober) (rec monitor.CheckResult) {
	st := time.Now()
	defer func() {
		if v := recover(); v != nil {
			rec = monitor.NewResult(p.Endpoint().ID, monitor.StatusDown, st, time.Since(st), fmt.Sprintf("check panicked: %v", v))
		}
	}()
	return p.Check(ctx)
}

// timeoutOr overrides the result when the context ended the check: an
// expired deadline is a DOWN with its own message, a cancel is an abort.
func timeoutOr(ctx context.Context, rec monitor.CheckResult) monitor.CheckResult {
	switch ctx.Err() {
	case context.Canceled:
		rec.Status = monitor.StatusAborted
		rec.Message = "check aborted"
	case context.DeadlineExceeded:
		rec.Status = monitor.StatusDown
		rec.Message = "check timed out"
	default:
	}
	return rec
}

func dnsErrorToMessage(err *net.DNSError) string {
	msg := err.Error()
	if err.IsNotFound {
		msg = "lookup " + err.Name + ": not found"
	}
	if err.Server != "" {
		msg += " on " + err.Server
	}
	return msg
}
