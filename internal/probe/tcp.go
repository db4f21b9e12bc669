package probe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/argusmon/argus/internal/monitor"
)

// TCPProbe checks that a TCP connect to host:port completes in time.
type TCPProbe struct {
	ep   monitor.Endpoint
	addr string
}

func NewTCPProbe(ep monitor.Endpoint) (TCPProbe, error) {
	return TCPProbe{ep: ep, addr: ep.Addr()}, nil
}

func (p TCPProbe) Endpoint() monitor.Endpoint {
	return p.ep
}

func (p TCPProbe) Check(ctx context.Context) monitor.CheckResult {
	ctx, cancel := context.WithTimeout(ctx, p.ep.TimeoutDuration())
	defer cancel()

	var dialer net.Dialer

	st := time.Now()
	conn, err := dialer.DialContext(ctx, "tcp", p.addr)
	d := time.Since(st)

	var status monitor.CheckStatus
	var message string

	if err != nil {
		status = monitor.StatusDown
		message = dialErrorToMessage(err)
	} else {
		status = monitor.StatusUp
		message = "source=" + conn.LocalAddr().String() + " target=" + conn.RemoteAddr().String()
		conn.Close()
	}

	return timeoutOr(ctx, monitor.NewResult(p.ep.ID, status, st, d, message))
}

// dialErrorToMessage flattens the wrapped errors a failed dial produces into
// a short message that names the reason.
func dialErrorToMessage(err error) string {
	var dnsErr *net.DNSError
	var opErr *net.OpError

	if errors.As(err, &dnsErr) {
		return dnsErrorToMessage(dnsErr)
	}
	if errors.As(err, &opErr) && opErr.Op == "dial" && opErr.Addr != nil {
		return fmt.Sprintf("%s: connection refused", opErr.Addr)
	}
	return err.Error()
}
