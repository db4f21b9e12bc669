package probe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/argusmon/argus/internal/monitor"
)

// Telnet protocol bytes from RFC 854.
const (
	telnetSE   = 240
	telnetSB   = 250
	telnetWILL = 251
	telnetWONT = 252
	telnetDO   = 253
	telnetDONT = 254
	telnetIAC  = 255
)

// TelnetProbe checks that a telnet server accepts a connection and that its
// option negotiation completes. Every offered option is refused; the check
// only cares that the exchange itself works.
type TelnetProbe struct {
	ep   monitor.Endpoint
	addr string
}

func NewTelnetProbe(ep monitor.Endpoint) (TelnetProbe, error) {
	return TelnetProbe{ep: ep, addr: ep.Addr()}, nil
}

func (p TelnetProbe) Endpoint() monitor.Endpoint {
	return p.ep
}

func (p TelnetProbe) Check(ctx context.Context) monitor.CheckResult {
	ctx, cancel := context.WithTimeout(ctx, p.ep.TimeoutDuration())
	defer cancel()

	var dialer net.Dialer

	st := time.Now()
	conn, err := dialer.DialContext(ctx, "tcp", p.addr)
	if err != nil {
		return timeoutOr(ctx, monitor.NewResult(p.ep.ID, monitor.StatusDown, st, time.Since(st), dialErrorToMessage(err)))
	}
	defer conn.Close()

	opts, banner, err := p.negotiate(ctx, conn)
	d := time.Since(st)

	rec := monitor.NewResult(p.ep.ID, monitor.StatusUp, st, d, "")
	rec.Extra = map[string]any{"negotiated_options": opts}

	switch {
	case err != nil:
		rec.Status = monitor.StatusDown
		rec.Message = fmt.Sprintf("negotiation failed: %s", err)
	case opts > 0 && banner:
		rec.Message = fmt.Sprintf("negotiated %d options, server sent data", opts)
	case opts > 0:
		rec.Message = fmt.Sprintf("negotiated %d options", opts)
	case banner:
		rec.Message = "connected, server sent data"
	default:
		rec.Message = "connected, no negotiation"
	}

	return timeoutOr(ctx, rec)
}

// negotiate answers whatever the server offers right after connect. A quiet
// server is fine; the connection closing before anything arrived is not.
func (p TelnetProbe) negotiate(ctx context.Context, conn net.Conn) (opts int, banner bool, err error) {
	window := 2 * time.Second
	if dl, ok := ctx.Deadline(); ok {
		if until := time.Until(dl); until < window {
			window = until
		}
	}
	conn.SetReadDeadline(time.Now().Add(window))

	buf := make([]byte, 512)
	var seq []byte // unfinished IAC sequence carried across reads
	for {
		n, rerr := conn.Read(buf)
		for i := 0; i < n; i++ {
			b := buf[i]
			if len(seq) == 0 {
				if b == telnetIAC {
					seq = append(seq, b)
				} else {
					banner = true
				}
				continue
			}

			seq = append(seq, b)
			switch {
			case seq[1] == telnetIAC:
				// IAC IAC is an escaped data byte
				banner = true
				seq = nil
			case seq[1] == telnetSB:
				if len(seq) >= 4 && b == telnetSE && seq[len(seq)-2] == telnetIAC {
					seq = nil
				}
			case len(seq) == 3:
				if reply := refuseOption(seq[1], seq[2]); reply != nil {
					if _, werr := conn.Write(reply); werr != nil {
						return opts, banner, werr
					}
					opts++
				}
				seq = nil
			}
		}

		if rerr != nil {
			if banner || opts > 0 {
				return opts, banner, nil
			}
			var nerr net.Error
			if errors.As(rerr, &nerr) && nerr.Timeout() {
				return opts, banner, nil
			}
			if rerr == io.EOF {
				return opts, banner, errors.New("connection closed during negotiation")
			}
			return opts, banner, rerr
		}
		if banner {
			return opts, banner, nil
		}
	}
}

// refuseOption builds the refusal for an offered option. Acknowledgements
// of a refusal need no answer.
func refuseOption(cmd, opt byte) []byte {
	switch cmd {
	case telnetWILL:
		return []byte{telnetIAC, telnetDONT, opt}
	case telnetDO:
		return []byte{telnetIAC, telnetWONT, opt}
	}
	return nil
}
