package probe_test

import (
	"net"
	"testing"

	"github.com/argusmon/argus/internal/monitor"
)

// startTelnetServer runs a minimal telnet server that offers the given
// negotiation bytes on every connection and then writes the banner.
func startTelnetServer(t *testing.T, negotiation []byte, banner string, closeEarly bool) (host string, port int) {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %s", err)
	}
	t.Cleanup(func() { l.Close() })

	go func() {
		for {
			conn, err := l.Accept()
			if err != nil {
				return
			}
			go func(conn net.Conn) {
				defer conn.Close()
				if closeEarly {
					return
				}
				if len(negotiation) > 0 {
					conn.Write(negotiation)
					// consume the refusals
					buf := make([]byte, 64)
					conn.Read(buf)
				}
				if banner != "" {
					conn.Write([]byte(banner))
				}
			}(conn)
		}
	}()

	addr := l.Addr().(*net.TCPAddr)
	return addr.IP.String(), addr.Port
}

func TestTelnetProbe(t *testing.T) {
	t.Parallel()

	negotiation := []byte{
		255, 253, 24, // IAC DO TERMINAL-TYPE
		255, 251, 1, // IAC WILL ECHO
	}

	negHost, negPort := startTelnetServer(t, negotiation, "login: ", false)
	bannerHost, bannerPort := startTelnetServer(t, nil, "welcome\r\n", false)
	deadHost, deadPort := startTelnetServer(t, nil, "", true)

	AssertProbe(t, []ProbeTest{
		{
			Name:           "negotiation",
			Endpoint:       monitor.Endpoint{ID: "t1", Name: "t1", Kind: monitor.KindTelnet, Host: negHost, Port: negPort},
			Status:         monitor.StatusUp,
			MessagePattern: "negotiated 2 options(, server sent data)?",
		},
		{
			Name:           "banner-only",
			Endpoint:       monitor.Endpoint{ID: "t2", Name: "t2", Kind: monitor.KindTelnet, Host: bannerHost, Port: bannerPort},
			Status:         monitor.StatusUp,
			MessagePattern: "connected, server sent data",
		},
		{
			Name:           "closed-early",
			Endpoint:       monitor.Endpoint{ID: "t3", Name: "t3", Kind: monitor.KindTelnet, Host: deadHost, Port: deadPort},
			Status:         monitor.StatusDown,
			MessagePattern: "negotiation failed: connection closed during negotiation",
		},
	}, 10)

	AssertTimeout(t, monitor.Endpoint{ID: "t-t", Name: "t-t", Kind: monitor.KindTelnet, Host: negHost, Port: negPort})
}

func TestTelnetProbe_quietServer(t *testing.T) {
	t.Parallel()

	host, port, stop := listenTCP(t)
	defer stop()

	ep := monitor.Endpoint{ID: "tq", Name: "tq", Kind: monitor.KindTelnet, Host: host, Port: port, Timeout: 3}
	r := runProbe(t, ep, 5)

	if r.Status != monitor.StatusUp {
		t.Errorf("expected UP but got %s: %s", r.Status, r.Message)
	}
	if r.Message != "connected, no negotiation" {
		t.Errorf("unexpected message: %s", r.Message)
	}
}
