package probe_test

import (
	"strconv"
	"testing"

	"github.com/argusmon/argus/internal/monitor"
	"github.com/argusmon/argus/internal/probe"
)

func TestSSHProbe_local(t *testing.T) {
	t.Parallel()

	dead := closedPort(t)

	AssertProbe(t, []ProbeTest{
		{
			Name:           "refused",
			Endpoint:       monitor.Endpoint{ID: "s1", Name: "s1", Kind: monitor.KindSSH, Host: "127.0.0.1", Port: dead, Username: "root", Password: "secret"},
			Status:         monitor.StatusDown,
			MessagePattern: "127\\.0\\.0\\.1:" + strconv.Itoa(dead) + ": connection refused",
		},
		{
			Name:              "missing-identity-file",
			Endpoint:          monitor.Endpoint{ID: "s2", Name: "s2", Kind: monitor.KindSSH, Host: "127.0.0.1", Port: 22, Username: "root", IdentityFile: "./testdata/no-such-key"},
			ParseErrorPattern: "no such identity file: \\./testdata/no-such-key",
		},
	}, 5)
}

func TestSSHProbe_notSSHServer(t *testing.T) {
	t.Parallel()

	// A listener that accepts and stays silent never finishes the SSH
	// handshake, so the check has to end on its own timeout.
	host, port, stop := listenTCP(t)
	defer stop()

	ep := monitor.Endpoint{ID: "s3", Name: "s3", Kind: monitor.KindSSH, Host: host, Port: port, Username: "root", Password: "secret", Timeout: 1}
	r := runProbe(t, ep, 5)

	if r.Status != monitor.StatusDown {
		t.Errorf("expected DOWN but got %s: %s", r.Status, r.Message)
	}
	if r.Message == "" {
		t.Error("expected a message naming the reason but got none")
	}
}

func TestSFTPProbe_local(t *testing.T) {
	t.Parallel()

	dead := closedPort(t)

	AssertProbe(t, []ProbeTest{
		{
			Name:           "refused",
			Endpoint:       monitor.Endpoint{ID: "f1", Name: "f1", Kind: monitor.KindSFTP, Host: "127.0.0.1", Port: dead, Username: "root", Password: "secret"},
			Status:         monitor.StatusDown,
			MessagePattern: "127\\.0\\.0\\.1:" + strconv.Itoa(dead) + ": connection refused",
		},
	}, 5)
}

func TestNewSSHProbe_defaultPort(t *testing.T) {
	t.Parallel()

	ep := monitor.Endpoint{ID: "s", Name: "s", Kind: monitor.KindSSH, Host: "Example.COM", Username: "root", Password: "secret"}
	p, err := probe.NewSSHProbe(ep)
	if err != nil {
		t.Fatalf("failed to create probe: %s", err)
	}

	if p.Endpoint().Host != "Example.COM" {
		t.Errorf("endpoint should keep its original host: %s", p.Endpoint().Host)
	}
}
