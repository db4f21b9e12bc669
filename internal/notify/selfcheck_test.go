package notify_test

import (
	"context"
	"net"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/argusmon/argus/internal/monitor"
	"github.com/argusmon/argus/internal/notify"
	"github.com/argusmon/argus/internal/store"
)

// closedPort returns an address on localhost that refuses connections.
func closedPort(t *testing.T) string {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %s", err)
	}
	addr := ln.Addr().String()
	ln.Close()
	return addr
}

func TestSelfMonitor(t *testing.T) {
	t.Parallel()

	st := store.New(nil)
	st.PutContact(monitor.Contact{ID: "ops", Email: "ops@example.com", EmailEnabled: true, NotifyOnDown: true, NotifyOnUp: true})

	email := &fakeEmail{}
	d := notify.NewDispatcher(zap.NewNop())
	d.Email = email

	m := notify.NewSelfMonitor(st, d, zap.NewNop())
	m.DialTimeout = 100 * time.Millisecond

	live, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %s", err)
	}
	defer live.Close()
	dead := closedPort(t)

	ctx := context.Background()

	if !m.Status().Connected {
		t.Fatalf("expected the monitor to assume connectivity at start")
	}

	// First check fails: a disconnect transition.
	m.Targets = []string{dead}
	m.CheckNow(ctx)

	if m.Status().Connected {
		t.Errorf("expected a disconnected status")
	}
	if _, ok := st.OngoingIncident(monitor.SelfMonitorID); !ok {
		t.Errorf("expected an ongoing incident for the network monitor")
	}
	if got := email.Sent(); len(got) != 1 {
		t.Fatalf("expected 1 outage notification but got %d", len(got))
	}

	// Still disconnected: not a transition, must not notify again.
	m.CheckNow(ctx)
	if got := email.Sent(); len(got) != 1 {
		t.Errorf("a repeated disconnected tick notified, now %d mails", len(got))
	}

	// Reconnect: the incident resolves and a recovery notification goes out.
	m.Targets = []string{live.Addr().String()}
	m.CheckNow(ctx)

	if !m.Status().Connected {
		t.Errorf("expected a connected status")
	}
	if _, ok := st.OngoingIncident(monitor.SelfMonitorID); ok {
		t.Errorf("expected the incident to resolve on reconnect")
	}
	if got := email.Sent(); len(got) != 2 {
		t.Errorf("expected a recovery notification, got %d mails", len(got))
	}

	// Disconnect again inside the cooldown window: the incident reopens but
	// the repeated notification is suppressed.
	m.Targets = []string{dead}
	m.CheckNow(ctx)

	if _, ok := st.OngoingIncident(monitor.SelfMonitorID); !ok {
		t.Errorf("expected a new incident for the repeated outage")
	}
	if got := email.Sent(); len(got) != 2 {
		t.Errorf("expected the repeated outage notification to be suppressed, got %d mails", len(got))
	}
}

func TestSelfMonitor_recordsLastConnected(t *testing.T) {
	t.Parallel()

	st := store.New(nil)
	m := notify.NewSelfMonitor(st, notify.NewDispatcher(zap.NewNop()), zap.NewNop())
	m.DialTimeout = 100 * time.Millisecond

	live, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %s", err)
	}
	defer live.Close()

	m.Targets = []string{live.Addr().String()}
	m.CheckNow(context.Background())

	status := m.Status()
	if !status.Connected {
		t.Fatalf("expected a connected status")
	}
	if status.LastChecked.IsZero() || status.LastConnected.IsZero() {
		t.Errorf("expected check times to be recorded but got %#v", status)
	}

	// Connected again: no transition, so no incident ever opens.
	m.CheckNow(context.Background())
	if _, ok := st.OngoingIncident(monitor.SelfMonitorID); ok {
		t.Errorf("a healthy self check must not open an incident")
	}
}
