package manager_test

import (
	"context"
	"errors"
	"net"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/argusmon/argus/internal/argerr"
	"github.com/argusmon/argus/internal/config"
	"github.com/argusmon/argus/internal/manager"
	"github.com/argusmon/argus/internal/monitor"
	"github.com/argusmon/argus/internal/store"
)

type fakeEmail struct {
	mu   sync.Mutex
	sent []string
}

func (f *fakeEmail) Send(ctx context.Context, to, subject, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.sent = append(f.sent, to+"|"+subject)
	return nil
}

func (f *fakeEmail) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.sent)
}

func (f *fakeEmail) list() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]string(nil), f.sent...)
}

func newTestManager(t *testing.T) (*manager.Manager, *fakeEmail) {
	t.Helper()

	conf := &config.Config{
		Server:    config.ServerConfig{Listen: ":0"},
		Storage:   config.StorageConfig{DataFile: filepath.Join(t.TempDir(), "state.json"), HistoryLength: 50},
		Log:       config.LogConfig{Level: "info"},
		SelfCheck: config.SelfCheckConfig{Targets: []string{"127.0.0.1:1"}},
	}

	m, err := manager.New(conf, zap.NewNop())
	if err != nil {
		t.Fatalf("failed to build manager: %s", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := m.Shutdown(ctx); err != nil {
			t.Errorf("failed to shut down: %s", err)
		}
	})

	email := &fakeEmail{}
	m.Dispatcher.Email = email
	return m, email
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("gave up waiting for %s", what)
}

func result(id string, status monitor.CheckStatus) monitor.CheckResult {
	return monitor.NewResult(id, status, time.Now(), 12*time.Millisecond, "probe result")
}

func TestManager_createEndpoint(t *testing.T) {
	m, _ := newTestManager(t)

	created, err := m.CreateEndpoint(monitor.Endpoint{
		Name:    "db",
		Kind:    monitor.KindTCP,
		Host:    "127.0.0.1",
		Port:    5432,
		Enabled: false,
	})
	if err != nil {
		t.Fatalf("failed to create endpoint: %s", err)
	}

	if created.ID == "" {
		t.Errorf("expected a generated id but got an empty one")
	}
	if created.CreatedAt.IsZero() {
		t.Errorf("expected the creation time to be set")
	}
	if m.Scheduler.Contains(created.ID) {
		t.Errorf("expected a disabled endpoint to stay unscheduled")
	}

	if _, err := m.Store.GetEndpoint(created.ID); err != nil {
		t.Errorf("expected the endpoint to be stored but got error: %s", err)
	}
}

func TestManager_createEndpoint_rejectsBrokenDefinitions(t *testing.T) {
	m, _ := newTestManager(t)

	tests := []struct {
		Name     string
		Endpoint monitor.Endpoint
	}{
		{"missing_host", monitor.Endpoint{Name: "db", Kind: monitor.KindTCP, Port: 5432}},
		{"unsupported_kind", monitor.Endpoint{Name: "x", Kind: "gopher", Host: "example.com"}},
		{"broken_schedule", monitor.Endpoint{Name: "db", Kind: monitor.KindTCP, Host: "127.0.0.1", Port: 5432, Schedule: "not a schedule"}},
	}

	for _, tt := range tests {
		t.Run(tt.Name, func(t *testing.T) {
			if _, err := m.CreateEndpoint(tt.Endpoint); !errors.Is(err, argerr.ErrConfiguration) {
				t.Errorf("expected a configuration error but got %#v", err)
			}
		})
	}

	if n := len(m.Store.Endpoints()); n != 0 {
		t.Errorf("expected nothing to be stored but found %d endpoints", n)
	}
}

func TestManager_updateEndpoint(t *testing.T) {
	m, _ := newTestManager(t)

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %s", err)
	}
	defer lis.Close()
	host, port := splitHostPort(t, lis.Addr().String())

	created, err := m.CreateEndpoint(monitor.Endpoint{
		Name: "db", Kind: monitor.KindTCP, Host: host, Port: port, Interval: 3600,
	})
	if err != nil {
		t.Fatalf("failed to create endpoint: %s", err)
	}

	updated, err := m.UpdateEndpoint(created.ID, monitor.Endpoint{
		Name: "db", Kind: monitor.KindTCP, Host: host, Port: port, Interval: 3600, Enabled: true,
	})
	if err != nil {
		t.Fatalf("failed to update endpoint: %s", err)
	}
	if updated.ID != created.ID {
		t.Errorf("expected id %#v but got %#v", created.ID, updated.ID)
	}
	if !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Errorf("expected the creation time to survive updates")
	}
	if !m.Scheduler.Contains(created.ID) {
		t.Errorf("expected an enabled endpoint to be scheduled")
	}

	if _, err := m.UpdateEndpoint("no-such-endpoint", updated); !errors.Is(err, store.ErrUnknownEndpoint) {
		t.Errorf("expected ErrUnknownEndpoint but got %#v", err)
	}
}

func TestManager_deleteEndpoint_stopsChecks(t *testing.T) {
	m, _ := newTestManager(t)

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %s", err)
	}
	defer lis.Close()
	host, port := splitHostPort(t, lis.Addr().String())

	created, err := m.CreateEndpoint(monitor.Endpoint{
		Name: "db", Kind: monitor.KindTCP, Host: host, Port: port, Interval: 3600, Enabled: true,
	})
	if err != nil {
		t.Fatalf("failed to create endpoint: %s", err)
	}

	waitFor(t, "the first check", func() bool {
		st, err := m.Store.GetStatus(created.ID)
		return err == nil && st.TotalChecks >= 1
	})

	if err := m.DeleteEndpoint(created.ID); err != nil {
		t.Fatalf("failed to delete endpoint: %s", err)
	}

	if m.Scheduler.Contains(created.ID) {
		t.Errorf("expected the check loop to be gone")
	}
	if _, err := m.Store.GetEndpoint(created.ID); !errors.Is(err, store.ErrUnknownEndpoint) {
		t.Errorf("expected the endpoint to be gone but got %#v", err)
	}
	if _, err := m.Store.GetStatus(created.ID); !errors.Is(err, store.ErrUnknownEndpoint) {
		t.Errorf("expected the status to be gone but got %#v", err)
	}

	if err := m.DeleteEndpoint(created.ID); !errors.Is(err, store.ErrUnknownEndpoint) {
		t.Errorf("expected ErrUnknownEndpoint on double delete but got %#v", err)
	}
}

func TestManager_notifiesOnTransitions(t *testing.T) {
	m, email := newTestManager(t)

	m.Store.PutEndpoint(monitor.Endpoint{
		ID: "web", Name: "web", Kind: monitor.KindHTTP, URL: "http://web.example",
	})
	m.Store.PutContact(monitor.Contact{
		ID: "ops", Name: "Ops", Email: "ops@example.com",
		EmailEnabled: true, NotifyOnIncident: true,
	})

	if err := m.Store.Apply(result("web", monitor.StatusDown)); err != nil {
		t.Fatalf("failed to apply result: %s", err)
	}
	waitFor(t, "the down notification", func() bool { return email.count() == 1 })

	if got := email.list()[0]; got != "ops@example.com|ALERT: web is down" {
		t.Errorf("unexpected down notification: %#v", got)
	}

	// still down, incident already ongoing: no second alert, no second mail
	if err := m.Store.Apply(result("web", monitor.StatusDown)); err != nil {
		t.Fatalf("failed to apply result: %s", err)
	}
	time.Sleep(50 * time.Millisecond)
	if n := email.count(); n != 1 {
		t.Fatalf("expected still 1 notification but got %d", n)
	}

	if err := m.Store.Apply(result("web", monitor.StatusUp)); err != nil {
		t.Fatalf("failed to apply result: %s", err)
	}
	waitFor(t, "the recovery notification", func() bool { return email.count() == 2 })

	if got := email.list()[1]; got != "ops@example.com|RESOLVED: web has recovered" {
		t.Errorf("unexpected recovery notification: %#v", got)
	}
}

func TestManager_manualResolveStaysQuiet(t *testing.T) {
	m, email := newTestManager(t)

	m.Store.PutEndpoint(monitor.Endpoint{
		ID: "web", Name: "web", Kind: monitor.KindHTTP, URL: "http://web.example",
	})
	m.Store.PutContact(monitor.Contact{
		ID: "ops", Name: "Ops", Email: "ops@example.com",
		EmailEnabled: true, NotifyOnIncident: true,
	})

	if err := m.Store.Apply(result("web", monitor.StatusDown)); err != nil {
		t.Fatalf("failed to apply result: %s", err)
	}
	waitFor(t, "the down notification", func() bool { return email.count() == 1 })

	in, ok := m.Store.OngoingIncident("web")
	if !ok {
		t.Fatalf("expected an ongoing incident")
	}
	if err := m.Store.ResolveIncident(in.ID, "maintenance window"); err != nil {
		t.Fatalf("failed to resolve incident: %s", err)
	}

	// the endpoint is still down, so the manual resolution must not read as
	// a recovery
	time.Sleep(50 * time.Millisecond)
	if n := email.count(); n != 1 {
		t.Errorf("expected still 1 notification but got %d", n)
	}
}

func TestManager_uncontactableRecipientsAreSkipped(t *testing.T) {
	m, email := newTestManager(t)

	m.Store.PutEndpoint(monitor.Endpoint{
		ID: "web", Name: "web", Kind: monitor.KindHTTP, URL: "http://web.example",
	})
	m.Store.PutContact(monitor.Contact{
		ID: "up-only", Name: "Up Only", Email: "up@example.com",
		EmailEnabled: true, NotifyOnUp: true,
	})

	if err := m.Store.Apply(result("web", monitor.StatusDown)); err != nil {
		t.Fatalf("failed to apply result: %s", err)
	}

	time.Sleep(50 * time.Millisecond)
	if n := email.count(); n != 0 {
		t.Errorf("expected no notification for an up-only subscriber but got %d", n)
	}
}

func splitHostPort(t *testing.T, addr string) (string, int) {
	t.Helper()

	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		t.Fatalf("failed to split %q: %s", addr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		t.Fatalf("failed to parse port %q: %s", portStr, err)
	}
	return host, port
}
