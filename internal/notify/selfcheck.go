package notify

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/argusmon/argus/internal/monitor"
	"github.com/argusmon/argus/internal/store"
)

// DefaultSelfCheckTargets are well-known anycast addresses; reaching any
// one of them counts as having network connectivity.
var DefaultSelfCheckTargets = []string{"1.1.1.1:443", "8.8.8.8:53"}

// DefaultSelfCheckDialTimeout bounds one connectivity dial attempt.
const DefaultSelfCheckDialTimeout = 5 * time.Second

// NetworkStatus is a snapshot of the host's own connectivity as last
// observed by the self monitor.
type NetworkStatus struct {
	Connected     bool      `json:"connected"`
	LastChecked   time.Time `json:"last_checked"`
	LastConnected time.Time `json:"last_connected"`
}

// SelfMonitor watches whether this host can reach the network at all. A
// transition feeds a synthetic check result for the reserved self-monitor
// id through the regular status pipeline, so outages of the monitoring host
// get an incident and alert like any endpoint. Its notifications run
// through a cooldown so a flapping uplink cannot flood the channels.
type SelfMonitor struct {
	Targets     []string
	DialTimeout time.Duration

	store    *store.Store
	disp     *Dispatcher
	cooldown *Cooldown
	logger   *zap.Logger

	mu            sync.Mutex
	connected     bool
	lastChecked   time.Time
	lastConnected time.Time
}

func NewSelfMonitor(st *store.Store, disp *Dispatcher, logger *zap.Logger) *SelfMonitor {
	return &SelfMonitor{
		Targets:     DefaultSelfCheckTargets,
		DialTimeout: DefaultSelfCheckDialTimeout,
		store:       st,
		disp:        disp,
		cooldown:    NewCooldown(st.Settings().SelfCheckCooldownDuration()),
		logger:      logger,

		// Assume connectivity until the first check says otherwise, so a
		// host that boots offline still observes a transition.
		connected: true,
	}
}

// Status returns the last observed connectivity.
func (m *SelfMonitor) Status() NetworkStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return NetworkStatus{
		Connected:     m.connected,
		LastChecked:   m.lastChecked,
		LastConnected: m.lastConnected,
	}
}

// Run checks connectivity every self-check interval until ctx is done.
// Interval and cooldown changes in the settings take effect on the next
// tick.
func (m *SelfMonitor) Run(ctx context.Context) {
	for {
		timer := time.NewTimer(m.store.Settings().SelfCheckIntervalDuration())
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
		m.CheckNow(ctx)
	}
}

// CheckNow performs one connectivity check and handles any transition.
func (m *SelfMonitor) CheckNow(ctx context.Context) {
	settings := m.store.Settings()
	m.cooldown.SetWindow(settings.SelfCheckCooldownDuration())

	started := time.Now()
	target, err := m.probe(ctx)
	up := err == nil

	m.mu.Lock()
	was := m.connected
	m.connected = up
	m.lastChecked = started
	if up {
		m.lastConnected = started
	}
	m.mu.Unlock()

	if up == was {
		// Not a transition. A "still disconnected" tick never notifies.
		return
	}

	var rec monitor.CheckResult
	var kind string
	if up {
		rec = monitor.NewResult(monitor.SelfMonitorID, monitor.StatusUp, started, time.Since(started), fmt.Sprintf("reached %s", target))
		kind = "connected"
		m.logger.Info("network connection restored", zap.String("target", target))
	} else {
		rec = monitor.NewResult(monitor.SelfMonitorID, monitor.StatusDown, started, time.Since(started), "no self-check target reachable")
		kind = "disconnected"
		m.logger.Warn("network connection lost", zap.Error(err))
	}

	if err := m.store.Apply(rec); err != nil {
		m.logger.Error("failed to record network transition", zap.Error(err))
	}

	if !m.cooldown.Allow(kind, started) {
		m.logger.Debug("self-check notification suppressed by cooldown", zap.String("kind", kind))
		return
	}

	m.notify(ctx, rec, settings)
}

func (m *SelfMonitor) notify(ctx context.Context, rec monitor.CheckResult, settings monitor.Settings) {
	ep := monitor.Endpoint{ID: monitor.SelfMonitorID, Name: "network connection"}

	var n Notification
	if rec.Status == monitor.StatusUp {
		if inc := m.incidentResolvedBy(rec); inc != nil {
			n = RecoveryNotification(ep, *inc)
		} else {
			n = RecoveryNotification(ep, monitor.Incident{EndpointID: monitor.SelfMonitorID})
		}
	} else {
		n = DownNotification(ep, rec.Message)
	}

	set := ResolveFor(rec.Status, m.store.Contacts(), m.store.Groups())
	if set.Empty() {
		return
	}
	if err := m.disp.Dispatch(ctx, set, n, settings); err != nil {
		m.logger.Warn("failed to send self-check notification", zap.Error(err))
	}
}

// incidentResolvedBy finds the incident this recovery closed. When
// auto-resolve is off nothing closes, and an earlier outage must not lend
// its duration to the message.
func (m *SelfMonitor) incidentResolvedBy(rec monitor.CheckResult) *monitor.Incident {
	for _, inc := range m.store.Incidents() {
		if inc.EndpointID == monitor.SelfMonitorID && !inc.Ongoing() && !inc.ResolvedAt.Before(rec.CheckedAt) {
			return &inc
		}
	}
	return nil
}

// probe reports the first reachable target, trying them in order.
func (m *SelfMonitor) probe(ctx context.Context) (string, error) {
	dialer := net.Dialer{Timeout: m.DialTimeout}

	var lastErr error
	for _, target := range m.Targets {
		conn, err := dialer.DialContext(ctx, "tcp", target)
		if err != nil {
			lastErr = err
			continue
		}
		conn.Close()
		return target, nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no self-check targets configured")
	}
	return "", lastErr
}
