// Package manager assembles the monitoring core: it owns the store, the
// persistence writer, the check scheduler, the notification dispatcher and
// the network self monitor, and keeps them consistent with each other.
package manager

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/argusmon/argus/internal/config"
	"github.com/argusmon/argus/internal/monitor"
	"github.com/argusmon/argus/internal/notify"
	"github.com/argusmon/argus/internal/probe"
	"github.com/argusmon/argus/internal/scheduler"
	"github.com/argusmon/argus/internal/storage"
	"github.com/argusmon/argus/internal/store"
)

// Manager is the single entry point for everything the transport layer
// wants to do with the monitoring core.
type Manager struct {
	Store      *store.Store
	Scheduler  *scheduler.Scheduler
	Dispatcher *notify.Dispatcher
	Self       *notify.SelfMonitor

	file   *storage.File
	logger *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New builds the monitoring core from the process configuration and
// hydrates it from the data file. A corrupt data file is logged and the
// process starts from an empty state; an unwritable one is fatal.
func New(conf *config.Config, logger *zap.Logger) (*Manager, error) {
	file, err := storage.Open(conf.Storage.DataFile, logger)
	if err != nil {
		return nil, err
	}

	snap, err := storage.Load(conf.Storage.DataFile)
	if err != nil {
		logger.Error("failed to load saved state, starting empty", zap.Error(err))
		snap = monitor.Snapshot{Settings: monitor.DefaultSettings()}
	}

	disp := notify.NewDispatcher(logger)
	if conf.SMTP.Enabled() {
		sender, err := notify.NewEmailSender(notify.EmailConfig{
			Host:       conf.SMTP.Host,
			Port:       conf.SMTP.Port,
			Username:   conf.SMTP.Username,
			Password:   conf.SMTP.Password,
			From:       conf.SMTP.From,
			SkipVerify: conf.SMTP.SkipVerify,
			Timeout:    conf.SMTP.Timeout,
		})
		if err != nil {
			file.Close()
			return nil, err
		}
		disp.Email = sender
	}
	if conf.SMS.Enabled() {
		sender, err := notify.NewSMSSender(notify.SMSConfig{
			GatewayURL: conf.SMS.GatewayURL,
			Token:      conf.SMS.Token,
			Sender:     conf.SMS.Sender,
			Timeout:    conf.SMS.Timeout,
		})
		if err != nil {
			file.Close()
			return nil, err
		}
		disp.SMS = sender
	}
	if conf.Speech.Enabled() {
		speaker, err := notify.NewSpeaker(conf.Speech.Command, conf.Speech.Timeout)
		if err != nil {
			file.Close()
			return nil, err
		}
		disp.Speech = speaker
	}

	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		Dispatcher: disp,
		file:       file,
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
	}

	m.Store = store.New(file.Save)
	m.Store.HistoryLength = conf.Storage.HistoryLength
	m.Store.Load(snap)

	m.Scheduler = scheduler.New(m.runCheck, logger)

	m.Self = notify.NewSelfMonitor(m.Store, disp, logger)
	if len(conf.SelfCheck.Targets) > 0 {
		m.Self.Targets = conf.SelfCheck.Targets
	}

	m.Store.OnEvent = append(m.Store.OnEvent, m.handleEvent)

	return m, nil
}

// Start begins checking: every enabled endpoint gets its loop, first checks
// staggered, and the self monitor starts ticking.
func (m *Manager) Start() {
	if err := m.Scheduler.Start(m.Store.Endpoints()); err != nil {
		m.logger.Warn("some endpoints could not be scheduled", zap.Error(err))
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.Self.Run(m.ctx)
	}()
}

// Shutdown stops the check loops, waits for in-flight checks and
// notifications up to the context's deadline, and closes the persistence
// writer.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.cancel()

	err := m.Scheduler.Shutdown(ctx)

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		err = multierr.Append(err, ctx.Err())
	}

	return multierr.Append(err, m.file.Close())
}

// Healthy reports whether the persistence writer is still in a good state.
func (m *Manager) Healthy() bool {
	return m.file.Healthy()
}

// CreateEndpoint validates, stores and schedules a new endpoint. An empty
// id gets a generated one.
func (m *Manager) CreateEndpoint(ep monitor.Endpoint) (monitor.Endpoint, error) {
	if ep.ID == "" {
		ep.ID = uuid.NewString()
	}
	return m.putEndpoint(ep)
}

// UpdateEndpoint replaces an existing endpoint and reschedules its checks.
func (m *Manager) UpdateEndpoint(id string, ep monitor.Endpoint) (monitor.Endpoint, error) {
	if _, err := m.Store.GetEndpoint(id); err != nil {
		return monitor.Endpoint{}, err
	}
	ep.ID = id
	return m.putEndpoint(ep)
}

func (m *Manager) putEndpoint(ep monitor.Endpoint) (monitor.Endpoint, error) {
	if err := validateEndpoint(ep); err != nil {
		return monitor.Endpoint{}, err
	}

	m.Store.PutEndpoint(ep)
	saved, err := m.Store.GetEndpoint(ep.ID)
	if err != nil {
		return monitor.Endpoint{}, err
	}

	if err := m.Scheduler.Upsert(saved); err != nil {
		return monitor.Endpoint{}, err
	}
	return saved, nil
}

// DeleteEndpoint stops the endpoint's checks before removing it, so no
// result lands after the removal.
func (m *Manager) DeleteEndpoint(id string) error {
	m.Scheduler.Remove(id)
	return m.Store.DeleteEndpoint(id)
}

// validateEndpoint rejects definitions the prober or the scheduler could
// not work with, before they reach the store.
func validateEndpoint(ep monitor.Endpoint) error {
	if err := ep.Validate(); err != nil {
		return err
	}
	_, err := scheduler.ScheduleFor(ep)
	return err
}

// runCheck is the scheduler's callback: build the prober, run it with the
// endpoint's own timeout, feed the result to the state machine.
func (m *Manager) runCheck(ctx context.Context, ep monitor.Endpoint) {
	p, err := probe.New(ep)
	if err != nil {
		m.logger.Error("broken endpoint definition",
			zap.String("endpoint", ep.ID),
			zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(ctx, ep.TimeoutDuration())
	defer cancel()

	rec := probe.Check(ctx, p)

	m.logger.Info("endpoint checked",
		zap.String("endpoint", ep.ID),
		zap.String("status", rec.Status.String()),
		zap.Float64("latency_ms", rec.LatencyMS),
		zap.String("message", rec.Message))

	if err := m.Store.Apply(rec); err != nil {
		m.logger.Warn("dropped check result",
			zap.String("endpoint", ep.ID),
			zap.Error(err))
	}
}

// handleEvent turns committed store events into notifications. Self monitor
// events are skipped here: the self monitor notifies on its own, under its
// cooldown.
func (m *Manager) handleEvent(ev monitor.Event) {
	if ev.EndpointID == monitor.SelfMonitorID {
		return
	}

	switch ev.Type {
	case monitor.EventAlertCreated:
		if al, ok := ev.Payload.(monitor.Alert); ok {
			m.notifyDown(ev.EndpointID, al)
		}
	case monitor.EventIncidentResolved:
		if in, ok := ev.Payload.(monitor.Incident); ok {
			m.notifyRecovery(ev.EndpointID, in)
		}
	}
}

func (m *Manager) notifyDown(endpointID string, al monitor.Alert) {
	ep, err := m.Store.GetEndpoint(endpointID)
	if err != nil {
		return
	}

	set := notify.ResolveFor(monitor.StatusDown, m.Store.Contacts(), m.Store.Groups())
	m.dispatch(set, notify.DownNotification(ep, al.Message))
}

// notifyRecovery fires only when the endpoint is actually back up; an
// incident resolved by hand mid-outage stays quiet.
func (m *Manager) notifyRecovery(endpointID string, in monitor.Incident) {
	st, err := m.Store.GetStatus(endpointID)
	if err != nil || st.Current != monitor.StatusUp {
		return
	}
	ep, err := m.Store.GetEndpoint(endpointID)
	if err != nil {
		return
	}

	set := notify.ResolveFor(monitor.StatusUp, m.Store.Contacts(), m.Store.Groups())
	m.dispatch(set, notify.RecoveryNotification(ep, in))
}

// dispatch delivers one notification in the background so the check loop
// that triggered it is not held up by slow relays.
func (m *Manager) dispatch(set notify.RecipientSet, n notify.Notification) {
	if set.Empty() {
		m.logger.Debug("nobody to notify", zap.String("subject", n.Subject))
		return
	}

	settings := m.Store.Settings()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		if err := m.Dispatcher.Dispatch(m.ctx, set, n, settings); err != nil {
			m.logger.Error("failed to deliver notifications",
				zap.String("subject", n.Subject),
				zap.Error(err))
		}
	}()
}
