// Package scheduler runs one check loop per enabled endpoint.
//
// Every endpoint owns a single goroutine: checks of different endpoints run
// concurrently, checks of one endpoint never overlap. The next tick is
// computed after a check returns, so ticks that came due while a slow check
// was in flight collapse into one instead of queueing up.
package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/argusmon/argus/internal/argerr"
	"github.com/argusmon/argus/internal/monitor"
	"github.com/argusmon/argus/internal/schedule"
)

// DefaultStagger spaces out first checks at startup so N endpoints do not
// all fire at the same instant.
const DefaultStagger = 500 * time.Millisecond

// CheckFunc runs one complete check of an endpoint: probe it and hand the
// result wherever it goes. It must honor ctx cancellation.
type CheckFunc func(ctx context.Context, ep monitor.Endpoint)

type task struct {
	ep     monitor.Endpoint
	sched  schedule.Schedule
	cancel context.CancelFunc
	done   chan struct{}
}

// Scheduler owns the timer loops of all scheduled endpoints.
type Scheduler struct {
	check   CheckFunc
	logger  *zap.Logger
	Stagger time.Duration

	mu     sync.Mutex
	tasks  map[string]*task
	ctx    context.Context
	cancel context.CancelFunc
}

func New(check CheckFunc, logger *zap.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		check:   check,
		logger:  logger,
		Stagger: DefaultStagger,
		tasks:   make(map[string]*task),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// ScheduleFor builds the endpoint's schedule: the cron expression override
// when set, the plain interval otherwise.
func ScheduleFor(ep monitor.Endpoint) (schedule.Schedule, error) {
	if ep.Schedule != "" {
		s, err := schedule.Parse(ep.Schedule)
		if err != nil {
			return nil, argerr.New(argerr.ErrConfiguration, err, "invalid schedule for endpoint %s", ep.ID)
		}
		return s, nil
	}
	return schedule.Every(ep.IntervalDuration()), nil
}

// Start begins the loops of the given endpoints, staggering their first
// checks. Endpoints with a broken schedule are skipped; their errors come
// back combined.
func (s *Scheduler) Start(eps []monitor.Endpoint) error {
	var errs []error

	delay := time.Duration(0)
	for _, ep := range eps {
		if !ep.Enabled {
			continue
		}

		sched, err := ScheduleFor(ep)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		s.mu.Lock()
		s.startLocked(ep, sched, delay)
		s.mu.Unlock()

		delay += s.Stagger
	}

	return multierr.Combine(errs...)
}

// Upsert reschedules an endpoint: the old loop is stopped and fully drained
// before the new one starts, so there is no instant with two tickers for
// one endpoint. A disabled endpoint is simply stopped.
func (s *Scheduler) Upsert(ep monitor.Endpoint) error {
	sched, err := ScheduleFor(ep)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.tasks[ep.ID]; ok {
		delete(s.tasks, ep.ID)
		old.cancel()
		<-old.done
	}

	if !ep.Enabled {
		s.logger.Debug("endpoint not scheduled", zap.String("endpoint", ep.ID))
		return nil
	}

	s.startLocked(ep, sched, 0)
	return nil
}

// Remove stops an endpoint's loop and cancels its in-flight check.
func (s *Scheduler) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.tasks[id]; ok {
		delete(s.tasks, id)
		old.cancel()
		<-old.done
	}
}

// Contains reports whether an endpoint currently has a loop.
func (s *Scheduler) Contains(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.tasks[id]
	return ok
}

// Len returns how many endpoints are scheduled.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.tasks)
}

// Shutdown cancels every loop and waits for them to drain, up to the
// context's deadline.
func (s *Scheduler) Shutdown(ctx context.Context) error {
	s.cancel()

	s.mu.Lock()
	tasks := make([]*task, 0, len(s.tasks))
	for _, t := range s.tasks {
		tasks = append(tasks, t)
	}
	s.tasks = make(map[string]*task)
	s.mu.Unlock()

	for _, t := range tasks {
		select {
		case <-t.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (s *Scheduler) startLocked(ep monitor.Endpoint, sched schedule.Schedule, delay time.Duration) {
	ctx, cancel := context.WithCancel(s.ctx)
	t := &task{
		ep:     ep,
		sched:  sched,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	s.tasks[ep.ID] = t

	s.logger.Debug("endpoint scheduled",
		zap.String("endpoint", ep.ID),
		zap.Stringer("schedule", sched),
		zap.Duration("delay", delay))

	go t.run(ctx, s.check, delay)
}

func (t *task) run(ctx context.Context, check CheckFunc, delay time.Duration) {
	defer close(t.done)

	if !sleep(ctx, delay) {
		return
	}

	if t.sched.NeedKickWhenStart() {
		check(ctx, t.ep)
	}

	for {
		next := t.sched.Next(time.Now())
		if !sleep(ctx, time.Until(next)) {
			return
		}
		check(ctx, t.ep)
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d < 0 {
		d = 0
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
