package scheduler_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/argusmon/argus/internal/argerr"
	"github.com/argusmon/argus/internal/monitor"
	"github.com/argusmon/argus/internal/scheduler"
)

// recorder collects every check invocation, and how many were in flight at
// once per endpoint.
type recorder struct {
	mu       sync.Mutex
	log      map[string][]string
	inflight map[string]int
	peak     map[string]int
}

func newRecorder() *recorder {
	return &recorder{
		log:      make(map[string][]string),
		inflight: make(map[string]int),
		peak:     make(map[string]int),
	}
}

// Check returns a CheckFunc that records the call and then blocks for d,
// honoring ctx like a real probe would.
func (r *recorder) Check(d time.Duration) scheduler.CheckFunc {
	return func(ctx context.Context, ep monitor.Endpoint) {
		r.mu.Lock()
		r.log[ep.ID] = append(r.log[ep.ID], ep.Name)
		r.inflight[ep.ID]++
		if r.inflight[ep.ID] > r.peak[ep.ID] {
			r.peak[ep.ID] = r.inflight[ep.ID]
		}
		r.mu.Unlock()

		if d > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(d):
			}
		}

		r.mu.Lock()
		r.inflight[ep.ID]--
		r.mu.Unlock()
	}
}

func (r *recorder) Count(id string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.log[id])
}

func (r *recorder) Names(id string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.log[id]...)
}

func (r *recorder) Peak(id string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.peak[id]
}

func TestScheduler_ticks(t *testing.T) {
	t.Parallel()

	rec := newRecorder()
	s := scheduler.New(rec.Check(0), zap.NewNop())
	defer s.Shutdown(context.Background())

	if err := s.Upsert(monitor.Endpoint{ID: "a", Enabled: true, Schedule: "20ms"}); err != nil {
		t.Fatalf("failed to schedule: %s", err)
	}

	time.Sleep(150 * time.Millisecond)

	if c := rec.Count("a"); c < 3 {
		t.Errorf("expected at least 3 checks but got %d", c)
	}

	s.Remove("a")
	before := rec.Count("a")

	time.Sleep(100 * time.Millisecond)

	if after := rec.Count("a"); after != before {
		t.Errorf("checks kept running after remove: %d then %d", before, after)
	}
	if s.Contains("a") {
		t.Errorf("endpoint still scheduled after remove")
	}
}

func TestScheduler_checksDoNotOverlap(t *testing.T) {
	t.Parallel()

	rec := newRecorder()
	s := scheduler.New(rec.Check(60*time.Millisecond), zap.NewNop())
	defer s.Shutdown(context.Background())

	if err := s.Upsert(monitor.Endpoint{ID: "slow", Enabled: true, Schedule: "10ms"}); err != nil {
		t.Fatalf("failed to schedule: %s", err)
	}

	time.Sleep(300 * time.Millisecond)

	if p := rec.Peak("slow"); p != 1 {
		t.Errorf("expected at most 1 check in flight but saw %d", p)
	}

	// A 60ms check on a 10ms schedule: due ticks collapse into one, so we
	// see far fewer checks than elapsed/10ms would queue up.
	if c := rec.Count("slow"); c < 2 || c > 15 {
		t.Errorf("expected coalesced ticks (2..15 checks) but got %d", c)
	}
}

func TestScheduler_upsertSwapsDefinition(t *testing.T) {
	t.Parallel()

	rec := newRecorder()
	s := scheduler.New(rec.Check(0), zap.NewNop())
	defer s.Shutdown(context.Background())

	if err := s.Upsert(monitor.Endpoint{ID: "a", Name: "v1", Enabled: true, Schedule: "10ms"}); err != nil {
		t.Fatalf("failed to schedule: %s", err)
	}

	time.Sleep(50 * time.Millisecond)

	if err := s.Upsert(monitor.Endpoint{ID: "a", Name: "v2", Enabled: true, Schedule: "10ms"}); err != nil {
		t.Fatalf("failed to reschedule: %s", err)
	}
	swapAt := rec.Count("a")

	time.Sleep(80 * time.Millisecond)

	names := rec.Names("a")
	if len(names) <= swapAt {
		t.Fatalf("expected checks after reschedule but got none")
	}
	for i, name := range names[swapAt:] {
		if name != "v2" {
			t.Errorf("check %d after reschedule used old definition %q", swapAt+i, name)
		}
	}
	if p := rec.Peak("a"); p != 1 {
		t.Errorf("reschedule let %d checks run at once", p)
	}
	if n := s.Len(); n != 1 {
		t.Errorf("expected 1 scheduled endpoint but got %d", n)
	}
}

func TestScheduler_upsertDisabledStops(t *testing.T) {
	t.Parallel()

	rec := newRecorder()
	s := scheduler.New(rec.Check(0), zap.NewNop())
	defer s.Shutdown(context.Background())

	if err := s.Upsert(monitor.Endpoint{ID: "a", Enabled: true, Schedule: "10ms"}); err != nil {
		t.Fatalf("failed to schedule: %s", err)
	}

	time.Sleep(50 * time.Millisecond)

	if err := s.Upsert(monitor.Endpoint{ID: "a", Enabled: false, Schedule: "10ms"}); err != nil {
		t.Fatalf("failed to disable: %s", err)
	}
	before := rec.Count("a")

	time.Sleep(80 * time.Millisecond)

	if after := rec.Count("a"); after != before {
		t.Errorf("disabled endpoint kept running: %d then %d", before, after)
	}
	if s.Contains("a") {
		t.Errorf("disabled endpoint still scheduled")
	}
}

func TestScheduler_startStaggers(t *testing.T) {
	t.Parallel()

	rec := newRecorder()
	s := scheduler.New(rec.Check(0), zap.NewNop())
	defer s.Shutdown(context.Background())

	s.Stagger = time.Hour

	err := s.Start([]monitor.Endpoint{
		{ID: "first", Enabled: true, Schedule: "10ms"},
		{ID: "second", Enabled: true, Schedule: "10ms"},
	})
	if err != nil {
		t.Fatalf("failed to start: %s", err)
	}

	time.Sleep(100 * time.Millisecond)

	if c := rec.Count("first"); c == 0 {
		t.Errorf("expected the first endpoint to have been checked")
	}
	if c := rec.Count("second"); c != 0 {
		t.Errorf("expected the second endpoint to still be waiting but it ran %d times", c)
	}
	if n := s.Len(); n != 2 {
		t.Errorf("expected 2 scheduled endpoints but got %d", n)
	}
}

func TestScheduler_startSkipsBroken(t *testing.T) {
	t.Parallel()

	rec := newRecorder()
	s := scheduler.New(rec.Check(0), zap.NewNop())
	defer s.Shutdown(context.Background())

	err := s.Start([]monitor.Endpoint{
		{ID: "good", Enabled: true, Schedule: "10ms"},
		{ID: "bad", Enabled: true, Schedule: "not a schedule"},
		{ID: "off", Enabled: false, Schedule: "10ms"},
	})
	if err == nil {
		t.Fatalf("expected an error for the broken schedule")
	}
	if !errors.Is(err, argerr.ErrConfiguration) {
		t.Errorf("expected a configuration error but got %#v", err)
	}
	if n := s.Len(); n != 1 {
		t.Errorf("expected only the good endpoint scheduled but got %d", n)
	}
}

func TestScheduler_shutdownCancelsInFlight(t *testing.T) {
	t.Parallel()

	rec := newRecorder()
	s := scheduler.New(rec.Check(10*time.Second), zap.NewNop())

	if err := s.Upsert(monitor.Endpoint{ID: "a", Enabled: true, Schedule: "10ms"}); err != nil {
		t.Fatalf("failed to schedule: %s", err)
	}

	time.Sleep(30 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	stopped := time.Now()
	if err := s.Shutdown(ctx); err != nil {
		t.Fatalf("failed to shut down: %s", err)
	}
	if d := time.Since(stopped); d > 500*time.Millisecond {
		t.Errorf("shutdown took %s, expected the in-flight check to be canceled", d)
	}
}

func TestScheduleFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		Name     string
		Endpoint monitor.Endpoint
		Want     string
		Error    bool
	}{
		{"interval_fallback", monitor.Endpoint{Interval: 120}, "2m0s", false},
		{"default_interval", monitor.Endpoint{}, "1m0s", false},
		{"duration_override", monitor.Endpoint{Schedule: "5m"}, "5m0s", false},
		{"cron_override", monitor.Endpoint{Schedule: "*/5 * * * *"}, "*/5 * * * *", false},
		{"broken", monitor.Endpoint{Schedule: "every blue moon"}, "", true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.Name, func(t *testing.T) {
			t.Parallel()

			sched, err := scheduler.ScheduleFor(tt.Endpoint)
			if tt.Error {
				if err == nil {
					t.Fatalf("expected an error but got %s", sched)
				}
				if !errors.Is(err, argerr.ErrConfiguration) {
					t.Errorf("expected a configuration error but got %#v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("failed to build schedule: %s", err)
			}
			if sched.String() != tt.Want {
				t.Errorf("expected %q but got %q", tt.Want, sched)
			}
		})
	}
}
