package probe

import (
	"context"
	"errors"
	"net"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/macrat/go-parallel-pinger"

	"github.com/argusmon/argus/internal/argerr"
	"github.com/argusmon/argus/internal/monitor"
)

var ErrFailedToPreparePing = errors.New("failed to setup ping service")

// pingTuning holds the knobs read from the environment on every check, so
// operators can tune ping behavior without touching endpoint definitions.
type pingTuning struct {
	Packets    int
	Interval   time.Duration
	Privileged *bool
}

func loadPingTuning() pingTuning {
	cfg := pingTuning{Packets: 3}

	if n, err := strconv.Atoi(os.Getenv("ARGUS_PING_PACKETS")); err == nil && n > 0 {
		cfg.Packets = min(n, 100)
	}

	period := time.Second
	if d, err := time.ParseDuration(os.Getenv("ARGUS_PING_PERIOD")); err == nil && d > 0 {
		period = min(d, 30*time.Minute)
	}
	cfg.Interval = period / time.Duration(cfg.Packets)

	switch strings.ToLower(os.Getenv("ARGUS_PING_PRIVILEGED")) {
	case "1", "true", "yes", "on":
		t := true
		cfg.Privileged = &t
	case "0", "false", "no", "off":
		f := false
		cfg.Privileged = &f
	}

	return cfg
}

// lifecycle is a resource with an expensive Start/Stop pair.
type lifecycle interface {
	Start() error
	Stop()
}

// refCounted keeps one instance alive while anyone uses it, starting it on
// the first Get and stopping it when the last user calls Release.
type refCounted[T lifecycle] struct {
	mu    sync.Mutex
	users int
	res   T
}

func newRefCounted[T lifecycle](res T) *refCounted[T] {
	return &refCounted[T]{res: res}
}

func (rc *refCounted[T]) Get() (T, error) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	if rc.users == 0 {
		if err := rc.res.Start(); err != nil {
			var zero T
			return zero, err
		}
	}
	rc.users++
	return rc.res, nil
}

func (rc *refCounted[T]) Release() {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	if rc.users == 0 {
		return
	}
	rc.users--
	if rc.users == 0 {
		rc.res.Stop()
	}
}

// dualPinger runs one pinger per IP family under a single lifecycle.
type dualPinger struct {
	v4     *pinger.Pinger
	v6     *pinger.Pinger
	cancel context.CancelFunc
}

func (p *dualPinger) Start() error {
	cfg := loadPingTuning()

	p.v4 = pinger.NewIPv4()
	p.v6 = pinger.NewIPv6()

	if cfg.Privileged != nil {
		p.v4.SetPrivileged(*cfg.Privileged)
		p.v6.SetPrivileged(*cfg.Privileged)
	}

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel

	if err := p.listen(ctx); err != nil {
		p.Stop()
		return err
	}
	return nil
}

// listen starts both pingers, retrying in the other socket mode when the
// platform rejects the default one.
func (p *dualPinger) listen(ctx context.Context) error {
	if err := p.v4.Start(ctx); err == nil {
		return p.v6.Start(ctx)
	}

	p.v4.SetPrivileged(!pinger.DEFAULT_PRIVILEGED)
	p.v6.SetPrivileged(!pinger.DEFAULT_PRIVILEGED)

	if err := p.v4.Start(ctx); err != nil {
		return err
	}
	return p.v6.Start(ctx)
}

func (p *dualPinger) Stop() {
	p.v4 = nil
	p.v6 = nil
	p.cancel()
	p.cancel = nil
}

// pingService picks the right family's pinger for a target and shares the
// underlying pinger pair between concurrent checks.
type pingService struct {
	shared *refCounted[*dualPinger]
}

func newPingService() *pingService {
	return &pingService{shared: newRefCounted(&dualPinger{})}
}

var defaultPingService = newPingService()

func (s *pingService) Ping(ctx context.Context, target *net.IPAddr) (start time.Time, took time.Duration, result pinger.Result, err error) {
	pair, err := s.shared.Get()
	if err != nil {
		return time.Now(), 0, pinger.Result{}, err
	}
	defer s.shared.Release()

	ping := pair.v6
	if target.IP.To4() != nil {
		ping = pair.v4
	}

	cfg := loadPingTuning()

	start = time.Now()
	result, err = ping.Ping(ctx, target, cfg.Packets, cfg.Interval)
	took = time.Since(start)

	return start, took, result, err
}

// Ready starts and immediately releases the pinger pair, surfacing socket
// permission problems at endpoint creation instead of first check.
func (s *pingService) Ready() error {
	if _, err := s.shared.Get(); err != nil {
		return err
	}
	s.shared.Release()
	return nil
}

// PingProbe is a Prober implementation for ICMP echo request aka ping.
type PingProbe struct {
	ep   monitor.Endpoint
	host string
}

func NewPingProbe(ep monitor.Endpoint) (PingProbe, error) {
	if err := defaultPingService.Ready(); err != nil {
		return PingProbe{}, argerr.New(ErrFailedToPreparePing, err, "%s", ErrFailedToPreparePing.Error())
	}

	return PingProbe{
		ep:   ep,
		host: strings.ToLower(ep.Host),
	}, nil
}

func (p PingProbe) Endpoint() monitor.Endpoint {
	return p.ep
}

func (p PingProbe) Check(ctx context.Context) monitor.CheckResult {
	ctx, cancel := context.WithTimeout(ctx, p.ep.TimeoutDuration())
	defer cancel()

	st := time.Now()

	target, err := net.ResolveIPAddr("ip", p.host)
	if err != nil {
		message := err.Error()
		var dnsErr *net.DNSError
		if errors.As(err, &dnsErr) {
			message = dnsErrorToMessage(dnsErr)
		}
		return timeoutOr(ctx, monitor.NewResult(p.ep.ID, monitor.StatusDown, st, time.Since(st), message))
	}

	stime, took, result, err := defaultPingService.Ping(ctx, target)
	if err != nil {
		return timeoutOr(ctx, monitor.NewResult(p.ep.ID, monitor.StatusDown, stime, took, err.Error()))
	}

	return pingResultToResult(ctx, p.ep.ID, stime, took, result)
}

func pingExtra(result pinger.Result) map[string]any {
	return map[string]any{
		"rtt_min":      float64(result.MinRTT.Microseconds()) / 1000,
		"rtt_avg":      float64(result.AvgRTT.Microseconds()) / 1000,
		"rtt_max":      float64(result.MaxRTT.Microseconds()) / 1000,
		"packets_recv": result.Recv,
		"packets_sent": result.Sent,
	}
}

func pingResultToResult(ctx context.Context, endpointID string, start time.Time, took time.Duration, result pinger.Result) monitor.CheckResult {
	rec := monitor.NewResult(endpointID, monitor.StatusUp, start, result.AvgRTT, "")
	rec.Extra = pingExtra(result)

	switch {
	case result.Loss == 0:
		rec.Message = "all packets came back"
	case result.Recv > 0:
		rec.Message = "some packets have dropped"
	default:
		rec.Status = monitor.StatusDown
		rec.Message = "all packets have dropped"
		rec.Latency = took
		rec.LatencyMS = float64(took.Microseconds()) / 1000
	}

	if ctx.Err() == context.Canceled {
		rec.Status = monitor.StatusAborted
		rec.Message = "check aborted"
	}

	return rec
}
