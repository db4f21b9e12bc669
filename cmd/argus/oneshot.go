package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/goccy/go-json"

	"github.com/argusmon/argus/internal/config"
	"github.com/argusmon/argus/internal/monitor"
	"github.com/argusmon/argus/internal/probe"
	"github.com/argusmon/argus/internal/storage"
)

// oneshotLine is what RunOneshot prints for every check, one JSON object
// per line so the output works with jq and log collectors.
type oneshotLine struct {
	Time      string  `json:"time"`
	Status    string  `json:"status"`
	LatencyMS float64 `json:"latency_ms"`
	Target    string  `json:"target"`
	Message   string  `json:"message,omitempty"`
}

// RunOneshot checks every enabled endpoint in the state file exactly once
// and exits. It never writes the state file, so it is safe to run next to
// a server that owns the same file.
func (cmd *ArgusCommand) RunOneshot(ctx context.Context, conf *config.Config) (exitCode int) {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	snap, err := storage.Load(conf.Storage.DataFile)
	if err != nil {
		fmt.Fprintf(cmd.ErrStream, "error: failed to load state file: %s\n", err)
		return 1
	}

	var endpoints []monitor.Endpoint
	for _, ep := range snap.Endpoints {
		if ep.Enabled {
			endpoints = append(endpoints, ep)
		}
	}
	if len(endpoints) == 0 {
		fmt.Fprintln(cmd.ErrStream, "error: no enabled endpoints in the state file.")
		return 2
	}

	type checked struct {
		Target string
		Result monitor.CheckResult
	}

	results := make(chan checked, len(endpoints))

	wg := &sync.WaitGroup{}
	for _, ep := range endpoints {
		wg.Add(1)
		go func(ep monitor.Endpoint) {
			defer wg.Done()
			results <- checked{Target: ep.Target(), Result: checkOnce(ctx, ep)}
		}(ep)
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	for c := range results {
		line, err := json.Marshal(oneshotLine{
			Time:      c.Result.CheckedAt.Format(time.RFC3339),
			Status:    c.Result.Status.String(),
			LatencyMS: c.Result.LatencyMS,
			Target:    c.Target,
			Message:   c.Result.Message,
		})
		if err != nil {
			fmt.Fprintf(cmd.ErrStream, "error: failed to write result: %s\n", err)
			continue
		}
		fmt.Fprintln(cmd.OutStream, string(line))

		if c.Result.Status == monitor.StatusDown {
			exitCode = 1
		}
	}

	return exitCode
}

// checkOnce builds the prober and runs it under the endpoint's own timeout,
// the same way the scheduler driven checks run.
func checkOnce(ctx context.Context, ep monitor.Endpoint) monitor.CheckResult {
	p, err := probe.New(ep)
	if err != nil {
		return monitor.NewResult(ep.ID, monitor.StatusUnknown, time.Now(), 0,
			fmt.Sprintf("failed to create prober: %s", err))
	}

	ctx, cancel := context.WithTimeout(ctx, ep.TimeoutDuration())
	defer cancel()

	return probe.Check(ctx, p)
}
