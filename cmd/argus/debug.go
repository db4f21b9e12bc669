//go:build debug
// +build debug

package main

import (
	"net/http"
	_ "net/http/pprof"
	"runtime"
	"time"

	"go.uber.org/zap"
)

// startDebugLogger starts debug logger and pprof server.
func startDebugLogger(logger *zap.Logger) {
	uptime := time.Now()

	go func() {
		logger.Info("start in debug mode",
			zap.String("arch", runtime.GOARCH),
			zap.String("compiler", runtime.Compiler),
			zap.String("os", runtime.GOOS),
			zap.String("goversion", runtime.Version()))

		processStatus := func() {
			var mem runtime.MemStats
			runtime.ReadMemStats(&mem)
			logger.Info("process status",
				zap.Int("num_goroutine", runtime.NumGoroutine()),
				zap.Uint64("heap_alloc", mem.HeapAlloc),
				zap.Uint64("mallocs", mem.Mallocs),
				zap.Uint64("mem_frees", mem.Frees),
				zap.Uint32("num_gc", mem.NumGC),
				zap.Float64("uptime_seconds", time.Since(uptime).Seconds()))
		}

		processStatus()

		t := time.Tick(5 * time.Second)
		for range t {
			processStatus()
		}
	}()

	go func() {
		logger.Info("start pprof server", zap.String("url", "http://localhost:6060"))
		err := http.ListenAndServe("localhost:6060", nil)
		if err != nil {
			logger.Warn("pprof server has stopped", zap.Error(err))
		}
	}()
}
