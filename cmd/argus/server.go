package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/argusmon/argus/internal/config"
	"github.com/argusmon/argus/internal/manager"
	"github.com/argusmon/argus/internal/meta"
	"github.com/argusmon/argus/internal/server"
)

func (cmd *ArgusCommand) RunServer(ctx context.Context, conf *config.Config, logger *zap.Logger) (exitCode int) {
	startDebugLogger(logger)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	m, err := manager.New(conf, logger)
	if err != nil {
		logger.Error("failed to set up monitoring", zap.Error(err))
		fmt.Fprintf(cmd.ErrStream, "error: %s\n", err)
		return 1
	}

	srv := server.New(m, conf.Server.AllowedOrigins, logger)
	go srv.Hub().Run(ctx)

	m.Start()

	httpServer := &http.Server{
		Addr:    conf.Server.Listen,
		Handler: srv.Handler(),
	}

	logger.Info("server started",
		zap.String("listen", conf.Server.Listen),
		zap.String("data_file", conf.Storage.DataFile),
		zap.String("version", fmt.Sprintf("%s (%s)", meta.Version, meta.Commit)))

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", zap.Error(err))
			fmt.Fprintf(cmd.ErrStream, "error: %s\n", err)
			exitCode = 1
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), SHUTDOWN_TIMEOUT)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http server did not shut down cleanly", zap.Error(err))
	}
	if err := m.Shutdown(shutdownCtx); err != nil {
		logger.Warn("monitoring core did not shut down cleanly", zap.Error(err))
	}

	logger.Info("server stopped")

	return exitCode
}
