package main

import (
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwise1/trip_planner/config"
	deps "github.com/bwise1/trip_planner/internal/debs"
	api "github.com/bwise1/trip_planner/internal/http/rest"
	"github.com/bwise1/trip_planner/internal/logging"
)

const (
	allowConnectionsAfterShutdown = 1 * time.Second
)

func main() {
	cfg := config.New()

	logger := logging.NewStructuredLogger(os.Stdout, logging.ParseLevel(cfg.LogLevel))
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logging.LogError(logger, "invalid configuration", err)
		os.Exit(1)
	}

	deps, err := deps.New(cfg, logger)
	if err != nil {
		logging.LogError(logger, "failed to build dependencies", err)
		os.Exit(1)
	}

	a := &api.API{
		Config: cfg,
		Deps:   deps,
		Logger: logger,
	}
	go deps.WebSocket.Run()
	go func() {
		logger.Info("server running", slog.Int("port", cfg.Port))
		if err := a.Serve(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.LogError(logger, "server stopped", err)
			os.Exit(1)
		}
	}()

	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	<-stopChan

	logger.Info("request to shutdown server", slog.Duration("grace", allowConnectionsAfterShutdown))
	waitTimer := time.NewTimer(allowConnectionsAfterShutdown)
	<-waitTimer.C

	logger.Info("shutting down server")
	if err := a.Shutdown(); err != nil {
		logging.LogError(logger, "shutdown failed", err)
		os.Exit(1)
	}
}
