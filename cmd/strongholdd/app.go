package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/ekisa-team/stronghold/internal/env"
	"github.com/ekisa-team/stronghold/internal/logger"
	"github.com/ekisa-team/stronghold/internal/metrics"
	"github.com/ekisa-team/stronghold/internal/model"
	grpcserver "github.com/ekisa-team/stronghold/internal/server/grpc"
)

// app wires the registry with its observers.
type app struct {
	registry *model.Registry
	manager  *model.Manager
	health   *grpcserver.Server
	metrics  *prometheus.Registry
}

func newApp() *app {
	promReg := prometheus.NewRegistry()
	promReg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	health := grpcserver.NewServer()
	registry := model.NewRegistry(model.WithObserver(model.Observers(metrics.NewRecorder(promReg), health)))
	health.Watch(registry)

	return &app{
		registry: registry,
		manager:  model.NewManager(registry),
		health:   health,
		metrics:  promReg,
	}
}

// setupLogger installs the default logger for the process.
func setupLogger(opts *rootOptions) error {
	loggerOpts := []logger.Option{
		logger.WithLogToFile(opts.logToFile),
		logger.WithLogFile(opts.logFile),
		logger.WithRotation(opts.logMaxSize, opts.logBackups, opts.logMaxAge),
	}

	if opts.logMaxSize <= 0 || opts.logBackups < 0 || opts.logMaxAge < 0 {
		return fmt.Errorf("invalid log rotation: max size %d MB, %d backups, %d days", opts.logMaxSize, opts.logBackups, opts.logMaxAge)
	}

	if opts.logLevel != "" {
		var level slog.Level
		if err := level.UnmarshalText([]byte(strings.ToUpper(opts.logLevel))); err != nil {
			return fmt.Errorf("invalid log level %q: %w", opts.logLevel, err)
		}
		loggerOpts = append(loggerOpts, logger.WithLevel(level))
	}

	slog.SetDefault(logger.New(env.FromEnv(), loggerOpts...))
	return nil
}
