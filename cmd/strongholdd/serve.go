package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ekisa-team/stronghold/internal/config"
	httpserver "github.com/ekisa-team/stronghold/internal/server/http"
)

func serveCmd(opts *rootOptions) *cobra.Command {
	var httpPort, grpcPort int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the model registry over HTTP and gRPC",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := setupLogger(opts); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return serve(ctx, opts.configPath, httpPort, grpcPort)
		},
	}

	cmd.Flags().IntVar(&httpPort, "http-port", 0, "HTTP port to listen on (default from config or environment)")
	cmd.Flags().IntVar(&grpcPort, "grpc-port", 0, "gRPC port to listen on (default from config or environment)")

	return cmd
}

func serve(ctx context.Context, configPath string, httpPort, grpcPort int) error {
	a := newApp()

	watcher, err := config.NewWatcher(configPath, func(cfg *config.Config, err error) {
		if err != nil {
			slog.Error("Failed to reload config", "error", err)
			return
		}

		if _, err := a.manager.LoadModelsFromConfig(ctx, cfg); err != nil {
			slog.Error("Failed to load models from config", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to create config watcher: %w", err)
	}
	defer watcher.Close()

	cfg := watcher.Snapshot()
	if _, err := a.manager.LoadModelsFromConfig(ctx, cfg); err != nil {
		return fmt.Errorf("failed to load models from config: %w", err)
	}
	slog.Info("Config loaded successfully", "config", configPath, "models", a.registry.Len())

	if httpPort == 0 {
		httpPort = config.ResolveHTTPPort(cfg)
	}
	if grpcPort == 0 {
		grpcPort = config.ResolveGRPCPort(cfg)
	}

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", grpcPort))
	if err != nil {
		return fmt.Errorf("failed to listen on gRPC port %d: %w", grpcPort, err)
	}

	httpSrv := httpserver.NewServer(httpPort, Version, a.registry, a.metrics)
	errCh := make(chan error, 2)

	go func() {
		slog.Info("gRPC server listening", "port", grpcPort)
		errCh <- a.health.Serve(lis)
	}()
	go func() {
		slog.Info("HTTP server listening", "port", httpPort)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http: %w", err)
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		slog.Info("Shutting down")
	case err = <-errCh:
		slog.Error("Server stopped unexpectedly", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if shutdownErr := httpSrv.Shutdown(shutdownCtx); shutdownErr != nil {
		slog.Error("Failed to shut down HTTP server", "error", shutdownErr)
	}
	a.health.Stop()

	return err
}
