package grpc

import (
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/ekisa-team/stronghold/internal/model"
	"github.com/ekisa-team/stronghold/internal/stronghold"
)

// ServiceName is the health service name reported for the registry.
const ServiceName = "stronghold.ModelRegistry"

// snapshotter is implemented by handles that keep their last good load.
type snapshotter interface {
	Snapshot() (*stronghold.Snapshot, error)
}

// Server serves the gRPC health protocol. The registry service is SERVING
// while an active model is selected and has loaded successfully.
// It satisfies model.Observer so health follows registry changes.
type Server struct {
	server   *grpc.Server
	health   *health.Server
	registry *model.Registry
	mu       sync.Mutex
}

// NewServer creates a gRPC server with the health and reflection services.
func NewServer(opts ...grpc.ServerOption) *Server {
	s := &Server{
		server: grpc.NewServer(opts...),
		health: health.NewServer(),
	}

	healthpb.RegisterHealthServer(s.server, s.health)
	reflection.Register(s.server)
	s.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)

	return s
}

// Watch binds the registry whose state is reported and refreshes the status.
func (s *Server) Watch(registry *model.Registry) {
	s.mu.Lock()
	s.registry = registry
	s.mu.Unlock()

	s.Refresh()
}

// Refresh recomputes the serving status from the registry. Refreshes are
// serialized so a stale computation cannot overwrite a newer status.
func (s *Server) Refresh() {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := healthpb.HealthCheckResponse_NOT_SERVING
	if s.registry != nil && activeLoaded(s.registry) {
		status = healthpb.HealthCheckResponse_SERVING
	}

	s.health.SetServingStatus(ServiceName, status)
	slog.Debug("Health status updated", "service", ServiceName, "status", status.String())
}

func activeLoaded(registry *model.Registry) bool {
	active, ok := registry.ActiveModel()
	if !ok {
		return false
	}

	snap, ok := active.(snapshotter)
	if !ok {
		return true
	}

	_, err := snap.Snapshot()
	return err == nil
}

// ModelRegistered implements model.Observer.
func (s *Server) ModelRegistered(string) {}

// ActiveModelChanged implements model.Observer.
func (s *Server) ActiveModelChanged(string) {
	s.Refresh()
}

// ModelReloaded implements model.Observer.
func (s *Server) ModelReloaded(string, error, time.Duration) {
	s.Refresh()
}

// Serve accepts connections on lis until Stop is called.
func (s *Server) Serve(lis net.Listener) error {
	if err := s.server.Serve(lis); err != nil {
		return fmt.Errorf("grpc: serve: %w", err)
	}

	return nil
}

// Stop marks every service as not serving and stops the server gracefully.
func (s *Server) Stop() {
	s.health.Shutdown()
	s.server.GracefulStop()
}
