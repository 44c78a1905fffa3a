package grpc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"

	"github.com/ekisa-team/stronghold/internal/model"
	"github.com/ekisa-team/stronghold/internal/stronghold"
)

type slowHandle struct {
	id     string
	delay  time.Duration
	loaded atomic.Bool
}

func (h *slowHandle) Identifier() string {
	return h.id
}

func (h *slowHandle) ForceReload() error {
	time.Sleep(h.delay)
	h.loaded.Store(true)
	return nil
}

func (h *slowHandle) Snapshot() (*stronghold.Snapshot, error) {
	if !h.loaded.Load() {
		return nil, errors.New("not loaded")
	}
	return &stronghold.Snapshot{}, nil
}

func startServer(t *testing.T, s *Server) healthpb.HealthClient {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	go func() {
		_ = s.Serve(lis)
	}()
	t.Cleanup(s.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return healthpb.NewHealthClient(conn)
}

func check(t *testing.T, client healthpb.HealthClient) healthpb.HealthCheckResponse_ServingStatus {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)

	return resp.GetStatus()
}

func TestServer_HealthFollowsActiveModel(t *testing.T) {
	s := NewServer()
	reg := model.NewRegistry(model.WithObserver(s))
	s.Watch(reg)

	client := startServer(t, s)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, check(t, client))

	_, err := reg.RegisterInternal("basic-v1.zip")
	require.NoError(t, err)
	require.NoError(t, reg.SetActiveModel("basic-v1"))

	// Selected but never loaded.
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, check(t, client))

	require.NoError(t, reg.ForceReload("basic-v1"))
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, check(t, client))
}

func TestServer_WithoutRegistry(t *testing.T) {
	s := NewServer()
	s.Refresh()

	client := startServer(t, s)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, check(t, client))
}

func TestServer_HealthAfterParallelReload(t *testing.T) {
	s := NewServer()
	reg := model.NewRegistry(model.WithObserver(s), model.WithReloadConcurrency(16))
	s.Watch(reg)

	require.NoError(t, reg.Register(&slowHandle{id: "active", delay: 5 * time.Millisecond}))
	for i := range 31 {
		require.NoError(t, reg.Register(&slowHandle{id: fmt.Sprintf("m%d", i), delay: time.Duration(i%7) * time.Millisecond}))
	}
	require.NoError(t, reg.SetActiveModel("active"))

	client := startServer(t, s)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, check(t, client))

	report := reg.ForceReloadAll(context.Background())
	require.True(t, report.OK())
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, check(t, client))
}
