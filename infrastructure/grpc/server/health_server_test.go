package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"testing"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"
)

func startHealthServer(t *testing.T) (*HealthServer, healthpb.HealthClient) {
	t.Helper()
	listener := bufconn.Listen(1024 * 1024)
	s := grpc.NewServer()
	health := NewHealthServer(logs.GetLoggerFromLevel(slog.LevelDebug))
	health.Register(s)
	go func() { _ = s.Serve(listener) }()
	t.Cleanup(s.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return listener.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return health, healthpb.NewHealthClient(conn)
}

func check(t *testing.T, client healthpb.HealthClient) healthpb.HealthCheckResponse_ServingStatus {
	t.Helper()
	resp, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{Service: PresenceService})
	require.NoError(t, err)
	return resp.GetStatus()
}

func TestHealthServer_ReportSweep(t *testing.T) {
	t.Run("should start serving", func(t *testing.T) {
		_, client := startHealthServer(t)
		require.Equal(t, healthpb.HealthCheckResponse_SERVING, check(t, client))
	})

	t.Run("should follow the last sweep outcome", func(t *testing.T) {
		req := require.New(t)
		health, client := startHealthServer(t)

		health.ReportSweep(fmt.Errorf("store unavailable"))
		req.Equal(healthpb.HealthCheckResponse_NOT_SERVING, check(t, client))

		health.ReportSweep(nil)
		req.Equal(healthpb.HealthCheckResponse_SERVING, check(t, client))
	})

	t.Run("should stay down after shutdown", func(t *testing.T) {
		health, client := startHealthServer(t)
		health.Shutdown()
		health.ReportSweep(nil)
		require.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, check(t, client))
	})
}
