package server

import (
	"log/slog"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// PresenceService is the service name health checks use for the sweep health.
const PresenceService = "batepapo.presence"

// HealthServer exposes the standard gRPC health protocol. The presence
// service turns NOT_SERVING while sweep cycles keep failing.
type HealthServer struct {
	server *health.Server
	log    *slog.Logger
	mu     sync.Mutex
	last   healthpb.HealthCheckResponse_ServingStatus
}

func NewHealthServer(log *slog.Logger) *HealthServer {
	s := &HealthServer{
		server: health.NewServer(),
		log:    log,
		last:   healthpb.HealthCheckResponse_SERVING,
	}
	s.server.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	s.server.SetServingStatus(PresenceService, healthpb.HealthCheckResponse_SERVING)
	return s
}

func (s *HealthServer) Register(registrar grpc.ServiceRegistrar) {
	healthpb.RegisterHealthServer(registrar, s.server)
}

// ReportSweep implements contract.HealthReporter.
func (s *HealthServer) ReportSweep(err error) {
	status := healthpb.HealthCheckResponse_SERVING
	if err != nil {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if status == s.last {
		return
	}
	s.last = status
	s.log.Info("Presence health changed", "status", status.String(), "err", err)
	s.server.SetServingStatus(PresenceService, status)
}

// Shutdown flips every service to NOT_SERVING and ignores later updates.
func (s *HealthServer) Shutdown() {
	s.server.Shutdown()
}
