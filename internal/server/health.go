package server

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// WorkerService is the health service name that tracks the embedded poller.
const WorkerService = "docqueue.worker"

// HealthReporter mirrors worker liveness into the standard gRPC health
// service. The overall ("") status stays SERVING while the process is up.
type HealthReporter struct {
	hs       *health.Server
	alive    func() bool
	interval time.Duration
	logger   *slog.Logger

	mu   sync.Mutex
	last healthpb.HealthCheckResponse_ServingStatus
}

func NewHealthReporter(alive func() bool, interval time.Duration, logger *slog.Logger) *HealthReporter {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = 5 * time.Second
	}
	h := &HealthReporter{
		hs:       health.NewServer(),
		alive:    alive,
		interval: interval,
		logger:   logger,
	}
	h.hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	h.Update()
	return h
}

// Register attaches the health service and reflection to s.
func (h *HealthReporter) Register(s *grpc.Server) {
	healthpb.RegisterHealthServer(s, h.hs)
	reflection.Register(s)
}

// Update publishes the current worker liveness.
func (h *HealthReporter) Update() {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if h.alive() {
		st = healthpb.HealthCheckResponse_SERVING
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if st != h.last {
		h.logger.Info("worker health changed", "service", WorkerService, "status", st.String())
		h.last = st
	}
	h.hs.SetServingStatus(WorkerService, st)
}

// Run refreshes the worker status until ctx ends, then marks everything
// NOT_SERVING.
func (h *HealthReporter) Run(ctx context.Context) {
	t := time.NewTicker(h.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			h.hs.Shutdown()
			return
		case <-t.C:
			h.Update()
		}
	}
}

// Check answers a health check without going through the network.
func (h *HealthReporter) Check(ctx context.Context, service string) (healthpb.HealthCheckResponse_ServingStatus, error) {
	resp, err := h.hs.Check(ctx, &healthpb.HealthCheckRequest{Service: service})
	if err != nil {
		return healthpb.HealthCheckResponse_UNKNOWN, err
	}
	return resp.GetStatus(), nil
}
