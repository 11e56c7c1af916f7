package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"

	sdkgrpc "github.com/mama165/sdk-go/grpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// StreamerService is the name reported by the health service for the HTTP streamer.
const StreamerService = "stream-lab.Streamer"

// HealthServer exposes grpc.health.v1.Health for the streaming server.
type HealthServer struct {
	log    *slog.Logger
	server *grpc.Server
	health *health.Server
}

func NewHealthServer(log *slog.Logger) *HealthServer {
	s := grpc.NewServer(grpc.ChainUnaryInterceptor(sdkgrpc.UnaryLoggingInterceptor(log)))
	h := health.NewServer()
	healthpb.RegisterHealthServer(s, h)
	h.SetServingStatus(StreamerService, healthpb.HealthCheckResponse_NOT_SERVING)
	return &HealthServer{log: log, server: s, health: h}
}

// Serving flips both the overall and the streamer status.
func (h *HealthServer) Serving(serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	h.health.SetServingStatus("", status)
	h.health.SetServingStatus(StreamerService, status)
}

// Serve blocks until the listener fails or Stop is called.
func (h *HealthServer) Serve(listener net.Listener) error {
	h.log.Info("Starting gRPC health server", "address", listener.Addr().String())
	for serviceName := range h.server.GetServiceInfo() {
		h.log.Debug("gRPC exposed services", "name", serviceName)
	}
	if err := h.server.Serve(listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("gRPC server error: %w", err)
	}
	return nil
}

// Stop reports NOT_SERVING to watchers, then drains the server until ctx expires.
func (h *HealthServer) Stop(ctx context.Context) {
	h.health.Shutdown()
	done := make(chan struct{})
	go func() {
		h.server.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		h.server.Stop()
	}
}
