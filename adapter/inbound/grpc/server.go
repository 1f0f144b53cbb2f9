package grpc

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/ajkula/GoLockers/domain/port/outbound"
)

// ServiceName is the health service name reporting the data gateway
const ServiceName = "golockers.gateway"

// Server exposes the standard gRPC health service. The gateway status is
// checked periodically so orchestrators can tell when the backend is gone.
type Server struct {
	gateway  outbound.DataGateway
	logger   outbound.Logger
	interval time.Duration
	timeout  time.Duration

	health     *health.Server
	grpcServer *grpc.Server
	rootCtx    context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
}

func NewServer(
	gateway outbound.DataGateway,
	logger outbound.Logger,
	interval time.Duration,
	rootCtx context.Context,
) *Server {
	if interval <= 0 {
		interval = 15 * time.Second
	}

	hs := health.NewServer()
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_UNKNOWN)

	return &Server{
		gateway:  gateway,
		logger:   logger,
		interval: interval,
		timeout:  5 * time.Second,
		health:   hs,
		rootCtx:  rootCtx,
	}
}

// Start listens on address and serves in the background
func (s *Server) Start(address string) error {
	lis, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	s.Serve(lis)
	s.logger.Info("gRPC health server started", "address", lis.Addr().String())
	return nil
}

// Serve serves on lis and starts the health check loop
func (s *Server) Serve(lis net.Listener) {
	s.grpcServer = grpc.NewServer()
	healthpb.RegisterHealthServer(s.grpcServer, s.health)

	ctx, cancel := context.WithCancel(s.rootCtx)
	s.cancel = cancel

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		if err := s.grpcServer.Serve(lis); err != nil {
			s.logger.Error("gRPC server stopped serving", "error", err)
		}
	}()
	go func() {
		defer s.wg.Done()
		s.checkLoop(ctx)
	}()
}

// CheckGateway checks the gateway once and publishes the result
func (s *Server) CheckGateway(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	status := healthpb.HealthCheckResponse_SERVING
	if _, err := s.gateway.FetchStats(ctx); err != nil {
		status = healthpb.HealthCheckResponse_NOT_SERVING
		s.logger.Warn("Gateway health check failed", "error", err)
	}

	s.health.SetServingStatus(ServiceName, status)
	s.health.SetServingStatus("", status)
	return status
}

func (s *Server) checkLoop(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.CheckGateway(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.CheckGateway(ctx)
		}
	}
}

// Stop marks the service down and stops the server
func (s *Server) Stop() {
	s.logger.Info("Stopping gRPC server")

	if s.grpcServer == nil {
		return
	}

	s.cancel()
	s.health.Shutdown()

	stopped := make(chan struct{})
	go func() {
		s.grpcServer.GracefulStop()
		close(stopped)
	}()

	select {
	case <-stopped:
		s.logger.Info("gRPC server stopped gracefully")
	case <-time.After(10 * time.Second):
		s.logger.Warn("gRPC server stop timed out, forcing shutdown")
		s.grpcServer.Stop()
	}

	s.wg.Wait()
}
