package grpc

import (
	"context"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/jetdesk/billing/internal/config"
	"github.com/jetdesk/billing/pkg/logger"
)

// Server exposes the standard gRPC health service. Status follows the database.
type Server struct {
	config   *config.Config
	logger   *zap.Logger
	server   *grpc.Server
	health   *health.Server
	check    func(ctx context.Context) error
	listener net.Listener
}

func NewServer(cfg *config.Config, log *zap.Logger, check func(ctx context.Context) error) *Server {
	srv := grpc.NewServer(grpc.UnaryInterceptor(logger.NewGrpcUnaryServerInterceptor(log)))

	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)

	return &Server{
		config: cfg,
		logger: log,
		server: srv,
		health: hs,
		check:  check,
	}
}

func (s *Server) Start() error {
	addr := s.config.Server.GRPC.Addr()

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	s.logger.Info("Starting gRPC server", zap.String("address", addr))
	return s.Serve(listener)
}

// Serve runs on an existing listener.
func (s *Server) Serve(listener net.Listener) error {
	s.listener = listener
	return s.server.Serve(listener)
}

// Refresh probes the database once and publishes the result.
func (s *Server) Refresh(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	status := healthpb.HealthCheckResponse_SERVING
	if s.check != nil {
		if err := s.check(ctx); err != nil {
			s.logger.Warn("Database health check failed", zap.Error(err))
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(config.ServiceName, status)
	return status
}

// Watch refreshes the health status every interval until ctx is done.
func (s *Server) Watch(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		probeCtx, cancel := context.WithTimeout(ctx, interval/2)
		s.Refresh(probeCtx)
		cancel()

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.health.Shutdown()

	stopped := make(chan struct{})
	go func() {
		s.server.GracefulStop()
		close(stopped)
	}()

	select {
	case <-ctx.Done():
		s.logger.Warn("Forcing gRPC server stop")
		s.server.Stop()
		return ctx.Err()
	case <-stopped:
		return nil
	}
}
