package grpcserver

import (
	"context"
	"fmt"
	"net"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Config holds gRPC server configuration.
type Config struct {
	Address string
}

// ServiceBinder registers the services a process exposes.
type ServiceBinder interface {
	Register(*grpc.Server)
}

// BinderFunc adapts a function to ServiceBinder.
type BinderFunc func(*grpc.Server)

func (f BinderFunc) Register(s *grpc.Server) { f(s) }

// Server wraps a gRPC server with the standard health service. Health
// reports SERVING between Start and shutdown.
type Server struct {
	cfg    Config
	srv    *grpc.Server
	health *health.Server
	logger *zap.Logger
}

// New constructs a Server; binder may be nil.
func New(cfg Config, binder ServiceBinder, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		cfg:    cfg,
		srv:    grpc.NewServer(),
		health: health.NewServer(),
		logger: logger.Named("grpc"),
	}
	if binder != nil {
		binder.Register(s.srv)
	}
	healthpb.RegisterHealthServer(s.srv, s.health)
	s.health.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	return s
}

// Start begins listening on the configured address and serves until ctx is canceled.
func (s *Server) Start(ctx context.Context) error {
	if s.cfg.Address == "" {
		return fmt.Errorf("grpc address is empty")
	}
	lis, err := net.Listen("tcp", s.cfg.Address)
	if err != nil {
		return err
	}
	s.setServing(true)
	s.logger.Info("grpc server listening", zap.String("addr", lis.Addr().String()))
	go func() {
		<-ctx.Done()
		s.setServing(false)
		s.srv.GracefulStop()
		_ = lis.Close()
	}()
	go func() {
		if err := s.srv.Serve(lis); err != nil {
			s.logger.Warn("grpc server stopped", zap.Error(err))
		}
	}()
	return nil
}

// Stop shuts down the server.
func (s *Server) Stop() {
	if s.srv != nil {
		s.setServing(false)
		s.srv.GracefulStop()
	}
}

func (s *Server) setServing(serving bool) {
	if s.health == nil {
		return
	}
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", status)
}
