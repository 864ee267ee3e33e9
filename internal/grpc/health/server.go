// Package health поднимает gRPC health-сервер (grpc.health.v1).
//
// Статус SERVING выставляется, пока база отвечает на ping, иначе NOT_SERVING.
package health

import (
	"context"
	"log/slog"
	"net"
	"time"

	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/magabrotheeeer/bizfinance/internal/lib/sl"
)

// Service имя сервиса в запросах Check. Пустое имя отвечает за весь процесс.
const Service = "bizfinance.FinanceAPI"

// Pinger проверяет доступность зависимости.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server gRPC-сервер со стандартным health-сервисом.
type Server struct {
	grpcServer *grpc.Server
	health     *grpchealth.Server
	listener   net.Listener
	pinger     Pinger
	interval   time.Duration
	log        *slog.Logger
}

// New слушает address и регистрирует health-сервис.
func New(address string, pinger Pinger, interval time.Duration, log *slog.Logger) (*Server, error) {
	lis, err := net.Listen("tcp", address)
	if err != nil {
		return nil, err
	}
	return NewWithListener(lis, pinger, interval, log), nil
}

// NewWithListener создает сервер поверх готового listener.
func NewWithListener(lis net.Listener, pinger Pinger, interval time.Duration, log *slog.Logger) *Server {
	hs := grpchealth.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	hs.SetServingStatus(Service, healthpb.HealthCheckResponse_NOT_SERVING)

	grpcServer := grpc.NewServer()
	healthpb.RegisterHealthServer(grpcServer, hs)

	return &Server{
		grpcServer: grpcServer,
		health:     hs,
		listener:   lis,
		pinger:     pinger,
		interval:   interval,
		log:        log.With(slog.String("component", "grpc_health")),
	}
}

// Probe один раз проверяет базу и обновляет статус.
func (s *Server) Probe(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	ctx, cancel := context.WithTimeout(ctx, s.interval)
	defer cancel()

	status := healthpb.HealthCheckResponse_SERVING
	if err := s.pinger.Ping(ctx); err != nil {
		s.log.Warn("database ping failed", sl.Err(err))
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(Service, status)
	return status
}

// Run обслуживает запросы до отмены ctx.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("gRPC health server listening on", slog.String("address", s.listener.Addr().String()))
		errCh <- s.grpcServer.Serve(s.listener)
	}()

	s.Probe(ctx)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.health.Shutdown()
			s.grpcServer.GracefulStop()
			return nil
		case err := <-errCh:
			return err
		case <-ticker.C:
			s.Probe(ctx)
		}
	}
}
