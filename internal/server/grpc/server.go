package grpc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"

	"github.com/Additional-Code/oficina/internal/config"
	"github.com/Additional-Code/oficina/internal/database"
	"github.com/Additional-Code/oficina/pkg/errorbank"
)

const probeInterval = 15 * time.Second

// Module exposes the gRPC server and lifecycle hooks to Fx.
var Module = fx.Module("grpc_server",
	fx.Provide(NewServer, health.NewServer),
	fx.Invoke(Run),
)

type pinger interface {
	Ping(ctx context.Context) error
}

// NewServer builds a gRPC server carrying the standard health service.
func NewServer(logger *zap.Logger, hs *health.Server) *grpc.Server {
	server := grpc.NewServer(
		grpc.ChainUnaryInterceptor(unaryLogger(logger), unaryErrors()),
		grpc.ChainStreamInterceptor(streamLogger(logger)),
	)
	healthpb.RegisterHealthServer(server, hs)
	reflection.Register(server)
	return server
}

func unaryLogger(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		duration := time.Since(start)
		if err != nil {
			logger.Warn("grpc unary call finished", zap.String("method", info.FullMethod), zap.Duration("duration", duration), zap.Error(err))
		} else {
			logger.Debug("grpc unary call finished", zap.String("method", info.FullMethod), zap.Duration("duration", duration))
		}
		return resp, err
	}
}

func streamLogger(logger *zap.Logger) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		start := time.Now()
		err := handler(srv, ss)
		if err != nil {
			logger.Warn("grpc stream call finished", zap.String("method", info.FullMethod), zap.Duration("duration", time.Since(start)), zap.Error(err))
		}
		return err
	}
}

// unaryErrors converts application errors into gRPC statuses.
func unaryErrors() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		resp, err := handler(ctx, req)
		return resp, toStatus(err)
	}
}

func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	var appErr *errorbank.AppError
	if errors.As(err, &appErr) {
		return status.Error(appErr.GRPCCode(), appErr.Message())
	}
	return status.Error(errorbank.From(err).GRPCCode(), err.Error())
}

// Params lists the dependencies of the gRPC lifecycle.
type Params struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    config.Config
	Server    *grpc.Server
	Health    *health.Server
	Conns     *database.Connections `optional:"true"`
	Logger    *zap.Logger
}

// Run binds the gRPC server to the configured host/port and keeps the health
// status in step with the database.
func Run(p Params) {
	if !p.Config.GRPC.Enabled {
		p.Logger.Info("gRPC server disabled")
		return
	}

	addr := fmt.Sprintf("%s:%d", p.Config.GRPC.Host, p.Config.GRPC.Port)
	var (
		listener net.Listener
		cancel   context.CancelFunc
	)

	var db pinger
	if p.Conns != nil {
		db = p.Conns
	}

	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return fmt.Errorf("listen grpc: %w", err)
			}
			listener = ln

			var probeCtx context.Context
			probeCtx, cancel = context.WithCancel(context.Background())
			go watchHealth(probeCtx, p.Health, db, probeInterval, p.Logger)

			p.Logger.Info("starting gRPC server", zap.String("addr", addr))
			go func() {
				if err := p.Server.Serve(listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
					p.Logger.Fatal("grpc server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			p.Logger.Info("stopping gRPC server")
			if cancel != nil {
				cancel()
			}
			p.Health.Shutdown()

			stopped := make(chan struct{})
			go func() {
				p.Server.GracefulStop()
				close(stopped)
			}()

			select {
			case <-ctx.Done():
				p.Server.Stop()
				return ctx.Err()
			case <-stopped:
				return nil
			}
		},
	})
}

// watchHealth probes the database until ctx ends, flipping the overall
// serving status accordingly.
func watchHealth(ctx context.Context, hs *health.Server, db pinger, every time.Duration, logger *zap.Logger) {
	probe := func() {
		state := healthpb.HealthCheckResponse_SERVING
		if db != nil {
			if err := db.Ping(ctx); err != nil && ctx.Err() == nil {
				logger.Warn("database probe failed", zap.Error(err))
				state = healthpb.HealthCheckResponse_NOT_SERVING
			}
		}
		hs.SetServingStatus("", state)
	}

	probe()
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			probe()
		}
	}
}
