package patio

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/oficina/internal/cache"
	"github.com/Additional-Code/oficina/internal/config"
	"github.com/Additional-Code/oficina/internal/dto"
	repo "github.com/Additional-Code/oficina/internal/repository/serviceorder"
	"github.com/Additional-Code/oficina/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/Additional-Code/oficina/service/patio")

type boardStore interface {
	BoardVehicles(ctx context.Context) ([]dto.BoardVehicle, error)
	BoardStats(ctx context.Context, since time.Time) (dto.BoardStats, error)
}

// Service assembles the yard board.
type Service struct {
	store    boardStore
	cache    cache.Store
	cacheTTL time.Duration
	window   time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Orders *repo.Repository
	Cache  cache.Store
	Config config.Config
	Logger *zap.Logger
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return newService(p.Orders, p.Cache, p.Config.Cache.DefaultTTL, p.Config.Shop.TurnaroundWindow, p.Logger)
}

func newService(store boardStore, c cache.Store, ttl, window time.Duration, logger *zap.Logger) *Service {
	if c == nil {
		c = cache.NewNoopStore()
	}
	if window <= 0 {
		window = 30 * 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, cache: c, cacheTTL: ttl, window: window, logger: logger, now: time.Now}
}

// Board returns every vehicle with an active order plus yard statistics.
// The result is served from cache until an order event invalidates it.
func (s *Service) Board(ctx context.Context) (*dto.Board, error) {
	ctx, span := serviceTracer.Start(ctx, "PatioService.Board")
	defer span.End()

	var board dto.Board
	hit, err := cache.GetJSON(ctx, s.cache, cache.PatioBoardKey, &board)
	if err != nil {
		s.logger.Warn("patio cache read failed", zap.Error(err))
	}
	if hit {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return &board, nil
	}

	vehicles, err := s.store.BoardVehicles(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		s.logger.Error("load patio vehicles", zap.Error(err))
		return nil, errorbank.Internal("failed to load patio board", errorbank.WithCause(err))
	}
	stats, err := s.store.BoardStats(ctx, s.now().Add(-s.window))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		s.logger.Error("load patio stats", zap.Error(err))
		return nil, errorbank.Internal("failed to load patio statistics", errorbank.WithCause(err))
	}

	board = dto.Board{Vehicles: vehicles, Stats: stats}
	if err := cache.SetJSON(ctx, s.cache, cache.PatioBoardKey, board, s.cacheTTL); err != nil {
		s.logger.Warn("patio cache write failed", zap.Error(err))
	}
	span.SetAttributes(attribute.Int("patio.vehicles", len(vehicles)))
	return &board, nil
}
