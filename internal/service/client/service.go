package client

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/oficina/internal/cache"
	"github.com/Additional-Code/oficina/internal/config"
	"github.com/Additional-Code/oficina/internal/database"
	"github.com/Additional-Code/oficina/internal/dto"
	"github.com/Additional-Code/oficina/internal/entity"
	"github.com/Additional-Code/oficina/internal/normalize"
	repo "github.com/Additional-Code/oficina/internal/repository/client"
	vehiclerepo "github.com/Additional-Code/oficina/internal/repository/vehicle"
	"github.com/Additional-Code/oficina/internal/validation"
	"github.com/Additional-Code/oficina/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/Additional-Code/oficina/service/client")

type clientStore interface {
	Create(ctx context.Context, c *entity.Client) error
	Update(ctx context.Context, c *entity.Client) error
	GetByID(ctx context.Context, id int64) (*entity.Client, error)
	List(ctx context.Context, filter dto.ClientFilter) ([]entity.Client, error)
}

type vehicleLister interface {
	List(ctx context.Context, filter dto.VehicleFilter) ([]entity.Vehicle, error)
}

// Service manages the client registry.
type Service struct {
	clients  clientStore
	vehicles vehicleLister
	cache    cache.Store
	cacheTTL time.Duration
	validate *validation.Validator
	region   string
	logger   *zap.Logger
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Clients   *repo.Repository
	Vehicles  *vehiclerepo.Repository
	Cache     cache.Store
	Validator *validation.Validator
	Config    config.Config
	Logger    *zap.Logger
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return newService(p.Clients, p.Vehicles, p.Cache, p.Config.Cache.DefaultTTL, p.Validator, p.Config.Shop.PhoneRegion, p.Logger)
}

func newService(clients clientStore, vehicles vehicleLister, c cache.Store, ttl time.Duration, v *validation.Validator, region string, logger *zap.Logger) *Service {
	if c == nil {
		c = cache.NewNoopStore()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{clients: clients, vehicles: vehicles, cache: c, cacheTTL: ttl, validate: v, region: region, logger: logger}
}

// List returns clients matching the filter.
func (s *Service) List(ctx context.Context, filter dto.ClientFilter) ([]entity.Client, error) {
	ctx, span := serviceTracer.Start(ctx, "ClientService.List")
	defer span.End()

	clients, err := s.clients.List(ctx, filter)
	if err != nil {
		return nil, s.translate(span, err, "failed to list clients")
	}
	return clients, nil
}

// Get retrieves a client by id, consulting cache when available.
func (s *Service) Get(ctx context.Context, id int64) (*entity.Client, error) {
	ctx, span := serviceTracer.Start(ctx, "ClientService.Get", trace.WithAttributes(attribute.Int64("client.id", id)))
	defer span.End()

	var cached entity.Client
	if hit, err := cache.GetJSON(ctx, s.cache, cache.ClientKey(id), &cached); err != nil {
		s.logger.Warn("client cache read failed", zap.Int64("id", id), zap.Error(err))
	} else if hit {
		return &cached, nil
	}

	c, err := s.clients.GetByID(ctx, id)
	if err != nil {
		return nil, s.translate(span, err, "failed to load client")
	}
	if err := cache.SetJSON(ctx, s.cache, cache.ClientKey(id), c, s.cacheTTL); err != nil {
		s.logger.Warn("client cache write failed", zap.Int64("id", id), zap.Error(err))
	}
	return c, nil
}

// Create registers a client. Phone and document must be unused.
func (s *Service) Create(ctx context.Context, req dto.ClientRequest) (*entity.Client, error) {
	ctx, span := serviceTracer.Start(ctx, "ClientService.Create")
	defer span.End()

	c, err := s.fromRequest(req)
	if err != nil {
		return nil, err
	}
	if err := s.clients.Create(ctx, c); err != nil {
		return nil, s.translate(span, err, "failed to create client")
	}
	return c, nil
}

// Update overwrites a client's fields.
func (s *Service) Update(ctx context.Context, id int64, req dto.ClientRequest) (*entity.Client, error) {
	ctx, span := serviceTracer.Start(ctx, "ClientService.Update", trace.WithAttributes(attribute.Int64("client.id", id)))
	defer span.End()

	c, err := s.fromRequest(req)
	if err != nil {
		return nil, err
	}
	c.ID = id
	if err := s.clients.Update(ctx, c); err != nil {
		return nil, s.translate(span, err, "failed to update client")
	}
	if err := s.cache.Delete(ctx, cache.ClientKey(id)); err != nil {
		s.logger.Warn("client cache invalidation failed", zap.Int64("id", id), zap.Error(err))
	}
	return c, nil
}

// Vehicles lists the vehicles currently owned by a client.
func (s *Service) Vehicles(ctx context.Context, id int64) ([]entity.Vehicle, error) {
	ctx, span := serviceTracer.Start(ctx, "ClientService.Vehicles", trace.WithAttributes(attribute.Int64("client.id", id)))
	defer span.End()

	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	vehicles, err := s.vehicles.List(ctx, dto.VehicleFilter{ClientID: id})
	if err != nil {
		return nil, s.translate(span, err, "failed to list client vehicles")
	}
	return vehicles, nil
}

func (s *Service) fromRequest(req dto.ClientRequest) (*entity.Client, error) {
	if err := s.validate.Validate(req); err != nil {
		return nil, err
	}
	c := &entity.Client{
		Name:     strings.TrimSpace(req.Name),
		Email:    normalize.Email(req.Email),
		Phone:    normalize.Phone(req.Phone, s.region),
		Document: normalize.Document(req.Document),
	}
	if c.Phone == "" {
		return nil, errorbank.Validation(map[string]string{"phone": "must contain digits"})
	}
	return c, nil
}

func (s *Service) translate(span trace.Span, err error, message string) error {
	switch {
	case errors.Is(err, repo.ErrNotFound):
		span.SetStatus(codes.Error, "not found")
		return errorbank.NotFound("client not found")
	case database.IsUniqueViolation(err):
		span.SetStatus(codes.Error, "conflict")
		field := "phone"
		if strings.Contains(database.Constraint(err), "document") {
			field = "document"
		}
		return errorbank.Conflict("a client with this "+field+" already exists",
			errorbank.WithField(field, "already registered"), errorbank.WithCause(err))
	default:
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		s.logger.Error(message, zap.Error(err))
		return errorbank.Internal(message, errorbank.WithCause(err))
	}
}
