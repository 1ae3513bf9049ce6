package vehicle

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
	orderrepo "github.com/Additional-Code/oficina/internal/repository/serviceorder"
	repo "github.com/Additional-Code/oficina/internal/repository/vehicle"
	"github.com/Additional-Code/oficina/internal/validation"
	"github.com/Additional-Code/oficina/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/Additional-Code/oficina/service/vehicle")

type vehicleStore interface {
	Create(ctx context.Context, v *entity.Vehicle) error
	Update(ctx context.Context, v *entity.Vehicle) error
	GetByID(ctx context.Context, id int64) (*entity.Vehicle, error)
	GetByPlate(ctx context.Context, plate string) (*entity.Vehicle, error)
	List(ctx context.Context, filter dto.VehicleFilter) ([]entity.Vehicle, error)
}

type historyReader interface {
	History(ctx context.Context, vehicleID int64) ([]dto.OrderRow, error)
}

// Service manages vehicles and their service history.
type Service struct {
	vehicles vehicleStore
	orders   historyReader
	cache    cache.Store
	cacheTTL time.Duration
	validate *validation.Validator
	logger   *zap.Logger
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Vehicles  *repo.Repository
	Orders    *orderrepo.Repository
	Cache     cache.Store
	Validator *validation.Validator
	Config    config.Config
	Logger    *zap.Logger
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return newService(p.Vehicles, p.Orders, p.Cache, p.Config.Cache.DefaultTTL, p.Validator, p.Logger)
}

func newService(vehicles vehicleStore, orders historyReader, c cache.Store, ttl time.Duration, v *validation.Validator, logger *zap.Logger) *Service {
	if c == nil {
		c = cache.NewNoopStore()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{vehicles: vehicles, orders: orders, cache: c, cacheTTL: ttl, validate: v, logger: logger}
}

// List returns vehicles matching the filter.
func (s *Service) List(ctx context.Context, filter dto.VehicleFilter) ([]entity.Vehicle, error) {
	ctx, span := serviceTracer.Start(ctx, "VehicleService.List")
	defer span.End()

	vehicles, err := s.vehicles.List(ctx, filter)
	if err != nil {
		return nil, s.translate(span, err, "failed to list vehicles")
	}
	return vehicles, nil
}

// Get returns one vehicle.
func (s *Service) Get(ctx context.Context, id int64) (*entity.Vehicle, error) {
	ctx, span := serviceTracer.Start(ctx, "VehicleService.Get", trace.WithAttributes(attribute.Int64("vehicle.id", id)))
	defer span.End()

	v, err := s.vehicles.GetByID(ctx, id)
	if err != nil {
		return nil, s.translate(span, err, "failed to load vehicle")
	}
	return v, nil
}

// GetByPlate looks a vehicle up by plate in any spelling.
func (s *Service) GetByPlate(ctx context.Context, raw string) (*entity.Vehicle, error) {
	plate := normalize.Plate(raw)
	ctx, span := serviceTracer.Start(ctx, "VehicleService.GetByPlate", trace.WithAttributes(attribute.String("vehicle.plate", plate)))
	defer span.End()

	if plate == "" {
		return nil, errorbank.BadRequest("invalid plate")
	}

	var cached entity.Vehicle
	if hit, err := cache.GetJSON(ctx, s.cache, cache.VehiclePlateKey(plate), &cached); err != nil {
		s.logger.Warn("vehicle cache read failed", zap.String("plate", plate), zap.Error(err))
	} else if hit {
		return &cached, nil
	}

	v, err := s.vehicles.GetByPlate(ctx, plate)
	if err != nil {
		return nil, s.translate(span, err, "failed to load vehicle")
	}
	if err := cache.SetJSON(ctx, s.cache, cache.VehiclePlateKey(plate), v, s.cacheTTL); err != nil {
		s.logger.Warn("vehicle cache write failed", zap.String("plate", plate), zap.Error(err))
	}
	return v, nil
}

// Create registers a vehicle for an existing client.
func (s *Service) Create(ctx context.Context, req dto.VehicleRequest) (*entity.Vehicle, error) {
	ctx, span := serviceTracer.Start(ctx, "VehicleService.Create")
	defer span.End()

	v, err := s.fromRequest(req)
	if err != nil {
		return nil, err
	}
	if err := s.vehicles.Create(ctx, v); err != nil {
		return nil, s.translate(span, err, "failed to create vehicle")
	}
	return v, nil
}

// Update overwrites a vehicle, including transferring it to another client.
func (s *Service) Update(ctx context.Context, id int64, req dto.VehicleRequest) (*entity.Vehicle, error) {
	ctx, span := serviceTracer.Start(ctx, "VehicleService.Update", trace.WithAttributes(attribute.Int64("vehicle.id", id)))
	defer span.End()

	v, err := s.fromRequest(req)
	if err != nil {
		return nil, err
	}
	previous, err := s.vehicles.GetByID(ctx, id)
	if err != nil {
		return nil, s.translate(span, err, "failed to load vehicle")
	}

	v.ID = id
	if err := s.vehicles.Update(ctx, v); err != nil {
		return nil, s.translate(span, err, "failed to update vehicle")
	}
	if err := s.cache.Delete(ctx, cache.VehiclePlateKey(previous.Plate), cache.VehiclePlateKey(v.Plate)); err != nil {
		s.logger.Warn("vehicle cache invalidation failed", zap.Int64("id", id), zap.Error(err))
	}
	if previous.ClientID != v.ClientID {
		s.logger.Info("vehicle ownership transferred",
			zap.Int64("vehicle_id", id),
			zap.Int64("from_client", previous.ClientID),
			zap.Int64("to_client", v.ClientID),
		)
	}
	return v, nil
}

// History lists every service order of a vehicle.
func (s *Service) History(ctx context.Context, id int64) ([]dto.OrderRow, error) {
	ctx, span := serviceTracer.Start(ctx, "VehicleService.History", trace.WithAttributes(attribute.Int64("vehicle.id", id)))
	defer span.End()

	if _, err := s.vehicles.GetByID(ctx, id); err != nil {
		return nil, s.translate(span, err, "failed to load vehicle")
	}
	rows, err := s.orders.History(ctx, id)
	if err != nil {
		return nil, s.translate(span, err, "failed to load vehicle history")
	}
	return rows, nil
}

func (s *Service) fromRequest(req dto.VehicleRequest) (*entity.Vehicle, error) {
	if err := s.validate.Validate(req); err != nil {
		return nil, err
	}
	v := &entity.Vehicle{
		Plate:    normalize.Plate(req.Plate),
		VIN:      normalize.Optional(normalize.Upper(req.VIN)),
		Model:    strings.TrimSpace(req.Model),
		Brand:    strings.TrimSpace(req.Brand),
		Year:     req.Year.Ptr(),
		ClientID: req.ClientID,
	}
	if v.Plate == "" {
		return nil, errorbank.Validation(map[string]string{"plate": "must contain letters or digits"})
	}
	return v, nil
}

func (s *Service) translate(span trace.Span, err error, message string) error {
	switch {
	case errors.Is(err, repo.ErrNotFound):
		span.SetStatus(codes.Error, "not found")
		return errorbank.NotFound("vehicle not found")
	case database.IsUniqueViolation(err):
		span.SetStatus(codes.Error, "conflict")
		return errorbank.Conflict("a vehicle with this plate already exists",
			errorbank.WithField("plate", "already registered"), errorbank.WithCause(err))
	case database.IsForeignKeyViolation(err):
		span.SetStatus(codes.Error, "unknown client")
		return errorbank.Unprocessable("client does not exist",
			errorbank.WithField("clientId", "does not exist"), errorbank.WithCause(err))
	default:
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		s.logger.Error(message, zap.Error(err))
		return errorbank.Internal(message, errorbank.WithCause(err))
	}
}
