package legacy

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/oficina/internal/database"
	"github.com/Additional-Code/oficina/internal/dto"
	"github.com/Additional-Code/oficina/internal/entity"
	"github.com/Additional-Code/oficina/internal/normalize"
	repo "github.com/Additional-Code/oficina/internal/repository/legacy"
	"github.com/Additional-Code/oficina/internal/validation"
	"github.com/Additional-Code/oficina/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/Additional-Code/oficina/service/legacy")

const (
	defaultListLimit = 100
	maxListLimit     = 500
)

type legacyStore interface {
	Create(ctx context.Context, o *entity.LegacyOrder) error
	GetByID(ctx context.Context, id int64) (*entity.LegacyOrder, error)
	List(ctx context.Context, search string, limit int) ([]entity.LegacyOrder, error)
}

// Service keeps the work orders carried over from the paper system.
type Service struct {
	orders   legacyStore
	validate *validation.Validator
	logger   *zap.Logger
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Orders    *repo.Repository
	Validator *validation.Validator
	Logger    *zap.Logger
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return newService(p.Orders, p.Validator, p.Logger)
}

func newService(orders legacyStore, v *validation.Validator, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{orders: orders, validate: v, logger: logger}
}

// List searches legacy orders by number, client name or plate.
func (s *Service) List(ctx context.Context, search string, limit int) ([]entity.LegacyOrder, error) {
	ctx, span := serviceTracer.Start(ctx, "LegacyService.List")
	defer span.End()

	switch {
	case limit <= 0:
		limit = defaultListLimit
	case limit > maxListLimit:
		limit = maxListLimit
	}
	orders, err := s.orders.List(ctx, search, limit)
	if err != nil {
		return nil, s.translate(span, err, "failed to list legacy orders")
	}
	return orders, nil
}

// Get returns one legacy order.
func (s *Service) Get(ctx context.Context, id int64) (*entity.LegacyOrder, error) {
	ctx, span := serviceTracer.Start(ctx, "LegacyService.Get", trace.WithAttributes(attribute.Int64("legacy_order.id", id)))
	defer span.End()

	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, s.translate(span, err, "failed to load legacy order")
	}
	return o, nil
}

// Create registers a legacy order typed in by hand.
func (s *Service) Create(ctx context.Context, req dto.LegacyOrderRequest) (*entity.LegacyOrder, error) {
	ctx, span := serviceTracer.Start(ctx, "LegacyService.Create")
	defer span.End()

	if err := s.validate.Validate(req); err != nil {
		return nil, err
	}
	total, err := ParseAmount(req.Total)
	if err != nil {
		return nil, errorbank.Validation(map[string]string{"total": "must be a number"})
	}

	var plate *string
	if p := normalize.Plate(req.VehiclePlate); p != "" {
		plate = &p
	}
	o := &entity.LegacyOrder{
		LegacyNumber:       strings.TrimSpace(req.LegacyNumber),
		ClientName:         strings.TrimSpace(req.ClientName),
		VehiclePlate:       plate,
		VehicleDescription: normalize.Optional(req.VehicleDescription),
		ServiceDate:        req.ServiceDate.Ptr(),
		Description:        normalize.Optional(req.Description),
		Total:              total,
		Notes:              normalize.Optional(req.Notes),
	}
	if err := s.orders.Create(ctx, o); err != nil {
		return nil, s.translate(span, err, "failed to create legacy order")
	}
	return o, nil
}

// ParseAmount reads money written either as 1234.50 or in the Brazilian
// form 1.234,50. Empty means zero.
func ParseAmount(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "R$")
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, nil
	}
	if strings.Contains(raw, ",") {
		raw = strings.ReplaceAll(raw, ".", "")
		raw = strings.ReplaceAll(raw, ",", ".")
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, err
	}
	return d.Round(2), nil
}

func (s *Service) translate(span trace.Span, err error, message string) error {
	var appErr *errorbank.AppError
	switch {
	case errors.As(err, &appErr):
		span.SetStatus(codes.Error, string(appErr.Kind()))
		return appErr
	case errors.Is(err, repo.ErrNotFound):
		span.SetStatus(codes.Error, "not found")
		return errorbank.NotFound("legacy order not found")
	case database.IsUniqueViolation(err):
		span.SetStatus(codes.Error, "conflict")
		return errorbank.Conflict("a legacy order with this number already exists",
			errorbank.WithField("legacyNumber", "already registered"), errorbank.WithCause(err))
	default:
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		s.logger.Error(message, zap.Error(err))
		return errorbank.Internal(message, errorbank.WithCause(err))
	}
}
