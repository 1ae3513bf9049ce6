package supplier

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/oficina/internal/dto"
	"github.com/Additional-Code/oficina/internal/entity"
	"github.com/Additional-Code/oficina/internal/normalize"
	repo "github.com/Additional-Code/oficina/internal/repository/supplier"
	"github.com/Additional-Code/oficina/internal/validation"
	"github.com/Additional-Code/oficina/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/Additional-Code/oficina/service/supplier")

type supplierStore interface {
	Create(ctx context.Context, s *entity.Supplier) error
	Update(ctx context.Context, s *entity.Supplier) error
	SetActive(ctx context.Context, id int64, active bool) error
	GetByID(ctx context.Context, id int64) (*entity.Supplier, error)
	List(ctx context.Context, filter dto.SupplierFilter) ([]entity.Supplier, error)
}

// Service manages suppliers. Suppliers are never deleted, only deactivated.
type Service struct {
	suppliers supplierStore
	validate  *validation.Validator
	logger    *zap.Logger
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Suppliers *repo.Repository
	Validator *validation.Validator
	Logger    *zap.Logger
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return newService(p.Suppliers, p.Validator, p.Logger)
}

func newService(store supplierStore, v *validation.Validator, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{suppliers: store, validate: v, logger: logger}
}

// List returns suppliers filtered by type, active flag and name.
func (s *Service) List(ctx context.Context, filter dto.SupplierFilter) ([]entity.Supplier, error) {
	ctx, span := serviceTracer.Start(ctx, "SupplierService.List")
	defer span.End()

	filter.Type = normalize.Upper(filter.Type)
	if filter.Type != "" && !entity.SupplierType(filter.Type).Valid() {
		return nil, errorbank.BadRequest("invalid supplier type", errorbank.WithDetail("type", filter.Type))
	}
	suppliers, err := s.suppliers.List(ctx, filter)
	if err != nil {
		return nil, s.translate(span, err, "failed to list suppliers")
	}
	return suppliers, nil
}

// Get returns one supplier.
func (s *Service) Get(ctx context.Context, id int64) (*entity.Supplier, error) {
	ctx, span := serviceTracer.Start(ctx, "SupplierService.Get", trace.WithAttributes(attribute.Int64("supplier.id", id)))
	defer span.End()

	sup, err := s.suppliers.GetByID(ctx, id)
	if err != nil {
		return nil, s.translate(span, err, "failed to load supplier")
	}
	return sup, nil
}

// Create registers an active supplier.
func (s *Service) Create(ctx context.Context, req dto.SupplierRequest) (*entity.Supplier, error) {
	ctx, span := serviceTracer.Start(ctx, "SupplierService.Create")
	defer span.End()

	sup, err := s.fromRequest(req)
	if err != nil {
		return nil, err
	}
	sup.IsActive = true
	if err := s.suppliers.Create(ctx, sup); err != nil {
		return nil, s.translate(span, err, "failed to create supplier")
	}
	return sup, nil
}

// Update overwrites a supplier's descriptive fields.
func (s *Service) Update(ctx context.Context, id int64, req dto.SupplierRequest) (*entity.Supplier, error) {
	ctx, span := serviceTracer.Start(ctx, "SupplierService.Update", trace.WithAttributes(attribute.Int64("supplier.id", id)))
	defer span.End()

	sup, err := s.fromRequest(req)
	if err != nil {
		return nil, err
	}
	sup.ID = id
	if err := s.suppliers.Update(ctx, sup); err != nil {
		return nil, s.translate(span, err, "failed to update supplier")
	}
	return sup, nil
}

// SetActive activates or deactivates a supplier.
func (s *Service) SetActive(ctx context.Context, id int64, req dto.SupplierActiveRequest) (*entity.Supplier, error) {
	ctx, span := serviceTracer.Start(ctx, "SupplierService.SetActive", trace.WithAttributes(attribute.Int64("supplier.id", id)))
	defer span.End()

	if err := s.validate.Validate(req); err != nil {
		return nil, err
	}
	if err := s.suppliers.SetActive(ctx, id, *req.IsActive); err != nil {
		return nil, s.translate(span, err, "failed to update supplier")
	}
	return s.Get(ctx, id)
}

func (s *Service) fromRequest(req dto.SupplierRequest) (*entity.Supplier, error) {
	req.Type = normalize.Upper(req.Type)
	if err := s.validate.Validate(req); err != nil {
		return nil, err
	}
	return &entity.Supplier{
		Name:        strings.TrimSpace(req.Name),
		Type:        entity.SupplierType(req.Type),
		Document:    normalize.Document(req.Document),
		ContactName: normalize.Optional(req.ContactName),
		Phone:       normalize.Optional(req.Phone),
		Email:       normalize.Email(req.Email),
		Address:     normalize.Optional(req.Address),
		Notes:       normalize.Optional(req.Notes),
	}, nil
}

func (s *Service) translate(span trace.Span, err error, message string) error {
	if errors.Is(err, repo.ErrNotFound) {
		span.SetStatus(codes.Error, "not found")
		return errorbank.NotFound("supplier not found")
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, "repository error")
	s.logger.Error(message, zap.Error(err))
	return errorbank.Internal(message, errorbank.WithCause(err))
}
