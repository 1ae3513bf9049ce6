package inventory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/oficina/internal/database"
	"github.com/Additional-Code/oficina/internal/dto"
	"github.com/Additional-Code/oficina/internal/entity"
	"github.com/Additional-Code/oficina/internal/event"
	"github.com/Additional-Code/oficina/internal/export"
	"github.com/Additional-Code/oficina/internal/lock"
	"github.com/Additional-Code/oficina/internal/normalize"
	"github.com/Additional-Code/oficina/internal/observability"
	repo "github.com/Additional-Code/oficina/internal/repository/inventory"
	"github.com/Additional-Code/oficina/internal/validation"
	"github.com/Additional-Code/oficina/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/Additional-Code/oficina/service/inventory")

const movementHistoryLimit = 200

type partStore interface {
	Create(ctx context.Context, p *entity.Part) error
	Update(ctx context.Context, p *entity.Part) error
	GetByID(ctx context.Context, id int64) (*entity.Part, error)
	List(ctx context.Context, filter dto.PartFilter) ([]dto.PartStockRow, error)
	Lock(ctx context.Context, db bun.IDB, id int64) (*entity.Part, error)
	SetStock(ctx context.Context, db bun.IDB, id int64, stock int) error
	InsertMovement(ctx context.Context, db bun.IDB, m *entity.StockMovement) error
	Movements(ctx context.Context, partID int64, limit int) ([]entity.StockMovement, error)
}

type txRunner interface {
	RunInTx(ctx context.Context, fn database.TxFunc) error
}

// Service manages parts and their stock.
type Service struct {
	parts     partStore
	tx        txRunner
	locker    lock.Locker
	publisher *event.Publisher
	metrics   *observability.Metrics
	validate  *validation.Validator
	logger    *zap.Logger
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Parts     *repo.Repository
	DB        *database.Connections
	Locker    lock.Locker
	Publisher *event.Publisher
	Metrics   *observability.Metrics
	Validator *validation.Validator
	Logger    *zap.Logger
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return newService(p.Parts, p.DB, p.Locker, p.Publisher, p.Metrics, p.Validator, p.Logger)
}

func newService(parts partStore, tx txRunner, locker lock.Locker, publisher *event.Publisher, metrics *observability.Metrics, v *validation.Validator, logger *zap.Logger) *Service {
	if locker == nil {
		locker = lock.NewLocal()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{parts: parts, tx: tx, locker: locker, publisher: publisher, metrics: metrics, validate: v, logger: logger}
}

// List returns parts matching the filter.
func (s *Service) List(ctx context.Context, filter dto.PartFilter) ([]dto.PartStockRow, error) {
	ctx, span := serviceTracer.Start(ctx, "InventoryService.List")
	defer span.End()

	rows, err := s.parts.List(ctx, filter)
	if err != nil {
		return nil, s.translate(span, err, "failed to list parts")
	}
	return rows, nil
}

// LowStock returns parts at or below their minimum.
func (s *Service) LowStock(ctx context.Context) ([]dto.PartStockRow, error) {
	return s.List(ctx, dto.PartFilter{LowStock: true})
}

// Get returns one part.
func (s *Service) Get(ctx context.Context, id int64) (*entity.Part, error) {
	ctx, span := serviceTracer.Start(ctx, "InventoryService.Get", trace.WithAttributes(attribute.Int64("part.id", id)))
	defer span.End()

	p, err := s.parts.GetByID(ctx, id)
	if err != nil {
		return nil, s.translate(span, err, "failed to load part")
	}
	return p, nil
}

// Create registers a part with its opening stock.
func (s *Service) Create(ctx context.Context, req dto.PartRequest) (*entity.Part, error) {
	ctx, span := serviceTracer.Start(ctx, "InventoryService.Create")
	defer span.End()

	p, err := s.fromRequest(req)
	if err != nil {
		return nil, err
	}
	p.Stock = req.Stock
	if err := s.parts.Create(ctx, p); err != nil {
		return nil, s.translate(span, err, "failed to create part")
	}
	return p, nil
}

// Update edits a part. Stock is not touched; use Move for that.
func (s *Service) Update(ctx context.Context, id int64, req dto.PartRequest) (*entity.Part, error) {
	ctx, span := serviceTracer.Start(ctx, "InventoryService.Update", trace.WithAttributes(attribute.Int64("part.id", id)))
	defer span.End()

	p, err := s.fromRequest(req)
	if err != nil {
		return nil, err
	}
	p.ID = id
	if err := s.parts.Update(ctx, p); err != nil {
		return nil, s.translate(span, err, "failed to update part")
	}
	return p, nil
}

// Move applies a stock movement under a row lock and records it. OUT below
// zero is refused. Landing at or below the minimum emits stock.low.
func (s *Service) Move(ctx context.Context, partID int64, req dto.MovementRequest) (*entity.StockMovement, error) {
	ctx, span := serviceTracer.Start(ctx, "InventoryService.Move", trace.WithAttributes(attribute.Int64("part.id", partID)))
	defer span.End()

	req.Type = normalize.Upper(req.Type)
	if err := s.validate.Validate(req); err != nil {
		return nil, err
	}
	typ := entity.MovementType(req.Type)
	if typ != entity.MovementAdjust && req.Quantity == 0 {
		return nil, errorbank.Validation(map[string]string{"quantity": "must be greater than zero"})
	}
	span.SetAttributes(attribute.String("movement.type", string(typ)), attribute.Int("movement.quantity", req.Quantity))

	var (
		movement entity.StockMovement
		part     entity.Part
	)
	err := s.locker.WithLocks(ctx, []string{lock.PartKey(partID)}, func(ctx context.Context) error {
		return s.tx.RunInTx(ctx, func(ctx context.Context, tx bun.IDB) error {
			p, err := s.parts.Lock(ctx, tx, partID)
			if err != nil {
				return err
			}
			next := typ.Apply(p.Stock, req.Quantity)
			if next < 0 {
				return errorbank.Unprocessable(
					fmt.Sprintf("insufficient stock for %s", p.SKU),
					errorbank.WithDetail("available", p.Stock),
					errorbank.WithDetail("requested", req.Quantity),
				)
			}
			if err := s.parts.SetStock(ctx, tx, partID, next); err != nil {
				return err
			}
			movement = entity.StockMovement{
				PartID:        partID,
				Type:          typ,
				Quantity:      req.Quantity,
				PreviousStock: p.Stock,
				NewStock:      next,
				Reason:        strings.TrimSpace(req.Reason),
				Reference:     normalize.Optional(req.Reference),
			}
			if err := s.parts.InsertMovement(ctx, tx, &movement); err != nil {
				return err
			}
			part = *p
			part.Stock = next
			return nil
		})
	})
	if err != nil {
		return nil, s.translate(span, err, "failed to move stock")
	}

	if part.IsLow() {
		s.publishLow(ctx, part)
		s.metrics.StockLow(ctx, 1)
	}
	return &movement, nil
}

// Movements returns the latest movements of a part.
func (s *Service) Movements(ctx context.Context, partID int64) ([]entity.StockMovement, error) {
	ctx, span := serviceTracer.Start(ctx, "InventoryService.Movements", trace.WithAttributes(attribute.Int64("part.id", partID)))
	defer span.End()

	if _, err := s.parts.GetByID(ctx, partID); err != nil {
		return nil, s.translate(span, err, "failed to load part")
	}
	movements, err := s.parts.Movements(ctx, partID, movementHistoryLimit)
	if err != nil {
		return nil, s.translate(span, err, "failed to load movements")
	}
	return movements, nil
}

// ReportLowStock emits stock.low for every part at or below minimum and
// returns how many there were.
func (s *Service) ReportLowStock(ctx context.Context) (int, error) {
	ctx, span := serviceTracer.Start(ctx, "InventoryService.ReportLowStock")
	defer span.End()

	rows, err := s.parts.List(ctx, dto.PartFilter{LowStock: true})
	if err != nil {
		return 0, s.translate(span, err, "failed to scan low stock")
	}
	for _, r := range rows {
		s.publishLow(ctx, entity.Part{ID: r.ID, SKU: r.SKU, Name: r.Name, Stock: r.Stock, MinStock: r.MinStock})
	}
	s.metrics.StockLow(ctx, len(rows))
	span.SetAttributes(attribute.Int("parts.low", len(rows)))
	return len(rows), nil
}

// ExportStock writes the full part list as a workbook.
func (s *Service) ExportStock(ctx context.Context, w io.Writer) error {
	rows, err := s.List(ctx, dto.PartFilter{})
	if err != nil {
		return err
	}
	if err := export.Stock(w, rows); err != nil {
		s.logger.Error("render stock workbook", zap.Error(err))
		return errorbank.Internal("failed to export stock", errorbank.WithCause(err))
	}
	return nil
}

func (s *Service) publishLow(ctx context.Context, p entity.Part) {
	s.publisher.Publish(ctx, event.StockLow, event.PartKey(p.ID), event.PartLow{
		PartID:   p.ID,
		SKU:      p.SKU,
		Name:     p.Name,
		Stock:    p.Stock,
		MinStock: p.MinStock,
	})
}

func (s *Service) fromRequest(req dto.PartRequest) (*entity.Part, error) {
	if err := s.validate.Validate(req); err != nil {
		return nil, err
	}
	fields := map[string]string{}
	if req.Price.IsNegative() {
		fields["price"] = "must be zero or greater"
	}
	if req.Cost.IsNegative() {
		fields["cost"] = "must be zero or greater"
	}
	if len(fields) > 0 {
		return nil, errorbank.Validation(fields)
	}

	unit := normalize.Upper(req.Unit)
	if unit == "" {
		unit = "UN"
	}
	return &entity.Part{
		SKU:        normalize.Upper(req.SKU),
		Name:       strings.TrimSpace(req.Name),
		Price:      req.Price.Round(2),
		Cost:       req.Cost.Round(2),
		MinStock:   req.MinStock,
		Unit:       unit,
		Category:   normalize.Optional(req.Category),
		SupplierID: req.SupplierID,
	}, nil
}

func (s *Service) translate(span trace.Span, err error, message string) error {
	var appErr *errorbank.AppError
	switch {
	case errors.As(err, &appErr):
		span.SetStatus(codes.Error, string(appErr.Kind()))
		return appErr
	case errors.Is(err, repo.ErrNotFound):
		span.SetStatus(codes.Error, "not found")
		return errorbank.NotFound("part not found")
	case database.IsUniqueViolation(err):
		span.SetStatus(codes.Error, "conflict")
		return errorbank.Conflict("a part with this sku already exists",
			errorbank.WithField("sku", "already registered"), errorbank.WithCause(err))
	case database.IsForeignKeyViolation(err):
		span.SetStatus(codes.Error, "unknown supplier")
		return errorbank.Unprocessable("supplier does not exist",
			errorbank.WithField("supplierId", "does not exist"), errorbank.WithCause(err))
	case errors.Is(err, lock.ErrNotObtained):
		span.SetStatus(codes.Error, "locked")
		return errorbank.Conflict("part is being updated, try again", errorbank.WithCause(err))
	default:
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		s.logger.Error(message, zap.Error(err))
		return errorbank.Internal(message, errorbank.WithCause(err))
	}
}
