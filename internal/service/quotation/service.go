package quotation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/oficina/internal/cache"
	"github.com/Additional-Code/oficina/internal/database"
	"github.com/Additional-Code/oficina/internal/dto"
	"github.com/Additional-Code/oficina/internal/entity"
	"github.com/Additional-Code/oficina/internal/event"
	"github.com/Additional-Code/oficina/internal/normalize"
	"github.com/Additional-Code/oficina/internal/observability"
	repo "github.com/Additional-Code/oficina/internal/repository/quotation"
	orderrepo "github.com/Additional-Code/oficina/internal/repository/serviceorder"
	"github.com/Additional-Code/oficina/internal/validation"
	"github.com/Additional-Code/oficina/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/Additional-Code/oficina/service/quotation")

const (
	defaultListLimit = 100
	maxListLimit     = 500
)

type quotationStore interface {
	Create(ctx context.Context, db bun.IDB, q *entity.Quotation) error
	GetByID(ctx context.Context, id int64) (*entity.Quotation, error)
	List(ctx context.Context, filter dto.QuotationFilter) ([]entity.Quotation, error)
	Lock(ctx context.Context, db bun.IDB, id int64) (*entity.Quotation, error)
	SetStatus(ctx context.Context, db bun.IDB, id int64, status entity.QuotationStatus) error
}

type orderStatusStore interface {
	LockStatus(ctx context.Context, db bun.IDB, id int64) (orderrepo.StatusRow, error)
	SetStatus(ctx context.Context, db bun.IDB, id int64, status entity.OrderStatus) error
}

type txRunner interface {
	RunInTx(ctx context.Context, fn database.TxFunc) error
}

// orderMove is a service order transition performed alongside a quotation change.
type orderMove struct {
	row  orderrepo.StatusRow
	next entity.OrderStatus
}

// Service prices repairs and carries the linked service order along.
type Service struct {
	quotations quotationStore
	orders     orderStatusStore
	tx         txRunner
	cache      cache.Store
	publisher  *event.Publisher
	metrics    *observability.Metrics
	validate   *validation.Validator
	logger     *zap.Logger
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Quotations *repo.Repository
	Orders     *orderrepo.Repository
	DB         *database.Connections
	Cache      cache.Store
	Publisher  *event.Publisher
	Metrics    *observability.Metrics
	Validator  *validation.Validator
	Logger     *zap.Logger
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return newService(p.Quotations, p.Orders, p.DB, p.Cache, p.Publisher, p.Metrics, p.Validator, p.Logger)
}

func newService(quotations quotationStore, orders orderStatusStore, tx txRunner, store cache.Store, publisher *event.Publisher, metrics *observability.Metrics, v *validation.Validator, logger *zap.Logger) *Service {
	if store == nil {
		store = cache.NewNoopStore()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		quotations: quotations,
		orders:     orders,
		tx:         tx,
		cache:      store,
		publisher:  publisher,
		metrics:    metrics,
		validate:   v,
		logger:     logger,
	}
}

// Create prices the items and stores a DRAFT quotation. A linked order still
// OPEN moves to QUOTATION in the same transaction.
func (s *Service) Create(ctx context.Context, req dto.QuotationRequest) (*entity.Quotation, error) {
	ctx, span := serviceTracer.Start(ctx, "QuotationService.Create")
	defer span.End()

	for i := range req.Items {
		req.Items[i].Kind = normalize.Upper(req.Items[i].Kind)
	}
	if err := s.validate.Validate(req); err != nil {
		return nil, err
	}
	if req.ClientID <= 0 && req.ServiceOrderID == nil {
		return nil, errorbank.Validation(map[string]string{"clientId": "is required when no service order is linked"})
	}

	q, err := price(req)
	if err != nil {
		return nil, err
	}

	var move *orderMove
	err = s.tx.RunInTx(ctx, func(ctx context.Context, tx bun.IDB) error {
		move = nil
		if req.ServiceOrderID != nil {
			order, err := s.orders.LockStatus(ctx, tx, *req.ServiceOrderID)
			if err != nil {
				return err
			}
			if q.ClientID == 0 {
				q.ClientID = order.ClientID
			}
			if q.ClientID != order.ClientID {
				return errorbank.Unprocessable("quotation client does not own the service order",
					errorbank.WithField("clientId", "does not match the service order"))
			}
			if order.Status.CanTransitionTo(entity.StatusQuotation) {
				if err := s.orders.SetStatus(ctx, tx, order.ID, entity.StatusQuotation); err != nil {
					return err
				}
				move = &orderMove{row: order, next: entity.StatusQuotation}
			}
		}
		return s.quotations.Create(ctx, tx, q)
	})
	if err != nil {
		return nil, s.translate(span, err, "failed to create quotation")
	}
	span.SetAttributes(attribute.Int64("quotation.id", q.ID), attribute.String("quotation.total", q.Total.String()))

	s.afterOrderMove(ctx, move)
	return q, nil
}

// List returns quotations matching the filter, newest first.
func (s *Service) List(ctx context.Context, filter dto.QuotationFilter) ([]entity.Quotation, error) {
	ctx, span := serviceTracer.Start(ctx, "QuotationService.List")
	defer span.End()

	filter.Status = normalize.Upper(filter.Status)
	if filter.Status != "" && !entity.QuotationStatus(filter.Status).Valid() {
		return nil, errorbank.Validation(map[string]string{"status": "is not a known quotation status"})
	}
	switch {
	case filter.Limit <= 0:
		filter.Limit = defaultListLimit
	case filter.Limit > maxListLimit:
		filter.Limit = maxListLimit
	}

	quotations, err := s.quotations.List(ctx, filter)
	if err != nil {
		return nil, s.translate(span, err, "failed to list quotations")
	}
	return quotations, nil
}

// Get returns a quotation with its items.
func (s *Service) Get(ctx context.Context, id int64) (*entity.Quotation, error) {
	ctx, span := serviceTracer.Start(ctx, "QuotationService.Get", trace.WithAttributes(attribute.Int64("quotation.id", id)))
	defer span.End()

	q, err := s.quotations.GetByID(ctx, id)
	if err != nil {
		return nil, s.translate(span, err, "failed to load quotation")
	}
	return q, nil
}

// ChangeStatus moves a quotation along its lifecycle. Approval also approves
// the linked service order when it can still move there; a finished or
// cancelled order blocks the approval.
func (s *Service) ChangeStatus(ctx context.Context, id int64, req dto.QuotationStatusRequest) (*entity.Quotation, error) {
	ctx, span := serviceTracer.Start(ctx, "QuotationService.ChangeStatus", trace.WithAttributes(attribute.Int64("quotation.id", id)))
	defer span.End()

	req.Status = normalize.Upper(req.Status)
	if err := s.validate.Validate(req); err != nil {
		return nil, err
	}
	next := entity.QuotationStatus(req.Status)
	span.SetAttributes(attribute.String("quotation.status", string(next)))

	var move *orderMove
	err := s.tx.RunInTx(ctx, func(ctx context.Context, tx bun.IDB) error {
		move = nil
		q, err := s.quotations.Lock(ctx, tx, id)
		if err != nil {
			return err
		}
		if q.Status == next {
			return nil
		}
		if !q.Status.CanTransitionTo(next) {
			return errorbank.Unprocessable(
				fmt.Sprintf("cannot move quotation from %s to %s", q.Status, next),
				errorbank.WithDetail("from", string(q.Status)),
				errorbank.WithDetail("to", string(next)),
			)
		}
		if err := s.quotations.SetStatus(ctx, tx, id, next); err != nil {
			return err
		}
		if next != entity.QuotationApproved || q.ServiceOrderID == nil {
			return nil
		}

		order, err := s.orders.LockStatus(ctx, tx, *q.ServiceOrderID)
		if err != nil {
			return err
		}
		switch {
		case order.Status.CanTransitionTo(entity.StatusApproved):
			if err := s.orders.SetStatus(ctx, tx, order.ID, entity.StatusApproved); err != nil {
				return err
			}
			move = &orderMove{row: order, next: entity.StatusApproved}
		case order.Status.Terminal():
			return errorbank.Unprocessable(
				fmt.Sprintf("service order %d is %s", order.Number, order.Status),
				errorbank.WithDetail("serviceOrderStatus", string(order.Status)),
			)
		}
		return nil
	})
	if err != nil {
		return nil, s.translate(span, err, "failed to change quotation status")
	}

	s.afterOrderMove(ctx, move)
	return s.Get(ctx, id)
}

func (s *Service) afterOrderMove(ctx context.Context, move *orderMove) {
	if move == nil {
		return
	}
	s.publisher.Publish(ctx, event.ServiceOrderStatusChanged, event.OrderKey(move.row.ID), event.OrderStatusChanged{
		OrderID: move.row.ID,
		Number:  move.row.Number,
		From:    string(move.row.Status),
		To:      string(move.next),
	})
	if err := s.cache.Delete(ctx, cache.PatioBoardKey); err != nil {
		s.logger.Warn("patio cache invalidation failed", zap.Error(err))
	}
	s.metrics.StatusChanged(ctx, string(move.row.Status), string(move.next))
}

// price builds the quotation rows, rounding each line to cents.
func price(req dto.QuotationRequest) (*entity.Quotation, error) {
	q := &entity.Quotation{
		ServiceOrderID: req.ServiceOrderID,
		ClientID:       req.ClientID,
		VehicleID:      req.VehicleID,
		Status:         entity.QuotationDraft,
		ValidUntil:     req.ValidUntil.Ptr(),
		Notes:          normalize.Optional(req.Notes),
		Total:          decimal.Zero,
		Items:          make([]entity.QuotationItem, 0, len(req.Items)),
	}

	fields := map[string]string{}
	for i, item := range req.Items {
		if item.UnitPrice.IsNegative() {
			fields[fmt.Sprintf("items[%d].unitPrice", i)] = "must be zero or greater"
			continue
		}
		if entity.ItemKind(item.Kind) == entity.ItemPart && item.PartID == nil {
			fields[fmt.Sprintf("items[%d].partId", i)] = "is required for PART items"
			continue
		}
		unit := item.UnitPrice.Round(2)
		line := unit.Mul(decimal.NewFromInt(int64(item.Quantity))).Round(2)
		q.Items = append(q.Items, entity.QuotationItem{
			Description: strings.TrimSpace(item.Description),
			Kind:        entity.ItemKind(item.Kind),
			PartID:      item.PartID,
			Quantity:    item.Quantity,
			UnitPrice:   unit,
			Total:       line,
		})
		q.Total = q.Total.Add(line)
	}
	if len(fields) > 0 {
		return nil, errorbank.Validation(fields)
	}
	return q, nil
}

func (s *Service) translate(span trace.Span, err error, message string) error {
	var appErr *errorbank.AppError
	switch {
	case errors.As(err, &appErr):
		span.SetStatus(codes.Error, string(appErr.Kind()))
		return appErr
	case errors.Is(err, repo.ErrNotFound):
		span.SetStatus(codes.Error, "not found")
		return errorbank.NotFound("quotation not found")
	case errors.Is(err, orderrepo.ErrNotFound):
		span.SetStatus(codes.Error, "order not found")
		return errorbank.Unprocessable("service order does not exist",
			errorbank.WithField("serviceOrderId", "does not exist"))
	case database.IsForeignKeyViolation(err):
		span.SetStatus(codes.Error, "unknown reference")
		return errorbank.Unprocessable("referenced client, vehicle or part does not exist", errorbank.WithCause(err))
	default:
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		s.logger.Error(message, zap.Error(err))
		return errorbank.Internal(message, errorbank.WithCause(err))
	}
}
