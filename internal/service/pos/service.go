package pos

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

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
	"github.com/Additional-Code/oficina/internal/lock"
	"github.com/Additional-Code/oficina/internal/normalize"
	"github.com/Additional-Code/oficina/internal/observability"
	"github.com/Additional-Code/oficina/internal/payment"
	financerepo "github.com/Additional-Code/oficina/internal/repository/finance"
	inventoryrepo "github.com/Additional-Code/oficina/internal/repository/inventory"
	repo "github.com/Additional-Code/oficina/internal/repository/pos"
	"github.com/Additional-Code/oficina/internal/validation"
	"github.com/Additional-Code/oficina/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/Additional-Code/oficina/service/pos")

const (
	defaultListLimit = 100
	maxListLimit     = 500
	saleCategory     = "POS"
	reversalTimeout  = 15 * time.Second
)

type saleStore interface {
	Insert(ctx context.Context, db bun.IDB, sale *entity.Sale) error
	SetPayment(ctx context.Context, db bun.IDB, id int64, status entity.PaymentStatus, providerID *string) error
	GetByID(ctx context.Context, id int64) (*entity.Sale, error)
	List(ctx context.Context, filter dto.SaleFilter) ([]dto.SaleRow, error)
}

type stockStore interface {
	GetMany(ctx context.Context, db bun.IDB, ids []int64) (map[int64]entity.Part, error)
	Decrement(ctx context.Context, db bun.IDB, id int64, qty int) (previous, current int, err error)
	InsertMovement(ctx context.Context, db bun.IDB, m *entity.StockMovement) error
}

type ledger interface {
	Create(ctx context.Context, db bun.IDB, t *entity.Transaction) error
}

type txRunner interface {
	RunInTx(ctx context.Context, fn database.TxFunc) error
}

// Service runs counter sales.
type Service struct {
	sales     saleStore
	parts     stockStore
	ledger    ledger
	tx        txRunner
	locker    lock.Locker
	gateway   payment.Gateway
	cache     cache.Store
	publisher *event.Publisher
	metrics   *observability.Metrics
	validate  *validation.Validator
	logger    *zap.Logger
	now       func() time.Time
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Sales     *repo.Repository
	Parts     *inventoryrepo.Repository
	Ledger    *financerepo.Repository
	DB        *database.Connections
	Locker    lock.Locker
	Gateway   payment.Gateway
	Cache     cache.Store
	Publisher *event.Publisher
	Metrics   *observability.Metrics
	Validator *validation.Validator
	Logger    *zap.Logger
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return newService(deps{
		Sales: p.Sales, Parts: p.Parts, Ledger: p.Ledger, Tx: p.DB, Locker: p.Locker, Gateway: p.Gateway,
		Cache: p.Cache, Publisher: p.Publisher, Metrics: p.Metrics, Validator: p.Validator, Logger: p.Logger,
	})
}

type deps struct {
	Sales     saleStore
	Parts     stockStore
	Ledger    ledger
	Tx        txRunner
	Locker    lock.Locker
	Gateway   payment.Gateway
	Cache     cache.Store
	Publisher *event.Publisher
	Metrics   *observability.Metrics
	Validator *validation.Validator
	Logger    *zap.Logger
}

func newService(d deps) *Service {
	if d.Locker == nil {
		d.Locker = lock.NewLocal()
	}
	if d.Gateway == nil {
		d.Gateway = payment.NewMock()
	}
	if d.Cache == nil {
		d.Cache = cache.NewNoopStore()
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	return &Service{
		sales:     d.Sales,
		parts:     d.Parts,
		ledger:    d.Ledger,
		tx:        d.Tx,
		locker:    d.Locker,
		gateway:   d.Gateway,
		cache:     d.Cache,
		publisher: d.Publisher,
		metrics:   d.Metrics,
		validate:  d.Validator,
		logger:    d.Logger,
		now:       time.Now,
	}
}

// Checkout sells parts at the counter. Stock, the sale, its stock movements
// and the income entry are written in one transaction. Card and PIX sales are
// charged before it commits: a declined charge leaves nothing behind, and a
// charge whose sale fails to commit is reversed with the provider.
func (s *Service) Checkout(ctx context.Context, req dto.CheckoutRequest) (*dto.CheckoutResult, error) {
	ctx, span := serviceTracer.Start(ctx, "SaleService.Checkout")
	defer span.End()

	req.PaymentMethod = normalize.Upper(req.PaymentMethod)
	if err := s.validate.Validate(req); err != nil {
		return nil, err
	}
	if req.Discount.IsNegative() {
		return nil, errorbank.Validation(map[string]string{"discount": "must be zero or greater"})
	}
	method := entity.PaymentMethod(req.PaymentMethod)
	span.SetAttributes(attribute.String("sale.payment_method", string(method)))

	quantities := mergeItems(req.Items)
	ids := make([]int64, 0, len(quantities))
	for id := range quantities {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	catalog, err := s.parts.GetMany(ctx, nil, ids)
	if err != nil {
		return nil, s.translate(span, err, "failed to load parts")
	}
	sale := &entity.Sale{
		ClientID:       req.ClientID,
		ServiceOrderID: req.ServiceOrderID,
		Discount:       req.Discount.Round(2),
		PaymentMethod:  method,
		PaymentStatus:  entity.PaymentPaid,
		Items:          make([]entity.SaleItem, 0, len(ids)),
	}
	if method.NeedsGateway() {
		sale.PaymentStatus = entity.PaymentPending
	}
	subtotal := decimal.Zero
	for _, id := range ids {
		part, ok := catalog[id]
		if !ok {
			return nil, errorbank.NotFound(fmt.Sprintf("part %d not found", id), errorbank.WithDetail("partId", id))
		}
		line := part.Price.Mul(decimal.NewFromInt(int64(quantities[id]))).Round(2)
		sale.Items = append(sale.Items, entity.SaleItem{PartID: id, Quantity: quantities[id], UnitPrice: part.Price, Total: line})
		subtotal = subtotal.Add(line)
	}
	if sale.Discount.GreaterThan(subtotal) {
		return nil, errorbank.Validation(map[string]string{"discount": "must not exceed the subtotal"})
	}
	sale.Subtotal = subtotal
	sale.Total = subtotal.Sub(sale.Discount)

	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, lock.PartKey(id))
	}

	var (
		result  dto.CheckoutResult
		low     []entity.Part
		charged *payment.Result
	)
	err = s.locker.WithLocks(ctx, keys, func(ctx context.Context) error {
		return s.tx.RunInTx(ctx, func(ctx context.Context, tx bun.IDB) error {
			low = low[:0]
			if err := s.sales.Insert(ctx, tx, sale); err != nil {
				return err
			}
			reference := fmt.Sprintf("SALE-%d", sale.Number)

			for _, item := range sale.Items {
				part := catalog[item.PartID]
				previous, current, err := s.parts.Decrement(ctx, tx, item.PartID, item.Quantity)
				if errors.Is(err, inventoryrepo.ErrInsufficientStock) {
					return errorbank.Unprocessable(
						fmt.Sprintf("insufficient stock for %s", part.SKU),
						errorbank.WithDetail("partId", item.PartID),
						errorbank.WithDetail("requested", item.Quantity),
					)
				}
				if err != nil {
					return err
				}
				if err := s.parts.InsertMovement(ctx, tx, &entity.StockMovement{
					PartID:        item.PartID,
					Type:          entity.MovementOut,
					Quantity:      item.Quantity,
					PreviousStock: previous,
					NewStock:      current,
					Reason:        "counter sale",
					Reference:     &reference,
				}); err != nil {
					return err
				}
				part.Stock = current
				if part.IsLow() {
					low = append(low, part)
				}
			}

			if method.NeedsGateway() {
				res, err := s.gateway.Charge(ctx, payment.Charge{
					Reference:   event.SaleKey(sale.ID),
					Description: fmt.Sprintf("Venda #%d", sale.Number),
					Amount:      sale.Total,
					Method:      method,
					PayerEmail:  req.PayerEmail,
				})
				if err != nil {
					return chargeError(err)
				}
				charged = &res
				sale.PaymentStatus = res.Status
				sale.ProviderPaymentID = &res.ProviderID
				if err := s.sales.SetPayment(ctx, tx, sale.ID, sale.PaymentStatus, sale.ProviderPaymentID); err != nil {
					return err
				}
			}

			result = dto.CheckoutResult{
				SaleID:            sale.ID,
				SaleNumber:        sale.Number,
				Total:             sale.Total,
				PaymentStatus:     string(sale.PaymentStatus),
				ProviderPaymentID: sale.ProviderPaymentID,
			}
			if !sale.Total.IsPositive() {
				return nil
			}
			entry := &entity.Transaction{
				Date:           dto.DateOf(s.now()).Time,
				Description:    fmt.Sprintf("Venda #%d", sale.Number),
				Type:           entity.Income,
				Amount:         sale.Total,
				Status:         entity.TransactionPending,
				Category:       strPtr(saleCategory),
				ClientID:       sale.ClientID,
				ServiceOrderID: sale.ServiceOrderID,
			}
			if sale.PaymentStatus == entity.PaymentPaid {
				entry.Status = entity.TransactionPaid
			}
			if err := s.ledger.Create(ctx, tx, entry); err != nil {
				return err
			}
			result.TransactionID = entry.ID
			return nil
		})
	})
	if err != nil {
		if charged != nil {
			s.reverse(ctx, sale, *charged, err)
		}
		return nil, s.translate(span, err, "failed to complete sale")
	}
	span.SetAttributes(attribute.Int64("sale.id", result.SaleID), attribute.String("sale.total", result.Total.String()))

	s.publisher.Publish(ctx, event.SaleCompleted, event.SaleKey(sale.ID), event.SaleDone{
		SaleID:        sale.ID,
		Number:        sale.Number,
		Total:         sale.Total.StringFixed(2),
		PaymentMethod: string(method),
		Parts:         ids,
	})
	for _, p := range low {
		s.publisher.Publish(ctx, event.StockLow, event.PartKey(p.ID), event.PartLow{
			PartID: p.ID, SKU: p.SKU, Name: p.Name, Stock: p.Stock, MinStock: p.MinStock,
		})
	}
	if err := s.cache.DeletePrefix(ctx, cache.FinanceSummaryPrefix); err != nil {
		s.logger.Warn("finance summary cache invalidation failed", zap.Error(err))
	}
	s.metrics.SaleCompleted(ctx, string(method), sale.Total.InexactFloat64())
	s.metrics.StockLow(ctx, len(low))

	return &result, nil
}

// List returns sales, newest first.
func (s *Service) List(ctx context.Context, filter dto.SaleFilter) ([]dto.SaleRow, error) {
	ctx, span := serviceTracer.Start(ctx, "SaleService.List")
	defer span.End()

	switch {
	case filter.Limit <= 0:
		filter.Limit = defaultListLimit
	case filter.Limit > maxListLimit:
		filter.Limit = maxListLimit
	}
	rows, err := s.sales.List(ctx, filter)
	if err != nil {
		return nil, s.translate(span, err, "failed to list sales")
	}
	return rows, nil
}

// Get returns a sale with its items.
func (s *Service) Get(ctx context.Context, id int64) (*entity.Sale, error) {
	ctx, span := serviceTracer.Start(ctx, "SaleService.Get", trace.WithAttributes(attribute.Int64("sale.id", id)))
	defer span.End()

	sale, err := s.sales.GetByID(ctx, id)
	if err != nil {
		return nil, s.translate(span, err, "failed to load sale")
	}
	return sale, nil
}

// mergeItems sums quantities of repeated parts.
func mergeItems(items []dto.SaleItemRequest) map[int64]int {
	out := make(map[int64]int, len(items))
	for _, it := range items {
		out[it.PartID] += it.Quantity
	}
	return out
}

// reverse undoes a charge whose sale was rolled back. It runs detached from
// the request context so a cancelled client does not leave the charge standing.
func (s *Service) reverse(ctx context.Context, sale *entity.Sale, charged payment.Result, cause error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), reversalTimeout)
	defer cancel()

	fields := []zap.Field{
		zap.Int64("sale_number", sale.Number),
		zap.String("provider_payment_id", charged.ProviderID),
		zap.NamedError("sale_error", cause),
	}
	if err := s.gateway.Reverse(ctx, charged); err != nil {
		s.logger.Error("payment reversal failed; charge needs manual refund", append(fields, zap.Error(err))...)
		return
	}
	s.logger.Warn("payment reversed after failed sale", fields...)
}

func chargeError(err error) error {
	if errors.Is(err, payment.ErrRejected) {
		return errorbank.Unprocessable("payment was declined", errorbank.WithCause(err))
	}
	return errorbank.Internal("payment provider unavailable", errorbank.WithCause(err))
}

func strPtr(s string) *string { return &s }

func (s *Service) translate(span trace.Span, err error, message string) error {
	var appErr *errorbank.AppError
	switch {
	case errors.As(err, &appErr):
		span.SetStatus(codes.Error, string(appErr.Kind()))
		if appErr.Kind() == errorbank.KindInternal {
			s.logger.Error(message, zap.Error(err))
		}
		return appErr
	case errors.Is(err, repo.ErrNotFound):
		span.SetStatus(codes.Error, "not found")
		return errorbank.NotFound("sale not found")
	case database.IsForeignKeyViolation(err):
		span.SetStatus(codes.Error, "unknown reference")
		return errorbank.Unprocessable("referenced client or service order does not exist", errorbank.WithCause(err))
	case errors.Is(err, lock.ErrNotObtained):
		span.SetStatus(codes.Error, "locked")
		return errorbank.Conflict("stock is being updated, try again", errorbank.WithCause(err))
	default:
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		s.logger.Error(message, zap.Error(err))
		return errorbank.Internal(message, errorbank.WithCause(err))
	}
}
