package finance

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/uptrace/bun"
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
	"github.com/Additional-Code/oficina/internal/export"
	"github.com/Additional-Code/oficina/internal/normalize"
	repo "github.com/Additional-Code/oficina/internal/repository/finance"
	"github.com/Additional-Code/oficina/internal/validation"
	"github.com/Additional-Code/oficina/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/Additional-Code/oficina/service/finance")

const (
	defaultListLimit = 100
	maxListLimit     = 1000
	dateLayout       = "2006-01-02"
)

type ledger interface {
	Create(ctx context.Context, db bun.IDB, t *entity.Transaction) error
	Update(ctx context.Context, t *entity.Transaction) error
	GetByID(ctx context.Context, id int64) (*entity.Transaction, error)
	List(ctx context.Context, filter dto.TransactionFilter) ([]dto.TransactionRow, error)
	Overdue(ctx context.Context) ([]dto.TransactionRow, error)
	Summary(ctx context.Context, from, to time.Time) (dto.FinanceSummary, error)
	CostCenters(ctx context.Context) ([]entity.CostCenter, error)
	CreateCostCenter(ctx context.Context, cc *entity.CostCenter) error
}

// Service records income and expenses and reports on them.
type Service struct {
	ledger   ledger
	cache    cache.Store
	ttl      time.Duration
	validate *validation.Validator
	logger   *zap.Logger
	now      func() time.Time
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Ledger    *repo.Repository
	Cache     cache.Store
	Config    config.Config
	Validator *validation.Validator
	Logger    *zap.Logger
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return newService(p.Ledger, p.Cache, p.Config.Cache.DefaultTTL, p.Validator, p.Logger)
}

func newService(l ledger, store cache.Store, ttl time.Duration, v *validation.Validator, logger *zap.Logger) *Service {
	if store == nil {
		store = cache.NewNoopStore()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{ledger: l, cache: store, ttl: ttl, validate: v, logger: logger, now: time.Now}
}

// List returns entries matching the filter, newest first.
func (s *Service) List(ctx context.Context, filter dto.TransactionFilter) ([]dto.TransactionRow, error) {
	ctx, span := serviceTracer.Start(ctx, "FinanceService.List")
	defer span.End()

	filter.Type = normalize.Upper(filter.Type)
	filter.Status = normalize.Upper(filter.Status)
	if filter.Type != "" && !entity.TransactionType(filter.Type).Valid() {
		return nil, errorbank.Validation(map[string]string{"type": "must be one of INCOME EXPENSE"})
	}
	if filter.Status != "" && !entity.TransactionStatus(filter.Status).Valid() {
		return nil, errorbank.Validation(map[string]string{"status": "must be one of PAID PENDING CANCELLED"})
	}
	switch {
	case filter.Limit <= 0:
		filter.Limit = defaultListLimit
	case filter.Limit > maxListLimit:
		filter.Limit = maxListLimit
	}

	rows, err := s.ledger.List(ctx, filter)
	if err != nil {
		return nil, s.translate(span, err, "failed to list transactions")
	}
	return rows, nil
}

// Get returns one entry.
func (s *Service) Get(ctx context.Context, id int64) (*entity.Transaction, error) {
	ctx, span := serviceTracer.Start(ctx, "FinanceService.Get", trace.WithAttributes(attribute.Int64("transaction.id", id)))
	defer span.End()

	t, err := s.ledger.GetByID(ctx, id)
	if err != nil {
		return nil, s.translate(span, err, "failed to load transaction")
	}
	return t, nil
}

// Create records an entry. Status defaults to PENDING and date to today.
func (s *Service) Create(ctx context.Context, req dto.TransactionRequest) (*entity.Transaction, error) {
	ctx, span := serviceTracer.Start(ctx, "FinanceService.Create")
	defer span.End()

	t, err := s.fromRequest(req)
	if err != nil {
		return nil, err
	}
	if err := s.ledger.Create(ctx, nil, t); err != nil {
		return nil, s.translate(span, err, "failed to create transaction")
	}
	s.InvalidateSummaries(ctx)
	return t, nil
}

// Update overwrites an entry.
func (s *Service) Update(ctx context.Context, id int64, req dto.TransactionRequest) (*entity.Transaction, error) {
	ctx, span := serviceTracer.Start(ctx, "FinanceService.Update", trace.WithAttributes(attribute.Int64("transaction.id", id)))
	defer span.End()

	t, err := s.fromRequest(req)
	if err != nil {
		return nil, err
	}
	t.ID = id
	if err := s.ledger.Update(ctx, t); err != nil {
		return nil, s.translate(span, err, "failed to update transaction")
	}
	s.InvalidateSummaries(ctx)
	return t, nil
}

// Summary totals the period [from, to]. A zero bound defaults to the current month.
func (s *Service) Summary(ctx context.Context, from, to time.Time) (*dto.FinanceSummary, error) {
	ctx, span := serviceTracer.Start(ctx, "FinanceService.Summary")
	defer span.End()

	from, to, err := s.period(from, to)
	if err != nil {
		return nil, err
	}
	fromKey, toKey := from.Format(dateLayout), to.Format(dateLayout)
	key := cache.FinanceSummaryKey(fromKey, toKey)

	var cached dto.FinanceSummary
	hit, err := cache.GetJSON(ctx, s.cache, key, &cached)
	if err != nil {
		s.logger.Warn("finance summary cache read failed", zap.Error(err))
	}
	if hit {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return &cached, nil
	}

	summary, err := s.ledger.Summary(ctx, from, to)
	if err != nil {
		return nil, s.translate(span, err, "failed to compute finance summary")
	}
	summary.From, summary.To = fromKey, toKey

	if err := cache.SetJSON(ctx, s.cache, key, summary, s.ttl); err != nil {
		s.logger.Warn("finance summary cache write failed", zap.Error(err))
	}
	return &summary, nil
}

// Export writes the period summary and its entries as a workbook.
func (s *Service) Export(ctx context.Context, w io.Writer, from, to time.Time) error {
	ctx, span := serviceTracer.Start(ctx, "FinanceService.Export")
	defer span.End()

	start, end, err := s.period(from, to)
	if err != nil {
		return err
	}
	summary, err := s.Summary(ctx, start, end)
	if err != nil {
		return err
	}

	rows, err := s.ledger.List(ctx, dto.TransactionFilter{From: start, To: end})
	if err != nil {
		return s.translate(span, err, "failed to list transactions")
	}
	if err := export.Finance(w, *summary, rows); err != nil {
		return s.translate(span, err, "failed to export finance")
	}
	return nil
}

// Overdue returns pending entries past their due date.
func (s *Service) Overdue(ctx context.Context) ([]dto.TransactionRow, error) {
	ctx, span := serviceTracer.Start(ctx, "FinanceService.Overdue")
	defer span.End()

	rows, err := s.ledger.Overdue(ctx)
	if err != nil {
		return nil, s.translate(span, err, "failed to list overdue transactions")
	}
	span.SetAttributes(attribute.Int("transactions.overdue", len(rows)))
	return rows, nil
}

// CostCenters lists cost centers.
func (s *Service) CostCenters(ctx context.Context) ([]entity.CostCenter, error) {
	ctx, span := serviceTracer.Start(ctx, "FinanceService.CostCenters")
	defer span.End()

	centers, err := s.ledger.CostCenters(ctx)
	if err != nil {
		return nil, s.translate(span, err, "failed to list cost centers")
	}
	return centers, nil
}

// CreateCostCenter registers an active cost center.
func (s *Service) CreateCostCenter(ctx context.Context, req dto.CostCenterRequest) (*entity.CostCenter, error) {
	ctx, span := serviceTracer.Start(ctx, "FinanceService.CreateCostCenter")
	defer span.End()

	if err := s.validate.Validate(req); err != nil {
		return nil, err
	}
	cc := &entity.CostCenter{Name: strings.TrimSpace(req.Name), IsActive: true}
	if err := s.ledger.CreateCostCenter(ctx, cc); err != nil {
		return nil, s.translate(span, err, "failed to create cost center")
	}
	return cc, nil
}

// InvalidateSummaries drops every cached period summary.
func (s *Service) InvalidateSummaries(ctx context.Context) {
	if err := s.cache.DeletePrefix(ctx, cache.FinanceSummaryPrefix); err != nil {
		s.logger.Warn("finance summary cache invalidation failed", zap.Error(err))
	}
}

func (s *Service) period(from, to time.Time) (time.Time, time.Time, error) {
	now := s.now().UTC()
	if from.IsZero() {
		from = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	}
	if to.IsZero() {
		to = from.AddDate(0, 1, -1)
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, errorbank.Validation(map[string]string{"to": "must not be before from"})
	}
	return from, to, nil
}

func (s *Service) fromRequest(req dto.TransactionRequest) (*entity.Transaction, error) {
	req.Type = normalize.Upper(req.Type)
	req.Status = normalize.Upper(req.Status)
	if err := s.validate.Validate(req); err != nil {
		return nil, err
	}
	if !req.Amount.IsPositive() {
		return nil, errorbank.Validation(map[string]string{"amount": "must be greater than zero"})
	}

	status := entity.TransactionStatus(req.Status)
	if status == "" {
		status = entity.TransactionPending
	}
	date := req.Date
	if date.IsZero() {
		date = dto.DateOf(s.now())
	}
	return &entity.Transaction{
		Date:           date.Time,
		Description:    strings.TrimSpace(req.Description),
		Type:           entity.TransactionType(req.Type),
		Amount:         req.Amount.Round(2),
		Status:         status,
		DueDate:        req.DueDate.Ptr(),
		Category:       normalize.Optional(req.Category),
		ClientID:       req.ClientID,
		ServiceOrderID: req.ServiceOrderID,
		CostCenterID:   req.CostCenterID,
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
		return errorbank.NotFound("transaction not found")
	case database.IsUniqueViolation(err):
		span.SetStatus(codes.Error, "conflict")
		return errorbank.Conflict("a cost center with this name already exists",
			errorbank.WithField("name", "already registered"), errorbank.WithCause(err))
	case database.IsForeignKeyViolation(err):
		span.SetStatus(codes.Error, "unknown reference")
		return errorbank.Unprocessable("referenced client, order or cost center does not exist", errorbank.WithCause(err))
	default:
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		s.logger.Error(message, zap.Error(err))
		return errorbank.Internal(message, errorbank.WithCause(err))
	}
}
