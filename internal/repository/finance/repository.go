package finance

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/oficina/internal/database"
	"github.com/Additional-Code/oficina/internal/dto"
	"github.com/Additional-Code/oficina/internal/entity"
)

var repoTracer = otel.Tracer("github.com/Additional-Code/oficina/repository/finance")

// ErrNotFound is returned when a transaction is missing.
var ErrNotFound = errors.New("transaction not found")

const transactionSelect = `
SELECT ft.id, ft.date, ft.description, ft.type, ft.amount, ft.status, ft.due_date, ft.category,
       ft.client_id, c.name AS client_name,
       ft.service_order_id, so.number AS order_number,
       ft.cost_center_id, cc.name AS cost_center_name
FROM finance_transactions ft
LEFT JOIN clients c ON c.id = ft.client_id
LEFT JOIN service_orders so ON so.id = ft.service_order_id
LEFT JOIN cost_centers cc ON cc.id = ft.cost_center_id`

const summarySelect = `
SELECT COALESCE(SUM(amount) FILTER (WHERE type = 'INCOME' AND status = 'PAID'), 0) AS income,
       COALESCE(SUM(amount) FILTER (WHERE type = 'EXPENSE' AND status = 'PAID'), 0) AS expense,
       COALESCE(SUM(amount) FILTER (WHERE type = 'INCOME' AND status = 'PENDING'), 0) AS pending_income,
       COALESCE(SUM(amount) FILTER (WHERE type = 'EXPENSE' AND status = 'PENDING'), 0) AS pending_expense,
       COUNT(*) FILTER (WHERE status = 'PENDING' AND due_date < CURRENT_DATE) AS overdue_count
FROM finance_transactions
WHERE date >= ?::date AND date <= ?::date`

// Repository encapsulates read/write access for finance entries and cost centers.
type Repository struct {
	writer *bun.DB
	reader *bun.DB
}

// NewRepository wires a repository backed by configured database connections.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{writer: conns.Writer, reader: conns.Reader}
}

// Create inserts a transaction through db, or the writer when db is nil.
func (r *Repository) Create(ctx context.Context, db bun.IDB, t *entity.Transaction) error {
	ctx, span := repoTracer.Start(ctx, "FinanceRepository.Create", trace.WithAttributes(
		attribute.String("transaction.type", string(t.Type)),
		attribute.String("transaction.amount", t.Amount.String()),
	))
	defer span.End()

	if db == nil {
		db = r.writer
	}
	if _, err := db.NewInsert().Model(t).Returning("*").Exec(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return err
	}
	return nil
}

// Update overwrites every editable column of t.
func (r *Repository) Update(ctx context.Context, t *entity.Transaction) error {
	ctx, span := repoTracer.Start(ctx, "FinanceRepository.Update", trace.WithAttributes(attribute.Int64("transaction.id", t.ID)))
	defer span.End()

	t.UpdatedAt = time.Now().UTC()
	res, err := r.writer.NewUpdate().
		Model(t).
		Column("date", "description", "type", "amount", "status", "due_date", "category",
			"client_id", "service_order_id", "cost_center_id", "updated_at").
		WherePK().
		Returning("*").
		Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByID fetches one transaction.
func (r *Repository) GetByID(ctx context.Context, id int64) (*entity.Transaction, error) {
	ctx, span := repoTracer.Start(ctx, "FinanceRepository.GetByID", trace.WithAttributes(attribute.Int64("transaction.id", id)))
	defer span.End()

	t := new(entity.Transaction)
	err := r.reader.NewSelect().Model(t).Where("ft.id = ?", id).Scan(ctx)
	if database.IsNoRows(err) {
		span.SetStatus(codes.Error, "not found")
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return t, nil
}

// List returns entries with related names, newest date first.
func (r *Repository) List(ctx context.Context, filter dto.TransactionFilter) ([]dto.TransactionRow, error) {
	ctx, span := repoTracer.Start(ctx, "FinanceRepository.List")
	defer span.End()

	var (
		where []string
		args  []any
	)
	if filter.Type != "" {
		where = append(where, "ft.type = ?")
		args = append(args, filter.Type)
	}
	if filter.Status != "" {
		where = append(where, "ft.status = ?")
		args = append(args, filter.Status)
	}
	if !filter.From.IsZero() {
		where = append(where, "ft.date >= ?::date")
		args = append(args, filter.From.Format("2006-01-02"))
	}
	if !filter.To.IsZero() {
		where = append(where, "ft.date <= ?::date")
		args = append(args, filter.To.Format("2006-01-02"))
	}
	return r.selectRows(ctx, span, where, args, "ft.date DESC, ft.id DESC", filter.Limit)
}

// Overdue returns pending entries whose due date is before today.
func (r *Repository) Overdue(ctx context.Context) ([]dto.TransactionRow, error) {
	ctx, span := repoTracer.Start(ctx, "FinanceRepository.Overdue")
	defer span.End()

	return r.selectRows(ctx, span,
		[]string{"ft.status = 'PENDING'", "ft.due_date < CURRENT_DATE"}, nil,
		"ft.due_date ASC, ft.id ASC", 0)
}

func (r *Repository) selectRows(ctx context.Context, span trace.Span, where []string, args []any, order string, limit int) ([]dto.TransactionRow, error) {
	query := transactionSelect
	if len(where) > 0 {
		query += "\nWHERE " + strings.Join(where, " AND ")
	}
	query += "\nORDER BY " + order
	if limit > 0 {
		query += "\nLIMIT ?"
		args = append(args, limit)
	}

	rows := make([]dto.TransactionRow, 0)
	if err := r.reader.NewRaw(query, args...).Scan(ctx, &rows); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return rows, nil
}

// Summary totals paid and pending entries dated within [from, to].
func (r *Repository) Summary(ctx context.Context, from, to time.Time) (dto.FinanceSummary, error) {
	ctx, span := repoTracer.Start(ctx, "FinanceRepository.Summary")
	defer span.End()

	var summary dto.FinanceSummary
	err := r.reader.NewRaw(summarySelect, from.Format("2006-01-02"), to.Format("2006-01-02")).Scan(ctx, &summary)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return dto.FinanceSummary{}, err
	}
	summary.Balance = summary.Income.Sub(summary.Expense)
	return summary, nil
}

// CostCenters lists cost centers by name.
func (r *Repository) CostCenters(ctx context.Context) ([]entity.CostCenter, error) {
	ctx, span := repoTracer.Start(ctx, "FinanceRepository.CostCenters")
	defer span.End()

	centers := make([]entity.CostCenter, 0)
	if err := r.reader.NewSelect().Model(&centers).OrderExpr("cc.name ASC").Scan(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return centers, nil
}

// CreateCostCenter inserts a cost center.
func (r *Repository) CreateCostCenter(ctx context.Context, cc *entity.CostCenter) error {
	ctx, span := repoTracer.Start(ctx, "FinanceRepository.CreateCostCenter")
	defer span.End()

	if _, err := r.writer.NewInsert().Model(cc).Returning("*").Exec(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return err
	}
	return nil
}
