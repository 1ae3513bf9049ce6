package pos

import (
	"context"
	"errors"
	"strings"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/oficina/internal/database"
	"github.com/Additional-Code/oficina/internal/dto"
	"github.com/Additional-Code/oficina/internal/entity"
)

var repoTracer = otel.Tracer("github.com/Additional-Code/oficina/repository/pos")

// ErrNotFound is returned when a sale is missing.
var ErrNotFound = errors.New("sale not found")

const saleSelect = `
SELECT s.id, s.number, s.client_id, c.name AS client_name, s.service_order_id,
       s.subtotal, s.discount, s.total, s.payment_method, s.payment_status,
       s.provider_payment_id, s.created_at,
       (SELECT COUNT(*) FROM sale_items si WHERE si.sale_id = s.id) AS item_count
FROM sales s
LEFT JOIN clients c ON c.id = s.client_id`

// Repository encapsulates read/write access for counter sales.
type Repository struct {
	writer *bun.DB
	reader *bun.DB
}

// NewRepository wires a repository backed by configured database connections.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{writer: conns.Writer, reader: conns.Reader}
}

// Insert persists the sale header and its items through db. The sale number
// comes from the database sequence.
func (r *Repository) Insert(ctx context.Context, db bun.IDB, sale *entity.Sale) error {
	ctx, span := repoTracer.Start(ctx, "SaleRepository.Insert", trace.WithAttributes(
		attribute.String("sale.total", sale.Total.String()),
		attribute.String("sale.payment_method", string(sale.PaymentMethod)),
	))
	defer span.End()

	if _, err := db.NewInsert().Model(sale).Returning("*").Exec(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return err
	}
	for i := range sale.Items {
		sale.Items[i].SaleID = sale.ID
	}
	if len(sale.Items) > 0 {
		if _, err := db.NewInsert().Model(&sale.Items).Returning("*").Exec(ctx); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "insert items failed")
			return err
		}
	}
	span.SetAttributes(attribute.Int64("sale.number", sale.Number))
	return nil
}

// SetPayment records the gateway outcome on a sale.
func (r *Repository) SetPayment(ctx context.Context, db bun.IDB, id int64, status entity.PaymentStatus, providerID *string) error {
	ctx, span := repoTracer.Start(ctx, "SaleRepository.SetPayment", trace.WithAttributes(
		attribute.Int64("sale.id", id),
		attribute.String("sale.payment_status", string(status)),
	))
	defer span.End()

	_, err := db.NewUpdate().
		Table("sales").
		Set("payment_status = ?", string(status)).
		Set("provider_payment_id = ?", providerID).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
	}
	return err
}

// GetByID fetches a sale with its items.
func (r *Repository) GetByID(ctx context.Context, id int64) (*entity.Sale, error) {
	ctx, span := repoTracer.Start(ctx, "SaleRepository.GetByID", trace.WithAttributes(attribute.Int64("sale.id", id)))
	defer span.End()

	sale := new(entity.Sale)
	err := r.reader.NewSelect().
		Model(sale).
		Relation("Items", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.OrderExpr("si.id ASC")
		}).
		Where("s.id = ?", id).
		Scan(ctx)
	if database.IsNoRows(err) {
		span.SetStatus(codes.Error, "not found")
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return sale, nil
}

// List returns sale rows, newest first.
func (r *Repository) List(ctx context.Context, filter dto.SaleFilter) ([]dto.SaleRow, error) {
	ctx, span := repoTracer.Start(ctx, "SaleRepository.List")
	defer span.End()

	var (
		where []string
		args  []any
	)
	if !filter.From.IsZero() {
		where = append(where, "s.created_at >= ?")
		args = append(args, filter.From)
	}
	if !filter.To.IsZero() {
		where = append(where, "s.created_at < ?")
		args = append(args, filter.To)
	}

	query := saleSelect
	if len(where) > 0 {
		query += "\nWHERE " + strings.Join(where, " AND ")
	}
	query += "\nORDER BY s.created_at DESC, s.id DESC"
	if filter.Limit > 0 {
		query += "\nLIMIT ?"
		args = append(args, filter.Limit)
	}

	rows := make([]dto.SaleRow, 0)
	if err := r.reader.NewRaw(query, args...).Scan(ctx, &rows); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return rows, nil
}
