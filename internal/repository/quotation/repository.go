package quotation

import (
	"context"
	"errors"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/oficina/internal/database"
	"github.com/Additional-Code/oficina/internal/dto"
	"github.com/Additional-Code/oficina/internal/entity"
)

var repoTracer = otel.Tracer("github.com/Additional-Code/oficina/repository/quotation")

// ErrNotFound is returned when a quotation is missing.
var ErrNotFound = errors.New("quotation not found")

// Repository encapsulates read/write access for quotations and their items.
type Repository struct {
	writer *bun.DB
	reader *bun.DB
}

// NewRepository wires a repository backed by configured database connections.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{writer: conns.Writer, reader: conns.Reader}
}

// Create inserts q and its items through db.
func (r *Repository) Create(ctx context.Context, db bun.IDB, q *entity.Quotation) error {
	ctx, span := repoTracer.Start(ctx, "QuotationRepository.Create", trace.WithAttributes(attribute.Int("quotation.items", len(q.Items))))
	defer span.End()

	if db == nil {
		db = r.writer
	}
	if _, err := db.NewInsert().Model(q).Returning("*").Exec(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return err
	}
	if len(q.Items) == 0 {
		return nil
	}
	for i := range q.Items {
		q.Items[i].QuotationID = q.ID
	}
	if _, err := db.NewInsert().Model(&q.Items).Returning("*").Exec(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert items failed")
		return err
	}
	return nil
}

// GetByID fetches a quotation with its items.
func (r *Repository) GetByID(ctx context.Context, id int64) (*entity.Quotation, error) {
	ctx, span := repoTracer.Start(ctx, "QuotationRepository.GetByID", trace.WithAttributes(attribute.Int64("quotation.id", id)))
	defer span.End()

	q := new(entity.Quotation)
	err := r.reader.NewSelect().
		Model(q).
		Relation("Items", func(sq *bun.SelectQuery) *bun.SelectQuery {
			return sq.OrderExpr("qi.id ASC")
		}).
		Where("q.id = ?", id).
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
	return q, nil
}

// List returns quotations with their items, newest first.
func (r *Repository) List(ctx context.Context, filter dto.QuotationFilter) ([]entity.Quotation, error) {
	ctx, span := repoTracer.Start(ctx, "QuotationRepository.List")
	defer span.End()

	quotations := make([]entity.Quotation, 0)
	q := r.reader.NewSelect().
		Model(&quotations).
		Relation("Items", func(sq *bun.SelectQuery) *bun.SelectQuery {
			return sq.OrderExpr("qi.id ASC")
		}).
		OrderExpr("q.created_at DESC, q.id DESC")
	if filter.ServiceOrderID > 0 {
		q = q.Where("q.service_order_id = ?", filter.ServiceOrderID)
	}
	if filter.ClientID > 0 {
		q = q.Where("q.client_id = ?", filter.ClientID)
	}
	if filter.Status != "" {
		q = q.Where("q.status = ?", filter.Status)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if err := q.Scan(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return quotations, nil
}

// Lock reads a quotation header and holds a row lock until db commits.
func (r *Repository) Lock(ctx context.Context, db bun.IDB, id int64) (*entity.Quotation, error) {
	ctx, span := repoTracer.Start(ctx, "QuotationRepository.Lock", trace.WithAttributes(attribute.Int64("quotation.id", id)))
	defer span.End()

	q := new(entity.Quotation)
	err := db.NewSelect().Model(q).Where("q.id = ?", id).For("UPDATE").Scan(ctx)
	if database.IsNoRows(err) {
		span.SetStatus(codes.Error, "not found")
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return q, nil
}

// SetStatus stores the quotation status.
func (r *Repository) SetStatus(ctx context.Context, db bun.IDB, id int64, status entity.QuotationStatus) error {
	ctx, span := repoTracer.Start(ctx, "QuotationRepository.SetStatus", trace.WithAttributes(
		attribute.Int64("quotation.id", id),
		attribute.String("quotation.status", string(status)),
	))
	defer span.End()

	_, err := db.NewUpdate().
		Table("quotations").
		Set("status = ?", string(status)).
		Set("updated_at = now()").
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
	}
	return err
}
