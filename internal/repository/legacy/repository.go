package legacy

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
	"github.com/Additional-Code/oficina/internal/entity"
)

var repoTracer = otel.Tracer("github.com/Additional-Code/oficina/repository/legacy")

// ErrNotFound is returned when a legacy order is missing.
var ErrNotFound = errors.New("legacy order not found")

// Repository encapsulates access to migrated paper orders.
type Repository struct {
	writer *bun.DB
	reader *bun.DB
}

// NewRepository wires a repository backed by configured database connections.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{writer: conns.Writer, reader: conns.Reader}
}

// Create inserts a legacy order.
func (r *Repository) Create(ctx context.Context, o *entity.LegacyOrder) error {
	ctx, span := repoTracer.Start(ctx, "LegacyRepository.Create", trace.WithAttributes(attribute.String("legacy.number", o.LegacyNumber)))
	defer span.End()

	if _, err := r.writer.NewInsert().Model(o).Returning("*").Exec(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return err
	}
	return nil
}

// GetByID fetches one legacy order.
func (r *Repository) GetByID(ctx context.Context, id int64) (*entity.LegacyOrder, error) {
	ctx, span := repoTracer.Start(ctx, "LegacyRepository.GetByID", trace.WithAttributes(attribute.Int64("legacy.id", id)))
	defer span.End()

	o := new(entity.LegacyOrder)
	err := r.reader.NewSelect().Model(o).Where("lo.id = ?", id).Scan(ctx)
	if database.IsNoRows(err) {
		span.SetStatus(codes.Error, "not found")
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return o, nil
}

// List returns legacy orders, most recent service first, matching search
// against number, client name and plate.
func (r *Repository) List(ctx context.Context, search string, limit int) ([]entity.LegacyOrder, error) {
	ctx, span := repoTracer.Start(ctx, "LegacyRepository.List")
	defer span.End()

	orders := make([]entity.LegacyOrder, 0)
	q := r.reader.NewSelect().Model(&orders).OrderExpr("lo.service_date DESC NULLS LAST, lo.id DESC")
	if term := strings.TrimSpace(search); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		q = q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("lower(lo.legacy_number) LIKE ?", like).
				WhereOr("lower(lo.client_name) LIKE ?", like).
				WhereOr("lower(lo.vehicle_plate) LIKE ?", like)
		})
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return orders, nil
}
