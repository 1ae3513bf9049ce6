package supplier

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

var repoTracer = otel.Tracer("github.com/Additional-Code/oficina/repository/supplier")

// ErrNotFound is returned when a supplier is missing.
var ErrNotFound = errors.New("supplier not found")

// Repository encapsulates read/write access for suppliers.
type Repository struct {
	writer *bun.DB
	reader *bun.DB
}

// NewRepository wires a repository backed by configured database connections.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{writer: conns.Writer, reader: conns.Reader}
}

// Create inserts a supplier.
func (r *Repository) Create(ctx context.Context, s *entity.Supplier) error {
	ctx, span := repoTracer.Start(ctx, "SupplierRepository.Create")
	defer span.End()

	if _, err := r.writer.NewInsert().Model(s).Returning("*").Exec(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return err
	}
	return nil
}

// Update overwrites the descriptive columns of s. The active flag is left alone.
func (r *Repository) Update(ctx context.Context, s *entity.Supplier) error {
	ctx, span := repoTracer.Start(ctx, "SupplierRepository.Update", trace.WithAttributes(attribute.Int64("supplier.id", s.ID)))
	defer span.End()

	s.UpdatedAt = time.Now().UTC()
	res, err := r.writer.NewUpdate().
		Model(s).
		Column("name", "type", "document", "contact_name", "phone", "email", "address", "notes", "updated_at").
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

// SetActive toggles the supplier.
func (r *Repository) SetActive(ctx context.Context, id int64, active bool) error {
	ctx, span := repoTracer.Start(ctx, "SupplierRepository.SetActive", trace.WithAttributes(
		attribute.Int64("supplier.id", id),
		attribute.Bool("supplier.active", active),
	))
	defer span.End()

	res, err := r.writer.NewUpdate().
		Table("suppliers").
		Set("is_active = ?", active).
		Set("updated_at = now()").
		Where("id = ?", id).
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

// GetByID fetches a supplier by primary key.
func (r *Repository) GetByID(ctx context.Context, id int64) (*entity.Supplier, error) {
	ctx, span := repoTracer.Start(ctx, "SupplierRepository.GetByID", trace.WithAttributes(attribute.Int64("supplier.id", id)))
	defer span.End()

	s := new(entity.Supplier)
	err := r.reader.NewSelect().Model(s).Where("sup.id = ?", id).Scan(ctx)
	if database.IsNoRows(err) {
		span.SetStatus(codes.Error, "not found")
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return s, nil
}

// List returns suppliers ordered by name.
func (r *Repository) List(ctx context.Context, filter dto.SupplierFilter) ([]entity.Supplier, error) {
	ctx, span := repoTracer.Start(ctx, "SupplierRepository.List")
	defer span.End()

	suppliers := make([]entity.Supplier, 0)
	q := r.reader.NewSelect().Model(&suppliers).OrderExpr("lower(sup.name) ASC")
	if filter.Type != "" {
		q = q.Where("sup.type = ?", filter.Type)
	}
	if filter.Active != nil {
		q = q.Where("sup.is_active = ?", *filter.Active)
	}
	if term := strings.TrimSpace(filter.Search); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		q = q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("lower(sup.name) LIKE ?", like).WhereOr("lower(sup.contact_name) LIKE ?", like)
		})
	}
	if err := q.Scan(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return suppliers, nil
}
