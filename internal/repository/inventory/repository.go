package inventory

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

var repoTracer = otel.Tracer("github.com/Additional-Code/oficina/repository/inventory")

var (
	// ErrNotFound is returned when a part is missing.
	ErrNotFound = errors.New("part not found")
	// ErrInsufficientStock is returned when a decrement would go below zero.
	ErrInsufficientStock = errors.New("insufficient stock")
)

const partSelect = `
SELECT p.id, p.sku, p.name, p.category, p.unit, p.price, p.cost, p.stock, p.min_stock,
       p.supplier_id, sup.name AS supplier_name, (p.cost * p.stock) AS stock_value, p.updated_at
FROM parts p
LEFT JOIN suppliers sup ON sup.id = p.supplier_id`

// Repository encapsulates read/write access for parts and stock movements.
type Repository struct {
	writer *bun.DB
	reader *bun.DB
}

// NewRepository wires a repository backed by configured database connections.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{writer: conns.Writer, reader: conns.Reader}
}

// Create inserts a part with its opening stock.
func (r *Repository) Create(ctx context.Context, p *entity.Part) error {
	ctx, span := repoTracer.Start(ctx, "InventoryRepository.Create", trace.WithAttributes(attribute.String("part.sku", p.SKU)))
	defer span.End()

	if _, err := r.writer.NewInsert().Model(p).Returning("*").Exec(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return err
	}
	return nil
}

// Update overwrites everything but the stock, which only movements change.
func (r *Repository) Update(ctx context.Context, p *entity.Part) error {
	ctx, span := repoTracer.Start(ctx, "InventoryRepository.Update", trace.WithAttributes(attribute.Int64("part.id", p.ID)))
	defer span.End()

	p.UpdatedAt = time.Now().UTC()
	res, err := r.writer.NewUpdate().
		Model(p).
		Column("sku", "name", "price", "cost", "min_stock", "unit", "category", "supplier_id", "updated_at").
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

// GetByID fetches a part by primary key.
func (r *Repository) GetByID(ctx context.Context, id int64) (*entity.Part, error) {
	ctx, span := repoTracer.Start(ctx, "InventoryRepository.GetByID", trace.WithAttributes(attribute.Int64("part.id", id)))
	defer span.End()

	p := new(entity.Part)
	err := r.reader.NewSelect().Model(p).Where("p.id = ?", id).Scan(ctx)
	if database.IsNoRows(err) {
		span.SetStatus(codes.Error, "not found")
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return p, nil
}

// GetMany loads the parts with the given ids through db, keyed by id.
func (r *Repository) GetMany(ctx context.Context, db bun.IDB, ids []int64) (map[int64]entity.Part, error) {
	ctx, span := repoTracer.Start(ctx, "InventoryRepository.GetMany", trace.WithAttributes(attribute.Int("part.count", len(ids))))
	defer span.End()

	if db == nil {
		db = r.writer
	}
	parts := make([]entity.Part, 0, len(ids))
	if len(ids) > 0 {
		if err := db.NewSelect().Model(&parts).Where("p.id IN (?)", bun.In(ids)).Scan(ctx); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "select failed")
			return nil, err
		}
	}
	out := make(map[int64]entity.Part, len(parts))
	for _, p := range parts {
		out[p.ID] = p
	}
	return out, nil
}

// List returns parts with supplier names, ordered by name.
func (r *Repository) List(ctx context.Context, filter dto.PartFilter) ([]dto.PartStockRow, error) {
	ctx, span := repoTracer.Start(ctx, "InventoryRepository.List", trace.WithAttributes(attribute.Bool("filter.low_stock", filter.LowStock)))
	defer span.End()

	var (
		where []string
		args  []any
	)
	if term := strings.TrimSpace(filter.Search); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		where = append(where, "(lower(p.name) LIKE ? OR lower(p.sku) LIKE ?)")
		args = append(args, like, like)
	}
	if filter.Category != "" {
		where = append(where, "p.category = ?")
		args = append(args, filter.Category)
	}
	if filter.LowStock {
		where = append(where, "p.stock <= p.min_stock")
	}

	query := partSelect
	if len(where) > 0 {
		query += "\nWHERE " + strings.Join(where, " AND ")
	}
	query += "\nORDER BY lower(p.name) ASC, p.id ASC"
	if filter.Limit > 0 {
		query += "\nLIMIT ?"
		args = append(args, filter.Limit)
	}

	rows := make([]dto.PartStockRow, 0)
	if err := r.reader.NewRaw(query, args...).Scan(ctx, &rows); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return rows, nil
}

// Lock reads a part and holds a row lock until db commits.
func (r *Repository) Lock(ctx context.Context, db bun.IDB, id int64) (*entity.Part, error) {
	ctx, span := repoTracer.Start(ctx, "InventoryRepository.Lock", trace.WithAttributes(attribute.Int64("part.id", id)))
	defer span.End()

	p := new(entity.Part)
	err := db.NewSelect().Model(p).Where("p.id = ?", id).For("UPDATE").Scan(ctx)
	if database.IsNoRows(err) {
		span.SetStatus(codes.Error, "not found")
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return p, nil
}

// SetStock writes an absolute stock value.
func (r *Repository) SetStock(ctx context.Context, db bun.IDB, id int64, stock int) error {
	ctx, span := repoTracer.Start(ctx, "InventoryRepository.SetStock", trace.WithAttributes(
		attribute.Int64("part.id", id),
		attribute.Int("part.stock", stock),
	))
	defer span.End()

	_, err := db.NewUpdate().
		Table("parts").
		Set("stock = ?", stock).
		Set("updated_at = now()").
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
	}
	return err
}

// Decrement removes qty units in a single guarded statement and returns the
// stock before and after. ErrInsufficientStock means the guard failed.
func (r *Repository) Decrement(ctx context.Context, db bun.IDB, id int64, qty int) (previous, current int, err error) {
	ctx, span := repoTracer.Start(ctx, "InventoryRepository.Decrement", trace.WithAttributes(
		attribute.Int64("part.id", id),
		attribute.Int("quantity", qty),
	))
	defer span.End()

	var stock []int
	err = db.NewRaw(
		`UPDATE parts SET stock = stock - ?, updated_at = now() WHERE id = ? AND stock >= ? RETURNING stock`,
		qty, id, qty,
	).Scan(ctx, &stock)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return 0, 0, err
	}
	if len(stock) == 0 {
		span.SetStatus(codes.Error, "insufficient stock")
		return 0, 0, ErrInsufficientStock
	}
	return stock[0] + qty, stock[0], nil
}

// InsertMovement appends an audit row.
func (r *Repository) InsertMovement(ctx context.Context, db bun.IDB, m *entity.StockMovement) error {
	ctx, span := repoTracer.Start(ctx, "InventoryRepository.InsertMovement", trace.WithAttributes(
		attribute.Int64("part.id", m.PartID),
		attribute.String("movement.type", string(m.Type)),
	))
	defer span.End()

	if db == nil {
		db = r.writer
	}
	if _, err := db.NewInsert().Model(m).Returning("*").Exec(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return err
	}
	return nil
}

// Movements returns the movement history of a part, newest first.
func (r *Repository) Movements(ctx context.Context, partID int64, limit int) ([]entity.StockMovement, error) {
	ctx, span := repoTracer.Start(ctx, "InventoryRepository.Movements", trace.WithAttributes(attribute.Int64("part.id", partID)))
	defer span.End()

	movements := make([]entity.StockMovement, 0)
	q := r.reader.NewSelect().Model(&movements).Where("sm.part_id = ?", partID).OrderExpr("sm.created_at DESC, sm.id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return movements, nil
}
