package serviceorder

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

var repoTracer = otel.Tracer("github.com/Additional-Code/oficina/repository/serviceorder")

// ErrNotFound is returned when a service order is missing.
var ErrNotFound = errors.New("service order not found")

const orderSelect = `
SELECT so.id, so.number, so.status, so.entry_date, so.exit_date, so.km, so.fuel_level,
       so.mechanic, so.client_report, so.observations, so.created_at, so.updated_at,
       c.id AS client_id, c.name AS client_name, c.phone AS client_phone, c.email AS client_email,
       v.id AS vehicle_id, v.plate AS vehicle_plate, v.model AS vehicle_model,
       v.brand AS vehicle_brand, v.year AS vehicle_year
FROM service_orders so
JOIN clients c ON c.id = so.client_id
JOIN vehicles v ON v.id = so.vehicle_id`

// Repository encapsulates read/write access for service orders.
type Repository struct {
	writer *bun.DB
	reader *bun.DB
}

// NewRepository wires a repository backed by configured database connections.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{
		writer: conns.Writer,
		reader: conns.Reader,
	}
}

// Insert persists a new order. Number and entry date come from the database.
func (r *Repository) Insert(ctx context.Context, db bun.IDB, order *entity.ServiceOrder) error {
	ctx, span := repoTracer.Start(ctx, "ServiceOrderRepository.Insert", trace.WithAttributes(
		attribute.Int64("client.id", order.ClientID),
		attribute.Int64("vehicle.id", order.VehicleID),
	))
	defer span.End()

	if db == nil {
		db = r.writer
	}
	if _, err := db.NewInsert().Model(order).Returning("*").Exec(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return err
	}
	span.SetAttributes(attribute.Int64("order.number", order.Number))
	return nil
}

// List returns joined order rows, newest entry first.
func (r *Repository) List(ctx context.Context, filter dto.OrderFilter) ([]dto.OrderRow, error) {
	ctx, span := repoTracer.Start(ctx, "ServiceOrderRepository.List", trace.WithAttributes(attribute.Int("filter.limit", filter.Limit)))
	defer span.End()

	var (
		where []string
		args  []any
	)
	if len(filter.Statuses) > 0 {
		where = append(where, "so.status IN (?)")
		args = append(args, bun.In(filter.Statuses))
	}
	if filter.ClientID > 0 {
		where = append(where, "so.client_id = ?")
		args = append(args, filter.ClientID)
	}
	if filter.VehicleID > 0 {
		where = append(where, "so.vehicle_id = ?")
		args = append(args, filter.VehicleID)
	}
	if term := strings.TrimSpace(filter.Search); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		where = append(where, "(lower(c.name) LIKE ? OR lower(v.plate) LIKE ? OR so.number::text LIKE ?)")
		args = append(args, like, like, like)
	}

	query := orderSelect
	if len(where) > 0 {
		query += "\nWHERE " + strings.Join(where, " AND ")
	}
	query += "\nORDER BY so.entry_date DESC, so.id DESC"
	if filter.Limit > 0 {
		query += "\nLIMIT ?"
		args = append(args, filter.Limit)
	}

	rows := make([]dto.OrderRow, 0)
	if err := r.reader.NewRaw(query, args...).Scan(ctx, &rows); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return rows, nil
}

// GetByID returns one joined order row.
func (r *Repository) GetByID(ctx context.Context, id int64) (*dto.OrderRow, error) {
	ctx, span := repoTracer.Start(ctx, "ServiceOrderRepository.GetByID", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	rows := make([]dto.OrderRow, 0, 1)
	if err := r.reader.NewRaw(orderSelect+"\nWHERE so.id = ?", id).Scan(ctx, &rows); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	if len(rows) == 0 {
		span.SetStatus(codes.Error, "not found")
		return nil, ErrNotFound
	}
	return &rows[0], nil
}

// History returns every order of one vehicle, newest first.
func (r *Repository) History(ctx context.Context, vehicleID int64) ([]dto.OrderRow, error) {
	ctx, span := repoTracer.Start(ctx, "ServiceOrderRepository.History", trace.WithAttributes(attribute.Int64("vehicle.id", vehicleID)))
	defer span.End()

	rows := make([]dto.OrderRow, 0)
	err := r.reader.NewRaw(orderSelect+"\nWHERE so.vehicle_id = ?\nORDER BY so.entry_date DESC, so.id DESC", vehicleID).Scan(ctx, &rows)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return rows, nil
}

// Details holds the descriptive columns an update may touch. Nil fields are kept.
type Details struct {
	KM           *int
	FuelLevel    *string
	Mechanic     *string
	ClientReport *string
	Observations *string
}

// Empty reports whether no field is set.
func (d Details) Empty() bool {
	return d.KM == nil && d.FuelLevel == nil && d.Mechanic == nil && d.ClientReport == nil && d.Observations == nil
}

// UpdateDetails writes the non-nil fields of d.
func (r *Repository) UpdateDetails(ctx context.Context, id int64, d Details) error {
	ctx, span := repoTracer.Start(ctx, "ServiceOrderRepository.UpdateDetails", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	q := r.writer.NewUpdate().Table("service_orders").Set("updated_at = now()").Where("id = ?", id)
	if d.KM != nil {
		q = q.Set("km = ?", *d.KM)
	}
	if d.FuelLevel != nil {
		q = q.Set("fuel_level = ?", *d.FuelLevel)
	}
	if d.Mechanic != nil {
		q = q.Set("mechanic = ?", *d.Mechanic)
	}
	if d.ClientReport != nil {
		q = q.Set("client_report = ?", *d.ClientReport)
	}
	if d.Observations != nil {
		q = q.Set("observations = ?", *d.Observations)
	}

	res, err := q.Exec(ctx)
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

// StatusRow is the locked lifecycle state of one order.
type StatusRow struct {
	ID       int64              `bun:"id"`
	Number   int64              `bun:"number"`
	Status   entity.OrderStatus `bun:"status"`
	ClientID int64              `bun:"client_id"`
}

// LockStatus reads the current status and holds a row lock until db commits.
func (r *Repository) LockStatus(ctx context.Context, db bun.IDB, id int64) (StatusRow, error) {
	ctx, span := repoTracer.Start(ctx, "ServiceOrderRepository.LockStatus", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	if db == nil {
		db = r.writer
	}
	rows := make([]StatusRow, 0, 1)
	err := db.NewRaw(`SELECT id, number, status, client_id FROM service_orders WHERE id = ? FOR UPDATE`, id).Scan(ctx, &rows)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return StatusRow{}, err
	}
	if len(rows) == 0 {
		span.SetStatus(codes.Error, "not found")
		return StatusRow{}, ErrNotFound
	}
	return rows[0], nil
}

// SetStatus stores status. Reaching FINISHED stamps the exit date.
func (r *Repository) SetStatus(ctx context.Context, db bun.IDB, id int64, status entity.OrderStatus) error {
	ctx, span := repoTracer.Start(ctx, "ServiceOrderRepository.SetStatus", trace.WithAttributes(
		attribute.Int64("order.id", id),
		attribute.String("order.status", string(status)),
	))
	defer span.End()

	if db == nil {
		db = r.writer
	}
	_, err := db.NewRaw(`
		UPDATE service_orders
		SET status = ?,
		    exit_date = CASE WHEN ? = 'FINISHED' THEN now() ELSE exit_date END,
		    updated_at = now()
		WHERE id = ?`,
		string(status), string(status), id,
	).Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
	}
	return err
}
