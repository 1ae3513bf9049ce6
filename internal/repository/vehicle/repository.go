package vehicle

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

var repoTracer = otel.Tracer("github.com/Additional-Code/oficina/repository/vehicle")

// ErrNotFound is returned when a vehicle is missing.
var ErrNotFound = errors.New("vehicle not found")

// Repository encapsulates read/write access for vehicles.
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

// UpsertByPlate inserts v or, when the plate already exists, overwrites its
// model, brand, year, vin and owner. It returns the row id either way.
func (r *Repository) UpsertByPlate(ctx context.Context, db bun.IDB, v *entity.Vehicle) (int64, error) {
	ctx, span := repoTracer.Start(ctx, "VehicleRepository.UpsertByPlate", trace.WithAttributes(attribute.String("vehicle.plate", v.Plate)))
	defer span.End()

	if db == nil {
		db = r.writer
	}

	var ids []int64
	err := db.NewRaw(`
		INSERT INTO vehicles (plate, vin, model, brand, year, client_id)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (plate) DO UPDATE
		SET model = EXCLUDED.model,
		    brand = EXCLUDED.brand,
		    year = EXCLUDED.year,
		    vin = EXCLUDED.vin,
		    client_id = EXCLUDED.client_id,
		    updated_at = now()
		RETURNING id`,
		v.Plate, v.VIN, v.Model, v.Brand, v.Year, v.ClientID,
	).Scan(ctx, &ids)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "upsert failed")
		return 0, err
	}
	if len(ids) == 0 {
		return 0, errors.New("vehicle upsert returned no id")
	}
	v.ID = ids[0]
	return v.ID, nil
}

// Create inserts a vehicle.
func (r *Repository) Create(ctx context.Context, v *entity.Vehicle) error {
	ctx, span := repoTracer.Start(ctx, "VehicleRepository.Create", trace.WithAttributes(attribute.String("vehicle.plate", v.Plate)))
	defer span.End()

	_, err := r.writer.NewInsert().Model(v).Returning("*").Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
	}
	return err
}

// Update overwrites the editable columns of v, including its owner.
func (r *Repository) Update(ctx context.Context, v *entity.Vehicle) error {
	ctx, span := repoTracer.Start(ctx, "VehicleRepository.Update", trace.WithAttributes(attribute.Int64("vehicle.id", v.ID)))
	defer span.End()

	v.UpdatedAt = time.Now().UTC()
	res, err := r.writer.NewUpdate().
		Model(v).
		Column("plate", "vin", "model", "brand", "year", "client_id", "updated_at").
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

// GetByID fetches a vehicle by primary key.
func (r *Repository) GetByID(ctx context.Context, id int64) (*entity.Vehicle, error) {
	ctx, span := repoTracer.Start(ctx, "VehicleRepository.GetByID", trace.WithAttributes(attribute.Int64("vehicle.id", id)))
	defer span.End()

	return r.getOne(ctx, span, "v.id = ?", id)
}

// GetByPlate fetches a vehicle by its normalised plate.
func (r *Repository) GetByPlate(ctx context.Context, plate string) (*entity.Vehicle, error) {
	ctx, span := repoTracer.Start(ctx, "VehicleRepository.GetByPlate", trace.WithAttributes(attribute.String("vehicle.plate", plate)))
	defer span.End()

	return r.getOne(ctx, span, "v.plate = ?", plate)
}

func (r *Repository) getOne(ctx context.Context, span trace.Span, where string, arg any) (*entity.Vehicle, error) {
	v := new(entity.Vehicle)
	err := r.reader.NewSelect().Model(v).Where(where, arg).Scan(ctx)
	if database.IsNoRows(err) {
		span.SetStatus(codes.Error, "not found")
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return v, nil
}

// List returns vehicles ordered by plate.
func (r *Repository) List(ctx context.Context, filter dto.VehicleFilter) ([]entity.Vehicle, error) {
	ctx, span := repoTracer.Start(ctx, "VehicleRepository.List", trace.WithAttributes(attribute.Int64("client.id", filter.ClientID)))
	defer span.End()

	vehicles := make([]entity.Vehicle, 0)
	q := r.reader.NewSelect().Model(&vehicles).OrderExpr("v.plate ASC")
	if filter.ClientID > 0 {
		q = q.Where("v.client_id = ?", filter.ClientID)
	}
	if term := strings.TrimSpace(filter.Search); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		q = q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("lower(v.plate) LIKE ?", like).
				WhereOr("lower(v.model) LIKE ?", like).
				WhereOr("lower(v.brand) LIKE ?", like)
		})
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if err := q.Scan(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return vehicles, nil
}
