package user

import (
	"context"
	"errors"
	"time"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/oficina/internal/database"
	"github.com/Additional-Code/oficina/internal/entity"
)

var repoTracer = otel.Tracer("github.com/Additional-Code/oficina/repository/user")

// ErrNotFound is returned when a user is missing.
var ErrNotFound = errors.New("user not found")

// Repository encapsulates read/write access for staff users.
type Repository struct {
	writer *bun.DB
	reader *bun.DB
}

// NewRepository wires a repository backed by configured database connections.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{writer: conns.Writer, reader: conns.Reader}
}

// Create inserts a user.
func (r *Repository) Create(ctx context.Context, u *entity.User) error {
	ctx, span := repoTracer.Start(ctx, "UserRepository.Create", trace.WithAttributes(attribute.String("user.role", string(u.Role))))
	defer span.End()

	if _, err := r.writer.NewInsert().Model(u).Returning("*").Exec(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return err
	}
	return nil
}

// Update overwrites every mutable column of u.
func (r *Repository) Update(ctx context.Context, u *entity.User) error {
	ctx, span := repoTracer.Start(ctx, "UserRepository.Update", trace.WithAttributes(attribute.Int64("user.id", u.ID)))
	defer span.End()

	u.UpdatedAt = time.Now().UTC()
	res, err := r.writer.NewUpdate().
		Model(u).
		Column("name", "email", "role", "password_hash", "is_active", "updated_at").
		WherePK().
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

// GetByID fetches a user by primary key.
func (r *Repository) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	ctx, span := repoTracer.Start(ctx, "UserRepository.GetByID", trace.WithAttributes(attribute.Int64("user.id", id)))
	defer span.End()

	u := new(entity.User)
	err := r.reader.NewSelect().Model(u).Where("u.id = ?", id).Scan(ctx)
	if database.IsNoRows(err) {
		span.SetStatus(codes.Error, "not found")
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return u, nil
}

// List returns users ordered by name. An empty role lists everyone.
func (r *Repository) List(ctx context.Context, role entity.Role, activeOnly bool) ([]entity.User, error) {
	ctx, span := repoTracer.Start(ctx, "UserRepository.List", trace.WithAttributes(attribute.String("user.role", string(role))))
	defer span.End()

	users := make([]entity.User, 0)
	q := r.reader.NewSelect().Model(&users).OrderExpr("lower(u.name) ASC")
	if role != "" {
		q = q.Where("u.role = ?", string(role))
	}
	if activeOnly {
		q = q.Where("u.is_active")
	}
	if err := q.Scan(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return users, nil
}
