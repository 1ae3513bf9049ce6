package client

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

var repoTracer = otel.Tracer("github.com/Additional-Code/oficina/repository/client")

// ErrNotFound is returned when a client is missing.
var ErrNotFound = errors.New("client not found")

// Repository encapsulates read/write access for clients.
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

func (r *Repository) conn(db bun.IDB) bun.IDB {
	if db == nil {
		return r.writer
	}
	return db
}

// Resolve returns the id of the client owning c.Phone or c.Document, updating its
// name, email and document, or inserts c when neither matches. A phone match wins
// over a document match. The stored phone is never rewritten, and the document is
// kept when another client already owns c.Document. The matching row is locked for
// the rest of the transaction. A concurrent insert of the same phone collapses onto
// the existing row through ON CONFLICT.
func (r *Repository) Resolve(ctx context.Context, db bun.IDB, c *entity.Client) (int64, error) {
	ctx, span := repoTracer.Start(ctx, "ClientRepository.Resolve", trace.WithAttributes(attribute.String("client.phone", c.Phone)))
	defer span.End()

	db = r.conn(db)

	var existing []int64
	err := db.NewRaw(
		`SELECT id FROM clients WHERE phone = ? OR document = ? ORDER BY (phone = ?) DESC, id LIMIT 1 FOR UPDATE`,
		c.Phone, c.Document, c.Phone,
	).Scan(ctx, &existing)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "lookup failed")
		return 0, err
	}

	if len(existing) > 0 {
		c.ID = existing[0]
		// A document already held by another client stays with that client.
		_, err = db.NewRaw(`
			UPDATE clients SET name = ?, email = ?, updated_at = now(),
				document = CASE
					WHEN EXISTS (SELECT 1 FROM clients other WHERE other.document = ? AND other.id <> ?) THEN document
					ELSE ?
				END
			WHERE id = ?`,
			c.Name, c.Email, c.Document, c.ID, c.Document, c.ID,
		).Exec(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "update failed")
			return 0, err
		}
		span.SetAttributes(attribute.Bool("client.created", false))
		return c.ID, nil
	}

	var ids []int64
	err = db.NewRaw(`
		INSERT INTO clients (name, email, phone, document)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (phone) DO UPDATE
		SET name = EXCLUDED.name, email = EXCLUDED.email, document = EXCLUDED.document, updated_at = now()
		RETURNING id`,
		c.Name, c.Email, c.Phone, c.Document,
	).Scan(ctx, &ids)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "upsert failed")
		return 0, err
	}
	if len(ids) == 0 {
		return 0, errors.New("client upsert returned no id")
	}
	c.ID = ids[0]
	span.SetAttributes(attribute.Bool("client.created", true))
	return c.ID, nil
}

// Create inserts a client.
func (r *Repository) Create(ctx context.Context, c *entity.Client) error {
	ctx, span := repoTracer.Start(ctx, "ClientRepository.Create")
	defer span.End()

	_, err := r.writer.NewInsert().Model(c).Returning("*").Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
	}
	return err
}

// Update overwrites the editable columns of c.
func (r *Repository) Update(ctx context.Context, c *entity.Client) error {
	ctx, span := repoTracer.Start(ctx, "ClientRepository.Update", trace.WithAttributes(attribute.Int64("client.id", c.ID)))
	defer span.End()

	c.UpdatedAt = time.Now().UTC()
	res, err := r.writer.NewUpdate().
		Model(c).
		Column("name", "email", "phone", "document", "updated_at").
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

// GetByID fetches a client by primary key using the read replica when available.
func (r *Repository) GetByID(ctx context.Context, id int64) (*entity.Client, error) {
	ctx, span := repoTracer.Start(ctx, "ClientRepository.GetByID", trace.WithAttributes(attribute.Int64("client.id", id)))
	defer span.End()

	c := new(entity.Client)
	err := r.reader.NewSelect().Model(c).Where("c.id = ?", id).Scan(ctx)
	if database.IsNoRows(err) {
		span.SetStatus(codes.Error, "not found")
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return c, nil
}

// List returns clients ordered by name, optionally matching a search term
// against name, phone or document.
func (r *Repository) List(ctx context.Context, filter dto.ClientFilter) ([]entity.Client, error) {
	ctx, span := repoTracer.Start(ctx, "ClientRepository.List")
	defer span.End()

	clients := make([]entity.Client, 0)
	q := r.reader.NewSelect().Model(&clients).OrderExpr("lower(c.name) ASC, c.id ASC")
	if term := strings.TrimSpace(filter.Search); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		q = q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("lower(c.name) LIKE ?", like).
				WhereOr("c.phone LIKE ?", like).
				WhereOr("c.document LIKE ?", like)
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
	return clients, nil
}
