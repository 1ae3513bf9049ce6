package stock

import (
	"context"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/oficina/internal/dto"
	"github.com/Additional-Code/oficina/internal/entity"
	"github.com/Additional-Code/oficina/internal/export"
	"github.com/Additional-Code/oficina/internal/presentation/http/request"
	"github.com/Additional-Code/oficina/internal/presentation/http/response"
	service "github.com/Additional-Code/oficina/internal/service/inventory"
)

var httpTracer = otel.Tracer("github.com/Additional-Code/oficina/transport/http/stock")

type inventoryService interface {
	List(ctx context.Context, filter dto.PartFilter) ([]dto.PartStockRow, error)
	LowStock(ctx context.Context) ([]dto.PartStockRow, error)
	Get(ctx context.Context, id int64) (*entity.Part, error)
	Create(ctx context.Context, req dto.PartRequest) (*entity.Part, error)
	Update(ctx context.Context, id int64, req dto.PartRequest) (*entity.Part, error)
	Move(ctx context.Context, partID int64, req dto.MovementRequest) (*entity.StockMovement, error)
	Movements(ctx context.Context, partID int64) ([]entity.StockMovement, error)
	ExportStock(ctx context.Context, w io.Writer) error
}

// Handler exposes parts and stock movements over HTTP.
type Handler struct {
	svc inventoryService
}

// NewHandler constructs a stock Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes on the Echo instance.
func Register(e *echo.Echo, h *Handler) {
	g := e.Group("/api/stock")
	g.GET("", h.list)
	g.POST("", h.create)
	g.GET("/low", h.low)
	g.GET("/export", h.export)
	g.GET("/:id", h.get)
	g.PUT("/:id", h.update)
	g.GET("/:id/movements", h.movements)
	g.POST("/:id/movements", h.move)
}

func (h *Handler) list(c echo.Context) error {
	b := response.New(c)

	limit, err := request.Int(c, "limit")
	if err != nil {
		return b.WithError(err).Build()
	}
	low, err := request.Bool(c, "low")
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "stock.list")
	defer span.End()

	rows, err := h.svc.List(ctx, dto.PartFilter{
		Search:   c.QueryParam("search"),
		Category: c.QueryParam("category"),
		LowStock: low != nil && *low,
		Limit:    limit,
	})
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(rows).WithMeta("count", len(rows)).Build()
}

func (h *Handler) low(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "stock.low")
	defer span.End()

	rows, err := h.svc.LowStock(ctx)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(rows).WithMeta("count", len(rows)).Build()
}

func (h *Handler) export(c echo.Context) error {
	ctx, span := httpTracer.Start(c.Request().Context(), "stock.export")
	defer span.End()

	return response.Attachment(c, "estoque.xlsx", export.ContentType, func(w io.Writer) error {
		return h.svc.ExportStock(ctx, w)
	})
}

func (h *Handler) get(c echo.Context) error {
	b := response.New(c)

	id, err := request.ID(c, "id")
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "stock.get", trace.WithAttributes(attribute.Int64("part.id", id)))
	defer span.End()

	part, err := h.svc.Get(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(part).Build()
}

func (h *Handler) create(c echo.Context) error {
	b := response.New(c)

	var req dto.PartRequest
	if err := request.Bind(c, &req); err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "stock.create")
	defer span.End()

	part, err := h.svc.Create(ctx, req)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithStatus(http.StatusCreated).WithData(part).Build()
}

func (h *Handler) update(c echo.Context) error {
	b := response.New(c)

	id, err := request.ID(c, "id")
	if err != nil {
		return b.WithError(err).Build()
	}
	var req dto.PartRequest
	if err := request.Bind(c, &req); err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "stock.update", trace.WithAttributes(attribute.Int64("part.id", id)))
	defer span.End()

	part, err := h.svc.Update(ctx, id, req)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(part).Build()
}

func (h *Handler) movements(c echo.Context) error {
	b := response.New(c)

	id, err := request.ID(c, "id")
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "stock.movements", trace.WithAttributes(attribute.Int64("part.id", id)))
	defer span.End()

	moves, err := h.svc.Movements(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(moves).WithMeta("count", len(moves)).Build()
}

func (h *Handler) move(c echo.Context) error {
	b := response.New(c)

	id, err := request.ID(c, "id")
	if err != nil {
		return b.WithError(err).Build()
	}
	var req dto.MovementRequest
	if err := request.Bind(c, &req); err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "stock.move", trace.WithAttributes(
		attribute.Int64("part.id", id),
		attribute.String("movement.type", req.Type),
	))
	defer span.End()

	move, err := h.svc.Move(ctx, id, req)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithStatus(http.StatusCreated).WithData(move).Build()
}
