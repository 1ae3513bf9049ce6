package legacy

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/oficina/internal/dto"
	"github.com/Additional-Code/oficina/internal/entity"
	"github.com/Additional-Code/oficina/internal/presentation/http/request"
	"github.com/Additional-Code/oficina/internal/presentation/http/response"
	service "github.com/Additional-Code/oficina/internal/service/legacy"
)

var httpTracer = otel.Tracer("github.com/Additional-Code/oficina/transport/http/legacy")

type legacyService interface {
	List(ctx context.Context, search string, limit int) ([]entity.LegacyOrder, error)
	Get(ctx context.Context, id int64) (*entity.LegacyOrder, error)
	Create(ctx context.Context, req dto.LegacyOrderRequest) (*entity.LegacyOrder, error)
}

// Handler exposes legacy orders over HTTP.
type Handler struct {
	svc legacyService
}

// NewHandler constructs a legacy order Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes on the Echo instance.
func Register(e *echo.Echo, h *Handler) {
	g := e.Group("/api/legacy-orders")
	g.GET("", h.list)
	g.POST("", h.create)
	g.GET("/:id", h.get)
}

func (h *Handler) list(c echo.Context) error {
	b := response.New(c)

	limit, err := request.Int(c, "limit")
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "legacyOrders.list")
	defer span.End()

	orders, err := h.svc.List(ctx, c.QueryParam("search"), limit)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(orders).WithMeta("count", len(orders)).Build()
}

func (h *Handler) get(c echo.Context) error {
	b := response.New(c)

	id, err := request.ID(c, "id")
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "legacyOrders.get", trace.WithAttributes(attribute.Int64("legacy_order.id", id)))
	defer span.End()

	o, err := h.svc.Get(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(o).Build()
}

func (h *Handler) create(c echo.Context) error {
	b := response.New(c)

	var req dto.LegacyOrderRequest
	if err := request.Bind(c, &req); err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "legacyOrders.create")
	defer span.End()

	o, err := h.svc.Create(ctx, req)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithStatus(http.StatusCreated).WithData(o).Build()
}
