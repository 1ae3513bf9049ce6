package supplier

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
	service "github.com/Additional-Code/oficina/internal/service/supplier"
)

var httpTracer = otel.Tracer("github.com/Additional-Code/oficina/transport/http/supplier")

type supplierService interface {
	List(ctx context.Context, filter dto.SupplierFilter) ([]entity.Supplier, error)
	Get(ctx context.Context, id int64) (*entity.Supplier, error)
	Create(ctx context.Context, req dto.SupplierRequest) (*entity.Supplier, error)
	Update(ctx context.Context, id int64, req dto.SupplierRequest) (*entity.Supplier, error)
	SetActive(ctx context.Context, id int64, req dto.SupplierActiveRequest) (*entity.Supplier, error)
}

// Handler exposes supplier endpoints over HTTP.
type Handler struct {
	svc supplierService
}

// NewHandler constructs a supplier Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes on the Echo instance.
func Register(e *echo.Echo, h *Handler) {
	g := e.Group("/api/suppliers")
	g.GET("", h.list)
	g.POST("", h.create)
	g.GET("/:id", h.get)
	g.PUT("/:id", h.update)
	g.PATCH("/:id/active", h.setActive)
}

func (h *Handler) list(c echo.Context) error {
	b := response.New(c)

	active, err := request.Bool(c, "active")
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "suppliers.list")
	defer span.End()

	suppliers, err := h.svc.List(ctx, dto.SupplierFilter{
		Type:   c.QueryParam("type"),
		Active: active,
		Search: c.QueryParam("search"),
	})
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(suppliers).WithMeta("count", len(suppliers)).Build()
}

func (h *Handler) get(c echo.Context) error {
	b := response.New(c)

	id, err := request.ID(c, "id")
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "suppliers.get", trace.WithAttributes(attribute.Int64("supplier.id", id)))
	defer span.End()

	s, err := h.svc.Get(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(s).Build()
}

func (h *Handler) create(c echo.Context) error {
	b := response.New(c)

	var req dto.SupplierRequest
	if err := request.Bind(c, &req); err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "suppliers.create")
	defer span.End()

	s, err := h.svc.Create(ctx, req)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithStatus(http.StatusCreated).WithData(s).Build()
}

func (h *Handler) update(c echo.Context) error {
	b := response.New(c)

	id, err := request.ID(c, "id")
	if err != nil {
		return b.WithError(err).Build()
	}
	var req dto.SupplierRequest
	if err := request.Bind(c, &req); err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "suppliers.update", trace.WithAttributes(attribute.Int64("supplier.id", id)))
	defer span.End()

	s, err := h.svc.Update(ctx, id, req)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(s).Build()
}

func (h *Handler) setActive(c echo.Context) error {
	b := response.New(c)

	id, err := request.ID(c, "id")
	if err != nil {
		return b.WithError(err).Build()
	}
	var req dto.SupplierActiveRequest
	if err := request.Bind(c, &req); err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "suppliers.setActive", trace.WithAttributes(attribute.Int64("supplier.id", id)))
	defer span.End()

	s, err := h.svc.SetActive(ctx, id, req)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(s).Build()
}
