package client

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
	service "github.com/Additional-Code/oficina/internal/service/client"
)

var httpTracer = otel.Tracer("github.com/Additional-Code/oficina/transport/http/client")

type clientService interface {
	List(ctx context.Context, filter dto.ClientFilter) ([]entity.Client, error)
	Get(ctx context.Context, id int64) (*entity.Client, error)
	Create(ctx context.Context, req dto.ClientRequest) (*entity.Client, error)
	Update(ctx context.Context, id int64, req dto.ClientRequest) (*entity.Client, error)
	Vehicles(ctx context.Context, id int64) ([]entity.Vehicle, error)
}

// Handler exposes client endpoints over HTTP.
type Handler struct {
	svc clientService
}

// NewHandler constructs a client Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes on the Echo instance.
func Register(e *echo.Echo, h *Handler) {
	g := e.Group("/api/clients")
	g.GET("", h.list)
	g.POST("", h.create)
	g.GET("/:id", h.get)
	g.PUT("/:id", h.update)
	g.GET("/:id/vehicles", h.vehicles)
}

func (h *Handler) list(c echo.Context) error {
	b := response.New(c)

	limit, err := request.Int(c, "limit")
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "clients.list")
	defer span.End()

	clients, err := h.svc.List(ctx, dto.ClientFilter{Search: c.QueryParam("search"), Limit: limit})
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(clients).WithMeta("count", len(clients)).Build()
}

func (h *Handler) get(c echo.Context) error {
	b := response.New(c)

	id, err := request.ID(c, "id")
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "clients.get", trace.WithAttributes(attribute.Int64("client.id", id)))
	defer span.End()

	client, err := h.svc.Get(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(client).Build()
}

func (h *Handler) create(c echo.Context) error {
	b := response.New(c)

	var req dto.ClientRequest
	if err := request.Bind(c, &req); err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "clients.create")
	defer span.End()

	client, err := h.svc.Create(ctx, req)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithStatus(http.StatusCreated).WithData(client).Build()
}

func (h *Handler) update(c echo.Context) error {
	b := response.New(c)

	id, err := request.ID(c, "id")
	if err != nil {
		return b.WithError(err).Build()
	}
	var req dto.ClientRequest
	if err := request.Bind(c, &req); err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "clients.update", trace.WithAttributes(attribute.Int64("client.id", id)))
	defer span.End()

	client, err := h.svc.Update(ctx, id, req)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(client).Build()
}

func (h *Handler) vehicles(c echo.Context) error {
	b := response.New(c)

	id, err := request.ID(c, "id")
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "clients.vehicles", trace.WithAttributes(attribute.Int64("client.id", id)))
	defer span.End()

	vehicles, err := h.svc.Vehicles(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(vehicles).WithMeta("count", len(vehicles)).Build()
}
