package serviceorder

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/oficina/internal/dto"
	"github.com/Additional-Code/oficina/internal/presentation/http/request"
	"github.com/Additional-Code/oficina/internal/presentation/http/response"
	service "github.com/Additional-Code/oficina/internal/service/serviceorder"
)

var httpTracer = otel.Tracer("github.com/Additional-Code/oficina/transport/http/serviceorder")

type orderService interface {
	Open(ctx context.Context, req dto.IntakeRequest) (dto.IntakeResult, error)
	List(ctx context.Context, filter dto.OrderFilter) ([]dto.OrderRow, error)
	Get(ctx context.Context, id int64) (*dto.OrderRow, error)
	Update(ctx context.Context, id int64, req dto.UpdateOrderRequest) (*dto.OrderRow, error)
	ChangeStatus(ctx context.Context, id int64, req dto.ChangeStatusRequest) (*dto.OrderRow, error)
}

// Handler exposes service order endpoints over HTTP.
type Handler struct {
	svc orderService
}

// NewHandler constructs a service order Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes on the Echo instance.
func Register(e *echo.Echo, h *Handler) {
	g := e.Group("/api/service-orders")
	g.POST("", h.open)
	g.GET("", h.list)
	g.GET("/:id", h.get)
	g.PUT("/:id", h.update)
	g.PATCH("/:id/status", h.changeStatus)
}

func (h *Handler) open(c echo.Context) error {
	b := response.New(c)

	var req dto.IntakeRequest
	if err := request.Bind(c, &req); err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "serviceOrders.open")
	defer span.End()

	res, err := h.svc.Open(ctx, req)
	if err != nil {
		return b.WithError(err).Build()
	}
	span.SetAttributes(attribute.Int64("order.id", res.OrderID))

	return b.WithStatus(http.StatusCreated).
		WithField("orderId", res.OrderID).
		WithField("orderNumber", res.OrderNumber).
		WithField("clientId", res.ClientID).
		WithField("vehicleId", res.VehicleID).
		Build()
}

func (h *Handler) list(c echo.Context) error {
	b := response.New(c)

	limit, err := request.Int(c, "limit")
	if err != nil {
		return b.WithError(err).Build()
	}
	clientID, err := request.Int64(c, "clientId")
	if err != nil {
		return b.WithError(err).Build()
	}
	vehicleID, err := request.Int64(c, "vehicleId")
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "serviceOrders.list")
	defer span.End()

	rows, err := h.svc.List(ctx, dto.OrderFilter{
		Limit:     limit,
		Statuses:  request.List(c, "status"),
		ClientID:  clientID,
		VehicleID: vehicleID,
		Search:    c.QueryParam("search"),
	})
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(rows).WithMeta("count", len(rows)).Build()
}

func (h *Handler) get(c echo.Context) error {
	b := response.New(c)

	id, err := request.ID(c, "id")
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "serviceOrders.get", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	row, err := h.svc.Get(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(row).Build()
}

func (h *Handler) update(c echo.Context) error {
	b := response.New(c)

	id, err := request.ID(c, "id")
	if err != nil {
		return b.WithError(err).Build()
	}
	var req dto.UpdateOrderRequest
	if err := request.Bind(c, &req); err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "serviceOrders.update", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	row, err := h.svc.Update(ctx, id, req)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(row).Build()
}

func (h *Handler) changeStatus(c echo.Context) error {
	b := response.New(c)

	id, err := request.ID(c, "id")
	if err != nil {
		return b.WithError(err).Build()
	}
	var req dto.ChangeStatusRequest
	if err := request.Bind(c, &req); err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "serviceOrders.changeStatus", trace.WithAttributes(
		attribute.Int64("order.id", id),
		attribute.String("order.status", req.Status),
	))
	defer span.End()

	row, err := h.svc.ChangeStatus(ctx, id, req)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(row).Build()
}
