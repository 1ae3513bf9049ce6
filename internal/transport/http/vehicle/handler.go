package vehicle

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
	service "github.com/Additional-Code/oficina/internal/service/vehicle"
)

var httpTracer = otel.Tracer("github.com/Additional-Code/oficina/transport/http/vehicle")

type vehicleService interface {
	List(ctx context.Context, filter dto.VehicleFilter) ([]entity.Vehicle, error)
	Get(ctx context.Context, id int64) (*entity.Vehicle, error)
	GetByPlate(ctx context.Context, plate string) (*entity.Vehicle, error)
	Create(ctx context.Context, req dto.VehicleRequest) (*entity.Vehicle, error)
	Update(ctx context.Context, id int64, req dto.VehicleRequest) (*entity.Vehicle, error)
	History(ctx context.Context, id int64) ([]dto.OrderRow, error)
}

// Handler exposes vehicle endpoints over HTTP.
type Handler struct {
	svc vehicleService
}

// NewHandler constructs a vehicle Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes on the Echo instance.
func Register(e *echo.Echo, h *Handler) {
	g := e.Group("/api/vehicles")
	g.GET("", h.list)
	g.POST("", h.create)
	g.GET("/plate/:plate", h.byPlate)
	g.GET("/:id", h.get)
	g.PUT("/:id", h.update)
	g.GET("/:id/history", h.history)
}

func (h *Handler) list(c echo.Context) error {
	b := response.New(c)

	clientID, err := request.Int64(c, "clientId")
	if err != nil {
		return b.WithError(err).Build()
	}
	limit, err := request.Int(c, "limit")
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "vehicles.list")
	defer span.End()

	vehicles, err := h.svc.List(ctx, dto.VehicleFilter{ClientID: clientID, Search: c.QueryParam("search"), Limit: limit})
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(vehicles).WithMeta("count", len(vehicles)).Build()
}

func (h *Handler) get(c echo.Context) error {
	b := response.New(c)

	id, err := request.ID(c, "id")
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "vehicles.get", trace.WithAttributes(attribute.Int64("vehicle.id", id)))
	defer span.End()

	v, err := h.svc.Get(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(v).Build()
}

func (h *Handler) byPlate(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "vehicles.byPlate")
	defer span.End()

	v, err := h.svc.GetByPlate(ctx, c.Param("plate"))
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(v).Build()
}

func (h *Handler) create(c echo.Context) error {
	b := response.New(c)

	var req dto.VehicleRequest
	if err := request.Bind(c, &req); err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "vehicles.create")
	defer span.End()

	v, err := h.svc.Create(ctx, req)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithStatus(http.StatusCreated).WithData(v).Build()
}

func (h *Handler) update(c echo.Context) error {
	b := response.New(c)

	id, err := request.ID(c, "id")
	if err != nil {
		return b.WithError(err).Build()
	}
	var req dto.VehicleRequest
	if err := request.Bind(c, &req); err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "vehicles.update", trace.WithAttributes(attribute.Int64("vehicle.id", id)))
	defer span.End()

	v, err := h.svc.Update(ctx, id, req)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(v).Build()
}

func (h *Handler) history(c echo.Context) error {
	b := response.New(c)

	id, err := request.ID(c, "id")
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "vehicles.history", trace.WithAttributes(attribute.Int64("vehicle.id", id)))
	defer span.End()

	rows, err := h.svc.History(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(rows).WithMeta("count", len(rows)).Build()
}
