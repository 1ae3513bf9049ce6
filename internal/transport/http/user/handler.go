package user

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
	service "github.com/Additional-Code/oficina/internal/service/user"
)

var httpTracer = otel.Tracer("github.com/Additional-Code/oficina/transport/http/user")

type userService interface {
	List(ctx context.Context, role string, activeOnly bool) ([]entity.User, error)
	Mechanics(ctx context.Context) ([]entity.User, error)
	Get(ctx context.Context, id int64) (*entity.User, error)
	Create(ctx context.Context, req dto.UserRequest) (*entity.User, error)
	Update(ctx context.Context, id int64, req dto.UserUpdateRequest) (*entity.User, error)
}

// Handler exposes staff users over HTTP.
type Handler struct {
	svc userService
}

// NewHandler constructs a user Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes on the Echo instance.
func Register(e *echo.Echo, h *Handler) {
	g := e.Group("/api/users")
	g.GET("", h.list)
	g.POST("", h.create)
	g.GET("/mechanics", h.mechanics)
	g.GET("/:id", h.get)
	g.PUT("/:id", h.update)
}

func (h *Handler) list(c echo.Context) error {
	b := response.New(c)

	active, err := request.Bool(c, "active")
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "users.list")
	defer span.End()

	users, err := h.svc.List(ctx, c.QueryParam("role"), active != nil && *active)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(users).WithMeta("count", len(users)).Build()
}

func (h *Handler) mechanics(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "users.mechanics")
	defer span.End()

	users, err := h.svc.Mechanics(ctx)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(users).Build()
}

func (h *Handler) get(c echo.Context) error {
	b := response.New(c)

	id, err := request.ID(c, "id")
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "users.get", trace.WithAttributes(attribute.Int64("user.id", id)))
	defer span.End()

	u, err := h.svc.Get(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(u).Build()
}

func (h *Handler) create(c echo.Context) error {
	b := response.New(c)

	var req dto.UserRequest
	if err := request.Bind(c, &req); err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "users.create")
	defer span.End()

	u, err := h.svc.Create(ctx, req)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithStatus(http.StatusCreated).WithData(u).Build()
}

func (h *Handler) update(c echo.Context) error {
	b := response.New(c)

	id, err := request.ID(c, "id")
	if err != nil {
		return b.WithError(err).Build()
	}
	var req dto.UserUpdateRequest
	if err := request.Bind(c, &req); err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "users.update", trace.WithAttributes(attribute.Int64("user.id", id)))
	defer span.End()

	u, err := h.svc.Update(ctx, id, req)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(u).Build()
}
