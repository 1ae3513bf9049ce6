package quotation

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
	service "github.com/Additional-Code/oficina/internal/service/quotation"
)

var httpTracer = otel.Tracer("github.com/Additional-Code/oficina/transport/http/quotation")

type quotationService interface {
	Create(ctx context.Context, req dto.QuotationRequest) (*entity.Quotation, error)
	List(ctx context.Context, filter dto.QuotationFilter) ([]entity.Quotation, error)
	Get(ctx context.Context, id int64) (*entity.Quotation, error)
	ChangeStatus(ctx context.Context, id int64, req dto.QuotationStatusRequest) (*entity.Quotation, error)
}

// Handler exposes quotations over HTTP.
type Handler struct {
	svc quotationService
}

// NewHandler constructs a quotation Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes on the Echo instance.
func Register(e *echo.Echo, h *Handler) {
	g := e.Group("/api/quotations")
	g.GET("", h.list)
	g.POST("", h.create)
	g.GET("/:id", h.get)
	g.PATCH("/:id/status", h.changeStatus)
}

func (h *Handler) list(c echo.Context) error {
	b := response.New(c)

	orderID, err := request.Int64(c, "serviceOrderId")
	if err != nil {
		return b.WithError(err).Build()
	}
	clientID, err := request.Int64(c, "clientId")
	if err != nil {
		return b.WithError(err).Build()
	}
	limit, err := request.Int(c, "limit")
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "quotations.list")
	defer span.End()

	quotes, err := h.svc.List(ctx, dto.QuotationFilter{
		ServiceOrderID: orderID,
		ClientID:       clientID,
		Status:         c.QueryParam("status"),
		Limit:          limit,
	})
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(quotes).WithMeta("count", len(quotes)).Build()
}

func (h *Handler) get(c echo.Context) error {
	b := response.New(c)

	id, err := request.ID(c, "id")
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "quotations.get", trace.WithAttributes(attribute.Int64("quotation.id", id)))
	defer span.End()

	q, err := h.svc.Get(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(q).Build()
}

func (h *Handler) create(c echo.Context) error {
	b := response.New(c)

	var req dto.QuotationRequest
	if err := request.Bind(c, &req); err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "quotations.create", trace.WithAttributes(attribute.Int("quotation.items", len(req.Items))))
	defer span.End()

	q, err := h.svc.Create(ctx, req)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithStatus(http.StatusCreated).WithData(q).Build()
}

func (h *Handler) changeStatus(c echo.Context) error {
	b := response.New(c)

	id, err := request.ID(c, "id")
	if err != nil {
		return b.WithError(err).Build()
	}
	var req dto.QuotationStatusRequest
	if err := request.Bind(c, &req); err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "quotations.changeStatus", trace.WithAttributes(
		attribute.Int64("quotation.id", id),
		attribute.String("quotation.status", req.Status),
	))
	defer span.End()

	q, err := h.svc.ChangeStatus(ctx, id, req)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(q).Build()
}
