package pos

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
	service "github.com/Additional-Code/oficina/internal/service/pos"
)

var httpTracer = otel.Tracer("github.com/Additional-Code/oficina/transport/http/pos")

type saleService interface {
	Checkout(ctx context.Context, req dto.CheckoutRequest) (*dto.CheckoutResult, error)
	List(ctx context.Context, filter dto.SaleFilter) ([]dto.SaleRow, error)
	Get(ctx context.Context, id int64) (*entity.Sale, error)
}

// Handler exposes counter sales over HTTP.
type Handler struct {
	svc saleService
}

// NewHandler constructs a counter sale Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes on the Echo instance.
func Register(e *echo.Echo, h *Handler) {
	g := e.Group("/api/pos/sales")
	g.POST("", h.checkout)
	g.GET("", h.list)
	g.GET("/:id", h.get)
}

func (h *Handler) checkout(c echo.Context) error {
	b := response.New(c)

	var req dto.CheckoutRequest
	if err := request.Bind(c, &req); err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "pos.checkout", trace.WithAttributes(
		attribute.String("sale.payment_method", req.PaymentMethod),
		attribute.Int("sale.items", len(req.Items)),
	))
	defer span.End()

	res, err := h.svc.Checkout(ctx, req)
	if err != nil {
		return b.WithError(err).Build()
	}
	span.SetAttributes(attribute.Int64("sale.id", res.SaleID))
	return b.WithStatus(http.StatusCreated).WithData(res).Build()
}

func (h *Handler) list(c echo.Context) error {
	b := response.New(c)

	from, err := request.Date(c, "from")
	if err != nil {
		return b.WithError(err).Build()
	}
	to, err := request.Date(c, "to")
	if err != nil {
		return b.WithError(err).Build()
	}
	limit, err := request.Int(c, "limit")
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "pos.list")
	defer span.End()

	rows, err := h.svc.List(ctx, dto.SaleFilter{From: from, To: to, Limit: limit})
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

	ctx, span := httpTracer.Start(c.Request().Context(), "pos.get", trace.WithAttributes(attribute.Int64("sale.id", id)))
	defer span.End()

	sale, err := h.svc.Get(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(sale).Build()
}
