package finance

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/oficina/internal/dto"
	"github.com/Additional-Code/oficina/internal/entity"
	"github.com/Additional-Code/oficina/internal/export"
	"github.com/Additional-Code/oficina/internal/presentation/http/request"
	"github.com/Additional-Code/oficina/internal/presentation/http/response"
	service "github.com/Additional-Code/oficina/internal/service/finance"
)

var httpTracer = otel.Tracer("github.com/Additional-Code/oficina/transport/http/finance")

type financeService interface {
	List(ctx context.Context, filter dto.TransactionFilter) ([]dto.TransactionRow, error)
	Get(ctx context.Context, id int64) (*entity.Transaction, error)
	Create(ctx context.Context, req dto.TransactionRequest) (*entity.Transaction, error)
	Update(ctx context.Context, id int64, req dto.TransactionRequest) (*entity.Transaction, error)
	Summary(ctx context.Context, from, to time.Time) (*dto.FinanceSummary, error)
	Export(ctx context.Context, w io.Writer, from, to time.Time) error
	Overdue(ctx context.Context) ([]dto.TransactionRow, error)
	CostCenters(ctx context.Context) ([]entity.CostCenter, error)
	CreateCostCenter(ctx context.Context, req dto.CostCenterRequest) (*entity.CostCenter, error)
}

// Handler exposes the ledger over HTTP.
type Handler struct {
	svc financeService
}

// NewHandler constructs a finance Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes on the Echo instance.
func Register(e *echo.Echo, h *Handler) {
	g := e.Group("/api/finance")
	g.GET("", h.list)
	g.GET("/list", h.list)
	g.POST("", h.create)
	g.GET("/summary", h.summary)
	g.GET("/export", h.export)
	g.GET("/overdue", h.overdue)
	g.GET("/cost-centers", h.costCenters)
	g.POST("/cost-centers", h.createCostCenter)
	g.GET("/:id", h.get)
	g.PUT("/:id", h.update)
}

func (h *Handler) list(c echo.Context) error {
	b := response.New(c)

	from, to, err := period(c)
	if err != nil {
		return b.WithError(err).Build()
	}
	limit, err := request.Int(c, "limit")
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "finance.list")
	defer span.End()

	rows, err := h.svc.List(ctx, dto.TransactionFilter{
		Type:   c.QueryParam("type"),
		Status: c.QueryParam("status"),
		From:   from,
		To:     to,
		Limit:  limit,
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

	ctx, span := httpTracer.Start(c.Request().Context(), "finance.get", trace.WithAttributes(attribute.Int64("transaction.id", id)))
	defer span.End()

	tx, err := h.svc.Get(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(tx).Build()
}

func (h *Handler) create(c echo.Context) error {
	b := response.New(c)

	var req dto.TransactionRequest
	if err := request.Bind(c, &req); err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "finance.create")
	defer span.End()

	tx, err := h.svc.Create(ctx, req)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithStatus(http.StatusCreated).WithData(tx).Build()
}

func (h *Handler) update(c echo.Context) error {
	b := response.New(c)

	id, err := request.ID(c, "id")
	if err != nil {
		return b.WithError(err).Build()
	}
	var req dto.TransactionRequest
	if err := request.Bind(c, &req); err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "finance.update", trace.WithAttributes(attribute.Int64("transaction.id", id)))
	defer span.End()

	tx, err := h.svc.Update(ctx, id, req)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(tx).Build()
}

func (h *Handler) summary(c echo.Context) error {
	b := response.New(c)

	from, to, err := period(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "finance.summary")
	defer span.End()

	sum, err := h.svc.Summary(ctx, from, to)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(sum).Build()
}

func (h *Handler) export(c echo.Context) error {
	from, to, err := period(c)
	if err != nil {
		return response.New(c).WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "finance.export")
	defer span.End()

	name := "financeiro.xlsx"
	if !from.IsZero() && !to.IsZero() {
		name = fmt.Sprintf("financeiro_%s_%s.xlsx", from.Format(time.DateOnly), to.Format(time.DateOnly))
	}
	return response.Attachment(c, name, export.ContentType, func(w io.Writer) error {
		return h.svc.Export(ctx, w, from, to)
	})
}

func (h *Handler) overdue(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "finance.overdue")
	defer span.End()

	rows, err := h.svc.Overdue(ctx)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(rows).WithMeta("count", len(rows)).Build()
}

func (h *Handler) costCenters(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "finance.costCenters")
	defer span.End()

	centers, err := h.svc.CostCenters(ctx)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(centers).Build()
}

func (h *Handler) createCostCenter(c echo.Context) error {
	b := response.New(c)

	var req dto.CostCenterRequest
	if err := request.Bind(c, &req); err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "finance.createCostCenter")
	defer span.End()

	cc, err := h.svc.CreateCostCenter(ctx, req)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithStatus(http.StatusCreated).WithData(cc).Build()
}

func period(c echo.Context) (time.Time, time.Time, error) {
	from, err := request.Date(c, "from")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := request.Date(c, "to")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return from, to, nil
}
