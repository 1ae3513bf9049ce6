package patio

import (
	"context"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Additional-Code/oficina/internal/dto"
	"github.com/Additional-Code/oficina/internal/presentation/http/response"
	service "github.com/Additional-Code/oficina/internal/service/patio"
)

var httpTracer = otel.Tracer("github.com/Additional-Code/oficina/transport/http/patio")

type boardService interface {
	Board(ctx context.Context) (*dto.Board, error)
}

// Handler serves the yard board.
type Handler struct {
	svc boardService
}

// NewHandler constructs a yard Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes on the Echo instance.
func Register(e *echo.Echo, h *Handler) {
	e.GET("/api/patio/vehicles", h.board)
}

func (h *Handler) board(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "patio.board")
	defer span.End()

	board, err := h.svc.Board(ctx)
	if err != nil {
		return b.WithError(err).Build()
	}
	span.SetAttributes(attribute.Int("patio.vehicles", len(board.Vehicles)))
	return b.WithData(board).Build()
}
