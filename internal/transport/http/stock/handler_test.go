package stock

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/Additional-Code/oficina/internal/dto"
	"github.com/Additional-Code/oficina/internal/entity"
	"github.com/Additional-Code/oficina/internal/export"
	"github.com/Additional-Code/oficina/pkg/errorbank"
)

type fakeInventory struct {
	filter dto.PartFilter
	move   dto.MovementRequest
}

func (f *fakeInventory) List(_ context.Context, filter dto.PartFilter) ([]dto.PartStockRow, error) {
	f.filter = filter
	return []dto.PartStockRow{{ID: 1, SKU: "FLT-01"}}, nil
}

func (f *fakeInventory) LowStock(context.Context) ([]dto.PartStockRow, error) {
	return []dto.PartStockRow{{ID: 1, Stock: 1, MinStock: 2}}, nil
}

func (f *fakeInventory) Get(_ context.Context, id int64) (*entity.Part, error) {
	return &entity.Part{ID: id}, nil
}

func (f *fakeInventory) Create(_ context.Context, req dto.PartRequest) (*entity.Part, error) {
	return &entity.Part{ID: 3, SKU: req.SKU}, nil
}

func (f *fakeInventory) Update(_ context.Context, id int64, _ dto.PartRequest) (*entity.Part, error) {
	return &entity.Part{ID: id}, nil
}

func (f *fakeInventory) Move(_ context.Context, partID int64, req dto.MovementRequest) (*entity.StockMovement, error) {
	f.move = req
	if req.Quantity > 10 {
		return nil, errorbank.Unprocessable("insufficient stock",
			errorbank.WithDetail("available", 10), errorbank.WithDetail("requested", req.Quantity))
	}
	return &entity.StockMovement{ID: 1, PartID: partID, Quantity: req.Quantity}, nil
}

func (f *fakeInventory) Movements(context.Context, int64) ([]entity.StockMovement, error) {
	return nil, nil
}

func (f *fakeInventory) ExportStock(_ context.Context, w io.Writer) error {
	_, err := w.Write([]byte("xlsx"))
	return err
}

func do(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestList(t *testing.T) {
	svc := &fakeInventory{}
	e := echo.New()
	Register(e, &Handler{svc: svc})

	rec := do(e, http.MethodGet, "/api/stock?low=true&category=Filtros", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, svc.filter.LowStock)
	assert.Equal(t, "Filtros", svc.filter.Category)

	rec = do(e, http.MethodGet, "/api/stock/low", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"minStock":2`)
}

func TestMove(t *testing.T) {
	svc := &fakeInventory{}
	e := echo.New()
	Register(e, &Handler{svc: svc})

	rec := do(e, http.MethodPost, "/api/stock/7/movements", `{"type":"OUT","quantity":2,"reason":"oficina"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "OUT", svc.move.Type)
	assert.Contains(t, rec.Body.String(), `"partId":7`)

	rec = do(e, http.MethodPost, "/api/stock/7/movements", `{"type":"OUT","quantity":12,"reason":"oficina"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), `"available":10`)
	assert.Contains(t, rec.Body.String(), `"requested":12`)
}

func TestExport(t *testing.T) {
	e := echo.New()
	Register(e, &Handler{svc: &fakeInventory{}})

	rec := do(e, http.MethodGet, "/api/stock/export", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, export.ContentType, rec.Header().Get(echo.HeaderContentType))
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "estoque.xlsx")
	assert.Equal(t, "xlsx", rec.Body.String())
}
