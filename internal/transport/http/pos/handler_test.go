package pos

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Additional-Code/oficina/internal/dto"
	"github.com/Additional-Code/oficina/internal/entity"
	"github.com/Additional-Code/oficina/pkg/errorbank"
)

type fakeSales struct {
	req    dto.CheckoutRequest
	filter dto.SaleFilter
	err    error
}

func (f *fakeSales) Checkout(_ context.Context, req dto.CheckoutRequest) (*dto.CheckoutResult, error) {
	f.req = req
	if f.err != nil {
		return nil, f.err
	}
	return &dto.CheckoutResult{SaleID: 11, SaleNumber: 501, Total: decimal.NewFromInt(90), PaymentStatus: "PAID", TransactionID: 3}, nil
}

func (f *fakeSales) List(_ context.Context, filter dto.SaleFilter) ([]dto.SaleRow, error) {
	f.filter = filter
	return []dto.SaleRow{{ID: 11, Number: 501}}, nil
}

func (f *fakeSales) Get(_ context.Context, id int64) (*entity.Sale, error) {
	return &entity.Sale{ID: id, Number: 501}, nil
}

func do(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestCheckout(t *testing.T) {
	svc := &fakeSales{}
	e := echo.New()
	Register(e, &Handler{svc: svc})

	rec := do(e, http.MethodPost, "/api/pos/sales", `{"paymentMethod":"CASH","discount":"10","items":[{"partId":1,"quantity":2}]}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, svc.req.Items, 1)
	assert.True(t, decimal.NewFromInt(10).Equal(svc.req.Discount))
	assert.Contains(t, rec.Body.String(), `"saleNumber":501`)
	assert.Contains(t, rec.Body.String(), `"total":"90"`)
}

func TestCheckout_Declined(t *testing.T) {
	svc := &fakeSales{err: errorbank.Unprocessable("payment declined")}
	e := echo.New()
	Register(e, &Handler{svc: svc})

	rec := do(e, http.MethodPost, "/api/pos/sales", `{"paymentMethod":"CARD","items":[{"partId":1,"quantity":1}]}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), `"payment declined"`)
}

func TestList_Period(t *testing.T) {
	svc := &fakeSales{}
	e := echo.New()
	Register(e, &Handler{svc: svc})

	rec := do(e, http.MethodGet, "/api/pos/sales?from=2024-03-01&limit=20", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2024, svc.filter.From.Year())
	assert.True(t, svc.filter.To.IsZero())
	assert.Equal(t, 20, svc.filter.Limit)
}
