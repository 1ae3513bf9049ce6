package legacy

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/Additional-Code/oficina/internal/dto"
	"github.com/Additional-Code/oficina/internal/entity"
)

type fakeLegacy struct {
	search  string
	limit   int
	created dto.LegacyOrderRequest
}

func (f *fakeLegacy) List(_ context.Context, search string, limit int) ([]entity.LegacyOrder, error) {
	f.search, f.limit = search, limit
	return []entity.LegacyOrder{{ID: 1, LegacyNumber: "OS-0042"}}, nil
}

func (f *fakeLegacy) Get(_ context.Context, id int64) (*entity.LegacyOrder, error) {
	return &entity.LegacyOrder{ID: id}, nil
}

func (f *fakeLegacy) Create(_ context.Context, req dto.LegacyOrderRequest) (*entity.LegacyOrder, error) {
	f.created = req
	return &entity.LegacyOrder{ID: 2, LegacyNumber: req.LegacyNumber}, nil
}

func TestLegacyRoutes(t *testing.T) {
	svc := &fakeLegacy{}
	e := echo.New()
	Register(e, &Handler{svc: svc})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/legacy-orders?search=gol&limit=10", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "gol", svc.search)
	assert.Equal(t, 10, svc.limit)
	assert.Contains(t, rec.Body.String(), "OS-0042")

	req := httptest.NewRequest(http.MethodPost, "/api/legacy-orders",
		strings.NewReader(`{"legacyNumber":"OS-0050","clientName":"Joao","serviceDate":"2019-05-10","total":"R$ 1.234,50"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "R$ 1.234,50", svc.created.Total)
	assert.Equal(t, 2019, svc.created.ServiceDate.Year())
}
