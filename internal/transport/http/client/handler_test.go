package client

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
	"github.com/Additional-Code/oficina/pkg/errorbank"
)

type fakeClients struct {
	filter  dto.ClientFilter
	created dto.ClientRequest
}

func (f *fakeClients) List(_ context.Context, filter dto.ClientFilter) ([]entity.Client, error) {
	f.filter = filter
	return []entity.Client{{ID: 1, Name: "Ana"}}, nil
}

func (f *fakeClients) Get(_ context.Context, id int64) (*entity.Client, error) {
	if id == 404 {
		return nil, errorbank.NotFound("client not found")
	}
	return &entity.Client{ID: id, Name: "Ana"}, nil
}

func (f *fakeClients) Create(_ context.Context, req dto.ClientRequest) (*entity.Client, error) {
	f.created = req
	return &entity.Client{ID: 2, Name: req.Name, Phone: req.Phone}, nil
}

func (f *fakeClients) Update(_ context.Context, id int64, req dto.ClientRequest) (*entity.Client, error) {
	return &entity.Client{ID: id, Name: req.Name}, nil
}

func (f *fakeClients) Vehicles(_ context.Context, id int64) ([]entity.Vehicle, error) {
	return []entity.Vehicle{{ID: 10, Plate: "ABC1234", ClientID: id}}, nil
}

func do(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestClientRoutes(t *testing.T) {
	svc := &fakeClients{}
	e := echo.New()
	Register(e, &Handler{svc: svc})

	rec := do(e, http.MethodGet, "/api/clients?search=ana&limit=5", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, dto.ClientFilter{Search: "ana", Limit: 5}, svc.filter)

	rec = do(e, http.MethodPost, "/api/clients", `{"name":"Bia","phone":"11988887777"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Bia", svc.created.Name)
	assert.Contains(t, rec.Body.String(), `"id":2`)

	rec = do(e, http.MethodGet, "/api/clients/404", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"kind":"not_found"`)

	rec = do(e, http.MethodGet, "/api/clients/3/vehicles", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"clientId":3`)

	rec = do(e, http.MethodPut, "/api/clients/0", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
