package vehicle

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

type fakeVehicles struct {
	plate   string
	created dto.VehicleRequest
}

func (f *fakeVehicles) List(context.Context, dto.VehicleFilter) ([]entity.Vehicle, error) {
	return nil, nil
}

func (f *fakeVehicles) Get(_ context.Context, id int64) (*entity.Vehicle, error) {
	return &entity.Vehicle{ID: id}, nil
}

func (f *fakeVehicles) GetByPlate(_ context.Context, plate string) (*entity.Vehicle, error) {
	f.plate = plate
	if plate == "ZZZ9999" {
		return nil, errorbank.NotFound("vehicle not found")
	}
	return &entity.Vehicle{ID: 1, Plate: "ABC1234"}, nil
}

func (f *fakeVehicles) Create(_ context.Context, req dto.VehicleRequest) (*entity.Vehicle, error) {
	f.created = req
	return &entity.Vehicle{ID: 5, Plate: req.Plate, ClientID: req.ClientID}, nil
}

func (f *fakeVehicles) Update(_ context.Context, id int64, req dto.VehicleRequest) (*entity.Vehicle, error) {
	return &entity.Vehicle{ID: id, ClientID: req.ClientID}, nil
}

func (f *fakeVehicles) History(context.Context, int64) ([]dto.OrderRow, error) {
	return []dto.OrderRow{{ID: 1, Number: 1001}, {ID: 2, Number: 1002}}, nil
}

func do(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestPlateLookupRoutesBeforeID(t *testing.T) {
	svc := &fakeVehicles{}
	e := echo.New()
	Register(e, &Handler{svc: svc})

	rec := do(e, http.MethodGet, "/api/vehicles/plate/abc-1234", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "abc-1234", svc.plate)

	rec = do(e, http.MethodGet, "/api/vehicles/plate/ZZZ9999", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateAndHistory(t *testing.T) {
	svc := &fakeVehicles{}
	e := echo.New()
	Register(e, &Handler{svc: svc})

	rec := do(e, http.MethodPost, "/api/vehicles", `{"plate":"abc1d23","model":"Onix","brand":"GM","year":"2020","clientId":3}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 2020, svc.created.Year.Value)
	assert.Equal(t, int64(3), svc.created.ClientID)

	rec = do(e, http.MethodGet, "/api/vehicles/1/history", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"count":2`)
}
