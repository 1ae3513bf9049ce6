package patio

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Additional-Code/oficina/internal/dto"
	"github.com/Additional-Code/oficina/pkg/errorbank"
)

type fakeBoard struct {
	board *dto.Board
	err   error
}

func (f fakeBoard) Board(context.Context) (*dto.Board, error) { return f.board, f.err }

func TestBoard(t *testing.T) {
	e := echo.New()
	Register(e, &Handler{svc: fakeBoard{board: &dto.Board{
		Vehicles: []dto.BoardVehicle{{OrderID: 1, Plate: "ABC1D23", Status: "IN_PROGRESS", Progress: 60}},
		Stats:    dto.BoardStats{InProgress: 1, TotalActive: 1},
	}}})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/patio/vehicles", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Success bool      `json:"success"`
		Data    dto.Board `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	require.Len(t, body.Data.Vehicles, 1)
	assert.Equal(t, 60, body.Data.Vehicles[0].Progress)
	assert.Equal(t, int64(1), body.Data.Stats.TotalActive)
}

func TestBoard_Failure(t *testing.T) {
	e := echo.New()
	Register(e, &Handler{svc: fakeBoard{err: errorbank.Internal("failed to load yard", errorbank.WithCause(errors.New("timeout")))}})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/patio/vehicles", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":false`)
}
