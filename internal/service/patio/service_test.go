package patio

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Additional-Code/oficina/internal/cache"
	"github.com/Additional-Code/oficina/internal/dto"
	"github.com/Additional-Code/oficina/pkg/errorbank"
)

type fakeBoard struct {
	calls int
	since time.Time
	err   error
}

func (f *fakeBoard) BoardVehicles(context.Context) ([]dto.BoardVehicle, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return []dto.BoardVehicle{{OrderID: 1, Status: "WAITING_PARTS", Progress: 50, PartsStatus: "WAITING", Plate: "ABC1234"}}, nil
}

func (f *fakeBoard) BoardStats(_ context.Context, since time.Time) (dto.BoardStats, error) {
	f.since = since
	avg := 36.5
	return dto.BoardStats{WaitingParts: 1, TotalActive: 1, AvgTurnaroundHours: &avg}, nil
}

func TestBoard_LoadsOnceThenServesFromCache(t *testing.T) {
	store := &fakeBoard{}
	mem := cache.NewMemoryStore(time.Minute)
	svc := newService(store, mem, time.Minute, 720*time.Hour, zap.NewNop())
	fixed := time.Date(2024, 5, 31, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	board, err := svc.Board(context.Background())
	require.NoError(t, err)
	require.Len(t, board.Vehicles, 1)
	assert.Equal(t, "WAITING", board.Vehicles[0].PartsStatus)
	assert.Equal(t, 36.5, *board.Stats.AvgTurnaroundHours)
	assert.Equal(t, fixed.Add(-720*time.Hour), store.since)

	again, err := svc.Board(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, store.calls)
	assert.Equal(t, board.Vehicles[0].Plate, again.Vehicles[0].Plate)

	require.NoError(t, mem.Delete(context.Background(), cache.PatioBoardKey))
	_, err = svc.Board(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, store.calls)
}

func TestBoard_RepositoryFailureIsInternal(t *testing.T) {
	svc := newService(&fakeBoard{err: errors.New("timeout")}, nil, time.Minute, 0, nil)

	_, err := svc.Board(context.Background())

	var appErr *errorbank.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, errorbank.KindInternal, appErr.Kind())
}
