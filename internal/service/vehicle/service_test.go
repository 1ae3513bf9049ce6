package vehicle

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Additional-Code/oficina/internal/cache"
	"github.com/Additional-Code/oficina/internal/dto"
	"github.com/Additional-Code/oficina/internal/entity"
	repo "github.com/Additional-Code/oficina/internal/repository/vehicle"
	"github.com/Additional-Code/oficina/internal/testkit"
	"github.com/Additional-Code/oficina/internal/validation"
	"github.com/Additional-Code/oficina/pkg/errorbank"
)

type fakeVehicles struct {
	byID       map[int64]entity.Vehicle
	plateCalls int
	createErr  error
}

func (f *fakeVehicles) Create(_ context.Context, v *entity.Vehicle) error {
	if f.createErr != nil {
		return f.createErr
	}
	v.ID = int64(len(f.byID) + 1)
	f.byID[v.ID] = *v
	return nil
}

func (f *fakeVehicles) Update(_ context.Context, v *entity.Vehicle) error {
	f.byID[v.ID] = *v
	return nil
}

func (f *fakeVehicles) GetByID(_ context.Context, id int64) (*entity.Vehicle, error) {
	v, ok := f.byID[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return &v, nil
}

func (f *fakeVehicles) GetByPlate(_ context.Context, plate string) (*entity.Vehicle, error) {
	f.plateCalls++
	for _, v := range f.byID {
		if v.Plate == plate {
			return &v, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (f *fakeVehicles) List(context.Context, dto.VehicleFilter) ([]entity.Vehicle, error) {
	return nil, nil
}

type fakeHistory struct{}

func (fakeHistory) History(_ context.Context, id int64) ([]dto.OrderRow, error) {
	return []dto.OrderRow{{ID: 1, VehicleID: id, Status: "FINISHED"}}, nil
}

func newTestService(vehicles *fakeVehicles) *Service {
	return newService(vehicles, fakeHistory{}, cache.NewMemoryStore(time.Minute), time.Minute, validation.New(), zap.NewNop())
}

func TestGetByPlate_NormalisesAndCaches(t *testing.T) {
	vehicles := &fakeVehicles{byID: map[int64]entity.Vehicle{1: {ID: 1, Plate: "ABC1234", ClientID: 2}}}
	svc := newTestService(vehicles)

	v, err := svc.GetByPlate(context.Background(), "abc-1234")
	require.NoError(t, err)
	assert.Equal(t, int64(1), v.ID)

	_, err = svc.GetByPlate(context.Background(), "ABC 1234")
	require.NoError(t, err)
	assert.Equal(t, 1, vehicles.plateCalls)

	_, err = svc.GetByPlate(context.Background(), "zzz9999")
	assert.True(t, errorbank.IsKind(err, errorbank.KindNotFound))
}

func TestCreate_MapsConstraintViolations(t *testing.T) {
	req := dto.VehicleRequest{Plate: "abc1234", Model: "Civic", Brand: "Honda", ClientID: 9}

	dup := newTestService(&fakeVehicles{byID: map[int64]entity.Vehicle{}, createErr: testkit.PGError{Code: "23505"}})
	_, err := dup.Create(context.Background(), req)
	assert.True(t, errorbank.IsKind(err, errorbank.KindConflict))

	orphan := newTestService(&fakeVehicles{byID: map[int64]entity.Vehicle{}, createErr: testkit.PGError{Code: "23503"}})
	_, err = orphan.Create(context.Background(), req)
	assert.True(t, errorbank.IsKind(err, errorbank.KindUnprocessableEntity))
}

func TestUpdate_TransfersOwnerAndDropsStalePlateCache(t *testing.T) {
	vehicles := &fakeVehicles{byID: map[int64]entity.Vehicle{1: {ID: 1, Plate: "ABC1234", Model: "Civic", Brand: "Honda", ClientID: 2}}}
	svc := newTestService(vehicles)
	ctx := context.Background()

	_, err := svc.GetByPlate(ctx, "ABC1234")
	require.NoError(t, err)

	updated, err := svc.Update(ctx, 1, dto.VehicleRequest{Plate: "abc-1234", Model: "Civic", Brand: "Honda", ClientID: 5})
	require.NoError(t, err)
	assert.Equal(t, int64(5), updated.ClientID)

	v, err := svc.GetByPlate(ctx, "ABC1234")
	require.NoError(t, err)
	assert.Equal(t, int64(5), v.ClientID)
	assert.Equal(t, 2, vehicles.plateCalls)
}

func TestHistory_UnknownVehicle(t *testing.T) {
	svc := newTestService(&fakeVehicles{byID: map[int64]entity.Vehicle{1: {ID: 1}}})

	rows, err := svc.History(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	_, err = svc.History(context.Background(), 2)
	assert.True(t, errorbank.IsKind(err, errorbank.KindNotFound))
}
