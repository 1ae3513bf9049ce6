package serviceorder

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"go.uber.org/zap"

	"github.com/Additional-Code/oficina/internal/cache"
	"github.com/Additional-Code/oficina/internal/config"
	"github.com/Additional-Code/oficina/internal/dto"
	"github.com/Additional-Code/oficina/internal/entity"
	"github.com/Additional-Code/oficina/internal/event"
	repo "github.com/Additional-Code/oficina/internal/repository/serviceorder"
	"github.com/Additional-Code/oficina/internal/testkit"
	"github.com/Additional-Code/oficina/internal/validation"
	"github.com/Additional-Code/oficina/pkg/errorbank"
)

type fakeOrders struct {
	inserted   []entity.ServiceOrder
	insertErr  error
	listFilter dto.OrderFilter
	getFn      func(id int64) (*dto.OrderRow, error)
	status     repo.StatusRow
	lockErr    error
	setCalls   []entity.OrderStatus
	details    *repo.Details
}

func (f *fakeOrders) Insert(_ context.Context, _ bun.IDB, o *entity.ServiceOrder) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	o.ID = int64(len(f.inserted) + 1)
	o.Number = 1000 + o.ID
	f.inserted = append(f.inserted, *o)
	return nil
}

func (f *fakeOrders) List(_ context.Context, filter dto.OrderFilter) ([]dto.OrderRow, error) {
	f.listFilter = filter
	return []dto.OrderRow{}, nil
}

func (f *fakeOrders) GetByID(_ context.Context, id int64) (*dto.OrderRow, error) {
	if f.getFn != nil {
		return f.getFn(id)
	}
	return &dto.OrderRow{ID: id, Status: string(f.status.Status)}, nil
}

func (f *fakeOrders) History(context.Context, int64) ([]dto.OrderRow, error) {
	return []dto.OrderRow{}, nil
}

func (f *fakeOrders) UpdateDetails(_ context.Context, _ int64, d repo.Details) error {
	f.details = &d
	return nil
}

func (f *fakeOrders) LockStatus(context.Context, bun.IDB, int64) (repo.StatusRow, error) {
	return f.status, f.lockErr
}

func (f *fakeOrders) SetStatus(_ context.Context, _ bun.IDB, _ int64, s entity.OrderStatus) error {
	f.setCalls = append(f.setCalls, s)
	f.status.Status = s
	return nil
}

type fakeClients struct {
	errs     []error
	calls    int
	resolved []entity.Client
}

func (f *fakeClients) Resolve(_ context.Context, _ bun.IDB, c *entity.Client) (int64, error) {
	f.calls++
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return 0, err
		}
	}
	c.ID = 7
	f.resolved = append(f.resolved, *c)
	return c.ID, nil
}

type fakeVehicles struct {
	upserted []entity.Vehicle
}

func (f *fakeVehicles) UpsertByPlate(_ context.Context, _ bun.IDB, v *entity.Vehicle) (int64, error) {
	v.ID = 11
	f.upserted = append(f.upserted, *v)
	return v.ID, nil
}

type fixture struct {
	svc      *Service
	orders   *fakeOrders
	clients  *fakeClients
	vehicles *fakeVehicles
	tx       *testkit.Tx
	bus      *testkit.Bus
	store    *cache.MemoryStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		orders:   &fakeOrders{},
		clients:  &fakeClients{},
		vehicles: &fakeVehicles{},
		tx:       &testkit.Tx{},
		bus:      &testkit.Bus{},
		store:    cache.NewMemoryStore(time.Minute),
	}
	shop := config.Shop{PhoneRegion: "BR", OrderListLimit: 100, OrderMaxLimit: 500, IntakeMaxAttempts: 3}
	f.svc = newService(f.orders, f.clients, f.vehicles, f.tx, f.store,
		event.NewPublisher(f.bus, zap.NewNop()), nil, validation.New(), shop, zap.NewNop())
	require.NoError(t, f.store.Set(context.Background(), cache.PatioBoardKey, []byte(`{}`), time.Minute))
	return f
}

func validIntake() dto.IntakeRequest {
	return dto.IntakeRequest{
		ClientName:   "João Silva",
		ClientPhone:  "11999999999",
		VehiclePlate: "abc-1234",
		VehicleModel: "Civic",
		VehicleBrand: "Honda",
		VehicleYear:  dto.IntOf(2019),
		KM:           dto.IntOf(50000),
		ClientReport: "Noise",
	}
}

func requireKind(t *testing.T, err error, kind errorbank.Kind) *errorbank.AppError {
	t.Helper()
	var appErr *errorbank.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, kind, appErr.Kind())
	return appErr
}

func TestOpen_MissingRequiredFieldsSkipsDatabase(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Open(context.Background(), dto.IntakeRequest{ClientName: "João"})

	appErr := requireKind(t, err, errorbank.KindBadRequest)
	assert.ElementsMatch(t,
		[]string{"clientPhone", "vehiclePlate", "vehicleModel", "vehicleBrand", "km", "clientReport"},
		appErr.FieldNames())
	assert.Zero(t, f.tx.Calls)
	assert.Zero(t, f.clients.calls)
	assert.Empty(t, f.bus.Messages)
}

func TestOpen_PunctuationOnlyPlateIsRejected(t *testing.T) {
	f := newFixture(t)
	req := validIntake()
	req.VehiclePlate = "--"

	_, err := f.svc.Open(context.Background(), req)

	appErr := requireKind(t, err, errorbank.KindBadRequest)
	assert.Contains(t, appErr.Fields(), "vehiclePlate")
	assert.Zero(t, f.tx.Calls)
}

func TestOpen_NormalisesAndCommits(t *testing.T) {
	f := newFixture(t)
	req := validIntake()
	req.ClientDocument = "123.456.789-09"

	res, err := f.svc.Open(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, dto.IntakeResult{OrderID: 1, OrderNumber: 1001, ClientID: 7, VehicleID: 11}, res)
	assert.Equal(t, 1, f.tx.Commits)

	require.Len(t, f.clients.resolved, 1)
	client := f.clients.resolved[0]
	assert.Equal(t, "+5511999999999", client.Phone)
	require.NotNil(t, client.Document)
	assert.Equal(t, "12345678909", *client.Document)
	assert.Nil(t, client.Email)

	require.Len(t, f.vehicles.upserted, 1)
	vehicle := f.vehicles.upserted[0]
	assert.Equal(t, "ABC1234", vehicle.Plate)
	assert.Equal(t, int64(7), vehicle.ClientID)
	require.NotNil(t, vehicle.Year)
	assert.Equal(t, 2019, *vehicle.Year)

	require.Len(t, f.orders.inserted, 1)
	order := f.orders.inserted[0]
	assert.Equal(t, entity.StatusOpen, order.Status)
	assert.Equal(t, 50000, order.KM)
	assert.Equal(t, int64(11), order.VehicleID)

	assert.Equal(t, []string{string(event.ServiceOrderOpened)}, f.bus.Types())
	_, err = f.store.Get(context.Background(), cache.PatioBoardKey)
	assert.ErrorIs(t, err, cache.ErrCacheMiss)
}

func TestOpen_PlateSpellingsResolveToSameKey(t *testing.T) {
	f := newFixture(t)
	for _, plate := range []string{"abc-1234", "ABC1234", " abc 1234 "} {
		req := validIntake()
		req.VehiclePlate = plate
		_, err := f.svc.Open(context.Background(), req)
		require.NoError(t, err)
	}

	require.Len(t, f.vehicles.upserted, 3)
	for _, v := range f.vehicles.upserted {
		assert.Equal(t, "ABC1234", v.Plate)
	}
}

func TestOpen_RetriesOnUniqueViolation(t *testing.T) {
	f := newFixture(t)
	f.clients.errs = []error{testkit.PGError{Code: "23505", ConstraintName: "clients_phone_key"}}

	res, err := f.svc.Open(context.Background(), validIntake())
	require.NoError(t, err)

	assert.Equal(t, 2, f.tx.Calls)
	assert.Equal(t, 1, f.tx.Rollbacks)
	assert.Equal(t, 1, f.tx.Commits)
	assert.Equal(t, int64(7), res.ClientID)
	assert.Len(t, f.orders.inserted, 1)
}

func TestOpen_GivesUpAfterMaxAttempts(t *testing.T) {
	f := newFixture(t)
	conflict := testkit.PGError{Code: "23505", ConstraintName: "vehicles_plate_key"}
	f.clients.errs = []error{conflict, conflict, conflict}

	_, err := f.svc.Open(context.Background(), validIntake())

	requireKind(t, err, errorbank.KindInternal)
	assert.Equal(t, 3, f.tx.Calls)
	assert.Empty(t, f.bus.Messages)
}

func TestOpen_DocumentConflictIsNotRetried(t *testing.T) {
	f := newFixture(t)
	f.clients.errs = []error{testkit.PGError{Code: "23505", ConstraintName: "clients_document_key"}}

	_, err := f.svc.Open(context.Background(), validIntake())

	appErr := requireKind(t, err, errorbank.KindConflict)
	assert.Equal(t, "clients_document_key", appErr.Details()["constraint"])
	assert.Equal(t, 1, f.tx.Calls)
	assert.Equal(t, 1, f.tx.Rollbacks)
	assert.Empty(t, f.orders.inserted)
	assert.Empty(t, f.bus.Messages)
}

func TestOpen_DatabaseFailureRollsBack(t *testing.T) {
	f := newFixture(t)
	f.orders.insertErr = errors.New("connection reset")

	_, err := f.svc.Open(context.Background(), validIntake())

	appErr := requireKind(t, err, errorbank.KindInternal)
	assert.Equal(t, "failed to open service order", appErr.Message())
	assert.Equal(t, 1, f.tx.Calls)
	assert.Equal(t, 1, f.tx.Rollbacks)
	assert.Empty(t, f.bus.Messages)

	raw, err := f.store.Get(context.Background(), cache.PatioBoardKey)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(raw))
}

func TestChangeStatus_RejectsIllegalTransition(t *testing.T) {
	f := newFixture(t)
	f.orders.status = repo.StatusRow{ID: 1, Number: 1001, Status: entity.StatusFinished}

	_, err := f.svc.ChangeStatus(context.Background(), 1, dto.ChangeStatusRequest{Status: "OPEN"})

	appErr := requireKind(t, err, errorbank.KindUnprocessableEntity)
	assert.Equal(t, "FINISHED", appErr.Details()["from"])
	assert.Empty(t, f.orders.setCalls)
	assert.Empty(t, f.bus.Messages)
}

func TestChangeStatus_AppliesLegalTransition(t *testing.T) {
	f := newFixture(t)
	f.orders.status = repo.StatusRow{ID: 1, Number: 1001, Status: entity.StatusInProgress}

	row, err := f.svc.ChangeStatus(context.Background(), 1, dto.ChangeStatusRequest{Status: "completed"})
	require.NoError(t, err)

	assert.Equal(t, []entity.OrderStatus{entity.StatusFinished}, f.orders.setCalls)
	assert.Equal(t, "FINISHED", row.Status)
	assert.Equal(t, []string{string(event.ServiceOrderStatusChanged)}, f.bus.Types())
}

func TestChangeStatus_SameStatusIsNoop(t *testing.T) {
	f := newFixture(t)
	f.orders.status = repo.StatusRow{ID: 1, Status: entity.StatusApproved}

	_, err := f.svc.ChangeStatus(context.Background(), 1, dto.ChangeStatusRequest{Status: "APPROVED"})
	require.NoError(t, err)

	assert.Empty(t, f.orders.setCalls)
	assert.Empty(t, f.bus.Messages)
}

func TestChangeStatus_UnknownStatusAndMissingOrder(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.ChangeStatus(context.Background(), 1, dto.ChangeStatusRequest{Status: "PARKED"})
	requireKind(t, err, errorbank.KindBadRequest)
	assert.Zero(t, f.tx.Calls)

	f.orders.lockErr = repo.ErrNotFound
	_, err = f.svc.ChangeStatus(context.Background(), 99, dto.ChangeStatusRequest{Status: "CANCELLED"})
	requireKind(t, err, errorbank.KindNotFound)
}

func TestList_AppliesLimitsAndStatusAliases(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.List(context.Background(), dto.OrderFilter{})
	require.NoError(t, err)
	assert.Equal(t, 100, f.orders.listFilter.Limit)

	_, err = f.svc.List(context.Background(), dto.OrderFilter{Limit: 10000, Statuses: []string{"open", "COMPLETED"}})
	require.NoError(t, err)
	assert.Equal(t, 500, f.orders.listFilter.Limit)
	assert.Equal(t, []string{"OPEN", "FINISHED"}, f.orders.listFilter.Statuses)

	_, err = f.svc.List(context.Background(), dto.OrderFilter{Statuses: []string{"nope"}})
	requireKind(t, err, errorbank.KindBadRequest)
}

func TestUpdate_ValidatesAndWritesOnlyGivenFields(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Update(context.Background(), 1, dto.UpdateOrderRequest{})
	requireKind(t, err, errorbank.KindBadRequest)

	negative := dto.IntOf(-5)
	_, err = f.svc.Update(context.Background(), 1, dto.UpdateOrderRequest{KM: &negative})
	requireKind(t, err, errorbank.KindBadRequest)

	km := dto.IntOf(61000)
	mechanic := "Carlos"
	_, err = f.svc.Update(context.Background(), 1, dto.UpdateOrderRequest{KM: &km, Mechanic: &mechanic})
	require.NoError(t, err)
	require.NotNil(t, f.orders.details)
	assert.Equal(t, 61000, *f.orders.details.KM)
	assert.Equal(t, "Carlos", *f.orders.details.Mechanic)
	assert.Nil(t, f.orders.details.ClientReport)
}

func TestGet_NotFound(t *testing.T) {
	f := newFixture(t)
	f.orders.getFn = func(int64) (*dto.OrderRow, error) { return nil, repo.ErrNotFound }

	_, err := f.svc.Get(context.Background(), 5)
	requireKind(t, err, errorbank.KindNotFound)
}
