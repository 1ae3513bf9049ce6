package legacy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Additional-Code/oficina/internal/dto"
	"github.com/Additional-Code/oficina/internal/entity"
	repo "github.com/Additional-Code/oficina/internal/repository/legacy"
	"github.com/Additional-Code/oficina/internal/testkit"
	"github.com/Additional-Code/oficina/internal/validation"
	"github.com/Additional-Code/oficina/pkg/errorbank"
)

type fakeLegacy struct {
	rows      []entity.LegacyOrder
	createErr error
	search    string
	limit     int
}

func (f *fakeLegacy) Create(_ context.Context, o *entity.LegacyOrder) error {
	if f.createErr != nil {
		return f.createErr
	}
	o.ID = int64(len(f.rows) + 1)
	f.rows = append(f.rows, *o)
	return nil
}

func (f *fakeLegacy) GetByID(_ context.Context, id int64) (*entity.LegacyOrder, error) {
	if id <= 0 || id > int64(len(f.rows)) {
		return nil, repo.ErrNotFound
	}
	o := f.rows[id-1]
	return &o, nil
}

func (f *fakeLegacy) List(_ context.Context, search string, limit int) ([]entity.LegacyOrder, error) {
	f.search, f.limit = search, limit
	return f.rows, nil
}

func TestParseAmount(t *testing.T) {
	cases := map[string]string{
		"":             "0",
		"350":          "350",
		"1234.5":       "1234.5",
		"1.234,50":     "1234.5",
		"R$ 89,90":     "89.9",
		" 10.005 ":     "10.01",
		"12.345.678,9": "12345678.9",
	}
	for in, want := range cases {
		got, err := ParseAmount(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got.String(), in)
	}

	_, err := ParseAmount("dez reais")
	assert.Error(t, err)
}

func TestCreate_Normalizes(t *testing.T) {
	store := &fakeLegacy{}
	svc := newService(store, validation.New(), zap.NewNop())
	date, err := dto.ParseDate("2019-08-14")
	require.NoError(t, err)

	o, err := svc.Create(context.Background(), dto.LegacyOrderRequest{
		LegacyNumber: " 4471 ", ClientName: "José Lima", VehiclePlate: "abc-1d23",
		ServiceDate: date, Total: "1.250,00",
	})
	require.NoError(t, err)

	assert.Equal(t, "4471", o.LegacyNumber)
	require.NotNil(t, o.VehiclePlate)
	assert.Equal(t, "ABC1D23", *o.VehiclePlate)
	assert.Equal(t, "1250", o.Total.String())
	require.NotNil(t, o.ServiceDate)
	assert.Nil(t, o.Notes)
}

func TestCreate_Errors(t *testing.T) {
	svc := newService(&fakeLegacy{}, validation.New(), zap.NewNop())

	_, err := svc.Create(context.Background(), dto.LegacyOrderRequest{LegacyNumber: "1", ClientName: "X", Total: "abc"})
	var appErr *errorbank.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, []string{"total"}, appErr.FieldNames())

	_, err = svc.Create(context.Background(), dto.LegacyOrderRequest{})
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, []string{"clientName", "legacyNumber"}, appErr.FieldNames())

	dup := newService(&fakeLegacy{createErr: testkit.PGError{Code: "23505"}}, validation.New(), zap.NewNop())
	_, err = dup.Create(context.Background(), dto.LegacyOrderRequest{LegacyNumber: "1", ClientName: "X"})
	assert.True(t, errorbank.IsKind(err, errorbank.KindConflict))
}

func TestListAndGet(t *testing.T) {
	store := &fakeLegacy{}
	svc := newService(store, validation.New(), zap.NewNop())

	_, err := svc.List(context.Background(), "jose", 0)
	require.NoError(t, err)
	assert.Equal(t, "jose", store.search)
	assert.Equal(t, defaultListLimit, store.limit)

	_, err = svc.Get(context.Background(), 1)
	assert.True(t, errorbank.IsKind(err, errorbank.KindNotFound))
}
