package inventory

import (
	"bytes"
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/Additional-Code/oficina/internal/dto"
	"github.com/Additional-Code/oficina/internal/entity"
	"github.com/Additional-Code/oficina/internal/event"
	"github.com/Additional-Code/oficina/internal/export"
	"github.com/Additional-Code/oficina/internal/lock"
	repo "github.com/Additional-Code/oficina/internal/repository/inventory"
	"github.com/Additional-Code/oficina/internal/testkit"
	"github.com/Additional-Code/oficina/internal/validation"
	"github.com/Additional-Code/oficina/pkg/errorbank"
)

type fakeParts struct {
	rows      map[int64]entity.Part
	movements []entity.StockMovement
	listed    []dto.PartStockRow
	filter    dto.PartFilter
	createErr error
}

func newFakeParts(parts ...entity.Part) *fakeParts {
	f := &fakeParts{rows: map[int64]entity.Part{}}
	for _, p := range parts {
		f.rows[p.ID] = p
	}
	return f
}

func (f *fakeParts) Create(_ context.Context, p *entity.Part) error {
	if f.createErr != nil {
		return f.createErr
	}
	p.ID = int64(len(f.rows) + 1)
	f.rows[p.ID] = *p
	return nil
}

func (f *fakeParts) Update(_ context.Context, p *entity.Part) error {
	cur, ok := f.rows[p.ID]
	if !ok {
		return repo.ErrNotFound
	}
	p.Stock = cur.Stock
	f.rows[p.ID] = *p
	return nil
}

func (f *fakeParts) GetByID(_ context.Context, id int64) (*entity.Part, error) {
	p, ok := f.rows[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return &p, nil
}

func (f *fakeParts) List(_ context.Context, filter dto.PartFilter) ([]dto.PartStockRow, error) {
	f.filter = filter
	return f.listed, nil
}

func (f *fakeParts) Lock(ctx context.Context, _ bun.IDB, id int64) (*entity.Part, error) {
	return f.GetByID(ctx, id)
}

func (f *fakeParts) SetStock(_ context.Context, _ bun.IDB, id int64, stock int) error {
	p := f.rows[id]
	p.Stock = stock
	f.rows[id] = p
	return nil
}

func (f *fakeParts) InsertMovement(_ context.Context, _ bun.IDB, m *entity.StockMovement) error {
	m.ID = int64(len(f.movements) + 1)
	f.movements = append(f.movements, *m)
	return nil
}

func (f *fakeParts) Movements(_ context.Context, partID int64, _ int) ([]entity.StockMovement, error) {
	var out []entity.StockMovement
	for _, m := range f.movements {
		if m.PartID == partID {
			out = append(out, m)
		}
	}
	return out, nil
}

type fixture struct {
	parts *fakeParts
	tx    *testkit.Tx
	bus   *testkit.Bus
	svc   *Service
}

func newFixture(parts ...entity.Part) *fixture {
	f := &fixture{parts: newFakeParts(parts...), tx: &testkit.Tx{}, bus: &testkit.Bus{}}
	f.svc = newService(f.parts, f.tx, lock.NewLocal(), event.NewPublisher(f.bus, zap.NewNop()), nil, validation.New(), zap.NewNop())
	return f
}

var oilFilter = entity.Part{ID: 1, SKU: "FLT-001", Name: "Filtro de óleo", Stock: 10, MinStock: 3}

func TestMove_InAndOutRecordHistory(t *testing.T) {
	f := newFixture(oilFilter)
	ctx := context.Background()

	m, err := f.svc.Move(ctx, 1, dto.MovementRequest{Type: "in", Quantity: 5, Reason: "purchase"})
	require.NoError(t, err)
	assert.Equal(t, 10, m.PreviousStock)
	assert.Equal(t, 15, m.NewStock)

	m, err = f.svc.Move(ctx, 1, dto.MovementRequest{Type: "OUT", Quantity: 4, Reason: "OS 1001"})
	require.NoError(t, err)
	assert.Equal(t, 11, m.NewStock)

	assert.Equal(t, 11, f.parts.rows[1].Stock)
	require.Len(t, f.parts.movements, 2)
	assert.Equal(t, entity.MovementIn, f.parts.movements[0].Type)
	assert.Empty(t, f.bus.Messages)
}

func TestMove_RefusesNegativeStock(t *testing.T) {
	f := newFixture(oilFilter)

	_, err := f.svc.Move(context.Background(), 1, dto.MovementRequest{Type: "OUT", Quantity: 11, Reason: "sale"})

	require.True(t, errorbank.IsKind(err, errorbank.KindUnprocessableEntity))
	assert.Equal(t, 10, f.parts.rows[1].Stock)
	assert.Empty(t, f.parts.movements)
	assert.Equal(t, 1, f.tx.Rollbacks)
}

func TestMove_AdjustSetsAbsoluteAndFlagsLow(t *testing.T) {
	f := newFixture(oilFilter)

	m, err := f.svc.Move(context.Background(), 1, dto.MovementRequest{Type: "ADJUST", Quantity: 2, Reason: "count"})
	require.NoError(t, err)

	assert.Equal(t, 2, m.NewStock)
	assert.Equal(t, []string{string(event.StockLow)}, f.bus.Types())
}

func TestMove_ZeroQuantityOnlyForAdjust(t *testing.T) {
	f := newFixture(oilFilter)

	_, err := f.svc.Move(context.Background(), 1, dto.MovementRequest{Type: "IN", Quantity: 0, Reason: "x"})
	require.True(t, errorbank.IsKind(err, errorbank.KindBadRequest))
	assert.Zero(t, f.tx.Calls)

	m, err := f.svc.Move(context.Background(), 1, dto.MovementRequest{Type: "ADJUST", Quantity: 0, Reason: "lost"})
	require.NoError(t, err)
	assert.Equal(t, 0, m.NewStock)
}

func TestMove_UnknownPart(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Move(context.Background(), 9, dto.MovementRequest{Type: "IN", Quantity: 1, Reason: "x"})

	assert.True(t, errorbank.IsKind(err, errorbank.KindNotFound))
}

func TestCreate_NormalizesAndMapsDuplicateSKU(t *testing.T) {
	f := newFixture()

	p, err := f.svc.Create(context.Background(), dto.PartRequest{
		SKU: " pst-9 ", Name: "Pastilha", Price: decimal.RequireFromString("89.999"), Stock: 4, MinStock: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, "PST-9", p.SKU)
	assert.Equal(t, "UN", p.Unit)
	assert.Equal(t, 4, p.Stock)
	assert.True(t, decimal.RequireFromString("90").Equal(p.Price))

	f.parts.createErr = testkit.PGError{Code: "23505", ConstraintName: "parts_sku_key"}
	_, err = f.svc.Create(context.Background(), dto.PartRequest{SKU: "PST-9", Name: "Pastilha"})
	var appErr *errorbank.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, errorbank.KindConflict, appErr.Kind())
	assert.Equal(t, []string{"sku"}, appErr.FieldNames())
}

func TestCreate_RejectsNegativePrice(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Create(context.Background(), dto.PartRequest{SKU: "A", Name: "B", Price: decimal.NewFromInt(-1)})

	var appErr *errorbank.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, []string{"price"}, appErr.FieldNames())
}

func TestReportLowStock_PublishesEachPart(t *testing.T) {
	f := newFixture()
	f.parts.listed = []dto.PartStockRow{
		{ID: 1, SKU: "A", Stock: 0, MinStock: 1},
		{ID: 2, SKU: "B", Stock: 2, MinStock: 2},
	}

	n, err := f.svc.ReportLowStock(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, n)
	assert.True(t, f.parts.filter.LowStock)
	assert.Len(t, f.bus.Messages, 2)
}

func TestExportStock_WritesWorkbook(t *testing.T) {
	f := newFixture()
	f.parts.listed = []dto.PartStockRow{{ID: 1, SKU: "A", Name: "Vela", Stock: 3, MinStock: 1}}

	var buf bytes.Buffer
	require.NoError(t, f.svc.ExportStock(context.Background(), &buf))

	book, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	rows, err := book.GetRows(export.StockSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "A", rows[1][0])
	assert.Equal(t, "Vela", rows[1][1])
}
