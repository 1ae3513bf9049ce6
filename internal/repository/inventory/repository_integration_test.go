package inventory_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	"github.com/Additional-Code/oficina/internal/database"
	"github.com/Additional-Code/oficina/internal/entity"
	"github.com/Additional-Code/oficina/internal/repository/inventory"
	"github.com/Additional-Code/oficina/internal/testkit"
)

func TestDecrement_GuardsAgainstNegativeStock(t *testing.T) {
	conns := testkit.OpenDB(t)
	ctx := context.Background()
	repo := inventory.NewRepository(conns)

	part := &entity.Part{SKU: "FLT-001", Name: "Filtro de óleo", Price: decimal.RequireFromString("39.90"), Cost: decimal.RequireFromString("21.50"), Stock: 5, MinStock: 2, Unit: "UN"}
	require.NoError(t, repo.Create(ctx, part))

	err := conns.RunInTx(ctx, func(ctx context.Context, tx bun.IDB) error {
		prev, cur, err := repo.Decrement(ctx, tx, part.ID, 3)
		require.NoError(t, err)
		assert.Equal(t, 5, prev)
		assert.Equal(t, 2, cur)
		return repo.InsertMovement(ctx, tx, &entity.StockMovement{
			PartID: part.ID, Type: entity.MovementOut, Quantity: 3, PreviousStock: prev, NewStock: cur, Reason: "venda",
		})
	})
	require.NoError(t, err)

	_, _, err = repo.Decrement(ctx, conns.Writer, part.ID, 3)
	assert.ErrorIs(t, err, inventory.ErrInsufficientStock)

	got, err := repo.GetByID(ctx, part.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Stock)
	assert.True(t, got.IsLow())

	moves, err := repo.Movements(ctx, part.ID, 10)
	require.NoError(t, err)
	require.Len(t, moves, 1)
	assert.Equal(t, entity.MovementOut, moves[0].Type)
}

func TestCreate_DuplicateSKU(t *testing.T) {
	conns := testkit.OpenDB(t)
	ctx := context.Background()
	repo := inventory.NewRepository(conns)

	part := entity.Part{SKU: "PAS-010", Name: "Pastilha", Price: decimal.NewFromInt(120), Cost: decimal.NewFromInt(70), Unit: "JG"}
	first, second := part, part
	require.NoError(t, repo.Create(ctx, &first))

	err := repo.Create(ctx, &second)
	require.Error(t, err)
	assert.True(t, database.IsUniqueViolation(err))
}
