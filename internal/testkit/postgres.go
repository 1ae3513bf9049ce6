package testkit

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Additional-Code/oficina/internal/config"
	"github.com/Additional-Code/oficina/internal/database"
	"github.com/Additional-Code/oficina/internal/migration"
)

// DSNEnv names the variable that enables the Postgres-backed tests.
const DSNEnv = "OFICINA_TEST_DSN"

// OpenDB connects to the test database, applies migrations and empties every
// table. The test is skipped when DSNEnv is unset.
func OpenDB(t *testing.T) *database.Connections {
	t.Helper()

	dsn := os.Getenv(DSNEnv)
	if dsn == "" {
		t.Skipf("%s not set; skipping integration test", DSNEnv)
	}

	conns, err := database.Open(config.Database{DSN: dsn, MaxOpenConns: 5, QueryTimeout: 10 * time.Second}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = conns.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	require.NoError(t, conns.Ping(ctx))

	mig, err := migration.New(conns, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, mig.Up(ctx))

	_, err = conns.Writer.ExecContext(ctx, `TRUNCATE
		sale_items, sales, quotation_items, quotations, finance_transactions, cost_centers,
		stock_movements, parts, suppliers, service_orders, vehicles, clients, users, legacy_orders
		RESTART IDENTITY CASCADE`)
	require.NoError(t, err)

	return conns
}
