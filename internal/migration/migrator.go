package migration

import (
	"context"
	"errors"
	"strings"

	"github.com/pressly/goose/v3"
	"github.com/uptrace/bun"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/oficina/db/migrations"
	"github.com/Additional-Code/oficina/internal/database"
)

// Module provides the migrator to Fx.
var Module = fx.Provide(New)

// Migrator applies the embedded goose migrations.
type Migrator struct {
	db     *bun.DB
	logger *zap.Logger
}

// New constructs a goose-backed migrator over the writer pool.
func New(conns *database.Connections, logger *zap.Logger) (*Migrator, error) {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return nil, err
	}
	goose.SetLogger(zapGooseLogger{logger: logger.Sugar()})

	return &Migrator{db: conns.Writer, logger: logger}, nil
}

// Up applies all pending migrations.
func (m *Migrator) Up(ctx context.Context) error {
	if err := goose.UpContext(ctx, m.db.DB, migrations.Dir); err != nil {
		if isNoMigrationErr(err) {
			m.logger.Info("no migrations to apply")
			return nil
		}
		return err
	}

	m.logger.Info("migrations applied", zap.Int64("version", m.version()))
	return nil
}

// Down rolls back migrations. Steps <=0 defaults to 1; all=true rolls everything back.
func (m *Migrator) Down(ctx context.Context, steps int, all bool) error {
	if all {
		if err := goose.DownToContext(ctx, m.db.DB, migrations.Dir, 0); err != nil {
			if isNoMigrationErr(err) {
				m.logger.Info("no migrations to rollback")
				return nil
			}
			return err
		}
		m.logger.Info("migrations rolled back", zap.String("mode", "all"))
		return nil
	}

	if steps <= 0 {
		steps = 1
	}

	for i := 0; i < steps; i++ {
		if err := goose.DownContext(ctx, m.db.DB, migrations.Dir); err != nil {
			if isNoMigrationErr(err) {
				m.logger.Info("no migrations to rollback")
				return nil
			}
			return err
		}
	}

	m.logger.Info("migrations rolled back", zap.Int("steps", steps), zap.Int64("version", m.version()))
	return nil
}

// Version reports the current schema version.
func (m *Migrator) Version() (int64, error) {
	return goose.GetDBVersion(m.db.DB)
}

func (m *Migrator) version() int64 {
	v, err := m.Version()
	if err != nil {
		return -1
	}
	return v
}

func isNoMigrationErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, goose.ErrNoNextVersion) || errors.Is(err, goose.ErrNoMigrationFiles) {
		return true
	}
	return strings.Contains(err.Error(), "no migrations")
}

type zapGooseLogger struct {
	logger *zap.SugaredLogger
}

func (l zapGooseLogger) Fatalf(format string, v ...interface{}) {
	l.logger.Fatalf(strings.TrimSpace(format), v...)
}

func (l zapGooseLogger) Printf(format string, v ...interface{}) {
	l.logger.Infof(strings.TrimSpace(format), v...)
}
