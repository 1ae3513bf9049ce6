package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/oficina/internal/config"
)

// Connections bundles writer and reader bun instances over one Postgres pool each.
type Connections struct {
	Writer *bun.DB
	Reader *bun.DB

	queryTimeout time.Duration
}

// TxFunc runs inside a transaction. Any returned error rolls it back.
type TxFunc func(ctx context.Context, tx bun.IDB) error

// Module registers the database connections with Fx.
var Module = fx.Provide(New)

// New establishes writer and reader pools; they are pinged on start and closed on stop.
func New(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) (*Connections, error) {
	conns, err := Open(cfg.Database, logger)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := conns.Ping(ctx); err != nil {
				return err
			}
			logger.Info("database connected",
				zap.Int("max_open_conns", cfg.Database.MaxOpenConns),
				zap.Bool("dedicated_reader", conns.Reader != conns.Writer),
			)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return conns.Close()
		},
	})

	return conns, nil
}

// Open builds the pools without registering lifecycle hooks.
func Open(cfg config.Database, logger *zap.Logger) (*Connections, error) {
	writerSQL, err := openSQLDB(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open writer: %w", err)
	}
	applyPoolSettings(writerSQL, cfg)

	writer := bun.NewDB(writerSQL, pgdialect.New())
	writer.AddQueryHook(newQueryLogger(logger))

	reader := writer
	if cfg.ReaderDSN != "" && cfg.ReaderDSN != cfg.DSN {
		readerSQL, err := openSQLDB(cfg.ReaderDSN)
		if err != nil {
			_ = writer.Close()
			return nil, fmt.Errorf("open reader: %w", err)
		}
		applyPoolSettings(readerSQL, cfg)
		reader = bun.NewDB(readerSQL, pgdialect.New())
		reader.AddQueryHook(newQueryLogger(logger))
	}

	return &Connections{Writer: writer, Reader: reader, queryTimeout: cfg.QueryTimeout}, nil
}

// Ping checks both pools.
func (c *Connections) Ping(ctx context.Context) error {
	if err := pingContext(ctx, c.Writer); err != nil {
		return fmt.Errorf("ping writer: %w", err)
	}
	if c.Reader != c.Writer {
		if err := pingContext(ctx, c.Reader); err != nil {
			return fmt.Errorf("ping reader: %w", err)
		}
	}
	return nil
}

// Close releases both pools.
func (c *Connections) Close() error {
	var closeErr error
	if err := c.Writer.Close(); err != nil {
		closeErr = fmt.Errorf("close writer: %w", err)
	}
	if c.Reader != c.Writer {
		if err := c.Reader.Close(); err != nil && closeErr == nil {
			closeErr = fmt.Errorf("close reader: %w", err)
		}
	}
	return closeErr
}

// WithTimeout bounds ctx by the configured query timeout.
func (c *Connections) WithTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c == nil || c.queryTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.queryTimeout)
}

// RunInTx executes fn inside a writer transaction. The transaction commits when
// fn returns nil and rolls back otherwise.
func (c *Connections) RunInTx(ctx context.Context, fn TxFunc) error {
	ctx, cancel := c.WithTimeout(ctx)
	defer cancel()

	return c.Writer.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, tx)
	})
}

func openSQLDB(dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, errors.New("empty DSN")
	}
	connector := pgdriver.NewConnector(pgdriver.WithDSN(dsn))
	return sql.OpenDB(connector), nil
}

func applyPoolSettings(db *sql.DB, cfg config.Database) {
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.MaxConnLifetime > 0 {
		db.SetConnMaxLifetime(cfg.MaxConnLifetime)
	}
	if cfg.MaxConnIdleTime > 0 {
		db.SetConnMaxIdleTime(cfg.MaxConnIdleTime)
	}
}

func pingContext(ctx context.Context, db *bun.DB) error {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return db.DB.PingContext(pingCtx)
}
