package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

const slowQueryThreshold = 500 * time.Millisecond

type queryLogger struct {
	logger *zap.Logger
}

var _ bun.QueryHook = (*queryLogger)(nil)

func newQueryLogger(logger *zap.Logger) *queryLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &queryLogger{logger: logger.Named("sql")}
}

func (h *queryLogger) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (h *queryLogger) AfterQuery(_ context.Context, event *bun.QueryEvent) {
	elapsed := time.Since(event.StartTime)

	switch {
	case event.Err != nil && !errors.Is(event.Err, sql.ErrNoRows):
		h.logger.Debug("query failed",
			zap.String("operation", event.Operation()),
			zap.Duration("elapsed", elapsed),
			zap.String("sqlstate", SQLState(event.Err)),
			zap.Error(event.Err),
		)
	case elapsed >= slowQueryThreshold:
		h.logger.Warn("slow query",
			zap.String("operation", event.Operation()),
			zap.Duration("elapsed", elapsed),
			zap.String("query", event.Query),
		)
	}
}
