// Package job runs periodic maintenance tasks. Each run is guarded by a named
// lock so only one replica executes a job at a time.
package job

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/oficina/internal/config"
	"github.com/Additional-Code/oficina/internal/dto"
	"github.com/Additional-Code/oficina/internal/entity"
	"github.com/Additional-Code/oficina/internal/lock"
	"github.com/Additional-Code/oficina/internal/service/finance"
	"github.com/Additional-Code/oficina/internal/service/inventory"
)

var jobTracer = otel.Tracer("github.com/Additional-Code/oficina/job")

// Job names, also used as lock keys.
const (
	LowStock       = "low_stock_scan"
	OverdueFinance = "overdue_finance_sweep"
)

// Job is one named periodic task.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

type lowStockReporter interface {
	ReportLowStock(ctx context.Context) (int, error)
}

type overdueLister interface {
	Overdue(ctx context.Context) ([]dto.TransactionRow, error)
}

// Params lists the scheduler dependencies.
type Params struct {
	fx.In

	Config    config.Config
	Locker    lock.Locker
	Inventory *inventory.Service
	Finance   *finance.Service
	Logger    *zap.Logger
}

// Scheduler ticks every job on its own interval.
type Scheduler struct {
	jobs    []Job
	locker  lock.Locker
	logger  *zap.Logger
	enabled bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// Module wires the scheduler into the Fx lifecycle.
var Module = fx.Options(
	fx.Provide(NewScheduler),
	fx.Invoke(func(lc fx.Lifecycle, s *Scheduler) {
		lc.Append(fx.Hook{OnStart: s.Start, OnStop: s.Stop})
	}),
)

// NewScheduler builds the scheduler with the low-stock scan and the overdue sweep.
func NewScheduler(p Params) *Scheduler {
	jobs := []Job{
		{Name: LowStock, Interval: p.Config.Jobs.LowStockInterval, Run: LowStockScan(p.Inventory, p.Logger)},
		{Name: OverdueFinance, Interval: p.Config.Jobs.OverdueFinanceInterval, Run: OverdueSweep(p.Finance, p.Logger)},
	}
	return newScheduler(jobs, p.Locker, p.Config.Jobs.Enabled, p.Logger)
}

func newScheduler(jobs []Job, locker lock.Locker, enabled bool, logger *zap.Logger) *Scheduler {
	if locker == nil {
		locker = lock.NewLocal()
	}
	return &Scheduler{jobs: jobs, locker: locker, logger: logger, enabled: enabled}
}

// Start launches one ticker goroutine per job.
func (s *Scheduler) Start(context.Context) error {
	if !s.enabled {
		s.logger.Info("jobs disabled")
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	for _, j := range s.jobs {
		if j.Interval <= 0 || j.Run == nil {
			s.logger.Warn("job skipped; no interval", zap.String("job", j.Name))
			continue
		}
		s.wg.Add(1)
		go func(j Job) {
			defer s.wg.Done()
			s.loop(ctx, j)
		}(j)
	}
	s.logger.Info("jobs started", zap.Int("jobs", len(s.jobs)))
	return nil
}

// Stop cancels the tickers and waits for running jobs to return.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.cancel == nil {
		return nil
	}
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		s.logger.Info("jobs stopped")
		return nil
	}
}

func (s *Scheduler) loop(ctx context.Context, j Job) {
	ticker := time.NewTicker(j.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = s.RunOnce(ctx, j)
		}
	}
}

// RunOnce executes j under its lock. A run skipped because another replica
// holds the lock is not an error.
func (s *Scheduler) RunOnce(ctx context.Context, j Job) error {
	ctx, span := jobTracer.Start(ctx, "job."+j.Name, trace.WithAttributes(attribute.String("job.name", j.Name)))
	defer span.End()

	start := time.Now()
	err := s.locker.TryWithLock(ctx, lock.JobKey(j.Name), j.Run)
	switch {
	case errors.Is(err, lock.ErrNotObtained):
		span.SetAttributes(attribute.Bool("job.skipped", true))
		s.logger.Debug("job skipped; lock held elsewhere", zap.String("job", j.Name))
		return nil
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, "job failed")
		s.logger.Error("job failed", zap.String("job", j.Name), zap.Duration("duration", time.Since(start)), zap.Error(err))
		return err
	}
	s.logger.Debug("job finished", zap.String("job", j.Name), zap.Duration("duration", time.Since(start)))
	return nil
}

// LowStockScan publishes a stock.low event for every part at or below minimum.
func LowStockScan(inv lowStockReporter, logger *zap.Logger) func(context.Context) error {
	return func(ctx context.Context) error {
		n, err := inv.ReportLowStock(ctx)
		if err != nil {
			return err
		}
		if n > 0 {
			logger.Info("low stock parts reported", zap.Int("parts", n))
		}
		return nil
	}
}

// OverdueSweep logs pending entries past their due date.
func OverdueSweep(fin overdueLister, logger *zap.Logger) func(context.Context) error {
	return func(ctx context.Context) error {
		rows, err := fin.Overdue(ctx)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}

		receivable, payable := decimal.Zero, decimal.Zero
		for _, r := range rows {
			if r.Type == string(entity.Income) {
				receivable = receivable.Add(r.Amount)
			} else {
				payable = payable.Add(r.Amount)
			}
		}
		logger.Warn("overdue finance entries",
			zap.Int("entries", len(rows)),
			zap.String("receivable", receivable.StringFixed(2)),
			zap.String("payable", payable.StringFixed(2)),
		)
		return nil
	}
}
