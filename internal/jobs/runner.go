package jobs

import (
	"context"
	"time"

	"github.com/SscSPs/property_ledger/internal/core/domain"
	portssvc "github.com/SscSPs/property_ledger/internal/core/ports/services"
	"go.uber.org/zap"
)

// Runner executes the accrual run and the abandonment sweep, each under its own run-lock.
type Runner struct {
	accrual    portssvc.AccrualSvc
	correction portssvc.CorrectionSvc
	locker     Locker
	ttl        time.Duration
	logger     *zap.Logger
}

// NewRunner creates a job runner. ttl bounds how long a crashed run can keep its lock.
func NewRunner(accrual portssvc.AccrualSvc, correction portssvc.CorrectionSvc, locker Locker, ttl time.Duration, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		accrual:    accrual,
		correction: correction,
		locker:     locker,
		ttl:        ttl,
		logger:     logger,
	}
}

// RunAccruals accrues every active obligation for period.
func (r *Runner) RunAccruals(ctx context.Context, period domain.Period) (*domain.BatchResult, error) {
	return r.run(ctx, JobAccrualRun, []zap.Field{zap.Stringer("period", period)}, func(ctx context.Context) (*domain.BatchResult, error) {
		return r.accrual.RunAccrualsForPeriod(ctx, period)
	})
}

// SweepAbandoned forfeits the obligations abandoned as of asOf.
func (r *Runner) SweepAbandoned(ctx context.Context, asOf time.Time) (*domain.BatchResult, error) {
	return r.run(ctx, JobAbandonmentSweep, []zap.Field{zap.Time("as_of", asOf)}, func(ctx context.Context) (*domain.BatchResult, error) {
		return r.correction.SweepAbandoned(ctx, asOf)
	})
}

func (r *Runner) run(ctx context.Context, job string, fields []zap.Field, fn func(context.Context) (*domain.BatchResult, error)) (*domain.BatchResult, error) {
	log := r.logger.With(append(fields, zap.String("job", job))...)

	lock, err := r.locker.Acquire(ctx, job, r.ttl)
	if err != nil {
		log.Warn("Job not started", zap.Error(err))
		return nil, err
	}
	defer func() {
		// Release on a fresh context so a cancelled run still frees its lock.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := lock.Release(releaseCtx); err != nil {
			log.Error("Failed to release run-lock", zap.Error(err))
		}
	}()

	started := time.Now()
	log.Info("Job started")
	result, err := fn(ctx)
	if err != nil {
		log.Error("Job failed", zap.Error(err), zap.Duration("elapsed", time.Since(started)))
		return nil, err
	}
	log.Info("Job finished",
		zap.Int("total", result.Total),
		zap.Int("created", result.Created),
		zap.Int("skipped", result.Skipped),
		zap.Int("errors", result.Errors),
		zap.Duration("elapsed", time.Since(started)))
	return result, nil
}
