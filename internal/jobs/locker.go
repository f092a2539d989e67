// Package jobs runs the scheduled ledger jobs under per-job run-locks, so a run never starts
// while the previous run of the same job is still active.
package jobs

import (
	"context"
	"time"
)

// Job names double as run-lock keys.
const (
	JobAccrualRun       = "accrual-run"
	JobAbandonmentSweep = "abandonment-sweep"
)

// Lock is a held run-lock.
type Lock interface {
	// Release frees the lock if it is still held by this holder.
	Release(ctx context.Context) error
}

// Locker hands out run-locks keyed by job name.
type Locker interface {
	// Acquire takes the lock for key, expiring after ttl unless released first.
	// Returns apperrors.ErrJobRunning while another holder has it.
	Acquire(ctx context.Context, key string, ttl time.Duration) (Lock, error)
}
