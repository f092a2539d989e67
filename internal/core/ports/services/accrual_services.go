package services

import (
	"context"

	"github.com/SscSPs/property_ledger/internal/core/domain"
	"github.com/SscSPs/property_ledger/internal/dto"
)

// AccrualSvc recognizes obligations in the ledger period by period.
type AccrualSvc interface {
	// AccrueObligation posts the accruals obligation owes for period, skipping any that exist.
	AccrueObligation(ctx context.Context, obligation domain.Obligation, period domain.Period) (*dto.AccrualResult, error)

	// AccrueThrough backfills every period from the obligation start up to through.
	AccrueThrough(ctx context.Context, obligation domain.Obligation, through domain.Period) (*dto.AccrualResult, error)

	// RunAccrualsForPeriod accrues every active obligation for period. Per-obligation
	// failures are reported in the result and do not stop the run.
	RunAccrualsForPeriod(ctx context.Context, period domain.Period) (*domain.BatchResult, error)
}
