package services

import (
	"context"
	"time"

	"github.com/SscSPs/property_ledger/internal/core/domain"
	"github.com/SscSPs/property_ledger/internal/dto"
)

// CorrectionSvc drives an obligation through the end of its lifecycle.
type CorrectionSvc interface {
	// TerminateEarly reverses every accrual dated after actualEnd and records the end date.
	TerminateEarly(ctx context.Context, obligationID string, actualEnd time.Time) (*dto.CorrectionResult, error)

	// Forfeit reclassifies everything the entity paid toward an abandoned obligation as
	// forfeited income.
	Forfeit(ctx context.Context, obligationID string, asOf time.Time) (*dto.CorrectionResult, error)

	// CompleteOnSchedule marks an obligation that ran its full term.
	CompleteOnSchedule(ctx context.Context, obligationID string, asOf time.Time) (*dto.CorrectionResult, error)

	// Close closes an ended obligation.
	Close(ctx context.Context, obligationID string) (*dto.CorrectionResult, error)

	// SweepAbandoned forfeits every obligation never occupied within the grace period.
	SweepAbandoned(ctx context.Context, asOf time.Time) (*domain.BatchResult, error)
}
