package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/property_ledger/internal/core/domain"
)

// ObligationSource is the read side of the lease and expense records the ledger accrues from.
type ObligationSource interface {
	// GetObligation retrieves one obligation by id.
	GetObligation(ctx context.Context, obligationID string) (*domain.Obligation, error)

	// ListActiveObligations returns the obligations whose term covers period.
	ListActiveObligations(ctx context.Context, period domain.Period) ([]domain.Obligation, error)

	// ListUnoccupiedObligations returns lease obligations never occupied that started on or
	// before startedBy.
	ListUnoccupiedObligations(ctx context.Context, startedBy time.Time) ([]domain.Obligation, error)

	// RecordActualEndDate stores the actual end of an obligation that terminated early.
	RecordActualEndDate(ctx context.Context, obligationID string, actualEnd time.Time) error
}

// ObligationWriter registers obligations with the source.
type ObligationWriter interface {
	SaveObligation(ctx context.Context, obligation domain.Obligation) error
}

// ObligationRepositoryFacade combines obligation read and write operations
type ObligationRepositoryFacade interface {
	ObligationSource
	ObligationWriter
}
