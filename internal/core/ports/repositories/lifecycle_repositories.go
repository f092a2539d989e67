package repositories

import (
	"context"

	"github.com/SscSPs/property_ledger/internal/core/domain"
)

// LifecycleRepository stores the lifecycle state of each obligation.
type LifecycleRepository interface {
	// GetLifecycle returns the lifecycle of an obligation, or apperrors.ErrNotFound when no
	// transition has been recorded yet (the obligation is implicitly active).
	GetLifecycle(ctx context.Context, obligationID string) (*domain.ObligationLifecycle, error)

	// SaveLifecycle stores lc if the stored version still equals expectedVersion (0 when
	// nothing is stored). Returns apperrors.ErrConflict otherwise.
	SaveLifecycle(ctx context.Context, lc domain.ObligationLifecycle, expectedVersion int) error
}
