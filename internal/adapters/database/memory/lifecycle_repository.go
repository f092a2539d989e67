package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/SscSPs/property_ledger/internal/apperrors"
	"github.com/SscSPs/property_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/property_ledger/internal/core/ports/repositories"
)

// LifecycleRepository keeps obligation lifecycle records in process.
type LifecycleRepository struct {
	mu      sync.Mutex
	records map[string]domain.ObligationLifecycle
}

// NewLifecycleRepository creates an empty lifecycle store.
func NewLifecycleRepository() *LifecycleRepository {
	return &LifecycleRepository{records: make(map[string]domain.ObligationLifecycle)}
}

var _ portsrepo.LifecycleRepository = (*LifecycleRepository)(nil)

// GetLifecycle returns the stored record.
func (r *LifecycleRepository) GetLifecycle(ctx context.Context, obligationID string) (*domain.ObligationLifecycle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	lc, ok := r.records[obligationID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &lc, nil
}

// SaveLifecycle stores lc when the stored version matches expectedVersion.
func (r *LifecycleRepository) SaveLifecycle(ctx context.Context, lc domain.ObligationLifecycle, expectedVersion int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current := r.records[lc.ObligationID].Version
	if current != expectedVersion {
		return fmt.Errorf("lifecycle of %s is at version %d, expected %d: %w", lc.ObligationID, current, expectedVersion, apperrors.ErrConflict)
	}
	r.records[lc.ObligationID] = lc
	return nil
}
