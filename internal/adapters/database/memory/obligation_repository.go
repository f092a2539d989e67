package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/SscSPs/property_ledger/internal/apperrors"
	"github.com/SscSPs/property_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/property_ledger/internal/core/ports/repositories"
)

// ObligationRepository is an in-process obligation source.
type ObligationRepository struct {
	mu          sync.RWMutex
	obligations map[string]domain.Obligation
}

// NewObligationRepository creates a source holding obligations.
func NewObligationRepository(obligations ...domain.Obligation) *ObligationRepository {
	r := &ObligationRepository{obligations: make(map[string]domain.Obligation)}
	for _, o := range obligations {
		r.obligations[o.ObligationID] = o
	}
	return r
}

var _ portsrepo.ObligationRepositoryFacade = (*ObligationRepository)(nil)

// SaveObligation inserts or replaces an obligation.
func (r *ObligationRepository) SaveObligation(ctx context.Context, obligation domain.Obligation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.obligations[obligation.ObligationID] = obligation
	return nil
}

// GetObligation returns one obligation.
func (r *ObligationRepository) GetObligation(ctx context.Context, obligationID string) (*domain.Obligation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.obligations[obligationID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &o, nil
}

// ListActiveObligations returns obligations covering period, ordered by id.
func (r *ObligationRepository) ListActiveObligations(ctx context.Context, period domain.Period) ([]domain.Obligation, error) {
	return r.list(func(o domain.Obligation) bool { return o.ActiveIn(period) }), nil
}

// ListUnoccupiedObligations returns leases never occupied that started by startedBy.
func (r *ObligationRepository) ListUnoccupiedObligations(ctx context.Context, startedBy time.Time) ([]domain.Obligation, error) {
	return r.list(func(o domain.Obligation) bool {
		return o.Kind == domain.KindLease && !o.IsOccupied() && !o.StartDate.After(startedBy)
	}), nil
}

// RecordActualEndDate stores the actual end date.
func (r *ObligationRepository) RecordActualEndDate(ctx context.Context, obligationID string, actualEnd time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.obligations[obligationID]
	if !ok {
		return apperrors.ErrNotFound
	}
	end := actualEnd
	o.ActualEndDate = &end
	r.obligations[obligationID] = o
	return nil
}

func (r *ObligationRepository) list(keep func(domain.Obligation) bool) []domain.Obligation {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Obligation, 0)
	for _, o := range r.obligations {
		if keep(o) {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ObligationID < out[j].ObligationID })
	return out
}
