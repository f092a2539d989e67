package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/SscSPs/property_ledger/internal/apperrors"
	"github.com/SscSPs/property_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/property_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/property_ledger/internal/utils/pagination"
)

// LedgerRepository keeps entries in process. Every read returns deep copies, so callers
// see a consistent snapshot and can never mutate stored entries.
type LedgerRepository struct {
	mu      sync.RWMutex
	entries map[string]domain.LedgerEntry
	order   []string
}

// NewLedgerRepository creates an empty in-memory ledger.
func NewLedgerRepository() *LedgerRepository {
	return &LedgerRepository{entries: make(map[string]domain.LedgerEntry)}
}

var _ portsrepo.LedgerRepositoryFacade = (*LedgerRepository)(nil)

// SaveEntry stores entry and, for a reversal, links the original in the same critical section.
func (r *LedgerRepository) SaveEntry(ctx context.Context, entry domain.LedgerEntry) error {
	return r.SaveEntries(ctx, []domain.LedgerEntry{entry})
}

// SaveEntries stores every entry or none of them.
func (r *LedgerRepository) SaveEntries(ctx context.Context, entries []domain.LedgerEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Validate the whole batch against the current state before touching it.
	seen := make(map[string]bool, len(entries))
	reversed := make(map[string]string)
	for _, entry := range entries {
		if _, ok := r.entries[entry.EntryID]; ok || seen[entry.EntryID] {
			return fmt.Errorf("entry %s: %w", entry.EntryID, apperrors.ErrDuplicate)
		}
		seen[entry.EntryID] = true
		originalID := entry.ReversalOf()
		if originalID == "" {
			continue
		}
		original, ok := r.entries[originalID]
		if !ok {
			return fmt.Errorf("reversed entry %s: %w", originalID, apperrors.ErrNotFound)
		}
		if original.ReversedBy != "" || reversed[originalID] != "" {
			return fmt.Errorf("entry %s already reversed: %w", originalID, apperrors.ErrDuplicate)
		}
		reversed[originalID] = entry.EntryID
	}

	for _, entry := range entries {
		if originalID := entry.ReversalOf(); originalID != "" {
			original := r.entries[originalID]
			original.ReversedBy = entry.EntryID
			original.LastUpdatedAt = entry.PostedAt
			r.entries[originalID] = original
		}
		r.entries[entry.EntryID] = entry.Clone()
		r.order = append(r.order, entry.EntryID)
	}
	return nil
}

// FindEntryByID returns a copy of the stored entry.
func (r *LedgerRepository) FindEntryByID(ctx context.Context, entryID string) (*domain.LedgerEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[entryID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	c := e.Clone()
	return &c, nil
}

// ListEntries returns matching entries in ledger order.
func (r *LedgerRepository) ListEntries(ctx context.Context, filter domain.EntryFilter) ([]domain.LedgerEntry, *string, error) {
	var cursor *pagination.Cursor
	if filter.NextToken != nil && *filter.NextToken != "" {
		c, err := pagination.DecodeToken(*filter.NextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
		cursor = &c
	}

	r.mu.RLock()
	out := make([]domain.LedgerEntry, 0)
	for _, id := range r.order {
		e := r.entries[id]
		if filter.Matches(e) {
			out = append(out, e.Clone())
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return domain.EntryOrderLess(out[i], out[j]) })

	if cursor != nil {
		start := sort.Search(len(out), func(i int) bool {
			return cursor.After(out[i].Date, out[i].PostedAt, out[i].EntryID)
		})
		out = out[start:]
	}

	if filter.Limit <= 0 || len(out) <= filter.Limit {
		return out, nil, nil
	}
	page := out[:filter.Limit]
	last := page[len(page)-1]
	token := pagination.EncodeToken(pagination.Cursor{Date: last.Date, PostedAt: last.PostedAt, EntryID: last.EntryID})
	return page, &token, nil
}

// UpdateEntryStatus flips the status of a stored entry.
func (r *LedgerRepository) UpdateEntryStatus(ctx context.Context, entryID string, status domain.EntryStatus, reason string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[entryID]
	if !ok {
		return apperrors.ErrNotFound
	}
	e.Status = status
	e.LastUpdatedAt = at
	if status == domain.Voided {
		e.VoidReason = reason
		voidedAt := at
		e.VoidedAt = &voidedAt
	}
	r.entries[entryID] = e
	return nil
}
