package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/property_ledger/internal/core/domain"
)

// EntryReader defines read operations for ledger entries
type EntryReader interface {
	// FindEntryByID retrieves a specific entry by its unique identifier.
	FindEntryByID(ctx context.Context, entryID string) (*domain.LedgerEntry, error)

	// ListEntries returns the entries matching filter in ledger order (date, postedAt, id).
	// When filter.Limit is positive the result is paginated and a token for the next page is
	// returned; a nil token means there are no more entries.
	ListEntries(ctx context.Context, filter domain.EntryFilter) ([]domain.LedgerEntry, *string, error)
}

// EntryWriter defines write operations for ledger entries
type EntryWriter interface {
	// SaveEntry persists an entry and all of its lines atomically. When the entry reverses
	// another, the original's ReversedBy link is set in the same write.
	// Returns apperrors.ErrDuplicate if the id exists or the original is already reversed.
	SaveEntry(ctx context.Context, entry domain.LedgerEntry) error

	// SaveEntries persists several entries in one atomic write: either all are stored or none.
	SaveEntries(ctx context.Context, entries []domain.LedgerEntry) error

	// UpdateEntryStatus flips the status of an entry, recording the reason and time.
	UpdateEntryStatus(ctx context.Context, entryID string, status domain.EntryStatus, reason string, at time.Time) error
}

// LedgerRepositoryFacade combines all ledger repository interfaces
type LedgerRepositoryFacade interface {
	EntryReader
	EntryWriter
}
