package services

import (
	"context"
	"time"

	"github.com/SscSPs/property_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// LedgerReaderSvc defines read operations for ledger entries
type LedgerReaderSvc interface {
	// GetEntry retrieves a specific entry by its ID.
	GetEntry(ctx context.Context, entryID string) (*domain.LedgerEntry, error)

	// Query returns the entries matching filter in ledger order, paginated when filter.Limit is set.
	Query(ctx context.Context, filter domain.EntryFilter) ([]domain.LedgerEntry, *string, error)
}

// LedgerWriterSvc defines write operations for ledger entries
type LedgerWriterSvc interface {
	// Append validates and posts entry and returns its id. Appending an id that already
	// exists is a no-op success; created reports whether this call stored the entry.
	Append(ctx context.Context, entry domain.LedgerEntry) (id string, created bool, err error)

	// AppendAll validates every entry and posts the new ones in a single atomic write.
	// created is false when every entry already existed.
	AppendAll(ctx context.Context, entries []domain.LedgerEntry) (ids []string, created bool, err error)

	// VoidEntry marks a posted entry voided. It does not post a compensating entry.
	VoidEntry(ctx context.Context, entryID string, reason string) error
}

// LedgerCalculatorSvc defines balance calculations over the ledger
type LedgerCalculatorSvc interface {
	// AccountBalance returns the normal-side balance of code from posted entries dated on or
	// before asOf. A bare root code includes all of its sub-ledgers.
	AccountBalance(ctx context.Context, code string, asOf time.Time) (decimal.Decimal, error)

	// EntityBalance returns the balance of rootCode-entityID as of period: accruals count by
	// their month key and settlement payments by the month they settle, never by date.
	EntityBalance(ctx context.Context, rootCode, entityID string, period domain.Period) (decimal.Decimal, error)
}

// LedgerSvcFacade combines all ledger service interfaces
type LedgerSvcFacade interface {
	LedgerReaderSvc
	LedgerWriterSvc
	LedgerCalculatorSvc
}
