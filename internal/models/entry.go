package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerEntry is the ledger_entries row. Period columns hold YYYY-MM strings and the typed
// metadata is kept whole in a jsonb column; the scalar copies exist for filtering.
type LedgerEntry struct {
	EntryID      string     `json:"entryID"`      // Primary Key
	EntryDate    time.Time  `json:"entryDate"`    // Not Null
	PostedAt     time.Time  `json:"postedAt"`     // Not Null
	Source       string     `json:"source"`       // Not Null
	Status       string     `json:"status"`       // Not Null
	Description  string     `json:"description"`  // Not Null
	EntityID     *string    `json:"entityID"`     // Nullable
	PropertyID   *string    `json:"propertyID"`   // Nullable
	ObligationID *string    `json:"obligationID"` // Nullable
	MonthKey     *string    `json:"monthKey"`     // Nullable
	MonthSettled *string    `json:"monthSettled"` // Nullable
	PaymentID    *string    `json:"paymentID"`    // Nullable
	ReversalOf   *string    `json:"reversalOf"`   // Nullable, unique
	ReversedBy   *string    `json:"reversedBy"`   // Nullable
	VoidReason   *string    `json:"voidReason"`   // Nullable
	VoidedAt     *time.Time `json:"voidedAt"`     // Nullable
	Metadata     []byte     `json:"metadata"`     // jsonb
	AuditFields
}

// LedgerLine is the ledger_lines row.
type LedgerLine struct {
	EntryID     string          `json:"entryID"` // FK -> ledger_entries.entry_id
	LineNo      int             `json:"lineNo"`
	AccountCode string          `json:"accountCode"`
	AccountType string          `json:"accountType"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Description string          `json:"description"`
}
