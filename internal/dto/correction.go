package dto

import "github.com/SscSPs/property_ledger/internal/core/domain"

// CorrectionResult reports what a termination or forfeiture posted.
type CorrectionResult struct {
	ObligationID      string                `json:"obligationID"`
	State             domain.LifecycleState `json:"state"`
	ReversedEntryIDs  []string              `json:"reversedEntryIDs,omitempty"`
	ForfeitureEntryID string                `json:"forfeitureEntryID,omitempty"`
	// AlreadyApplied is true when a previous run had already made every change.
	AlreadyApplied bool `json:"alreadyApplied"`
}

// AccrualResult reports the entries an accrual of one obligation posted.
type AccrualResult struct {
	ObligationID string   `json:"obligationID"`
	Created      []string `json:"created,omitempty"`
	Skipped      []string `json:"skipped,omitempty"`
	Applied      []string `json:"applied,omitempty"`
}
