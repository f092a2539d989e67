package dto

import (
	"time"

	"github.com/SscSPs/property_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// PaymentComponent is one part of a gross payment.
type PaymentComponent struct {
	Type   domain.Component `json:"type" validate:"required,oneof=rent admin deposit"`
	Amount decimal.Decimal  `json:"amount" validate:"gt=0"`
}

// PaymentRequest is an incoming tenant payment to allocate.
type PaymentRequest struct {
	PaymentID    string             `json:"paymentID" validate:"required"`
	EntityID     string             `json:"entityID" validate:"required"`
	ObligationID string             `json:"obligationID,omitempty"`
	PropertyID   string             `json:"propertyID,omitempty"`
	Date         time.Time          `json:"date" validate:"required"`
	Gross        decimal.Decimal    `json:"gross" validate:"gt=0"`
	Components   []PaymentComponent `json:"components" validate:"dive"`
	Description  string             `json:"description,omitempty"`
}

// Allocation is the part of a payment component applied to one period.
type Allocation struct {
	Component      domain.Component      `json:"component"`
	MonthSettled   domain.Period         `json:"monthSettled"`
	AllocationType domain.AllocationType `json:"allocationType"`
	Amount         decimal.Decimal       `json:"amount"`
	EntryID        string                `json:"entryID"`
	// Created is false when the entry already existed from an earlier attempt.
	Created bool `json:"created"`
}

// AllocationResult lists the entries a payment produced.
type AllocationResult struct {
	PaymentID   string       `json:"paymentID"`
	EntityID    string       `json:"entityID"`
	Allocations []Allocation `json:"allocations"`
}

// EntryIDs returns the ids of every entry the payment produced, in allocation order.
func (r AllocationResult) EntryIDs() []string {
	ids := make([]string, 0, len(r.Allocations))
	for _, a := range r.Allocations {
		ids = append(ids, a.EntryID)
	}
	return ids
}

// ExpensePaymentRequest settles an amount owed to a vendor.
type ExpensePaymentRequest struct {
	PaymentID    string          `json:"paymentID" validate:"required"`
	VendorID     string          `json:"vendorID" validate:"required"`
	ObligationID string          `json:"obligationID,omitempty"`
	PropertyID   string          `json:"propertyID,omitempty"`
	Date         time.Time       `json:"date" validate:"required"`
	Amount       decimal.Decimal `json:"amount" validate:"gt=0"`
	// MonthSettled defaults to the period of Date when zero.
	MonthSettled domain.Period `json:"monthSettled"`
	// ExpenseAccount is the expense root the payment is recognized in on the cash basis.
	// Defaults to 5099 Other Expenses.
	ExpenseAccount string `json:"expenseAccount,omitempty"`
	Description    string `json:"description,omitempty"`
}

// ManualLine is one line of an adjusting entry.
type ManualLine struct {
	AccountCode string          `json:"accountCode" validate:"required"`
	Debit       decimal.Decimal `json:"debit" validate:"gte=0"`
	Credit      decimal.Decimal `json:"credit" validate:"gte=0"`
	Description string          `json:"description,omitempty"`
}

// ManualEntryRequest posts an adjusting entry such as an owner contribution.
type ManualEntryRequest struct {
	// EntryID makes a retried request idempotent; a random id is used when empty.
	EntryID     string            `json:"entryID,omitempty"`
	Date        time.Time         `json:"date" validate:"required"`
	Description string            `json:"description" validate:"required"`
	EntityID    string            `json:"entityID,omitempty"`
	PropertyID  string            `json:"propertyID,omitempty"`
	Lines       []ManualLine      `json:"lines" validate:"min=2,dive"`
	Extra       map[string]string `json:"extra,omitempty"`
	CreatedBy   string            `json:"createdBy,omitempty"`
}
