package domain

import "github.com/shopspring/decimal"

// OutstandingItem is what an entity owes for one component of one period.
type OutstandingItem struct {
	Period      Period          `json:"period"`
	Component   Component       `json:"component"`
	Accrued     decimal.Decimal `json:"accrued"`
	Reversed    decimal.Decimal `json:"reversed"`
	Settled     decimal.Decimal `json:"settled"`
	Outstanding decimal.Decimal `json:"outstanding"`
}

// AdvanceBalance is the unapplied part of an advance payment.
type AdvanceBalance struct {
	EntryID      string          `json:"entryID"`
	PaymentID    string          `json:"paymentID"`
	Component    Component       `json:"component"`
	MonthSettled Period          `json:"monthSettled"`
	Amount       decimal.Decimal `json:"amount"`
	Remaining    decimal.Decimal `json:"remaining"`
}

// OutstandingView is an entity's receivable position, oldest period first.
type OutstandingView struct {
	EntityID string            `json:"entityID"`
	Items    []OutstandingItem `json:"items"`
	Advances []AdvanceBalance  `json:"advances"`
}

// TotalOutstanding sums the outstanding amount across items.
func (v OutstandingView) TotalOutstanding() decimal.Decimal {
	total := decimal.Zero
	for _, it := range v.Items {
		total = total.Add(it.Outstanding)
	}
	return total
}
