package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Basis is the recognition rule used when compiling a statement.
type Basis string

const (
	BasisCash    Basis = "cash"
	BasisAccrual Basis = "accrual"
)

// IsValid reports whether b is a known basis.
func (b Basis) IsValid() bool {
	return b == BasisCash || b == BasisAccrual
}

// DateRange is an inclusive range of dates.
type DateRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// Contains reports whether t lies in the range.
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.From) && !t.After(r.To)
}

// Scope optionally narrows a report to one property.
type Scope struct {
	PropertyID string `json:"propertyID,omitempty"`
}

// IsZero reports whether the scope is unrestricted.
func (s Scope) IsZero() bool {
	return s.PropertyID == ""
}

// DiagnosticKind classifies a report diagnostic.
type DiagnosticKind string

const (
	DiagnosticBalanceMismatch  DiagnosticKind = "BalanceMismatch"
	DiagnosticCashFlowMismatch DiagnosticKind = "CashFlowMismatch"
)

// Diagnostic is a problem detected while compiling a report. Reports carry their computed
// numbers alongside diagnostics; nothing is replaced with a default.
type Diagnostic struct {
	Kind       DiagnosticKind  `json:"kind"`
	Message    string          `json:"message"`
	Difference decimal.Decimal `json:"difference"`
}

// EntityAmount is one sub-ledger's share of a root account.
type EntityAmount struct {
	EntityID string          `json:"entityID"`
	Amount   decimal.Decimal `json:"amount"`
}

// AccountAmount represents a root account with its normal-side balance for a report.
type AccountAmount struct {
	Code     string          `json:"code"`
	Name     string          `json:"name"`
	Type     AccountType     `json:"type"`
	Amount   decimal.Decimal `json:"amount"`
	Entities []EntityAmount  `json:"entities,omitempty"`
}

// BalanceSheet is a snapshot of assets, liabilities and equity.
type BalanceSheet struct {
	AsOf             time.Time       `json:"asOf"`
	Basis            Basis           `json:"basis"`
	Scope            Scope           `json:"scope"`
	Assets           []AccountAmount `json:"assets"`
	Liabilities      []AccountAmount `json:"liabilities"`
	Equity           []AccountAmount `json:"equity"`
	RetainedEarnings decimal.Decimal `json:"retainedEarnings"`
	TotalAssets      decimal.Decimal `json:"totalAssets"`
	TotalLiabilities decimal.Decimal `json:"totalLiabilities"`
	TotalEquity      decimal.Decimal `json:"totalEquity"`
	Diagnostics      []Diagnostic    `json:"diagnostics,omitempty"`
}

// IncomeStatement is revenue and expense flow over a range.
type IncomeStatement struct {
	Range         DateRange       `json:"range"`
	Basis         Basis           `json:"basis"`
	Scope         Scope           `json:"scope"`
	Revenue       []AccountAmount `json:"revenue"`
	Expenses      []AccountAmount `json:"expenses"`
	TotalRevenue  decimal.Decimal `json:"totalRevenue"`
	TotalExpenses decimal.Decimal `json:"totalExpenses"`
	NetIncome     decimal.Decimal `json:"netIncome"`
}

// CashFlowCategory buckets cash movements.
type CashFlowCategory string

const (
	CashFlowOperating CashFlowCategory = "operating"
	CashFlowFinancing CashFlowCategory = "financing"
)

// CashFlowLine is the net cash moved by one kind of activity.
type CashFlowLine struct {
	Label  string          `json:"label"`
	Source EntrySource     `json:"source"`
	Amount decimal.Decimal `json:"amount"`
}

// CashFlowStatement partitions cash-account deltas into operating and financing activity.
type CashFlowStatement struct {
	Range        DateRange       `json:"range"`
	Basis        Basis           `json:"basis"`
	Scope        Scope           `json:"scope"`
	Opening      decimal.Decimal `json:"opening"`
	Operating    []CashFlowLine  `json:"operating"`
	Financing    []CashFlowLine  `json:"financing"`
	NetOperating decimal.Decimal `json:"netOperating"`
	NetFinancing decimal.Decimal `json:"netFinancing"`
	NetChange    decimal.Decimal `json:"netChange"`
	Closing      decimal.Decimal `json:"closing"`
	Diagnostics  []Diagnostic    `json:"diagnostics,omitempty"`
}

// TrialBalanceRow represents a single row in a trial balance report.
type TrialBalanceRow struct {
	Code   string          `json:"code"`
	Name   string          `json:"name"`
	Type   AccountType     `json:"type"`
	Debit  decimal.Decimal `json:"debit"`
	Credit decimal.Decimal `json:"credit"`
}

// TrialBalance lists every account's debit or credit balance.
type TrialBalance struct {
	AsOf        time.Time         `json:"asOf"`
	Basis       Basis             `json:"basis"`
	Scope       Scope             `json:"scope"`
	Rows        []TrialBalanceRow `json:"rows"`
	TotalDebit  decimal.Decimal   `json:"totalDebit"`
	TotalCredit decimal.Decimal   `json:"totalCredit"`
	Diagnostics []Diagnostic      `json:"diagnostics,omitempty"`
}
