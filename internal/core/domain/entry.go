package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// EntryStatus indicates the state of a ledger entry.
type EntryStatus string

const (
	Draft  EntryStatus = "DRAFT"
	Posted EntryStatus = "POSTED"
	Voided EntryStatus = "VOIDED"
)

// EntrySource names the writer that produced an entry.
type EntrySource string

const (
	SourceRentalAccrual     EntrySource = "rental_accrual"
	SourceExpenseAccrual    EntrySource = "expense_accrual"
	SourcePayment           EntrySource = "payment"
	SourceExpensePayment    EntrySource = "expense_payment"
	SourceManual            EntrySource = "manual"
	SourcePaymentForfeiture EntrySource = "payment_forfeiture"
	SourceAccrualReversal   EntrySource = "accrual_reversal"
)

// IsValid reports whether s is a known source.
func (s EntrySource) IsValid() bool {
	switch s {
	case SourceRentalAccrual, SourceExpenseAccrual, SourcePayment, SourceExpensePayment,
		SourceManual, SourcePaymentForfeiture, SourceAccrualReversal:
		return true
	}
	return false
}

// IsAccrual reports whether entries of this source recognize an obligation.
func (s EntrySource) IsAccrual() bool {
	return s == SourceRentalAccrual || s == SourceExpenseAccrual
}

// Component is one part of an obligation or payment.
type Component string

const (
	ComponentRent    Component = "rent"
	ComponentAdmin   Component = "admin"
	ComponentDeposit Component = "deposit"
	ComponentExpense Component = "expense"
)

// IsValid reports whether c is a known component.
func (c Component) IsValid() bool {
	switch c {
	case ComponentRent, ComponentAdmin, ComponentDeposit, ComponentExpense:
		return true
	}
	return false
}

// IsOneOff reports whether the component accrues at most once per obligation.
func (c Component) IsOneOff() bool {
	return c == ComponentAdmin || c == ComponentDeposit
}

// TenantComponents lists the receivable components in allocation order.
var TenantComponents = []Component{ComponentRent, ComponentAdmin, ComponentDeposit}

// AllocationType tags how a payment line was applied.
type AllocationType string

const (
	AllocationSettlement AllocationType = "settlement"
	AllocationAdvance    AllocationType = "advance"
)

// ReversalReason records why an accrual was reversed.
type ReversalReason string

const (
	ReasonEarlyTermination ReversalReason = "early_termination"
	ReasonForfeiture       ReversalReason = "forfeiture"
	ReasonManual           ReversalReason = "manual"
)

// Line is a single debit or credit against one account.
type Line struct {
	AccountCode string          `json:"accountCode"`
	AccountType AccountType     `json:"accountType"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Description string          `json:"description,omitempty"`
}

// DebitLine builds a debit line; the account type is filled in by the chart on append.
func DebitLine(code string, amount decimal.Decimal, description string) Line {
	return Line{AccountCode: code, Debit: amount, Credit: decimal.Zero, Description: description}
}

// CreditLine builds a credit line.
func CreditLine(code string, amount decimal.Decimal, description string) Line {
	return Line{AccountCode: code, Debit: decimal.Zero, Credit: amount, Description: description}
}

// IsDebit reports whether the line's nonzero side is the debit.
func (l Line) IsDebit() bool {
	return !l.Debit.IsZero()
}

// Amount returns the nonzero side of the line.
func (l Line) Amount() decimal.Decimal {
	if l.IsDebit() {
		return l.Debit
	}
	return l.Credit
}

// Net returns debit minus credit.
func (l Line) Net() decimal.Decimal {
	return l.Debit.Sub(l.Credit)
}

// Swapped returns the line with debit and credit exchanged.
func (l Line) Swapped() Line {
	l.Debit, l.Credit = l.Credit, l.Debit
	return l
}

// AccrualDetails is carried by rental_accrual and expense_accrual entries.
type AccrualDetails struct {
	Component Component `json:"component"`
}

// PaymentDetails is carried by payment and expense_payment entries. MonthSettled is a value,
// not a pointer: a payment line cannot exist without the period it settles.
type PaymentDetails struct {
	PaymentID      string         `json:"paymentID"`
	PaymentType    Component      `json:"paymentType"`
	MonthSettled   Period         `json:"monthSettled"`
	AllocationType AllocationType `json:"allocationType"`
	// AdvanceEntryID links an advance application back to the advance it consumes.
	AdvanceEntryID string `json:"advanceEntryID,omitempty"`
	// ExpenseAccount is the expense root an expense payment is recognized in on the cash basis.
	ExpenseAccount string `json:"expenseAccount,omitempty"`
}

// ReversalDetails is carried by accrual_reversal entries.
type ReversalDetails struct {
	OriginalEntryID string         `json:"originalEntryID"`
	Reason          ReversalReason `json:"reason"`
	Component       Component      `json:"component,omitempty"`
}

// ForfeitureDetails is carried by payment_forfeiture entries.
type ForfeitureDetails struct {
	Applied decimal.Decimal `json:"applied"`
	Advance decimal.Decimal `json:"advance"`
	// Components splits the forfeited total by the component each payment was made for.
	Components map[Component]decimal.Decimal `json:"components"`
}

// EntryMetadata is the typed domain context of an entry. At most one of the variant
// pointers is set, matching the entry's source (manual entries carry none).
type EntryMetadata struct {
	EntityID     string `json:"entityID,omitempty"`
	PropertyID   string `json:"propertyID,omitempty"`
	ObligationID string `json:"obligationID,omitempty"`
	// MonthKey is the period the entry economically belongs to.
	MonthKey Period `json:"monthKey"`

	Accrual    *AccrualDetails    `json:"accrual,omitempty"`
	Payment    *PaymentDetails    `json:"payment,omitempty"`
	Reversal   *ReversalDetails   `json:"reversal,omitempty"`
	Forfeiture *ForfeitureDetails `json:"forfeiture,omitempty"`

	// Extra holds additive, non-semantic context (display names, external references).
	Extra map[string]string `json:"extra,omitempty"`
}

// LedgerEntry is a single balanced transaction. Once posted it is never edited; the only
// later writes are the status flip on void and the ReversedBy back-reference.
type LedgerEntry struct {
	EntryID     string        `json:"entryID"`
	Date        time.Time     `json:"date"`
	PostedAt    time.Time     `json:"postedAt"`
	Source      EntrySource   `json:"source"`
	Status      EntryStatus   `json:"status"`
	Description string        `json:"description"`
	Lines       []Line        `json:"lines"`
	Metadata    EntryMetadata `json:"metadata"`
	ReversedBy  string        `json:"reversedBy,omitempty"`
	VoidReason  string        `json:"voidReason,omitempty"`
	VoidedAt    *time.Time    `json:"voidedAt,omitempty"`
	AuditFields
}

// TotalDebit sums the debit side.
func (e LedgerEntry) TotalDebit() decimal.Decimal {
	total := decimal.Zero
	for _, l := range e.Lines {
		total = total.Add(l.Debit)
	}
	return total
}

// TotalCredit sums the credit side.
func (e LedgerEntry) TotalCredit() decimal.Decimal {
	total := decimal.Zero
	for _, l := range e.Lines {
		total = total.Add(l.Credit)
	}
	return total
}

// IsBalanced reports whether debits equal credits exactly.
func (e LedgerEntry) IsBalanced() bool {
	return e.TotalDebit().Equal(e.TotalCredit())
}

// IsPosted reports whether the entry counts toward balances.
func (e LedgerEntry) IsPosted() bool {
	return e.Status == Posted
}

// ReversalOf returns the id of the entry this one reverses, if any.
func (e LedgerEntry) ReversalOf() string {
	if e.Metadata.Reversal == nil {
		return ""
	}
	return e.Metadata.Reversal.OriginalEntryID
}

// TransactionType mirrors the legacy metadata.transactionType tag.
func (e LedgerEntry) TransactionType() string {
	return string(e.Source)
}

// IsForfeiture mirrors the legacy metadata.isForfeiture flag.
func (e LedgerEntry) IsForfeiture() bool {
	return e.Source == SourcePaymentForfeiture
}

// Component returns the obligation component the entry relates to, if any.
func (e LedgerEntry) Component() Component {
	switch {
	case e.Metadata.Accrual != nil:
		return e.Metadata.Accrual.Component
	case e.Metadata.Payment != nil:
		return e.Metadata.Payment.PaymentType
	case e.Metadata.Reversal != nil:
		return e.Metadata.Reversal.Component
	}
	return ""
}

// RecognitionPeriod returns the period an entry is recognized in on the accrual basis.
// Accruals and their reversals belong to their MonthKey and settlement payments to their
// MonthSettled; for those the second result is true. Every other entry is recognized on
// its date.
func (e LedgerEntry) RecognitionPeriod() (Period, bool) {
	switch {
	case e.Source.IsAccrual() || e.Source == SourceAccrualReversal:
		if !e.Metadata.MonthKey.IsZero() {
			return e.Metadata.MonthKey, true
		}
	case e.Metadata.Payment != nil && e.Metadata.Payment.AllocationType == AllocationSettlement:
		return e.Metadata.Payment.MonthSettled, true
	}
	return PeriodOf(e.Date), false
}

// LinesFor returns the lines posted to rootCode or any of its sub-ledgers.
func (e LedgerEntry) LinesFor(rootCode string) []Line {
	var out []Line
	for _, l := range e.Lines {
		if HasRoot(l.AccountCode, rootCode) {
			out = append(out, l)
		}
	}
	return out
}

// NetFor returns debit minus credit across the lines posted to code exactly.
func (e LedgerEntry) NetFor(code string) decimal.Decimal {
	net := decimal.Zero
	for _, l := range e.Lines {
		if l.AccountCode == code {
			net = net.Add(l.Net())
		}
	}
	return net
}

// Clone returns a deep copy so stored entries are never aliased by callers.
func (e LedgerEntry) Clone() LedgerEntry {
	out := e
	out.Lines = append([]Line(nil), e.Lines...)
	if e.VoidedAt != nil {
		t := *e.VoidedAt
		out.VoidedAt = &t
	}
	m := e.Metadata
	if m.Accrual != nil {
		a := *m.Accrual
		m.Accrual = &a
	}
	if m.Payment != nil {
		p := *m.Payment
		m.Payment = &p
	}
	if m.Reversal != nil {
		r := *m.Reversal
		m.Reversal = &r
	}
	if m.Forfeiture != nil {
		f := *m.Forfeiture
		f.Components = make(map[Component]decimal.Decimal, len(m.Forfeiture.Components))
		for k, v := range m.Forfeiture.Components {
			f.Components[k] = v
		}
		m.Forfeiture = &f
	}
	if m.Extra != nil {
		extra := make(map[string]string, len(m.Extra))
		for k, v := range m.Extra {
			extra[k] = v
		}
		m.Extra = extra
	}
	out.Metadata = m
	return out
}

// ValidateMetadata checks that the metadata variant required by the entry's source is
// present and complete.
func (e LedgerEntry) ValidateMetadata() error {
	m := e.Metadata
	switch e.Source {
	case SourceRentalAccrual, SourceExpenseAccrual:
		if m.Accrual == nil || !m.Accrual.Component.IsValid() {
			return fmt.Errorf("%s entry requires an accrual component", e.Source)
		}
		if m.MonthKey.IsZero() {
			return fmt.Errorf("%s entry requires a month key", e.Source)
		}
		if m.EntityID == "" {
			return fmt.Errorf("%s entry requires an entity", e.Source)
		}
	case SourcePayment, SourceExpensePayment:
		if m.Payment == nil {
			return fmt.Errorf("%s entry requires payment details", e.Source)
		}
		if m.Payment.MonthSettled.IsZero() {
			return fmt.Errorf("%s entry requires monthSettled", e.Source)
		}
		if !m.Payment.PaymentType.IsValid() {
			return fmt.Errorf("%s entry has invalid payment type %q", e.Source, m.Payment.PaymentType)
		}
		if m.Payment.AllocationType != AllocationSettlement && m.Payment.AllocationType != AllocationAdvance {
			return fmt.Errorf("%s entry has invalid allocation type %q", e.Source, m.Payment.AllocationType)
		}
		if m.EntityID == "" {
			return fmt.Errorf("%s entry requires an entity", e.Source)
		}
	case SourceAccrualReversal:
		if m.Reversal == nil || m.Reversal.OriginalEntryID == "" {
			return fmt.Errorf("reversal entry requires the original entry id")
		}
	case SourcePaymentForfeiture:
		if m.Forfeiture == nil {
			return fmt.Errorf("forfeiture entry requires forfeiture details")
		}
		if m.EntityID == "" {
			return fmt.Errorf("forfeiture entry requires an entity")
		}
	case SourceManual:
	default:
		return fmt.Errorf("unknown entry source %q", e.Source)
	}
	return nil
}
