package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ObligationKind distinguishes tenant leases from recurring vendor expenses.
type ObligationKind string

const (
	KindLease   ObligationKind = "lease"
	KindExpense ObligationKind = "expense"
)

// Obligation is a lease (or recurring expense) read from the obligation source. The ledger
// never mutates it except to record the actual end date on early termination.
type Obligation struct {
	ObligationID   string         `json:"obligationID" validate:"required"`
	Kind           ObligationKind `json:"kind" validate:"required,oneof=lease expense"`
	EntityID       string         `json:"entityID" validate:"required"`
	EntityName     string         `json:"entityName,omitempty"`
	PropertyID     string         `json:"propertyID,omitempty"`
	StartDate      time.Time      `json:"startDate" validate:"required"`
	PlannedEndDate time.Time      `json:"plannedEndDate" validate:"required,gtefield=StartDate"`
	ActualEndDate  *time.Time     `json:"actualEndDate,omitempty"`
	// OccupiedAt is set once the entity has actually moved in.
	OccupiedAt *time.Time `json:"occupiedAt,omitempty"`

	MonthlyRent decimal.Decimal `json:"monthlyRent" validate:"gte=0"`
	AdminFee    decimal.Decimal `json:"adminFee" validate:"gte=0"`
	Deposit     decimal.Decimal `json:"deposit" validate:"gte=0"`

	// Expense obligations accrue MonthlyAmount against ExpenseAccount, payable to EntityID.
	ExpenseAccount string          `json:"expenseAccount,omitempty"`
	MonthlyAmount  decimal.Decimal `json:"monthlyAmount" validate:"gte=0"`
}

// EndDate returns the actual end date when recorded, else the planned one.
func (o Obligation) EndDate() time.Time {
	if o.ActualEndDate != nil {
		return *o.ActualEndDate
	}
	return o.PlannedEndDate
}

// StartPeriod is the first period the obligation accrues in.
func (o Obligation) StartPeriod() Period {
	return PeriodOf(o.StartDate)
}

// EndPeriod is the last period the obligation accrues in.
func (o Obligation) EndPeriod() Period {
	return PeriodOf(o.EndDate())
}

// ActiveIn reports whether p lies within [StartPeriod, EndPeriod].
func (o Obligation) ActiveIn(p Period) bool {
	return !p.Before(o.StartPeriod()) && !p.After(o.EndPeriod())
}

// IsOccupied reports whether the entity ever moved in.
func (o Obligation) IsOccupied() bool {
	return o.OccupiedAt != nil
}

// AmountFor returns the amount the obligation accrues for c.
func (o Obligation) AmountFor(c Component) decimal.Decimal {
	switch c {
	case ComponentRent:
		return o.MonthlyRent
	case ComponentAdmin:
		return o.AdminFee
	case ComponentDeposit:
		return o.Deposit
	case ComponentExpense:
		return o.MonthlyAmount
	}
	return decimal.Zero
}

// ComponentsDue lists the components with a positive amount that accrue in p.
func (o Obligation) ComponentsDue(p Period) []Component {
	if !o.ActiveIn(p) {
		return nil
	}
	if o.Kind == KindExpense {
		if o.MonthlyAmount.IsPositive() {
			return []Component{ComponentExpense}
		}
		return nil
	}
	var out []Component
	for _, c := range TenantComponents {
		if !o.AmountFor(c).IsPositive() {
			continue
		}
		if c.IsOneOff() && p != o.StartPeriod() {
			continue
		}
		out = append(out, c)
	}
	return out
}

// LifecycleState is the position of an obligation in its lifecycle.
type LifecycleState string

const (
	StateActive          LifecycleState = "ACTIVE"
	StateEndedOnSchedule LifecycleState = "ENDED_ON_SCHEDULE"
	StateEndedEarly      LifecycleState = "ENDED_EARLY"
	StateAbandoned       LifecycleState = "ABANDONED"
	StateClosed          LifecycleState = "CLOSED"
)

// IsEnded reports whether the obligation has left the active state.
func (s LifecycleState) IsEnded() bool {
	return s != StateActive && s != ""
}

// ObligationLifecycle is the persisted lifecycle record of one obligation.
type ObligationLifecycle struct {
	ObligationID string         `json:"obligationID"`
	State        LifecycleState `json:"state"`
	Reason       string         `json:"reason,omitempty"`
	ChangedAt    time.Time      `json:"changedAt"`
	// Version increments on every transition and guards compare-and-set updates.
	Version int `json:"version"`
}
