package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Obligation is the obligations row.
type Obligation struct {
	ObligationID   string          `json:"obligationID"`
	Kind           string          `json:"kind"`
	EntityID       string          `json:"entityID"`
	EntityName     string          `json:"entityName"`
	PropertyID     string          `json:"propertyID"`
	StartDate      time.Time       `json:"startDate"`
	PlannedEndDate time.Time       `json:"plannedEndDate"`
	ActualEndDate  *time.Time      `json:"actualEndDate"`
	OccupiedAt     *time.Time      `json:"occupiedAt"`
	MonthlyRent    decimal.Decimal `json:"monthlyRent"`
	AdminFee       decimal.Decimal `json:"adminFee"`
	Deposit        decimal.Decimal `json:"deposit"`
	ExpenseAccount string          `json:"expenseAccount"`
	MonthlyAmount  decimal.Decimal `json:"monthlyAmount"`
}

// ObligationLifecycle is the obligation_lifecycles row.
type ObligationLifecycle struct {
	ObligationID string    `json:"obligationID"`
	State        string    `json:"state"`
	Reason       string    `json:"reason"`
	ChangedAt    time.Time `json:"changedAt"`
	Version      int       `json:"version"`
}
