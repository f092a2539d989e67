package mapping

import (
	"github.com/SscSPs/property_ledger/internal/core/domain"
	"github.com/SscSPs/property_ledger/internal/models"
)

// ToModelObligation converts a domain Obligation to a model Obligation
func ToModelObligation(d domain.Obligation) models.Obligation {
	return models.Obligation{
		ObligationID:   d.ObligationID,
		Kind:           string(d.Kind),
		EntityID:       d.EntityID,
		EntityName:     d.EntityName,
		PropertyID:     d.PropertyID,
		StartDate:      d.StartDate,
		PlannedEndDate: d.PlannedEndDate,
		ActualEndDate:  d.ActualEndDate,
		OccupiedAt:     d.OccupiedAt,
		MonthlyRent:    d.MonthlyRent,
		AdminFee:       d.AdminFee,
		Deposit:        d.Deposit,
		ExpenseAccount: d.ExpenseAccount,
		MonthlyAmount:  d.MonthlyAmount,
	}
}

// ToDomainObligation converts a model Obligation to a domain Obligation
func ToDomainObligation(m models.Obligation) domain.Obligation {
	return domain.Obligation{
		ObligationID:   m.ObligationID,
		Kind:           domain.ObligationKind(m.Kind),
		EntityID:       m.EntityID,
		EntityName:     m.EntityName,
		PropertyID:     m.PropertyID,
		StartDate:      m.StartDate,
		PlannedEndDate: m.PlannedEndDate,
		ActualEndDate:  m.ActualEndDate,
		OccupiedAt:     m.OccupiedAt,
		MonthlyRent:    m.MonthlyRent,
		AdminFee:       m.AdminFee,
		Deposit:        m.Deposit,
		ExpenseAccount: m.ExpenseAccount,
		MonthlyAmount:  m.MonthlyAmount,
	}
}

// ToModelLifecycle converts a domain ObligationLifecycle to a model ObligationLifecycle
func ToModelLifecycle(d domain.ObligationLifecycle) models.ObligationLifecycle {
	return models.ObligationLifecycle{
		ObligationID: d.ObligationID,
		State:        string(d.State),
		Reason:       d.Reason,
		ChangedAt:    d.ChangedAt,
		Version:      d.Version,
	}
}

// ToDomainLifecycle converts a model ObligationLifecycle to a domain ObligationLifecycle
func ToDomainLifecycle(m models.ObligationLifecycle) domain.ObligationLifecycle {
	return domain.ObligationLifecycle{
		ObligationID: m.ObligationID,
		State:        domain.LifecycleState(m.State),
		Reason:       m.Reason,
		ChangedAt:    m.ChangedAt,
		Version:      m.Version,
	}
}
