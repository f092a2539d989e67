package services

import (
	"context"

	"github.com/SscSPs/property_ledger/internal/core/domain"
	"github.com/SscSPs/property_ledger/internal/dto"
)

// AllocationSvc turns incoming money into allocation-tagged ledger entries.
type AllocationSvc interface {
	// AllocatePayment splits a tenant payment across outstanding periods oldest-first and
	// books any remainder as an advance.
	AllocatePayment(ctx context.Context, req dto.PaymentRequest) (*dto.AllocationResult, error)

	// OutstandingView returns what the entity still owes per period and component, plus
	// advances not yet applied.
	OutstandingView(ctx context.Context, entityID string) (*domain.OutstandingView, error)

	// RecordExpensePayment settles an amount owed to a vendor.
	RecordExpensePayment(ctx context.Context, req dto.ExpensePaymentRequest) (string, error)

	// PostManualEntry posts an adjusting entry.
	PostManualEntry(ctx context.Context, req dto.ManualEntryRequest) (string, error)
}
