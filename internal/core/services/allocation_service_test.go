package services_test

import (
	"context"
	"sync"
	"testing"

	"github.com/SscSPs/property_ledger/internal/apperrors"
	"github.com/SscSPs/property_ledger/internal/core/domain"
	"github.com/SscSPs/property_ledger/internal/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rentAccrual posts a rent accrual of amount for entityID in period directly to the ledger.
func rentAccrual(t *testing.T, f *fixture, entityID, period, amount string) {
	t.Helper()
	p := domain.MustParsePeriod(period)
	_, _, err := f.svc.Ledger.Append(context.Background(), domain.LedgerEntry{
		EntryID: "accrual-" + entityID + "-" + period,
		Date:    p.Start(),
		Source:  domain.SourceRentalAccrual,
		Lines: []domain.Line{
			domain.DebitLine("1100-"+entityID, d(amount), ""),
			domain.CreditLine(domain.CodeRentalIncome, d(amount), ""),
		},
		Metadata: domain.EntryMetadata{
			EntityID: entityID,
			MonthKey: p,
			Accrual:  &domain.AccrualDetails{Component: domain.ComponentRent},
		},
	})
	require.NoError(t, err)
}

// A $120 rent payment against $100 (month 1) and $50 (month 2) settles $100 and $20.
func TestAllocationService_OldestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rentAccrual(t, f, "t1", "2025-01", "100")
	rentAccrual(t, f, "t1", "2025-02", "50")

	res, err := f.svc.Allocation.AllocatePayment(ctx, dto.PaymentRequest{
		PaymentID:  "pay-1",
		EntityID:   "t1",
		Date:       date("2025-02-10"),
		Gross:      d("120"),
		Components: []dto.PaymentComponent{{Type: domain.ComponentRent, Amount: d("120")}},
	})
	require.NoError(t, err)
	require.Len(t, res.Allocations, 2)

	assert.Equal(t, domain.MustParsePeriod("2025-01"), res.Allocations[0].MonthSettled)
	assert.True(t, d("100").Equal(res.Allocations[0].Amount))
	assert.Equal(t, domain.AllocationSettlement, res.Allocations[0].AllocationType)
	assert.Equal(t, domain.MustParsePeriod("2025-02"), res.Allocations[1].MonthSettled)
	assert.True(t, d("20").Equal(res.Allocations[1].Amount))
	assert.True(t, res.Allocations[0].Created)

	assert.True(t, f.arBalance(t, "t1", "2025-01").IsZero())
	assert.True(t, d("30").Equal(f.arBalance(t, "t1", "2025-02")))
	assert.Len(t, f.bySource(t, domain.SourcePayment), 2)
	assertAllBalanced(t, f.allPosted(t))
}

func TestAllocationService_RemainderBecomesAdvance(t *testing.T) {
	ob := lease("l1", "t1", "2025-06-01", "2025-12-31", "100")
	f := newFixture(t, ob)
	ctx := context.Background()
	_, err := f.svc.Accrual.AccrueObligation(ctx, ob, domain.MustParsePeriod("2025-06"))
	require.NoError(t, err)

	res, err := f.svc.Allocation.AllocatePayment(ctx, dto.PaymentRequest{
		PaymentID:    "pay-1",
		EntityID:     "t1",
		ObligationID: "l1",
		Date:         date("2025-06-03"),
		Gross:        d("250"),
	})
	require.NoError(t, err)
	require.Len(t, res.Allocations, 2)
	assert.Equal(t, domain.AllocationSettlement, res.Allocations[0].AllocationType)
	assert.Equal(t, domain.AllocationAdvance, res.Allocations[1].AllocationType)
	assert.Equal(t, domain.MustParsePeriod("2025-07"), res.Allocations[1].MonthSettled)
	assert.True(t, d("150").Equal(res.Allocations[1].Amount))

	assert.True(t, d("150").Equal(f.balance(t, "2030-t1")))
	entries, _, err := f.svc.Ledger.Query(ctx, domain.EntryFilter{PaymentID: "pay-1"})
	require.NoError(t, err)
	for _, e := range entries {
		assert.Equal(t, "prop-1", e.Metadata.PropertyID, "property is inherited from the obligation")
	}
}

// Admin fee and deposit payments always carry the period they settle.
func TestAllocationService_OneOffComponentsAlwaysTagged(t *testing.T) {
	ob := lease("l1", "t1", "2025-06-15", "2026-06-14", "100")
	ob.AdminFee = d("50")
	ob.Deposit = d("200")
	f := newFixture(t, ob)
	ctx := context.Background()
	_, err := f.svc.Accrual.AccrueThrough(ctx, ob, domain.MustParsePeriod("2025-08"))
	require.NoError(t, err)

	res, err := f.svc.Allocation.AllocatePayment(ctx, dto.PaymentRequest{
		PaymentID:    "pay-1",
		EntityID:     "t1",
		ObligationID: "l1",
		Date:         date("2025-08-20"),
		Gross:        d("300"),
		Components: []dto.PaymentComponent{
			{Type: domain.ComponentAdmin, Amount: d("60")},
			{Type: domain.ComponentDeposit, Amount: d("200")},
		},
	})
	require.NoError(t, err)

	start := domain.MustParsePeriod("2025-06")
	var adminSettled, adminAdvance decimal.Decimal
	for _, a := range res.Allocations {
		switch a.Component {
		case domain.ComponentAdmin:
			assert.Equal(t, start, a.MonthSettled)
			if a.AllocationType == domain.AllocationSettlement {
				adminSettled = a.Amount
			} else {
				adminAdvance = a.Amount
			}
		case domain.ComponentDeposit:
			assert.Equal(t, start, a.MonthSettled)
			assert.Equal(t, domain.AllocationSettlement, a.AllocationType)
		case domain.ComponentRent:
			assert.True(t, d("40").Equal(a.Amount), "the unassigned part of the gross is rent")
			assert.Equal(t, start, a.MonthSettled)
		}
	}
	assert.True(t, d("50").Equal(adminSettled))
	assert.True(t, d("10").Equal(adminAdvance))

	for _, e := range f.bySource(t, domain.SourcePayment) {
		require.NotNil(t, e.Metadata.Payment)
		assert.False(t, e.Metadata.Payment.MonthSettled.IsZero(), "entry %s has no monthSettled", e.EntryID)
	}
}

func TestAllocationService_OneOffWithoutObligation(t *testing.T) {
	f := newFixture(t)

	res, err := f.svc.Allocation.AllocatePayment(context.Background(), dto.PaymentRequest{
		PaymentID:  "pay-1",
		EntityID:   "walk-in",
		Date:       date("2025-03-09"),
		Gross:      d("40"),
		Components: []dto.PaymentComponent{{Type: domain.ComponentAdmin, Amount: d("40")}},
	})
	require.NoError(t, err)
	require.Len(t, res.Allocations, 1)
	assert.Equal(t, domain.AllocationAdvance, res.Allocations[0].AllocationType)
	assert.Equal(t, domain.MustParsePeriod("2025-03"), res.Allocations[0].MonthSettled)
}

func TestAllocationService_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		req     dto.PaymentRequest
		wantErr error
	}{
		{
			name: "components exceed gross",
			req: dto.PaymentRequest{
				PaymentID: "p", EntityID: "t1", Date: date("2025-06-01"), Gross: d("100"),
				Components: []dto.PaymentComponent{
					{Type: domain.ComponentRent, Amount: d("80")},
					{Type: domain.ComponentAdmin, Amount: d("40")},
				},
			},
			wantErr: apperrors.ErrOverAllocation,
		},
		{
			name:    "missing entity",
			req:     dto.PaymentRequest{PaymentID: "p", Date: date("2025-06-01"), Gross: d("100")},
			wantErr: apperrors.ErrValidation,
		},
		{
			name:    "sub-cent gross",
			req:     dto.PaymentRequest{PaymentID: "p", EntityID: "t1", Date: date("2025-06-01"), Gross: d("10.005")},
			wantErr: apperrors.ErrValidation,
		},
		{
			name: "unknown component",
			req: dto.PaymentRequest{
				PaymentID: "p", EntityID: "t1", Date: date("2025-06-01"), Gross: d("10"),
				Components: []dto.PaymentComponent{{Type: "parking", Amount: d("10")}},
			},
			wantErr: apperrors.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			res, err := f.svc.Allocation.AllocatePayment(context.Background(), tt.req)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, res)
			assert.Empty(t, f.allPosted(t))
		})
	}
}

func TestAllocationService_RetryIsNoop(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rentAccrual(t, f, "t1", "2025-01", "100")
	req := dto.PaymentRequest{PaymentID: "pay-1", EntityID: "t1", Date: date("2025-01-05"), Gross: d("130")}

	first, err := f.svc.Allocation.AllocatePayment(ctx, req)
	require.NoError(t, err)
	second, err := f.svc.Allocation.AllocatePayment(ctx, req)
	require.NoError(t, err)

	assert.ElementsMatch(t, first.EntryIDs(), second.EntryIDs())
	for _, a := range second.Allocations {
		assert.False(t, a.Created)
	}
	assert.Len(t, f.bySource(t, domain.SourcePayment), 2)
	assert.True(t, d("30").Equal(f.balance(t, "2030-t1")))
}

// Concurrent payments for one entity never both settle the same outstanding amount.
func TestAllocationService_SerializesPerEntity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rentAccrual(t, f, "t1", "2025-01", "100")

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, id := range []string{"pay-a", "pay-b"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = f.svc.Allocation.AllocatePayment(ctx, dto.PaymentRequest{
				PaymentID: id, EntityID: "t1", Date: date("2025-01-10"), Gross: d("100"),
			})
		}()
	}
	wg.Wait()
	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	settled := decimal.Zero
	advanced := decimal.Zero
	for _, e := range f.bySource(t, domain.SourcePayment) {
		if e.Metadata.Payment.AllocationType == domain.AllocationSettlement {
			settled = settled.Add(e.TotalDebit())
		} else {
			advanced = advanced.Add(e.TotalDebit())
		}
	}
	assert.True(t, d("100").Equal(settled))
	assert.True(t, d("100").Equal(advanced))
	assert.True(t, f.arBalance(t, "t1", "2025-01").IsZero())
}

// A payment dated after the month it settles clears that month's receivable by
// monthSettled, while the dated receivable at month end still shows it open.
func TestAllocationService_LatePaymentSettlesByMonth(t *testing.T) {
	ob := lease("l1", "E", "2025-06-01", "2025-12-31", "220")
	f := newFixture(t, ob)
	ctx := context.Background()
	_, err := f.svc.Accrual.AccrueObligation(ctx, ob, domain.MustParsePeriod("2025-06"))
	require.NoError(t, err)

	res, err := f.svc.Allocation.AllocatePayment(ctx, dto.PaymentRequest{
		PaymentID: "pay-1", EntityID: "E", ObligationID: "l1", Date: date("2025-07-05"), Gross: d("220"),
	})
	require.NoError(t, err)
	require.Len(t, res.Allocations, 1)
	assert.Equal(t, domain.MustParsePeriod("2025-06"), res.Allocations[0].MonthSettled)

	assert.True(t, f.arBalance(t, "E", "2025-06").IsZero())
	dated, err := f.svc.Ledger.AccountBalance(ctx, "1100-E", date("2025-06-30"))
	require.NoError(t, err)
	assert.True(t, d("220").Equal(dated))
}

func TestAllocationService_RecordExpensePayment(t *testing.T) {
	ob := domain.Obligation{
		ObligationID: "x1", Kind: domain.KindExpense, EntityID: "cleaner", PropertyID: "prop-1",
		StartDate: date("2025-01-01"), PlannedEndDate: date("2025-12-31"),
		ExpenseAccount: domain.CodeCleaning, MonthlyAmount: d("75"),
	}
	f := newFixture(t, ob)
	ctx := context.Background()
	_, err := f.svc.Accrual.AccrueObligation(ctx, ob, domain.MustParsePeriod("2025-03"))
	require.NoError(t, err)

	id, err := f.svc.Allocation.RecordExpensePayment(ctx, dto.ExpensePaymentRequest{
		PaymentID: "ep-1", VendorID: "cleaner", ObligationID: "x1", Date: date("2025-04-02"),
		Amount: d("75"), MonthSettled: domain.MustParsePeriod("2025-03"), ExpenseAccount: domain.CodeCleaning,
	})
	require.NoError(t, err)

	entry, err := f.svc.Ledger.GetEntry(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.SourceExpensePayment, entry.Source)
	assert.True(t, f.balance(t, "2000-cleaner").IsZero())
	assert.True(t, d("-75").Equal(f.balance(t, domain.CodeCash)))

	again, err := f.svc.Allocation.RecordExpensePayment(ctx, dto.ExpensePaymentRequest{
		PaymentID: "ep-1", VendorID: "cleaner", Date: date("2025-04-02"), Amount: d("75"),
	})
	require.NoError(t, err)
	assert.Equal(t, id, again)

	_, err = f.svc.Allocation.RecordExpensePayment(ctx, dto.ExpensePaymentRequest{
		PaymentID: "ep-2", VendorID: "cleaner", Date: date("2025-04-02"), Amount: d("5"), ExpenseAccount: domain.CodeRentalIncome,
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidAccount)
}

func TestAllocationService_PostManualEntry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.svc.Allocation.PostManualEntry(ctx, dto.ManualEntryRequest{
		EntryID:     "owner-1",
		Date:        date("2025-01-01"),
		Description: "Owner contribution",
		Lines: []dto.ManualLine{
			{AccountCode: domain.CodeCash, Debit: d("1000")},
			{AccountCode: domain.CodeOwnerEquity, Credit: d("1000")},
		},
		CreatedBy: "ops",
	})
	require.NoError(t, err)
	assert.Equal(t, "owner-1", id)

	entry, err := f.svc.Ledger.GetEntry(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "ops", entry.CreatedBy)
	assert.True(t, d("1000").Equal(f.balance(t, domain.CodeOwnerEquity)))

	_, err = f.svc.Allocation.PostManualEntry(ctx, dto.ManualEntryRequest{
		Date:        date("2025-01-01"),
		Description: "one line",
		Lines:       []dto.ManualLine{{AccountCode: domain.CodeCash, Debit: d("1")}},
	})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}
