package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/SscSPs/property_ledger/internal/apperrors"
	"github.com/SscSPs/property_ledger/internal/core/domain"
	"github.com/SscSPs/property_ledger/internal/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (f *fixture) state(t *testing.T, obligationID string) domain.LifecycleState {
	t.Helper()
	lc, err := f.lifecycles.GetLifecycle(context.Background(), obligationID)
	require.NoError(t, err)
	return lc.State
}

func TestCorrectionService_TerminateEarlyReversesLaterAccruals(t *testing.T) {
	ob := lease("l1", "t1", "2025-01-01", "2025-10-31", "100")
	f := newFixture(t, ob)
	ctx := context.Background()
	_, err := f.svc.Accrual.AccrueThrough(ctx, ob, domain.MustParsePeriod("2025-10"))
	require.NoError(t, err)
	require.Len(t, f.bySource(t, domain.SourceRentalAccrual), 10)

	res, err := f.svc.Correction.TerminateEarly(ctx, "l1", date("2025-07-15"))
	require.NoError(t, err)
	assert.Equal(t, domain.StateEndedEarly, res.State)
	assert.Len(t, res.ReversedEntryIDs, 3)
	assert.False(t, res.AlreadyApplied)

	reversals := f.bySource(t, domain.SourceAccrualReversal)
	require.Len(t, reversals, 3)
	months := make([]domain.Period, 0, len(reversals))
	for _, r := range reversals {
		months = append(months, r.Metadata.MonthKey)
		assert.Equal(t, domain.ReasonEarlyTermination, r.Metadata.Reversal.Reason)
		original, err := f.svc.Ledger.GetEntry(ctx, r.ReversalOf())
		require.NoError(t, err)
		assert.Equal(t, r.EntryID, original.ReversedBy)
		assert.True(t, original.Date.Equal(r.Date))
	}
	assert.ElementsMatch(t, []domain.Period{
		domain.MustParsePeriod("2025-08"),
		domain.MustParsePeriod("2025-09"),
		domain.MustParsePeriod("2025-10"),
	}, months)

	assert.True(t, d("700").Equal(f.arBalance(t, "t1", "2025-10")))
	assert.True(t, d("700").Equal(f.balance(t, domain.CodeRentalIncome)))

	stored, err := f.obligations.GetObligation(ctx, "l1")
	require.NoError(t, err)
	require.NotNil(t, stored.ActualEndDate)
	assert.True(t, date("2025-07-15").Equal(*stored.ActualEndDate))

	// Later accrual runs neither see the obligation nor repost a reversed month.
	batch, err := f.svc.Accrual.RunAccrualsForPeriod(ctx, domain.MustParsePeriod("2025-09"))
	require.NoError(t, err)
	assert.Zero(t, batch.Total)
	again, err := f.svc.Accrual.AccrueObligation(ctx, ob, domain.MustParsePeriod("2025-09"))
	require.NoError(t, err)
	assert.Empty(t, again.Created)
	assertAllBalanced(t, f.allPosted(t))
}

func TestCorrectionService_TerminateEarlyIsIdempotent(t *testing.T) {
	ob := lease("l1", "t1", "2025-01-01", "2025-10-31", "100")
	f := newFixture(t, ob)
	ctx := context.Background()
	_, err := f.svc.Accrual.AccrueThrough(ctx, ob, domain.MustParsePeriod("2025-10"))
	require.NoError(t, err)

	_, err = f.svc.Correction.TerminateEarly(ctx, "l1", date("2025-07-15"))
	require.NoError(t, err)
	res, err := f.svc.Correction.TerminateEarly(ctx, "l1", date("2025-07-15"))
	require.NoError(t, err)

	assert.True(t, res.AlreadyApplied)
	assert.Empty(t, res.ReversedEntryIDs)
	assert.Len(t, f.bySource(t, domain.SourceAccrualReversal), 3)
}

func TestCorrectionService_TerminateEarlyRejects(t *testing.T) {
	ob := lease("l1", "t1", "2025-01-01", "2025-10-31", "100")
	f := newFixture(t, ob)
	ctx := context.Background()

	_, err := f.svc.Correction.TerminateEarly(ctx, "l1", date("2025-10-31"))
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = f.svc.Correction.TerminateEarly(ctx, "missing", date("2025-05-01"))
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = f.svc.Correction.Forfeit(ctx, "l1", date("2025-03-01"))
	require.NoError(t, err)
	_, err = f.svc.Correction.TerminateEarly(ctx, "l1", date("2025-05-01"))
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
}

// An entity that paid $30 against an accrual and $20 in advance forfeits $50: the
// receivable and the advance liability are debited and nothing touches cash.
func TestCorrectionService_ForfeitureSplitsAppliedAndAdvance(t *testing.T) {
	ob := lease("l1", "t1", "2025-06-01", "2026-05-31", "30")
	f := newFixture(t, ob)
	ctx := context.Background()
	_, err := f.svc.Accrual.AccrueObligation(ctx, ob, domain.MustParsePeriod("2025-06"))
	require.NoError(t, err)
	_, err = f.svc.Allocation.AllocatePayment(ctx, dto.PaymentRequest{
		PaymentID: "pay-1", EntityID: "t1", ObligationID: "l1", Date: date("2025-06-02"), Gross: d("50"),
	})
	require.NoError(t, err)

	res, err := f.svc.Correction.Forfeit(ctx, "l1", date("2025-06-20"))
	require.NoError(t, err)
	assert.Equal(t, domain.StateAbandoned, res.State)
	assert.Len(t, res.ReversedEntryIDs, 1)
	require.NotEmpty(t, res.ForfeitureEntryID)

	entry, err := f.svc.Ledger.GetEntry(ctx, res.ForfeitureEntryID)
	require.NoError(t, err)
	require.Len(t, entry.Lines, 3)
	assert.Equal(t, "1100-t1", entry.Lines[0].AccountCode)
	assert.True(t, d("30").Equal(entry.Lines[0].Debit))
	assert.Equal(t, "2030-t1", entry.Lines[1].AccountCode)
	assert.True(t, d("20").Equal(entry.Lines[1].Debit))
	assert.Equal(t, domain.CodeForfeitedIncome, entry.Lines[2].AccountCode)
	assert.True(t, d("50").Equal(entry.Lines[2].Credit))
	assert.True(t, d("30").Equal(entry.Metadata.Forfeiture.Applied))
	assert.True(t, d("20").Equal(entry.Metadata.Forfeiture.Advance))
	assert.True(t, d("50").Equal(entry.Metadata.Forfeiture.Components[domain.ComponentRent]))

	assert.True(t, f.balance(t, "1100-t1").IsZero())
	assert.True(t, f.balance(t, "2030-t1").IsZero())
	assert.True(t, f.balance(t, domain.CodeRentalIncome).IsZero())
	assert.True(t, d("50").Equal(f.balance(t, domain.CodeForfeitedIncome)))
	assert.True(t, d("50").Equal(f.balance(t, domain.CodeCash)))
	assert.Equal(t, domain.StateAbandoned, f.state(t, "l1"))

	again, err := f.svc.Correction.Forfeit(ctx, "l1", date("2025-06-21"))
	require.NoError(t, err)
	assert.True(t, again.AlreadyApplied)
	assert.Equal(t, res.ForfeitureEntryID, again.ForfeitureEntryID)
	assert.Len(t, f.bySource(t, domain.SourcePaymentForfeiture), 1)
	assertAllBalanced(t, f.allPosted(t))
}

func TestCorrectionService_ForfeitWithoutPaymentsPostsOnlyReversals(t *testing.T) {
	ob := lease("l1", "t1", "2025-06-01", "2026-05-31", "30")
	f := newFixture(t, ob)
	ctx := context.Background()
	_, err := f.svc.Accrual.AccrueObligation(ctx, ob, domain.MustParsePeriod("2025-06"))
	require.NoError(t, err)

	res, err := f.svc.Correction.Forfeit(ctx, "l1", date("2025-06-20"))
	require.NoError(t, err)
	assert.Empty(t, res.ForfeitureEntryID)
	assert.Len(t, res.ReversedEntryIDs, 1)
	assert.Empty(t, f.bySource(t, domain.SourcePaymentForfeiture))
	assert.True(t, f.balance(t, "1100-t1").IsZero())
}

func TestCorrectionService_SweepAbandoned(t *testing.T) {
	empty := lease("l1", "t1", "2025-01-01", "2025-12-31", "100")
	occupied := lease("l2", "t2", "2025-01-01", "2025-12-31", "100")
	moveIn := date("2025-01-02")
	occupied.OccupiedAt = &moveIn
	recent := lease("l3", "t3", "2025-01-25", "2025-12-31", "100")
	f := newFixture(t, empty, occupied, recent)
	ctx := context.Background()
	_, err := f.svc.Accrual.RunAccrualsForPeriod(ctx, domain.MustParsePeriod("2025-01"))
	require.NoError(t, err)

	batch, err := f.svc.Correction.SweepAbandoned(ctx, date("2025-02-01"))
	require.NoError(t, err)
	assert.Equal(t, 1, batch.Total)
	assert.Equal(t, 1, batch.Created)
	require.Len(t, batch.Results, 1)
	assert.Equal(t, "l1", batch.Results[0].ObligationID)
	assert.Len(t, batch.Results[0].EntryIDs, 1)
	assert.Equal(t, domain.StateAbandoned, f.state(t, "l1"))

	again, err := f.svc.Correction.SweepAbandoned(ctx, date("2025-02-01"))
	require.NoError(t, err)
	assert.Equal(t, 1, again.Skipped)
	assert.Zero(t, again.Created)

	// l3 started inside the grace period; the next month's sweep picks it up.
	later, err := f.svc.Correction.SweepAbandoned(ctx, date("2025-03-01"))
	require.NoError(t, err)
	assert.Equal(t, 1, later.Created)
	assert.Equal(t, domain.StateAbandoned, f.state(t, "l3"))

	_, err = f.lifecycles.GetLifecycle(ctx, "l2")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCorrectionService_CompleteAndClose(t *testing.T) {
	ob := lease("l1", "t1", "2025-01-01", "2025-03-31", "100")
	f := newFixture(t, ob)
	ctx := context.Background()

	_, err := f.svc.Correction.Close(ctx, "l1")
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)

	_, err = f.svc.Correction.CompleteOnSchedule(ctx, "l1", date("2025-03-30"))
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	res, err := f.svc.Correction.CompleteOnSchedule(ctx, "l1", date("2025-03-31"))
	require.NoError(t, err)
	assert.Equal(t, domain.StateEndedOnSchedule, res.State)
	assert.False(t, res.AlreadyApplied)

	res, err = f.svc.Correction.CompleteOnSchedule(ctx, "l1", date("2025-04-01"))
	require.NoError(t, err)
	assert.True(t, res.AlreadyApplied)

	res, err = f.svc.Correction.Close(ctx, "l1")
	require.NoError(t, err)
	assert.Equal(t, domain.StateClosed, res.State)

	lc, err := f.lifecycles.GetLifecycle(ctx, "l1")
	require.NoError(t, err)
	assert.Equal(t, 2, lc.Version)
	assert.Equal(t, "closed", lc.Reason)

	acc, err := f.svc.Accrual.AccrueObligation(ctx, ob, domain.MustParsePeriod("2025-03"))
	require.NoError(t, err)
	assert.Empty(t, acc.Created)

	_, err = f.svc.Correction.Forfeit(ctx, "l1", date("2025-04-01"))
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
}

func TestCorrectionService_ClockStampsLifecycle(t *testing.T) {
	ob := lease("l1", "t1", "2025-01-01", "2025-03-31", "100")
	f := newFixture(t, ob)
	ctx := context.Background()
	_, err := f.svc.Correction.Forfeit(ctx, "l1", date("2025-01-20"))
	require.NoError(t, err)

	lc, err := f.lifecycles.GetLifecycle(ctx, "l1")
	require.NoError(t, err)
	assert.Equal(t, "forfeiture", lc.Reason)
	assert.WithinDuration(t, time.Now().UTC(), lc.ChangedAt, time.Minute)
}
