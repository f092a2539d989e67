package memory

import (
	"context"
	"testing"
	"time"

	"github.com/SscSPs/property_ledger/internal/apperrors"
	"github.com/SscSPs/property_ledger/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestObligationRepository_Queries(t *testing.T) {
	moved := day("2025-01-03")
	repo := NewObligationRepository(
		domain.Obligation{ObligationID: "b", Kind: domain.KindLease, StartDate: day("2025-01-01"), PlannedEndDate: day("2025-06-30")},
		domain.Obligation{ObligationID: "a", Kind: domain.KindLease, StartDate: day("2025-03-01"), PlannedEndDate: day("2025-12-31")},
		domain.Obligation{ObligationID: "c", Kind: domain.KindLease, StartDate: day("2025-01-01"), PlannedEndDate: day("2025-12-31"), OccupiedAt: &moved},
		domain.Obligation{ObligationID: "x", Kind: domain.KindExpense, StartDate: day("2025-01-01"), PlannedEndDate: day("2025-12-31")},
	)
	ctx := context.Background()

	active, err := repo.ListActiveObligations(ctx, domain.MustParsePeriod("2025-07"))
	require.NoError(t, err)
	ids := make([]string, 0, len(active))
	for _, o := range active {
		ids = append(ids, o.ObligationID)
	}
	assert.Equal(t, []string{"a", "c", "x"}, ids)

	unoccupied, err := repo.ListUnoccupiedObligations(ctx, day("2025-02-01"))
	require.NoError(t, err)
	require.Len(t, unoccupied, 1)
	assert.Equal(t, "b", unoccupied[0].ObligationID)

	require.NoError(t, repo.RecordActualEndDate(ctx, "a", day("2025-04-15")))
	active, err = repo.ListActiveObligations(ctx, domain.MustParsePeriod("2025-07"))
	require.NoError(t, err)
	assert.Len(t, active, 2)

	_, err = repo.GetObligation(ctx, "zzz")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.ErrorIs(t, repo.RecordActualEndDate(ctx, "zzz", day("2025-04-15")), apperrors.ErrNotFound)
}

func TestLifecycleRepository_VersionCheck(t *testing.T) {
	repo := NewLifecycleRepository()
	ctx := context.Background()

	_, err := repo.GetLifecycle(ctx, "l1")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	lc := domain.ObligationLifecycle{ObligationID: "l1", State: domain.StateEndedEarly, Version: 1}
	require.NoError(t, repo.SaveLifecycle(ctx, lc, 0))
	assert.ErrorIs(t, repo.SaveLifecycle(ctx, lc, 0), apperrors.ErrConflict)

	lc.State, lc.Version = domain.StateClosed, 2
	require.NoError(t, repo.SaveLifecycle(ctx, lc, 1))
	got, err := repo.GetLifecycle(ctx, "l1")
	require.NoError(t, err)
	assert.Equal(t, domain.StateClosed, got.State)
}
