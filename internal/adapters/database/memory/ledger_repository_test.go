package memory

import (
	"context"
	"testing"
	"time"

	"github.com/SscSPs/property_ledger/internal/apperrors"
	"github.com/SscSPs/property_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cashEntry(id string, day int) domain.LedgerEntry {
	amount := decimal.NewFromInt(10)
	return domain.LedgerEntry{
		EntryID: id,
		Date:    time.Date(2025, 1, day, 0, 0, 0, 0, time.UTC),
		Source:  domain.SourceManual,
		Status:  domain.Posted,
		Lines: []domain.Line{
			domain.DebitLine(domain.CodeCash, amount, ""),
			domain.CreditLine(domain.CodeOwnerEquity, amount, ""),
		},
		PostedAt: time.Date(2025, 1, day, 12, 0, 0, 0, time.UTC),
	}
}

func reversalOf(id, originalID string) domain.LedgerEntry {
	e := cashEntry(id, 2)
	e.Source = domain.SourceAccrualReversal
	e.Metadata.Reversal = &domain.ReversalDetails{OriginalEntryID: originalID, Reason: domain.ReasonManual}
	return e
}

func TestLedgerRepository_SaveAndFind(t *testing.T) {
	repo := NewLedgerRepository()
	ctx := context.Background()
	require.NoError(t, repo.SaveEntry(ctx, cashEntry("e1", 1)))

	got, err := repo.FindEntryByID(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, "e1", got.EntryID)

	got.Lines[0].AccountCode = "9999"
	again, err := repo.FindEntryByID(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, domain.CodeCash, again.Lines[0].AccountCode, "stored entries are never aliased")

	_, err = repo.FindEntryByID(ctx, "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.ErrorIs(t, repo.SaveEntry(ctx, cashEntry("e1", 1)), apperrors.ErrDuplicate)
}

func TestLedgerRepository_SaveEntriesIsAtomic(t *testing.T) {
	repo := NewLedgerRepository()
	ctx := context.Background()
	require.NoError(t, repo.SaveEntry(ctx, cashEntry("e1", 1)))

	err := repo.SaveEntries(ctx, []domain.LedgerEntry{cashEntry("e2", 2), cashEntry("e1", 1)})
	assert.ErrorIs(t, err, apperrors.ErrDuplicate)
	_, err = repo.FindEntryByID(ctx, "e2")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	err = repo.SaveEntries(ctx, []domain.LedgerEntry{cashEntry("e3", 3), cashEntry("e3", 3)})
	assert.ErrorIs(t, err, apperrors.ErrDuplicate)
}

func TestLedgerRepository_ReversalLinks(t *testing.T) {
	repo := NewLedgerRepository()
	ctx := context.Background()
	require.NoError(t, repo.SaveEntry(ctx, cashEntry("e1", 1)))
	require.NoError(t, repo.SaveEntry(ctx, reversalOf("r1", "e1")))

	original, err := repo.FindEntryByID(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, "r1", original.ReversedBy)

	assert.ErrorIs(t, repo.SaveEntry(ctx, reversalOf("r2", "e1")), apperrors.ErrDuplicate)
	assert.ErrorIs(t, repo.SaveEntry(ctx, reversalOf("r3", "nope")), apperrors.ErrNotFound)
}

func TestLedgerRepository_ListEntriesPages(t *testing.T) {
	repo := NewLedgerRepository()
	ctx := context.Background()
	for i, id := range []string{"c", "a", "e", "b", "d"} {
		require.NoError(t, repo.SaveEntry(ctx, cashEntry(id, 5-i)))
	}

	var ids []string
	filter := domain.EntryFilter{Limit: 2}
	for pages := 0; ; pages++ {
		require.Less(t, pages, 5)
		page, next, err := repo.ListEntries(ctx, filter)
		require.NoError(t, err)
		for _, e := range page {
			ids = append(ids, e.EntryID)
		}
		if next == nil {
			break
		}
		filter.NextToken = next
	}
	assert.Equal(t, []string{"d", "b", "e", "a", "c"}, ids)

	bad := "not-a-token"
	_, _, err := repo.ListEntries(ctx, domain.EntryFilter{NextToken: &bad})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestLedgerRepository_UpdateEntryStatus(t *testing.T) {
	repo := NewLedgerRepository()
	ctx := context.Background()
	require.NoError(t, repo.SaveEntry(ctx, cashEntry("e1", 1)))
	at := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.UpdateEntryStatus(ctx, "e1", domain.Voided, "typo", at))
	got, err := repo.FindEntryByID(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, domain.Voided, got.Status)
	assert.Equal(t, "typo", got.VoidReason)
	require.NotNil(t, got.VoidedAt)
	assert.True(t, at.Equal(*got.VoidedAt))

	posted, _, err := repo.ListEntries(ctx, domain.EntryFilter{}.PostedOnly())
	require.NoError(t, err)
	assert.Empty(t, posted)
	assert.ErrorIs(t, repo.UpdateEntryStatus(ctx, "missing", domain.Voided, "x", at), apperrors.ErrNotFound)
}
