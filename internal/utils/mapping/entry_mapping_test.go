package mapping

import (
	"testing"
	"time"

	"github.com/SscSPs/property_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntryMapping_ScalarColumns(t *testing.T) {
	entry := domain.LedgerEntry{
		EntryID: "pay-1",
		Date:    time.Date(2025, 7, 5, 0, 0, 0, 0, time.UTC),
		Source:  domain.SourcePayment,
		Status:  domain.Posted,
		Lines: []domain.Line{
			domain.DebitLine(domain.CodeCash, decimal.NewFromInt(220), ""),
			domain.CreditLine("1100-t1", decimal.NewFromInt(220), "June rent"),
		},
		Metadata: domain.EntryMetadata{
			EntityID: "t1",
			Payment: &domain.PaymentDetails{
				PaymentID:      "p-1",
				PaymentType:    domain.ComponentRent,
				MonthSettled:   domain.MustParsePeriod("2025-06"),
				AllocationType: domain.AllocationSettlement,
			},
		},
	}

	row, lines, err := ToModelEntry(entry)
	require.NoError(t, err)
	require.NotNil(t, row.MonthSettled)
	assert.Equal(t, "2025-06", *row.MonthSettled)
	assert.Equal(t, "p-1", *row.PaymentID)
	assert.Equal(t, "t1", *row.EntityID)
	assert.Nil(t, row.PropertyID)
	assert.Nil(t, row.MonthKey)
	assert.Nil(t, row.ReversalOf)
	require.Len(t, lines, 2)
	assert.Equal(t, 2, lines[1].LineNo)
	assert.Equal(t, "June rent", lines[1].Description)

	back, err := ToDomainEntry(row, lines)
	require.NoError(t, err)
	assert.Equal(t, entry.Metadata.Payment, back.Metadata.Payment)
	assert.Equal(t, "1100-t1", back.Lines[1].AccountCode)
	assert.True(t, decimal.NewFromInt(220).Equal(back.Lines[0].Debit))
}

func TestEntryMapping_ReversalLink(t *testing.T) {
	entry := domain.LedgerEntry{
		EntryID: "rev-1",
		Source:  domain.SourceAccrualReversal,
		Metadata: domain.EntryMetadata{
			MonthKey: domain.MustParsePeriod("2025-08"),
			Reversal: &domain.ReversalDetails{OriginalEntryID: "acc-1", Reason: domain.ReasonEarlyTermination},
		},
	}
	row, _, err := ToModelEntry(entry)
	require.NoError(t, err)
	require.NotNil(t, row.ReversalOf)
	assert.Equal(t, "acc-1", *row.ReversalOf)
	assert.Equal(t, "2025-08", *row.MonthKey)
}

func TestEntryMapping_BadMetadata(t *testing.T) {
	row, lines, err := ToModelEntry(domain.LedgerEntry{EntryID: "x", Source: domain.SourceManual})
	require.NoError(t, err)
	row.Metadata = []byte("{not json")
	_, err = ToDomainEntry(row, lines)
	assert.Error(t, err)
}
