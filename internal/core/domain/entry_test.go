package domain_test

import (
	"testing"
	"time"

	"github.com/SscSPs/property_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func amt(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func paymentEntry(settled domain.Period, alloc domain.AllocationType) domain.LedgerEntry {
	return domain.LedgerEntry{
		EntryID: "p1",
		Date:    time.Date(2025, 7, 5, 0, 0, 0, 0, time.UTC),
		Source:  domain.SourcePayment,
		Status:  domain.Posted,
		Lines: []domain.Line{
			domain.DebitLine("1000", amt("220"), ""),
			domain.CreditLine("1100-e1", amt("220"), ""),
		},
		Metadata: domain.EntryMetadata{
			EntityID: "e1",
			Payment: &domain.PaymentDetails{
				PaymentID:      "pay-1",
				PaymentType:    domain.ComponentRent,
				MonthSettled:   settled,
				AllocationType: alloc,
			},
		},
	}
}

func TestLedgerEntry_Totals(t *testing.T) {
	e := paymentEntry(domain.MustParsePeriod("2025-06"), domain.AllocationSettlement)
	assert.True(t, e.TotalDebit().Equal(amt("220")))
	assert.True(t, e.IsBalanced())
	assert.True(t, e.NetFor("1100-e1").Equal(amt("-220")))
	assert.Len(t, e.LinesFor("1100"), 1)
	assert.Equal(t, "payment", e.TransactionType())
	assert.False(t, e.IsForfeiture())
	assert.Equal(t, domain.ComponentRent, e.Component())
}

func TestLedgerEntry_ValidateMetadata(t *testing.T) {
	june := domain.MustParsePeriod("2025-06")

	ok := paymentEntry(june, domain.AllocationSettlement)
	assert.NoError(t, ok.ValidateMetadata())

	missing := paymentEntry(domain.Period{}, domain.AllocationSettlement)
	assert.ErrorContains(t, missing.ValidateMetadata(), "monthSettled")

	noDetails := paymentEntry(june, domain.AllocationSettlement)
	noDetails.Metadata.Payment = nil
	assert.Error(t, noDetails.ValidateMetadata())

	accrual := domain.LedgerEntry{Source: domain.SourceRentalAccrual, Metadata: domain.EntryMetadata{EntityID: "e1"}}
	assert.Error(t, accrual.ValidateMetadata())
	accrual.Metadata.Accrual = &domain.AccrualDetails{Component: domain.ComponentRent}
	assert.ErrorContains(t, accrual.ValidateMetadata(), "month key")
	accrual.Metadata.MonthKey = june
	assert.NoError(t, accrual.ValidateMetadata())

	reversal := domain.LedgerEntry{Source: domain.SourceAccrualReversal}
	assert.Error(t, reversal.ValidateMetadata())

	manual := domain.LedgerEntry{Source: domain.SourceManual}
	assert.NoError(t, manual.ValidateMetadata())

	unknown := domain.LedgerEntry{Source: "bogus"}
	assert.Error(t, unknown.ValidateMetadata())
}

func TestLedgerEntry_RecognitionPeriod(t *testing.T) {
	june := domain.MustParsePeriod("2025-06")

	p, keyed := paymentEntry(june, domain.AllocationSettlement).RecognitionPeriod()
	assert.True(t, keyed)
	assert.Equal(t, june, p)

	p, keyed = paymentEntry(june, domain.AllocationAdvance).RecognitionPeriod()
	assert.False(t, keyed)
	assert.Equal(t, "2025-07", p.String())

	accrual := domain.LedgerEntry{
		Source:   domain.SourceRentalAccrual,
		Date:     time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC),
		Metadata: domain.EntryMetadata{MonthKey: june},
	}
	p, keyed = accrual.RecognitionPeriod()
	assert.True(t, keyed)
	assert.Equal(t, june, p)
}

func TestLedgerEntry_CloneIsDeep(t *testing.T) {
	e := paymentEntry(domain.MustParsePeriod("2025-06"), domain.AllocationSettlement)
	e.Metadata.Extra = map[string]string{"k": "v"}

	c := e.Clone()
	c.Lines[0].AccountCode = "changed"
	c.Metadata.Payment.PaymentID = "changed"
	c.Metadata.Extra["k"] = "changed"

	assert.Equal(t, "1000", e.Lines[0].AccountCode)
	assert.Equal(t, "pay-1", e.Metadata.Payment.PaymentID)
	assert.Equal(t, "v", e.Metadata.Extra["k"])
}

func TestEntryFilter_Matches(t *testing.T) {
	june := domain.MustParsePeriod("2025-06")
	e := paymentEntry(june, domain.AllocationSettlement)

	assert.True(t, domain.EntryFilter{}.Matches(e))
	assert.True(t, domain.EntryFilter{MonthSettled: june, EntityID: "e1", AccountPrefix: "1100-e1"}.Matches(e))
	assert.True(t, domain.EntryFilter{AccountPrefix: "1100"}.Matches(e))
	assert.False(t, domain.EntryFilter{AccountPrefix: "1100-e"}.Matches(e))
	assert.False(t, domain.EntryFilter{AccountPrefix: "110"}.Matches(e))
	assert.False(t, domain.EntryFilter{MonthSettled: june.Next()}.Matches(e))
	assert.False(t, domain.EntryFilter{Sources: []domain.EntrySource{domain.SourceManual}}.Matches(e))
	assert.False(t, domain.EntryFilter{}.PostedOnly().Matches(domain.LedgerEntry{Status: domain.Voided}))
	assert.False(t, domain.EntryFilter{To: time.Date(2025, 7, 4, 0, 0, 0, 0, time.UTC)}.Matches(e))
	assert.True(t, domain.EntryFilter{PaymentID: "pay-1"}.Matches(e))
}
