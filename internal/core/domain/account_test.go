package domain_test

import (
	"testing"

	"github.com/SscSPs/property_ledger/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAccountCode(t *testing.T) {
	tests := []struct {
		code    string
		want    domain.SubledgerKey
		wantErr bool
	}{
		{code: "1000", want: domain.SubledgerKey{RootCode: "1000"}},
		{code: "1100-tenant42", want: domain.SubledgerKey{RootCode: "1100", EntityID: "tenant42"}},
		{code: "2030-a-b", want: domain.SubledgerKey{RootCode: "2030", EntityID: "a-b"}},
		{code: "", wantErr: true},
		{code: "-e1", wantErr: true},
		{code: "1100-", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			got, err := domain.ParseAccountCode(tt.code)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.code, got.Code())
		})
	}
}

func TestHasRoot(t *testing.T) {
	assert.True(t, domain.HasRoot("1100", "1100"))
	assert.True(t, domain.HasRoot("1100-e1", "1100"))
	assert.False(t, domain.HasRoot("11000", "1100"))
	assert.False(t, domain.HasRoot("2030-e1", "1100"))
}

func TestDefaultChart(t *testing.T) {
	seen := map[string]bool{}
	for _, a := range domain.DefaultChart() {
		assert.False(t, seen[a.Code], "duplicate root %s", a.Code)
		seen[a.Code] = true
		assert.True(t, a.Type.IsValid())
		assert.Equal(t, a.Code, a.RootCode)
		assert.False(t, a.IsSubledger())
	}
	for _, code := range []string{domain.CodeCash, domain.CodeAccountsReceivable, domain.CodeAdvancePayments, domain.CodeForfeitedIncome} {
		assert.True(t, seen[code], "missing root %s", code)
	}
}

func TestCreditTargetFor(t *testing.T) {
	assert.Equal(t, "4001", domain.CreditTargetFor(domain.ComponentRent, "e1"))
	assert.Equal(t, "4002", domain.CreditTargetFor(domain.ComponentAdmin, "e1"))
	assert.Equal(t, "2020-e1", domain.CreditTargetFor(domain.ComponentDeposit, "e1"))
}
