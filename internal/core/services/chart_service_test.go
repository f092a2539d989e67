package services_test

import (
	"testing"

	"github.com/SscSPs/property_ledger/internal/apperrors"
	"github.com/SscSPs/property_ledger/internal/core/domain"
	"github.com/SscSPs/property_ledger/internal/core/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChartService_ResolveAccount(t *testing.T) {
	chart := services.NewChartService()

	root, err := chart.ResolveAccount("1100")
	require.NoError(t, err)
	assert.Equal(t, domain.Asset, root.Type)
	assert.False(t, root.IsSubledger())

	sub, err := chart.ResolveAccount("1100-tenant42")
	require.NoError(t, err)
	assert.Equal(t, "1100-tenant42", sub.Code)
	assert.Equal(t, "1100", sub.RootCode)
	assert.Equal(t, "tenant42", sub.EntityID)
	assert.Equal(t, domain.Asset, sub.Type)
	assert.Equal(t, "Accounts Receivable - tenant42", sub.Name)

	again, err := chart.ResolveAccount("1100-tenant42")
	require.NoError(t, err)
	assert.Equal(t, sub, again)

	_, err = chart.ResolveAccount("9999-tenant42")
	assert.ErrorIs(t, err, apperrors.ErrUnknownRoot)

	_, err = chart.ResolveAccount("1100-")
	assert.ErrorIs(t, err, apperrors.ErrInvalidAccount)
}

func TestChartService_ListRoots(t *testing.T) {
	roots := services.NewChartService().ListRoots()
	require.NotEmpty(t, roots)
	for i := 1; i < len(roots); i++ {
		assert.Less(t, roots[i-1].Code, roots[i].Code)
	}

	roots[0].Name = "mutated"
	assert.NotEqual(t, "mutated", services.NewChartService().ListRoots()[0].Name)
}
