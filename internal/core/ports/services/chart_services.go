package services

import "github.com/SscSPs/property_ledger/internal/core/domain"

// ChartSvc resolves account codes against the chart of accounts.
type ChartSvc interface {
	// ResolveAccount returns the account for a root or composite "root-entity" code.
	// Sub-ledger accounts are synthesized from their root on every call.
	ResolveAccount(code string) (domain.Account, error)

	// ListRoots returns the root accounts sorted by code.
	ListRoots() []domain.Account
}
