package memory

import portsrepo "github.com/SscSPs/property_ledger/internal/core/ports/repositories"

// NewRepositoryProvider wires fresh in-memory repositories.
func NewRepositoryProvider() portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		LedgerRepo:     NewLedgerRepository(),
		ObligationRepo: NewObligationRepository(),
		LifecycleRepo:  NewLifecycleRepository(),
	}
}
