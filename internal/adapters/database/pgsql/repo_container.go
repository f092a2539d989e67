package pgsql

import (
	portsrepo "github.com/SscSPs/property_ledger/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NewRepositoryProvider wires the postgres-backed repositories onto one pool.
func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		LedgerRepo:     newPgxLedgerRepository(dbPool),
		ObligationRepo: newPgxObligationRepository(dbPool),
		LifecycleRepo:  newPgxLifecycleRepository(dbPool),
	}
}
