package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/SscSPs/property_ledger/internal/apperrors"
	"github.com/SscSPs/property_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/property_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/property_ledger/internal/models"
	"github.com/SscSPs/property_ledger/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxLifecycleRepository struct {
	BaseRepository
}

func newPgxLifecycleRepository(pool *pgxpool.Pool) portsrepo.LifecycleRepository {
	return &PgxLifecycleRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.LifecycleRepository = (*PgxLifecycleRepository)(nil)

// GetLifecycle returns the stored lifecycle of an obligation.
func (r *PgxLifecycleRepository) GetLifecycle(ctx context.Context, obligationID string) (*domain.ObligationLifecycle, error) {
	var m models.ObligationLifecycle
	err := r.Pool.QueryRow(ctx, `
		SELECT obligation_id, state, reason, changed_at, version
		FROM obligation_lifecycles WHERE obligation_id = $1;
	`, obligationID).Scan(&m.ObligationID, &m.State, &m.Reason, &m.ChangedAt, &m.Version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to get lifecycle of "+obligationID, err)
	}
	lc := mapping.ToDomainLifecycle(m)
	return &lc, nil
}

// SaveLifecycle writes lc only while the stored version equals expectedVersion.
func (r *PgxLifecycleRepository) SaveLifecycle(ctx context.Context, lc domain.ObligationLifecycle, expectedVersion int) error {
	m := mapping.ToModelLifecycle(lc)

	if expectedVersion == 0 {
		tag, err := r.Pool.Exec(ctx, `
			INSERT INTO obligation_lifecycles (obligation_id, state, reason, changed_at, version)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (obligation_id) DO NOTHING;
		`, m.ObligationID, m.State, m.Reason, m.ChangedAt, m.Version)
		if err != nil {
			return writeError(err, "lifecycle of "+m.ObligationID)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("lifecycle of %s: %w", m.ObligationID, apperrors.ErrConflict)
		}
		return nil
	}

	tag, err := r.Pool.Exec(ctx, `
		UPDATE obligation_lifecycles
		SET state = $2, reason = $3, changed_at = $4, version = $5
		WHERE obligation_id = $1 AND version = $6;
	`, m.ObligationID, m.State, m.Reason, m.ChangedAt, m.Version, expectedVersion)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update lifecycle of "+m.ObligationID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("lifecycle of %s at version %d: %w", m.ObligationID, expectedVersion, apperrors.ErrConflict)
	}
	return nil
}
