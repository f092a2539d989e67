package pgsql

import (
	"context"
	"errors"
	"time"

	"github.com/SscSPs/property_ledger/internal/apperrors"
	"github.com/SscSPs/property_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/property_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/property_ledger/internal/models"
	"github.com/SscSPs/property_ledger/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const obligationColumns = `obligation_id, kind, entity_id, entity_name, property_id, start_date,
	planned_end_date, actual_end_date, occupied_at, monthly_rent, admin_fee, deposit,
	expense_account, monthly_amount`

type PgxObligationRepository struct {
	BaseRepository
}

func newPgxObligationRepository(pool *pgxpool.Pool) portsrepo.ObligationRepositoryFacade {
	return &PgxObligationRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.ObligationRepositoryFacade = (*PgxObligationRepository)(nil)

// SaveObligation inserts an obligation or replaces the stored terms.
func (r *PgxObligationRepository) SaveObligation(ctx context.Context, obligation domain.Obligation) error {
	m := mapping.ToModelObligation(obligation)
	_, err := r.Pool.Exec(ctx, `
		INSERT INTO obligations (`+obligationColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (obligation_id) DO UPDATE SET
			kind = EXCLUDED.kind,
			entity_id = EXCLUDED.entity_id,
			entity_name = EXCLUDED.entity_name,
			property_id = EXCLUDED.property_id,
			start_date = EXCLUDED.start_date,
			planned_end_date = EXCLUDED.planned_end_date,
			actual_end_date = EXCLUDED.actual_end_date,
			occupied_at = EXCLUDED.occupied_at,
			monthly_rent = EXCLUDED.monthly_rent,
			admin_fee = EXCLUDED.admin_fee,
			deposit = EXCLUDED.deposit,
			expense_account = EXCLUDED.expense_account,
			monthly_amount = EXCLUDED.monthly_amount;
	`,
		m.ObligationID, m.Kind, m.EntityID, m.EntityName, m.PropertyID, m.StartDate,
		m.PlannedEndDate, m.ActualEndDate, m.OccupiedAt, m.MonthlyRent, m.AdminFee, m.Deposit,
		m.ExpenseAccount, m.MonthlyAmount,
	)
	if err != nil {
		return writeError(err, "obligation "+m.ObligationID)
	}
	return nil
}

// GetObligation retrieves one obligation by id.
func (r *PgxObligationRepository) GetObligation(ctx context.Context, obligationID string) (*domain.Obligation, error) {
	row := r.Pool.QueryRow(ctx, `SELECT `+obligationColumns+` FROM obligations WHERE obligation_id = $1;`, obligationID)
	m, err := scanObligation(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to get obligation "+obligationID, err)
	}
	o := mapping.ToDomainObligation(m)
	return &o, nil
}

// ListActiveObligations returns obligations whose term overlaps period.
func (r *PgxObligationRepository) ListActiveObligations(ctx context.Context, period domain.Period) ([]domain.Obligation, error) {
	return r.list(ctx, `
		SELECT `+obligationColumns+` FROM obligations
		WHERE start_date < $1 AND COALESCE(actual_end_date, planned_end_date) >= $2
		ORDER BY obligation_id;
	`, period.Next().Start(), period.Start())
}

// ListUnoccupiedObligations returns leases never occupied that started on or before startedBy.
func (r *PgxObligationRepository) ListUnoccupiedObligations(ctx context.Context, startedBy time.Time) ([]domain.Obligation, error) {
	return r.list(ctx, `
		SELECT `+obligationColumns+` FROM obligations
		WHERE kind = $1 AND occupied_at IS NULL AND start_date <= $2
		ORDER BY obligation_id;
	`, string(domain.KindLease), startedBy)
}

// RecordActualEndDate stores the actual end date of an obligation.
func (r *PgxObligationRepository) RecordActualEndDate(ctx context.Context, obligationID string, actualEnd time.Time) error {
	tag, err := r.Pool.Exec(ctx, `UPDATE obligations SET actual_end_date = $2 WHERE obligation_id = $1;`, obligationID, actualEnd)
	if err != nil {
		return apperrors.NewAppError(500, "failed to record end date of "+obligationID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *PgxObligationRepository) list(ctx context.Context, query string, args ...any) ([]domain.Obligation, error) {
	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to list obligations", err)
	}
	defer rows.Close()

	out := make([]domain.Obligation, 0)
	for rows.Next() {
		m, err := scanObligation(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan obligation row", err)
		}
		out = append(out, mapping.ToDomainObligation(m))
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating obligation rows", err)
	}
	return out, nil
}

func scanObligation(row pgx.Row) (models.Obligation, error) {
	var m models.Obligation
	err := row.Scan(
		&m.ObligationID, &m.Kind, &m.EntityID, &m.EntityName, &m.PropertyID, &m.StartDate,
		&m.PlannedEndDate, &m.ActualEndDate, &m.OccupiedAt, &m.MonthlyRent, &m.AdminFee, &m.Deposit,
		&m.ExpenseAccount, &m.MonthlyAmount,
	)
	return m, err
}
