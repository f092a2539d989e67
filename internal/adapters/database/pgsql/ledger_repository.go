package pgsql

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/SscSPs/property_ledger/internal/apperrors"
	"github.com/SscSPs/property_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/property_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/property_ledger/internal/models"
	"github.com/SscSPs/property_ledger/internal/utils/mapping"
	"github.com/SscSPs/property_ledger/internal/utils/pagination"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const entryColumns = `e.entry_id, e.entry_date, e.posted_at, e.source, e.status, e.description,
	e.entity_id, e.property_id, e.obligation_id, e.month_key, e.month_settled, e.payment_id,
	e.reversal_of, e.reversed_by, e.void_reason, e.voided_at, e.metadata,
	e.created_at, e.created_by, e.last_updated_at, e.last_updated_by`

type PgxLedgerRepository struct {
	BaseRepository
}

func newPgxLedgerRepository(pool *pgxpool.Pool) portsrepo.LedgerRepositoryFacade {
	return &PgxLedgerRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.LedgerRepositoryFacade = (*PgxLedgerRepository)(nil)

// SaveEntry persists one entry with its lines.
func (r *PgxLedgerRepository) SaveEntry(ctx context.Context, entry domain.LedgerEntry) error {
	return r.SaveEntries(ctx, []domain.LedgerEntry{entry})
}

// SaveEntries inserts every entry, its lines and reversal back-references in one transaction.
func (r *PgxLedgerRepository) SaveEntries(ctx context.Context, entries []domain.LedgerEntry) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	batch := &pgx.Batch{}
	lineQuery := `
		INSERT INTO ledger_lines (entry_id, line_no, account_code, account_type, debit, credit, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7);
	`
	for _, entry := range entries {
		m, lines, err := mapping.ToModelEntry(entry)
		if err != nil {
			return err
		}

		if m.ReversalOf != nil {
			if err := r.lockForReversal(ctx, tx, *m.ReversalOf); err != nil {
				return err
			}
		}

		tag, err := tx.Exec(ctx, `
			INSERT INTO ledger_entries (
				entry_id, entry_date, posted_at, source, status, description,
				entity_id, property_id, obligation_id, month_key, month_settled, payment_id,
				reversal_of, reversed_by, void_reason, voided_at, metadata,
				created_at, created_by, last_updated_at, last_updated_by
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
			ON CONFLICT (entry_id) DO NOTHING;
		`,
			m.EntryID, m.EntryDate, m.PostedAt, m.Source, m.Status, m.Description,
			m.EntityID, m.PropertyID, m.ObligationID, m.MonthKey, m.MonthSettled, m.PaymentID,
			m.ReversalOf, m.ReversedBy, m.VoidReason, m.VoidedAt, m.Metadata,
			m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
		)
		if err != nil {
			return writeError(err, "entry "+m.EntryID)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("entry %s: %w", m.EntryID, apperrors.ErrDuplicate)
		}

		if m.ReversalOf != nil {
			_, err := tx.Exec(ctx, `
				UPDATE ledger_entries SET reversed_by = $1, last_updated_at = $2 WHERE entry_id = $3;
			`, m.EntryID, m.PostedAt, *m.ReversalOf)
			if err != nil {
				return writeError(err, "reversal link of "+*m.ReversalOf)
			}
		}

		for _, l := range lines {
			batch.Queue(lineQuery, l.EntryID, l.LineNo, l.AccountCode, l.AccountType, l.Debit, l.Credit, l.Description)
		}
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return writeError(err, "ledger lines")
	}
	return r.Commit(ctx, tx)
}

// lockForReversal locks the original row so two reversals of it cannot both commit.
func (r *PgxLedgerRepository) lockForReversal(ctx context.Context, tx pgx.Tx, originalID string) error {
	var reversedBy *string
	err := tx.QueryRow(ctx, `SELECT reversed_by FROM ledger_entries WHERE entry_id = $1 FOR UPDATE;`, originalID).Scan(&reversedBy)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("reversed entry %s: %w", originalID, apperrors.ErrNotFound)
	}
	if err != nil {
		return apperrors.NewAppError(500, "failed to lock entry "+originalID, err)
	}
	if reversedBy != nil {
		return fmt.Errorf("entry %s already reversed: %w", originalID, apperrors.ErrDuplicate)
	}
	return nil
}

// FindEntryByID retrieves an entry and its lines.
func (r *PgxLedgerRepository) FindEntryByID(ctx context.Context, entryID string) (*domain.LedgerEntry, error) {
	row := r.Pool.QueryRow(ctx, `SELECT `+entryColumns+` FROM ledger_entries e WHERE e.entry_id = $1;`, entryID)
	m, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find entry "+entryID, err)
	}

	lines, err := r.loadLines(ctx, []string{entryID})
	if err != nil {
		return nil, err
	}
	entry, err := mapping.ToDomainEntry(m, lines[entryID])
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// ListEntries returns matching entries in ledger order, one page at a time when filter.Limit is set.
func (r *PgxLedgerRepository) ListEntries(ctx context.Context, filter domain.EntryFilter) ([]domain.LedgerEntry, *string, error) {
	var cursor *pagination.Cursor
	if filter.NextToken != nil && *filter.NextToken != "" {
		c, err := pagination.DecodeToken(*filter.NextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
		cursor = &c
	}

	query, args := buildEntryQuery(filter, cursor)
	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, apperrors.NewAppError(500, "failed to list entries", err)
	}
	defer rows.Close()

	var rowsOut []models.LedgerEntry
	for rows.Next() {
		m, err := scanEntry(rows)
		if err != nil {
			return nil, nil, apperrors.NewAppError(500, "failed to scan entry row", err)
		}
		rowsOut = append(rowsOut, m)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, apperrors.NewAppError(500, "error iterating entry rows", err)
	}

	var nextToken *string
	if filter.Limit > 0 && len(rowsOut) > filter.Limit {
		rowsOut = rowsOut[:filter.Limit]
		last := rowsOut[len(rowsOut)-1]
		token := pagination.EncodeToken(pagination.Cursor{Date: last.EntryDate, PostedAt: last.PostedAt, EntryID: last.EntryID})
		nextToken = &token
	}

	ids := make([]string, len(rowsOut))
	for i, m := range rowsOut {
		ids[i] = m.EntryID
	}
	lines, err := r.loadLines(ctx, ids)
	if err != nil {
		return nil, nil, err
	}

	entries := make([]domain.LedgerEntry, 0, len(rowsOut))
	for _, m := range rowsOut {
		entry, err := mapping.ToDomainEntry(m, lines[m.EntryID])
		if err != nil {
			return nil, nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nextToken, nil
}

// UpdateEntryStatus flips the status of an entry.
func (r *PgxLedgerRepository) UpdateEntryStatus(ctx context.Context, entryID string, status domain.EntryStatus, reason string, at time.Time) error {
	query := `UPDATE ledger_entries SET status = $2, last_updated_at = $3 WHERE entry_id = $1;`
	args := []any{entryID, string(status), at}
	if status == domain.Voided {
		query = `UPDATE ledger_entries SET status = $2, last_updated_at = $3, void_reason = $4, voided_at = $3 WHERE entry_id = $1;`
		args = append(args, reason)
	}

	tag, err := r.Pool.Exec(ctx, query, args...)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update status of entry "+entryID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *PgxLedgerRepository) loadLines(ctx context.Context, entryIDs []string) (map[string][]models.LedgerLine, error) {
	out := make(map[string][]models.LedgerLine, len(entryIDs))
	if len(entryIDs) == 0 {
		return out, nil
	}

	rows, err := r.Pool.Query(ctx, `
		SELECT entry_id, line_no, account_code, account_type, debit, credit, description
		FROM ledger_lines
		WHERE entry_id = ANY($1)
		ORDER BY entry_id, line_no;
	`, entryIDs)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to load ledger lines", err)
	}
	defer rows.Close()

	for rows.Next() {
		var l models.LedgerLine
		if err := rows.Scan(&l.EntryID, &l.LineNo, &l.AccountCode, &l.AccountType, &l.Debit, &l.Credit, &l.Description); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan ledger line", err)
		}
		out[l.EntryID] = append(out[l.EntryID], l)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating ledger lines", err)
	}
	return out, nil
}

func scanEntry(row pgx.Row) (models.LedgerEntry, error) {
	var m models.LedgerEntry
	err := row.Scan(
		&m.EntryID, &m.EntryDate, &m.PostedAt, &m.Source, &m.Status, &m.Description,
		&m.EntityID, &m.PropertyID, &m.ObligationID, &m.MonthKey, &m.MonthSettled, &m.PaymentID,
		&m.ReversalOf, &m.ReversedBy, &m.VoidReason, &m.VoidedAt, &m.Metadata,
		&m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy,
	)
	return m, err
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// buildEntryQuery renders filter as a parameterized select in ledger order. With a positive
// limit it fetches one extra row so the caller can tell whether another page exists.
func buildEntryQuery(filter domain.EntryFilter, cursor *pagination.Cursor) (string, []any) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}
	eq := func(column string, v string) {
		if v != "" {
			conds = append(conds, column+" = "+arg(v))
		}
	}

	if !filter.From.IsZero() {
		conds = append(conds, "e.entry_date >= "+arg(filter.From))
	}
	if !filter.To.IsZero() {
		conds = append(conds, "e.entry_date <= "+arg(filter.To))
	}
	if len(filter.Sources) > 0 {
		sources := make([]string, len(filter.Sources))
		for i, s := range filter.Sources {
			sources[i] = string(s)
		}
		conds = append(conds, "e.source = ANY("+arg(sources)+")")
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		conds = append(conds, "e.status = ANY("+arg(statuses)+")")
	}
	if filter.AccountPrefix != "" {
		exact := arg(filter.AccountPrefix)
		conds = append(conds, "EXISTS (SELECT 1 FROM ledger_lines l WHERE l.entry_id = e.entry_id AND (l.account_code = "+exact+
			" OR l.account_code LIKE "+arg(likeEscaper.Replace(filter.AccountPrefix)+"-%")+"))")
	}
	eq("e.entity_id", filter.EntityID)
	eq("e.month_key", filter.MonthKey.String())
	eq("e.month_settled", filter.MonthSettled.String())
	eq("e.obligation_id", filter.ObligationID)
	eq("e.property_id", filter.PropertyID)
	eq("e.reversal_of", filter.ReversalOf)
	eq("e.payment_id", filter.PaymentID)
	if cursor != nil {
		conds = append(conds, "(e.entry_date, e.posted_at, e.entry_id) > ("+
			arg(cursor.Date)+", "+arg(cursor.PostedAt)+", "+arg(cursor.EntryID)+")")
	}

	var sb strings.Builder
	sb.WriteString("SELECT " + entryColumns + " FROM ledger_entries e")
	if len(conds) > 0 {
		sb.WriteString(" WHERE " + strings.Join(conds, " AND "))
	}
	sb.WriteString(" ORDER BY e.entry_date, e.posted_at, e.entry_id")
	if filter.Limit > 0 {
		sb.WriteString(" LIMIT " + arg(filter.Limit+1))
	}
	return sb.String(), args
}
