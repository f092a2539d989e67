package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SscSPs/property_ledger/internal/apperrors"
	"github.com/SscSPs/property_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/property_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/property_ledger/internal/core/ports/services"
	"github.com/SscSPs/property_ledger/internal/utils/accounting"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ledgerService is the ledger entry store: every writer posts through it.
type ledgerService struct {
	BaseService
	repo  portsrepo.LedgerRepositoryFacade
	chart portssvc.ChartSvc
	now   func() time.Time
}

// LedgerServiceOption is a functional option for configuring the ledger service
type LedgerServiceOption func(*ledgerService)

// WithLedgerClock overrides the clock used to stamp PostedAt and VoidedAt.
func WithLedgerClock(now func() time.Time) LedgerServiceOption {
	return func(s *ledgerService) {
		s.now = now
	}
}

// WithLedgerLogger sets the fallback logger of the ledger service.
func WithLedgerLogger(l *zap.Logger) LedgerServiceOption {
	return func(s *ledgerService) {
		s.Logger = l
	}
}

// NewLedgerService creates a new ledger service with the provided options
func NewLedgerService(repo portsrepo.LedgerRepositoryFacade, chart portssvc.ChartSvc, options ...LedgerServiceOption) portssvc.LedgerSvcFacade {
	svc := &ledgerService{
		repo:  repo,
		chart: chart,
		now:   func() time.Time { return time.Now().UTC() },
	}
	for _, option := range options {
		option(svc)
	}
	return svc
}

var _ portssvc.LedgerSvcFacade = (*ledgerService)(nil)

// Append validates and posts an entry.
func (s *ledgerService) Append(ctx context.Context, entry domain.LedgerEntry) (string, bool, error) {
	if entry.EntryID == "" {
		entry.EntryID = uuid.NewString()
	}

	existing, err := s.repo.FindEntryByID(ctx, entry.EntryID)
	if err == nil && existing != nil {
		s.LogInfo(ctx, "Entry already posted, skipping",
			zap.String("entry_id", entry.EntryID),
			zap.String("source", string(entry.Source)),
			zap.String("kind", apperrors.Kind(apperrors.ErrDuplicateRun)))
		return entry.EntryID, false, nil
	}
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return "", false, fmt.Errorf("failed to check for existing entry %s: %w", entry.EntryID, err)
	}

	if err := s.prepare(ctx, &entry); err != nil {
		s.LogDebug(ctx, "Entry rejected", zap.String("entry_id", entry.EntryID), zap.Error(err))
		return "", false, err
	}

	if err := s.repo.SaveEntry(ctx, entry); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			// A concurrent writer stored the same id first.
			if stored, findErr := s.repo.FindEntryByID(ctx, entry.EntryID); findErr == nil && stored != nil {
				return entry.EntryID, false, nil
			}
		}
		s.LogError(ctx, err, "Failed to save entry", zap.String("entry_id", entry.EntryID))
		return "", false, fmt.Errorf("failed to save entry %s: %w", entry.EntryID, err)
	}

	s.LogDebug(ctx, "Entry posted",
		zap.String("entry_id", entry.EntryID),
		zap.String("source", string(entry.Source)),
		zap.String("amount", entry.TotalDebit().StringFixed(2)))
	return entry.EntryID, true, nil
}

// AppendAll validates entries and posts the ones not yet stored in one atomic write.
func (s *ledgerService) AppendAll(ctx context.Context, entries []domain.LedgerEntry) ([]string, bool, error) {
	if len(entries) == 0 {
		return nil, false, fmt.Errorf("%w: no entries to append", apperrors.ErrValidation)
	}

	ids := make([]string, len(entries))
	pending := make([]domain.LedgerEntry, 0, len(entries))
	for i, entry := range entries {
		if entry.EntryID == "" {
			entry.EntryID = uuid.NewString()
		}
		ids[i] = entry.EntryID

		existing, err := s.repo.FindEntryByID(ctx, entry.EntryID)
		if err == nil && existing != nil {
			continue
		}
		if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			return nil, false, fmt.Errorf("failed to check for existing entry %s: %w", entry.EntryID, err)
		}
		if err := s.prepare(ctx, &entry); err != nil {
			s.LogDebug(ctx, "Entry rejected", zap.String("entry_id", entry.EntryID), zap.Error(err))
			return nil, false, err
		}
		pending = append(pending, entry)
	}

	if len(pending) == 0 {
		s.LogInfo(ctx, "Entries already posted, skipping",
			zap.Strings("entry_ids", ids),
			zap.String("kind", apperrors.Kind(apperrors.ErrDuplicateRun)))
		return ids, false, nil
	}

	if err := s.repo.SaveEntries(ctx, pending); err != nil {
		s.LogError(ctx, err, "Failed to save entries", zap.Int("count", len(pending)))
		return nil, false, fmt.Errorf("failed to save %d entries: %w", len(pending), err)
	}
	s.LogDebug(ctx, "Entries posted", zap.Int("count", len(pending)))
	return ids, true, nil
}

// prepare validates entry and fills in the fields the store owns.
func (s *ledgerService) prepare(ctx context.Context, entry *domain.LedgerEntry) error {
	switch entry.Status {
	case "", domain.Draft, domain.Posted:
		entry.Status = domain.Posted
	default:
		return fmt.Errorf("%w: cannot append an entry with status %s", apperrors.ErrValidation, entry.Status)
	}
	if !entry.Source.IsValid() {
		return fmt.Errorf("%w: unknown source %q", apperrors.ErrValidation, entry.Source)
	}
	if entry.Date.IsZero() {
		return fmt.Errorf("%w: entry date is required", apperrors.ErrValidation)
	}
	if err := accounting.ValidateLines(entry.Lines); err != nil {
		return err
	}

	lines := make([]domain.Line, len(entry.Lines))
	for i, line := range entry.Lines {
		account, err := s.chart.ResolveAccount(line.AccountCode)
		if errors.Is(err, apperrors.ErrUnknownRoot) {
			return fmt.Errorf("%w: line %d: %w", apperrors.ErrInvalidAccount, i, err)
		}
		if err != nil {
			return err
		}
		if line.AccountType == "" {
			line.AccountType = account.Type
		} else if line.AccountType != account.Type {
			return fmt.Errorf("%w: line %d declares %s but %s is %s", apperrors.ErrInvalidAccount, i, line.AccountType, line.AccountCode, account.Type)
		}
		lines[i] = line
	}
	entry.Lines = lines

	if err := entry.ValidateMetadata(); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}

	if originalID := entry.ReversalOf(); originalID != "" {
		original, err := s.repo.FindEntryByID(ctx, originalID)
		if err != nil {
			return fmt.Errorf("failed to load reversed entry %s: %w", originalID, err)
		}
		if !original.IsPosted() {
			return fmt.Errorf("%w: cannot reverse entry %s with status %s", apperrors.ErrValidation, originalID, original.Status)
		}
		if original.ReversedBy != "" {
			return fmt.Errorf("%w: entry %s already reversed by %s", apperrors.ErrDuplicate, originalID, original.ReversedBy)
		}
		if !original.TotalDebit().Equal(entry.TotalDebit()) {
			return fmt.Errorf("%w: reversal of %s must total %s", apperrors.ErrValidation, originalID, original.TotalDebit().StringFixed(2))
		}
	}

	entry.ReversedBy = ""
	entry.VoidReason = ""
	entry.VoidedAt = nil
	entry.PostedAt = s.now()
	entry.CreatedAt = entry.PostedAt
	entry.LastUpdatedAt = entry.PostedAt
	if entry.LastUpdatedBy == "" {
		entry.LastUpdatedBy = entry.CreatedBy
	}
	return nil
}

// GetEntry retrieves an entry by id.
func (s *ledgerService) GetEntry(ctx context.Context, entryID string) (*domain.LedgerEntry, error) {
	entry, err := s.repo.FindEntryByID(ctx, entryID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("entry %s: %w", entryID, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get entry %s: %w", entryID, err)
	}
	return entry, nil
}

// Query lists entries matching filter.
func (s *ledgerService) Query(ctx context.Context, filter domain.EntryFilter) ([]domain.LedgerEntry, *string, error) {
	if filter.Limit < 0 {
		return nil, nil, fmt.Errorf("%w: limit must not be negative", apperrors.ErrValidation)
	}
	entries, next, err := s.repo.ListEntries(ctx, filter)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query entries: %w", err)
	}
	return entries, next, nil
}

// VoidEntry marks a posted entry voided. Voiding a voided entry is a no-op.
func (s *ledgerService) VoidEntry(ctx context.Context, entryID string, reason string) error {
	if reason == "" {
		return fmt.Errorf("%w: a void reason is required", apperrors.ErrValidation)
	}
	entry, err := s.GetEntry(ctx, entryID)
	if err != nil {
		return err
	}
	switch entry.Status {
	case domain.Voided:
		return nil
	case domain.Posted:
	default:
		return fmt.Errorf("%w: cannot void entry %s with status %s", apperrors.ErrValidation, entryID, entry.Status)
	}

	if err := s.repo.UpdateEntryStatus(ctx, entryID, domain.Voided, reason, s.now()); err != nil {
		s.LogError(ctx, err, "Failed to void entry", zap.String("entry_id", entryID))
		return fmt.Errorf("failed to void entry %s: %w", entryID, err)
	}
	s.LogInfo(ctx, "Entry voided", zap.String("entry_id", entryID), zap.String("reason", reason))
	return nil
}

// AccountBalance sums posted lines on code (or, for a bare root, on any of its sub-ledgers)
// dated on or before asOf.
func (s *ledgerService) AccountBalance(ctx context.Context, code string, asOf time.Time) (decimal.Decimal, error) {
	account, err := s.chart.ResolveAccount(code)
	if err != nil {
		return decimal.Zero, err
	}
	prefix := account.Code
	if !account.IsSubledger() {
		prefix = account.RootCode
	}
	entries, _, err := s.Query(ctx, domain.EntryFilter{To: asOf, AccountPrefix: prefix}.PostedOnly())
	if err != nil {
		return decimal.Zero, err
	}

	net := decimal.Zero
	for _, e := range entries {
		for _, l := range e.Lines {
			if l.AccountCode == account.Code || (!account.IsSubledger() && domain.HasRoot(l.AccountCode, account.RootCode)) {
				net = net.Add(l.Net())
			}
		}
	}
	return accounting.NormalBalance(account.Type, net), nil
}

// EntityBalance computes balance(period) = Σ accruals with monthKey ≤ period − Σ settlements
// with monthSettled ≤ period, plus date-recognized entries dated in or before period.
func (s *ledgerService) EntityBalance(ctx context.Context, rootCode, entityID string, period domain.Period) (decimal.Decimal, error) {
	code := domain.Subledger(rootCode, entityID).Code()
	account, err := s.chart.ResolveAccount(code)
	if err != nil {
		return decimal.Zero, err
	}
	entries, _, err := s.Query(ctx, domain.EntryFilter{AccountPrefix: code}.PostedOnly())
	if err != nil {
		return decimal.Zero, err
	}

	net := decimal.Zero
	for _, e := range entries {
		if p, _ := e.RecognitionPeriod(); p.After(period) {
			continue
		}
		net = net.Add(e.NetFor(code))
	}
	return accounting.NormalBalance(account.Type, net), nil
}
