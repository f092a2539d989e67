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
	"github.com/SscSPs/property_ledger/internal/dto"
	"github.com/SscSPs/property_ledger/internal/statemachine"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const defaultAbandonGracePeriod = 14 * 24 * time.Hour

// correctionService drives obligations through the end of their lifecycle and posts the
// reversing and forfeiture entries that go with it.
type correctionService struct {
	BaseService
	ledger      portssvc.LedgerSvcFacade
	obligations portsrepo.ObligationSource
	lifecycles  portsrepo.LifecycleRepository
	locks       *EntityLocks
	grace       time.Duration
	concurrency int
	now         func() time.Time
}

// CorrectionServiceOption is a functional option for configuring the correction service
type CorrectionServiceOption func(*correctionService)

// WithAbandonGracePeriod sets how long an obligation may stay unoccupied after its start
// before the sweep forfeits it.
func WithAbandonGracePeriod(d time.Duration) CorrectionServiceOption {
	return func(s *correctionService) {
		s.grace = d
	}
}

// WithCorrectionLocks shares an entity lock table with the other writers.
func WithCorrectionLocks(locks *EntityLocks) CorrectionServiceOption {
	return func(s *correctionService) {
		s.locks = locks
	}
}

// WithSweepConcurrency bounds how many obligations the sweep forfeits at once.
func WithSweepConcurrency(n int) CorrectionServiceOption {
	return func(s *correctionService) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithCorrectionClock overrides the clock used to stamp lifecycle changes.
func WithCorrectionClock(now func() time.Time) CorrectionServiceOption {
	return func(s *correctionService) {
		s.now = now
	}
}

// WithCorrectionLogger sets the fallback logger of the correction service.
func WithCorrectionLogger(l *zap.Logger) CorrectionServiceOption {
	return func(s *correctionService) {
		s.Logger = l
	}
}

// NewCorrectionService creates a new correction service with the provided options
func NewCorrectionService(ledger portssvc.LedgerSvcFacade, obligations portsrepo.ObligationSource, lifecycles portsrepo.LifecycleRepository, options ...CorrectionServiceOption) portssvc.CorrectionSvc {
	svc := &correctionService{
		ledger:      ledger,
		obligations: obligations,
		lifecycles:  lifecycles,
		grace:       defaultAbandonGracePeriod,
		concurrency: defaultAccrualConcurrency,
		now:         func() time.Time { return time.Now().UTC() },
	}
	for _, option := range options {
		option(svc)
	}
	if svc.locks == nil {
		svc.locks = NewEntityLocks()
	}
	return svc
}

var _ portssvc.CorrectionSvc = (*correctionService)(nil)

// TerminateEarly reverses every accrual of the obligation dated after actualEnd, records
// the end date and moves the obligation to ended early.
func (s *correctionService) TerminateEarly(ctx context.Context, obligationID string, actualEnd time.Time) (*dto.CorrectionResult, error) {
	o, err := s.getObligation(ctx, obligationID)
	if err != nil {
		return nil, err
	}
	if actualEnd.IsZero() || !actualEnd.Before(o.PlannedEndDate) {
		return nil, fmt.Errorf("%w: actual end %s must be before the planned end %s", apperrors.ErrValidation,
			actualEnd.Format(time.DateOnly), o.PlannedEndDate.Format(time.DateOnly))
	}

	unlock := s.locks.Lock(o.EntityID)
	defer unlock()

	if err := s.requireState(ctx, o.ObligationID, domain.StateActive, domain.StateEndedEarly); err != nil {
		return nil, err
	}

	reversed, err := s.reverseAccruals(ctx, *o, domain.ReasonEarlyTermination, func(e domain.LedgerEntry) bool {
		return e.Date.After(actualEnd)
	})
	if err != nil {
		return nil, err
	}
	if err := s.obligations.RecordActualEndDate(ctx, o.ObligationID, actualEnd); err != nil {
		return nil, fmt.Errorf("failed to record end date of %s: %w", o.ObligationID, err)
	}

	state, changed, err := s.transition(ctx, o.ObligationID, "early termination", (*statemachine.ObligationFSM).Terminate)
	if err != nil {
		return nil, err
	}
	result := &dto.CorrectionResult{
		ObligationID:     o.ObligationID,
		State:            state,
		ReversedEntryIDs: reversed,
		AlreadyApplied:   len(reversed) == 0 && !changed,
	}
	s.logResult(ctx, "Early termination applied", result)
	return result, nil
}

// Forfeit reverses the obligation's live accruals and reclassifies everything the entity
// paid as forfeited income: Dr AR for the applied part, Dr advance payments for the
// unapplied part, Cr forfeited income for the total. Cash is untouched.
func (s *correctionService) Forfeit(ctx context.Context, obligationID string, asOf time.Time) (*dto.CorrectionResult, error) {
	o, err := s.getObligation(ctx, obligationID)
	if err != nil {
		return nil, err
	}
	if asOf.IsZero() {
		return nil, fmt.Errorf("%w: forfeiture date is required", apperrors.ErrValidation)
	}

	unlock := s.locks.Lock(o.EntityID)
	defer unlock()

	if err := s.requireState(ctx, o.ObligationID, domain.StateActive, domain.StateAbandoned); err != nil {
		return nil, err
	}

	reversed, err := s.reverseAccruals(ctx, *o, domain.ReasonForfeiture, func(domain.LedgerEntry) bool { return true })
	if err != nil {
		return nil, err
	}

	forfeitureID, created, err := s.postForfeiture(ctx, *o, asOf)
	if err != nil {
		return nil, err
	}

	state, changed, err := s.transition(ctx, o.ObligationID, "forfeiture", (*statemachine.ObligationFSM).Abandon)
	if err != nil {
		return nil, err
	}
	result := &dto.CorrectionResult{
		ObligationID:      o.ObligationID,
		State:             state,
		ReversedEntryIDs:  reversed,
		ForfeitureEntryID: forfeitureID,
		AlreadyApplied:    len(reversed) == 0 && !created && !changed,
	}
	s.logResult(ctx, "Forfeiture applied", result)
	return result, nil
}

func (s *correctionService) postForfeiture(ctx context.Context, o domain.Obligation, asOf time.Time) (string, bool, error) {
	id := forfeitureEntryID(o.ObligationID)
	if _, err := s.ledger.GetEntry(ctx, id); err == nil {
		return id, false, nil
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return "", false, err
	}

	view, err := loadEntityView(ctx, s.ledger, o.EntityID)
	if err != nil {
		return "", false, fmt.Errorf("failed to load outstanding view of %s: %w", o.EntityID, err)
	}

	components := make(map[domain.Component]decimal.Decimal)
	applied := decimal.Zero
	alreadyForfeited := view.forfeitedAR
	for _, c := range domain.TenantComponents {
		amount := view.arCredits[c]
		if alreadyForfeited.IsPositive() {
			take := decimal.Min(alreadyForfeited, amount)
			amount = amount.Sub(take)
			alreadyForfeited = alreadyForfeited.Sub(take)
		}
		if amount.IsPositive() {
			components[c] = amount
			applied = applied.Add(amount)
		}
	}
	advance := decimal.Zero
	for c, amount := range view.advanceRemaining() {
		components[c] = components[c].Add(amount)
		advance = advance.Add(amount)
	}

	total := applied.Add(advance)
	if !total.IsPositive() {
		s.LogInfo(ctx, "Nothing paid toward obligation, no forfeiture posted",
			zap.String("obligation_id", o.ObligationID))
		return "", false, nil
	}

	desc := fmt.Sprintf("Forfeiture of payments by %s for %s", displayName(o), o.ObligationID)
	var lines []domain.Line
	if applied.IsPositive() {
		lines = append(lines, domain.DebitLine(domain.Subledger(domain.CodeAccountsReceivable, o.EntityID).Code(), applied, desc))
	}
	if advance.IsPositive() {
		lines = append(lines, domain.DebitLine(domain.Subledger(domain.CodeAdvancePayments, o.EntityID).Code(), advance, desc))
	}
	lines = append(lines, domain.CreditLine(domain.CodeForfeitedIncome, total, desc))

	entryID, created, err := s.ledger.Append(ctx, domain.LedgerEntry{
		EntryID:     id,
		Date:        asOf,
		Source:      domain.SourcePaymentForfeiture,
		Description: desc,
		Lines:       lines,
		Metadata: domain.EntryMetadata{
			EntityID:     o.EntityID,
			PropertyID:   o.PropertyID,
			ObligationID: o.ObligationID,
			Forfeiture: &domain.ForfeitureDetails{
				Applied:    applied,
				Advance:    advance,
				Components: components,
			},
		},
	})
	if err != nil {
		return "", false, fmt.Errorf("failed to post forfeiture of %s: %w", o.ObligationID, err)
	}
	return entryID, created, nil
}

// reverseAccruals posts a swapped-line reversal for every live accrual of o selected by
// match. Accruals already reversed are skipped.
func (s *correctionService) reverseAccruals(ctx context.Context, o domain.Obligation, reason domain.ReversalReason, match func(domain.LedgerEntry) bool) ([]string, error) {
	entries, _, err := s.ledger.Query(ctx, domain.EntryFilter{
		ObligationID: o.ObligationID,
		Sources:      []domain.EntrySource{domain.SourceRentalAccrual, domain.SourceExpenseAccrual},
	}.PostedOnly())
	if err != nil {
		return nil, fmt.Errorf("failed to list accruals of %s: %w", o.ObligationID, err)
	}

	var reversed []string
	for _, e := range entries {
		if e.ReversedBy != "" || !match(e) {
			continue
		}
		lines := make([]domain.Line, len(e.Lines))
		for i, l := range e.Lines {
			lines[i] = l.Swapped()
		}
		id, created, err := s.ledger.Append(ctx, domain.LedgerEntry{
			EntryID:     reversalEntryID(e.EntryID),
			Date:        e.Date,
			Source:      domain.SourceAccrualReversal,
			Description: "Reversal: " + e.Description,
			Lines:       lines,
			Metadata: domain.EntryMetadata{
				EntityID:     e.Metadata.EntityID,
				PropertyID:   e.Metadata.PropertyID,
				ObligationID: e.Metadata.ObligationID,
				MonthKey:     e.Metadata.MonthKey,
				Reversal: &domain.ReversalDetails{
					OriginalEntryID: e.EntryID,
					Reason:          reason,
					Component:       e.Component(),
				},
			},
		})
		if errors.Is(err, apperrors.ErrDuplicate) {
			s.LogInfo(ctx, "Accrual already reversed, skipping",
				zap.String("entry_id", e.EntryID),
				zap.String("kind", apperrors.Kind(apperrors.ErrDuplicateRun)))
			continue
		}
		if err != nil {
			return reversed, fmt.Errorf("failed to reverse accrual %s: %w", e.EntryID, err)
		}
		if created {
			reversed = append(reversed, id)
		}
	}
	return reversed, nil
}

// CompleteOnSchedule marks an obligation that ran its full term.
func (s *correctionService) CompleteOnSchedule(ctx context.Context, obligationID string, asOf time.Time) (*dto.CorrectionResult, error) {
	o, err := s.getObligation(ctx, obligationID)
	if err != nil {
		return nil, err
	}
	if asOf.Before(o.PlannedEndDate) {
		return nil, fmt.Errorf("%w: obligation %s runs until %s", apperrors.ErrValidation, o.ObligationID, o.PlannedEndDate.Format(time.DateOnly))
	}
	unlock := s.locks.Lock(o.EntityID)
	defer unlock()

	state, changed, err := s.transition(ctx, o.ObligationID, "completed on schedule", (*statemachine.ObligationFSM).Complete)
	if err != nil {
		return nil, err
	}
	return &dto.CorrectionResult{ObligationID: o.ObligationID, State: state, AlreadyApplied: !changed}, nil
}

// Close closes an ended obligation.
func (s *correctionService) Close(ctx context.Context, obligationID string) (*dto.CorrectionResult, error) {
	o, err := s.getObligation(ctx, obligationID)
	if err != nil {
		return nil, err
	}
	unlock := s.locks.Lock(o.EntityID)
	defer unlock()

	state, changed, err := s.transition(ctx, o.ObligationID, "closed", (*statemachine.ObligationFSM).Close)
	if err != nil {
		return nil, err
	}
	return &dto.CorrectionResult{ObligationID: o.ObligationID, State: state, AlreadyApplied: !changed}, nil
}

// SweepAbandoned forfeits every active obligation that is still unoccupied a grace period
// after it started.
func (s *correctionService) SweepAbandoned(ctx context.Context, asOf time.Time) (*domain.BatchResult, error) {
	cutoff := asOf.Add(-s.grace)
	obligations, err := s.obligations.ListUnoccupiedObligations(ctx, cutoff)
	if err != nil {
		s.LogError(ctx, err, "Failed to list unoccupied obligations")
		return nil, fmt.Errorf("failed to list unoccupied obligations: %w", err)
	}

	results := make([]domain.ItemResult, len(obligations))
	g := new(errgroup.Group)
	g.SetLimit(s.concurrency)
	for i, o := range obligations {
		g.Go(func() error {
			results[i] = s.sweepItem(ctx, o, asOf)
			return nil
		})
	}
	_ = g.Wait()

	batch := &domain.BatchResult{Results: make([]domain.ItemResult, 0, len(results))}
	for _, r := range results {
		batch.Add(r)
	}
	s.LogInfo(ctx, "Abandonment sweep finished",
		zap.Time("as_of", asOf),
		zap.Int("total", batch.Total),
		zap.Int("forfeited", batch.Created),
		zap.Int("errors", batch.Errors))
	return batch, nil
}

func (s *correctionService) sweepItem(ctx context.Context, o domain.Obligation, asOf time.Time) domain.ItemResult {
	item := domain.ItemResult{ObligationID: o.ObligationID, EntityID: o.EntityID}
	if err := ctx.Err(); err != nil {
		return failed(item, err)
	}
	state, err := currentState(ctx, s.lifecycles, o.ObligationID)
	if err != nil {
		return failed(item, err)
	}
	if state != domain.StateActive {
		item.Status = domain.ResultSkipped
		return item
	}
	r, err := s.Forfeit(ctx, o.ObligationID, asOf)
	if err != nil {
		s.LogError(ctx, err, "Forfeiture failed", zap.String("obligation_id", o.ObligationID))
		return failed(item, err)
	}
	item.Status = domain.ResultCreated
	item.EntryIDs = append(item.EntryIDs, r.ReversedEntryIDs...)
	if r.ForfeitureEntryID != "" {
		item.EntryIDs = append(item.EntryIDs, r.ForfeitureEntryID)
	}
	return item
}

func (s *correctionService) getObligation(ctx context.Context, obligationID string) (*domain.Obligation, error) {
	if obligationID == "" {
		return nil, fmt.Errorf("%w: obligation id is required", apperrors.ErrValidation)
	}
	o, err := s.obligations.GetObligation(ctx, obligationID)
	if err != nil {
		return nil, fmt.Errorf("obligation %s: %w", obligationID, err)
	}
	return o, nil
}

// requireState fails with ErrInvalidTransition unless the obligation is in one of allowed.
func (s *correctionService) requireState(ctx context.Context, obligationID string, allowed ...domain.LifecycleState) error {
	state, err := currentState(ctx, s.lifecycles, obligationID)
	if err != nil {
		return err
	}
	for _, a := range allowed {
		if state == a {
			return nil
		}
	}
	return fmt.Errorf("%w: obligation %s is %s", apperrors.ErrInvalidTransition, obligationID, state)
}

// transition fires an FSM event and stores the new lifecycle with a version check.
func (s *correctionService) transition(ctx context.Context, obligationID, reason string, fire func(*statemachine.ObligationFSM, context.Context) (bool, error)) (domain.LifecycleState, bool, error) {
	lc, err := s.lifecycles.GetLifecycle(ctx, obligationID)
	if errors.Is(err, apperrors.ErrNotFound) {
		lc = &domain.ObligationLifecycle{ObligationID: obligationID, State: domain.StateActive}
	} else if err != nil {
		return "", false, fmt.Errorf("failed to load lifecycle of %s: %w", obligationID, err)
	}

	expected := lc.Version
	changed, err := fire(statemachine.NewObligationFSM(lc), ctx)
	if err != nil || !changed {
		return lc.State, false, err
	}

	lc.Reason = reason
	lc.ChangedAt = s.now()
	lc.Version = expected + 1
	if err := s.lifecycles.SaveLifecycle(ctx, *lc, expected); err != nil {
		return "", false, fmt.Errorf("failed to save lifecycle of %s: %w", obligationID, err)
	}
	return lc.State, true, nil
}

func (s *correctionService) logResult(ctx context.Context, msg string, r *dto.CorrectionResult) {
	fields := []zap.Field{
		zap.String("obligation_id", r.ObligationID),
		zap.String("state", string(r.State)),
		zap.Int("reversed", len(r.ReversedEntryIDs)),
	}
	if r.AlreadyApplied {
		fields = append(fields, zap.String("kind", apperrors.Kind(apperrors.ErrDuplicateRun)))
	}
	s.LogInfo(ctx, msg, fields...)
}
