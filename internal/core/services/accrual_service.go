package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/SscSPs/property_ledger/internal/apperrors"
	"github.com/SscSPs/property_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/property_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/property_ledger/internal/core/ports/services"
	"github.com/SscSPs/property_ledger/internal/dto"
	"github.com/SscSPs/property_ledger/internal/validation"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const defaultAccrualConcurrency = 8

// accrualService recognizes obligations period by period.
type accrualService struct {
	BaseService
	ledger      portssvc.LedgerSvcFacade
	obligations portsrepo.ObligationSource
	lifecycles  portsrepo.LifecycleRepository
	locks       *EntityLocks
	anchorDay   int
	concurrency int
}

// AccrualServiceOption is a functional option for configuring the accrual service
type AccrualServiceOption func(*accrualService)

// WithAnchorDay sets the day of month accrual entries are dated on.
func WithAnchorDay(day int) AccrualServiceOption {
	return func(s *accrualService) {
		s.anchorDay = day
	}
}

// WithAccrualConcurrency bounds how many obligations a batch run accrues at once.
func WithAccrualConcurrency(n int) AccrualServiceOption {
	return func(s *accrualService) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithAccrualLocks shares an entity lock table with the other writers.
func WithAccrualLocks(locks *EntityLocks) AccrualServiceOption {
	return func(s *accrualService) {
		s.locks = locks
	}
}

// WithAccrualLogger sets the fallback logger of the accrual service.
func WithAccrualLogger(l *zap.Logger) AccrualServiceOption {
	return func(s *accrualService) {
		s.Logger = l
	}
}

// NewAccrualService creates a new accrual service with the provided options
func NewAccrualService(ledger portssvc.LedgerSvcFacade, obligations portsrepo.ObligationSource, lifecycles portsrepo.LifecycleRepository, options ...AccrualServiceOption) portssvc.AccrualSvc {
	svc := &accrualService{
		ledger:      ledger,
		obligations: obligations,
		lifecycles:  lifecycles,
		anchorDay:   1,
		concurrency: defaultAccrualConcurrency,
	}
	for _, option := range options {
		option(svc)
	}
	if svc.locks == nil {
		svc.locks = NewEntityLocks()
	}
	return svc
}

var _ portssvc.AccrualSvc = (*accrualService)(nil)

// AccrueObligation posts the accruals obligation owes for period and applies any advance
// payments waiting for them.
func (s *accrualService) AccrueObligation(ctx context.Context, obligation domain.Obligation, period domain.Period) (*dto.AccrualResult, error) {
	if err := validation.Struct(obligation); err != nil {
		return nil, fmt.Errorf("obligation %s: %w", obligation.ObligationID, err)
	}
	if period.IsZero() {
		return nil, fmt.Errorf("%w: period is required", apperrors.ErrValidation)
	}

	result := &dto.AccrualResult{ObligationID: obligation.ObligationID}
	if !obligation.ActiveIn(period) {
		return result, nil
	}

	unlock := s.locks.Lock(obligation.EntityID)
	defer unlock()

	// A correction may have finished since the caller read the obligation.
	current, err := s.obligations.GetObligation(ctx, obligation.ObligationID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload obligation %s: %w", obligation.ObligationID, err)
	}
	obligation = *current
	if !obligation.ActiveIn(period) {
		s.LogDebug(ctx, "Obligation no longer covers period",
			zap.String("obligation_id", obligation.ObligationID),
			zap.String("period", period.String()))
		return result, nil
	}
	state, err := currentState(ctx, s.lifecycles, obligation.ObligationID)
	if err != nil {
		return nil, err
	}
	if state == domain.StateAbandoned || state == domain.StateClosed {
		s.LogDebug(ctx, "Obligation no longer accrues",
			zap.String("obligation_id", obligation.ObligationID),
			zap.String("state", string(state)))
		return result, nil
	}

	for _, c := range obligation.ComponentsDue(period) {
		id := accrualEntryID(obligation.ObligationID, period, c)
		exists, err := s.accrualExists(ctx, obligation, period, c)
		if err != nil {
			return nil, err
		}
		if exists {
			s.LogInfo(ctx, "Accrual already posted, skipping",
				zap.String("obligation_id", obligation.ObligationID),
				zap.String("period", period.String()),
				zap.String("component", string(c)),
				zap.String("kind", apperrors.Kind(apperrors.ErrDuplicateRun)))
			result.Skipped = append(result.Skipped, id)
			continue
		}

		entryID, created, err := s.ledger.Append(ctx, s.accrualEntry(id, obligation, period, c))
		if err != nil {
			return nil, fmt.Errorf("failed to accrue %s for %s %s: %w", c, obligation.ObligationID, period, err)
		}
		if created {
			result.Created = append(result.Created, entryID)
		} else {
			result.Skipped = append(result.Skipped, entryID)
		}
	}

	if obligation.Kind == domain.KindLease {
		applied, err := s.applyAdvances(ctx, obligation, period)
		if err != nil {
			return nil, err
		}
		result.Applied = applied
	}
	return result, nil
}

// accrualExists looks for an accrual of (entity, monthKey, source, component) in any status,
// so a voided accrual is not silently re-posted.
func (s *accrualService) accrualExists(ctx context.Context, obligation domain.Obligation, period domain.Period, c domain.Component) (bool, error) {
	entries, _, err := s.ledger.Query(ctx, domain.EntryFilter{
		EntityID:     obligation.EntityID,
		ObligationID: obligation.ObligationID,
		MonthKey:     period,
		Sources:      []domain.EntrySource{accrualSource(obligation.Kind)},
	})
	if err != nil {
		return false, fmt.Errorf("failed to check accruals of %s: %w", obligation.ObligationID, err)
	}
	for _, e := range entries {
		if e.Component() == c {
			return true, nil
		}
	}
	return false, nil
}

func accrualSource(kind domain.ObligationKind) domain.EntrySource {
	if kind == domain.KindExpense {
		return domain.SourceExpenseAccrual
	}
	return domain.SourceRentalAccrual
}

func (s *accrualService) accrualEntry(id string, o domain.Obligation, period domain.Period, c domain.Component) domain.LedgerEntry {
	amount := o.AmountFor(c)
	entry := domain.LedgerEntry{
		EntryID: id,
		Date:    period.AnchorDate(s.anchorDay),
		Source:  accrualSource(o.Kind),
		Metadata: domain.EntryMetadata{
			EntityID:     o.EntityID,
			PropertyID:   o.PropertyID,
			ObligationID: o.ObligationID,
			MonthKey:     period,
			Accrual:      &domain.AccrualDetails{Component: c},
		},
	}
	if o.EntityName != "" {
		entry.Metadata.Extra = map[string]string{"entityName": o.EntityName}
	}

	if o.Kind == domain.KindExpense {
		expense := o.ExpenseAccount
		if expense == "" {
			expense = domain.CodeOtherExpenses
		}
		payable := domain.Subledger(domain.CodeAccountsPayable, o.EntityID).Code()
		entry.Description = fmt.Sprintf("Expense %s - %s", period, displayName(o))
		entry.Lines = []domain.Line{
			domain.DebitLine(expense, amount, entry.Description),
			domain.CreditLine(payable, amount, entry.Description),
		}
		return entry
	}

	receivable := domain.Subledger(domain.CodeAccountsReceivable, o.EntityID).Code()
	entry.Description = fmt.Sprintf("%s %s - %s", componentLabel(c), period, displayName(o))
	entry.Lines = []domain.Line{
		domain.DebitLine(receivable, amount, entry.Description),
		domain.CreditLine(domain.CreditTargetFor(c, o.EntityID), amount, entry.Description),
	}
	return entry
}

// applyAdvances settles the period's outstanding accruals from advances the entity paid
// earlier, oldest advance first.
func (s *accrualService) applyAdvances(ctx context.Context, o domain.Obligation, period domain.Period) ([]string, error) {
	view, err := loadEntityView(ctx, s.ledger, o.EntityID)
	if err != nil {
		return nil, fmt.Errorf("failed to load outstanding view of %s: %w", o.EntityID, err)
	}

	receivable := domain.Subledger(domain.CodeAccountsReceivable, o.EntityID).Code()
	advances := domain.Subledger(domain.CodeAdvancePayments, o.EntityID).Code()

	var applied []string
	for _, c := range domain.TenantComponents {
		due := view.outstanding(period, c)
		for _, adv := range view.openAdvances(c, period) {
			if !due.IsPositive() {
				break
			}
			amount := decimal.Min(due, adv.Remaining)
			desc := fmt.Sprintf("Apply advance %s to %s %s", adv.PaymentID, c, period)
			entry := domain.LedgerEntry{
				EntryID:     applicationEntryID(adv.EntryID, period),
				Date:        period.AnchorDate(s.anchorDay),
				Source:      domain.SourcePayment,
				Description: desc,
				Lines: []domain.Line{
					domain.DebitLine(advances, amount, desc),
					domain.CreditLine(receivable, amount, desc),
				},
				Metadata: domain.EntryMetadata{
					EntityID:     o.EntityID,
					PropertyID:   o.PropertyID,
					ObligationID: o.ObligationID,
					MonthKey:     period,
					Payment: &domain.PaymentDetails{
						PaymentID:      adv.PaymentID,
						PaymentType:    c,
						MonthSettled:   period,
						AllocationType: domain.AllocationSettlement,
						AdvanceEntryID: adv.EntryID,
					},
				},
			}
			id, created, err := s.ledger.Append(ctx, entry)
			if err != nil {
				return nil, fmt.Errorf("failed to apply advance %s: %w", adv.EntryID, err)
			}
			if created {
				applied = append(applied, id)
			}
			view.settle(period, c, amount)
			adv.Remaining = adv.Remaining.Sub(amount)
			due = due.Sub(amount)
		}
	}
	return applied, nil
}

// AccrueThrough backfills every period from the obligation start up to through.
func (s *accrualService) AccrueThrough(ctx context.Context, obligation domain.Obligation, through domain.Period) (*dto.AccrualResult, error) {
	last := obligation.EndPeriod()
	if through.Before(last) {
		last = through
	}
	result := &dto.AccrualResult{ObligationID: obligation.ObligationID}
	for _, p := range domain.PeriodsBetween(obligation.StartPeriod(), last) {
		r, err := s.AccrueObligation(ctx, obligation, p)
		if err != nil {
			return result, err
		}
		result.Created = append(result.Created, r.Created...)
		result.Skipped = append(result.Skipped, r.Skipped...)
		result.Applied = append(result.Applied, r.Applied...)
	}
	return result, nil
}

// RunAccrualsForPeriod accrues every obligation active in period. A failing obligation is
// reported in the result and never stops the others.
func (s *accrualService) RunAccrualsForPeriod(ctx context.Context, period domain.Period) (*domain.BatchResult, error) {
	if period.IsZero() {
		return nil, fmt.Errorf("%w: period is required", apperrors.ErrValidation)
	}
	obligations, err := s.obligations.ListActiveObligations(ctx, period)
	if err != nil {
		s.LogError(ctx, err, "Failed to list active obligations", zap.String("period", period.String()))
		return nil, fmt.Errorf("failed to list obligations active in %s: %w", period, err)
	}

	results := make([]domain.ItemResult, len(obligations))
	g := new(errgroup.Group)
	g.SetLimit(s.concurrency)
	for i, o := range obligations {
		g.Go(func() error {
			results[i] = s.accrueItem(ctx, o, period)
			return nil
		})
	}
	_ = g.Wait()

	batch := &domain.BatchResult{Results: make([]domain.ItemResult, 0, len(results))}
	for _, r := range results {
		batch.Add(r)
	}
	s.LogInfo(ctx, "Accrual run finished",
		zap.String("period", period.String()),
		zap.Int("total", batch.Total),
		zap.Int("created", batch.Created),
		zap.Int("skipped", batch.Skipped),
		zap.Int("errors", batch.Errors))
	return batch, nil
}

func (s *accrualService) accrueItem(ctx context.Context, o domain.Obligation, period domain.Period) domain.ItemResult {
	item := domain.ItemResult{ObligationID: o.ObligationID, EntityID: o.EntityID}
	if err := ctx.Err(); err != nil {
		return failed(item, err)
	}
	r, err := s.AccrueObligation(ctx, o, period)
	if err != nil {
		s.LogError(ctx, err, "Accrual failed",
			zap.String("obligation_id", o.ObligationID),
			zap.String("period", period.String()))
		return failed(item, err)
	}
	item.EntryIDs = append(append([]string{}, r.Created...), r.Applied...)
	if len(item.EntryIDs) > 0 {
		item.Status = domain.ResultCreated
	} else {
		item.Status = domain.ResultSkipped
	}
	return item
}

func failed(item domain.ItemResult, err error) domain.ItemResult {
	item.Status = domain.ResultFailed
	item.ErrorKind = apperrors.Kind(err)
	item.Error = err.Error()
	return item
}

// currentState returns the lifecycle state of an obligation; no record means active.
func currentState(ctx context.Context, repo portsrepo.LifecycleRepository, obligationID string) (domain.LifecycleState, error) {
	lc, err := repo.GetLifecycle(ctx, obligationID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return domain.StateActive, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to load lifecycle of %s: %w", obligationID, err)
	}
	return lc.State, nil
}

func displayName(o domain.Obligation) string {
	if o.EntityName != "" {
		return o.EntityName
	}
	return o.EntityID
}

func componentLabel(c domain.Component) string {
	switch c {
	case domain.ComponentRent:
		return "Rent"
	case domain.ComponentAdmin:
		return "Admin fee"
	case domain.ComponentDeposit:
		return "Deposit"
	}
	return string(c)
}
