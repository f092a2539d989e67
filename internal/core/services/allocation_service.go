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
	"github.com/SscSPs/property_ledger/internal/utils/accounting"
	"github.com/SscSPs/property_ledger/internal/validation"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// allocationService turns incoming money into allocation-tagged ledger entries.
type allocationService struct {
	BaseService
	ledger      portssvc.LedgerSvcFacade
	chart       portssvc.ChartSvc
	obligations portsrepo.ObligationSource
	locks       *EntityLocks
}

// AllocationServiceOption is a functional option for configuring the allocation service
type AllocationServiceOption func(*allocationService)

// WithAllocationLocks shares an entity lock table with the other writers.
func WithAllocationLocks(locks *EntityLocks) AllocationServiceOption {
	return func(s *allocationService) {
		s.locks = locks
	}
}

// WithAllocationLogger sets the fallback logger of the allocation service.
func WithAllocationLogger(l *zap.Logger) AllocationServiceOption {
	return func(s *allocationService) {
		s.Logger = l
	}
}

// NewAllocationService creates a new allocation service with the provided options
func NewAllocationService(ledger portssvc.LedgerSvcFacade, chart portssvc.ChartSvc, obligations portsrepo.ObligationSource, options ...AllocationServiceOption) portssvc.AllocationSvc {
	svc := &allocationService{
		ledger:      ledger,
		chart:       chart,
		obligations: obligations,
	}
	for _, option := range options {
		option(svc)
	}
	if svc.locks == nil {
		svc.locks = NewEntityLocks()
	}
	return svc
}

var _ portssvc.AllocationSvc = (*allocationService)(nil)

// plannedAllocation is one entry a payment will post.
type plannedAllocation struct {
	index int
	dto.Allocation
}

// AllocatePayment splits req across the entity's outstanding periods oldest-first. Amounts
// left over become advances targeted at the next unaccrued period.
func (s *allocationService) AllocatePayment(ctx context.Context, req dto.PaymentRequest) (*dto.AllocationResult, error) {
	components, err := normalizeComponents(req)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(req.EntityID)
	defer unlock()

	if existing, err := s.existingAllocation(ctx, req); err != nil || existing != nil {
		return existing, err
	}

	obligation, err := s.obligationFor(ctx, req.ObligationID)
	if err != nil {
		return nil, err
	}
	if req.PropertyID == "" && obligation != nil {
		req.PropertyID = obligation.PropertyID
	}

	view, err := loadEntityView(ctx, s.ledger, req.EntityID)
	if err != nil {
		return nil, fmt.Errorf("failed to load outstanding view of %s: %w", req.EntityID, err)
	}

	var plan []plannedAllocation
	for i, c := range components {
		plan = append(plan, planComponent(view, obligation, req, i, c)...)
	}

	entries := make([]domain.LedgerEntry, 0, len(plan))
	for i := range plan {
		entry := s.paymentEntry(req, obligation, plan[i])
		plan[i].EntryID = entry.EntryID
		entries = append(entries, entry)
	}

	_, created, err := s.ledger.AppendAll(ctx, entries)
	if err != nil {
		s.LogError(ctx, err, "Failed to post payment", zap.String("payment_id", req.PaymentID))
		return nil, fmt.Errorf("failed to post payment %s: %w", req.PaymentID, err)
	}

	result := &dto.AllocationResult{PaymentID: req.PaymentID, EntityID: req.EntityID}
	for _, p := range plan {
		p.Created = created
		result.Allocations = append(result.Allocations, p.Allocation)
	}
	s.LogInfo(ctx, "Payment allocated",
		zap.String("payment_id", req.PaymentID),
		zap.String("entity_id", req.EntityID),
		zap.Int("entries", len(result.Allocations)))
	return result, nil
}

// normalizeComponents validates req and returns its components with any unassigned part
// of the gross added as rent.
func normalizeComponents(req dto.PaymentRequest) ([]dto.PaymentComponent, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	if !accounting.HasCents(req.Gross) {
		return nil, fmt.Errorf("%w: gross %s has more than 2 decimal places", apperrors.ErrValidation, req.Gross)
	}

	total := decimal.Zero
	components := make([]dto.PaymentComponent, 0, len(req.Components)+1)
	for _, c := range req.Components {
		if !accounting.HasCents(c.Amount) {
			return nil, fmt.Errorf("%w: %s amount %s has more than 2 decimal places", apperrors.ErrValidation, c.Type, c.Amount)
		}
		total = total.Add(c.Amount)
		components = append(components, c)
	}
	if total.GreaterThan(req.Gross) {
		return nil, fmt.Errorf("%w: components total %s exceeds gross %s", apperrors.ErrOverAllocation, total.StringFixed(2), req.Gross.StringFixed(2))
	}
	if rest := req.Gross.Sub(total); rest.IsPositive() {
		components = append(components, dto.PaymentComponent{Type: domain.ComponentRent, Amount: rest})
	}
	return components, nil
}

// existingAllocation rebuilds the result of a payment that was already posted.
func (s *allocationService) existingAllocation(ctx context.Context, req dto.PaymentRequest) (*dto.AllocationResult, error) {
	entries, _, err := s.ledger.Query(ctx, domain.EntryFilter{
		EntityID:  req.EntityID,
		PaymentID: req.PaymentID,
		Sources:   []domain.EntrySource{domain.SourcePayment},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to look up payment %s: %w", req.PaymentID, err)
	}

	var result *dto.AllocationResult
	for _, e := range entries {
		p := e.Metadata.Payment
		if p.AdvanceEntryID != "" {
			continue
		}
		if result == nil {
			result = &dto.AllocationResult{PaymentID: req.PaymentID, EntityID: req.EntityID}
		}
		result.Allocations = append(result.Allocations, dto.Allocation{
			Component:      p.PaymentType,
			MonthSettled:   p.MonthSettled,
			AllocationType: p.AllocationType,
			Amount:         e.TotalDebit(),
			EntryID:        e.EntryID,
		})
	}
	if result != nil {
		s.LogInfo(ctx, "Payment already allocated, skipping",
			zap.String("payment_id", req.PaymentID),
			zap.String("kind", apperrors.Kind(apperrors.ErrDuplicateRun)))
	}
	return result, nil
}

func (s *allocationService) obligationFor(ctx context.Context, obligationID string) (*domain.Obligation, error) {
	if obligationID == "" {
		return nil, nil
	}
	o, err := s.obligations.GetObligation(ctx, obligationID)
	if errors.Is(err, apperrors.ErrNotFound) {
		// A payment without a known obligation is routed to advance handling.
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load obligation %s: %w", obligationID, err)
	}
	return o, nil
}

// planComponent allocates one payment component against view and records the settlements
// in view so later components of the same payment see them.
func planComponent(view *entityView, obligation *domain.Obligation, req dto.PaymentRequest, index int, c dto.PaymentComponent) []plannedAllocation {
	var plan []plannedAllocation
	add := func(period domain.Period, t domain.AllocationType, amount decimal.Decimal) {
		plan = append(plan, plannedAllocation{index: index, Allocation: dto.Allocation{
			Component:      c.Type,
			MonthSettled:   period,
			AllocationType: t,
			Amount:         amount,
		}})
	}

	remaining := c.Amount
	if c.Type.IsOneOff() {
		target := oneOffTarget(view, obligation, req, c.Type)
		if due := view.outstanding(target, c.Type); due.IsPositive() {
			amount := decimal.Min(due, remaining)
			add(target, domain.AllocationSettlement, amount)
			view.settle(target, c.Type, amount)
			remaining = remaining.Sub(amount)
		}
		if remaining.IsPositive() {
			add(target, domain.AllocationAdvance, remaining)
		}
		return plan
	}

	for _, it := range view.openItems(c.Type) {
		if !remaining.IsPositive() {
			break
		}
		amount := decimal.Min(outstandingOf(it), remaining)
		add(it.Period, domain.AllocationSettlement, amount)
		view.settle(it.Period, c.Type, amount)
		remaining = remaining.Sub(amount)
	}
	if remaining.IsPositive() {
		add(rentAdvanceTarget(view, obligation, req), domain.AllocationAdvance, remaining)
	}
	return plan
}

// rentAdvanceTarget is the next period without a rent accrual: the one after the last
// accrued period, else the payment's period, never before the obligation start.
func rentAdvanceTarget(view *entityView, obligation *domain.Obligation, req dto.PaymentRequest) domain.Period {
	target := domain.PeriodOf(req.Date)
	if last, ok := view.lastAccrued(domain.ComponentRent); ok {
		target = last.Next()
	}
	if obligation != nil && obligation.StartPeriod().After(target) {
		target = obligation.StartPeriod()
	}
	return target
}

// oneOffTarget is the single period an admin fee or deposit payment settles: its accrual
// period, else the obligation start, else the payment's period. It is never empty.
func oneOffTarget(view *entityView, obligation *domain.Obligation, req dto.PaymentRequest, c domain.Component) domain.Period {
	if p, ok := view.firstAccrued(c); ok {
		return p
	}
	if obligation != nil {
		return obligation.StartPeriod()
	}
	return domain.PeriodOf(req.Date)
}

func (s *allocationService) paymentEntry(req dto.PaymentRequest, obligation *domain.Obligation, p plannedAllocation) domain.LedgerEntry {
	credit := domain.Subledger(domain.CodeAccountsReceivable, req.EntityID).Code()
	kind := "settles"
	if p.AllocationType == domain.AllocationAdvance {
		credit = domain.Subledger(domain.CodeAdvancePayments, req.EntityID).Code()
		kind = "in advance for"
	}
	desc := req.Description
	if desc == "" {
		desc = fmt.Sprintf("Payment %s: %s %s %s", req.PaymentID, p.Component, kind, p.MonthSettled)
	}

	obligationID := req.ObligationID
	if obligation == nil {
		obligationID = ""
	}
	return domain.LedgerEntry{
		EntryID:     paymentEntryID(req.PaymentID, p.index, p.Component, p.MonthSettled, p.AllocationType),
		Date:        req.Date,
		Source:      domain.SourcePayment,
		Description: desc,
		Lines: []domain.Line{
			domain.DebitLine(domain.CodeCash, p.Amount, desc),
			domain.CreditLine(credit, p.Amount, desc),
		},
		Metadata: domain.EntryMetadata{
			EntityID:     req.EntityID,
			PropertyID:   req.PropertyID,
			ObligationID: obligationID,
			Payment: &domain.PaymentDetails{
				PaymentID:      req.PaymentID,
				PaymentType:    p.Component,
				MonthSettled:   p.MonthSettled,
				AllocationType: p.AllocationType,
			},
		},
	}
}

// OutstandingView returns what the entity owes per period and component.
func (s *allocationService) OutstandingView(ctx context.Context, entityID string) (*domain.OutstandingView, error) {
	if entityID == "" {
		return nil, fmt.Errorf("%w: entity id is required", apperrors.ErrValidation)
	}
	view, err := loadEntityView(ctx, s.ledger, entityID)
	if err != nil {
		return nil, fmt.Errorf("failed to load outstanding view of %s: %w", entityID, err)
	}
	snapshot := view.snapshot()
	return &snapshot, nil
}

// RecordExpensePayment settles an amount owed to a vendor: Dr 2000-vendor / Cr Cash.
func (s *allocationService) RecordExpensePayment(ctx context.Context, req dto.ExpensePaymentRequest) (string, error) {
	if err := validation.Struct(req); err != nil {
		return "", err
	}
	if !accounting.HasCents(req.Amount) {
		return "", fmt.Errorf("%w: amount %s has more than 2 decimal places", apperrors.ErrValidation, req.Amount)
	}
	if req.MonthSettled.IsZero() {
		req.MonthSettled = domain.PeriodOf(req.Date)
	}
	if req.ExpenseAccount == "" {
		req.ExpenseAccount = domain.CodeOtherExpenses
	}
	account, err := s.chart.ResolveAccount(req.ExpenseAccount)
	if err != nil {
		return "", err
	}
	if account.Type != domain.Expense || account.IsSubledger() {
		return "", fmt.Errorf("%w: %s is not an expense root", apperrors.ErrInvalidAccount, req.ExpenseAccount)
	}

	desc := req.Description
	if desc == "" {
		desc = fmt.Sprintf("Expense payment %s to %s", req.PaymentID, req.VendorID)
	}
	entry := domain.LedgerEntry{
		EntryID:     expensePaymentEntryID(req.PaymentID),
		Date:        req.Date,
		Source:      domain.SourceExpensePayment,
		Description: desc,
		Lines: []domain.Line{
			domain.DebitLine(domain.Subledger(domain.CodeAccountsPayable, req.VendorID).Code(), req.Amount, desc),
			domain.CreditLine(domain.CodeCash, req.Amount, desc),
		},
		Metadata: domain.EntryMetadata{
			EntityID:     req.VendorID,
			PropertyID:   req.PropertyID,
			ObligationID: req.ObligationID,
			Payment: &domain.PaymentDetails{
				PaymentID:      req.PaymentID,
				PaymentType:    domain.ComponentExpense,
				MonthSettled:   req.MonthSettled,
				AllocationType: domain.AllocationSettlement,
				ExpenseAccount: account.Code,
			},
		},
	}

	unlock := s.locks.Lock(req.VendorID)
	defer unlock()

	id, _, err := s.ledger.Append(ctx, entry)
	if err != nil {
		return "", fmt.Errorf("failed to record expense payment %s: %w", req.PaymentID, err)
	}
	return id, nil
}

// PostManualEntry posts an adjusting entry.
func (s *allocationService) PostManualEntry(ctx context.Context, req dto.ManualEntryRequest) (string, error) {
	if err := validation.Struct(req); err != nil {
		return "", err
	}
	lines := make([]domain.Line, 0, len(req.Lines))
	for _, l := range req.Lines {
		lines = append(lines, domain.Line{
			AccountCode: l.AccountCode,
			Debit:       l.Debit,
			Credit:      l.Credit,
			Description: l.Description,
		})
	}
	entry := domain.LedgerEntry{
		EntryID:     req.EntryID,
		Date:        req.Date,
		Source:      domain.SourceManual,
		Description: req.Description,
		Lines:       lines,
		Metadata: domain.EntryMetadata{
			EntityID:   req.EntityID,
			PropertyID: req.PropertyID,
			Extra:      req.Extra,
		},
		AuditFields: domain.AuditFields{CreatedBy: req.CreatedBy},
	}
	id, _, err := s.ledger.Append(ctx, entry)
	if err != nil {
		return "", fmt.Errorf("failed to post manual entry: %w", err)
	}
	return id, nil
}
