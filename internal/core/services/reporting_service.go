package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/SscSPs/property_ledger/internal/apperrors"
	"github.com/SscSPs/property_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/property_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/property_ledger/internal/core/ports/services"
	"github.com/SscSPs/property_ledger/internal/utils/accounting"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var defaultBalanceEpsilon = decimal.New(1, -2)

// reportingService implements the ReportingService interface. It only reads.
type reportingService struct {
	BaseService
	ledger      portssvc.LedgerReaderSvc
	chart       portssvc.ChartSvc
	obligations portsrepo.ObligationSource
	epsilon     decimal.Decimal
}

// ReportingServiceOption is a functional option for configuring the reporting service
type ReportingServiceOption func(*reportingService)

// WithBalanceEpsilon sets the tolerance above which an unbalanced report gets a diagnostic.
func WithBalanceEpsilon(epsilon decimal.Decimal) ReportingServiceOption {
	return func(s *reportingService) {
		s.epsilon = epsilon
	}
}

// WithReportingLogger sets the fallback logger of the reporting service.
func WithReportingLogger(l *zap.Logger) ReportingServiceOption {
	return func(s *reportingService) {
		s.Logger = l
	}
}

// NewReportingService creates a new reporting service with the provided options
func NewReportingService(ledger portssvc.LedgerReaderSvc, chart portssvc.ChartSvc, obligations portsrepo.ObligationSource, options ...ReportingServiceOption) portssvc.ReportingService {
	svc := &reportingService{
		ledger:      ledger,
		chart:       chart,
		obligations: obligations,
		epsilon:     defaultBalanceEpsilon,
	}
	for _, option := range options {
		option(svc)
	}
	return svc
}

// Ensure reportingService implements the ReportingService interface
var _ portssvc.ReportingService = (*reportingService)(nil)

// CompileBalanceSheet generates a balance sheet as of a specific date
func (s *reportingService) CompileBalanceSheet(ctx context.Context, asOf time.Time, basis domain.Basis, scope domain.Scope) (*domain.BalanceSheet, error) {
	if err := validateReport(asOf, basis); err != nil {
		return nil, err
	}
	entries, err := s.snapshot(ctx, basis, scope, func(e domain.LedgerEntry) bool {
		return includedAsOf(e, asOf, basis)
	})
	if err != nil {
		return nil, err
	}

	byType := s.rollUp(entries)
	sheet := &domain.BalanceSheet{
		AsOf:        asOf,
		Basis:       basis,
		Scope:       scope,
		Assets:      byType[domain.Asset],
		Liabilities: byType[domain.Liability],
		Equity:      byType[domain.Equity],
	}
	sheet.RetainedEarnings = total(byType[domain.Income]).Sub(total(byType[domain.Expense]))
	sheet.TotalAssets = total(sheet.Assets)
	sheet.TotalLiabilities = total(sheet.Liabilities)
	sheet.TotalEquity = total(sheet.Equity).Add(sheet.RetainedEarnings)

	diff := sheet.TotalAssets.Sub(sheet.TotalLiabilities.Add(sheet.TotalEquity))
	if diff.Abs().GreaterThan(s.epsilon) {
		sheet.Diagnostics = append(sheet.Diagnostics, domain.Diagnostic{
			Kind:       domain.DiagnosticBalanceMismatch,
			Message:    fmt.Sprintf("assets %s != liabilities + equity %s", sheet.TotalAssets.StringFixed(2), sheet.TotalLiabilities.Add(sheet.TotalEquity).StringFixed(2)),
			Difference: diff,
		})
		s.LogError(ctx, apperrors.ErrBalanceMismatch, "Balance sheet does not balance",
			zap.Time("as_of", asOf),
			zap.String("basis", string(basis)),
			zap.String("difference", diff.StringFixed(2)))
	}
	return sheet, nil
}

// CompileIncomeStatement generates an income statement for a date range
func (s *reportingService) CompileIncomeStatement(ctx context.Context, rng domain.DateRange, basis domain.Basis, scope domain.Scope) (*domain.IncomeStatement, error) {
	if err := validateRange(rng, basis); err != nil {
		return nil, err
	}
	entries, err := s.snapshot(ctx, basis, scope, func(e domain.LedgerEntry) bool {
		return includedInRange(e, rng, basis)
	})
	if err != nil {
		return nil, err
	}

	byType := s.rollUp(entries)
	stmt := &domain.IncomeStatement{
		Range:    rng,
		Basis:    basis,
		Scope:    scope,
		Revenue:  byType[domain.Income],
		Expenses: byType[domain.Expense],
	}
	stmt.TotalRevenue = total(stmt.Revenue)
	stmt.TotalExpenses = total(stmt.Expenses)
	stmt.NetIncome = stmt.TotalRevenue.Sub(stmt.TotalExpenses)
	return stmt, nil
}

// CompileCashFlow generates a cash flow statement for a date range. Cash moves when it
// moves, so the basis does not change the numbers.
func (s *reportingService) CompileCashFlow(ctx context.Context, rng domain.DateRange, basis domain.Basis, scope domain.Scope) (*domain.CashFlowStatement, error) {
	if err := validateRange(rng, basis); err != nil {
		return nil, err
	}
	entries, err := s.scoped(ctx, scope)
	if err != nil {
		return nil, err
	}

	stmt := &domain.CashFlowStatement{
		Range:        rng,
		Basis:        basis,
		Scope:        scope,
		Opening:      decimal.Zero,
		Closing:      decimal.Zero,
		NetOperating: decimal.Zero,
		NetFinancing: decimal.Zero,
	}
	var operating, financing flowLines
	for _, e := range entries {
		cash := cashNet(e)
		if cash.IsZero() || e.Date.After(rng.To) {
			continue
		}
		stmt.Closing = stmt.Closing.Add(cash)
		if e.Date.Before(rng.From) {
			stmt.Opening = stmt.Opening.Add(cash)
			continue
		}
		label, category := classifyCash(e)
		if category == domain.CashFlowFinancing {
			financing.add(label, e.Source, cash)
			stmt.NetFinancing = stmt.NetFinancing.Add(cash)
		} else {
			operating.add(label, e.Source, cash)
			stmt.NetOperating = stmt.NetOperating.Add(cash)
		}
	}
	stmt.Operating = operating.lines
	stmt.Financing = financing.lines
	stmt.NetChange = stmt.NetOperating.Add(stmt.NetFinancing)
	if !scope.IsZero() {
		return stmt, nil
	}

	// Closing comes from the cash account itself, not from the classified flows.
	closing, err := s.cashOnHand(ctx, rng.To)
	if err != nil {
		return nil, err
	}
	stmt.Closing = closing
	if diff := stmt.Opening.Add(stmt.NetChange).Sub(stmt.Closing); !diff.IsZero() {
		stmt.Diagnostics = append(stmt.Diagnostics, domain.Diagnostic{
			Kind:       domain.DiagnosticCashFlowMismatch,
			Message:    fmt.Sprintf("opening %s + net change %s != closing %s", stmt.Opening.StringFixed(2), stmt.NetChange.StringFixed(2), stmt.Closing.StringFixed(2)),
			Difference: diff,
		})
	}
	return stmt, nil
}

// cashOnHand sums the posted cash lines dated on or before asOf.
func (s *reportingService) cashOnHand(ctx context.Context, asOf time.Time) (decimal.Decimal, error) {
	entries, _, err := s.ledger.Query(ctx, domain.EntryFilter{To: asOf, AccountPrefix: domain.CodeCash}.PostedOnly())
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to load cash entries: %w", err)
	}
	total := decimal.Zero
	for _, e := range entries {
		total = total.Add(cashNet(e))
	}
	return total, nil
}

// CompileTrialBalance generates a trial balance as of a specific date
func (s *reportingService) CompileTrialBalance(ctx context.Context, asOf time.Time, basis domain.Basis, scope domain.Scope) (*domain.TrialBalance, error) {
	if err := validateReport(asOf, basis); err != nil {
		return nil, err
	}
	entries, err := s.snapshot(ctx, basis, scope, func(e domain.LedgerEntry) bool {
		return includedAsOf(e, asOf, basis)
	})
	if err != nil {
		return nil, err
	}

	nets := make(map[string]decimal.Decimal)
	for _, e := range entries {
		for _, l := range e.Lines {
			nets[l.AccountCode] = nets[l.AccountCode].Add(l.Net())
		}
	}
	codes := make([]string, 0, len(nets))
	for code := range nets {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	tb := &domain.TrialBalance{AsOf: asOf, Basis: basis, Scope: scope, TotalDebit: decimal.Zero, TotalCredit: decimal.Zero}
	for _, code := range codes {
		net := nets[code]
		if net.IsZero() {
			continue
		}
		account, err := s.chart.ResolveAccount(code)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", code, err)
		}
		row := domain.TrialBalanceRow{Code: code, Name: account.Name, Type: account.Type, Debit: decimal.Zero, Credit: decimal.Zero}
		if net.IsPositive() {
			row.Debit = net
		} else {
			row.Credit = net.Neg()
		}
		tb.Rows = append(tb.Rows, row)
		tb.TotalDebit = tb.TotalDebit.Add(row.Debit)
		tb.TotalCredit = tb.TotalCredit.Add(row.Credit)
	}
	if diff := tb.TotalDebit.Sub(tb.TotalCredit); diff.Abs().GreaterThan(s.epsilon) {
		tb.Diagnostics = append(tb.Diagnostics, domain.Diagnostic{
			Kind:       domain.DiagnosticBalanceMismatch,
			Message:    fmt.Sprintf("debits %s != credits %s", tb.TotalDebit.StringFixed(2), tb.TotalCredit.StringFixed(2)),
			Difference: diff,
		})
	}
	return tb, nil
}

func validateReport(asOf time.Time, basis domain.Basis) error {
	if !basis.IsValid() {
		return fmt.Errorf("%w: unknown basis %q", apperrors.ErrValidation, basis)
	}
	if asOf.IsZero() {
		return fmt.Errorf("%w: as-of date is required", apperrors.ErrValidation)
	}
	return nil
}

func validateRange(rng domain.DateRange, basis domain.Basis) error {
	if !basis.IsValid() {
		return fmt.Errorf("%w: unknown basis %q", apperrors.ErrValidation, basis)
	}
	if rng.From.IsZero() || rng.To.IsZero() || rng.From.After(rng.To) {
		return fmt.Errorf("%w: invalid range %s..%s", apperrors.ErrValidation, rng.From.Format(time.DateOnly), rng.To.Format(time.DateOnly))
	}
	return nil
}

// snapshot returns the scoped entries selected by include, projected onto basis. Whole
// entries are kept or dropped so every snapshot balances.
func (s *reportingService) snapshot(ctx context.Context, basis domain.Basis, scope domain.Scope, include func(domain.LedgerEntry) bool) ([]domain.LedgerEntry, error) {
	entries, err := s.scoped(ctx, scope)
	if err != nil {
		return nil, err
	}
	out := make([]domain.LedgerEntry, 0, len(entries))
	for _, e := range entries {
		if basis == domain.BasisCash {
			projected, ok := cashView(e)
			if !ok {
				continue
			}
			e = projected
		}
		if include(e) {
			out = append(out, e)
		}
	}
	return out, nil
}

// scoped loads every posted entry and keeps those belonging to scope. Entries without a
// property id of their own inherit it from the entry they reverse, the advance they apply
// or the obligation they belong to.
func (s *reportingService) scoped(ctx context.Context, scope domain.Scope) ([]domain.LedgerEntry, error) {
	entries, _, err := s.ledger.Query(ctx, domain.EntryFilter{}.PostedOnly())
	if err != nil {
		s.LogError(ctx, err, "Failed to load ledger entries for report")
		return nil, fmt.Errorf("failed to load ledger entries: %w", err)
	}
	if scope.IsZero() {
		return entries, nil
	}

	byID := make(map[string]domain.LedgerEntry, len(entries))
	for _, e := range entries {
		byID[e.EntryID] = e
	}
	r := &propertyResolver{ctx: ctx, byID: byID, obligations: s.obligations, cache: map[string]string{}, obligationCache: map[string]string{}}

	out := make([]domain.LedgerEntry, 0, len(entries))
	for _, e := range entries {
		property, err := r.propertyOf(e, 0)
		if err != nil {
			return nil, err
		}
		if property == scope.PropertyID {
			out = append(out, e)
		}
	}
	return out, nil
}

type propertyResolver struct {
	ctx             context.Context
	byID            map[string]domain.LedgerEntry
	obligations     portsrepo.ObligationSource
	cache           map[string]string
	obligationCache map[string]string
}

// maxReferenceDepth bounds how far a reference chain is followed.
const maxReferenceDepth = 8

func (r *propertyResolver) propertyOf(e domain.LedgerEntry, depth int) (string, error) {
	if e.Metadata.PropertyID != "" {
		return e.Metadata.PropertyID, nil
	}
	if p, ok := r.cache[e.EntryID]; ok {
		return p, nil
	}
	property := ""
	var refs []string
	if id := e.ReversalOf(); id != "" {
		refs = append(refs, id)
	}
	if e.Metadata.Payment != nil && e.Metadata.Payment.AdvanceEntryID != "" {
		refs = append(refs, e.Metadata.Payment.AdvanceEntryID)
	}
	for _, id := range refs {
		if ref, ok := r.byID[id]; ok && depth < maxReferenceDepth {
			p, err := r.propertyOf(ref, depth+1)
			if err != nil {
				return "", err
			}
			if p != "" {
				property = p
				break
			}
		}
	}
	if property == "" && e.Metadata.ObligationID != "" {
		p, err := r.obligationProperty(e.Metadata.ObligationID)
		if err != nil {
			return "", err
		}
		property = p
	}
	r.cache[e.EntryID] = property
	return property, nil
}

func (r *propertyResolver) obligationProperty(obligationID string) (string, error) {
	if p, ok := r.obligationCache[obligationID]; ok {
		return p, nil
	}
	if r.obligations == nil {
		return "", nil
	}
	o, err := r.obligations.GetObligation(r.ctx, obligationID)
	if errors.Is(err, apperrors.ErrNotFound) {
		r.obligationCache[obligationID] = ""
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve property of obligation %s: %w", obligationID, err)
	}
	r.obligationCache[obligationID] = o.PropertyID
	return o.PropertyID, nil
}

// includedAsOf applies the effective-period rule on the accrual basis: entries keyed to a
// period count once that period has started, the rest by date.
func includedAsOf(e domain.LedgerEntry, asOf time.Time, basis domain.Basis) bool {
	if basis == domain.BasisAccrual {
		if p, keyed := e.RecognitionPeriod(); keyed {
			return !p.After(domain.PeriodOf(asOf))
		}
	}
	return !e.Date.After(asOf)
}

func includedInRange(e domain.LedgerEntry, rng domain.DateRange, basis domain.Basis) bool {
	if basis == domain.BasisAccrual {
		if p, keyed := e.RecognitionPeriod(); keyed {
			return !p.Before(domain.PeriodOf(rng.From)) && !p.After(domain.PeriodOf(rng.To))
		}
	}
	return rng.Contains(e.Date)
}

// cashView projects e onto the cash basis. Entries that move no cash are dropped, except
// forfeitures which reclassify cash already received. Receivable and advance lines are
// replaced by the account the payment's component is recognized in.
func cashView(e domain.LedgerEntry) (domain.LedgerEntry, bool) {
	m := e.Metadata
	switch e.Source {
	case domain.SourceRentalAccrual, domain.SourceExpenseAccrual, domain.SourceAccrualReversal:
		return e, false

	case domain.SourcePaymentForfeiture:
		if m.Forfeiture == nil {
			return e, false
		}
		out := e.Clone()
		out.Lines = nil
		totalAmount := decimal.Zero
		for _, c := range domain.TenantComponents {
			amount, ok := m.Forfeiture.Components[c]
			if !ok || !amount.IsPositive() {
				continue
			}
			out.Lines = append(out.Lines, domain.DebitLine(recognitionAccount(c, m.EntityID), amount, e.Description))
			totalAmount = totalAmount.Add(amount)
		}
		if totalAmount.IsZero() {
			return e, false
		}
		out.Lines = append(out.Lines, domain.CreditLine(domain.CodeForfeitedIncome, totalAmount, e.Description))
		return out, true

	case domain.SourcePayment, domain.SourceExpensePayment:
		if m.Payment == nil || m.Payment.AdvanceEntryID != "" || cashNet(e).IsZero() {
			return e, false
		}
		out := e.Clone()
		for i, l := range out.Lines {
			switch {
			case domain.HasRoot(l.AccountCode, domain.CodeAccountsReceivable), domain.HasRoot(l.AccountCode, domain.CodeAdvancePayments):
				out.Lines[i].AccountCode = recognitionAccount(m.Payment.PaymentType, m.EntityID)
				out.Lines[i].AccountType = ""
			case domain.HasRoot(l.AccountCode, domain.CodeAccountsPayable):
				expense := m.Payment.ExpenseAccount
				if expense == "" {
					expense = domain.CodeOtherExpenses
				}
				out.Lines[i].AccountCode = expense
				out.Lines[i].AccountType = ""
			}
		}
		return out, true
	}

	return e, !cashNet(e).IsZero()
}

// recognitionAccount is where a tenant component lands when its cash is received.
func recognitionAccount(c domain.Component, entityID string) string {
	if code, ok := domain.IncomeAccountFor(c); ok {
		return code
	}
	return domain.Subledger(domain.CodeDepositsLiability, entityID).Code()
}

func cashNet(e domain.LedgerEntry) decimal.Decimal {
	net := decimal.Zero
	for _, l := range e.LinesFor(domain.CodeCash) {
		net = net.Add(l.Net())
	}
	return net
}

func classifyCash(e domain.LedgerEntry) (string, domain.CashFlowCategory) {
	switch e.Source {
	case domain.SourcePayment:
		if e.Metadata.Payment != nil {
			switch e.Metadata.Payment.PaymentType {
			case domain.ComponentRent:
				return "Rent receipts", domain.CashFlowOperating
			case domain.ComponentAdmin:
				return "Admin fee receipts", domain.CashFlowOperating
			case domain.ComponentDeposit:
				return "Deposits received", domain.CashFlowFinancing
			}
		}
	case domain.SourceExpensePayment:
		return "Expense payments", domain.CashFlowOperating
	case domain.SourceManual:
		if len(e.LinesFor(domain.CodeOwnerEquity)) > 0 {
			return "Owner contributions and draws", domain.CashFlowFinancing
		}
	}
	return "Other operating cash", domain.CashFlowOperating
}

type flowLines struct {
	lines []domain.CashFlowLine
}

func (f *flowLines) add(label string, source domain.EntrySource, amount decimal.Decimal) {
	for i := range f.lines {
		if f.lines[i].Label == label {
			f.lines[i].Amount = f.lines[i].Amount.Add(amount)
			return
		}
	}
	f.lines = append(f.lines, domain.CashFlowLine{Label: label, Source: source, Amount: amount})
}

// rollUp sums entries into root accounts grouped by type, with per-entity detail for
// sub-ledgers. Accounts that net to zero are omitted.
func (s *reportingService) rollUp(entries []domain.LedgerEntry) map[domain.AccountType][]domain.AccountAmount {
	balances := accounting.Balances(entries, accountTypeOf(s.chart))

	roots := make(map[string]*domain.AccountAmount)
	for code, amount := range balances {
		key, err := domain.ParseAccountCode(code)
		if err != nil {
			continue
		}
		root, err := s.chart.ResolveAccount(key.RootCode)
		if err != nil {
			continue
		}
		aa, ok := roots[root.Code]
		if !ok {
			aa = &domain.AccountAmount{Code: root.Code, Name: root.Name, Type: root.Type, Amount: decimal.Zero}
			roots[root.Code] = aa
		}
		aa.Amount = aa.Amount.Add(amount)
		if key.EntityID != "" && !amount.IsZero() {
			aa.Entities = append(aa.Entities, domain.EntityAmount{EntityID: key.EntityID, Amount: amount})
		}
	}

	out := make(map[domain.AccountType][]domain.AccountAmount)
	for _, aa := range roots {
		if aa.Amount.IsZero() && len(aa.Entities) == 0 {
			continue
		}
		sort.Slice(aa.Entities, func(i, j int) bool { return aa.Entities[i].EntityID < aa.Entities[j].EntityID })
		out[aa.Type] = append(out[aa.Type], *aa)
	}
	for t := range out {
		list := out[t]
		sort.Slice(list, func(i, j int) bool { return list[i].Code < list[j].Code })
	}
	return out
}

func total(accounts []domain.AccountAmount) decimal.Decimal {
	sum := decimal.Zero
	for _, a := range accounts {
		sum = sum.Add(a.Amount)
	}
	return sum
}
