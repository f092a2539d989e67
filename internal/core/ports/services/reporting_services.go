package services

import (
	"context"
	"time"

	"github.com/SscSPs/property_ledger/internal/core/domain"
)

// ReportingService compiles financial statements from the ledger
type ReportingService interface {
	// CompileBalanceSheet generates a balance sheet as of a specific date
	CompileBalanceSheet(ctx context.Context, asOf time.Time, basis domain.Basis, scope domain.Scope) (*domain.BalanceSheet, error)

	// CompileIncomeStatement generates an income statement for a date range
	CompileIncomeStatement(ctx context.Context, rng domain.DateRange, basis domain.Basis, scope domain.Scope) (*domain.IncomeStatement, error)

	// CompileCashFlow generates a cash flow statement for a date range
	CompileCashFlow(ctx context.Context, rng domain.DateRange, basis domain.Basis, scope domain.Scope) (*domain.CashFlowStatement, error)

	// CompileTrialBalance generates a trial balance as of a specific date
	CompileTrialBalance(ctx context.Context, asOf time.Time, basis domain.Basis, scope domain.Scope) (*domain.TrialBalance, error)
}
