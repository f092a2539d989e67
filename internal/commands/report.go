package commands

import (
	"context"
	"fmt"

	"github.com/SscSPs/property_ledger/internal/core/domain"
	"github.com/spf13/cobra"
)

type reportFlags struct {
	basis    string
	property string
	asOf     string
	from     string
	to       string
}

func (f *reportFlags) parseBasis() (domain.Basis, error) {
	b := domain.Basis(f.basis)
	if !b.IsValid() {
		return "", fmt.Errorf("--basis must be cash or accrual, got %q", f.basis)
	}
	return b, nil
}

func (f *reportFlags) parseRange() (domain.DateRange, error) {
	from, err := parseDate("from", f.from)
	if err != nil {
		return domain.DateRange{}, err
	}
	to, err := parseDate("to", f.to)
	if err != nil {
		return domain.DateRange{}, err
	}
	return domain.DateRange{From: from, To: to}, nil
}

func newReportCommand(factory AppFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Compile financial statements",
	}
	cmd.AddCommand(
		pointInTimeReport(factory, "balance-sheet", "Balance sheet as of a date",
			func(ctx context.Context, app *App, f *reportFlags, basis domain.Basis) (any, error) {
				asOf, err := parseDate("as-of", f.asOf)
				if err != nil {
					return nil, err
				}
				return app.Services.Reporting.CompileBalanceSheet(ctx, asOf, basis, domain.Scope{PropertyID: f.property})
			}),
		pointInTimeReport(factory, "trial-balance", "Trial balance as of a date",
			func(ctx context.Context, app *App, f *reportFlags, basis domain.Basis) (any, error) {
				asOf, err := parseDate("as-of", f.asOf)
				if err != nil {
					return nil, err
				}
				return app.Services.Reporting.CompileTrialBalance(ctx, asOf, basis, domain.Scope{PropertyID: f.property})
			}),
		periodReport(factory, "income-statement", "Income statement for a date range",
			func(ctx context.Context, app *App, f *reportFlags, basis domain.Basis) (any, error) {
				rng, err := f.parseRange()
				if err != nil {
					return nil, err
				}
				return app.Services.Reporting.CompileIncomeStatement(ctx, rng, basis, domain.Scope{PropertyID: f.property})
			}),
		periodReport(factory, "cash-flow", "Cash flow statement for a date range",
			func(ctx context.Context, app *App, f *reportFlags, basis domain.Basis) (any, error) {
				rng, err := f.parseRange()
				if err != nil {
					return nil, err
				}
				return app.Services.Reporting.CompileCashFlow(ctx, rng, basis, domain.Scope{PropertyID: f.property})
			}),
	)
	return cmd
}

type compileFunc func(ctx context.Context, app *App, f *reportFlags, basis domain.Basis) (any, error)

func reportCommand(factory AppFactory, use, short string, f *reportFlags, compile compileFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			basis, err := f.parseBasis()
			if err != nil {
				return err
			}
			return withApp(cmd, factory, func(ctx context.Context, app *App) error {
				report, err := compile(ctx, app, f, basis)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), report)
			})
		},
	}
	cmd.Flags().StringVar(&f.basis, "basis", string(domain.BasisAccrual), "cash or accrual")
	cmd.Flags().StringVar(&f.property, "property", "", "restrict the report to one property")
	return cmd
}

func pointInTimeReport(factory AppFactory, use, short string, compile compileFunc) *cobra.Command {
	f := &reportFlags{}
	cmd := reportCommand(factory, use, short, f, compile)
	cmd.Flags().StringVar(&f.asOf, "as-of", "", "report date, YYYY-MM-DD (required)")
	_ = cmd.MarkFlagRequired("as-of")
	return cmd
}

func periodReport(factory AppFactory, use, short string, compile compileFunc) *cobra.Command {
	f := &reportFlags{}
	cmd := reportCommand(factory, use, short, f, compile)
	cmd.Flags().StringVar(&f.from, "from", "", "first day, YYYY-MM-DD (required)")
	cmd.Flags().StringVar(&f.to, "to", "", "last day, YYYY-MM-DD (required)")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}
