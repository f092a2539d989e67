package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newAccrueCommand(factory AppFactory) *cobra.Command {
	var period, obligationID string
	var backfill bool

	cmd := &cobra.Command{
		Use:   "accrue",
		Short: "Accrue every active obligation for a period",
		Long: "Accrue every active obligation for a period under the accrual-run lock.\n" +
			"With --obligation only that obligation is accrued; --backfill also fills every earlier period.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := parsePeriod("period", period)
			if err != nil {
				return err
			}
			return withApp(cmd, factory, func(ctx context.Context, app *App) error {
				if obligationID == "" {
					if backfill {
						return fmt.Errorf("--backfill needs --obligation")
					}
					result, err := app.Runner.RunAccruals(ctx, p)
					if err != nil {
						return err
					}
					return writeJSON(cmd.OutOrStdout(), result)
				}

				obligation, err := app.Repos.ObligationRepo.GetObligation(ctx, obligationID)
				if err != nil {
					return fmt.Errorf("obligation %s: %w", obligationID, err)
				}
				accrue := app.Services.Accrual.AccrueObligation
				if backfill {
					accrue = app.Services.Accrual.AccrueThrough
				}
				result, err := accrue(ctx, *obligation, p)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), result)
			})
		},
	}

	cmd.Flags().StringVar(&period, "period", "", "accounting period, YYYY-MM (required)")
	_ = cmd.MarkFlagRequired("period")
	cmd.Flags().StringVar(&obligationID, "obligation", "", "accrue a single obligation")
	cmd.Flags().BoolVar(&backfill, "backfill", false, "accrue every period from the obligation start through --period")
	return cmd
}

func newSweepCommand(factory AppFactory) *cobra.Command {
	var asOf string

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Forfeit obligations never occupied within the grace period",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			at, err := parseDate("as-of", asOf)
			if err != nil {
				return err
			}
			return withApp(cmd, factory, func(ctx context.Context, app *App) error {
				result, err := app.Runner.SweepAbandoned(ctx, at)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), result)
			})
		},
	}

	cmd.Flags().StringVar(&asOf, "as-of", "", "sweep date, YYYY-MM-DD (required)")
	_ = cmd.MarkFlagRequired("as-of")
	return cmd
}
