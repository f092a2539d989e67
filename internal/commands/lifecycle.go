package commands

import (
	"context"
	"time"

	"github.com/SscSPs/property_ledger/internal/dto"
	"github.com/spf13/cobra"
)

// datedCorrection builds a command that applies a dated lifecycle change to one obligation.
func datedCorrection(factory AppFactory, use, short, dateFlag, dateHelp string, apply func(ctx context.Context, app *App, obligationID string, at time.Time) (*dto.CorrectionResult, error)) *cobra.Command {
	var obligationID, date string

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			at, err := parseDate(dateFlag, date)
			if err != nil {
				return err
			}
			return withApp(cmd, factory, func(ctx context.Context, app *App) error {
				result, err := apply(ctx, app, obligationID, at)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), result)
			})
		},
	}

	cmd.Flags().StringVar(&obligationID, "obligation", "", "obligation id (required)")
	_ = cmd.MarkFlagRequired("obligation")
	cmd.Flags().StringVar(&date, dateFlag, "", dateHelp+", YYYY-MM-DD (required)")
	_ = cmd.MarkFlagRequired(dateFlag)
	return cmd
}

func newTerminateCommand(factory AppFactory) *cobra.Command {
	return datedCorrection(factory, "terminate", "End an obligation early and reverse later accruals", "end-date", "actual end date",
		func(ctx context.Context, app *App, id string, at time.Time) (*dto.CorrectionResult, error) {
			return app.Services.Correction.TerminateEarly(ctx, id, at)
		})
}

func newForfeitCommand(factory AppFactory) *cobra.Command {
	return datedCorrection(factory, "forfeit", "Forfeit everything paid toward an abandoned obligation", "as-of", "forfeiture date",
		func(ctx context.Context, app *App, id string, at time.Time) (*dto.CorrectionResult, error) {
			return app.Services.Correction.Forfeit(ctx, id, at)
		})
}

func newCompleteCommand(factory AppFactory) *cobra.Command {
	return datedCorrection(factory, "complete", "Mark an obligation that ran its full term", "as-of", "completion date",
		func(ctx context.Context, app *App, id string, at time.Time) (*dto.CorrectionResult, error) {
			return app.Services.Correction.CompleteOnSchedule(ctx, id, at)
		})
}

func newCloseCommand(factory AppFactory) *cobra.Command {
	var obligationID string

	cmd := &cobra.Command{
		Use:   "close",
		Short: "Close an ended obligation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, factory, func(ctx context.Context, app *App) error {
				result, err := app.Services.Correction.Close(ctx, obligationID)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), result)
			})
		},
	}

	cmd.Flags().StringVar(&obligationID, "obligation", "", "obligation id (required)")
	_ = cmd.MarkFlagRequired("obligation")
	return cmd
}
