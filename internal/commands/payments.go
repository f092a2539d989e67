package commands

import (
	"context"

	"github.com/SscSPs/property_ledger/internal/dto"
	"github.com/spf13/cobra"
)

func newPayCommand(factory AppFactory) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "pay",
		Short: "Allocate a tenant payment oldest-first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var req dto.PaymentRequest
			if err := readJSON(cmd, file, &req); err != nil {
				return err
			}
			return withApp(cmd, factory, func(ctx context.Context, app *App) error {
				result, err := app.Services.Allocation.AllocatePayment(ctx, req)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), result)
			})
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "-", "payment request JSON, - for stdin")
	return cmd
}

func newPayExpenseCommand(factory AppFactory) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "pay-expense",
		Short: "Settle an amount owed to a vendor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var req dto.ExpensePaymentRequest
			if err := readJSON(cmd, file, &req); err != nil {
				return err
			}
			return withApp(cmd, factory, func(ctx context.Context, app *App) error {
				entryID, err := app.Services.Allocation.RecordExpensePayment(ctx, req)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), map[string]string{"entryID": entryID})
			})
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "-", "expense payment JSON, - for stdin")
	return cmd
}

func newPostEntryCommand(factory AppFactory) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "post-entry",
		Short: "Post a manual adjusting entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var req dto.ManualEntryRequest
			if err := readJSON(cmd, file, &req); err != nil {
				return err
			}
			return withApp(cmd, factory, func(ctx context.Context, app *App) error {
				entryID, err := app.Services.Allocation.PostManualEntry(ctx, req)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), map[string]string{"entryID": entryID})
			})
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "-", "manual entry JSON, - for stdin")
	return cmd
}

func newOutstandingCommand(factory AppFactory) *cobra.Command {
	var entityID string

	cmd := &cobra.Command{
		Use:   "outstanding",
		Short: "Show what an entity owes per period and its unapplied advances",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, factory, func(ctx context.Context, app *App) error {
				view, err := app.Services.Allocation.OutstandingView(ctx, entityID)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), view)
			})
		},
	}

	cmd.Flags().StringVar(&entityID, "entity", "", "entity id (required)")
	_ = cmd.MarkFlagRequired("entity")
	return cmd
}
