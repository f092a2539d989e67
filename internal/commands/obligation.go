package commands

import (
	"context"
	"errors"

	"github.com/SscSPs/property_ledger/internal/apperrors"
	"github.com/SscSPs/property_ledger/internal/core/domain"
	"github.com/SscSPs/property_ledger/internal/validation"
	"github.com/spf13/cobra"
)

func newObligationCommand(factory AppFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "obligation",
		Short: "Register and inspect leases and recurring expenses",
	}

	var file string
	add := &cobra.Command{
		Use:   "add",
		Short: "Register an obligation from a JSON document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var obligation domain.Obligation
			if err := readJSON(cmd, file, &obligation); err != nil {
				return err
			}
			if err := validation.Struct(obligation); err != nil {
				return err
			}
			return withApp(cmd, factory, func(ctx context.Context, app *App) error {
				if err := app.Repos.ObligationRepo.SaveObligation(ctx, obligation); err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), obligation)
			})
		},
	}
	add.Flags().StringVarP(&file, "file", "f", "-", "obligation JSON, - for stdin")

	var id string
	show := &cobra.Command{
		Use:   "show",
		Short: "Print an obligation and its lifecycle state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, factory, func(ctx context.Context, app *App) error {
				obligation, err := app.Repos.ObligationRepo.GetObligation(ctx, id)
				if err != nil {
					return err
				}
				state, err := lifecycleState(ctx, app, id)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), struct {
					domain.Obligation
					State domain.LifecycleState `json:"state"`
				}{*obligation, state})
			})
		},
	}
	show.Flags().StringVar(&id, "obligation", "", "obligation id (required)")
	_ = show.MarkFlagRequired("obligation")

	cmd.AddCommand(add, show)
	return cmd
}

// lifecycleState reports ACTIVE for obligations with no recorded transition.
func lifecycleState(ctx context.Context, app *App, obligationID string) (domain.LifecycleState, error) {
	lc, err := app.Repos.LifecycleRepo.GetLifecycle(ctx, obligationID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return domain.StateActive, nil
	}
	if err != nil {
		return "", err
	}
	return lc.State, nil
}
