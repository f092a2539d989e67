package commands

import (
	"context"
	"fmt"

	"github.com/SscSPs/property_ledger/migrations"
	"github.com/SscSPs/property_ledger/pkg/database"
	"github.com/spf13/cobra"
)

func newMigrateCommand(factory AppFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, factory, func(ctx context.Context, app *App) error {
				if app.Config.DatabaseURL == "" {
					return fmt.Errorf("migrate needs PGSQL_URL")
				}
				result, err := database.RunMigrations(app.Config.DatabaseURL, migrations.FS, app.Logger)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), result)
			})
		},
	}
}
