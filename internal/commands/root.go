package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/SscSPs/property_ledger/internal/core/domain"
	"github.com/SscSPs/property_ledger/internal/platform/logger"
	"github.com/spf13/cobra"
)

const dateLayout = "2006-01-02"

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand(factory AppFactory) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ledgerctl",
		Short: "Property ledger: accruals, payment allocation, corrections and statements",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		newMigrateCommand(factory),
		newObligationCommand(factory),
		newAccrueCommand(factory),
		newSweepCommand(factory),
		newTerminateCommand(factory),
		newForfeitCommand(factory),
		newCompleteCommand(factory),
		newCloseCommand(factory),
		newPayCommand(factory),
		newPayExpenseCommand(factory),
		newPostEntryCommand(factory),
		newOutstandingCommand(factory),
		newReportCommand(factory),
	)
	return rootCmd
}

// withApp builds the app, attaches its logger to the command context and runs fn.
func withApp(cmd *cobra.Command, factory AppFactory, fn func(ctx context.Context, app *App) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	app, err := factory(ctx)
	if err != nil {
		return err
	}
	defer app.Close()
	return fn(logger.WithContext(ctx, app.Logger), app)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// readJSON decodes the file at path, or stdin when path is "-".
func readJSON(cmd *cobra.Command, path string, v any) error {
	var r io.Reader
	if path == "-" {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("opening %s: %w", path, err)
		}
		defer f.Close()
		r = f
	}
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	return nil
}

func parseDate(flag, value string) (time.Time, error) {
	t, err := time.ParseInLocation(dateLayout, value, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s must be YYYY-MM-DD: %w", flag, err)
	}
	return t, nil
}

func parsePeriod(flag, value string) (domain.Period, error) {
	p, err := domain.ParsePeriod(value)
	if err != nil {
		return domain.Period{}, fmt.Errorf("--%s must be YYYY-MM: %w", flag, err)
	}
	return p, nil
}
