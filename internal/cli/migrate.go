package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Re-run the legacy-data migration pass",
	Long: `Scan the active and archive areas and normalize legacy data: tasks
whose status is the retired "review" value are rewritten to "blocked".

The pass already runs once at startup; this command re-runs it and
prints the report. It is idempotent; running it again, or against an
empty store, is a safe no-op.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Migrator == nil {
			return fmt.Errorf("migration runner not initialized")
		}

		report, err := Migrator.Run()
		if err != nil {
			return fmt.Errorf("running migration: %w", err)
		}

		fmt.Printf("Scanned %d task(s), migrated %d.\n", report.Scanned, report.Migrated)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
