package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/example/focusflow/internal/persistence/sqlite"
	"github.com/example/focusflow/internal/persistence/sqlite/migration"
)

var migrateStatus bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	Long: `Apply pending database migrations.

Examples:
  focusflow migrate            # Apply every pending migration
  focusflow migrate --status   # Show applied and pending versions`,
	Args: cobra.NoArgs,
	RunE: runMigrate,
}

func init() {
	migrateCmd.Flags().BoolVar(&migrateStatus, "status", false, "print migration status without applying anything")
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadRuntime(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	storage, err := sqlite.Open(migration.DefaultSQLiteConfig(cfg.DatabasePath))
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer storage.Close()

	manager := storage.MigrationManager(logger)
	if !migrateStatus {
		if err := manager.RunMigrations(ctx); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	status, err := manager.GetMigrationStatus(ctx)
	if err != nil {
		return fmt.Errorf("failed to read migration status: %w", err)
	}
	printMigrationStatus(cmd.OutOrStdout(), status)
	return nil
}

func printMigrationStatus(w io.Writer, status *migration.MigrationStatus) {
	current := status.CurrentVersion
	if current == "" {
		current = "none"
	}
	fmt.Fprintf(w, "Current version: %s\n", current)
	fmt.Fprintf(w, "Applied: %d\n", len(status.AppliedMigrations))
	for _, applied := range status.AppliedMigrations {
		fmt.Fprintf(w, "  %s  %s\n", applied.Version, applied.AppliedAt.UTC().Format("2006-01-02 15:04:05"))
	}
	fmt.Fprintf(w, "Pending: %d\n", status.PendingCount)
	for _, pending := range status.PendingMigrations {
		fmt.Fprintf(w, "  %s  %s\n", pending.Version, pending.Description)
	}
}
