// AngelaMos | 2026
// migrate.go

package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/carterperez-dev/artistry/internal/core"
	"github.com/carterperez-dev/artistry/migrations"
)

func newMigrateCommand(opts *options) *cobra.Command {
	migrate := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Run the embedded schema migrations against DATABASE_URL.

Subcommands:
  up      - Apply pending migrations
  down    - Revert migrations
  status  - Show the current schema version`,
	}

	var steps int

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(opts, func(m *core.Migrator) error {
				return m.Up()
			})
		},
	}

	down := &cobra.Command{
		Use:   "down",
		Short: "Revert migrations",
		Long: `Revert applied migrations.

Examples:
  artistryctl migrate down             # Revert the last migration
  artistryctl migrate down --steps 2   # Revert the last two`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(opts, func(m *core.Migrator) error {
				return m.Down(steps)
			})
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to revert")

	status := &cobra.Command{
		Use:   "status",
		Short: "Show the current schema version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(opts, func(m *core.Migrator) error {
				version, dirty, err := m.Version()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %t)\n", version, dirty)
				return nil
			})
		},
	}

	migrate.AddCommand(up, down, status)
	return migrate
}

func withMigrator(opts *options, fn func(*core.Migrator) error) error {
	cfg, err := opts.load()
	if err != nil {
		return err
	}

	m, err := core.NewMigrator(cfg.Database.URL, migrations.FS)
	if err != nil {
		return err
	}

	runErr := fn(m)
	if closeErr := m.Close(); closeErr != nil && runErr == nil {
		return fmt.Errorf("close migrator: %w", closeErr)
	}
	return runErr
}
