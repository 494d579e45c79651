package cmd

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/lehmann314159/flashcards/internal/app"
	"github.com/lehmann314159/flashcards/internal/repository"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: withDatabase(func(cmd *cobra.Command, db *sqlx.DB) error {
		if err := repository.Migrate(cmd.Context(), db); err != nil {
			return err
		}
		cmd.Println("schema is up to date")
		return nil
	}),
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Revert all migrations, dropping every table",
	RunE: withDatabase(func(cmd *cobra.Command, db *sqlx.DB) error {
		if err := repository.Rollback(cmd.Context(), db); err != nil {
			return err
		}
		cmd.Println("schema reverted")
		return nil
	}),
}

var migrateVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the applied schema version",
	RunE: withDatabase(func(cmd *cobra.Command, db *sqlx.DB) error {
		version, dirty, err := repository.SchemaVersion(cmd.Context(), db)
		if err != nil {
			return err
		}
		if dirty {
			cmd.Printf("version %d (dirty)\n", version)
			return nil
		}
		cmd.Printf("version %d\n", version)
		return nil
	}),
}

// withDatabase connects to the configured SQL database without migrating it
func withDatabase(run func(cmd *cobra.Command, db *sqlx.DB) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, _, err := bootstrap()
		if err != nil {
			return err
		}

		db, err := app.Connect(cmd.Context(), cfg.Database)
		if err != nil {
			return fmt.Errorf("connect: %w", err)
		}
		defer db.Close()

		return run(cmd, db)
	}
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateVersionCmd)
}
