package cmd

import (
	"fmt"

	"github.com/jmehdipour/ratebook/internal/config"
	"github.com/jmehdipour/ratebook/internal/db"
	"github.com/jmehdipour/ratebook/internal/logger"
	"github.com/spf13/cobra"
)

var migrateSteps int

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply or roll back the database schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireSQL(cfg); err != nil {
			return err
		}
		sqlDB, err := db.Open(dbOpts(cfg))
		if err != nil {
			return fmt.Errorf("%s connect: %w", cfg.Database.Driver, err)
		}
		defer sqlDB.Close()

		if err := db.MigrateUp(sqlDB, logger.Log); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Schema is up to date.")
		return nil
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back migrations (all of them unless --steps is set)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireSQL(cfg); err != nil {
			return err
		}
		sqlDB, err := db.Open(dbOpts(cfg))
		if err != nil {
			return fmt.Errorf("%s connect: %w", cfg.Database.Driver, err)
		}
		defer sqlDB.Close()

		if err := db.MigrateDown(sqlDB, migrateSteps, logger.Log); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Rolled back.")
		return nil
	},
}

func init() {
	migrateDownCmd.Flags().IntVar(&migrateSteps, "steps", 0, "number of migrations to roll back; 0 rolls back all")
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd)
}

func requireSQL(c config.Config) error {
	if c.Storage.Backend != config.BackendSQL {
		return fmt.Errorf("storage.backend is %q; this command needs %q", c.Storage.Backend, config.BackendSQL)
	}
	return nil
}
