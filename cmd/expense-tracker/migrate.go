package main

import (
	"fmt"

	"expense-tracker/internal/database"

	"github.com/spf13/cobra"
)

func newMigrateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	var seed bool
	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withMigrationRunner(func(runner *database.MigrationRunner) error {
				if err := runner.WaitForDatabase(cmd.Context()); err != nil {
					return err
				}
				if err := runner.RunMigrations(); err != nil {
					return err
				}
				if seed {
					return runner.LoadSeeds()
				}
				return nil
			})
		},
	}
	up.Flags().BoolVar(&seed, "seed", false, "load seed data after migrating")

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back applied migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withMigrationRunner(func(runner *database.MigrationRunner) error {
				return runner.RollbackMigrations(steps)
			})
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")

	status := &cobra.Command{
		Use:   "status",
		Short: "Show the current schema version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withMigrationRunner(func(runner *database.MigrationRunner) error {
				version, dirty, err := runner.GetMigrationStatus()
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "version: %d\ndirty: %t\n", version, dirty)
				return err
			})
		},
	}

	cmd.AddCommand(up, down, status)
	return cmd
}

func (a *app) withMigrationRunner(fn func(runner *database.MigrationRunner) error) error {
	db, err := a.openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	sqlDB, err := db.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}

	return fn(database.NewMigrationRunner(sqlDB, &a.cfg.Database))
}
