package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"printvault/internal/config"
	"printvault/internal/store"
)

func newMigrateCmd(cfg *config.Config) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or inspect database schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !dryRun {
				st, err := store.Open(cfg.DBPath)
				if err != nil {
					return fmt.Errorf("migrate: %w", err)
				}
				if err := st.Close(); err != nil {
					return err
				}
			}

			plan, err := inspectMigrations(cfg.DBPath)
			if err != nil {
				return err
			}
			if ok, err := writeStructured(plan); ok {
				return err
			}
			return writeMigrationPlan(plan, dryRun)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "show pending migrations without applying them")
	return cmd
}

func inspectMigrations(path string) (*store.MigrationStatus, error) {
	db, err := store.OpenDB(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	plan, err := store.MigrationPlan(db)
	if err != nil {
		return nil, fmt.Errorf("inspect migrations: %w", err)
	}
	return plan, nil
}

func writeMigrationPlan(plan *store.MigrationStatus, dryRun bool) error {
	_ = writePlain("schema version: %d of %d\n", plan.CurrentVersion, plan.AvailableVersion)
	if len(plan.Pending) == 0 {
		if dryRun {
			return writePlain("no pending migrations\n")
		}
		return writePlain("migrations applied\n")
	}
	_ = writePlain("pending migrations: %d\n", len(plan.Pending))
	for _, m := range plan.Pending {
		if err := writePlain("  %d: %s\n", m.Version, m.Description); err != nil {
			return err
		}
	}
	return nil
}
