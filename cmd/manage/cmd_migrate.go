package main

import (
	"github.com/spf13/cobra"

	"outfitted/internal/database/migration"
)

// migrateCmd creates the schema when it does not exist yet.
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the database schema",
	Args:  cobra.NoArgs,
	RunE:  runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	db, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	return migration.EnsureMigrated(ctx, db, log, cfg.Database.Host)
}
