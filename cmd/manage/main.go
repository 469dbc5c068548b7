// Command manage runs administrative tasks against the API database:
// schema migration, superuser creation and fixture loading.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"outfitted/internal/config"
	"outfitted/internal/database"
	"outfitted/internal/logger"
)

var (
	cfg *config.AppConfig
	log *zap.Logger

	// openDB is swapped out in tests.
	openDB = func(ctx context.Context) (*sql.DB, error) {
		return database.NewPostgres(ctx, cfg.Database, log)
	}
)

var rootCmd = &cobra.Command{
	Use:           "manage",
	Short:         "Administrative commands for the outfitted API",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg = config.Load()
		if log == nil {
			log = logger.NewStdout(cfg.Location(), cfg.LogLevel)
		}
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(createSuperuserCmd)
	rootCmd.AddCommand(loadDataCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
