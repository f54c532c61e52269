package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"go.uber.org/zap"

	"github.com/padraicbc/boatrace/config"
	"github.com/padraicbc/boatrace/db"
	applog "github.com/padraicbc/boatrace/logger"
)

var (
	cfg *config.ScraperConfig
	log *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:           "boatrace",
	Short:         "boatrace ingests race pages and fanbook statistics into the database.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = config.LoadScraper()
		l, err := applog.New(cfg.Debug, "boatrace")
		if err != nil {
			return err
		}
		log = l
		zap.ReplaceGlobals(log)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			_ = log.Sync()
		}
	},
}

// ExecuteContext runs the CLI and exits non-zero on error.
func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openDB connects using the loaded config and makes sure the schema exists.
func openDB(ctx context.Context) (*bun.DB, error) {
	bdb, err := db.Open(ctx, cfg.DB, cfg.Debug)
	if err != nil {
		return nil, err
	}
	if err := db.Init(ctx, bdb); err != nil {
		_ = bdb.Close()
		return nil, err
	}
	return bdb, nil
}
