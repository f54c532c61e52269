package commands

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/padraicbc/boatrace/db"
)

func init() {
	rootCmd.AddCommand(initdbCmd)
}

var initdbCmd = &cobra.Command{
	Use:   "initdb",
	Short: "Creates the tables and seeds the venue list.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		bdb, err := db.Open(ctx, cfg.DB, cfg.Debug)
		if err != nil {
			return err
		}
		defer bdb.Close()

		if err := db.CreateTables(ctx, bdb); err != nil {
			return err
		}
		n, err := db.SeedVenues(ctx, bdb)
		if err != nil {
			return err
		}
		log.Info("database initialised", zap.String("driver", cfg.DB.Driver), zap.Int64("venues_added", n))
		return nil
	},
}
