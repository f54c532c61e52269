package commands

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/padraicbc/boatrace/fanbook"
)

var importEncoding *string

func init() {
	importEncoding = importCmd.Flags().String("encoding", "", "CSV encoding, utf-8 or shift_jis (default FANBOOK_ENCODING).")
	rootCmd.AddCommand(importCmd)
}

var importCmd = &cobra.Command{
	Use:   "import <fanYYMM.csv|fanYYMM.parquet> ...",
	Short: "Imports fanbook statistics files.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		encoding := cfg.FanbookEncoding
		if *importEncoding != "" {
			encoding = *importEncoding
		}

		ctx := cmd.Context()
		bdb, err := openDB(ctx)
		if err != nil {
			return err
		}
		defer bdb.Close()

		for _, path := range args {
			stats, err := fanbook.Import(ctx, bdb, path, encoding, log)
			if err != nil {
				return err
			}
			log.Info("import done", zap.String("path", path), zap.Int("imported", stats.Imported), zap.Int("skipped", stats.Skipped))
		}
		return nil
	},
}
