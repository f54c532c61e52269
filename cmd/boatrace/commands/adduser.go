package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/padraicbc/boatrace/handlers"
	"github.com/padraicbc/boatrace/store"
)

var (
	adduserName     *string
	adduserPassword *string
)

func init() {
	adduserName = adduserCmd.Flags().String("username", "", "username (required)")
	adduserPassword = adduserCmd.Flags().String("password", "", "plain-text password (required)")
	_ = adduserCmd.MarkFlagRequired("username")
	_ = adduserCmd.MarkFlagRequired("password")
	rootCmd.AddCommand(adduserCmd)
}

var adduserCmd = &cobra.Command{
	Use:   "adduser --username NAME --password PASS",
	Short: "Creates or updates an API user.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		hash, err := handlers.HashPasswordForUser(*adduserName, *adduserPassword)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		bdb, err := openDB(ctx)
		if err != nil {
			return err
		}
		defer bdb.Close()

		if err := store.SaveUser(ctx, bdb, *adduserName, hash); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "user %q saved\n", *adduserName)
		return nil
	},
}
