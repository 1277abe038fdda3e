package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danicaoo/musicShop/internal/logging"
	"github.com/danicaoo/musicShop/internal/model"
	"github.com/danicaoo/musicShop/internal/store"
)

func newRolloverCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rollover",
		Short: "Move current-year sales into last-year sales",
		Long: "Move every inventory's current-year sales into last-year sales and\n" +
			"record a reset event. Runs with administrator rights.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			database, err := a.openExisting()
			if err != nil {
				return err
			}
			defer database.Close()

			affected, err := store.RolloverSales(cmd.Context(), database, model.RoleAdmin)
			if err != nil {
				return err
			}
			logging.Info().Int64("affected", affected).Str("user", "cli").Msg("yearly sales rollover")

			fmt.Fprintf(cmd.OutOrStdout(), "Last year sales updated for %d inventories.\n", affected)
			return nil
		},
	}
}
