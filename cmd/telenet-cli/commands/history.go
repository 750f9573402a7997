package commands

import (
	"telenetapi/lib/serviceutil"
	"telenetapi/lib/usagestore"

	"github.com/spf13/cobra"
)

var (
	historyDb      *string
	historyProduct *string
	historyLimit   *int
)

func init() {
	historyDb = historyCmd.Flags().String("db", "", "The database to read snapshots from, overrides the store of the config.")
	historyProduct = historyCmd.Flags().String("product", "", "Only show the snapshots of this internet line.")
	historyLimit = historyCmd.Flags().Int("limit", 30, "The max amount of snapshots to show.")
	rootCmd.AddCommand(historyCmd)
}

var historyCmd = &cobra.Command{
	Use:   "history [--db <path/to/usage.db>] [--product <id>] [--limit <n>]",
	Short: "Prints the recorded usage and bill snapshots.",
	Run: func(cmd *cobra.Command, args []string) {
		storeCfg := usagestore.Config{File: *historyDb}
		if *historyDb == "" {
			storeCfg = readConfig().Store
		}
		store := openStore(cmd.Context(), storeCfg)

		usages, err := store.History(cmd.Context(), *historyProduct, *historyLimit)
		if err != nil {
			serviceutil.Fatal("failed to read usage history", err)
		}
		bills, err := store.BillHistory(cmd.Context(), *historyLimit)
		if err != nil {
			serviceutil.Fatal("failed to read bill history", err)
		}
		renderHistory(cmd.OutOrStdout(), usages, bills)
	},
}
