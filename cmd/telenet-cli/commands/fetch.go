package commands

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"telenetapi/internal/chrono"
	"telenetapi/lib/serviceutil"
	"telenetapi/lib/usagestore"

	"github.com/spf13/cobra"
)

var (
	fetchJSON *bool
	fetchDb   *string
)

func init() {
	fetchJSON = fetchCmd.Flags().Bool("json", false, "Print the collected data as json instead of tables.")
	fetchDb = fetchCmd.Flags().String("db", "", "A database to record a usage snapshot in, overrides the store of the config.")
	rootCmd.AddCommand(fetchCmd)
}

var fetchCmd = &cobra.Command{
	Use:   "fetch [--json] [--db <path/to/usage.db>]",
	Short: "Logs in and prints the products, devices and bills of the account.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := readConfig()
		client := createClient(cfg)

		_, err := client.Login(cmd.Context())
		if err != nil {
			serviceutil.Fatal("failed to login", err)
		}
		data, err := client.GetData(cmd.Context())
		if err != nil {
			serviceutil.Fatal("failed to fetch data", err)
		}

		if *fetchJSON {
			out, err := json.MarshalIndent(data, "", "  ")
			if err != nil {
				serviceutil.Fatal("failed to serialize data", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
		} else {
			renderData(cmd.OutOrStdout(), data)
		}

		storeCfg := cfg.Store
		if *fetchDb != "" {
			storeCfg = usagestore.Config{File: *fetchDb}
		}
		if storeCfg.File == "" && storeCfg.Url == "" {
			return
		}
		store := openStore(cmd.Context(), storeCfg)
		runID, err := store.Push(cmd.Context(), usagestore.NewPushRequest(chrono.NewStandardTime().Now(), data))
		if err != nil {
			serviceutil.Fatal("failed to store snapshot", err)
		}
		slog.Info("stored usage snapshot", "run", runID)
	},
}
