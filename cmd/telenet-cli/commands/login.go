package commands

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"telenetapi/lib/serviceutil"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(loginCmd)
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Logs in and prints the user details of the account.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := readConfig()
		client := createClient(cfg)

		details, err := client.Login(cmd.Context())
		if err != nil {
			serviceutil.Fatal("failed to login", err)
		}
		slog.Info("logged in", "customer_number", details.CustomerNumber(), "system", details.System())

		out, err := json.MarshalIndent(details, "", "  ")
		if err != nil {
			serviceutil.Fatal("failed to serialize user details", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
	},
}
