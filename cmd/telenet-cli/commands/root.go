package commands

import (
	"context"
	"fmt"
	"os"
	"telenetapi/internal/telemetry"
	"telenetapi/lib/alert"
	"telenetapi/lib/configutil"
	"telenetapi/lib/restyutil"
	"telenetapi/lib/serviceutil"
	"telenetapi/lib/telenet"
	"telenetapi/lib/usagestore"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"
)

type Config struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Language string `json:"language"`
	// Environment overrides the production urls.
	Environment telenet.Environment `json:"environment"`
	// RateLimit is the max requests per second, defaults to 4.
	RateLimit        float64           `json:"rate_limit"`
	CloudflareBypass bool              `json:"cloudflare_bypass"`
	Store            usagestore.Config `json:"store"`
	Alert            *alert.Config     `json:"alert"`
	// Schedule is the cron spec of watch, defaults to "@every 1h".
	Schedule string `json:"schedule"`
}

var (
	configPath *string
	debug      *bool
	dumpHttp   *string
)

var rootCmd = &cobra.Command{
	Use:   "telenet-cli",
	Short: "telenet-cli reads usage, devices and bills from the Telenet customer portal.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(*debug)
	},
}

func init() {
	configPath = rootCmd.PersistentFlags().String("config", "telenet.json5", "The config file with the account credentials.")
	debug = rootCmd.PersistentFlags().Bool("debug", false, "Log every request made to the portal.")
	dumpHttp = rootCmd.PersistentFlags().String("dump-http", "", "A directory to write every http exchange to, ex. <dev_state>/http.")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func readConfig() Config {
	cfg, err := configutil.ReadConfig[Config](*configPath)
	if err != nil {
		serviceutil.Fatal("failed to read config", err)
	}
	return cfg
}

func createClient(cfg Config) *telenet.Client {
	limit := cfg.RateLimit
	if limit <= 0 {
		limit = 4
	}
	var dump restyutil.Output
	if *dumpHttp != "" {
		output, err := restyutil.NewFilesystemOutput(*dumpHttp)
		if err != nil {
			serviceutil.Fatal("failed to create http dump directory", err)
		}
		dump = output
	}

	client, err := telenet.NewClient(telenet.ClientOptions{
		Username:         cfg.Username,
		Password:         cfg.Password,
		Language:         cfg.Language,
		Environment:      cfg.Environment,
		RateLimit:        rate.Limit(limit),
		RateBurst:        int(limit),
		CloudflareBypass: cfg.CloudflareBypass,
		HTTPDump:         dump,
		Telemetry:        telemetry.SlogAPI{},
	})
	if err != nil {
		serviceutil.Fatal("failed to initialize client", err)
	}
	return client
}

func openStore(ctx context.Context, storeCfg usagestore.Config) usagestore.Store {
	db, err := storeCfg.OpenDB()
	if err != nil {
		serviceutil.Fatal("failed to open db", err)
	}
	store, err := usagestore.NewStore(ctx, db)
	if err != nil {
		serviceutil.Fatal("failed to initialize db", err)
	}
	return store
}
