package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"goalietron/lib/configuration"
	"goalietron/lib/goalstore"
	"goalietron/lib/patreon"
	"goalietron/lib/serviceutil"
	"goalietron/lib/telemetry"

	"github.com/adrg/xdg"
	"github.com/spf13/cobra"
)

const (
	formatPretty = "pretty"
	formatJson   = "json"
)

var (
	configPath string
	noCache    bool
	format     string
	timeout    int
	offline    bool
	verbose    bool
	persist    bool
)

var config configuration.Patreon
var client *patreon.Client

var rootCmd = &cobra.Command{
	Use:   "goalietron-cli",
	Short: "goalietron-cli fetches public Patreon campaign data and tracks progress on custom goals.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		var err error
		config, err = configuration.ReadPatreon(configPath)
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}
		telemetry.InitSlog(verbose || config.Verbose)

		if format != formatPretty && format != formatJson {
			serviceutil.Fatal("invalid output format", fmt.Errorf("expected json or pretty, got '%s'", format))
		}
		if cmd.Flags().Changed("timeout") {
			config.FetchTimeoutSeconds = &timeout
		}
		if offline {
			config.Offline = true
		}
		if persist && config.CacheDir == "" {
			config.CacheDir = defaultCacheDir()
		}

		client, err = config.OpenClient(telemetry.SlogAPI{})
		if err != nil {
			serviceutil.Fatal("failed to create patreon client", err)
		}

		_, err = client.LoadCustomGoalsFromFile(config.GoalsFile)
		if err != nil && !errors.Is(err, goalstore.ErrGoalsFileNotFound) {
			serviceutil.Fatal("failed to load goals file", err)
		}
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if client != nil {
			client.Close()
		}
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "config.json5", "The config file to read, a .local variant next to it overrides it.")
	flags.BoolVar(&noCache, "no-cache", false, "Always fetch fresh data instead of reading the cache.")
	flags.StringVar(&format, "format", formatPretty, "Output format, json or pretty.")
	flags.IntVar(&timeout, "timeout", patreon.DefaultFetchTimeoutSeconds, "Request timeout in seconds.")
	flags.BoolVar(&offline, "offline", false, "Use deterministic mock data instead of fetching from Patreon.")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging.")
	flags.BoolVar(&persist, "persist-cache", false, "Keep the cache on disk between runs, under the user cache directory unless cache_dir is set.")
}

func defaultCacheDir() string {
	return filepath.Join(xdg.CacheHome, "goalietron", "cache")
}

func useCache() bool {
	return !noCache
}

func saveGoals() {
	err := client.SaveCustomGoalsToFile(config.GoalsFile)
	if err != nil {
		serviceutil.Fatal("failed to save goals file", err)
	}
}

// fail reports a command failure the user caused or can act on.
func fail(message string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+message+"\n", args...)
	if client != nil {
		client.Close()
	}
	os.Exit(1)
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
