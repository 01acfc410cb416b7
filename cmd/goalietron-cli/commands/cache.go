package commands

import (
	"fmt"
	"os"

	"goalietron/lib/serviceutil"

	"github.com/spf13/cobra"
)

func init() {
	cacheCmd.AddCommand(cacheInfoCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspects or clears the campaign data cache, set cache_dir to keep it between runs.",
}

var cacheInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Lists cached entries with their age.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		infos, err := client.CacheInfo(cmd.Context())
		if err != nil {
			serviceutil.Fatal("failed to read cache", err)
		}
		if format == formatJson {
			err = writeJSON(os.Stdout, infos)
			if err != nil {
				serviceutil.Fatal("failed to write output", err)
			}
			return
		}
		renderCacheInfo(os.Stdout, infos)
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear [username]",
	Short: "Clears the cached data of one creator, or everything when no username is given.",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 1 {
			err := client.ClearCache(cmd.Context(), args[0])
			if err != nil {
				serviceutil.Fatal("failed to clear cache", err)
			}
			fmt.Printf("Cache cleared for @%s\n", args[0])
			return
		}

		err := client.ClearAllCache(cmd.Context())
		if err != nil {
			serviceutil.Fatal("failed to clear cache", err)
		}
		fmt.Println("Cache cleared")
	},
}
