package commands

import (
	"os"

	"goalietron/lib/serviceutil"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(publicCmd)
}

var publicCmd = &cobra.Command{
	Use:   "public <username>",
	Short: "Shows the public campaign data of a creator's about page.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		username := args[0]
		record, err := client.PublicCampaignData(cmd.Context(), username, useCache())
		if err != nil {
			fail("failed to fetch public campaign data for username '%s': %v", username, err)
		}

		if format == formatJson {
			err = writeJSON(os.Stdout, record)
			if err != nil {
				serviceutil.Fatal("failed to write output", err)
			}
			return
		}
		renderCampaign(os.Stdout, username, record)
	},
}
