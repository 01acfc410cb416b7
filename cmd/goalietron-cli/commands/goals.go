package commands

import (
	"os"

	"goalietron/lib/serviceutil"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(goalsCmd)
}

var goalsCmd = &cobra.Command{
	Use:   "goals <username>",
	Short: "Shows campaign data together with the progress of every custom goal.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		username := args[0]
		data, err := client.CampaignDataWithGoals(cmd.Context(), username, useCache())
		if err != nil {
			fail("failed to fetch campaign data with goals for username '%s': %v", username, err)
		}

		if format == formatJson {
			err = writeJSON(os.Stdout, data)
			if err != nil {
				serviceutil.Fatal("failed to write output", err)
			}
			return
		}
		renderCampaignWithGoals(os.Stdout, username, data)
	},
}
