package commands

import (
	"fmt"
	"os"
	"strings"

	"goalietron/lib/serviceutil"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(usernameCmd)
}

var usernameCmd = &cobra.Command{
	Use:   "username <username>",
	Short: "Resolves a creator's username to their numeric user id.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		username := strings.TrimLeft(args[0], "@")
		userId, err := client.UserIdFromUsername(cmd.Context(), username)
		if err != nil {
			fail("failed to get user id for username '%s': %v", username, err)
		}

		if format == formatJson {
			err = writeJSON(os.Stdout, map[string]any{
				"username": username,
				"user_id":  userId,
			})
			if err != nil {
				serviceutil.Fatal("failed to write output", err)
			}
			return
		}
		fmt.Printf("User ID for @%s: %d\n", username, userId)
	},
}
