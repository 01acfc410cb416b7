package commands

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"goalietron/lib/goalstore"
	"goalietron/lib/serviceutil"

	"github.com/spf13/cobra"
)

func init() {
	goalCmd.AddCommand(goalAddCmd)
	goalCmd.AddCommand(goalRemoveCmd)
	goalCmd.AddCommand(goalListCmd)
	rootCmd.AddCommand(goalCmd)
}

var goalCmd = &cobra.Command{
	Use:   "goal",
	Short: "Manages custom goals stored in the goals file.",
}

var goalAddCmd = &cobra.Command{
	Use:   "add <id> <type> <target> <title...>",
	Short: "Adds or replaces a custom goal, type is one of patrons, members, posts or income.",
	Args:  cobra.MinimumNArgs(4),
	Run: func(cmd *cobra.Command, args []string) {
		id := args[0]
		goalType, err := goalstore.ParseGoalType(args[1])
		if err != nil {
			fail("invalid goal type '%s', expected patrons, members, posts or income", args[1])
		}
		target, err := strconv.ParseFloat(args[2], 64)
		if err != nil || target <= 0 {
			fail("target must be a positive number")
		}
		title := strings.Join(args[3:], " ")

		err = client.CreateCustomGoal(id, goalType, target, title)
		if err != nil {
			fail("failed to create custom goal: %v", err)
		}
		saveGoals()

		fmt.Printf("Custom goal '%s' created successfully\n", id)
		fmt.Printf("Type: %s, Target: %s, Title: %s\n", goalType, formatNumber(target), title)
	},
}

var goalRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Removes a custom goal.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id := args[0]
		if !client.RemoveCustomGoal(id) {
			fail("goal '%s' not found", id)
		}
		saveGoals()
		fmt.Printf("Custom goal '%s' removed successfully\n", id)
	},
}

var goalListCmd = &cobra.Command{
	Use:   "list",
	Short: "Lists every custom goal.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		goals := client.CustomGoals()
		if format == formatJson {
			err := writeJSON(os.Stdout, goals)
			if err != nil {
				serviceutil.Fatal("failed to write output", err)
			}
			return
		}
		renderGoalList(os.Stdout, goals)
	},
}
