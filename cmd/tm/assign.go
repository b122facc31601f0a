package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var assignCmd = &cobra.Command{
	Use:     "assign <id> <username>",
	GroupID: "issues",
	Short:   "Assign an issue to a project member",
	Long: `Assign an issue. The assignee must be an enabled member of the issue's
project. Use "-" to clear the assignment.

Examples:
  tm assign tm-x7k2 alice
  tm assign tm-x7k2 -`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		actor := requireActor()
		issueID := args[0]

		assigneeID := ""
		display := "nobody"
		if args[1] != "-" {
			user := resolveUser(args[1])
			assigneeID = user.ID
			display = user.Username
		}

		if err := eng.Assign(cmd.Context(), actor, issueID, assigneeID); err != nil {
			fatalError("%v", err)
		}

		if jsonOutput {
			outputJSON(map[string]string{"issue": issueID, "assignee": assigneeID})
			return
		}
		fmt.Printf("%s %s assigned to %s\n", green("✓"), cyan(issueID), display)
	},
}

func init() {
	rootCmd.AddCommand(assignCmd)
}
