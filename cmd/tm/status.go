package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/taskmaster/tm/internal/engine"
	"github.com/taskmaster/tm/internal/types"
)

var statusCmd = &cobra.Command{
	Use:     "status <id> <new-status>",
	GroupID: "issues",
	Short:   "Move an issue through its lifecycle",
	Long: `Transition an issue to a new status.

Lifecycle: new -> open -> in_progress -> in_review -> resolved -> closed.
Resolved and closed issues can be reopened; reopened goes back to open.
Illegal transitions are rejected and leave the issue untouched.

Examples:
  tm status tm-x7k2 open
  tm status tm-x7k2 closed -m "won't fix"
  tm status tm-x7k2 reopened -m "still broken in 1.2"`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		actor := requireActor()
		issueID := args[0]
		target := types.Status(strings.ToLower(args[1]))
		message, _ := cmd.Flags().GetString("message")

		issue, err := eng.TransitionStatus(cmd.Context(), actor, issueID, target, message)
		if err != nil {
			fatalError("%v", err)
		}

		if jsonOutput {
			outputJSON(issue)
			return
		}
		fmt.Printf("%s %s is now %s\n", green("✓"), cyan(issue.ID), statusColor(issue.Status))
		if next := engine.AllowedTargets(issue.Status); len(next) > 0 {
			names := make([]string, len(next))
			for i, s := range next {
				names[i] = string(s)
			}
			fmt.Printf("  next: %s\n", faint(strings.Join(names, ", ")))
		}
	},
}

func init() {
	statusCmd.Flags().StringP("message", "m", "", "Comment recorded with the transition")
	rootCmd.AddCommand(statusCmd)
}
