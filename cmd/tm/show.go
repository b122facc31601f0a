package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/taskmaster/tm/internal/types"
)

var showCmd = &cobra.Command{
	Use:     "show <id>",
	GroupID: "views",
	Short:   "Show an issue with its history and comments",
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		actor := requireActor()
		ctx := cmd.Context()

		issue, err := eng.GetIssue(ctx, actor, args[0])
		if err != nil {
			fatalError("%v", err)
		}
		history, err := eng.GetStatusHistory(ctx, actor, issue.ID)
		if err != nil {
			fatalError("%v", err)
		}
		comments, err := eng.GetComments(ctx, actor, issue.ID)
		if err != nil {
			fatalError("%v", err)
		}

		if jsonOutput {
			outputJSON(map[string]interface{}{
				"issue":    issue,
				"history":  history,
				"comments": comments,
			})
			return
		}
		printIssue(issue, history, comments)
	},
}

func printIssue(issue *types.Issue, history []*types.StatusHistory, comments []*types.Comment) {
	fmt.Printf("%s  %s\n", cyan(issue.ID), issue.Title)
	fmt.Printf("  %s  %s  %s  %s\n",
		statusColor(issue.Status), priorityLabel(issue.Priority),
		issue.Severity, issue.IssueType)
	fmt.Printf("  reporter: %s", userName(issue.ReporterID))
	if issue.AssigneeID != "" {
		fmt.Printf("  assignee: %s", userName(issue.AssigneeID))
	}
	fmt.Println()
	if issue.Description != "" {
		fmt.Printf("\n  %s\n", issue.Description)
	}

	var repro []string
	if issue.Environment != "" {
		repro = append(repro, "environment: "+issue.Environment)
	}
	if issue.StepsToRepro != "" {
		repro = append(repro, "steps: "+issue.StepsToRepro)
	}
	if issue.ExpectedResult != "" {
		repro = append(repro, "expected: "+issue.ExpectedResult)
	}
	if issue.ActualResult != "" {
		repro = append(repro, "actual: "+issue.ActualResult)
	}
	if len(repro) > 0 {
		fmt.Println()
		for _, line := range repro {
			fmt.Printf("  %s\n", line)
		}
	}
	if issue.EstimatedHours != nil || issue.TimeSpentHours != nil {
		fmt.Println()
		if issue.EstimatedHours != nil {
			fmt.Printf("  estimated: %.1fh", *issue.EstimatedHours)
		}
		if issue.TimeSpentHours != nil {
			fmt.Printf("  spent: %.1fh", *issue.TimeSpentHours)
		}
		fmt.Println()
	}

	if len(history) > 0 {
		fmt.Printf("\n%s\n", faint("History:"))
		for _, rec := range history {
			when := rec.CreatedAt.Format("2006-01-02 15:04")
			if rec.PrevStatus == "" {
				fmt.Printf("  %s  created as %s by %s\n", faint(when), statusColor(rec.NewStatus), userName(rec.ActorID))
			} else {
				line := fmt.Sprintf("  %s  %s -> %s by %s", faint(when), rec.PrevStatus, statusColor(rec.NewStatus), userName(rec.ActorID))
				if rec.Comment != "" {
					line += fmt.Sprintf(" (%s)", rec.Comment)
				}
				fmt.Println(line)
			}
		}
	}

	if len(comments) > 0 {
		fmt.Printf("\n%s\n", faint("Comments:"))
		for _, c := range comments {
			when := c.CreatedAt.Format("2006-01-02 15:04")
			fmt.Printf("  %s  %s: %s\n", faint(when), userName(c.AuthorID), c.Text)
		}
	}
}

// userName renders a user reference as its username, falling back to the
// raw ID when the account cannot be loaded.
func userName(userID string) string {
	user, err := store.GetUser(rootCtx, userID)
	if err != nil {
		return userID
	}
	return user.Username
}

func init() {
	rootCmd.AddCommand(showCmd)
}
