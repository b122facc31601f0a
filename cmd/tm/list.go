package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/taskmaster/tm/internal/types"
)

var listCmd = &cobra.Command{
	Use:     "list",
	GroupID: "views",
	Short:   "List issues",
	Long: `List issues, newest first.

Examples:
  tm list
  tm list -p Core --status open
  tm list --assignee alice --priority 1
  tm list --unassigned --search "payment"`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		actor := requireActor()

		var filter types.IssueFilter
		if ref, _ := cmd.Flags().GetString("project"); ref != "" {
			filter.ProjectID = resolveProject(ref).ID
		}
		if s, _ := cmd.Flags().GetString("status"); s != "" {
			status := types.Status(s)
			filter.Status = &status
		}
		if cmd.Flags().Changed("priority") {
			p, _ := cmd.Flags().GetInt("priority")
			filter.Priority = &p
		}
		if s, _ := cmd.Flags().GetString("type"); s != "" {
			it := types.IssueType(s)
			filter.IssueType = &it
		}
		if name, _ := cmd.Flags().GetString("module"); name != "" {
			if filter.ProjectID == "" {
				fatalError("--module requires --project")
			}
			filter.ModuleID = resolveModule(filter.ProjectID, name).ID
		}
		if ref, _ := cmd.Flags().GetString("assignee"); ref != "" {
			id := resolveUser(ref).ID
			filter.AssigneeID = &id
		}
		if unassigned, _ := cmd.Flags().GetBool("unassigned"); unassigned {
			empty := ""
			filter.AssigneeID = &empty
		}
		if ref, _ := cmd.Flags().GetString("reporter"); ref != "" {
			id := resolveUser(ref).ID
			filter.ReporterID = &id
		}
		filter.TitleSearch, _ = cmd.Flags().GetString("search")
		filter.Limit, _ = cmd.Flags().GetInt("limit")

		issues, err := eng.ListIssues(cmd.Context(), actor, filter)
		if err != nil {
			fatalError("%v", err)
		}

		if jsonOutput {
			outputJSON(issues)
			return
		}
		if len(issues) == 0 {
			fmt.Println("No issues found.")
			return
		}
		for _, issue := range issues {
			assignee := faint("unassigned")
			if issue.AssigneeID != "" {
				assignee = userName(issue.AssigneeID)
			}
			fmt.Printf("%s  %-11s %s  %-12s %s\n",
				cyan(issue.ID), statusColor(issue.Status), priorityLabel(issue.Priority),
				assignee, issue.Title)
		}
	},
}

func init() {
	listCmd.Flags().StringP("project", "p", "", "Filter by project name or ID")
	listCmd.Flags().StringP("status", "s", "", "Filter by status")
	listCmd.Flags().Int("priority", 0, "Filter by priority 0-4")
	listCmd.Flags().StringP("type", "t", "", "Filter by issue type")
	listCmd.Flags().String("module", "", "Filter by module name (needs --project)")
	listCmd.Flags().StringP("assignee", "a", "", "Filter by assignee username")
	listCmd.Flags().Bool("unassigned", false, "Only unassigned issues")
	listCmd.Flags().String("reporter", "", "Filter by reporter username")
	listCmd.Flags().String("search", "", "Free-text search on title")
	listCmd.Flags().IntP("limit", "n", 0, "Maximum number of results")
	rootCmd.AddCommand(listCmd)
}
