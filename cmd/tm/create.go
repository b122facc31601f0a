package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/taskmaster/tm/internal/types"
)

var createCmd = &cobra.Command{
	Use:     "create <title>",
	GroupID: "issues",
	Short:   "Create a new issue",
	Long: `Create a new issue. The issue starts in status new with the logged-in
user as reporter.

Examples:
  tm create "Login page crashes" -p Core -t bug --priority 1
  tm create "Add dark mode" -p Core -t feature --module ui
  tm create "Payment timeout" -p Core -t bug --severity major \
      --env "prod, eu-west" --steps "1. checkout 2. pay" \
      --expected "redirect to receipt" --actual "502"`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		actor := requireActor()

		projectRef, _ := cmd.Flags().GetString("project")
		if projectRef == "" {
			fatalError("--project is required")
		}
		project := resolveProject(projectRef)

		issueType, _ := cmd.Flags().GetString("type")
		priority, _ := cmd.Flags().GetInt("priority")
		severity, _ := cmd.Flags().GetString("severity")
		description, _ := cmd.Flags().GetString("description")
		moduleName, _ := cmd.Flags().GetString("module")
		environment, _ := cmd.Flags().GetString("env")
		steps, _ := cmd.Flags().GetString("steps")
		expected, _ := cmd.Flags().GetString("expected")
		actual, _ := cmd.Flags().GetString("actual")
		estimate, _ := cmd.Flags().GetFloat64("estimate")
		labelNames, _ := cmd.Flags().GetStringSlice("label")

		issue := &types.Issue{
			ProjectID:      project.ID,
			Title:          strings.TrimSpace(args[0]),
			Description:    description,
			Priority:       priority,
			Severity:       types.Severity(severity),
			IssueType:      types.IssueType(issueType),
			Environment:    environment,
			StepsToRepro:   steps,
			ExpectedResult: expected,
			ActualResult:   actual,
		}
		if moduleName != "" {
			issue.ModuleID = resolveModule(project.ID, moduleName).ID
		}
		if cmd.Flags().Changed("estimate") {
			issue.EstimatedHours = &estimate
		}
		for _, name := range labelNames {
			issue.Labels = append(issue.Labels, resolveLabel(project.ID, name).ID)
		}

		created, err := eng.CreateIssue(cmd.Context(), actor, issue)
		if err != nil {
			fatalError("%v", err)
		}

		if jsonOutput {
			outputJSON(created)
			return
		}
		fmt.Printf("%s Created issue %s: %s [%s] %s\n",
			green("✓"), cyan(created.ID), created.Title,
			priorityLabel(created.Priority), statusColor(created.Status))
	},
}

func init() {
	createCmd.Flags().StringP("project", "p", "", "Project name or ID (required)")
	createCmd.Flags().StringP("type", "t", "task", "Issue type (bug, feature, enhancement, task, documentation, performance, security, refactoring)")
	createCmd.Flags().Int("priority", 2, "Priority 0-4 (0 = most urgent)")
	createCmd.Flags().String("severity", "minor", "Severity (blocker, major, minor, trivial)")
	createCmd.Flags().StringP("description", "d", "", "Issue description")
	createCmd.Flags().String("module", "", "Module name within the project")
	createCmd.Flags().String("env", "", "Environment where the issue occurs")
	createCmd.Flags().String("steps", "", "Steps to reproduce")
	createCmd.Flags().String("expected", "", "Expected result")
	createCmd.Flags().String("actual", "", "Actual result")
	createCmd.Flags().Float64("estimate", 0, "Estimated hours")
	createCmd.Flags().StringSliceP("label", "l", nil, "Label name (repeatable)")
	rootCmd.AddCommand(createCmd)
}
