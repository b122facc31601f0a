package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/taskmaster/tm/internal/types"
)

var editCmd = &cobra.Command{
	Use:     "edit <id>",
	GroupID: "issues",
	Short:   "Edit an issue's fields",
	Long: `Edit issue fields. Status is not editable here; use 'tm status'.

Reporters may only edit their own issues while unassigned; developers,
testers and admins may edit any issue.

Examples:
  tm edit tm-x7k2 --title "Clearer title"
  tm edit tm-x7k2 --priority 1 --severity major
  tm edit tm-x7k2 --module billing --fix-version "1.3"
  tm edit tm-x7k2 --spent 2.5`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		actor := requireActor()
		issueID := args[0]

		issue, err := eng.GetIssue(cmd.Context(), actor, issueID)
		if err != nil {
			fatalError("%v", err)
		}

		patch := map[string]interface{}{}
		if cmd.Flags().Changed("title") {
			v, _ := cmd.Flags().GetString("title")
			patch["title"] = v
		}
		if cmd.Flags().Changed("description") {
			v, _ := cmd.Flags().GetString("description")
			patch["description"] = v
		}
		if cmd.Flags().Changed("priority") {
			v, _ := cmd.Flags().GetInt("priority")
			patch["priority"] = v
		}
		if cmd.Flags().Changed("severity") {
			v, _ := cmd.Flags().GetString("severity")
			patch["severity"] = types.Severity(v)
		}
		if cmd.Flags().Changed("type") {
			v, _ := cmd.Flags().GetString("type")
			patch["issue_type"] = types.IssueType(v)
		}
		if cmd.Flags().Changed("module") {
			v, _ := cmd.Flags().GetString("module")
			if v == "-" {
				patch["module_id"] = nil
			} else {
				patch["module_id"] = resolveModule(issue.ProjectID, v).ID
			}
		}
		if cmd.Flags().Changed("affected-version") {
			v, _ := cmd.Flags().GetString("affected-version")
			if v == "-" {
				patch["affected_version_id"] = nil
			} else {
				patch["affected_version_id"] = resolveVersion(issue.ProjectID, v).ID
			}
		}
		if cmd.Flags().Changed("fix-version") {
			v, _ := cmd.Flags().GetString("fix-version")
			if v == "-" {
				patch["fix_version_id"] = nil
			} else {
				patch["fix_version_id"] = resolveVersion(issue.ProjectID, v).ID
			}
		}
		if cmd.Flags().Changed("env") {
			v, _ := cmd.Flags().GetString("env")
			patch["environment"] = v
		}
		if cmd.Flags().Changed("steps") {
			v, _ := cmd.Flags().GetString("steps")
			patch["steps_to_reproduce"] = v
		}
		if cmd.Flags().Changed("expected") {
			v, _ := cmd.Flags().GetString("expected")
			patch["expected_result"] = v
		}
		if cmd.Flags().Changed("actual") {
			v, _ := cmd.Flags().GetString("actual")
			patch["actual_result"] = v
		}
		if cmd.Flags().Changed("estimate") {
			v, _ := cmd.Flags().GetFloat64("estimate")
			patch["estimated_hours"] = v
		}
		if cmd.Flags().Changed("spent") {
			v, _ := cmd.Flags().GetFloat64("spent")
			patch["time_spent_hours"] = v
		}

		var labelsChanged bool
		var labelIDs []string
		if cmd.Flags().Changed("label") {
			names, _ := cmd.Flags().GetStringSlice("label")
			for _, name := range names {
				if name == "-" {
					continue
				}
				labelIDs = append(labelIDs, resolveLabel(issue.ProjectID, name).ID)
			}
			labelsChanged = true
		}

		if len(patch) == 0 && !labelsChanged {
			fatalError("nothing to edit; see 'tm edit --help'")
		}

		if len(patch) > 0 {
			if _, err := eng.EditFields(cmd.Context(), actor, issueID, patch); err != nil {
				fatalError("%v", err)
			}
		}
		if labelsChanged {
			if err := eng.SetLabels(cmd.Context(), actor, issueID, labelIDs); err != nil {
				fatalError("%v", err)
			}
		}

		updated, err := eng.GetIssue(cmd.Context(), actor, issueID)
		if err != nil {
			fatalError("%v", err)
		}
		if jsonOutput {
			outputJSON(updated)
			return
		}
		fmt.Printf("%s Updated %s\n", green("✓"), cyan(updated.ID))
	},
}

func init() {
	editCmd.Flags().String("title", "", "New title")
	editCmd.Flags().StringP("description", "d", "", "New description")
	editCmd.Flags().Int("priority", 0, "Priority 0-4")
	editCmd.Flags().String("severity", "", "Severity (blocker, major, minor, trivial)")
	editCmd.Flags().StringP("type", "t", "", "Issue type")
	editCmd.Flags().String("module", "", "Module name, or - to clear")
	editCmd.Flags().String("affected-version", "", "Affected version name, or - to clear")
	editCmd.Flags().String("fix-version", "", "Fix version name, or - to clear")
	editCmd.Flags().String("env", "", "Environment")
	editCmd.Flags().String("steps", "", "Steps to reproduce")
	editCmd.Flags().String("expected", "", "Expected result")
	editCmd.Flags().String("actual", "", "Actual result")
	editCmd.Flags().Float64("estimate", 0, "Estimated hours")
	editCmd.Flags().Float64("spent", 0, "Time spent in hours")
	editCmd.Flags().StringSliceP("label", "l", nil, "Replace labels (repeatable; single - clears)")
	rootCmd.AddCommand(editCmd)
}
