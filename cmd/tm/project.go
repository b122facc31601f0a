package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var projectCmd = &cobra.Command{
	Use:     "project",
	GroupID: "setup",
	Short:   "Manage projects",
}

var projectAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Create a project",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		actor := requireActor()
		description, _ := cmd.Flags().GetString("description")
		memberNames, _ := cmd.Flags().GetStringSlice("member")

		memberIDs := make([]string, 0, len(memberNames)+1)
		memberIDs = append(memberIDs, actor.UserID)
		for _, name := range memberNames {
			u := resolveUser(name)
			if u.ID != actor.UserID {
				memberIDs = append(memberIDs, u.ID)
			}
		}

		p, err := eng.CreateProject(cmd.Context(), actor, args[0], description, memberIDs)
		if err != nil {
			fatalError("%v", err)
		}

		if jsonOutput {
			outputJSON(p)
			return
		}
		fmt.Printf("%s Created project %s (%d members)\n", green("✓"), p.Name, len(p.MemberIDs))
	},
}

var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		actor := requireActor()

		projects, err := eng.ListProjects(cmd.Context(), actor)
		if err != nil {
			fatalError("%v", err)
		}

		if jsonOutput {
			outputJSON(projects)
			return
		}
		for _, p := range projects {
			fmt.Printf("%-20s %2d members  %s\n", p.Name, len(p.MemberIDs), faint(p.Description))
		}
	},
}

var projectMemberCmd = &cobra.Command{
	Use:   "member <project> <add|remove> <username>",
	Short: "Manage project membership",
	Args:  cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		actor := requireActor()
		project := resolveProject(args[0])
		user := resolveUser(args[2])

		var err error
		switch args[1] {
		case "add":
			err = eng.AddProjectMember(cmd.Context(), actor, project.ID, user.ID)
		case "remove":
			err = eng.RemoveProjectMember(cmd.Context(), actor, project.ID, user.ID)
		default:
			fatalError("unknown member action %q (want add or remove)", args[1])
		}
		if err != nil {
			fatalError("%v", err)
		}
		if !jsonOutput {
			fmt.Printf("%s %s membership updated\n", green("✓"), project.Name)
		}
	},
}

var projectDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a project (only when it has no issues)",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		actor := requireActor()
		project := resolveProject(args[0])

		if err := eng.DeleteProject(cmd.Context(), actor, project.ID); err != nil {
			fatalError("%v", err)
		}
		if !jsonOutput {
			fmt.Printf("%s Deleted project %s\n", green("✓"), project.Name)
		}
	},
}

func init() {
	projectAddCmd.Flags().StringP("description", "d", "", "Project description")
	projectAddCmd.Flags().StringSliceP("member", "m", nil, "Member username (repeatable)")
	projectCmd.AddCommand(projectAddCmd, projectListCmd, projectMemberCmd, projectDeleteCmd)
	rootCmd.AddCommand(projectCmd)
}
