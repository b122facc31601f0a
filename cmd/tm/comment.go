package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var commentCmd = &cobra.Command{
	Use:     "comment <id> <text>",
	GroupID: "issues",
	Short:   "Add a comment to an issue",
	Args:    cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		actor := requireActor()

		c, err := eng.AddComment(cmd.Context(), actor, args[0], args[1])
		if err != nil {
			fatalError("%v", err)
		}

		if jsonOutput {
			outputJSON(c)
			return
		}
		fmt.Printf("%s Comment added to %s\n", green("✓"), cyan(c.IssueID))
	},
}

func init() {
	rootCmd.AddCommand(commentCmd)
}
