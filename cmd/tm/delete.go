package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:     "delete <id>",
	GroupID: "issues",
	Short:   "Permanently delete an issue",
	Long: `Delete an issue along with its status history, comments and attachments.

This is irreversible and restricted to admins. Use status transitions
(closed, won't-fix) for normal workflow; delete is for mistakes and spam.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		actor := requireActor()
		issueID := args[0]
		force, _ := cmd.Flags().GetBool("force")

		if !force && !jsonOutput {
			fmt.Fprintf(os.Stderr, "Permanently delete %s with its history, comments and attachments? [y/N] ", issueID)
			reader := bufio.NewReader(os.Stdin)
			answer, _ := reader.ReadString('\n')
			if strings.ToLower(strings.TrimSpace(answer)) != "y" {
				fmt.Fprintln(os.Stderr, "Aborted.")
				return
			}
		}

		if err := eng.DeleteIssue(cmd.Context(), actor, issueID); err != nil {
			fatalError("%v", err)
		}
		// Attachment rows cascade with the issue; the files do not.
		if err := os.RemoveAll(filepath.Join(tmDir, "attachments", issueID)); err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not remove attachment files: %v\n", err)
		}

		if jsonOutput {
			outputJSON(map[string]string{"deleted": issueID})
			return
		}
		fmt.Printf("%s Deleted %s\n", green("✓"), issueID)
	},
}

func init() {
	deleteCmd.Flags().BoolP("force", "f", false, "Skip the confirmation prompt")
	rootCmd.AddCommand(deleteCmd)
}
