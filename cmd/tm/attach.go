package main

import (
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/taskmaster/tm/internal/types"
)

var attachCmd = &cobra.Command{
	Use:     "attach",
	GroupID: "issues",
	Short:   "Manage issue attachments",
}

var attachAddCmd = &cobra.Command{
	Use:   "add <id> <file>",
	Short: "Attach a file to an issue",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		actor := requireActor()
		issueID, src := args[0], args[1]

		info, err := os.Stat(src)
		if err != nil {
			fatalError("cannot read %s: %v", src, err)
		}
		filename := filepath.Base(src)

		destDir := filepath.Join(tmDir, "attachments", issueID)
		dest := filepath.Join(destDir, filename)
		att, err := eng.AddAttachment(cmd.Context(), actor, &types.Attachment{
			IssueID:     issueID,
			Filename:    filename,
			FilePath:    dest,
			FileSize:    info.Size(),
			ContentType: mime.TypeByExtension(filepath.Ext(filename)),
		})
		if err != nil {
			fatalError("%v", err)
		}

		if err := copyFile(src, dest); err != nil {
			fatalError("attachment recorded but copy failed: %v", err)
		}

		if jsonOutput {
			outputJSON(att)
			return
		}
		fmt.Printf("%s Attached %s to %s (%s)\n", green("✓"), filename, cyan(issueID), formatSize(att.FileSize))
	},
}

var attachListCmd = &cobra.Command{
	Use:   "list <id>",
	Short: "List an issue's attachments",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		actor := requireActor()

		attachments, err := eng.GetAttachments(cmd.Context(), actor, args[0])
		if err != nil {
			fatalError("%v", err)
		}

		if jsonOutput {
			outputJSON(attachments)
			return
		}
		var total int64
		for _, a := range attachments {
			fmt.Printf("%-6d %-32s %10s  %s\n", a.ID, a.Filename, formatSize(a.FileSize), a.CreatedAt.Format("2006-01-02 15:04"))
			total += a.FileSize
		}
		fmt.Printf("%d attachment(s), %s total\n", len(attachments), formatSize(total))
	},
}

var attachRmCmd = &cobra.Command{
	Use:   "rm <attachment-id>",
	Short: "Remove an attachment",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		actor := requireActor()
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			fatalError("invalid attachment id: %s", args[0])
		}

		att, err := eng.DeleteAttachment(cmd.Context(), actor, id)
		if err != nil {
			fatalError("%v", err)
		}
		if att.FilePath != "" {
			if err := os.Remove(att.FilePath); err != nil && !os.IsNotExist(err) {
				fmt.Fprintf(os.Stderr, "warning: could not remove %s: %v\n", att.FilePath, err)
			}
		}

		if !jsonOutput {
			fmt.Printf("%s Removed %s from %s\n", green("✓"), att.Filename, cyan(att.IssueID))
		}
	},
}

func init() {
	attachCmd.AddCommand(attachAddCmd, attachListCmd, attachRmCmd)
	rootCmd.AddCommand(attachCmd)
}

func copyFile(src, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func formatSize(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1fMB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1fKB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%dB", n)
	}
}
