package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/taskmaster/tm/internal/types"
)

var userCmd = &cobra.Command{
	Use:     "user",
	GroupID: "setup",
	Short:   "Manage accounts",
}

var userAddCmd = &cobra.Command{
	Use:   "add <username>",
	Short: "Create an account (admin only)",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		actor := requireActor()
		displayName, _ := cmd.Flags().GetString("name")
		roleFlag, _ := cmd.Flags().GetString("role")
		if displayName == "" {
			displayName = args[0]
		}

		password := promptPassword(fmt.Sprintf("Password for %s: ", args[0]))
		user, err := eng.CreateUser(cmd.Context(), actor, args[0], displayName, password, types.Role(roleFlag))
		if err != nil {
			fatalError("%v", err)
		}

		if jsonOutput {
			outputJSON(user)
			return
		}
		fmt.Printf("%s Created %s (%s)\n", green("✓"), user.Username, user.Role)
	},
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List accounts",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		actor := requireActor()
		includeDisabled, _ := cmd.Flags().GetBool("all")

		users, err := eng.ListUsers(cmd.Context(), actor, includeDisabled)
		if err != nil {
			fatalError("%v", err)
		}

		if jsonOutput {
			outputJSON(users)
			return
		}
		for _, u := range users {
			line := fmt.Sprintf("%-16s %-10s %s", u.Username, u.Role, u.DisplayName)
			if u.Disabled {
				line += "  " + red("[disabled]")
			}
			fmt.Println(line)
		}
	},
}

var userRoleCmd = &cobra.Command{
	Use:   "role <username> <role>",
	Short: "Change an account's role (admin only)",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		actor := requireActor()
		user := resolveUser(args[0])

		if err := eng.SetUserRole(cmd.Context(), actor, user.ID, types.Role(args[1])); err != nil {
			fatalError("%v", err)
		}
		if jsonOutput {
			outputJSON(map[string]string{"username": user.Username, "role": args[1]})
			return
		}
		fmt.Printf("%s %s is now %s\n", green("✓"), user.Username, args[1])
	},
}

var userDisableCmd = &cobra.Command{
	Use:   "disable <username>",
	Short: "Disable an account (admin only)",
	Long: `Disable an account. The account stays in the database so history and
comments keep their author; it just can no longer log in or be assigned.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		actor := requireActor()
		user := resolveUser(args[0])

		if err := eng.SetUserDisabled(cmd.Context(), actor, user.ID, true); err != nil {
			fatalError("%v", err)
		}
		if !jsonOutput {
			fmt.Printf("%s Disabled %s\n", green("✓"), user.Username)
		}
	},
}

var userEnableCmd = &cobra.Command{
	Use:   "enable <username>",
	Short: "Re-enable a disabled account (admin only)",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		actor := requireActor()
		user := resolveUser(args[0])

		if err := eng.SetUserDisabled(cmd.Context(), actor, user.ID, false); err != nil {
			fatalError("%v", err)
		}
		if !jsonOutput {
			fmt.Printf("%s Enabled %s\n", green("✓"), user.Username)
		}
	},
}

var userPasswdCmd = &cobra.Command{
	Use:   "passwd [username]",
	Short: "Change a password",
	Long: `Change your own password (prompts for the current one first), or reset
another account's password by naming it (admin only).`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		actor := requireActor()

		if len(args) == 1 {
			user := resolveUser(args[0])
			newPassword := promptPassword(fmt.Sprintf("New password for %s: ", user.Username))
			if err := eng.ResetPassword(cmd.Context(), actor, user.ID, newPassword); err != nil {
				fatalError("%v", err)
			}
			if !jsonOutput {
				fmt.Printf("%s Password reset for %s\n", green("✓"), user.Username)
			}
			return
		}

		oldPassword := promptPassword("Current password: ")
		newPassword := promptPassword("New password: ")
		if err := eng.ChangePassword(cmd.Context(), actor, oldPassword, newPassword); err != nil {
			fatalError("%v", err)
		}
		if !jsonOutput {
			fmt.Printf("%s Password changed\n", green("✓"))
		}
	},
}

func init() {
	userAddCmd.Flags().String("name", "", "Display name (defaults to username)")
	userAddCmd.Flags().String("role", "reporter", "Role (admin, developer, tester, reporter, viewer)")
	userListCmd.Flags().Bool("all", false, "Include disabled accounts")
	userCmd.AddCommand(userAddCmd, userListCmd, userRoleCmd, userDisableCmd, userEnableCmd, userPasswdCmd)
	rootCmd.AddCommand(userCmd)
}
