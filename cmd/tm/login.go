package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var loginCmd = &cobra.Command{
	Use:     "login [username]",
	GroupID: "setup",
	Short:   "Log in to the tracker",
	Long: `Authenticate and start a session for this workspace.

The username defaults to the one in .tm/config.yaml. The password is
prompted without echo; set TM_PASSWORD for scripted use. Five failed
attempts lock the account for fifteen minutes.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		username := cfg.Username
		if len(args) == 1 {
			username = args[0]
		}
		if username == "" {
			fatalError("no username given and none configured; run 'tm login <username>'")
		}

		password := promptPassword(fmt.Sprintf("Password for %s: ", username))
		user, err := eng.Login(cmd.Context(), username, password)
		if err != nil {
			fatalError("%v", err)
		}

		if err := writeSession(&session{
			Username: user.Username,
			UserID:   user.ID,
			LoggedIn: time.Now(),
		}); err != nil {
			fatalError("%v", err)
		}

		if jsonOutput {
			outputJSON(map[string]string{"user_id": user.ID, "username": user.Username, "role": string(user.Role)})
			return
		}
		fmt.Printf("%s Logged in as %s (%s)\n", green("✓"), user.Username, user.Role)
	},
}

var logoutCmd = &cobra.Command{
	Use:     "logout",
	GroupID: "setup",
	Short:   "End the current session",
	Args:    cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if err := clearSession(); err != nil {
			fatalError("%v", err)
		}
		if !jsonOutput {
			fmt.Println("Logged out.")
		}
	},
}

var whoamiCmd = &cobra.Command{
	Use:     "whoami",
	GroupID: "setup",
	Short:   "Show the current session",
	Args:    cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		actor := requireActor()
		user, err := eng.GetUser(cmd.Context(), actor, actor.UserID)
		if err != nil {
			fatalError("%v", err)
		}
		if jsonOutput {
			outputJSON(user)
			return
		}
		fmt.Printf("%s (%s)\n", user.Username, user.Role)
	},
}

func init() {
	rootCmd.AddCommand(loginCmd, logoutCmd, whoamiCmd)
}
