package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/taskmaster/tm/internal/config"
	"github.com/taskmaster/tm/internal/engine"
	"github.com/taskmaster/tm/internal/storage/sqlite"
)

var initCmd = &cobra.Command{
	Use:     "init",
	GroupID: "setup",
	Short:   "Initialize a tracker workspace in the current directory",
	Long: `Initialize a tracker workspace.

Creates a .tm directory with a config file and a sqlite database, and
bootstraps the first admin account. With --seed, loads users, projects
and reference data from a YAML seed file.

Examples:
  tm init --admin alice
  tm init --admin alice --seed team.yaml
  tm init --prefix bug`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		adminUser, _ := cmd.Flags().GetString("admin")
		prefix, _ := cmd.Flags().GetString("prefix")
		seedPath, _ := cmd.Flags().GetString("seed")

		cwd, err := os.Getwd()
		if err != nil {
			fatalError("%v", err)
		}
		dir := filepath.Join(cwd, config.DirName)
		if _, err := os.Stat(dir); err == nil {
			fatalError("%s already exists", dir)
		}

		newCfg := &config.Config{
			DBPath:      "issues.db",
			Username:    adminUser,
			IssuePrefix: prefix,
			RecentLimit: 10,
		}
		if err := config.Save(dir, newCfg); err != nil {
			fatalError("%v", err)
		}

		ctx := cmd.Context()
		st, err := sqlite.New(ctx, filepath.Join(dir, newCfg.DBPath))
		if err != nil {
			fatalError("failed to create database: %v", err)
		}
		defer func() { _ = st.Close() }()
		e := engine.New(st, prefix)

		password := promptPassword(fmt.Sprintf("Password for %s: ", adminUser))
		admin, err := e.Bootstrap(ctx, adminUser, adminUser, password)
		if err != nil {
			fatalError("failed to create admin account: %v", err)
		}
		actor := engine.Actor{UserID: admin.ID, Role: admin.Role}

		if seedPath != "" {
			if err := applySeed(cmd, e, actor, seedPath); err != nil {
				fatalError("failed to apply seed: %v", err)
			}
		}

		if jsonOutput {
			outputJSON(map[string]string{"workspace": dir, "admin": admin.Username})
			return
		}
		fmt.Printf("%s Initialized workspace in %s\n", green("✓"), dir)
		fmt.Printf("  Admin account: %s\n", admin.Username)
		fmt.Println("  Run 'tm login' to start.")
	},
}

// applySeed loads a seed file into a fresh store: accounts first, then
// projects with their membership and reference lookups.
func applySeed(cmd *cobra.Command, e *engine.Engine, actor engine.Actor, path string) error {
	seed, err := config.LoadSeedFile(path)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	userIDs := make(map[string]string)
	for _, su := range seed.Users {
		u, err := e.CreateUser(ctx, actor, su.Username, su.DisplayName, su.Password, su.Role)
		if err != nil {
			return fmt.Errorf("user %s: %w", su.Username, err)
		}
		userIDs[su.Username] = u.ID
	}

	for _, sp := range seed.Projects {
		memberIDs := make([]string, 0, len(sp.Members))
		for _, name := range sp.Members {
			memberIDs = append(memberIDs, userIDs[name])
		}
		p, err := e.CreateProject(ctx, actor, sp.Name, sp.Description, memberIDs)
		if err != nil {
			return fmt.Errorf("project %s: %w", sp.Name, err)
		}
		for _, name := range sp.Modules {
			if _, err := e.CreateModule(ctx, actor, p.ID, name); err != nil {
				return fmt.Errorf("module %s: %w", name, err)
			}
		}
		for _, name := range sp.Versions {
			if _, err := e.CreateVersion(ctx, actor, p.ID, name); err != nil {
				return fmt.Errorf("version %s: %w", name, err)
			}
		}
		for _, sl := range sp.Labels {
			if _, err := e.CreateLabel(ctx, actor, p.ID, sl.Name, sl.Color); err != nil {
				return fmt.Errorf("label %s: %w", sl.Name, err)
			}
		}
	}
	return nil
}

func init() {
	initCmd.Flags().String("admin", "admin", "Username for the bootstrap admin account")
	initCmd.Flags().String("prefix", "tm", "Prefix for generated issue IDs")
	initCmd.Flags().String("seed", "", "YAML seed file with users, projects and lookups")
	rootCmd.AddCommand(initCmd)
}
