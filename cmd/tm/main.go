// tm is a small team issue tracker with a controlled issue lifecycle,
// role-based permissions and a durable audit trail.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/taskmaster/tm/internal/config"
	"github.com/taskmaster/tm/internal/debug"
	"github.com/taskmaster/tm/internal/engine"
	"github.com/taskmaster/tm/internal/storage/sqlite"
)

// Version is set at build time via -ldflags.
var (
	Version = "dev"
	Build   = "unknown"
)

// Global command state, wired in PersistentPreRunE.
var (
	rootCtx context.Context
	cfg     *config.Config
	tmDir   string
	store   *sqlite.Store
	eng     *engine.Engine

	dbPathFlag  string
	actorFlag   string
	jsonOutput  bool
	verboseFlag bool
	quietFlag   bool
)

var rootCmd = &cobra.Command{
	Use:   "tm",
	Short: "tm - Issue lifecycle tracker",
	Long:  `A lightweight issue tracker with a strict status lifecycle, role-based access control and a full audit trail.`,
	Run: func(cmd *cobra.Command, args []string) {
		if v, _ := cmd.Flags().GetBool("version"); v {
			fmt.Printf("tm version %s (%s)\n", Version, Build)
			return
		}
		_ = cmd.Help()
	},
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupSignalContext()
		applyVerbosityFlags()

		if isNoDbCommand(cmd) {
			return nil
		}
		return openWorkspace(cmd.Context())
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if store != nil {
			if err := store.Close(); err != nil {
				debug.Logf("failed to close store: %v", err)
			}
			store = nil
		}
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func setupSignalContext() {
	ctx, cancel := context.WithCancel(context.Background())
	rootCtx = ctx

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigs
		cancel()
	}()
}

func applyVerbosityFlags() {
	if verboseFlag {
		debug.SetVerbose(true)
	}
	if quietFlag {
		debug.SetQuiet(true)
	}
}

// isNoDbCommand reports whether the command runs without an initialized
// workspace. init creates it; version and help need nothing.
func isNoDbCommand(cmd *cobra.Command) bool {
	switch cmd.Name() {
	case "init", "help", "completion":
		return true
	}
	return cmd.Parent() != nil && cmd.Parent().Name() == "completion"
}

// openWorkspace locates the .tm directory, loads config and opens the
// store and engine.
func openWorkspace(ctx context.Context) error {
	tmDir = config.Discover()
	if tmDir == "" {
		return fmt.Errorf("no %s directory found; run 'tm init' first", config.DirName)
	}

	var err error
	cfg, err = config.Load(tmDir)
	if err != nil {
		return err
	}
	if dbPathFlag != "" {
		cfg.DBPath = dbPathFlag
	}

	store, err = sqlite.New(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	eng = engine.New(store, cfg.IssuePrefix)
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPathFlag, "db", "", "Database path (default: from .tm/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&actorFlag, "as", "", "Act as this username instead of the logged-in session")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable verbose/debug output")
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false, "Suppress non-essential output (errors only)")
	rootCmd.Flags().BoolP("version", "V", false, "Print version information")

	rootCmd.AddGroup(
		&cobra.Group{ID: "issues", Title: "Working With Issues:"},
		&cobra.Group{ID: "views", Title: "Views & Reports:"},
		&cobra.Group{ID: "setup", Title: "Setup & Administration:"},
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fatalError("%v", err)
	}
}
