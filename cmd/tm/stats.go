package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/taskmaster/tm/internal/types"
)

var statsCmd = &cobra.Command{
	Use:     "stats",
	GroupID: "views",
	Short:   "Show the dashboard snapshot",
	Long: `Show aggregate metrics: totals, the open/closed split, counts by
status, priority and module, per-user assigned counts and recent
activity. All numbers come from a single consistent snapshot.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		actor := requireActor()
		limit, _ := cmd.Flags().GetInt("recent")
		if !cmd.Flags().Changed("recent") {
			limit = cfg.RecentLimit
		}

		m, err := eng.GetDashboardMetrics(cmd.Context(), actor, limit)
		if err != nil {
			fatalError("%v", err)
		}

		if jsonOutput {
			outputJSON(m)
			return
		}

		fmt.Printf("Issues: %d total, %s open, %s closed, %s critical\n",
			m.TotalIssues, yellow(m.OpenIssues), faint(m.ClosedIssues), red(m.CriticalIssues))

		if len(m.ByStatus) > 0 {
			fmt.Printf("\n%s\n", faint("By status:"))
			for _, s := range []types.Status{
				types.StatusNew, types.StatusOpen, types.StatusInProgress,
				types.StatusInReview, types.StatusResolved, types.StatusReopened,
				types.StatusClosed,
			} {
				if count := m.ByStatus[s]; count > 0 {
					fmt.Printf("  %-12s %d\n", s, count)
				}
			}
		}

		if len(m.ByPriority) > 0 {
			fmt.Printf("\n%s\n", faint("By priority:"))
			for p := 0; p <= 4; p++ {
				if count := m.ByPriority[p]; count > 0 {
					fmt.Printf("  %-4s %d\n", priorityLabel(p), count)
				}
			}
		}

		if len(m.ByModule) > 0 {
			fmt.Printf("\n%s\n", faint("By module:"))
			names := make([]string, 0, len(m.ByModule))
			for name := range m.ByModule {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				display := name
				if display == "" {
					display = "(none)"
				}
				fmt.Printf("  %-16s %d\n", display, m.ByModule[name])
			}
		}

		if len(m.AssignedPerUser) > 0 {
			fmt.Printf("\n%s\n", faint("Assigned (open issues):"))
			ids := make([]string, 0, len(m.AssignedPerUser))
			for id := range m.AssignedPerUser {
				ids = append(ids, id)
			}
			sort.Strings(ids)
			for _, id := range ids {
				fmt.Printf("  %-16s %d\n", userName(id), m.AssignedPerUser[id])
			}
		}

		if len(m.RecentActivity) > 0 {
			fmt.Printf("\n%s\n", faint("Recent activity:"))
			for _, ev := range m.RecentActivity {
				when := ev.CreatedAt.Format("2006-01-02 15:04")
				switch ev.Kind {
				case types.ActivityComment:
					fmt.Printf("  %s  %s commented on %s: %s\n", faint(when), userName(ev.ActorID), cyan(ev.IssueID), ev.Detail)
				default:
					fmt.Printf("  %s  %s moved %s: %s\n", faint(when), userName(ev.ActorID), cyan(ev.IssueID), ev.Detail)
				}
			}
		}
	},
}

func init() {
	statsCmd.Flags().Int("recent", 10, "Number of recent activity entries")
	rootCmd.AddCommand(statsCmd)
}
