package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show login state and local database statistics",
		Run:   runStatus,
	}

	RootCmd.AddCommand(cmd)
}

func runStatus(cmd *cobra.Command, args []string) {
	a := mustApp(cmd)
	defer a.Close()

	path := getDBPath(a.cfg)
	stats, err := a.store.Stats(cmd.Context(), path)
	if err != nil {
		exitErr("stats", err)
	}

	out := map[string]any{
		"api_url": a.cfg.APIURL,
		"user":    a.session.User,
		"store":   stats,
	}
	printOut(out, func() {
		fmt.Printf("API:       %s\n", a.cfg.APIURL)
		if stats.SignedIn {
			name := userLabel(a.session.User)
			if name == "" {
				name = "(unknown user)"
			}
			fmt.Printf("Signed in: %s\n", okLabel(name))
		} else {
			fmt.Printf("Signed in: %s\n", warnLabel("no"))
		}
		fmt.Printf("Database:  %s (%d bytes)\n", stats.DBPath, stats.DBSizeBytes)
		fmt.Printf("Pinned:    %d courses, %d saved messages\n", stats.SidebarCourses, stats.TotalMessages)
		if stats.PendingDeletes > 0 {
			fmt.Printf("Pending:   %d history deletes\n", stats.PendingDeletes)
		}
		for _, c := range stats.Courses {
			pin := " "
			if c.Pinned {
				pin = "*"
			}
			fmt.Printf("  %s %-10s %d\n", pin, c.Course, c.Messages)
		}
	})
}
