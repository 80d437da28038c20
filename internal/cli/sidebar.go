package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rcliao/ai-tutor/internal/chat"
	"github.com/rcliao/ai-tutor/internal/model"
)

func init() {
	sidebar := &cobra.Command{
		Use:   "sidebar",
		Short: "List the courses pinned for chat",
		Run:   runSidebar,
	}

	add := &cobra.Command{
		Use:   "add <course>",
		Short: "Pin a course and make it active",
		Args:  cobra.ExactArgs(1),
		Run:   runSidebarAdd,
	}

	rm := &cobra.Command{
		Use:   "rm <course>",
		Short: "Unpin a course and delete its chat history on the server",
		Args:  cobra.ExactArgs(1),
		Run:   runSidebarRm,
	}

	retry := &cobra.Command{
		Use:   "retry",
		Short: "Retry history deletes that failed earlier",
		Run:   runSidebarRetry,
	}

	sidebar.AddCommand(add, rm, retry)
	RootCmd.AddCommand(sidebar)
}

type sidebarView struct {
	Active         string         `json:"active" yaml:"active"`
	Courses        []model.Course `json:"courses" yaml:"courses"`
	PendingDeletes []string       `json:"pending_deletes,omitempty" yaml:"pending_deletes,omitempty"`
}

func printSidebar(c *chat.Controller) {
	v := sidebarView{Active: c.Active(), Courses: c.Sidebar(), PendingDeletes: c.PendingDeletes()}
	printOut(v, func() {
		if len(v.Courses) == 0 {
			fmt.Println("No courses pinned. Add one with `ai-tutor sidebar add <course>`.")
		}
		for _, course := range v.Courses {
			marker := " "
			if course.Code == v.Active {
				marker = okLabel("*")
			}
			fmt.Printf("%s ", marker)
			printCourse(course)
		}
		if len(v.PendingDeletes) > 0 {
			fmt.Printf("%s history delete pending for %v (run `ai-tutor sidebar retry`)\n", warnLabel("!"), v.PendingDeletes)
		}
	})
}

func runSidebar(cmd *cobra.Command, args []string) {
	a := mustApp(cmd)
	defer a.Close()

	c, err := a.controller(cmd.Context(), nil)
	if err != nil {
		exitErr("init chat", err)
	}
	a.saveState(cmd.Context(), c)
	printSidebar(c)
}

func runSidebarAdd(cmd *cobra.Command, args []string) {
	ctx := cmd.Context()
	a := mustApp(cmd)
	defer a.Close()

	c, err := a.controller(ctx, nil)
	if err != nil {
		exitErr("init chat", err)
	}
	if err := c.AddCourse(ctx, args[0]); err != nil {
		exitErr("add course", err)
	}
	a.saveState(ctx, c)
	printSidebar(c)
}

func runSidebarRm(cmd *cobra.Command, args []string) {
	ctx := cmd.Context()
	a := mustApp(cmd)
	defer a.Close()

	c, err := a.controller(ctx, nil)
	if err != nil {
		exitErr("init chat", err)
	}
	if !c.RemoveCourse(ctx, args[0]) {
		fmt.Fprintf(os.Stderr, "%s: could not delete server history for %s; run `ai-tutor sidebar retry` later\n", warnLabel("warning"), args[0])
	}
	a.saveState(ctx, c)
	printSidebar(c)
}

func runSidebarRetry(cmd *cobra.Command, args []string) {
	ctx := cmd.Context()
	a := mustApp(cmd)
	defer a.Close()

	c, err := a.controller(ctx, nil)
	if err != nil {
		exitErr("init chat", err)
	}
	failed := c.RetryDeletes(ctx)
	a.saveState(ctx, c)

	printOut(map[string]any{"ok": len(failed) == 0, "failed": failed}, func() {
		if len(failed) == 0 {
			fmt.Println(okLabel("✓"), "No pending history deletes")
			return
		}
		fmt.Printf("%s still failing: %v\n", warnLabel("!"), failed)
	})
}
