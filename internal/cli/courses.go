package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rcliao/ai-tutor/internal/catalog"
	"github.com/rcliao/ai-tutor/internal/model"
	"github.com/rcliao/ai-tutor/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "courses",
		Short: "List the course catalog",
		Long:  "List all courses. With --diff, compare against the last saved catalog and show what changed.",
		Run:   runCourses,
	}
	cmd.Flags().Bool("diff", false, "Show changes since the last listing")

	RootCmd.AddCommand(cmd)
}

const keyCatalog = "catalog"

func runCourses(cmd *cobra.Command, args []string) {
	showDiff, _ := cmd.Flags().GetBool("diff")

	a := mustApp(cmd)
	defer a.Close()

	if showDiff {
		prev, err := loadCatalogSnapshot(cmd.Context(), a.store)
		if err != nil {
			exitErr("load previous catalog", err)
		}
		a.catalog.Seed(prev)
	}

	d, err := a.catalog.Refresh(cmd.Context())
	if err != nil {
		exitErr("get courses", err)
	}
	courses := a.catalog.Courses()
	if err := saveCatalogSnapshot(cmd.Context(), a.store, courses); err != nil {
		a.log.Warn("failed to save catalog snapshot", zap.Error(err))
	}

	if showDiff {
		printOut(d, func() { printDiff(d) })
		return
	}

	printOut(courses, func() {
		if len(courses) == 0 {
			fmt.Println("No courses available.")
			return
		}
		for _, c := range courses {
			printCourse(c)
		}
	})
}

func printCourse(c model.Course) {
	var flags []string
	if c.HasChatbot {
		flags = append(flags, "chatbot")
	}
	if c.HasRoadmap {
		flags = append(flags, "roadmap")
	}
	fmt.Printf("%-10s %s", userColor(c.Code), c.Name)
	if len(flags) > 0 {
		fmt.Printf(" %s", dimColor(fmt.Sprintf("%v", flags)))
	}
	fmt.Println()
}

func printDiff(d catalog.Diff) {
	if d.Empty() {
		fmt.Println("No changes.")
		return
	}
	for _, c := range d.Added {
		fmt.Printf("%s %s %s\n", okLabel("+"), c.Code, c.Name)
	}
	for _, c := range d.Removed {
		fmt.Printf("%s %s %s\n", errLabel("-"), c.Code, c.Name)
	}
	for _, c := range d.Changed {
		fmt.Printf("%s %s %s\n", warnLabel("~"), c.Code, c.Name)
	}
}

func loadCatalogSnapshot(ctx context.Context, s store.Store) ([]model.Course, error) {
	raw, ok, err := s.GetValue(ctx, keyCatalog)
	if err != nil || !ok {
		return nil, err
	}
	var courses []model.Course
	if err := json.Unmarshal([]byte(raw), &courses); err != nil {
		return nil, err
	}
	return courses, nil
}

func saveCatalogSnapshot(ctx context.Context, s store.Store, courses []model.Course) error {
	b, err := json.Marshal(courses)
	if err != nil {
		return err
	}
	return s.SetValue(ctx, keyCatalog, string(b))
}
