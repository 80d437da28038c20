package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/rcliao/ai-tutor/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show the signed-in user with enrolled and available courses",
		Run:   runProfile,
	}

	RootCmd.AddCommand(cmd)
}

type profile struct {
	User      *model.User    `json:"user" yaml:"user"`
	Enrolled  []model.Course `json:"enrolled" yaml:"enrolled"`
	Available []model.Course `json:"available" yaml:"available"`
}

func runProfile(cmd *cobra.Command, args []string) {
	a := mustApp(cmd)
	defer a.Close()
	requireLogin(a)

	enrolled, err := a.client.UserCourses(cmd.Context(), a.session)
	if err != nil {
		exitErr("get enrolled courses", err)
	}
	if _, err := a.catalog.Refresh(cmd.Context()); err != nil {
		exitErr("get courses", err)
	}

	p := profile{User: a.session.User, Enrolled: enrolled, Available: []model.Course{}}
	for _, c := range a.catalog.Courses() {
		if !slices.ContainsFunc(enrolled, func(e model.Course) bool { return e.Code == c.Code }) {
			p.Available = append(p.Available, c)
		}
	}

	printOut(p, func() {
		if p.User != nil {
			fmt.Printf("%s <%s>\n\n", userColor(p.User.Username), p.User.Email)
		}
		fmt.Println("Enrolled courses:")
		if len(p.Enrolled) == 0 {
			fmt.Println(dimColor("  none"))
		}
		for _, c := range p.Enrolled {
			fmt.Print("  ")
			printCourse(c)
		}
		fmt.Println("\nAvailable courses:")
		if len(p.Available) == 0 {
			fmt.Println(dimColor("  none"))
		}
		for _, c := range p.Available {
			fmt.Print("  ")
			printCourse(c)
		}
	})
}
