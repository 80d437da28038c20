package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/ai-tutor/internal/roadmap"
)

func init() {
	cmd := &cobra.Command{
		Use:   "roadmap <course>",
		Short: "Show a course's week by week roadmap",
		Long:  "Show the roadmap graph of a course. With --topic, show the resources of one topic node.",
		Args:  cobra.ExactArgs(1),
		Run:   runRoadmap,
	}
	cmd.Flags().StringP("topic", "t", "", "Topic node id (e.g. Week1-0)")

	RootCmd.AddCommand(cmd)
}

func runRoadmap(cmd *cobra.Command, args []string) {
	code := args[0]
	topic, _ := cmd.Flags().GetString("topic")

	a := mustApp(cmd)
	defer a.Close()

	data, err := a.client.Roadmap(cmd.Context(), a.session, code)
	if err != nil {
		exitErr("get roadmap", err)
	}
	g := roadmap.Build(data)

	if topic != "" {
		d, ok := g.Detail(topic)
		if !ok {
			exitErr("topic", fmt.Errorf("no topic %q in %s", topic, code))
		}
		printOut(d, func() { printDetail(d) })
		return
	}

	printOut(g, func() {
		if g.Empty() {
			fmt.Printf("%s has no roadmap yet.\n", code)
			return
		}
		for i, w := range g.Weeks() {
			if i > 0 {
				fmt.Println(dimColor("  │"))
			}
			fmt.Println(userColor(w.Label))
			for _, t := range g.Topics(w.ID) {
				fmt.Printf("  ├─ %s %s\n", t.Label, dimColor("("+t.ID+")"))
			}
		}
	})
}

func printDetail(d *roadmap.Detail) {
	fmt.Printf("%s %s\n", userColor(d.Name), dimColor("("+d.Parent+")"))
	if len(d.External) > 0 {
		fmt.Println("\nExternal resources:")
		for _, l := range d.External {
			fmt.Printf("  • %s  %s\n", l.Label, dimColor(l.Target))
		}
	}
	if len(d.Internal) > 0 {
		fmt.Println("\nCourse materials:")
		for _, l := range d.Internal {
			fmt.Printf("  • %s  %s\n", l.Label, dimColor(l.Target))
		}
	}
	if len(d.External) == 0 && len(d.Internal) == 0 {
		fmt.Println(dimColor("No resources for this topic."))
	}
	for _, s := range d.Skipped {
		fmt.Printf("%s skipped malformed link %q\n", warnLabel("!"), s)
	}
}
