package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	enroll := &cobra.Command{
		Use:   "enroll <course>",
		Short: "Enroll in a course",
		Args:  cobra.ExactArgs(1),
		Run:   runEnroll,
	}

	drop := &cobra.Command{
		Use:   "drop <course>",
		Short: "Drop a course",
		Args:  cobra.ExactArgs(1),
		Run:   runDrop,
	}

	RootCmd.AddCommand(enroll, drop)
}

func runEnroll(cmd *cobra.Command, args []string) {
	code := args[0]

	a := mustApp(cmd)
	defer a.Close()
	requireLogin(a)

	if err := a.client.Enroll(cmd.Context(), a.session, code); err != nil {
		exitErr("enroll", err)
	}
	printOK(fmt.Sprintf("Enrolled in %s", code))
}

func runDrop(cmd *cobra.Command, args []string) {
	code := args[0]

	a := mustApp(cmd)
	defer a.Close()
	requireLogin(a)

	if err := a.client.Drop(cmd.Context(), a.session, code); err != nil {
		exitErr("drop", err)
	}
	printOK(fmt.Sprintf("Dropped %s", code))
}
