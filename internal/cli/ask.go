package cli

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/ai-tutor/internal/chat"
)

func init() {
	cmd := &cobra.Command{
		Use:   "ask <course> <question...>",
		Short: "Ask a course's tutor one question",
		Long:  "Pin the course if needed, send one question and print the reply. The exchange is kept in the saved session.",
		Args:  cobra.MinimumNArgs(2),
		Run:   runAsk,
	}
	cmd.Flags().Bool("sources", false, "Expand the sources of the reply")

	RootCmd.AddCommand(cmd)
}

func runAsk(cmd *cobra.Command, args []string) {
	code, question, err := askArgs(args)
	if err != nil {
		exitErr("ask", err)
	}
	expand, _ := cmd.Flags().GetBool("sources")
	ctx := cmd.Context()

	a := mustApp(cmd)
	defer a.Close()

	c, err := a.controller(ctx, nil)
	if err != nil {
		exitErr("init chat", err)
	}
	if err := c.AddCourse(ctx, code); err != nil {
		exitErr("add course", err)
	}

	c.SetInput(question)
	err = c.Send(ctx)
	a.saveState(ctx, c)
	if err != nil {
		exitErr("ask", err)
	}

	msgs := c.Transcript(code)
	last := len(msgs) - 1
	if expand && chat.HasSources(msgs[last]) {
		c.ToggleSources(code, last)
		msgs = c.Transcript(code)
		a.saveState(ctx, c)
	}

	printOut(msgs[last], func() { printMessage(last, msgs[last]) })
}

// askArgs splits the course code from the question words.
func askArgs(args []string) (code, question string, err error) {
	if len(args) < 2 {
		return "", "", errors.New("usage: ask <course> <question...>")
	}
	question = strings.TrimSpace(strings.Join(args[1:], " "))
	if question == "" {
		return "", "", errors.New("question is empty")
	}
	return args[0], question, nil
}
