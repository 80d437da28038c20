package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/ai-tutor/internal/chat"
	"github.com/rcliao/ai-tutor/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "chat [course]",
		Short: "Interactive chat with course tutors",
		Long: `Interactive chat. Lines are sent to the active course's tutor.

Commands:
  /add <course>    pin a course and make it active
  /use <course>    switch to a pinned course
  /rm <course>     unpin a course and delete its history
  /sources <n>     show or hide the sources of message n
  /show            print the active transcript
  /list            list pinned courses
  /retry           retry failed history deletes
  /quit            save and exit`,
		Args: cobra.MaximumNArgs(1),
		Run:  runChat,
	}

	RootCmd.AddCommand(cmd)
}

func runChat(cmd *cobra.Command, args []string) {
	ctx := cmd.Context()
	a := mustApp(cmd)
	defer a.Close()

	var c *chat.Controller
	c, err := a.controller(ctx, func(code string) {
		msgs := c.Transcript(code)
		if len(msgs) > 0 && msgs[len(msgs)-1].Sender == model.SenderUser {
			fmt.Println(dimColor("      " + chat.Placeholder))
		}
	})
	if err != nil {
		exitErr("init chat", err)
	}
	defer a.saveState(context.WithoutCancel(ctx), c)

	if len(args) == 1 {
		replCommand(ctx, a, c, "/add "+args[0])
	} else if code := c.Active(); code != "" {
		printTranscript(c.Transcript(code))
	}
	if !a.session.Authorized() {
		fmt.Println(warnLabel("Not logged in; run `ai-tutor login` to ask questions."))
	}

	in := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(prompt(c))
		if !in.Scan() {
			fmt.Println()
			return
		}
		line := strings.TrimSpace(in.Text())
		if strings.HasPrefix(line, "/") {
			if !replCommand(ctx, a, c, line) {
				return
			}
			continue
		}
		send(ctx, a, c, line)
		if ctx.Err() != nil {
			return
		}
	}
}

func prompt(c *chat.Controller) string {
	if code := c.Active(); code != "" {
		return userColor(code) + "> "
	}
	return "> "
}

func send(ctx context.Context, a *app, c *chat.Controller, line string) {
	c.SetInput(line)
	err := c.Send(ctx)
	switch {
	case errors.Is(err, chat.ErrNoActiveCourse):
		if text, ok := c.Notice(); ok {
			fmt.Println(warnLabel(text))
		}
		c.SetInput("")
		return
	case err != nil:
		fmt.Println(errLabel(err.Error()))
		return
	}
	if line == "" {
		return
	}

	code := c.Active()
	msgs := c.Transcript(code)
	if len(msgs) > 0 {
		printMessage(len(msgs)-1, msgs[len(msgs)-1])
	}
	a.saveState(ctx, c)
}

// replCommand runs one slash command and reports whether the loop should
// continue.
func replCommand(ctx context.Context, a *app, c *chat.Controller, line string) bool {
	fields := strings.Fields(line)
	name, arg := fields[0], ""
	if len(fields) > 1 {
		arg = fields[1]
	}

	switch name {
	case "/quit", "/exit":
		return false
	case "/add", "/use":
		if arg == "" {
			fmt.Println(errLabel("usage: " + name + " <course>"))
			return true
		}
		if err := c.AddCourse(ctx, arg); err != nil {
			fmt.Println(errLabel(err.Error()))
			return true
		}
		printTranscript(c.Transcript(arg))
	case "/rm":
		if arg == "" {
			fmt.Println(errLabel("usage: /rm <course>"))
			return true
		}
		if c.RemoveCourse(ctx, arg) {
			fmt.Println(okLabel("✓"), "Removed", arg)
		} else {
			fmt.Println(warnLabel("Removed " + arg + " locally; server history delete failed (/retry)"))
		}
	case "/sources":
		n, err := strconv.Atoi(arg)
		if err != nil {
			fmt.Println(errLabel("usage: /sources <message number>"))
			return true
		}
		code := c.Active()
		if err := c.ToggleSources(code, n); err != nil {
			fmt.Println(errLabel(err.Error()))
			return true
		}
		printMessage(n, c.Transcript(code)[n])
	case "/show":
		printTranscript(c.Transcript(c.Active()))
	case "/list":
		printSidebar(c)
	case "/retry":
		if failed := c.RetryDeletes(ctx); len(failed) > 0 {
			fmt.Printf("%s still failing: %v\n", warnLabel("!"), failed)
		} else {
			fmt.Println(okLabel("✓"), "No pending history deletes")
		}
	default:
		fmt.Println(errLabel("unknown command " + name + " (see `ai-tutor chat --help`)"))
		return true
	}
	a.saveState(ctx, c)
	return true
}
