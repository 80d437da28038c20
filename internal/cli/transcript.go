package cli

import (
	"fmt"
	"strings"

	"github.com/rcliao/ai-tutor/internal/chat"
	"github.com/rcliao/ai-tutor/internal/model"
)

func printMessage(i int, m model.Message) {
	label := userColor("you")
	if m.Sender == model.SenderBot {
		label = botColor("tutor")
	}

	body, sources := chat.SplitSources(m.Text)
	fmt.Printf("%s %s %s\n", dimColor(fmt.Sprintf("[%d]", i)), label, strings.TrimSpace(body))
	if !chat.HasSources(m) {
		return
	}
	if !m.Expanded {
		fmt.Println(dimColor(fmt.Sprintf("    Show Sources (/sources %d)", i)))
		return
	}
	fmt.Println(dimColor(fmt.Sprintf("    Hide Sources (/sources %d)", i)))
	for _, line := range strings.Split(strings.TrimRight(sources, "\n"), "\n") {
		fmt.Println("    " + line)
	}
}

func printTranscript(msgs []model.Message) {
	for i, m := range msgs {
		printMessage(i, m)
	}
}
