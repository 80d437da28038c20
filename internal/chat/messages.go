package chat

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/rcliao/ai-tutor/internal/model"
	"github.com/rcliao/ai-tutor/internal/render"
)

// Transcript texts shown to the user.
const (
	Placeholder         = "..."
	MsgNotAuthenticated = "User not authenticated. Please log in!"
	MsgNotEnrolled      = "Not enrolled in this course!"
	MsgNoChatbot        = "This course does not have a chatbot yet!"
	MsgRateLimited      = "Too many requests. Please try again later!"
	MsgTimeout          = "The tutor took too long to respond. Please try again!"
	MsgGenericError     = "Error generating response. Please try again!"

	NoticeNoCourse = "Please add a chatbot for a course before sending a message."
)

// SourcesDelimiter separates an answer from its sources block.
const SourcesDelimiter = "\nSources:\n"

// Greeting is the first bot message of a fresh transcript.
func Greeting(code string) string {
	return fmt.Sprintf("Hi, I’m Advisory, your personal AI tutor for %s. How can I help you?", code)
}

func userMessage(text string) model.Message {
	return model.Message{Text: text, Sender: model.SenderUser}
}

func botMessage(text string) model.Message {
	return model.Message{Text: text, Sender: model.SenderBot}
}

// formatAnswer renders the answer and appends the sources that name a
// document. withChunks adds the cited excerpt under each source.
func formatAnswer(r render.Renderer, answer string, sources []model.Source, withChunks bool) string {
	var b strings.Builder
	b.WriteString(r.Render(answer))

	first := true
	for _, s := range sources {
		if s.Source == nil || strings.TrimSpace(*s.Source) == "" {
			continue
		}
		if first {
			b.WriteString(SourcesDelimiter)
			first = false
		}
		fmt.Fprintf(&b, "• %s (Similarity score: %.2f)\n", oneLine(*s.Source), s.Score)
		if withChunks && strings.TrimSpace(s.Chunk) != "" {
			fmt.Fprintf(&b, "%s%s\n", chunkPrefix, oneLine(s.Chunk))
		}
	}
	return b.String()
}

// SplitSources separates a bot message into the answer body and the sources
// block. Only a trailing block made of citation lines counts, so an answer
// that itself contains a "Sources:" line is left whole.
func SplitSources(text string) (body, sources string) {
	i := strings.LastIndex(text, SourcesDelimiter)
	if i < 0 {
		return text, ""
	}
	block := text[i+len(SourcesDelimiter):]
	if !isSourcesBlock(block) {
		return text, ""
	}
	return text[:i], block
}

// HasSources reports whether a message carries a sources block.
func HasSources(m model.Message) bool {
	if m.Sender != model.SenderBot {
		return false
	}
	_, sources := SplitSources(m.Text)
	return sources != ""
}

const chunkPrefix = "  Text chunk: "

var citationRe = regexp.MustCompile(`^• .+ \(Similarity score: -?\d+\.\d{2}\)$`)

func isSourcesBlock(block string) bool {
	lines := strings.Split(strings.TrimSuffix(block, "\n"), "\n")
	if len(lines) == 0 || !citationRe.MatchString(lines[0]) {
		return false
	}
	for _, l := range lines[1:] {
		if !citationRe.MatchString(l) && !strings.HasPrefix(l, chunkPrefix) {
			return false
		}
	}
	return true
}

// oneLine folds whitespace runs, newlines included, into single spaces.
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// historyMessages expands stored question/answer pairs into transcript
// entries.
func historyMessages(r render.Renderer, qa []model.QA) []model.Message {
	out := make([]model.Message, 0, 2*len(qa))
	for _, p := range qa {
		out = append(out,
			userMessage(p.Question),
			botMessage(formatAnswer(r, p.Answer, p.Sources, false)))
	}
	return out
}
