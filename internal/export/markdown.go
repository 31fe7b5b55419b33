package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/iksnae/chat-timeline/internal"
)

// MarkdownExporter exports transcripts in Markdown format
type MarkdownExporter struct{}

// Export exports a transcript to Markdown format. Each sender group becomes
// one section so consecutive messages read as a block.
func (e *MarkdownExporter) Export(t *Transcript, w io.Writer) error {
	ew := &errWriter{w: w}

	ew.printf("# %s\n\n", t.Conversation.DisplayName())
	ew.printf("**Account:** %s  \n", t.Account)
	ew.printf("**Conversation:** %s  \n", t.Conversation.ID)
	if at := formatTime(t.ExportedAt); at != "" {
		ew.printf("**Exported:** %s  \n", at)
	}
	ew.printf("**Events:** %d\n\n", internal.CountEvents(t.Groups))
	ew.printf("---\n\n")

	for i, g := range t.Groups {
		name := g.DisplayName
		if g.IsSelf {
			name += " (you)"
		}
		ew.printf("**%s:** (%s)\n\n", escapeMarkdown(name), formatTime(g.First().Time()))

		for _, ev := range g.Events {
			ew.printf("%s\n\n", escapeMarkdown(ev.Text()))
		}

		if i < len(t.Groups)-1 {
			ew.printf("---\n\n")
		}
	}

	return ew.err
}

// errWriter keeps the first write error so Export can report it once
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

// escapeMarkdown escapes markdown special characters
func escapeMarkdown(text string) string {
	// Basic escaping - preserve code blocks
	lines := strings.Split(text, "\n")
	var result []string
	inCodeBlock := false

	for _, line := range lines {
		if strings.HasPrefix(line, "```") {
			inCodeBlock = !inCodeBlock
			result = append(result, line)
		} else if inCodeBlock {
			result = append(result, line)
		} else {
			line = strings.ReplaceAll(line, "**", "\\*\\*")
			line = strings.ReplaceAll(line, "__", "\\_\\_")
			result = append(result, line)
		}
	}

	return strings.Join(result, "\n")
}

// Extension returns the file extension for this format
func (e *MarkdownExporter) Extension() string {
	return "md"
}
