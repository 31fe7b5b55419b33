package export

import (
	"fmt"
	"io"
	"time"

	"github.com/iksnae/chat-timeline/internal"
)

// Transcript is an exported conversation timeline
type Transcript struct {
	Account      string                 // session key, e.g. "matrix-@alice:example.org"
	Conversation internal.ConversationSummary
	ExportedAt   time.Time
	Groups       []internal.EventGroup // oldest first
}

// Exporter defines the interface for all export formats
type Exporter interface {
	Export(t *Transcript, w io.Writer) error
	Extension() string
}

// NewExporter creates a new exporter based on format
func NewExporter(format string) (Exporter, error) {
	switch format {
	case "jsonl":
		return &JSONLExporter{}, nil
	case "md", "markdown":
		return &MarkdownExporter{}, nil
	case "yaml", "yml":
		return &YAMLExporter{}, nil
	case "json":
		return &JSONExporter{}, nil
	default:
		return nil, &internal.ExportError{
			Format: format,
			Err:    fmt.Errorf("unsupported format (supported: jsonl, md, yaml, json)"),
		}
	}
}

// Formats lists the accepted format names
func Formats() []string {
	return []string{"jsonl", "md", "yaml", "json"}
}

// document is the structured form shared by the json and yaml exporters.
type document struct {
	Account      string  `json:"account" yaml:"account"`
	Conversation string  `json:"conversation_id" yaml:"conversation_id"`
	Name         string  `json:"conversation_name" yaml:"conversation_name"`
	ExportedAt   string  `json:"exported_at" yaml:"exported_at"`
	EventCount   int     `json:"event_count" yaml:"event_count"`
	Groups       []group `json:"groups" yaml:"groups"`
}

type group struct {
	SenderID    string  `json:"sender_id" yaml:"sender_id"`
	DisplayName string  `json:"display_name" yaml:"display_name"`
	IsSelf      bool    `json:"is_self" yaml:"is_self"`
	Events      []event `json:"events" yaml:"events"`
}

type event struct {
	ID        string `json:"id" yaml:"id"`
	Timestamp string `json:"timestamp" yaml:"timestamp"`
	Kind      string `json:"kind" yaml:"kind"`
	Text      string `json:"text,omitempty" yaml:"text,omitempty"`
}

func toEvent(e internal.Event) event {
	return event{
		ID:        e.ID,
		Timestamp: formatTime(e.Time()),
		Kind:      internal.KindName(e.Kind),
		Text:      e.Text(),
	}
}

func toDocument(t *Transcript) document {
	doc := document{
		Account:      t.Account,
		Conversation: t.Conversation.ID,
		Name:         t.Conversation.DisplayName(),
		ExportedAt:   formatTime(t.ExportedAt),
		EventCount:   internal.CountEvents(t.Groups),
		Groups:       make([]group, 0, len(t.Groups)),
	}
	for _, g := range t.Groups {
		out := group{
			SenderID:    g.SenderID,
			DisplayName: g.DisplayName,
			IsSelf:      g.IsSelf,
			Events:      make([]event, 0, len(g.Events)),
		}
		for _, e := range g.Events {
			out.Events = append(out.Events, toEvent(e))
		}
		doc.Groups = append(doc.Groups, out)
	}
	return doc
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
