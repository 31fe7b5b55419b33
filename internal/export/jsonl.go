package export

import (
	"encoding/json"
	"fmt"
	"io"
)

// JSONLExporter exports transcripts in JSONL format (one event per line)
type JSONLExporter struct{}

type jsonlLine struct {
	Conversation string `json:"conversation_id"`
	SenderID     string `json:"sender_id"`
	Sender       string `json:"sender"`
	IsSelf       bool   `json:"is_self,omitempty"`
	event
}

// Export exports a transcript to JSONL format
func (e *JSONLExporter) Export(t *Transcript, w io.Writer) error {
	enc := json.NewEncoder(w)

	for _, g := range t.Groups {
		for _, ev := range g.Events {
			line := jsonlLine{
				Conversation: t.Conversation.ID,
				SenderID:     g.SenderID,
				Sender:       g.DisplayName,
				IsSelf:       g.IsSelf,
				event:        toEvent(ev),
			}
			if err := enc.Encode(line); err != nil {
				return fmt.Errorf("failed to encode event %s: %w", ev.ID, err)
			}
		}
	}

	return nil
}

// Extension returns the file extension for this format
func (e *JSONLExporter) Extension() string {
	return "jsonl"
}
