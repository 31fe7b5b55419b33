package export

import (
	"errors"
	"testing"

	"github.com/iksnae/chat-timeline/internal"
)

func TestNewExporter(t *testing.T) {
	tests := []struct {
		name    string
		format  string
		wantExt string
		wantErr bool
	}{
		{name: "jsonl format", format: "jsonl", wantExt: "jsonl"},
		{name: "markdown format", format: "md", wantExt: "md"},
		{name: "markdown format long", format: "markdown", wantExt: "md"},
		{name: "yaml format", format: "yaml", wantExt: "yaml"},
		{name: "yml alias", format: "yml", wantExt: "yaml"},
		{name: "json format", format: "json", wantExt: "json"},
		{name: "unsupported format", format: "xml", wantErr: true},
		{name: "empty format", format: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exporter, err := NewExporter(tt.format)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewExporter() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				var exportErr *internal.ExportError
				if !errors.As(err, &exportErr) || exportErr.Format != tt.format {
					t.Errorf("NewExporter() error = %v, want an ExportError for %q", err, tt.format)
				}
				if exporter != nil {
					t.Errorf("NewExporter() returned exporter %T, want nil", exporter)
				}
				return
			}
			if got := exporter.Extension(); got != tt.wantExt {
				t.Errorf("Extension() = %v, want %v", got, tt.wantExt)
			}
		})
	}
}

func TestFormatsAreAccepted(t *testing.T) {
	for _, f := range Formats() {
		if _, err := NewExporter(f); err != nil {
			t.Errorf("NewExporter(%q) error = %v", f, err)
		}
	}
}

func TestToDocument(t *testing.T) {
	doc := toDocument(sampleTranscript())

	if doc.Name != "Book Club" || doc.Conversation != "room" || doc.Account != "fake-me" {
		t.Errorf("header = %+v", doc)
	}
	if doc.EventCount != 4 || len(doc.Groups) != 3 {
		t.Fatalf("EventCount = %d, groups = %d, want 4 and 3", doc.EventCount, len(doc.Groups))
	}
	if doc.ExportedAt != "2023-11-14T23:13:20Z" {
		t.Errorf("ExportedAt = %q", doc.ExportedAt)
	}

	first := doc.Groups[0]
	if first.DisplayName != "Alice" || len(first.Events) != 2 {
		t.Errorf("first group = %+v", first)
	}
	if ev := first.Events[0]; ev.ID != "e1" || ev.Kind != "message" || ev.Text != "message e1" || ev.Timestamp != "2023-11-14T22:13:20Z" {
		t.Errorf("first event = %+v", ev)
	}
	if !doc.Groups[1].IsSelf || doc.Groups[1].DisplayName != "me" {
		t.Errorf("self group = %+v", doc.Groups[1])
	}
}

func TestToDocument_Empty(t *testing.T) {
	doc := toDocument(emptyTranscript())
	if doc.Name != "Unnamed Chat" || doc.ExportedAt != "" || doc.Groups == nil || len(doc.Groups) != 0 {
		t.Errorf("toDocument(empty) = %+v", doc)
	}
}
