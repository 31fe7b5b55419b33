package export

import (
	"time"

	"github.com/iksnae/chat-timeline/internal"
)

const baseTS = 1700000000 // 2023-11-14T22:13:20Z

// sampleTranscript has three groups: alice (2 events), me (1), alice (1).
func sampleTranscript() *Transcript {
	agg := internal.NewAggregator("me")
	agg.Fold(internal.NewestFirst(
		internal.CreateTestMessage("room", "e1", "alice", baseTS),
		internal.CreateTestMessage("room", "e2", "alice", baseTS+60),
		internal.CreateTestMessage("room", "e3", "me", baseTS+120),
		internal.CreateTestMessage("room", "e4", "alice", baseTS+180),
	), internal.Append, func(id string) (internal.SenderProfile, bool) {
		if id == "alice" {
			return internal.SenderProfile{ID: id, DisplayName: "Alice"}, true
		}
		return internal.SenderProfile{}, false
	})

	name := "Book Club"
	return &Transcript{
		Account:      "fake-me",
		Conversation: internal.ConversationSummary{ID: "room", Name: &name},
		ExportedAt:   time.Unix(baseTS+3600, 0),
		Groups:       agg.Snapshot(),
	}
}

func emptyTranscript() *Transcript {
	return &Transcript{
		Account:      "fake-me",
		Conversation: internal.ConversationSummary{ID: "dm"},
	}
}
