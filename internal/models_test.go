package internal

import (
	"testing"
	"time"
)

func TestConversationSummary_DisplayName(t *testing.T) {
	empty, named := "", "Book Club"
	tests := []struct {
		name string
		conv ConversationSummary
		want string
	}{
		{"nil name", ConversationSummary{ID: "c1"}, "Unnamed Chat"},
		{"empty name", ConversationSummary{ID: "c1", Name: &empty}, "Unnamed Chat"},
		{"named", ConversationSummary{ID: "c1", Name: &named}, "Book Club"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.conv.DisplayName(); got != tt.want {
				t.Errorf("DisplayName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEvent_Accessors(t *testing.T) {
	ev := Event{ID: "e1", Timestamp: 1700000000, Kind: MessageKind{Text: "hi"}}
	if ev.Text() != "hi" {
		t.Errorf("Text() = %q, want hi", ev.Text())
	}
	if !ev.Time().Equal(time.Unix(1700000000, 0)) {
		t.Errorf("Time() = %v", ev.Time())
	}
	if KindName(ev.Kind) != "message" || KindName(nil) != "" {
		t.Errorf("KindName() = %q / %q", KindName(ev.Kind), KindName(nil))
	}

	noKind := Event{ID: "e2"}
	if noKind.Text() != "" {
		t.Errorf("Text() of an event without kind = %q", noKind.Text())
	}
}

func TestEventGroup_CloneIsDeep(t *testing.T) {
	g := EventGroup{
		SenderID: "alice",
		Avatar:   []byte{1, 2, 3},
		Events:   []Event{{ID: "e1", Timestamp: 1}, {ID: "e2", Timestamp: 2}},
	}
	c := g.clone()
	c.Avatar[0] = 9
	c.Events[0].ID = "changed"

	if g.Avatar[0] != 1 || g.Events[0].ID != "e1" {
		t.Error("clone() shares backing arrays with the original")
	}
	if c.First().ID != "changed" || c.Last().ID != "e2" {
		t.Errorf("First()/Last() = %s/%s", c.First().ID, c.Last().ID)
	}
}

func TestCountEvents(t *testing.T) {
	groups := []EventGroup{
		{Events: make([]Event, 2)},
		{Events: make([]Event, 3)},
	}
	if got := CountEvents(groups); got != 5 {
		t.Errorf("CountEvents() = %d, want 5", got)
	}
	if got := CountEvents(nil); got != 0 {
		t.Errorf("CountEvents(nil) = %d, want 0", got)
	}
}
