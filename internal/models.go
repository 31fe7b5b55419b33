package internal

import (
	"time"
)

// Raw event types understood by the aggregator. Anything else is dropped.
const (
	RawEventMessage = "message"
)

// RawEvent is an event as delivered by a provider, before aggregation
type RawEvent struct {
	ID             string `json:"id"`
	ConversationID string `json:"conversation_id"`
	SenderID       string `json:"sender_id"`
	Timestamp      int64  `json:"timestamp"` // seconds since epoch
	Type           string `json:"type"`
	Text           string `json:"text,omitempty"`
}

// EventKind is the payload of a stored event. MessageKind is the only
// variant today.
type EventKind interface {
	kindName() string
}

// MessageKind is a plain text message
type MessageKind struct {
	Text string `json:"text"`
}

func (MessageKind) kindName() string { return RawEventMessage }

// KindName returns the tag of an event kind, e.g. "message".
func KindName(k EventKind) string {
	if k == nil {
		return ""
	}
	return k.kindName()
}

// Event is a single aggregated timeline entry
type Event struct {
	ID        string    `json:"id"`
	Timestamp int64     `json:"timestamp"`
	Kind      EventKind `json:"kind"`
}

// Time returns the event timestamp as a time.Time
func (e Event) Time() time.Time {
	return time.Unix(e.Timestamp, 0)
}

// Text returns the message text, or "" for non-message kinds.
func (e Event) Text() string {
	if m, ok := e.Kind.(MessageKind); ok {
		return m.Text
	}
	return ""
}

// EventGroup is a run of consecutive events from one sender
type EventGroup struct {
	SenderID    string  `json:"sender_id"`
	DisplayName string  `json:"display_name"`
	Avatar      []byte  `json:"avatar,omitempty"`
	IsSelf      bool    `json:"is_self"`
	Events      []Event `json:"events"`
}

// First returns the oldest event of the group.
func (g EventGroup) First() Event {
	return g.Events[0]
}

// Last returns the newest event of the group.
func (g EventGroup) Last() Event {
	return g.Events[len(g.Events)-1]
}

// clone returns a deep copy so published snapshots never share backing arrays
// with the live timeline.
func (g EventGroup) clone() EventGroup {
	out := g
	if g.Avatar != nil {
		out.Avatar = append([]byte(nil), g.Avatar...)
	}
	out.Events = append([]Event(nil), g.Events...)
	return out
}

// SenderProfile is the display information of a conversation member
type SenderProfile struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Avatar      []byte `json:"avatar,omitempty"`
}

// ConversationSummary describes one conversation of an account
type ConversationSummary struct {
	ID     string  `json:"id" yaml:"id"`
	Name   *string `json:"name,omitempty" yaml:"name,omitempty"`
	Avatar []byte  `json:"avatar,omitempty" yaml:"-"`
}

// DisplayName returns the conversation name, or a placeholder.
func (c ConversationSummary) DisplayName() string {
	if c.Name == nil || *c.Name == "" {
		return "Unnamed Chat"
	}
	return *c.Name
}

// CountEvents returns the number of events across groups.
func CountEvents(groups []EventGroup) int {
	n := 0
	for _, g := range groups {
		n += len(g.Events)
	}
	return n
}
