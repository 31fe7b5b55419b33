package internal

// MergeMode selects where a folded batch lands in the timeline
type MergeMode int

const (
	// Append adds new real-time events after the newest group.
	Append MergeMode = iota
	// Prepend adds older paged-in history before the oldest group.
	Prepend
)

func (m MergeMode) String() string {
	switch m {
	case Append:
		return "append"
	case Prepend:
		return "prepend"
	default:
		return "unknown"
	}
}

// ProfileLookup returns the resolved profile of a sender, if any
type ProfileLookup func(senderID string) (SenderProfile, bool)

// FoldResult summarizes one Fold call
type FoldResult struct {
	Accepted    int // events added to the timeline
	Duplicates  int // events whose id was already processed
	Unsupported int // events of an unknown kind (id still recorded)
	NewGroups   int
}

// Aggregator folds raw provider events into sender groups. It is not safe
// for concurrent use; Client serializes access to it.
type Aggregator struct {
	accountID string
	groups    []EventGroup
	seen      map[string]struct{}
}

// NewAggregator creates an empty aggregator for the given account
func NewAggregator(accountID string) *Aggregator {
	return &Aggregator{
		accountID: accountID,
		seen:      make(map[string]struct{}),
	}
}

// Fold merges a batch into the timeline. The batch is expected newest first,
// as providers deliver it; events are processed oldest first so groups read
// in natural order. Never blocks.
func (a *Aggregator) Fold(batch []RawEvent, mode MergeMode, profiles ProfileLookup) FoldResult {
	var res FoldResult
	var built []EventGroup

	for i := len(batch) - 1; i >= 0; i-- {
		raw := batch[i]

		// Record the id before the kind check so an unsupported event is not
		// reconsidered on the next overlapping window.
		if _, dup := a.seen[raw.ID]; dup {
			res.Duplicates++
			continue
		}
		a.seen[raw.ID] = struct{}{}

		kind, ok := eventKindOf(raw)
		if !ok {
			LogDebug("Dropping unsupported event %s of type %q", raw.ID, raw.Type)
			res.Unsupported++
			continue
		}
		ev := Event{ID: raw.ID, Timestamp: raw.Timestamp, Kind: kind}
		res.Accepted++

		if n := len(built); n > 0 {
			if built[n-1].SenderID == raw.SenderID {
				built[n-1].Events = append(built[n-1].Events, ev)
				continue
			}
		} else if mode == Append {
			if n := len(a.groups); n > 0 && a.groups[n-1].SenderID == raw.SenderID {
				a.groups[n-1].Events = append(a.groups[n-1].Events, ev)
				continue
			}
		}

		built = append(built, a.newGroup(raw, ev, profiles))
	}

	res.NewGroups = len(built)
	if len(built) == 0 {
		return res
	}

	switch mode {
	case Prepend:
		a.groups = append(built, a.groups...)
	default:
		a.groups = append(a.groups, built...)
	}
	return res
}

func (a *Aggregator) newGroup(raw RawEvent, ev Event, profiles ProfileLookup) EventGroup {
	g := EventGroup{
		SenderID:    raw.SenderID,
		DisplayName: raw.SenderID,
		IsSelf:      raw.SenderID == a.accountID,
		Events:      []Event{ev},
	}
	if profiles != nil {
		if p, ok := profiles(raw.SenderID); ok {
			if p.DisplayName != "" {
				g.DisplayName = p.DisplayName
			}
			g.Avatar = p.Avatar
		}
	}
	return g
}

func eventKindOf(raw RawEvent) (EventKind, bool) {
	switch raw.Type {
	case RawEventMessage:
		return MessageKind{Text: raw.Text}, true
	default:
		return nil, false
	}
}

// SeenCount returns the size of the dedup set
func (a *Aggregator) SeenCount() int {
	return len(a.seen)
}

// Len returns the number of groups
func (a *Aggregator) Len() int {
	return len(a.groups)
}

// Remove deletes an event from the timeline, dropping its group if it
// becomes empty. The id stays in the dedup set so an overlapping sync does
// not bring it back. Adjacent groups are not re-merged.
func (a *Aggregator) Remove(eventID string) bool {
	for gi := range a.groups {
		events := a.groups[gi].Events
		for ei := range events {
			if events[ei].ID != eventID {
				continue
			}
			a.groups[gi].Events = append(events[:ei:ei], events[ei+1:]...)
			if len(a.groups[gi].Events) == 0 {
				a.groups = append(a.groups[:gi:gi], a.groups[gi+1:]...)
			}
			a.seen[eventID] = struct{}{}
			return true
		}
	}
	return false
}

// Reset clears the timeline and the dedup set
func (a *Aggregator) Reset() {
	a.groups = nil
	a.seen = make(map[string]struct{})
}

// Snapshot returns a deep copy of the groups
func (a *Aggregator) Snapshot() []EventGroup {
	out := make([]EventGroup, len(a.groups))
	for i, g := range a.groups {
		out[i] = g.clone()
	}
	return out
}
