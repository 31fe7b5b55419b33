package internal

// publishLocked stores a fresh snapshot of the aggregator for readers.
// mu must be held (or the client not yet shared).
func (c *Client) publishLocked() {
	snap := c.aggregator.Snapshot()
	c.timeline.Store(&snap)
}

// Timeline returns the latest published snapshot of the selected
// conversation, oldest group first. It never blocks on a sync or a history
// fetch. The returned slice is shared with other readers and must not be
// modified.
func (c *Client) Timeline() []EventGroup {
	if p := c.timeline.Load(); p != nil {
		return *p
	}
	return nil
}

// TimelineStats summarizes a timeline snapshot
type TimelineStats struct {
	Groups int
	Events int
	Self   int // events sent by the account itself
	Oldest int64
	Newest int64
}

// StatsOf computes stats for a snapshot
func StatsOf(groups []EventGroup) TimelineStats {
	st := TimelineStats{Groups: len(groups)}
	for _, g := range groups {
		st.Events += len(g.Events)
		if g.IsSelf {
			st.Self += len(g.Events)
		}
	}
	if len(groups) > 0 {
		st.Oldest = groups[0].First().Timestamp
		st.Newest = groups[len(groups)-1].Last().Timestamp
	}
	return st
}
