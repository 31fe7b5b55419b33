package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/iksnae/chat-timeline/internal"
)

// now is replaced in tests
var now = time.Now

// formatRelative formats t the way the list views show dates: time of day
// for today, weekday within a week, month and day within a year.
func formatRelative(t time.Time) string {
	diff := now().Sub(t)
	switch {
	case diff < 24*time.Hour:
		return t.Format("Today 15:04")
	case diff < 7*24*time.Hour:
		return t.Format("Mon 15:04")
	case diff < 365*24*time.Hour:
		return t.Format("Jan 02 15:04")
	default:
		return t.Format("2006-01-02")
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

func renderConversations(out io.Writer, key string, list []internal.ConversationSummary, refreshed time.Time) error {
	if len(list) == 0 {
		_, _ = fmt.Fprintln(out, headerStyle.Render("No conversations for "+key))
		return nil
	}

	header := fmt.Sprintf("%s: %d conversation(s)", key, len(list))
	_, _ = fmt.Fprintln(out, headerStyle.Render(header))
	if !refreshed.IsZero() {
		_, _ = fmt.Fprintln(out, dateStyle.Render("refreshed "+formatRelative(refreshed)))
	}
	_, _ = fmt.Fprintln(out)

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	_, _ = fmt.Fprintln(w, titleStyle.Render("ID")+"\t"+titleStyle.Render("Name")+"\t")
	_, _ = fmt.Fprintln(w, strings.Repeat("─", 60))
	for _, c := range list {
		_, _ = fmt.Fprintf(w, "%s\t%s\t\n", idStyle.Render(c.ID), truncate(c.DisplayName(), 50))
	}
	return w.Flush()
}

func renderTimeline(out io.Writer, conv internal.ConversationSummary, groups []internal.EventGroup, exhausted bool) {
	_, _ = fmt.Fprintln(out, headerStyle.Render(conv.DisplayName()))

	st := internal.StatsOf(groups)
	meta := fmt.Sprintf("%s · %d message(s) in %d group(s)", conv.ID, st.Events, st.Groups)
	if st.Events > 0 {
		meta += fmt.Sprintf(" · %s to %s",
			time.Unix(st.Oldest, 0).Format("2006-01-02 15:04"),
			time.Unix(st.Newest, 0).Format("2006-01-02 15:04"))
	}
	_, _ = fmt.Fprintln(out, dateStyle.Render(meta))
	_, _ = fmt.Fprintln(out)

	if exhausted {
		_, _ = fmt.Fprintln(out, idStyle.Render("(beginning of conversation)"))
		_, _ = fmt.Fprintln(out)
	}

	for _, g := range groups {
		style := senderStyle
		if g.IsSelf {
			style = selfStyle
		}
		_, _ = fmt.Fprintf(out, "%s %s\n", style.Render(g.DisplayName),
			timestampStyle.Render(g.First().Time().Format("15:04")))
		for _, ev := range g.Events {
			_, _ = fmt.Fprintln(out, messageContentStyle.Render(ev.Text()))
		}
		_, _ = fmt.Fprintln(out)
	}
}
