// Package render formats events and watchlist entries as Slack mrkdwn.
// All timestamps are displayed in JST.
package render

import (
	"fmt"
	"strings"
	"time"

	"ctfnotice/internal/ctftime"
	"ctfnotice/internal/watchlist"
)

// JST is the display zone. A fixed offset, not the IANA zone, so rendering
// does not depend on the host tzdata.
var JST = time.FixedZone("JST", 9*60*60)

// Date renders an instant the way the original bot did: "2026/03/15 10:00".
func Date(t time.Time) string {
	return t.In(JST).Format("2006/01/02 15:04")
}

// CatalogEvent renders a full catalog event block.
func CatalogEvent(ev *ctftime.Event) string {
	lines := []string{
		fmt.Sprintf("*<%s|%s>*", ev.CTFTimeURL, ev.Title),
		fmt.Sprintf("📅 %s 〜 %s", Date(ev.Start), Date(ev.Finish)),
		"⏱️ " + durationText(ev.Duration),
		fmt.Sprintf("🏷️ %s | Weight: %.2f", ev.Format, ev.Weight),
	}
	if ev.Restrictions != "" && ev.Restrictions != "Open" {
		lines = append(lines, "🔒 "+ev.Restrictions)
	}
	if len(ev.Organizers) > 0 {
		names := make([]string, len(ev.Organizers))
		for i, o := range ev.Organizers {
			names[i] = o.Name
		}
		lines = append(lines, "👥 "+strings.Join(names, ", "))
	}
	if ev.URL != "" {
		lines = append(lines, fmt.Sprintf("🔗 <%s|公式サイト>", ev.URL))
	}
	return strings.Join(lines, "\n")
}

// CustomEntry renders a manually added entry from its stored fields.
func CustomEntry(e watchlist.Entry) string {
	lines := []string{
		fmt.Sprintf("*%s* 🔖", e.Title),
		"📅 " + Date(e.Start),
	}
	if e.URL != "" {
		lines = append(lines, fmt.Sprintf("🔗 <%s|リンク>", e.URL))
	}
	if e.Description != "" {
		lines = append(lines, "📝 "+e.Description)
	}
	return strings.Join(lines, "\n")
}

// EntryFallback is the minimal reminder body used when the live catalog
// lookup for an entry fails.
func EntryFallback(e watchlist.Entry) string {
	return "📅 " + Date(e.Start)
}

func durationText(d ctftime.Duration) string {
	if d.Days > 0 {
		return fmt.Sprintf("%d日 %d時間", d.Days, d.Hours%24)
	}
	return fmt.Sprintf("%d時間", d.Hours)
}

// Status classifies an entry at render time, purely from time-until-start.
type Status int

const (
	StatusPast Status = iota
	StatusImminent
	StatusScheduled
)

// StatusOf derives the list annotation for an entry. Independent of the
// reminder flags.
func StatusOf(start, now time.Time) Status {
	until := start.Sub(now)
	switch {
	case until < 0:
		return StatusPast
	case until < 24*time.Hour:
		return StatusImminent
	default:
		return StatusScheduled
	}
}

func (s Status) Emoji() string {
	switch s {
	case StatusPast:
		return "🔴 終了"
	case StatusImminent:
		return "🟡 まもなく"
	default:
		return "🟢"
	}
}
