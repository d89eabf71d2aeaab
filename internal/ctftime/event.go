package ctftime

import (
	"regexp"
	"strconv"
	"time"
)

// Event mirrors the catalog's event object.
//
// Start/Finish arrive as ISO-8601 strings with a zone offset, which the
// stdlib JSON decoder parses directly into time.Time.
type Event struct {
	ID         int64     `json:"id"`
	Title      string    `json:"title"`
	URL        string    `json:"url"`
	CTFTimeURL string    `json:"ctftime_url"`
	Start      time.Time `json:"start"`
	Finish     time.Time `json:"finish"`
	Duration   Duration  `json:"duration"`
	Format     string    `json:"format"`
	FormatID   int       `json:"format_id"`
	Location   string    `json:"location"`
	Weight     float64   `json:"weight"`
	Onsite     bool      `json:"onsite"`
	// Restrictions is e.g. "Open", "Academic", "High-school".
	Restrictions string      `json:"restrictions"`
	Organizers   []Organizer `json:"organizers"`
	Logo         string      `json:"logo"`
	CTFID        int64       `json:"ctf_id"`
}

type Duration struct {
	Hours int `json:"hours"`
	Days  int `json:"days"`
}

type Organizer struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

var eventURLPattern = regexp.MustCompile(`ctftime\.org/event/(\d+)`)

// ParseEventRef resolves user input to a catalog event id. It accepts either
// a bare numeric id or an event page URL embedding one.
func ParseEventRef(input string) (int64, bool) {
	if m := eventURLPattern.FindStringSubmatch(input); m != nil {
		id, err := strconv.ParseInt(m[1], 10, 64)
		return id, err == nil
	}
	id, err := strconv.ParseInt(input, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
