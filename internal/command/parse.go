package command

import (
	"regexp"
	"strings"
	"time"

	"ctfnotice/internal/render"
)

var (
	datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	timePattern = regexp.MustCompile(`^\d{2}:\d{2}$`)
)

// parseDateTime accepts the start-time formats users type into `add`:
//
//	2026-03-15T10:00        (naive, read as JST)
//	2026-03-15T10:00:00     (naive, read as JST)
//	2026-03-15 10:00        (naive, read as JST)
//	2026-03-15T10:00:00+09:00  (explicit zone, respected)
//
// Naive inputs are interpreted in UTC+9; both naive spellings of the same
// instant parse to the same UTC time.
func parseDateTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), true
	}
	for _, layout := range []string{"2006-01-02T15:04:05", "2006-01-02T15:04", "2006-01-02 15:04"} {
		if t, err := time.ParseInLocation(layout, s, render.JST); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// splitAddArgs carves `add` arguments into the datetime string and the title.
// Slack strips quoting, so a date+time pair arrives as two tokens.
func splitAddArgs(args []string) (dateTime, title string, ok bool) {
	if len(args) == 0 {
		return "", "", false
	}
	switch {
	case strings.Contains(args[0], "T"):
		return args[0], strings.Join(args[1:], " "), true
	case datePattern.MatchString(args[0]) && len(args) > 1 && timePattern.MatchString(args[1]):
		return args[0] + " " + args[1], strings.Join(args[2:], " "), true
	default:
		return "", "", false
	}
}
