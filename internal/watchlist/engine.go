package watchlist

import "time"

// ReminderKind is the reminder class that fired for an entry.
type ReminderKind int

const (
	TwentyFourHour ReminderKind = iota
	OneHour
)

func (k ReminderKind) String() string {
	switch k {
	case TwentyFourHour:
		return "24h"
	case OneHour:
		return "1h"
	default:
		return "unknown"
	}
}

// Reminder pairs an entry with the reminder class that fired for it.
// Entry is the post-transition state (flag already set).
type Reminder struct {
	Entry Entry
	Kind  ReminderKind
}

// Reminder windows. Each is widened past the nominal 24h/1h mark so a
// reminder still fires when the trigger tick is late or a tick was skipped
// entirely. The cost is imprecise timing; the gain is that each class fires
// at least once while the event is still in the future.
const (
	window24hUpper = 25 * time.Hour
	window24hLower = 1 * time.Hour
	window1hUpper  = 2 * time.Hour

	// purgeAfter drops entries whose event started this long ago.
	purgeAfter = 24 * time.Hour
)

// Evaluate runs one reminder pass over the watchlist snapshot at the given
// instant. It returns the next persisted state and the reminders to send, in
// input order. Entries are independent; no outcome depends on another entry.
//
// Evaluate is pure: it never reads the clock, touches storage, or fails.
// Callers own persisting next and dispatching reminders.
func Evaluate(entries []Entry, now time.Time) (next []Entry, reminders []Reminder) {
	next = make([]Entry, 0, len(entries))

	for _, e := range entries {
		until := e.Start.Sub(now)

		if !e.Reminded24h && until > window24hLower && until <= window24hUpper {
			e.Reminded24h = true
			reminders = append(reminders, Reminder{Entry: e, Kind: TwentyFourHour})
		}
		// Independent of the 24h class; a short-notice entry can fire both
		// in the same pass.
		if !e.Reminded1h && until > 0 && until <= window1hUpper {
			e.Reminded1h = true
			reminders = append(reminders, Reminder{Entry: e, Kind: OneHour})
		}

		// Purge after flag updates, independent of reminder state.
		if !e.Start.After(now.Add(-purgeAfter)) {
			continue
		}
		next = append(next, e)
	}
	return next, reminders
}

// Changed reports whether an Evaluate pass altered the watchlist: a flag
// flipped or an entry was purged. Callers skip the store write when nothing
// changed.
func Changed(before, after []Entry) bool {
	if len(before) != len(after) {
		return true
	}
	for i := range before {
		if before[i].Reminded24h != after[i].Reminded24h || before[i].Reminded1h != after[i].Reminded1h {
			return true
		}
	}
	return false
}
