// Package watchlist holds the persisted watchlist model and the reminder
// decision engine.
package watchlist

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	uuid "github.com/odeke-em/go-uuid"
)

// EventID identifies a watched event. Catalog events carry the upstream
// numeric id; manually added events carry a generated "custom-" string id.
// The two variants share one type so the persisted document keeps the
// upstream shape (a JSON number or a JSON string).
type EventID struct {
	catalog int64
	custom  string
}

func CatalogID(id int64) EventID { return EventID{catalog: id} }
func CustomID(id string) EventID { return EventID{custom: id} }

// NewCustomID generates a fresh synthetic id for a manually added event.
func NewCustomID() EventID {
	return EventID{custom: "custom-" + uuid.New()}
}

func (id EventID) IsCustom() bool { return id.custom != "" }

// Catalog returns the numeric catalog id, or false for custom entries.
func (id EventID) Catalog() (int64, bool) {
	if id.IsCustom() {
		return 0, false
	}
	return id.catalog, true
}

func (id EventID) String() string {
	if id.IsCustom() {
		return id.custom
	}
	return strconv.FormatInt(id.catalog, 10)
}

func (id EventID) IsZero() bool { return id.catalog == 0 && id.custom == "" }

func (id EventID) Equal(other EventID) bool {
	return id.catalog == other.catalog && id.custom == other.custom
}

func (id EventID) MarshalJSON() ([]byte, error) {
	if id.IsCustom() {
		return json.Marshal(id.custom)
	}
	return json.Marshal(id.catalog)
}

func (id *EventID) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if strings.HasPrefix(s, `"`) {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*id = EventID{custom: v}
		return nil
	}
	var n int64
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("event id must be a number or string: %w", err)
	}
	*id = EventID{catalog: n}
	return nil
}

// Entry is one watched event.
//
// Reminded24h and Reminded1h are monotone: once true they never go back to
// false for the life of the entry, and the matching reminder class must not
// fire again. JSON field names match the document format the original bot
// wrote, so existing state files keep working.
type Entry struct {
	ID          EventID    `json:"eventId"`
	Title       string     `json:"title"`
	Start       time.Time  `json:"start"`
	Finish      *time.Time `json:"finish,omitempty"`
	URL         string     `json:"url,omitempty"`
	Description string     `json:"description,omitempty"`
	IsCustom    bool       `json:"isCustom,omitempty"`
	Reminded24h bool       `json:"reminded24h"`
	Reminded1h  bool       `json:"reminded1h"`
	AddedAt     time.Time  `json:"addedAt"`
}

// Decode parses the persisted watchlist document. An empty or missing
// document is an empty list.
func Decode(data []byte) ([]Entry, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("watchlist document: %w", err)
	}
	return entries, nil
}

// Encode renders the watchlist document.
func Encode(entries []Entry) ([]byte, error) {
	if entries == nil {
		entries = []Entry{}
	}
	return json.Marshal(entries)
}
