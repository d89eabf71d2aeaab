package ctftime

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	logx "ctfnotice/pkg/logx"
)

func TestFetchUpcomingQuery(t *testing.T) {
	t.Parallel()
	now := time.Unix(1_700_000_000, 0)

	var gotUA string
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotQuery = map[string]string{
			"limit":  r.URL.Query().Get("limit"),
			"start":  r.URL.Query().Get("start"),
			"finish": r.URL.Query().Get("finish"),
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"id": 101, "title": "Example CTF", "start": "2026-03-14T09:00:00+00:00",
			 "finish": "2026-03-16T09:00:00+00:00", "duration": {"hours": 0, "days": 2},
			 "format": "Jeopardy", "weight": 24.5, "restrictions": "Open",
			 "organizers": [{"id": 1, "name": "team"}], "ctftime_url": "https://ctftime.org/event/101/"}
		]`))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, RatePerSec: 100}, logx.Nop())
	events, err := c.FetchUpcoming(context.Background(), now, 7, 0)
	if err != nil {
		t.Fatalf("FetchUpcoming: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if events[0].ID != 101 || events[0].Title != "Example CTF" {
		t.Fatalf("unexpected event: %+v", events[0])
	}
	if !events[0].Start.Equal(time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected start: %v", events[0].Start)
	}

	if gotUA != DefaultUserAgent {
		t.Fatalf("User-Agent = %q, want %q", gotUA, DefaultUserAgent)
	}
	if gotQuery["limit"] != "100" {
		t.Fatalf("limit = %q, want 100", gotQuery["limit"])
	}
	if gotQuery["start"] != "1700000000" {
		t.Fatalf("start = %q", gotQuery["start"])
	}
	if gotQuery["finish"] != "1700604800" { // start + 7*86400
		t.Fatalf("finish = %q", gotQuery["finish"])
	}
}

func TestFetchEventNotFound(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, RatePerSec: 100}, logx.Nop())
	_, err := c.FetchEvent(context.Background(), 99999)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestFetchEventFound(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/events/101/" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"id": 101, "title": "Example CTF", "start": "2026-03-14T09:00:00+00:00", "finish": "2026-03-16T09:00:00+00:00"}`))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, RatePerSec: 100}, logx.Nop())
	ev, err := c.FetchEvent(context.Background(), 101)
	if err != nil {
		t.Fatalf("FetchEvent: %v", err)
	}
	if ev.ID != 101 {
		t.Fatalf("ID = %d, want 101", ev.ID)
	}
}

func TestParseEventRef(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		id   int64
		ok   bool
		name string
	}{
		{name: "numeric", in: "12345", id: 12345, ok: true},
		{name: "url", in: "https://ctftime.org/event/12345", id: 12345, ok: true},
		{name: "url with path", in: "https://ctftime.org/event/12345/tasks/", id: 12345, ok: true},
		{name: "garbage", in: "soon", ok: false},
		{name: "negative", in: "-3", ok: false},
		{name: "custom id", in: "custom-abc", ok: false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			id, ok := ParseEventRef(tt.in)
			if ok != tt.ok || (ok && id != tt.id) {
				t.Fatalf("ParseEventRef(%q) = (%d, %v), want (%d, %v)", tt.in, id, ok, tt.id, tt.ok)
			}
		})
	}
}
