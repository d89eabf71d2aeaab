package command

import (
	"testing"
	"time"
)

func TestParseDateTime(t *testing.T) {
	t.Parallel()
	wantJST := time.Date(2026, 3, 15, 1, 0, 0, 0, time.UTC) // 10:00 JST
	tests := []struct {
		name string
		in   string
		want time.Time
		ok   bool
	}{
		{name: "iso no zone", in: "2026-03-15T10:00", want: wantJST, ok: true},
		{name: "iso seconds no zone", in: "2026-03-15T10:00:00", want: wantJST, ok: true},
		{name: "date time pair", in: "2026-03-15 10:00", want: wantJST, ok: true},
		{name: "explicit zone", in: "2026-03-15T10:00:00+09:00", want: wantJST, ok: true},
		{name: "explicit utc", in: "2026-03-15T01:00:00Z", want: wantJST, ok: true},
		{name: "garbage", in: "next tuesday", ok: false},
		{name: "impossible date", in: "2026-13-45T99:99", ok: false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseDateTime(tt.in)
			if ok != tt.ok {
				t.Fatalf("parseDateTime(%q) ok = %v, want %v", tt.in, ok, tt.ok)
			}
			if ok && !got.Equal(tt.want) {
				t.Fatalf("parseDateTime(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestSplitAddArgs(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		args     []string
		dateTime string
		title    string
		ok       bool
	}{
		{name: "iso token", args: []string{"2026-03-15T10:00", "My", "Event"}, dateTime: "2026-03-15T10:00", title: "My Event", ok: true},
		{name: "split pair", args: []string{"2026-03-15", "10:00", "My", "Event"}, dateTime: "2026-03-15 10:00", title: "My Event", ok: true},
		{name: "date without time", args: []string{"2026-03-15", "Party"}, ok: false},
		{name: "empty", args: nil, ok: false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			dt, title, ok := splitAddArgs(tt.args)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if ok && (dt != tt.dateTime || title != tt.title) {
				t.Fatalf("got (%q, %q), want (%q, %q)", dt, title, tt.dateTime, tt.title)
			}
		})
	}
}
