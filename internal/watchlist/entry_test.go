package watchlist

import (
	"strings"
	"testing"
	"time"
)

func TestEventIDVariants(t *testing.T) {
	t.Parallel()
	cat := CatalogID(12345)
	if cat.IsCustom() {
		t.Fatal("catalog id reported custom")
	}
	if n, ok := cat.Catalog(); !ok || n != 12345 {
		t.Fatalf("Catalog() = (%d, %v)", n, ok)
	}
	if cat.String() != "12345" {
		t.Fatalf("String() = %q", cat.String())
	}

	cus := NewCustomID()
	if !cus.IsCustom() {
		t.Fatal("custom id not reported custom")
	}
	if !strings.HasPrefix(cus.String(), "custom-") {
		t.Fatalf("custom id %q lacks prefix", cus.String())
	}
	if _, ok := cus.Catalog(); ok {
		t.Fatal("custom id must not expose a catalog id")
	}
	if cus.Equal(NewCustomID()) {
		t.Fatal("two generated ids collided")
	}
}

func TestDocumentRoundTrip(t *testing.T) {
	t.Parallel()
	start := time.Date(2026, 3, 15, 1, 0, 0, 0, time.UTC)
	entries := []Entry{
		{ID: CatalogID(101), Title: "Example CTF", Start: start, AddedAt: start.Add(-48 * time.Hour)},
		{ID: CustomID("custom-abc"), Title: "社内CTF", Start: start, IsCustom: true, Reminded24h: true},
	}

	data, err := Encode(entries)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	// The document must keep the upstream shape: numbers for catalog ids,
	// strings for custom ids.
	s := string(data)
	if !strings.Contains(s, `"eventId":101`) {
		t.Fatalf("catalog id not encoded as number: %s", s)
	}
	if !strings.Contains(s, `"eventId":"custom-abc"`) {
		t.Fatalf("custom id not encoded as string: %s", s)
	}

	got, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d entries", len(got))
	}
	if !got[0].ID.Equal(CatalogID(101)) || got[0].ID.IsCustom() {
		t.Fatalf("entry 0 id wrong: %+v", got[0].ID)
	}
	if !got[1].ID.Equal(CustomID("custom-abc")) || !got[1].ID.IsCustom() {
		t.Fatalf("entry 1 id wrong: %+v", got[1].ID)
	}
	if !got[1].Reminded24h || got[1].Reminded1h {
		t.Fatalf("flags lost: %+v", got[1])
	}
}

func TestDecodeLegacyDocument(t *testing.T) {
	t.Parallel()
	// A document as the original bot wrote it.
	doc := `[{"eventId":2545,"title":"Example","start":"2026-03-14T09:00:00.000Z",
		"reminded24h":false,"reminded1h":false,"addedAt":"2026-03-01T00:00:00.000Z"}]`
	got, err := Decode([]byte(doc))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(got) != 1 || got[0].Title != "Example" {
		t.Fatalf("unexpected entries: %+v", got)
	}
	if got[0].Start.IsZero() {
		t.Fatal("start not parsed")
	}
}

func TestDecodeEmpty(t *testing.T) {
	t.Parallel()
	got, err := Decode(nil)
	if err != nil || got != nil {
		t.Fatalf("Decode(nil) = (%v, %v)", got, err)
	}
	if _, err := Decode([]byte(`{"not":"a list"}`)); err == nil {
		t.Fatal("expected error for non-array document")
	}
}
