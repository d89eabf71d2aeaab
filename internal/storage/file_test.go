package storage

import (
	"context"
	"testing"

	logx "ctfnotice/pkg/logx"
)

func TestFileStoreRoundTrip(t *testing.T) {
	t.Parallel()
	st, err := Open(Config{Driver: "file", Path: t.TempDir()}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer st.Close()

	ctx := context.Background()

	if _, ok, err := st.Get(ctx, "watchlist"); err != nil || ok {
		t.Fatalf("Get on missing key = (ok=%v, err=%v), want (false, nil)", ok, err)
	}

	doc := []byte(`[{"eventId":1}]`)
	if err := st.Put(ctx, "watchlist", doc); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, ok, err := st.Get(ctx, "watchlist")
	if err != nil || !ok {
		t.Fatalf("Get = (ok=%v, err=%v), want (true, nil)", ok, err)
	}
	if string(got) != string(doc) {
		t.Fatalf("Get = %s, want %s", got, doc)
	}

	// Overwrite wins.
	if err := st.Put(ctx, "watchlist", []byte(`[]`)); err != nil {
		t.Fatalf("Put overwrite: %v", err)
	}
	got, _, _ = st.Get(ctx, "watchlist")
	if string(got) != `[]` {
		t.Fatalf("after overwrite Get = %s, want []", got)
	}
}

func TestFileStoreRejectsBadKey(t *testing.T) {
	t.Parallel()
	st, err := Open(Config{Driver: "file", Path: t.TempDir()}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer st.Close()

	if err := st.Put(context.Background(), "../escape", nil); err == nil {
		t.Fatal("expected error for path-escaping key")
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	t.Parallel()
	if _, err := Open(Config{Driver: "redis"}, logx.Nop()); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}
