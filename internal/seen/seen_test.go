package seen

import (
	"context"
	"testing"
	"time"

	"ctfnotice/internal/storage"

	logx "ctfnotice/pkg/logx"
)

func TestDiff(t *testing.T) {
	t.Parallel()
	set := Set{}
	set.Add(2, 3)

	got := Diff([]int64{1, 2, 3}, set)
	if len(got) != 1 || got[0] != 1 {
		t.Fatalf("Diff = %v, want [1]", got)
	}

	// Idempotent for unchanged inputs.
	again := Diff([]int64{1, 2, 3}, set)
	if len(again) != 1 || again[0] != 1 {
		t.Fatalf("second Diff = %v, want [1]", again)
	}

	// After union, nothing is new.
	set.Add(got...)
	if got := Diff([]int64{1, 2, 3}, set); len(got) != 0 {
		t.Fatalf("Diff after union = %v, want empty", got)
	}
}

func TestDiffPreservesFetchOrder(t *testing.T) {
	t.Parallel()
	got := Diff([]int64{9, 4, 7}, Set{})
	if len(got) != 3 || got[0] != 9 || got[1] != 4 || got[2] != 7 {
		t.Fatalf("Diff = %v, want [9 4 7]", got)
	}
}

func TestStoreRoundTrip(t *testing.T) {
	t.Parallel()
	kv, err := storage.Open(storage.Config{Driver: "file", Path: t.TempDir()}, logx.Nop())
	if err != nil {
		t.Fatalf("storage.Open: %v", err)
	}
	defer kv.Close()

	ctx := context.Background()
	st := NewStore(kv)

	set, err := st.Load(ctx)
	if err != nil {
		t.Fatalf("Load on empty store: %v", err)
	}
	if len(set) != 0 {
		t.Fatalf("expected empty set, got %v", set)
	}

	set.Add(5, 3, 8)
	if err := st.Save(ctx, set, time.Now()); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := st.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	for _, id := range []int64{3, 5, 8} {
		if !got.Has(id) {
			t.Fatalf("id %d lost on round trip", id)
		}
	}
	if got.Has(4) {
		t.Fatal("phantom id in set")
	}
}
