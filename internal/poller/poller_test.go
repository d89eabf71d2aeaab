package poller

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"ctfnotice/internal/ctftime"
	"ctfnotice/internal/seen"
	"ctfnotice/internal/slack"
	"ctfnotice/internal/storage"

	logx "ctfnotice/pkg/logx"
)

type fakeCatalog struct {
	events []ctftime.Event
	err    error
}

func (f *fakeCatalog) FetchUpcoming(_ context.Context, _ time.Time, _, _ int) ([]ctftime.Event, error) {
	return f.events, f.err
}

type fakeSender struct {
	sent []slack.Message
	fail bool
}

func (f *fakeSender) Send(_ context.Context, msg slack.Message) error {
	if f.fail {
		return errors.New("webhook unreachable")
	}
	f.sent = append(f.sent, msg)
	return nil
}

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newService(t *testing.T, catalog *fakeCatalog, sender *fakeSender) (*Service, *seen.Store) {
	t.Helper()
	kv, err := storage.Open(storage.Config{Driver: "file", Path: t.TempDir()}, logx.Nop())
	if err != nil {
		t.Fatalf("storage.Open: %v", err)
	}
	t.Cleanup(func() { _ = kv.Close() })
	store := seen.NewStore(kv)
	return New(catalog, store, sender, 30, logx.Nop()), store
}

func events(ids ...int64) []ctftime.Event {
	out := make([]ctftime.Event, 0, len(ids))
	for _, id := range ids {
		out = append(out, ctftime.Event{
			ID:     id,
			Title:  "CTF " + string(rune('A'+id)),
			Start:  now.Add(72 * time.Hour),
			Finish: now.Add(96 * time.Hour),
		})
	}
	return out
}

func TestRunAnnouncesOnlyNew(t *testing.T) {
	t.Parallel()
	catalog := &fakeCatalog{events: events(1, 2, 3)}
	sender := &fakeSender{}
	svc, store := newService(t, catalog, sender)

	// Pre-seed 2 and 3 as already announced.
	set := seen.Set{}
	set.Add(2, 3)
	if err := store.Save(context.Background(), set, now.Add(-time.Hour)); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if err := svc.Run(context.Background(), now); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("sent %d messages, want 1 batched message", len(sender.sent))
	}
	msg := sender.sent[0]
	if !strings.Contains(msg.Text, "1件") {
		t.Fatalf("unexpected fallback text: %s", msg.Text)
	}
	// header + one divider+section pair + context footer.
	if len(msg.Blocks) != 4 {
		t.Fatalf("got %d blocks, want 4", len(msg.Blocks))
	}

	got, _ := store.Load(context.Background())
	for _, id := range []int64{1, 2, 3} {
		if !got.Has(id) {
			t.Fatalf("id %d missing after union", id)
		}
	}
}

func TestRunSecondPassIsSilent(t *testing.T) {
	t.Parallel()
	catalog := &fakeCatalog{events: events(1, 2)}
	sender := &fakeSender{}
	svc, _ := newService(t, catalog, sender)

	if err := svc.Run(context.Background(), now); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	if err := svc.Run(context.Background(), now.Add(time.Hour)); err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("sent %d messages, want 1 (no repeat announcements)", len(sender.sent))
	}
}

func TestRunSendFailureKeepsIDsUnseen(t *testing.T) {
	t.Parallel()
	catalog := &fakeCatalog{events: events(1)}
	sender := &fakeSender{fail: true}
	svc, store := newService(t, catalog, sender)

	if err := svc.Run(context.Background(), now); err == nil {
		t.Fatal("expected error when send fails")
	}
	// Not persisted: the next run retries the same announcement.
	set, _ := store.Load(context.Background())
	if set.Has(1) {
		t.Fatal("id marked seen despite failed announcement")
	}

	sender.fail = false
	if err := svc.Run(context.Background(), now.Add(time.Hour)); err != nil {
		t.Fatalf("retry Run: %v", err)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("retry did not announce")
	}
}

func TestRunFetchFailureLeavesStateAlone(t *testing.T) {
	t.Parallel()
	catalog := &fakeCatalog{err: errors.New("api down")}
	sender := &fakeSender{}
	svc, store := newService(t, catalog, sender)

	if err := svc.Run(context.Background(), now); err == nil {
		t.Fatal("expected error when fetch fails")
	}
	if len(sender.sent) != 0 {
		t.Fatal("sent messages despite fetch failure")
	}
	set, _ := store.Load(context.Background())
	if len(set) != 0 {
		t.Fatal("state mutated despite fetch failure")
	}
}

func TestRunQuietRefreshesLastChecked(t *testing.T) {
	t.Parallel()
	catalog := &fakeCatalog{events: nil}
	sender := &fakeSender{}
	svc, store := newService(t, catalog, sender)

	if err := svc.Run(context.Background(), now); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(sender.sent) != 0 {
		t.Fatal("quiet run must not send")
	}
	// The document exists now even though nothing was announced.
	set, err := store.Load(context.Background())
	if err != nil || len(set) != 0 {
		t.Fatalf("Load = (%v, %v)", set, err)
	}
}
