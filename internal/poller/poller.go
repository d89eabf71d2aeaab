// Package poller announces newly published catalog events.
package poller

import (
	"context"
	"fmt"
	"time"

	"ctfnotice/internal/ctftime"
	"ctfnotice/internal/render"
	"ctfnotice/internal/seen"
	"ctfnotice/internal/slack"

	logx "ctfnotice/pkg/logx"
)

// Catalog lists upcoming events.
type Catalog interface {
	FetchUpcoming(ctx context.Context, now time.Time, daysAhead, limit int) ([]ctftime.Event, error)
}

// Sender delivers one webhook message.
type Sender interface {
	Send(ctx context.Context, msg slack.Message) error
}

type Service struct {
	catalog   Catalog
	store     *seen.Store
	sender    Sender
	log       logx.Logger
	daysAhead int
}

func New(catalog Catalog, store *seen.Store, sender Sender, daysAhead int, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{catalog: catalog, store: store, sender: sender, log: log, daysAhead: daysAhead}
}

// Run executes one poll at the given instant: fetch the look-ahead window,
// subtract the already-announced set, announce what is left in one batched
// message, then persist the grown set.
//
// The set is only persisted after a successful send, so a webhook failure
// retries the same events next run (at-least-once, matching the reminder
// path). Runs with nothing new still refresh the document's lastChecked.
func (s *Service) Run(ctx context.Context, now time.Time) error {
	events, err := s.catalog.FetchUpcoming(ctx, now, s.daysAhead, 0)
	if err != nil {
		return fmt.Errorf("fetch upcoming: %w", err)
	}

	set, err := s.store.Load(ctx)
	if err != nil {
		return err
	}
	s.log.Debug("poll state", logx.Int("fetched", len(events)), logx.Int("seen", len(set)))

	byID := make(map[int64]ctftime.Event, len(events))
	ids := make([]int64, 0, len(events))
	for _, ev := range events {
		byID[ev.ID] = ev
		ids = append(ids, ev.ID)
	}
	fresh := seen.Diff(ids, set)

	if len(fresh) == 0 {
		s.log.Debug("no new events")
		return s.store.Save(ctx, set, now)
	}

	msg := batchMessage(fresh, byID, now)
	if err := s.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("announce %d new events: %w", len(fresh), err)
	}

	set.Add(fresh...)
	if err := s.store.Save(ctx, set, now); err != nil {
		return err
	}
	s.log.Info("new events announced", logx.Int("count", len(fresh)))
	return nil
}

// batchMessage renders all new events into a single message, not one per
// event.
func batchMessage(fresh []int64, byID map[int64]ctftime.Event, now time.Time) slack.Message {
	blocks := []slack.Block{
		slack.Header(fmt.Sprintf("🚩 新しいCTFイベント (%d件)", len(fresh))),
	}
	for _, id := range fresh {
		ev := byID[id]
		blocks = append(blocks, slack.Divider(), slack.Section(render.CatalogEvent(&ev)))
	}
	blocks = append(blocks, slack.Context(
		fmt.Sprintf("_Source: <https://ctftime.org|CTFtime.org> | %s_", render.Date(now)),
	))

	return slack.Message{
		Text:   fmt.Sprintf("新しいCTFイベントが%d件見つかりました", len(fresh)),
		Blocks: blocks,
	}
}
