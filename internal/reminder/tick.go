// Package reminder runs the scheduled watchlist pass: evaluate, persist,
// dispatch.
package reminder

import (
	"context"
	"fmt"
	"time"

	"ctfnotice/internal/ctftime"
	"ctfnotice/internal/render"
	"ctfnotice/internal/slack"
	"ctfnotice/internal/watchlist"

	logx "ctfnotice/pkg/logx"
)

// Catalog re-fetches live details for catalog-backed reminder bodies.
type Catalog interface {
	FetchEvent(ctx context.Context, id int64) (*ctftime.Event, error)
}

// Sender delivers one webhook message.
type Sender interface {
	Send(ctx context.Context, msg slack.Message) error
}

type Service struct {
	store   *watchlist.Store
	catalog Catalog
	sender  Sender
	log     logx.Logger
}

func New(store *watchlist.Store, catalog Catalog, sender Sender, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{store: store, catalog: catalog, sender: sender, log: log}
}

// Run executes one tick at the given instant.
//
// Updated flags are persisted BEFORE any dispatch: the write claims the
// reminders, so a crash during sending repeats nothing on the next tick,
// while a crash before the write retries the whole pass (at-least-once
// delivery, never silent loss). A store failure aborts the tick; the next
// tick is the retry. Per-entry send failures are logged and skipped, and
// deliberately do not roll the claimed flag back.
func (s *Service) Run(ctx context.Context, now time.Time) error {
	entries, err := s.store.Load(ctx)
	if err != nil {
		return err
	}

	next, reminders := watchlist.Evaluate(entries, now)

	if watchlist.Changed(entries, next) {
		if err := s.store.Save(ctx, next); err != nil {
			return fmt.Errorf("persist reminder state: %w", err)
		}
		s.log.Debug("watchlist updated",
			logx.Int("entries", len(next)),
			logx.Int("purged", len(entries)-len(next)),
			logx.Int("reminders", len(reminders)),
		)
	}

	for _, r := range reminders {
		if err := s.dispatch(ctx, r); err != nil {
			s.log.Error("reminder dispatch failed",
				logx.String("event_id", r.Entry.ID.String()),
				logx.String("kind", r.Kind.String()),
				logx.Err(err),
			)
			continue
		}
		s.log.Info("reminder sent",
			logx.String("event_id", r.Entry.ID.String()),
			logx.String("kind", r.Kind.String()),
			logx.String("title", r.Entry.Title),
		)
	}
	return nil
}

func (s *Service) dispatch(ctx context.Context, r watchlist.Reminder) error {
	emoji, timeText := "📢", "24時間後"
	if r.Kind == watchlist.OneHour {
		emoji, timeText = "🚨", "まもなく（1時間以内）"
	}

	details := s.detailText(ctx, r.Entry)
	text := fmt.Sprintf("%s *CTFリマインダー*\n\n*%s* が%sに開始します！\n\n%s",
		emoji, r.Entry.Title, timeText, details)

	return s.sender.Send(ctx, slack.Message{Text: text})
}

// detailText renders the reminder body. Catalog entries get a live re-fetch
// so the details reflect the current listing; custom entries render from
// stored fields only. A failed lookup degrades to a date line rather than
// dropping the reminder.
func (s *Service) detailText(ctx context.Context, e watchlist.Entry) string {
	id, ok := e.ID.Catalog()
	if e.IsCustom || !ok {
		return render.CustomEntry(e)
	}
	ev, err := s.catalog.FetchEvent(ctx, id)
	if err != nil {
		s.log.Warn("detail fetch failed; using stored data",
			logx.Int64("event_id", id), logx.Err(err))
		return render.EntryFallback(e)
	}
	return render.CatalogEvent(ev)
}
