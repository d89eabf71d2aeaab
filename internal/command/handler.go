// Package command implements the slash-command surface: watch, unwatch,
// add, list, help.
package command

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"ctfnotice/internal/ctftime"
	"ctfnotice/internal/render"
	"ctfnotice/internal/watchlist"

	logx "ctfnotice/pkg/logx"
)

// Catalog is the slice of the event catalog client the handler needs.
type Catalog interface {
	FetchEvent(ctx context.Context, id int64) (*ctftime.Event, error)
}

type Handler struct {
	catalog Catalog
	store   *watchlist.Store
	log     logx.Logger

	// now is swappable in tests; list rendering and addedAt depend on it.
	now func() time.Time
}

func New(catalog Catalog, store *watchlist.Store, log logx.Logger) *Handler {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Handler{catalog: catalog, store: store, log: log, now: time.Now}
}

const usage = "*CTFNotice コマンド*\n\n" +
	"`/ctf add <日時> <タイトル>` - カスタムイベントを手動登録\n" +
	"  例: `/ctf add 2026-03-15T10:00 My Event`\n\n" +
	"`/ctf watch <event_id or url>` - CTFtimeイベントをウォッチリストに追加\n" +
	"`/ctf unwatch <event_id>` - イベントをウォッチリストから削除\n" +
	"`/ctf list` - ウォッチリストを表示\n" +
	"`/ctf help` - このヘルプを表示"

// Handle runs one subcommand over the free-text argument string and returns
// the synchronous reply. Input problems and not-found outcomes are normal
// replies; only store failures surface as errors.
func (h *Handler) Handle(ctx context.Context, text string) (string, error) {
	args := strings.Fields(strings.TrimSpace(text))
	sub := ""
	if len(args) > 0 {
		sub = strings.ToLower(args[0])
	}
	h.log.Debug("command received", logx.String("sub", sub), logx.Int("args", len(args)-1))

	switch sub {
	case "watch":
		if len(args) < 2 {
			return "❌ イベントIDまたはCTFtime URLを指定してください\n例: `/ctf watch 12345` または `/ctf watch https://ctftime.org/event/12345`", nil
		}
		return h.watch(ctx, args[1])
	case "unwatch":
		if len(args) < 2 {
			return "❌ イベントIDを指定してください", nil
		}
		return h.unwatch(ctx, args[1])
	case "add":
		return h.add(ctx, args[1:])
	case "list", "":
		return h.list(ctx)
	default:
		return usage, nil
	}
}

func (h *Handler) watch(ctx context.Context, ref string) (string, error) {
	id, ok := ctftime.ParseEventRef(ref)
	if !ok {
		return "❌ イベントIDまたはCTFtime URLを指定してください\n例: `/ctf watch 12345` または `/ctf watch https://ctftime.org/event/12345`", nil
	}

	ev, err := h.catalog.FetchEvent(ctx, id)
	if errors.Is(err, ctftime.ErrNotFound) {
		return fmt.Sprintf("❌ イベントID %d が見つかりません", id), nil
	}
	if err != nil {
		return "", fmt.Errorf("catalog lookup: %w", err)
	}

	entries, err := h.store.Load(ctx)
	if err != nil {
		return "", err
	}
	eid := watchlist.CatalogID(id)
	for _, e := range entries {
		if e.ID.Equal(eid) {
			// Idempotent: watching twice is a no-op with a distinct reply.
			return fmt.Sprintf("⚠️ *%s* は既に登録済みです", ev.Title), nil
		}
	}

	entry := watchlist.Entry{
		ID:      eid,
		Title:   ev.Title,
		Start:   ev.Start,
		URL:     ev.URL,
		AddedAt: h.now().UTC(),
	}
	if !ev.Finish.IsZero() {
		finish := ev.Finish
		entry.Finish = &finish
	}
	entries = append(entries, entry)
	if err := h.store.Save(ctx, entries); err != nil {
		return "", err
	}
	h.log.Info("event watched", logx.Int64("event_id", id), logx.String("title", ev.Title))
	return fmt.Sprintf("✅ *%s* をウォッチリストに追加しました\n📅 %s", ev.Title, render.Date(ev.Start)), nil
}

func (h *Handler) unwatch(ctx context.Context, ref string) (string, error) {
	var target watchlist.EventID
	if id, ok := ctftime.ParseEventRef(ref); ok {
		target = watchlist.CatalogID(id)
	} else {
		// Custom entries are removed by their synthetic string id.
		target = watchlist.CustomID(ref)
	}

	entries, err := h.store.Load(ctx)
	if err != nil {
		return "", err
	}
	idx := -1
	for i, e := range entries {
		if e.ID.Equal(target) {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Sprintf("⚠️ イベントID %s はウォッチリストにありません", target), nil
	}

	removed := entries[idx]
	entries = append(entries[:idx], entries[idx+1:]...)
	if err := h.store.Save(ctx, entries); err != nil {
		return "", err
	}
	h.log.Info("event unwatched", logx.String("event_id", target.String()))
	return fmt.Sprintf("🗑️ *%s* をウォッチリストから削除しました", removed.Title), nil
}

func (h *Handler) add(ctx context.Context, args []string) (string, error) {
	const addUsage = "❌ 使用方法: `/ctf add <開始日時> <タイトル>`\n" +
		"例: `/ctf add 2026-03-15T10:00 My Event` または `/ctf add 2026-03-15 10:00 My Event`"

	dateTime, title, ok := splitAddArgs(args)
	if !ok {
		return addUsage, nil
	}
	if strings.TrimSpace(title) == "" {
		return "❌ タイトルを指定してください", nil
	}
	start, ok := parseDateTime(dateTime)
	if !ok {
		return fmt.Sprintf("❌ 日時をパースできません: %s\n形式: `2026-03-15T10:00` または `2026-03-15 10:00`", dateTime), nil
	}

	entries, err := h.store.Load(ctx)
	if err != nil {
		return "", err
	}
	id := watchlist.NewCustomID()
	entries = append(entries, watchlist.Entry{
		ID:       id,
		Title:    title,
		Start:    start,
		IsCustom: true,
		AddedAt:  h.now().UTC(),
	})
	if err := h.store.Save(ctx, entries); err != nil {
		return "", err
	}
	h.log.Info("custom event added", logx.String("event_id", id.String()), logx.String("title", title))
	return fmt.Sprintf("✅ *%s* をウォッチリストに追加しました 🔖\n📅 %s\nID: `%s`", title, render.Date(start), id), nil
}

func (h *Handler) list(ctx context.Context) (string, error) {
	entries, err := h.store.Load(ctx)
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return "📋 ウォッチリストは空です\n`/ctf watch <event_id>` または `/ctf add <日時> <タイトル>` で追加できます", nil
	}

	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Start.Before(entries[j].Start) })

	now := h.now()
	lines := make([]string, 0, len(entries))
	for i, e := range entries {
		status := render.StatusOf(e.Start, now)
		badge := ""
		if e.IsCustom {
			badge = " 🔖"
		}
		details := "開始済み"
		if until := e.Start.Sub(now); until > 0 {
			details = fmt.Sprintf("%d時間後", int(until.Hours()))
		}
		lines = append(lines, fmt.Sprintf("%d. %s *%s*%s\n   📅 %s (%s)",
			i+1, status.Emoji(), e.Title, badge, render.Date(e.Start), details))
	}
	return fmt.Sprintf("📋 *ウォッチリスト (%d件)*\n\n%s", len(entries), strings.Join(lines, "\n\n")), nil
}
