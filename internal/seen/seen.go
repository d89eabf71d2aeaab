// Package seen tracks catalog event ids that were already announced, so the
// new-event poller notifies once per id.
package seen

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"ctfnotice/internal/storage"
)

// DocumentKey is where the seen-id set lives in the blob store.
const DocumentKey = "seen_events"

// Set is the announced-id set. It only ever grows: ids for events far in the
// past are never fetched again, so there is no pruning. Unbounded in theory;
// in practice bounded by the catalog's own publication rate.
type Set map[int64]struct{}

func (s Set) Has(id int64) bool {
	_, ok := s[id]
	return ok
}

// Add inserts ids into the set.
func (s Set) Add(ids ...int64) {
	for _, id := range ids {
		s[id] = struct{}{}
	}
}

// Diff returns the fetched ids not yet in seen, preserving fetch order.
// Pure set subtraction: calling it twice with unchanged inputs yields the
// same result.
func Diff(fetched []int64, seen Set) []int64 {
	var fresh []int64
	for _, id := range fetched {
		if !seen.Has(id) {
			fresh = append(fresh, id)
		}
	}
	return fresh
}

// document is the persisted shape: {eventIds: [...], lastChecked: ISO8601}.
type document struct {
	EventIDs    []int64   `json:"eventIds"`
	LastChecked time.Time `json:"lastChecked"`
}

// Store reads and writes the seen-set document.
type Store struct {
	kv storage.Store
}

func NewStore(kv storage.Store) *Store {
	return &Store{kv: kv}
}

// Load returns the persisted set, empty when the document does not exist.
func (s *Store) Load(ctx context.Context) (Set, error) {
	data, ok, err := s.kv.Get(ctx, DocumentKey)
	if err != nil {
		return nil, fmt.Errorf("load seen set: %w", err)
	}
	set := Set{}
	if !ok {
		return set, nil
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("seen document: %w", err)
	}
	set.Add(doc.EventIDs...)
	return set, nil
}

// Save writes the set with a refreshed lastChecked stamp. Ids are sorted so
// the document is stable across runs.
func (s *Store) Save(ctx context.Context, set Set, checkedAt time.Time) error {
	ids := make([]int64, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	data, err := json.Marshal(document{EventIDs: ids, LastChecked: checkedAt.UTC()})
	if err != nil {
		return err
	}
	if err := s.kv.Put(ctx, DocumentKey, data); err != nil {
		return fmt.Errorf("save seen set: %w", err)
	}
	return nil
}
