package watchlist

import (
	"context"
	"fmt"

	"ctfnotice/internal/storage"
)

// DocumentKey is where the watchlist lives in the blob store.
const DocumentKey = "watchlist"

// Store reads and writes the watchlist document.
//
// There is no optimistic-concurrency check: two callers racing on the
// document lose one write (last-writer-wins). Accepted for the expected
// call volume; do not paper over it with locking here.
type Store struct {
	kv storage.Store
}

func NewStore(kv storage.Store) *Store {
	return &Store{kv: kv}
}

// Load returns the current watchlist, or an empty list when the document
// does not exist yet.
func (s *Store) Load(ctx context.Context) ([]Entry, error) {
	data, ok, err := s.kv.Get(ctx, DocumentKey)
	if err != nil {
		return nil, fmt.Errorf("load watchlist: %w", err)
	}
	if !ok {
		return nil, nil
	}
	return Decode(data)
}

// Save writes the whole watchlist document.
func (s *Store) Save(ctx context.Context, entries []Entry) error {
	data, err := Encode(entries)
	if err != nil {
		return err
	}
	if err := s.kv.Put(ctx, DocumentKey, data); err != nil {
		return fmt.Errorf("save watchlist: %w", err)
	}
	return nil
}
