package storage

import (
	"context"
	"errors"
	"time"
)

var ErrClosed = errors.New("storage closed")

// Config configures storage.
//
// Driver values:
//   - "file": one JSON document per key under Path (atomic tmp+rename writes)
//   - "sqlite": single-file SQLite database
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// Store is the whole-document persistence API.
//
// Every key maps to one JSON document. There are no partial updates and no
// transactions: callers read the whole document, mutate in memory, and write
// the whole document back. Concurrent writers are last-writer-wins.
type Store interface {
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)
	Put(ctx context.Context, key string, data []byte) error
	Close() error
}
