package storage

// Package storage provides the whole-document persistence layer.
//
// The watchlist and the seen-event set each live under a single key as one
// JSON document. Two drivers exist:
//   - "file": one JSON file per key (default, zero setup)
//   - "sqlite": a kv table in a single-file database
