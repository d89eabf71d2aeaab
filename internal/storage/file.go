package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	logx "ctfnotice/pkg/logx"
)

// fileStore keeps one <key>.json file per document under a data directory.
//
// Writes go through a temp file + rename so a crash mid-write leaves either
// the old document or the new one, never a torn file.
type fileStore struct {
	log logx.Logger
	dir string

	mu sync.Mutex
}

var keyPattern = regexp.MustCompile(`^[a-z0-9_-]+$`)

func openFile(cfg Config, log logx.Logger) (Store, error) {
	dir := strings.TrimSpace(cfg.Path)
	if dir == "" {
		return nil, errors.New("storage.path is required for file driver")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &fileStore{log: log, dir: dir}, nil
}

func (s *fileStore) Close() error { return nil }

func (s *fileStore) path(key string) (string, error) {
	if !keyPattern.MatchString(key) {
		return "", errors.New("invalid storage key: " + key)
	}
	return filepath.Join(s.dir, key+".json"), nil
}

func (s *fileStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	_ = ctx
	path, err := s.path(key)
	if err != nil {
		return nil, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (s *fileStore) Put(ctx context.Context, key string, data []byte) error {
	_ = ctx
	path, err := s.path(key)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	s.log.Debug("document written", logx.String("key", key), logx.Int("bytes", len(data)))
	return nil
}
