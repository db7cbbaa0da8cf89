package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"github.com/Vodeneev/lottostats/internal/pkg/models"
)

var _ CacheStore = (*FileStore)(nil)

var validKey = regexp.MustCompile(`^[a-z0-9_-]+$`)

// FileStore keeps one JSON artifact per key under dir, fronted by an in-memory copy.
// Files are replaced by rename, so readers never observe a partial write.
type FileStore struct {
	dir    string
	memory sync.Map // key -> models.CacheEntry
}

func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("cache dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(key string) (string, error) {
	if !validKey.MatchString(key) {
		return "", fmt.Errorf("invalid cache key %q", key)
	}
	return filepath.Join(s.dir, key+".json"), nil
}

func (s *FileStore) Write(_ context.Context, key string, entry models.CacheEntry) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, "."+key+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace artifact: %w", err)
	}

	s.memory.Store(key, entry)
	return nil
}

func (s *FileStore) Read(_ context.Context, key string) (models.CacheEntry, error) {
	if v, ok := s.memory.Load(key); ok {
		return v.(models.CacheEntry), nil
	}

	path, err := s.path(key)
	if err != nil {
		return models.CacheEntry{}, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return models.CacheEntry{}, ErrNotFound
	}
	if err != nil {
		return models.CacheEntry{}, fmt.Errorf("read artifact: %w", err)
	}

	var entry models.CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return models.CacheEntry{}, fmt.Errorf("decode artifact %s: %w", path, err)
	}
	// A write that landed while we were reading wins.
	v, _ := s.memory.LoadOrStore(key, entry)
	return v.(models.CacheEntry), nil
}

func (s *FileStore) Close() error { return nil }
