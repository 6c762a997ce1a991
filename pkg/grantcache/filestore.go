package grantcache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FileStore keeps one json document per period under a cache directory,
// named grants_<year>_<month>.json. Writes go through a temp file and a
// rename so a period file is never left half written.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("unable to create cache dir %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, "grants_"+strings.ReplaceAll(key, "-", "_")+".json")
}

func (s *FileStore) Get(key string) (*PeriodCache, error) {
	raw, err := os.ReadFile(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	cache := PeriodCache{}
	if err := json.Unmarshal(raw, &cache); err != nil {
		return nil, fmt.Errorf("corrupt cache file for period %s: %w", key, err)
	}

	return &cache, nil
}

func (s *FileStore) Put(cache *PeriodCache) error {
	raw, err := json.MarshalIndent(cache, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, "grants_*.tmp")
	if err != nil {
		return err
	}

	_, err = tmp.Write(raw)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("unable to write cache for period %s: %w", cache.PeriodKey, err)
	}

	return os.Rename(tmp.Name(), s.path(cache.PeriodKey))
}
