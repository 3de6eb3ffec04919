package loxone

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// Cache persists resolved Miniserver IP addresses. Implementations shared
// between clients must be safe for concurrent use.
type Cache interface {
	Get(key string) (string, bool)
	Set(key, value string) error
}

// CacheKey returns the cache key under which the IP of the Miniserver with
// the given serial number is stored.
func CacheKey(serial string) string {
	return "loxone_" + serial + "_ip"
}

// MemoryCache is an in-process Cache.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]string
}

// NewMemoryCache returns an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]string)}
}

func (m *MemoryCache) Get(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.entries[key]
	return v, ok
}

func (m *MemoryCache) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = value
	return nil
}

// FileCache is a Cache backed by a JSON object on disk. Every Set rewrites
// the whole file, so it suits the handful of entries a CLI needs.
type FileCache struct {
	path string
	mu   sync.Mutex
}

// NewFileCache returns a FileCache stored at path. The file is created on the
// first Set.
func NewFileCache(path string) *FileCache {
	return &FileCache{path: path}
}

func (f *FileCache) Get(key string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := f.load()
	if err != nil {
		return "", false
	}
	v, ok := entries[key]
	return v, ok
}

func (f *FileCache) Set(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := f.load()
	if err != nil {
		return err
	}
	entries[key] = value

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode cache: %w", err)
	}
	if dir := filepath.Dir(f.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create cache dir: %w", err)
		}
	}

	// Write to a sibling file first so readers never see a partial file.
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write cache: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("replace cache: %w", err)
	}
	return nil
}

func (f *FileCache) load() (map[string]string, error) {
	entries := make(map[string]string)
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return entries, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cache %q: %w", f.path, err)
	}
	if len(data) == 0 {
		return entries, nil
	}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode cache %q: %w", f.path, err)
	}
	return entries, nil
}
