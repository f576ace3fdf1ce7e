package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

type CachedResponse struct {
	Hash      string          `json:"hash"`
	Response  json.RawMessage `json:"response"`
	CreatedAt time.Time       `json:"created_at"`
}

// FileStore keeps one JSON file per key under dir.
type FileStore struct {
	cacheDir string
	ttl      time.Duration
	now      func() time.Time
}

var _ Store = (*FileStore)(nil)

func NewFileStore(dir string, ttl time.Duration) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("error creating cache directory: %w", err)
	}

	store := &FileStore{
		cacheDir: dir,
		ttl:      ttl,
		now:      time.Now,
	}

	_ = store.CleanExpired()

	return store, nil
}

func (c *FileStore) path(key string) string {
	return filepath.Join(c.cacheDir, key+".json")
}

func (c *FileStore) Get(_ context.Context, key string) (json.RawMessage, bool, error) {
	filePath := c.path(key)

	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("error reading cache: %w", err)
	}

	var cached CachedResponse
	if err := json.Unmarshal(data, &cached); err != nil {
		_ = os.Remove(filePath)
		return nil, false, fmt.Errorf("error decoding cache entry: %w", err)
	}

	if c.ttl > 0 && c.now().Sub(cached.CreatedAt) > c.ttl {
		_ = os.Remove(filePath)
		return nil, false, nil
	}

	return cached.Response, true, nil
}

func (c *FileStore) Set(_ context.Context, key string, value any) error {
	responseData, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("error encoding cache value: %w", err)
	}

	cached := CachedResponse{
		Hash:      key,
		Response:  responseData,
		CreatedAt: c.now(),
	}

	data, err := json.MarshalIndent(cached, "", "  ")
	if err != nil {
		return fmt.Errorf("error encoding cache entry: %w", err)
	}

	// write then rename so concurrent batch workers never read a partial file
	tmp, err := os.CreateTemp(c.cacheDir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("error writing cache: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("error writing cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("error writing cache: %w", err)
	}
	if err := os.Rename(tmp.Name(), c.path(key)); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("error writing cache: %w", err)
	}

	return nil
}

// CleanExpired removes entries older than the TTL, judged by file modification time.
func (c *FileStore) CleanExpired() error {
	if c.ttl <= 0 {
		return nil
	}

	entries, err := os.ReadDir(c.cacheDir)
	if err != nil {
		return fmt.Errorf("error reading cache directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		if c.now().Sub(info.ModTime()) > c.ttl {
			_ = os.Remove(filepath.Join(c.cacheDir, entry.Name()))
		}
	}

	return nil
}

// Clear removes every cache entry but keeps the directory.
func (c *FileStore) Clear(_ context.Context) error {
	entries, err := os.ReadDir(c.cacheDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("error reading cache directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		if err := os.Remove(filepath.Join(c.cacheDir, entry.Name())); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("error removing cache entry: %w", err)
		}
	}
	return nil
}
