// Package cache holds ReportCache backends for raw report fetches.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gstfiling/internal/domain"
)

// FileCache stores each entry as JSON under dir/<kind>/<key>.json.
type FileCache struct {
	dir string
}

// NewFileCache creates a FileCache rooted at dir.
func NewFileCache(dir string) *FileCache {
	return &FileCache{dir: dir}
}

func (c *FileCache) path(kind, key string) string {
	return filepath.Join(c.dir, sanitize(kind), sanitize(key)+".json")
}

// Get implements port.ReportCache.
func (c *FileCache) Get(_ context.Context, kind, key string) (*domain.Table, bool, error) {
	data, err := os.ReadFile(c.path(kind, key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading cache entry: %w", err)
	}
	var t domain.Table
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, false, fmt.Errorf("decoding cache entry %s/%s: %w", kind, key, err)
	}
	return &t, true, nil
}

// Put implements port.ReportCache. The entry is written to a temp file and
// renamed so readers never see a partial file.
func (c *FileCache) Put(_ context.Context, kind, key string, t *domain.Table) error {
	p := c.path(kind, key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("creating cache dir: %w", err)
	}
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("encoding cache entry: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(p), ".tmp-*")
	if err != nil {
		return fmt.Errorf("creating cache temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing cache entry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("closing cache entry: %w", err)
	}
	return os.Rename(tmp.Name(), p)
}

func sanitize(s string) string {
	return strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(s)
}
