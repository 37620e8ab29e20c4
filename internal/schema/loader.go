package schema

import (
	"fmt"
	"os"
	"sync"
	"time"
)

// ModuleLoader loads the value a fragment file provides.
type ModuleLoader interface {
	Load(kind Kind, path string) (any, error)
}

// FileLoader reads fragment files from disk and decodes them by extension.
type FileLoader struct{}

// Load implements ModuleLoader.
func (FileLoader) Load(kind Kind, path string) (any, error) {
	// #nosec G304 -- path comes from the resolved schema directory
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	v, err := Decode(kind, path, src)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return v, nil
}

type cacheKey struct {
	kind Kind
	path string
}

type cacheEntry struct {
	modTime time.Time
	size    int64
	value   any
}

// CachingLoader wraps a ModuleLoader with a process-wide cache keyed by path,
// modification time and size, so an edited file is loaded again.
type CachingLoader struct {
	inner   ModuleLoader
	mu      sync.Mutex
	entries map[cacheKey]cacheEntry
}

// NewCachingLoader wraps inner, or a FileLoader when inner is nil.
func NewCachingLoader(inner ModuleLoader) *CachingLoader {
	if inner == nil {
		inner = FileLoader{}
	}
	return &CachingLoader{inner: inner, entries: make(map[cacheKey]cacheEntry)}
}

// Load implements ModuleLoader. Failed loads are not cached.
func (c *CachingLoader) Load(kind Kind, path string) (any, error) {
	info, err := os.Stat(path)
	if err != nil {
		return c.inner.Load(kind, path)
	}

	key := cacheKey{kind: kind, path: path}
	c.mu.Lock()
	entry, ok := c.entries[key]
	c.mu.Unlock()
	if ok && entry.modTime.Equal(info.ModTime()) && entry.size == info.Size() {
		return entry.value, nil
	}

	v, err := c.inner.Load(kind, path)
	if err != nil {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, err
	}

	c.mu.Lock()
	c.entries[key] = cacheEntry{modTime: info.ModTime(), size: info.Size(), value: v}
	c.mu.Unlock()
	return v, nil
}

// Len returns the number of cached entries.
func (c *CachingLoader) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
