package view

import (
	"sync"
	"time"

	"github.com/veranda-web/veranda/internal/template"
)

type cacheEntry struct {
	tmpl    *template.Template
	modTime time.Time
}

// templateCache stores compiled templates keyed by file path together with
// the modification time they were compiled from.
type templateCache struct {
	// mu guards entries.
	mu      sync.RWMutex
	entries map[string]cacheEntry
}

func newTemplateCache() *templateCache {
	return &templateCache{entries: make(map[string]cacheEntry)}
}

func (c *templateCache) get(path string) (*template.Template, time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[path]
	return entry.tmpl, entry.modTime, ok
}

// put stores a freshly compiled template. When two goroutines compile the
// same file concurrently the first stored entry wins and the caller gets
// that one back, so all renders of a path share one template.
func (c *templateCache) put(path string, tmpl *template.Template, modTime time.Time) *template.Template {
	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, ok := c.entries[path]; ok && entry.modTime.Equal(modTime) {
		return entry.tmpl
	}
	c.entries[path] = cacheEntry{tmpl: tmpl, modTime: modTime}
	return tmpl
}

func (c *templateCache) invalidate(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, path)
}

func (c *templateCache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
