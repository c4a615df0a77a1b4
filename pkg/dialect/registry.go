package dialect

import (
	"sort"
	"sync"
)

var (
	dialectsMu sync.RWMutex
	dialects   = make(map[Backend]Dialect)
)

// Register adds a dialect to the global registry, replacing any dialect
// previously registered for the same backend. The built-in dialects register
// themselves from init.
func Register(d Dialect) {
	dialectsMu.Lock()
	defer dialectsMu.Unlock()
	dialects[d.Backend()] = d
}

// For returns the dialect registered for the backend.
func For(b Backend) (Dialect, bool) {
	dialectsMu.RLock()
	defer dialectsMu.RUnlock()
	d, ok := dialects[b]
	return d, ok
}

// List returns the names of all registered dialects, sorted.
func List() []string {
	dialectsMu.RLock()
	defer dialectsMu.RUnlock()
	names := make([]string, 0, len(dialects))
	for _, d := range dialects {
		names = append(names, d.Name())
	}
	sort.Strings(names)
	return names
}
