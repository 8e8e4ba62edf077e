package exportmap

import (
	"os"
	"sync"
	"time"

	"exportmap/internal/observability"
)

// Cache maps (resolver identity, settings fingerprint, path) to a built
// export map or an explicit unanalyzable sentinel. It is constructed once per
// analysis run and passed down; there is no hidden package-level instance.
// Entries are invalidated when the file's modification time changes; the
// sentinel is never re-checked. Concurrent lookups for the same key build at
// most once: the first builder wins, racers await its result.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry
}

type cacheEntry struct {
	path string
	done chan struct{}

	m            *ExportMap
	unanalyzable bool
	err          error
}

func NewCache() *Cache {
	return &Cache{entries: make(map[string]*cacheEntry)}
}

// LookupOrBuild returns the export map for ctx.Path, building on miss.
// nil with a nil error means the file is unanalyzable (rejected before
// parsing, or an ambiguous non-module); a non-nil error means the file's
// metadata or content could not be read and is propagated unmodified.
// Every lookup stats the file, hits included, so results are always fresh.
func (c *Cache) LookupOrBuild(ctx *Context) (*ExportMap, error) {
	info, err := os.Stat(ctx.Path)
	if err != nil {
		return nil, err
	}
	key := ctx.CacheKey()

	for {
		c.mu.Lock()
		e, ok := c.entries[key]
		if !ok {
			e = &cacheEntry{path: ctx.Path, done: make(chan struct{})}
			c.entries[key] = e
			c.mu.Unlock()
			observability.CacheMissesTotal.Inc()
			return c.build(key, e, ctx, info.ModTime())
		}
		c.mu.Unlock()

		<-e.done
		switch {
		case e.err != nil:
			// Failed builds are not cached; retry with a fresh entry.
			c.replaceIfCurrent(key, e, nil)
			continue
		case e.unanalyzable:
			observability.CacheHitsTotal.Inc()
			return nil, nil
		case e.m.ModTime.Equal(info.ModTime()):
			observability.CacheHitsTotal.Inc()
			return e.m, nil
		}

		// Stale: claim the rebuild, or loop if another goroutine already did.
		ne := &cacheEntry{path: ctx.Path, done: make(chan struct{})}
		if c.replaceIfCurrent(key, e, ne) {
			observability.CacheInvalidationsTotal.Inc()
			return c.build(key, ne, ctx, info.ModTime())
		}
	}
}

// replaceIfCurrent swaps the stored entry only when it is still the one this
// caller observed. A nil replacement deletes the entry.
func (c *Cache) replaceIfCurrent(key string, old, next *cacheEntry) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries[key] != old {
		return false
	}
	if next == nil {
		delete(c.entries, key)
	} else {
		c.entries[key] = next
	}
	return true
}

func (c *Cache) build(key string, e *cacheEntry, ctx *Context, modTime time.Time) (*ExportMap, error) {
	defer close(e.done)

	if !hasRecognizedExtension(ctx.Path, ctx.Settings) || ctx.ignore.Match(ctx.Path) {
		e.unanalyzable = true
		observability.CacheRejectsTotal.Inc()
		return nil, nil
	}

	content, err := os.ReadFile(ctx.Path)
	if err != nil {
		e.err = err
		c.replaceIfCurrent(key, e, nil)
		return nil, err
	}

	if !isMaybeModule(content) {
		e.unanalyzable = true
		observability.CacheRejectsTotal.Inc()
		return nil, nil
	}

	start := time.Now()
	m := Build(ctx, content)
	observability.BuildDuration.Observe(time.Since(start).Seconds())

	if m == nil {
		e.unanalyzable = true
		return nil, nil
	}
	m.ModTime = modTime
	e.m = m
	return m, nil
}

// Invalidate drops every cached entry for a path, across all configuration
// fingerprints. Used by watch mode when a file changes or disappears.
func (c *Cache) Invalidate(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, e := range c.entries {
		if e.path == path {
			delete(c.entries, key)
		}
	}
}

// Len returns the number of cached entries, sentinels included.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
