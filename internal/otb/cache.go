package otb

import (
	"crypto/md5"
	"os"
	"sync"

	"github.com/ernie/otbcore/internal/bintree"
)

// Cache is an optional read-through cache for parsed ServerItemLists,
// keyed by the content hash of the file bytes rather than the path, so
// a renamed-but-identical file still hits. It is off by default — core
// behavior (including every testable property) is identical whether or
// not a Cache wraps the reader; callers opt in explicitly for repeated
// reads of the same large file (e.g. a long editing session).
type Cache struct {
	mu      sync.Mutex
	entries map[[16]byte]*ReadResult
}

// NewCache builds an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[[16]byte]*ReadResult)}
}

// Read parses path through the cache: a cache hit by content hash skips
// re-parsing entirely and returns the previously parsed result. A
// cached ReadResult is shared, not copied — callers that mutate the
// returned List must not do so across concurrent cache users.
func (c *Cache) Read(path string, opts ReadOptions) (*ReadResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, wrapErr(KindFileNotFound, err, "open %s", path)
	}
	key := md5.Sum(data)

	c.mu.Lock()
	if cached, ok := c.entries[key]; ok {
		c.mu.Unlock()
		return cached, nil
	}
	c.mu.Unlock()

	result, err := ReadTree(bintree.NewReader(data), opts)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[key] = result
	c.mu.Unlock()
	return result, nil
}

// Invalidate drops every cached entry. Useful after an external process
// is known to have modified files the cache may have keyed on.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.entries = make(map[[16]byte]*ReadResult)
	c.mu.Unlock()
}

// Len reports how many distinct file contents are currently cached.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
