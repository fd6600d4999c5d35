// Package infer computes Lua expression types on demand, backed by a
// per-file cache keyed by syntax node id, following the split between the
// write-path declaration indexer (internal/semindex) and a read-path
// typing layer that spec.md's component map keeps separate (C4 vs C7).
package infer

import (
	"sync"

	"github.com/luaowl/luacore/internal/ltypes"
	"github.com/luaowl/luacore/internal/syntax"
	"github.com/luaowl/luacore/internal/vfs"
)

// Cache memoizes inferred types for one file's expressions, keyed by
// NodeID. Invalidation is file-granular: a file update simply discards and
// replaces the whole Cache rather than tracking per-expression dependency
// edges.
type Cache struct {
	mu      sync.RWMutex
	results map[syntax.NodeID]ltypes.Type
}

func newCache() *Cache {
	return &Cache{results: make(map[syntax.NodeID]ltypes.Type)}
}

func (c *Cache) get(id syntax.NodeID) (ltypes.Type, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.results[id]
	return t, ok
}

func (c *Cache) put(id syntax.NodeID, t ltypes.Type) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results[id] = t
}

// Caches owns one Cache per file, invalidated wholesale on file update.
type Caches struct {
	mu   sync.Mutex
	byID map[vfs.FileId]*Cache
}

// NewCaches creates an empty per-file cache registry.
func NewCaches() *Caches {
	return &Caches{byID: make(map[vfs.FileId]*Cache)}
}

// Invalidate drops file's cache; the next InferExpr call for that file
// rebuilds entries lazily.
func (cs *Caches) Invalidate(file vfs.FileId) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	delete(cs.byID, file)
}

func (cs *Caches) forFile(file vfs.FileId) *Cache {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	c, ok := cs.byID[file]
	if !ok {
		c = newCache()
		cs.byID[file] = c
	}
	return c
}
