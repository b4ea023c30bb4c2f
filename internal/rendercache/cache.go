// Package rendercache is a weight-bounded, process-resident cache of
// canonical byte renderings keyed by virtual path and a caller-supplied
// generation token. The vfs package stores whole-table CSV renderings in
// it, so repeated getattr/open calls on /data/<T>.csv don't re-run the
// backing query; paginated CSV windows and stats documents are not cached
// here.
package rendercache

import (
	"github.com/maypok86/otter"
)

// key combines a virtual path with a generation token (e.g. a mtime or a
// mutation counter) so a stale cached rendering is never served after the
// underlying data changes.
type key struct {
	path       string
	generation int64
}

// Cache holds canonical byte renderings up to maxWeightBytes total cost,
// where an entry's cost is its byte length.
type Cache struct {
	inner otter.Cache[key, []byte]
}

// New builds a Cache bounded to maxWeightBytes of total cached content.
func New(maxWeightBytes int) (*Cache, error) {
	inner, err := otter.MustBuilder[key, []byte](maxWeightBytes).
		Cost(func(_ key, value []byte) uint32 {
			return uint32(len(value))
		}).
		CollectStats().
		Build()
	if err != nil {
		return nil, err
	}
	return &Cache{inner: inner}, nil
}

// Get returns the cached rendering for (path, generation), if present and
// not evicted.
func (c *Cache) Get(path string, generation int64) ([]byte, bool) {
	return c.inner.Get(key{path: path, generation: generation})
}

// Set records a canonical rendering for (path, generation).
func (c *Cache) Set(path string, generation int64, value []byte) {
	c.inner.Set(key{path: path, generation: generation}, value)
}

// Invalidate drops every cached entry for path, regardless of generation.
// Used when a query result or virtual file is unlinked.
func (c *Cache) Invalidate(path string) {
	c.inner.Range(func(k key, _ []byte) bool {
		if k.path == path {
			c.inner.Delete(k)
		}
		return true
	})
}

// Close releases background resources held by the cache.
func (c *Cache) Close() {
	c.inner.Close()
}
