package thumbcache

import "sync"

// Index maps photo identifiers to content digests. It is safe for concurrent
// use. Entries are only added or overwritten, never removed.
type Index struct {
	mu      sync.RWMutex
	digests map[string]ContentDigest
}

// NewIndex returns an empty Index.
func NewIndex() *Index {
	return &Index{digests: make(map[string]ContentDigest)}
}

// Lookup returns the digest recorded for id.
func (i *Index) Lookup(id string) (ContentDigest, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	d, ok := i.digests[id]
	return d, ok
}

// Store records the digest for id, replacing any previous value.
func (i *Index) Store(id string, d ContentDigest) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.digests[id] = d
}

// Len returns the number of identifiers recorded.
func (i *Index) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.digests)
}
