package world

import (
	"sync"
	"sync/atomic"
)

// Registry is the concurrent mapping from chunk coordinates to records,
// guarded by a reader-writer lock. Lookups and iteration take the
// shared lock; insertion and removal take the exclusive lock. Mutating a
// record's interior (state, pin count, dirty, voxels under the generation
// contract) while holding only the shared lock is permitted, because the
// lock protects a record's existence in the map, not its field contents.
type Registry struct {
	mu     sync.RWMutex
	chunks map[ChunkCoord]*Chunk

	nextToken uint32 // atomic, monotonically increasing
}

// NewRegistry creates an empty chunk registry.
func NewRegistry() *Registry {
	return &Registry{
		chunks: make(map[ChunkCoord]*Chunk),
	}
}

// GetOrCreate returns the existing record at coord, or creates one in
// StateMissing with a fresh job token if absent.
func (r *Registry) GetOrCreate(coord ChunkCoord) *Chunk {
	r.mu.RLock()
	c, ok := r.chunks[coord]
	r.mu.RUnlock()
	if ok {
		return c
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok = r.chunks[coord]; ok {
		return c
	}
	token := atomic.AddUint32(&r.nextToken, 1)
	c = NewChunk(coord, token)
	r.chunks[coord] = c
	return c
}

// Get returns the record at coord, or nil if absent, under the shared lock.
func (r *Registry) Get(coord ChunkCoord) *Chunk {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.chunks[coord]
}

// Len returns the number of resident records.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.chunks)
}

// Range calls fn for every resident record under the shared lock. fn must
// not call back into the registry's exclusive-lock operations.
func (r *Registry) Range(fn func(c *Chunk)) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.chunks {
		fn(c)
	}
}

// WithReadLock runs fn while holding the shared registry lock. Workers use
// this to look up and pin a record (and, for meshing, its neighbors) before
// releasing the lock; the pin is what keeps the pointer valid afterward.
func (r *Registry) WithReadLock(fn func(lookup func(ChunkCoord) *Chunk)) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn(func(coord ChunkCoord) *Chunk { return r.chunks[coord] })
}

// MutateAllExclusive calls fn for every resident record under the registry's
// exclusive lock. Used by pause, which resets lifecycle state for every
// record and must not race a concurrent insertion.
func (r *Registry) MutateAllExclusive(fn func(c *Chunk)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.chunks {
		fn(c)
	}
}

// EvictWhere removes every resident record for which pred returns true,
// releasing its mesh via release first. Runs under the exclusive lock so no
// lookup can observe a half-removed record. Returns the number removed.
func (r *Registry) EvictWhere(pred func(c *Chunk) bool, release func(c *Chunk)) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for coord, c := range r.chunks {
		if !pred(c) {
			continue
		}
		if release != nil {
			release(c)
		}
		delete(r.chunks, coord)
		removed++
	}
	return removed
}
