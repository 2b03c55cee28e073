package world

import "sync/atomic"

// ChunkCoord identifies a chunk column by its horizontal position. Two
// coordinates are equal iff both components match, which makes it a valid
// Go map key without a custom Equal/Hash — the runtime's built-in map
// hashing already spreads nearby coordinates well.
type ChunkCoord struct {
	CX, CZ int32
}

// DistSq returns the squared chunk distance between two coordinates.
func (c ChunkCoord) DistSq(o ChunkCoord) int64 {
	dx := int64(c.CX - o.CX)
	dz := int64(c.CZ - o.CZ)
	return dx*dx + dz*dz
}

// North, South, East and West return the four planar neighbor coordinates.
func (c ChunkCoord) North() ChunkCoord { return ChunkCoord{c.CX, c.CZ - 1} }
func (c ChunkCoord) South() ChunkCoord { return ChunkCoord{c.CX, c.CZ + 1} }
func (c ChunkCoord) East() ChunkCoord  { return ChunkCoord{c.CX + 1, c.CZ} }
func (c ChunkCoord) West() ChunkCoord  { return ChunkCoord{c.CX - 1, c.CZ} }

// Neighbors returns the four planar neighbor coordinates in a fixed order.
func (c ChunkCoord) Neighbors() [4]ChunkCoord {
	return [4]ChunkCoord{c.North(), c.South(), c.East(), c.West()}
}

// State is the per-record lifecycle state advanced by the orchestrator and
// by workers. It is stored as an int32 so it can be read and swapped
// atomically without a per-record mutex.
type State int32

const (
	StateMissing State = iota
	StateGenerating
	StateGenerated
	StateMeshing
	StateMeshReady
	StateUploading
	StateRenderable
)

func (s State) String() string {
	switch s {
	case StateMissing:
		return "missing"
	case StateGenerating:
		return "generating"
	case StateGenerated:
		return "generated"
	case StateMeshing:
		return "meshing"
	case StateMeshReady:
		return "mesh_ready"
	case StateUploading:
		return "uploading"
	case StateRenderable:
		return "renderable"
	default:
		return "unknown"
	}
}

// Chunk is the unit of registry storage: a dense voxel grid plus lifecycle
// bookkeeping. Once inserted into a Registry its address never changes for
// the lifetime of its registry membership; workers may hold raw pointers to
// it as long as PinCount() > 0.
//
// Voxels are mutated only by the generation processor while State() is
// StateGenerating; the mesh handle is mutated only by the meshing
// processor while meshing and by the uploader while uploading. No field
// besides state, pin count and dirty is safe to touch without first
// confirming the record is in the expected state for that mutation.
type Chunk struct {
	Coord ChunkCoord

	// Token is assigned once at creation and never changes. It is written
	// before the record is published into the registry and is therefore
	// safe to read without synchronization once a caller has observed the
	// record through the registry.
	Token uint32

	state    int32 // atomic State
	pinCount int32 // atomic, non-negative
	dirty    int32 // atomic bool

	Voxels []BlockType // dense ChunkSizeX*ChunkSizeY*ChunkSizeZ grid
	Mesh   any         // opaque handle owned by the mesh builder / backend
}

// NewChunk creates a record in StateMissing with the given job token.
func NewChunk(coord ChunkCoord, token uint32) *Chunk {
	return &Chunk{
		Coord: coord,
		Token: token,
		state: int32(StateMissing),
		dirty: 1,
	}
}

// EnsureVoxels lazily allocates the dense voxel grid. Only the generation
// processor should call this, and only while the record is StateGenerating.
func (c *Chunk) EnsureVoxels() {
	if c.Voxels == nil {
		c.Voxels = make([]BlockType, voxelsPerChunk)
	}
}

// BlockAt reads a single voxel at chunk-local coordinates; out-of-range and
// unallocated reads are air.
func (c *Chunk) BlockAt(x, y, z int) BlockType {
	if c.Voxels == nil || x < 0 || x >= ChunkSizeX || y < 0 || y >= ChunkSizeY || z < 0 || z >= ChunkSizeZ {
		return BlockTypeAir
	}
	return c.Voxels[voxelIndex(x, y, z)]
}

// SetBlockAt writes a single voxel at chunk-local coordinates, allocating the
// grid on first write. Callers outside the generation processor must only
// invoke this through World.SetBlock, the sole single-writer mutation path;
// concurrent voxel edits are not supported.
func (c *Chunk) SetBlockAt(x, y, z int, b BlockType) {
	if x < 0 || x >= ChunkSizeX || y < 0 || y >= ChunkSizeY || z < 0 || z >= ChunkSizeZ {
		return
	}
	c.EnsureVoxels()
	c.Voxels[voxelIndex(x, y, z)] = b
}

// State returns the current lifecycle state.
func (c *Chunk) State() State {
	return State(atomic.LoadInt32(&c.state))
}

// SetState unconditionally sets the lifecycle state.
func (c *Chunk) SetState(s State) {
	atomic.StoreInt32(&c.state, int32(s))
}

// CompareAndSwapState atomically transitions the record from old to new,
// returning false (and leaving the state untouched) if it was not old.
func (c *Chunk) CompareAndSwapState(old, new State) bool {
	return atomic.CompareAndSwapInt32(&c.state, int32(old), int32(new))
}

// Dirty reports whether the record has pending changes that invalidate its
// current mesh.
func (c *Chunk) Dirty() bool {
	return atomic.LoadInt32(&c.dirty) != 0
}

// SetDirty sets or clears the dirty flag.
func (c *Chunk) SetDirty(v bool) {
	n := int32(0)
	if v {
		n = 1
	}
	atomic.StoreInt32(&c.dirty, n)
}

// Pin increments the pin count. Callers must hold at least the registry's
// shared lock when calling Pin, since the lock is what proved the record is
// still resident.
func (c *Chunk) Pin() {
	atomic.AddInt32(&c.pinCount, 1)
}

// Unpin decrements the pin count. Must be called on every exit path of code
// that called Pin, including error paths. Decrementing past zero indicates a
// logic violation and panics rather than silently corrupting state.
func (c *Chunk) Unpin() {
	if atomic.AddInt32(&c.pinCount, -1) < 0 {
		panic("world: pin count underflow")
	}
}

// PinCount returns a snapshot of the current pin count.
func (c *Chunk) PinCount() int32 {
	return atomic.LoadInt32(&c.pinCount)
}

// Evictable reports whether the record may currently be removed: it must not
// be in any in-flight pipeline state, and no worker may hold a pin on it.
func (c *Chunk) Evictable() bool {
	switch c.State() {
	case StateGenerating, StateMeshing, StateMeshReady, StateUploading:
		return false
	}
	return c.PinCount() == 0
}
