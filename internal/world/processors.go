package world

import "log"

// staleLimitSq returns (R+B)^2, the squared distance beyond which a queued
// job is considered stale.
func (w *World) staleLimitSq() int64 {
	limit := int64(w.opts.RenderDistance() + w.opts.UnloadBuffer())
	return limit * limit
}

// generationProcessor handles generation jobs: look up, check staleness,
// pin, release the lock, then (if the record is still in the expected state
// for this token) generate.
func generationProcessor(w *World, job *Job) {
	var pinned *Chunk
	w.registry.WithReadLock(func(lookup func(ChunkCoord) *Chunk) {
		c := lookup(job.Coord)
		if c == nil {
			return
		}
		pc := w.ObserverChunk()
		if c.Coord.DistSq(pc) > w.staleLimitSq() {
			c.CompareAndSwapState(StateGenerating, StateMissing)
			return
		}
		c.Pin()
		pinned = c
	})
	if pinned == nil {
		return
	}
	defer pinned.Unpin()

	if pinned.State() != StateGenerating || pinned.Token != job.Token {
		return
	}

	pinned.EnsureVoxels()
	w.generator.Generate(pinned.Coord, pinned.Voxels, w.genQueue.AbortRequested)
	if w.genQueue.AbortRequested() {
		pinned.SetState(StateMissing)
		return
	}
	// Re-check staleness: the observer may have moved far away during the
	// (potentially lengthy) generate call. A slow generator racing a
	// teleporting observer must not leave a distant record stuck resident.
	if pinned.Coord.DistSq(w.ObserverChunk()) > w.staleLimitSq() {
		pinned.SetState(StateMissing)
		return
	}
	pinned.SetState(StateGenerated)
	w.propagateRemesh(pinned.Coord)
}

// meshingProcessor handles meshing jobs, additionally pinning the four
// planar neighbors so their voxel reads stay valid across the build.
func meshingProcessor(w *World, job *Job) {
	var self *Chunk
	var neighbors [4]*Chunk

	w.registry.WithReadLock(func(lookup func(ChunkCoord) *Chunk) {
		c := lookup(job.Coord)
		if c == nil {
			return
		}
		pc := w.ObserverChunk()
		if c.Coord.DistSq(pc) > w.staleLimitSq() {
			c.CompareAndSwapState(StateMeshing, StateGenerated)
			return
		}
		c.Pin()
		self = c
		for i, nc := range c.Coord.Neighbors() {
			if n := lookup(nc); n != nil {
				n.Pin()
				neighbors[i] = n
			}
		}
	})
	if self == nil {
		return
	}
	defer func() {
		self.Unpin()
		for _, n := range neighbors {
			if n != nil {
				n.Unpin()
			}
		}
	}()

	if self.State() != StateMeshing || self.Token != job.Token {
		return
	}

	var nv NeighborVoxels
	if neighbors[0] != nil {
		nv.North = neighbors[0].Voxels
	}
	if neighbors[1] != nil {
		nv.South = neighbors[1].Voxels
	}
	if neighbors[2] != nil {
		nv.East = neighbors[2].Voxels
	}
	if neighbors[3] != nil {
		nv.West = neighbors[3].Voxels
	}

	mesh, err := w.mesher.Build(self.Coord, self.Voxels, nv)
	if w.meshQueue.AbortRequested() {
		self.SetState(StateGenerated)
		return
	}
	if self.Coord.DistSq(w.ObserverChunk()) > w.staleLimitSq() {
		self.SetState(StateGenerated)
		return
	}
	if err != nil {
		log.Printf("world: mesh build failed for chunk (%d,%d): %v", self.Coord.CX, self.Coord.CZ, err)
		self.SetState(StateGenerated)
		return
	}
	self.Mesh = mesh
	self.SetState(StateMeshReady)
}

// propagateRemesh runs after generation of coord completes: each present
// planar neighbor whose mesh depended on "air" assumptions at the shared
// boundary must be remeshed.
func (w *World) propagateRemesh(coord ChunkCoord) {
	for _, nc := range coord.Neighbors() {
		n := w.registry.Get(nc)
		if n == nil {
			continue
		}
		switch n.State() {
		case StateRenderable:
			n.CompareAndSwapState(StateRenderable, StateGenerated)
		case StateMeshReady, StateUploading, StateMeshing:
			n.SetDirty(true)
		}
	}
}
