package world

import (
	"log"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-gl/mathgl/mgl32"
)

// slowTickThreshold is the per-tick processing budget (one 60fps frame)
// above which Update logs a breakdown of the slowest tracked tasks.
const slowTickThreshold = 16 * time.Millisecond

// World is the streaming orchestrator: it owns the registry and both
// pipelines, and is driven by a single rendering thread via Update and
// Render. GetBlock/SetBlock, Pause/Resume and Stats are also part of its
// public surface.
type World struct {
	opts *Options
	seed int64

	registry *Registry

	genQueue  *JobQueue
	meshQueue *JobQueue
	genPool   *WorkerPool
	meshPool  *WorkerPool

	uploadQueue chan *Chunk

	generator TerrainGenerator
	mesher    MeshBuilder
	backend   RenderBackend

	velocity *VelocityTracker
	prof     *tickProfiler

	observerMu sync.RWMutex
	lastPC     ChunkCoord
	hasLastPC  bool

	paused int32 // atomic bool

	renderMu   sync.Mutex
	lastRender RenderStats
}

// RenderStats is the per-frame counter snapshot taken by Render.
// Vertices is accumulated only for meshes that expose a vertex count (see
// meshVertexCounter); opaque handles that don't are still drawn, just not
// counted.
type RenderStats struct {
	Total    int
	Rendered int
	Culled   int
	Vertices int
}

// meshVertexCounter is the optional introspection surface a mesh handle may
// implement for the per-frame vertex counter.
type meshVertexCounter interface {
	GetVertexCount() int
}

// Stats is a diagnostic snapshot returned by World.Stats.
type Stats struct {
	ChunksLoaded int

	Missing     int
	Generating  int
	Generated   int
	Meshing     int
	MeshReady   int
	Uploading   int
	Renderable  int

	GenQueueDepth    int
	MeshQueueDepth   int
	UploadQueueDepth int

	LastRenderTotal    int
	LastRenderRendered int
	LastRenderCulled   int
	LastRenderVertices int

	// ProfileTopPhases is the formatted breakdown of the slowest pipeline
	// phases from the most recently completed Update tick.
	ProfileTopPhases string
}

// New creates a World. The terrain generator, mesh builder and render
// backend are supplied by the caller rather than constructed from seed
// internally, so the core never hardcodes a concrete implementation of any
// of them; seed is retained for callers that want to thread it through and
// is exposed via Seed().
func New(opts *Options, seed int64, generator TerrainGenerator, mesher MeshBuilder, backend RenderBackend, genWorkers, meshWorkers int) *World {
	if opts == nil {
		opts = NewOptions(DefaultRenderDistance, DefaultUnloadBuffer, DefaultUploadBatchSize)
	}
	if genWorkers <= 0 {
		genWorkers = DefaultGenWorkers
	}
	if meshWorkers <= 0 {
		meshWorkers = DefaultMeshWorkers
	}

	w := &World{
		opts:        opts,
		seed:        seed,
		registry:    NewRegistry(),
		genQueue:    NewJobQueue(),
		meshQueue:   NewJobQueue(),
		uploadQueue: make(chan *Chunk, 65536),
		generator:   generator,
		mesher:      mesher,
		backend:     backend,
		velocity:    NewVelocityTracker(),
		prof:        newTickProfiler(),
	}
	w.genPool = NewWorkerPool(genWorkers, w.genQueue, w, generationProcessor)
	w.meshPool = NewWorkerPool(meshWorkers, w.meshQueue, w, meshingProcessor)
	return w
}

// Close stops both worker pools, joining every worker goroutine, then waits
// for GPU work in flight to complete so the caller can safely tear down the
// backend.
func (w *World) Close() {
	w.genPool.Stop()
	w.meshPool.Stop()
	w.backend.WaitIdle()
}

// Seed returns the world seed the terrain generator was (expected to be)
// constructed with.
func (w *World) Seed() int64 { return w.seed }

// Options exposes the runtime-tunable knobs.
func (w *World) Options() *Options { return w.opts }

// ObserverChunk returns the most recently observed observer chunk
// coordinate (thread-safe; read by worker processors for the staleness
// check).
func (w *World) ObserverChunk() ChunkCoord {
	w.observerMu.RLock()
	defer w.observerMu.RUnlock()
	return w.lastPC
}

func chunkCoordFromWorld(x, z float32) ChunkCoord {
	return ChunkCoord{
		CX: int32(floorDivF(x, ChunkSizeX)),
		CZ: int32(floorDivF(z, ChunkSizeZ)),
	}
}

func floorDivF(v float32, size int) int {
	return int(math.Floor(float64(v) / float64(size)))
}

func floorDiv(a, b int) int {
	if a < 0 {
		return (a - b + 1) / b
	}
	return a / b
}

func mod(a, b int) int {
	r := a % b
	if r < 0 {
		r += b
	}
	return r
}

// Paused reports whether the pipeline is currently frozen.
func (w *World) Paused() bool {
	return atomic.LoadInt32(&w.paused) != 0
}

// Update advances the streaming pipeline by one tick: rescan the
// neighborhood if the observer moved chunks, promote generated chunks,
// drain uploads, evict far chunks. Returns immediately without doing
// anything if the world is paused.
func (w *World) Update(observerPos mgl32.Vec3, dt float32) error {
	if w.Paused() {
		return nil
	}

	w.prof.reset()
	tickStart := time.Now()
	defer func() {
		if d := time.Since(tickStart); d > slowTickThreshold {
			log.Printf("world: slow tick: %v. Top phases: %s", d, w.prof.top(5))
		}
	}()

	w.velocity.Update(mgl32.Vec2{observerPos.X(), observerPos.Z()}, dt)

	pc := chunkCoordFromWorld(observerPos.X(), observerPos.Z())

	w.observerMu.RLock()
	changed := !w.hasLastPC || pc != w.lastPC
	w.observerMu.RUnlock()

	if changed {
		w.observerMu.Lock()
		w.lastPC = pc
		w.hasLastPC = true
		w.observerMu.Unlock()

		priorityFn := func(c ChunkCoord) int64 { return w.priorityFor(c, pc) }
		w.genQueue.UpdateObserver(priorityFn)
		w.meshQueue.UpdateObserver(priorityFn)

		w.scanNeighborhood(pc)
	}

	w.promoteGenerated(pc)
	w.drainUploads()
	w.evict(pc)
	return nil
}

// priorityFor computes the velocity-biased priority for a chunk relative to
// the observer chunk: squared distance scaled by the heading weight.
func (w *World) priorityFor(coord, observer ChunkCoord) int64 {
	d2 := coord.DistSq(observer)
	weight := w.velocity.Weight(coord.CX-observer.CX, coord.CZ-observer.CZ)
	return int64(math.Round(float64(d2) * weight))
}

// scanNeighborhood enqueues generation for every missing chunk inside the
// render-distance disk.
func (w *World) scanNeighborhood(pc ChunkCoord) {
	defer w.prof.track("scan")()
	r := int32(w.opts.RenderDistance())
	r2 := int64(r) * int64(r)

	for dx := -r; dx <= r; dx++ {
		for dz := -r; dz <= r; dz++ {
			coord := ChunkCoord{CX: pc.CX + dx, CZ: pc.CZ + dz}
			if coord.DistSq(pc) > r2 {
				continue
			}
			c := w.registry.GetOrCreate(coord)
			if c.CompareAndSwapState(StateMissing, StateGenerating) {
				w.genQueue.Push(&Job{
					Kind:     JobGeneration,
					Coord:    coord,
					Token:    c.Token,
					Priority: w.priorityFor(coord, pc),
				})
			}
		}
	}
}

// promoteGenerated promotes generated chunks to meshing, mesh-ready chunks
// to uploading, and demotes dirty renderable chunks for remesh.
func (w *World) promoteGenerated(pc ChunkCoord) {
	defer w.prof.track("promote")()
	r := int64(w.opts.RenderDistance())
	r2 := r * r

	w.registry.Range(func(c *Chunk) {
		if c.Coord.DistSq(pc) > r2 {
			return
		}
		switch c.State() {
		case StateGenerated:
			if c.CompareAndSwapState(StateGenerated, StateMeshing) {
				w.meshQueue.Push(&Job{
					Kind:     JobMeshing,
					Coord:    c.Coord,
					Token:    c.Token,
					Priority: w.priorityFor(c.Coord, pc),
				})
			}
		case StateMeshReady:
			if c.CompareAndSwapState(StateMeshReady, StateUploading) {
				select {
				case w.uploadQueue <- c:
				default:
					// Upload queue saturated: retry next tick.
					c.CompareAndSwapState(StateUploading, StateMeshReady)
				}
			}
		case StateRenderable:
			if c.Dirty() {
				if c.CompareAndSwapState(StateRenderable, StateGenerated) {
					c.SetDirty(false)
				}
			}
		}
	})
}

// drainUploads moves up to the configured batch size from the upload queue
// into the render backend.
func (w *World) drainUploads() {
	defer w.prof.track("upload")()
	batch := int(w.opts.UploadBatchSize())
	for i := 0; i < batch; i++ {
		select {
		case c := <-w.uploadQueue:
			w.upload(c)
		default:
			return
		}
	}
}

func (w *World) upload(c *Chunk) {
	if err := w.backend.Upload(c.Mesh); err != nil {
		// Backend failure: retry mesh+upload from scratch.
		log.Printf("world: upload failed for chunk (%d,%d): %v", c.Coord.CX, c.Coord.CZ, err)
		c.CompareAndSwapState(StateUploading, StateGenerated)
		return
	}
	// If the state is no longer StateUploading, a neighbor change reset it
	// (e.g. propagateRemesh) while upload was in flight; leave it alone.
	c.CompareAndSwapState(StateUploading, StateRenderable)
}

// evict removes every chunk past (R+B) that is not mid-pipeline and not
// pinned by a worker.
func (w *World) evict(pc ChunkCoord) {
	defer w.prof.track("evict")()
	limit := w.staleLimitSq()
	w.registry.EvictWhere(
		func(c *Chunk) bool {
			if c.Coord.DistSq(pc) <= limit {
				return false
			}
			return c.Evictable()
		},
		func(c *Chunk) {
			if c.Mesh != nil {
				w.backend.Release(c.Mesh)
			}
		},
	)
}

// Pause freezes the pipeline: future Update calls are no-ops, both queues
// are paused, and every in-flight reserved state is reset.
func (w *World) Pause() {
	atomic.StoreInt32(&w.paused, 1)
	w.genQueue.SetPaused(true)
	w.meshQueue.SetPaused(true)
	w.registry.MutateAllExclusive(func(c *Chunk) {
		switch c.State() {
		case StateGenerating:
			c.SetState(StateMissing)
		case StateMeshing:
			c.SetState(StateGenerated)
		}
	})
}

// Resume thaws the pipeline and forces the next Update to rescan the full
// neighborhood.
func (w *World) Resume() {
	w.genQueue.SetPaused(false)
	w.meshQueue.SetPaused(false)
	w.observerMu.Lock()
	w.hasLastPC = false
	w.observerMu.Unlock()
	atomic.StoreInt32(&w.paused, 0)
}

// Render draws every renderable chunk within render distance that passes
// frustum culling, in two passes: opaque then translucent.
func (w *World) Render(viewProj mgl32.Mat4, observerPos mgl32.Vec3) RenderStats {
	defer w.prof.track("render")()
	planes := extractFrustumPlanes(viewProj)
	pc := chunkCoordFromWorld(observerPos.X(), observerPos.Z())
	r2 := int64(w.opts.RenderDistance()) * int64(w.opts.RenderDistance())

	var visible []*Chunk
	var stats RenderStats

	w.registry.Range(func(c *Chunk) {
		if c.Coord.DistSq(pc) > r2 {
			return
		}
		stats.Total++
		if c.State() != StateRenderable {
			return
		}
		min, max := chunkAABB(c.Coord)
		if !aabbIntersectsFrustum(min, max, planes) {
			stats.Culled++
			return
		}
		stats.Rendered++
		if vc, ok := c.Mesh.(meshVertexCounter); ok {
			stats.Vertices += vc.GetVertexCount()
		}
		visible = append(visible, c)
	})

	for _, c := range visible {
		w.backend.SetModelMatrix(modelMatrixFor(c.Coord))
		w.backend.Draw(c.Mesh, PassOpaque)
	}
	for _, c := range visible {
		w.backend.SetModelMatrix(modelMatrixFor(c.Coord))
		w.backend.Draw(c.Mesh, PassTranslucent)
	}

	w.renderMu.Lock()
	w.lastRender = stats
	w.renderMu.Unlock()
	return stats
}

func modelMatrixFor(coord ChunkCoord) mgl32.Mat4 {
	return mgl32.Translate3D(float32(coord.CX*ChunkSizeX), 0, float32(coord.CZ*ChunkSizeZ))
}

// GetBlock reads a single voxel from the world; air if the containing
// chunk is absent or y is out of range.
func (w *World) GetBlock(x, y, z int) BlockType {
	if y < 0 || y >= ChunkSizeY {
		return BlockTypeAir
	}
	coord := ChunkCoord{CX: int32(floorDiv(x, ChunkSizeX)), CZ: int32(floorDiv(z, ChunkSizeZ))}
	c := w.registry.Get(coord)
	if c == nil {
		return BlockTypeAir
	}
	return c.BlockAt(mod(x, ChunkSizeX), y, mod(z, ChunkSizeZ))
}

// SetBlock is the single-writer mutation API; concurrent edits are not
// supported. It creates the chunk if absent.
//
// An edit marks the chunk dirty so the renderable-to-generated demotion in
// promoteGenerated picks it up on the very next tick, the same mechanism
// neighbor-remesh propagation already relies on. No separate re-enqueue
// path exists for edits.
func (w *World) SetBlock(x, y, z int, b BlockType) {
	if y < 0 || y >= ChunkSizeY {
		return
	}
	coord := ChunkCoord{CX: int32(floorDiv(x, ChunkSizeX)), CZ: int32(floorDiv(z, ChunkSizeZ))}
	c := w.registry.GetOrCreate(coord)
	c.SetBlockAt(mod(x, ChunkSizeX), y, mod(z, ChunkSizeZ), b)
	c.SetDirty(true)
}

// ChunkState reports the lifecycle state of the record at coord, and
// whether it is resident at all. Primarily a diagnostic/testing hook; the
// orchestrator itself never needs to query a single chunk's state from the
// outside, since it owns the registry directly.
func (w *World) ChunkState(coord ChunkCoord) (State, bool) {
	c := w.registry.Get(coord)
	if c == nil {
		return 0, false
	}
	return c.State(), true
}

// Stats returns a snapshot of registry, queue and render counters.
func (w *World) Stats() Stats {
	var s Stats
	w.registry.Range(func(c *Chunk) {
		s.ChunksLoaded++
		switch c.State() {
		case StateMissing:
			s.Missing++
		case StateGenerating:
			s.Generating++
		case StateGenerated:
			s.Generated++
		case StateMeshing:
			s.Meshing++
		case StateMeshReady:
			s.MeshReady++
		case StateUploading:
			s.Uploading++
		case StateRenderable:
			s.Renderable++
		}
	})
	s.GenQueueDepth = w.genQueue.Len()
	s.MeshQueueDepth = w.meshQueue.Len()
	s.UploadQueueDepth = len(w.uploadQueue)

	w.renderMu.Lock()
	s.LastRenderTotal = w.lastRender.Total
	s.LastRenderRendered = w.lastRender.Rendered
	s.LastRenderCulled = w.lastRender.Culled
	s.LastRenderVertices = w.lastRender.Vertices
	w.renderMu.Unlock()

	s.ProfileTopPhases = w.prof.top(5)
	return s
}
