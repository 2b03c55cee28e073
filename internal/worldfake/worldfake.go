// Package worldfake provides small deterministic fakes for the terrain
// generator, mesh builder and render backend interfaces the world package
// consumes. The streaming core never ships a concrete noise generator,
// mesher or GPU backend; these fakes exist so tests and the demo command
// can drive a World without depending on any of that.
package worldfake

import (
	"sync"

	"github.com/go-gl/mathgl/mgl32"

	"chunkstream/internal/world"
)

// FlatGenerator is a deterministic TerrainGenerator: every column below
// Height is Stone, everything at or above is air. Given the same Seed and
// the same chunk coordinate it always produces byte-identical voxels,
// since it reads neither wall-clock time nor any other external state.
type FlatGenerator struct {
	Seed   int64
	Height int
	Stone  world.BlockType
}

// NewFlatGenerator creates a generator with a visible default stone level.
func NewFlatGenerator(seed int64) *FlatGenerator {
	return &FlatGenerator{Seed: seed, Height: 64, Stone: world.BlockType(1)}
}

// Generate fills voxels with Stone for y in [0, Height) and leaves the rest
// as air (the slice is assumed freshly allocated/zeroed). It polls abort
// periodically so tests can exercise cancellation without the call itself
// blocking on anything but CPU work.
func (g *FlatGenerator) Generate(coord world.ChunkCoord, voxels []world.BlockType, abort func() bool) {
	h := g.Height
	if h > world.ChunkSizeY {
		h = world.ChunkSizeY
	}
	for x := 0; x < world.ChunkSizeX; x++ {
		if abort != nil && abort() {
			return
		}
		for z := 0; z < world.ChunkSizeZ; z++ {
			for y := 0; y < h; y++ {
				voxels[(x*world.ChunkSizeZ+z)*world.ChunkSizeY+y] = g.Stone
			}
		}
	}
}

// BoundingBoxMesher is a stub MeshBuilder: it "builds" a mesh that is just a
// vertex count derived from the column's non-air voxels plus a record of
// which neighbor sides were present, standing in for a real mesher.
// Deterministic given the same voxel content.
type BoundingBoxMesher struct{}

// Mesh is the handle type BoundingBoxMesher produces and RecordingBackend
// consumes — a stand-in for a real GPU mesh handle.
type Mesh struct {
	Coord        world.ChunkCoord
	VertexCount  int
	NeighborMask int // bit0=north present, bit1=south, bit2=east, bit3=west
	Uploaded     bool
}

// GetVertexCount implements the optional vertex-count method World.Render
// looks for on a mesh handle, so this fake's meshes feed the per-frame
// vertex counter.
func (m *Mesh) GetVertexCount() int { return m.VertexCount }

// Build counts non-air voxels as a crude proxy for vertex count and records
// which planar neighbors were supplied.
func (m *BoundingBoxMesher) Build(coord world.ChunkCoord, voxels []world.BlockType, neighbors world.NeighborVoxels) (any, error) {
	count := 0
	for _, b := range voxels {
		if b != world.BlockTypeAir {
			count++
		}
	}
	mask := 0
	if neighbors.North != nil {
		mask |= 1
	}
	if neighbors.South != nil {
		mask |= 2
	}
	if neighbors.East != nil {
		mask |= 4
	}
	if neighbors.West != nil {
		mask |= 8
	}
	return &Mesh{Coord: coord, VertexCount: count, NeighborMask: mask}, nil
}

// RecordingBackend is a RenderBackend fake that records every call instead
// of touching a GPU, so tests can assert on upload/release/draw counts.
type RecordingBackend struct {
	mu sync.Mutex

	Uploads  []world.ChunkCoord
	Releases []world.ChunkCoord
	Draws    map[world.RenderPass]int
	Idled    int

	// FailUpload, if set, makes Upload return an error for the given coord
	// once, simulating a backend failure during upload.
	FailUpload map[world.ChunkCoord]bool
}

// NewRecordingBackend creates an empty RecordingBackend.
func NewRecordingBackend() *RecordingBackend {
	return &RecordingBackend{
		Draws:      make(map[world.RenderPass]int),
		FailUpload: make(map[world.ChunkCoord]bool),
	}
}

func (b *RecordingBackend) Upload(mesh any) error {
	m := mesh.(*Mesh)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.FailUpload[m.Coord] {
		delete(b.FailUpload, m.Coord)
		return errUploadFailed
	}
	m.Uploaded = true
	b.Uploads = append(b.Uploads, m.Coord)
	return nil
}

func (b *RecordingBackend) Release(mesh any) {
	m := mesh.(*Mesh)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Releases = append(b.Releases, m.Coord)
}

func (b *RecordingBackend) SetModelMatrix(m mgl32.Mat4) {}

func (b *RecordingBackend) Draw(mesh any, pass world.RenderPass) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Draws[pass]++
}

func (b *RecordingBackend) WaitIdle() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Idled++
}

type uploadFailedError struct{}

func (uploadFailedError) Error() string { return "worldfake: simulated upload failure" }

var errUploadFailed = uploadFailedError{}
