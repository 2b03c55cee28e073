package world

import "github.com/go-gl/mathgl/mgl32"

// TerrainGenerator populates a chunk's voxel grid. Concrete noise functions
// and biome selection live outside this module; callers supply an
// implementation (a real noise stack, or a deterministic fake for tests).
// Generate must poll abort and return promptly once it is set.
// Implementations constructed with the same seed must be deterministic:
// identical (cx, cz) input must produce byte-identical voxels.
type TerrainGenerator interface {
	Generate(coord ChunkCoord, voxels []BlockType, abort func() bool)
}

// NeighborVoxels carries optional references to the four planar neighbor
// chunks' voxel grids, used by a MeshBuilder to decide boundary faces. A nil
// entry means that side has no resident neighbor and must be treated as air.
type NeighborVoxels struct {
	North, South, East, West []BlockType
}

// MeshBuilder consumes a chunk's voxels plus its neighbors' voxels and emits
// a mesh. The meshing algorithm itself lives outside this module; this is a
// consumed collaborator interface.
type MeshBuilder interface {
	Build(coord ChunkCoord, voxels []BlockType, neighbors NeighborVoxels) (mesh any, err error)
}

// RenderPass distinguishes the two draw passes a renderable chunk goes
// through.
type RenderPass int

const (
	PassOpaque RenderPass = iota
	PassTranslucent
)

// RenderBackend performs GPU upload and draw. This module never touches a
// concrete graphics API; it only ever calls through this interface.
type RenderBackend interface {
	Upload(mesh any) error
	Release(mesh any)
	SetModelMatrix(m mgl32.Mat4)
	Draw(mesh any, pass RenderPass)
	WaitIdle()
}
