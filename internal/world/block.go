package world

// BlockType identifies the voxel occupying a single grid cell. The concrete
// palette (opacity, solidity, render hints) belongs to a collaborator block
// module that is out of scope here; only air needs a known value because the
// registry and the mesh builder contract treat it specially (an absent
// neighbor is always read as air).
type BlockType uint16

const BlockTypeAir BlockType = 0

// Chunk dimensions, in blocks. One record covers the full world height, so
// there is no vertical chunk index: a chunk coordinate is purely (cx, cz).
const (
	ChunkSizeX = 16
	ChunkSizeY = 256
	ChunkSizeZ = 16

	voxelsPerChunk = ChunkSizeX * ChunkSizeY * ChunkSizeZ
)

// voxelIndex maps chunk-local coordinates to an offset in a dense voxel slice.
func voxelIndex(x, y, z int) int {
	return (x*ChunkSizeZ+z)*ChunkSizeY + y
}
