package world

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// plane is a half-space boundary in ax+by+cz+d >= 0 form. Frustum culling
// is the one graphics concern the orchestrator performs itself rather than
// delegating to the render backend, since culling decides which renderable
// chunks are even worth a draw call.
type plane struct {
	a, b, c, d float32
}

// extractFrustumPlanes builds six planes from a combined projection*view
// matrix. Order: left, right, bottom, top, near, far.
func extractFrustumPlanes(clip mgl32.Mat4) [6]plane {
	m00, m01, m02, m03 := clip[0], clip[4], clip[8], clip[12]
	m10, m11, m12, m13 := clip[1], clip[5], clip[9], clip[13]
	m20, m21, m22, m23 := clip[2], clip[6], clip[10], clip[14]
	m30, m31, m32, m33 := clip[3], clip[7], clip[11], clip[15]

	var pl [6]plane
	pl[0] = normalizePlane(plane{m30 + m00, m31 + m01, m32 + m02, m33 + m03})
	pl[1] = normalizePlane(plane{m30 - m00, m31 - m01, m32 - m02, m33 - m03})
	pl[2] = normalizePlane(plane{m30 + m10, m31 + m11, m32 + m12, m33 + m13})
	pl[3] = normalizePlane(plane{m30 - m10, m31 - m11, m32 - m12, m33 - m13})
	pl[4] = normalizePlane(plane{m30 + m20, m31 + m21, m32 + m22, m33 + m23})
	pl[5] = normalizePlane(plane{m30 - m20, m31 - m21, m32 - m22, m33 - m23})
	return pl
}

func normalizePlane(p plane) plane {
	l := float32(math.Sqrt(float64(p.a*p.a + p.b*p.b + p.c*p.c)))
	if l == 0 {
		return p
	}
	return plane{p.a / l, p.b / l, p.c / l, p.d / l}
}

// aabbIntersectsFrustum tests an axis-aligned box against precomputed planes
// using the standard positive-vertex trick: a box is outside iff its most
// favorable corner for a given plane is still behind it.
func aabbIntersectsFrustum(min, max mgl32.Vec3, planes [6]plane) bool {
	for _, p := range planes {
		px := max[0]
		if p.a < 0 {
			px = min[0]
		}
		py := max[1]
		if p.b < 0 {
			py = min[1]
		}
		pz := max[2]
		if p.c < 0 {
			pz = min[2]
		}
		if p.a*px+p.b*py+p.c*pz+p.d < 0 {
			return false
		}
	}
	return true
}

// chunkAABB returns the world-space bounding box of a chunk column.
func chunkAABB(coord ChunkCoord) (min, max mgl32.Vec3) {
	minX := float32(coord.CX * ChunkSizeX)
	minZ := float32(coord.CZ * ChunkSizeZ)
	min = mgl32.Vec3{minX, 0, minZ}
	max = mgl32.Vec3{minX + ChunkSizeX, ChunkSizeY, minZ + ChunkSizeZ}
	return min, max
}
