package world

import "github.com/go-gl/mathgl/mgl32"

// minSpeedForDirection is the threshold (blocks/sec) below which the
// observer's heading is considered unknown.
const minSpeedForDirection = 2.0

// VelocityTracker biases job priority toward the direction the observer is
// heading, deriving a direction vector from consecutive positions.
type VelocityTracker struct {
	lastPos mgl32.Vec2
	hasLast bool
	dir     mgl32.Vec2
	hasDir  bool
}

// NewVelocityTracker creates a tracker with no known position or heading.
func NewVelocityTracker() *VelocityTracker {
	return &VelocityTracker{}
}

// Update feeds a new horizontal observer position and the frame delta. dt
// values at or below a small epsilon are ignored (stale/zero-time frames).
func (v *VelocityTracker) Update(pos mgl32.Vec2, dt float32) {
	const eps = 1e-6
	if dt <= eps {
		return
	}
	if !v.hasLast {
		v.lastPos = pos
		v.hasLast = true
		return
	}

	delta := pos.Sub(v.lastPos)
	v.lastPos = pos

	speed := delta.Len() / dt
	if speed < minSpeedForDirection {
		v.hasDir = false
		return
	}
	v.dir = delta.Mul(1.0 / delta.Len())
	v.hasDir = true
}

// Weight returns the priority multiplier for a chunk offset (Δcx, Δcz) from
// the observer chunk, in [0.5, 1.5]. Chunks ahead of motion get 0.5 (served
// as if half as far away); chunks behind get 1.5. Returns 1.0 when no
// heading is known, and 0.5 by convention for the observer's own chunk.
func (v *VelocityTracker) Weight(dcx, dcz int32) float64 {
	if !v.hasDir {
		return 1.0
	}
	offset := mgl32.Vec2{float32(dcx), float32(dcz)}
	if offset.Len() == 0 {
		return 0.5
	}
	cosTheta := offset.Normalize().Dot(v.dir)
	return 1.0 - 0.5*float64(cosTheta)
}
