package world

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestVelocityTrackerUnknownUntilFastEnough(t *testing.T) {
	v := NewVelocityTracker()
	if w := v.Weight(1, 0); w != 1.0 {
		t.Fatalf("Weight with no samples = %v, want 1.0", w)
	}
	v.Update(mgl32.Vec2{0, 0}, 1.0)
	v.Update(mgl32.Vec2{1, 0}, 1.0) // speed 1 blocks/sec, below the 2.0 threshold
	if w := v.Weight(1, 0); w != 1.0 {
		t.Fatalf("Weight below direction threshold = %v, want 1.0", w)
	}
}

func TestVelocityTrackerWeightAheadAndBehind(t *testing.T) {
	v := NewVelocityTracker()
	v.Update(mgl32.Vec2{0, 0}, 1.0)
	v.Update(mgl32.Vec2{10, 0}, 1.0) // speed 10 blocks/sec along +X

	if w := v.Weight(1, 0); absF(w-0.5) > 1e-6 {
		t.Fatalf("Weight directly ahead = %v, want 0.5", w)
	}
	if w := v.Weight(-1, 0); absF(w-1.5) > 1e-6 {
		t.Fatalf("Weight directly behind = %v, want 1.5", w)
	}
}

func TestVelocityTrackerWeightAtObserverChunk(t *testing.T) {
	v := NewVelocityTracker()
	v.Update(mgl32.Vec2{0, 0}, 1.0)
	v.Update(mgl32.Vec2{10, 0}, 1.0)
	if w := v.Weight(0, 0); w != 0.5 {
		t.Fatalf("Weight at observer's own chunk = %v, want 0.5 by convention", w)
	}
}

func TestVelocityTrackerIgnoresTinyDt(t *testing.T) {
	v := NewVelocityTracker()
	v.Update(mgl32.Vec2{0, 0}, 1.0)
	v.Update(mgl32.Vec2{0, 0}, 0) // dt<=eps, ignored
	if w := v.Weight(1, 0); w != 1.0 {
		t.Fatalf("Weight after zero-dt update = %v, want 1.0 (no direction established)", w)
	}
}

func absF(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
