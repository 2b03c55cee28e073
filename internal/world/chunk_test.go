package world

import "testing"

func TestChunkStateTransitions(t *testing.T) {
	c := NewChunk(ChunkCoord{0, 0}, 1)
	if c.State() != StateMissing {
		t.Fatalf("new chunk state = %v, want missing", c.State())
	}
	if !c.CompareAndSwapState(StateMissing, StateGenerating) {
		t.Fatal("expected CAS missing->generating to succeed")
	}
	if c.CompareAndSwapState(StateMissing, StateGenerating) {
		t.Fatal("expected second CAS missing->generating to fail")
	}
	if c.State() != StateGenerating {
		t.Fatalf("state = %v, want generating", c.State())
	}
}

func TestChunkTokenImmutable(t *testing.T) {
	c := NewChunk(ChunkCoord{3, 4}, 42)
	if c.Token != 42 {
		t.Fatalf("token = %d, want 42", c.Token)
	}
	c.SetState(StateRenderable)
	if c.Token != 42 {
		t.Fatalf("token changed to %d after state transitions", c.Token)
	}
}

func TestChunkPinUnpin(t *testing.T) {
	c := NewChunk(ChunkCoord{0, 0}, 1)
	if c.PinCount() != 0 {
		t.Fatalf("initial pin count = %d, want 0", c.PinCount())
	}
	c.Pin()
	c.Pin()
	if c.PinCount() != 2 {
		t.Fatalf("pin count = %d, want 2", c.PinCount())
	}
	c.Unpin()
	if c.PinCount() != 1 {
		t.Fatalf("pin count = %d, want 1", c.PinCount())
	}
	c.Unpin()
	if c.PinCount() != 0 {
		t.Fatalf("pin count = %d, want 0", c.PinCount())
	}
}

func TestChunkUnpinUnderflowPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected Unpin on a zero pin count to panic")
		}
	}()
	c := NewChunk(ChunkCoord{0, 0}, 1)
	c.Unpin()
}

func TestChunkEvictable(t *testing.T) {
	cases := []struct {
		state     State
		pins      int32
		evictable bool
	}{
		{StateMissing, 0, true},
		{StateGenerating, 0, false},
		{StateMeshing, 0, false},
		{StateMeshReady, 0, false},
		{StateUploading, 0, false},
		{StateRenderable, 0, true},
		{StateRenderable, 1, false},
		{StateGenerated, 0, true},
		{StateGenerated, 1, false},
	}
	for _, tc := range cases {
		c := NewChunk(ChunkCoord{0, 0}, 1)
		c.SetState(tc.state)
		for i := int32(0); i < tc.pins; i++ {
			c.Pin()
		}
		if got := c.Evictable(); got != tc.evictable {
			t.Errorf("state=%v pins=%d: Evictable() = %v, want %v", tc.state, tc.pins, got, tc.evictable)
		}
	}
}

func TestBlockAtAirOutsideGrid(t *testing.T) {
	c := NewChunk(ChunkCoord{0, 0}, 1)
	if b := c.BlockAt(0, 0, 0); b != BlockTypeAir {
		t.Fatalf("unallocated voxel = %v, want air", b)
	}
	if b := c.BlockAt(-1, 0, 0); b != BlockTypeAir {
		t.Fatalf("out-of-range voxel = %v, want air", b)
	}
}

func TestSetBlockAtRoundTrip(t *testing.T) {
	c := NewChunk(ChunkCoord{0, 0}, 1)
	c.SetBlockAt(5, 10, 7, BlockType(3))
	if b := c.BlockAt(5, 10, 7); b != BlockType(3) {
		t.Fatalf("BlockAt = %v, want 3", b)
	}
	if b := c.BlockAt(5, 11, 7); b != BlockTypeAir {
		t.Fatalf("neighboring voxel = %v, want air", b)
	}
}

func TestChunkCoordNeighbors(t *testing.T) {
	c := ChunkCoord{CX: 5, CZ: -3}
	n := c.Neighbors()
	want := [4]ChunkCoord{{5, -4}, {5, -2}, {6, -3}, {4, -3}}
	if n != want {
		t.Fatalf("Neighbors() = %v, want %v", n, want)
	}
}

func TestChunkCoordDistSq(t *testing.T) {
	a := ChunkCoord{CX: 0, CZ: 0}
	b := ChunkCoord{CX: 3, CZ: 4}
	if d := a.DistSq(b); d != 25 {
		t.Fatalf("DistSq = %d, want 25", d)
	}
}
