package world

import (
	"testing"
	"time"
)

func TestJobQueuePopOrdersByPriority(t *testing.T) {
	q := NewJobQueue()
	q.Push(&Job{Coord: ChunkCoord{1, 0}, Priority: 30})
	q.Push(&Job{Coord: ChunkCoord{2, 0}, Priority: 10})
	q.Push(&Job{Coord: ChunkCoord{3, 0}, Priority: 20})

	var order []int64
	for i := 0; i < 3; i++ {
		j, ok := q.Pop()
		if !ok {
			t.Fatalf("Pop() returned closed unexpectedly")
		}
		order = append(order, j.Priority)
	}
	want := []int64{10, 20, 30}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("pop order = %v, want %v", order, want)
		}
	}
}

func TestJobQueuePopBlocksUntilPush(t *testing.T) {
	q := NewJobQueue()
	done := make(chan *Job, 1)
	go func() {
		j, ok := q.Pop()
		if !ok {
			done <- nil
			return
		}
		done <- j
	}()

	select {
	case <-done:
		t.Fatal("Pop() returned before any job was pushed")
	case <-time.After(20 * time.Millisecond):
	}

	q.Push(&Job{Coord: ChunkCoord{0, 0}, Priority: 1})
	select {
	case j := <-done:
		if j == nil || j.Priority != 1 {
			t.Fatalf("got %v, want priority 1", j)
		}
	case <-time.After(time.Second):
		t.Fatal("Pop() never returned after Push()")
	}
}

func TestJobQueueStopUnblocksAndStaysClosed(t *testing.T) {
	q := NewJobQueue()
	done := make(chan bool, 1)
	go func() {
		_, ok := q.Pop()
		done <- ok
	}()

	time.Sleep(10 * time.Millisecond)
	q.Stop()

	select {
	case ok := <-done:
		if ok {
			t.Fatal("Pop() should report closed after Stop()")
		}
	case <-time.After(time.Second):
		t.Fatal("Pop() never woke up after Stop()")
	}

	if _, ok := q.Pop(); ok {
		t.Fatal("Pop() on a stopped queue should always report closed")
	}

	q.Push(&Job{Coord: ChunkCoord{0, 0}, Priority: 1})
	if q.Len() != 0 {
		t.Fatal("Push() after Stop() should be a no-op")
	}
}

func TestJobQueuePausedBlocksEvenWithJobsQueued(t *testing.T) {
	q := NewJobQueue()
	q.Push(&Job{Coord: ChunkCoord{0, 0}, Priority: 1})
	q.SetPaused(true)

	done := make(chan bool, 1)
	go func() {
		_, ok := q.Pop()
		done <- ok
	}()

	select {
	case <-done:
		t.Fatal("Pop() should block while paused even though a job is queued")
	case <-time.After(30 * time.Millisecond):
	}

	q.SetPaused(false)
	select {
	case ok := <-done:
		if !ok {
			t.Fatal("Pop() should succeed once unpaused")
		}
	case <-time.After(time.Second):
		t.Fatal("Pop() never returned after unpausing")
	}
}

func TestJobQueueUpdateObserverResorts(t *testing.T) {
	q := NewJobQueue()
	q.Push(&Job{Coord: ChunkCoord{0, 0}, Priority: 5})
	q.Push(&Job{Coord: ChunkCoord{10, 0}, Priority: 1})

	// Recompute priority as the coordinate's negated CX, inverting the order.
	q.UpdateObserver(func(c ChunkCoord) int64 { return int64(-c.CX) })

	j, _ := q.Pop()
	if j.Coord.CX != 10 {
		t.Fatalf("after UpdateObserver, first popped coord = %v, want CX=10", j.Coord)
	}
}

func TestJobQueueAbortSignalTiedToPause(t *testing.T) {
	q := NewJobQueue()
	if q.AbortRequested() {
		t.Fatal("abort should not be set initially")
	}
	q.SetPaused(true)
	if !q.AbortRequested() {
		t.Fatal("pausing should raise the abort signal")
	}
	q.SetPaused(false)
	if q.AbortRequested() {
		t.Fatal("unpausing should lower the abort signal")
	}
}
