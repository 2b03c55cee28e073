package world

import (
	"sync"
	"testing"
	"time"
)

func TestWorkerPoolProcessesJobs(t *testing.T) {
	q := NewJobQueue()
	var mu sync.Mutex
	seen := make(map[ChunkCoord]bool)

	pool := NewWorkerPool(2, q, nil, func(_ *World, job *Job) {
		mu.Lock()
		seen[job.Coord] = true
		mu.Unlock()
	})

	for i := 0; i < 5; i++ {
		q.Push(&Job{Coord: ChunkCoord{int32(i), 0}, Priority: int64(i)})
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		n := len(seen)
		mu.Unlock()
		if n == 5 {
			break
		}
		time.Sleep(time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 5 {
		t.Fatalf("processed %d jobs, want 5", len(seen))
	}

	pool.Stop()
}

func TestWorkerPoolStopJoinsWorkers(t *testing.T) {
	q := NewJobQueue()
	started := make(chan struct{})
	release := make(chan struct{})
	pool := NewWorkerPool(1, q, nil, func(_ *World, job *Job) {
		close(started)
		<-release
	})

	q.Push(&Job{Coord: ChunkCoord{0, 0}})
	<-started

	stopped := make(chan struct{})
	go func() {
		pool.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
		t.Fatal("Stop() returned before the in-flight processor finished")
	case <-time.After(20 * time.Millisecond):
	}

	close(release)
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Stop() never joined the worker")
	}
}
