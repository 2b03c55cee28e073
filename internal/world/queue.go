package world

import (
	"container/heap"
	"sync"
	"sync/atomic"
)

// JobKind distinguishes the two pipelines fed by priority job queues.
type JobKind int

const (
	JobGeneration JobKind = iota
	JobMeshing
)

// Job is a descriptor enqueued for a worker pool. Priority is a signed
// integer; lower numerically is served first.
type Job struct {
	Kind     JobKind
	Coord    ChunkCoord
	Token    uint32
	Priority int64

	index int // heap bookkeeping, maintained by container/heap
}

// jobHeap is a container/heap.Interface over pending jobs. Each job tracks
// its own heap slot so re-priority operations don't need a linear scan to
// find an item.
type jobHeap []*Job

func (h jobHeap) Len() int            { return len(h) }
func (h jobHeap) Less(i, j int) bool  { return h[i].Priority < h[j].Priority }
func (h jobHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i]; h[i].index = i; h[j].index = j }
func (h *jobHeap) Push(x interface{}) {
	j := x.(*Job)
	j.index = len(*h)
	*h = append(*h, j)
}
func (h *jobHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*h = old[:n-1]
	return item
}

// JobQueue is a thread-safe priority queue of pending work with pause and
// stop flags. Pop blocks until a job is available, the queue is unpaused, or
// the queue is stopped.
type JobQueue struct {
	mu       sync.Mutex
	notEmpty *sync.Cond
	items    jobHeap
	paused   bool
	stopped  bool

	abortWorker int32 // atomic bool, polled by long-running processors
}

// NewJobQueue creates an empty, running (unpaused) job queue.
func NewJobQueue() *JobQueue {
	q := &JobQueue{}
	q.notEmpty = sync.NewCond(&q.mu)
	return q
}

// Push inserts a job in priority order. No-op once the queue is stopped.
func (q *JobQueue) Push(j *Job) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.stopped {
		return
	}
	heap.Push(&q.items, j)
	q.notEmpty.Signal()
}

// Pop blocks until a job is available and the queue is neither paused nor
// stopped, then returns it. The second return value is false iff the queue
// has been stopped, including when it is stopped while the caller was
// already blocked.
func (q *JobQueue) Pop() (*Job, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for {
		if q.stopped {
			return nil, false
		}
		if !q.paused && len(q.items) > 0 {
			j := heap.Pop(&q.items).(*Job)
			return j, true
		}
		q.notEmpty.Wait()
	}
}

// SetPaused toggles the pause flag. While paused, Pop blocks even if jobs
// are queued. Pausing also raises the abort signal so any processor already
// mid-job can bail out promptly instead of racing the orchestrator's
// pause-time state reset; resuming clears it.
func (q *JobQueue) SetPaused(paused bool) {
	q.mu.Lock()
	q.paused = paused
	q.mu.Unlock()
	if paused {
		atomic.StoreInt32(&q.abortWorker, 1)
	} else {
		atomic.StoreInt32(&q.abortWorker, 0)
	}
	q.notEmpty.Broadcast()
}

// RequestAbort raises the abort signal without pausing the queue.
func (q *JobQueue) RequestAbort() {
	atomic.StoreInt32(&q.abortWorker, 1)
}

// ClearAbort lowers the abort signal.
func (q *JobQueue) ClearAbort() {
	atomic.StoreInt32(&q.abortWorker, 0)
}

// AbortRequested reports the current abort signal. Long-running processors
// (terrain generation) must poll this and exit early.
func (q *JobQueue) AbortRequested() bool {
	return atomic.LoadInt32(&q.abortWorker) != 0
}

// Stop is strictly monotonic: once stopped, a queue cannot be revived. It
// wakes all waiters and causes all current and future Pops to return
// closed.
func (q *JobQueue) Stop() {
	q.mu.Lock()
	q.stopped = true
	q.mu.Unlock()
	q.notEmpty.Broadcast()
}

// Stopped reports whether Stop has been called.
func (q *JobQueue) Stopped() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.stopped
}

// UpdateObserver advises the queue that priorities should be recomputed
// relative to a new observer chunk. priorityFn computes a job's new priority
// given its coordinate; the queue re-heapifies in place afterward.
func (q *JobQueue) UpdateObserver(priorityFn func(coord ChunkCoord) int64) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, j := range q.items {
		j.Priority = priorityFn(j.Coord)
	}
	heap.Init(&q.items)
}

// Len returns a snapshot of the pending job count.
func (q *JobQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
