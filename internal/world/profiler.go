package world

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// tickProfiler accumulates per-phase durations for the current tick so a
// slow tick can be broken down by pipeline phase (scan, promote, upload,
// evict, render). Scoped to a World instance rather than package globals,
// like Options, so concurrent Worlds don't share accounting.
type tickProfiler struct {
	mu     sync.Mutex
	phases map[string]time.Duration
}

func newTickProfiler() *tickProfiler {
	return &tickProfiler{phases: make(map[string]time.Duration)}
}

// track returns a stop function that records the elapsed time under name.
// Usage: defer w.prof.track("evict")()
func (p *tickProfiler) track(name string) func() {
	start := time.Now()
	return func() {
		d := time.Since(start)
		p.mu.Lock()
		p.phases[name] += d
		p.mu.Unlock()
	}
}

// reset clears the accumulated durations. Update calls this at the start of
// each tick, so the map only ever holds the current tick's phases.
func (p *tickProfiler) reset() {
	p.mu.Lock()
	clear(p.phases)
	p.mu.Unlock()
}

// top formats the n slowest phases of the current tick, slowest first, e.g.
// "scan:4.2ms, promote:1.1ms".
func (p *tickProfiler) top(n int) string {
	p.mu.Lock()
	defer p.mu.Unlock()

	type entry struct {
		name string
		dur  time.Duration
	}
	entries := make([]entry, 0, len(p.phases))
	for name, dur := range p.phases {
		entries = append(entries, entry{name, dur})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].dur > entries[j].dur })
	if n > len(entries) {
		n = len(entries)
	}

	parts := make([]string, 0, n)
	for _, e := range entries[:n] {
		parts = append(parts, fmt.Sprintf("%s:%.1fms", e.name, float64(e.dur.Microseconds())/1000.0))
	}
	return strings.Join(parts, ", ")
}
