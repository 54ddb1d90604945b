// Package debounce delays callbacks per key until a quiet period has passed.
package debounce

import (
	"sync"
	"time"
)

type entry struct {
	timer *time.Timer
	seq   uint64
}

// Gate holds at most one pending callback per key. Scheduling under a key
// replaces the pending callback for that key; other keys are unaffected.
//
// All methods are safe for concurrent use. Callbacks run on their own
// goroutine, one per fired entry.
type Gate struct {
	mu      sync.Mutex
	entries map[string]*entry
	seq     uint64
}

func NewGate() *Gate {
	return &Gate{entries: make(map[string]*entry)}
}

// Schedule runs fn after delay unless Schedule or Cancel is called for key
// before then. A pending callback for key is discarded.
func (g *Gate) Schedule(key string, fn func(), delay time.Duration) {
	if delay < 0 {
		delay = 0
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.entries == nil {
		g.entries = make(map[string]*entry)
	}
	if old, ok := g.entries[key]; ok {
		old.timer.Stop()
	}

	g.seq++
	e := &entry{seq: g.seq}
	e.timer = time.AfterFunc(delay, func() {
		g.mu.Lock()
		// A timer that fired while being replaced or canceled must not run.
		current, ok := g.entries[key]
		if !ok || current.seq != e.seq {
			g.mu.Unlock()
			return
		}
		delete(g.entries, key)
		g.mu.Unlock()

		fn()
	})
	g.entries[key] = e
}

// Cancel discards the pending callback for key, if any.
func (g *Gate) Cancel(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if e, ok := g.entries[key]; ok {
		e.timer.Stop()
		delete(g.entries, key)
	}
}

// Pending reports whether a callback is waiting under key.
func (g *Gate) Pending(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.entries[key]
	return ok
}

// Stop discards every pending callback.
func (g *Gate) Stop() {
	g.mu.Lock()
	defer g.mu.Unlock()

	for key, e := range g.entries {
		e.timer.Stop()
		delete(g.entries, key)
	}
}
