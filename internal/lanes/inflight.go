package lanes

import (
	"sync"
	"time"

	"event-wall/internal/models"
)

// InFlight tracks floating messages currently crossing a display. An entry
// disappears on its own when its traversal ends, or all at once on Clear.
type InFlight struct {
	mu      sync.Mutex
	entries map[string]*time.Timer
	onDone  func(id string)
}

// NewInFlight creates a tracker. onDone, if set, runs after an entry expires
// on its own; it is not called for entries removed by Clear.
func NewInFlight(onDone func(id string)) *InFlight {
	return &InFlight{
		entries: make(map[string]*time.Timer),
		onDone:  onDone,
	}
}

// Track records id until a's traversal duration has elapsed. Tracking an id
// again restarts its timer.
func (f *InFlight) Track(id string, a models.LaneAssignment) {
	d := time.Duration(a.TraversalDurationMs) * time.Millisecond

	f.mu.Lock()
	defer f.mu.Unlock()
	if old, ok := f.entries[id]; ok {
		old.Stop()
	}
	var timer *time.Timer
	timer = time.AfterFunc(d, func() {
		f.mu.Lock()
		current, ok := f.entries[id]
		if ok && current == timer {
			delete(f.entries, id)
		}
		f.mu.Unlock()
		if ok && current == timer && f.onDone != nil {
			f.onDone(id)
		}
	})
	f.entries[id] = timer
}

// Len returns the number of messages in flight.
func (f *InFlight) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}

// Clear drops every tracked message and stops its timer. It returns how many
// were dropped.
func (f *InFlight) Clear() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := len(f.entries)
	for id, timer := range f.entries {
		timer.Stop()
		delete(f.entries, id)
	}
	return n
}
