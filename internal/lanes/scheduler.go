// Package lanes places floating messages on horizontal bands of the display
// so that messages shown at the same time do not sit on top of each other.
//
// Lanes are handed out round-robin. Occupancy is not tracked: two messages in
// the same lane can still overlap when a slow one is followed closely by a
// fast one, which is accepted in exchange for never refusing a message.
package lanes

import (
	"math/rand/v2"
	"sync"
	"time"

	"event-wall/internal/models"
)

// Defaults for a 1080p display.
const (
	DefaultLaneHeight   = 50
	DefaultMinTraversal = 8 * time.Second
	DefaultMaxTraversal = 13 * time.Second
)

// Count derives the number of lanes L from the surface height. The bottom band
// is reserved, so L is one less than the number of bands that fit.
func Count(surfaceHeight, laneHeight int) int {
	if laneHeight <= 0 {
		laneHeight = DefaultLaneHeight
	}
	n := surfaceHeight/laneHeight - 1
	if n < 0 {
		return 0
	}
	return n
}

// Options tune a Scheduler. Zero values select the defaults.
type Options struct {
	MinTraversal time.Duration
	MaxTraversal time.Duration
	Rand         *rand.Rand
	Now          func() time.Time
}

// Scheduler assigns lanes and traversal durations.
type Scheduler struct {
	mu    sync.Mutex
	lanes int
	prev  int
	opts  Options
}

// NewScheduler creates a scheduler over L lanes. Lane 0 is reserved, so
// messages cycle through 1..L-1.
func NewScheduler(lanes int, opts Options) *Scheduler {
	if opts.MinTraversal <= 0 {
		opts.MinTraversal = DefaultMinTraversal
	}
	if opts.MaxTraversal < opts.MinTraversal {
		opts.MaxTraversal = opts.MinTraversal
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Scheduler{lanes: lanes, opts: opts}
}

// Lanes returns L.
func (s *Scheduler) Lanes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lanes
}

// Resize changes L, keeping the round-robin position.
func (s *Scheduler) Resize(lanes int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lanes = lanes
}

// Assign picks the next lane and a traversal duration.
func (s *Scheduler) Assign() models.LaneAssignment {
	s.mu.Lock()
	defer s.mu.Unlock()

	lane := 0
	if usable := s.lanes - 1; usable > 0 {
		s.prev = s.prev%usable + 1
		lane = s.prev
	}

	return models.LaneAssignment{
		LaneIndex:           lane,
		SpawnTime:           s.opts.Now(),
		TraversalDurationMs: s.traversal().Milliseconds(),
	}
}

func (s *Scheduler) traversal() time.Duration {
	span := s.opts.MaxTraversal - s.opts.MinTraversal
	if span <= 0 {
		return s.opts.MinTraversal
	}
	return s.opts.MinTraversal + time.Duration(s.opts.Rand.Int64N(int64(span)))
}
