// Package display runs the per-screen part of the wall: which photo is up,
// where floating messages go and when they expire.
//
// The core broadcasts the same events to every display. A Session turns them
// into rendering directives for its own screen, so two displays of different
// sizes or at different points in the slideshow each get what fits them.
package display

import (
	"log/slog"
	"sync"
	"time"

	"event-wall/internal/broadcast"
	"event-wall/internal/lanes"
	"event-wall/internal/protocol"
	"event-wall/internal/slideshow"
)

// DefaultSlideInterval is how long each photo stays up.
const DefaultSlideInterval = 5 * time.Second

// Sink is the connection a session renders to.
type Sink interface {
	Deliver(ev *protocol.Event) bool
	Close()
}

// Options configure a Session. Zero values select the defaults.
type Options struct {
	SlideInterval time.Duration
	SurfaceHeight int
	LaneHeight    int
	Lanes         lanes.Options
}

// Session is the runtime of one connected display. It implements the hub's
// Subscriber interface so it can be registered in place of the raw client.
type Session struct {
	ID string

	mu        sync.Mutex
	sink      Sink
	rotator   *slideshow.Rotator
	scheduler *lanes.Scheduler
	inflight  *lanes.InFlight
	opts      Options

	stop      chan struct{}
	startOnce sync.Once
	closeOnce sync.Once
}

// NewSession creates a session rendering pool to sink. Call Start to begin
// the slideshow.
func NewSession(id string, sink Sink, pool *slideshow.Pool, opts Options) *Session {
	if opts.SlideInterval <= 0 {
		opts.SlideInterval = DefaultSlideInterval
	}
	if opts.LaneHeight <= 0 {
		opts.LaneHeight = lanes.DefaultLaneHeight
	}
	s := &Session{
		ID:      id,
		sink:    sink,
		rotator: slideshow.NewRotator(pool),
		opts:    opts,
		stop:    make(chan struct{}),
	}
	s.scheduler = lanes.NewScheduler(lanes.Count(opts.SurfaceHeight, opts.LaneHeight), opts.Lanes)
	s.inflight = lanes.NewInFlight(nil)
	return s
}

// Start shows the first photo, if there is one, and starts the slideshow
// ticker. Calling it again has no effect.
func (s *Session) Start() {
	s.startOnce.Do(func() {
		s.Tick()
		go s.run()
	})
}

func (s *Session) run() {
	ticker := time.NewTicker(s.opts.SlideInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.Tick()
		}
	}
}

// Tick advances the slideshow by one photo.
func (s *Session) Tick() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.advanceLocked()
}

func (s *Session) advanceLocked() {
	ref, ok := s.rotator.Next()
	if !ok {
		return
	}
	s.sink.Deliver(protocol.NewEvent(protocol.EvtShowPhoto, protocol.PhotoRef{
		StorageRef: ref,
		URL:        broadcast.PhotoURL(broadcast.AreaApproved, ref),
	}))
}

// Resize recomputes the lane count for a new surface height. The round-robin
// position is kept.
func (s *Session) Resize(height int) {
	if height <= 0 {
		return
	}
	n := lanes.Count(height, s.opts.LaneHeight)
	s.scheduler.Resize(n)
	slog.Debug("display resized", "session", s.ID, "height", height, "lanes", n)
}

// Lanes returns the current lane count.
func (s *Session) Lanes() int {
	return s.scheduler.Lanes()
}

// InFlight returns how many floating messages are crossing the screen.
func (s *Session) InFlight() int {
	return s.inflight.Len()
}

// Deliver translates a broadcast event for this display. It never blocks.
func (s *Session) Deliver(ev *protocol.Event) bool {
	select {
	case <-s.stop:
		return false
	default:
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch ev.Kind {
	case protocol.EvtContentApproved:
		p, ok := ev.Payload.(protocol.ContentApproved)
		if !ok {
			return true
		}
		if p.StorageRef != "" {
			if s.rotator.Approved(p.StorageRef) {
				s.advanceLocked()
			}
			return true
		}
		a := s.scheduler.Assign()
		s.inflight.Track(p.ID, a)
		return s.sink.Deliver(protocol.NewEvent(protocol.EvtRenderMessage, protocol.RenderMessage{
			ID:                  p.ID,
			Text:                p.Text,
			LaneIndex:           a.LaneIndex,
			TraversalDurationMs: a.TraversalDurationMs,
		}))

	case protocol.EvtPerformClear:
		n := s.inflight.Clear()
		slog.Debug("display cleared", "session", s.ID, "messages", n)
		return s.sink.Deliver(ev)

	case protocol.EvtPhotoRemoved:
		p, _ := ev.Payload.(protocol.PhotoRef)
		if !s.sink.Deliver(ev) {
			return false
		}
		if s.rotator.Removed(p.StorageRef) {
			s.advanceLocked()
		}
		return true

	default:
		return s.sink.Deliver(ev)
	}
}

// Close stops the slideshow, drops in-flight messages and closes the sink.
// It does not wait for the ticker goroutine.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.stop)
		s.inflight.Clear()
		s.sink.Close()
	})
}
