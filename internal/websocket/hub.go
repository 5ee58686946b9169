package websocket

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"event-wall/internal/models"
	"event-wall/internal/protocol"
)

// Subscriber receives events from the hub. Deliver must not block; returning
// false means the event could not be queued.
type Subscriber interface {
	Deliver(ev *protocol.Event) bool
	Close()
}

type registration struct {
	role models.Role
	sub  Subscriber
}

// Envelope addresses an event to one or more roles.
type Envelope struct {
	Roles []models.Role
	Event *protocol.Event
}

// HubStats counts delivery outcomes since the hub started.
type HubStats struct {
	Published uint64
	Delivered uint64
	Dropped   uint64
}

// Hub maintains active subscribers per role and broadcasts events to them.
// All map mutations happen on the Run goroutine, so events published in
// order are delivered in order.
type Hub struct {
	clients    map[models.Role]map[Subscriber]bool
	broadcast  chan *Envelope
	register   chan registration
	unregister chan registration
	done       chan struct{}
	mu         sync.RWMutex

	published atomic.Uint64
	delivered atomic.Uint64
	dropped   atomic.Uint64
}

// NewHub creates a new hub. Call Run to start processing.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[models.Role]map[Subscriber]bool),
		broadcast:  make(chan *Envelope, 256),
		register:   make(chan registration),
		unregister: make(chan registration),
		done:       make(chan struct{}),
	}
}

// Subscribe adds sub to the role's audience. If the hub has stopped, sub is
// closed immediately.
func (h *Hub) Subscribe(role models.Role, sub Subscriber) {
	select {
	case h.register <- registration{role: role, sub: sub}:
	case <-h.done:
		sub.Close()
	}
}

// Unsubscribe removes sub and closes it. Unknown subscribers are ignored.
func (h *Hub) Unsubscribe(role models.Role, sub Subscriber) {
	select {
	case h.unregister <- registration{role: role, sub: sub}:
	case <-h.done:
	}
}

// Publish queues ev for every subscriber of the given roles.
func (h *Hub) Publish(ev *protocol.Event, roles ...models.Role) {
	select {
	case h.broadcast <- &Envelope{Roles: roles, Event: ev}:
	case <-h.done:
	}
}

// Count returns the number of subscribers connected under role.
func (h *Hub) Count(role models.Role) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[role])
}

// Stats returns delivery counters.
func (h *Hub) Stats() HubStats {
	return HubStats{
		Published: h.published.Load(),
		Delivered: h.delivered.Load(),
		Dropped:   h.dropped.Load(),
	}
}

// Done is closed once Run has returned.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// Run starts the hub's message processing loop. It returns when ctx is
// cancelled, closing every subscriber.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for role, subs := range h.clients {
				for sub := range subs {
					sub.Close()
				}
				delete(h.clients, role)
			}
			h.mu.Unlock()
			return

		case reg := <-h.register:
			h.mu.Lock()
			if h.clients[reg.role] == nil {
				h.clients[reg.role] = make(map[Subscriber]bool)
			}
			h.clients[reg.role][reg.sub] = true
			h.mu.Unlock()

		case reg := <-h.unregister:
			h.mu.Lock()
			if subs, ok := h.clients[reg.role]; ok {
				if _, ok := subs[reg.sub]; ok {
					delete(subs, reg.sub)
					reg.sub.Close()
					if len(subs) == 0 {
						delete(h.clients, reg.role)
					}
				}
			}
			h.mu.Unlock()

		case env := <-h.broadcast:
			h.published.Add(1)
			h.deliver(env)
		}
	}
}

func (h *Hub) deliver(env *Envelope) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, role := range env.Roles {
		subs := h.clients[role]
		for sub := range subs {
			if sub.Deliver(env.Event) {
				h.delivered.Add(1)
				continue
			}
			// Slow or gone: drop it rather than stall everyone else.
			h.dropped.Add(1)
			slog.Warn("hub: dropping subscriber",
				"error", models.ErrDeliveryFailure, "role", role, "event", env.Event.Kind)
			delete(subs, sub)
			sub.Close()
		}
		if len(subs) == 0 {
			delete(h.clients, role)
		}
	}
}
