// Package server exposes the wall over HTTP: the realtime channel on /ws and
// a small JSON API that mirrors the channel commands for clients that would
// rather not hold a socket open.
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"event-wall/internal/broadcast"
	"event-wall/internal/display"
	"event-wall/internal/media"
	"event-wall/internal/moderation"
	"event-wall/internal/slideshow"
	ws "event-wall/internal/websocket"
)

// Options tune the server.
type Options struct {
	SendBuffer int
	Display    display.Options
}

// Server holds the collaborators behind every route.
type Server struct {
	engine *moderation.Engine
	hub    *ws.Hub
	media  *media.Store
	fanout *broadcast.Fanout
	pool   *slideshow.Pool
	opts   Options

	upgrader websocket.Upgrader
}

// New wires a server.
func New(engine *moderation.Engine, hub *ws.Hub, store *media.Store, fanout *broadcast.Fanout, pool *slideshow.Pool, opts Options) *Server {
	return &Server{
		engine: engine,
		hub:    hub,
		media:  store,
		fanout: fanout,
		pool:   pool,
		opts:   opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // Guests connect from phones on arbitrary origins.
			},
		},
	}
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/ws", s.handleWebSocket)
	r.Get("/uploads/{area}/{ref}", s.handleMedia)
	r.Get("/thumbnail/{area}/{ref}", s.handleThumbnail)

	r.Route("/api", func(r chi.Router) {
		// Guest
		r.Post("/upload", s.handleUpload)
		r.Post("/messages", s.handleMessage)

		// Admin
		r.Get("/pending", s.handlePending)
		r.Post("/submissions/{id}/approve", s.handleApprove)
		r.Post("/submissions/{id}/reject", s.handleReject)
		r.Post("/clear", s.handleClear)
		r.Get("/config", s.handleGetConfig)
		r.Post("/config", s.handleUpdateConfig)
		r.Get("/photos", s.handlePhotos)
		r.Delete("/photos/{ref}", s.handleDeletePhoto)

		// Display
		r.Get("/qr.png", s.handleQR)
	})
	return r
}
