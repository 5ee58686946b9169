package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"event-wall/internal/display"
	"event-wall/internal/idgen"
	"event-wall/internal/models"
	"event-wall/internal/protocol"
	ws "event-wall/internal/websocket"
)

// handleWebSocket upgrades a connection for the role named in ?role=.
// Displays are registered through a display.Session so each screen gets its
// own slideshow position and lanes.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	role, err := models.ParseRole(r.URL.Query().Get("role"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err, "ip", r.RemoteAddr)
		return
	}

	ctx := detached(r)
	id := idgen.New()

	var session *display.Session
	handle := func(c *ws.Client, cmd protocol.Command) {
		s.handleCommand(ctx, c, session, cmd)
	}
	client := ws.NewClient(s.hub, conn, role, id, s.opts.SendBuffer, handle)

	var sub ws.Subscriber = client
	if role == models.RoleDisplay {
		session = display.NewSession(id, client, s.pool, s.opts.Display)
		sub = session
	}

	// Subscribe before the snapshot so nothing published in between is lost.
	s.hub.Subscribe(role, sub)
	slog.Info("client connected", "client", id, "role", role, "ip", r.RemoteAddr)

	go client.WritePump()
	s.greet(client, session)
	go client.ReadPump(sub)
}

// greet sends a new connection the current state.
func (s *Server) greet(c *ws.Client, session *display.Session) {
	switch c.Role {
	case models.RoleAdmin:
		c.Deliver(protocol.NewEvent(protocol.EvtSnapshot, protocol.Snapshot{
			Pending: s.pendingCards(),
			Config:  s.engine.Config(),
		}))
	case models.RoleDisplay:
		c.Deliver(protocol.NewEvent(protocol.EvtUpdateOverlay, s.fanout.Overlay(s.engine.Config())))
		session.Start()
	}
}

// handleCommand runs one authorized command. Failures go back to the sender
// only.
func (s *Server) handleCommand(ctx context.Context, c *ws.Client, session *display.Session, cmd protocol.Command) {
	if err := s.runCommand(ctx, c, session, cmd); err != nil {
		slog.Debug("command failed", "error", err, "client", c.ID, "kind", cmd.Kind)
		c.Deliver(protocol.ErrorEvent(err))
	}
}

func (s *Server) runCommand(ctx context.Context, c *ws.Client, session *display.Session, cmd protocol.Command) error {
	switch cmd.Kind {
	case protocol.CmdSubmit:
		var p protocol.SubmitPayload
		if err := cmd.Decode(&p); err != nil {
			return err
		}
		payload := p.Text
		if p.Kind == models.KindPhoto {
			if !s.photoUploaded(p.StorageRef) {
				return fmt.Errorf("%w: photo %q has not been uploaded", models.ErrValidation, p.StorageRef)
			}
			payload = p.StorageRef
		}
		sub, err := s.engine.Submit(ctx, p.Kind, payload)
		if err != nil {
			return err
		}
		c.Deliver(protocol.NewEvent(protocol.EvtSubmitted, submitted(sub)))

	case protocol.CmdApprove:
		var p protocol.IDPayload
		if err := cmd.Decode(&p); err != nil {
			return err
		}
		_, err := s.engine.Approve(ctx, p.ID)
		return err

	case protocol.CmdReject:
		var p protocol.IDPayload
		if err := cmd.Decode(&p); err != nil {
			return err
		}
		return s.engine.Reject(ctx, p.ID)

	case protocol.CmdUpdateConfig:
		var cfg models.LiveConfig
		if err := cmd.Decode(&cfg); err != nil {
			return err
		}
		s.engine.UpdateConfig(ctx, cfg)

	case protocol.CmdClearMessages:
		s.engine.ClearMessages()

	case protocol.CmdViewport:
		var p protocol.ViewportPayload
		if err := cmd.Decode(&p); err != nil {
			return err
		}
		if session == nil {
			return fmt.Errorf("%w: viewport without a display session", models.ErrForbidden)
		}
		session.Resize(p.Height)

	default:
		return fmt.Errorf("%w: %q", models.ErrUnknownKind, cmd.Kind)
	}
	return nil
}
