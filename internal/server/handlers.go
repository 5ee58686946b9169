package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"event-wall/internal/broadcast"
	"event-wall/internal/media"
	"event-wall/internal/models"
	"event-wall/internal/protocol"
	"event-wall/internal/qrcode"
)

// multipartOverhead leaves room for form boundaries around the photo.
const multipartOverhead = 1 << 20

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	stats := s.hub.Stats()
	sessions := make(map[models.Role]int, len(models.Roles))
	for _, role := range models.Roles {
		sessions[role] = s.hub.Count(role)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"sessions":  sessions,
		"pending":   s.engine.PendingCount(),
		"photos":    s.pool.Len(),
		"published": stats.Published,
		"dropped":   stats.Dropped,
	})
}

func submitted(sub models.Submission) protocol.Submitted {
	return protocol.Submitted{ID: sub.ID, Kind: sub.Kind, Status: sub.Status}
}

// handleUpload stores a guest photo and submits it for moderation.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.media.MaxBytes()+multipartOverhead)

	file, _, err := r.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Errorf("%w: photo too large", models.ErrValidation))
			return
		}
		writeError(w, http.StatusBadRequest, fmt.Errorf("%w: missing file field", models.ErrValidation))
		return
	}
	defer file.Close()

	ref, err := s.media.Save(file)
	if err != nil {
		writeOpError(w, r, err)
		return
	}

	sub, err := s.engine.SubmitPhoto(r.Context(), ref)
	if err != nil {
		s.media.Discard(ref)
		writeOpError(w, r, err)
		return
	}
	slog.Info("photo uploaded", "id", sub.ID, "ref", ref, "ip", r.RemoteAddr)
	writeJSON(w, http.StatusCreated, submitted(sub))
}

// handleMessage submits a floating message.
func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if !readJSON(w, r, &req) {
		return
	}
	sub, err := s.engine.SubmitMessage(r.Context(), req.Text)
	if err != nil {
		writeOpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, submitted(sub))
}

func (s *Server) pendingCards() []protocol.SubmissionCard {
	pending := s.engine.Pending()
	cards := make([]protocol.SubmissionCard, 0, len(pending))
	for _, sub := range pending {
		cards = append(cards, broadcast.Card(sub))
	}
	return cards
}

func (s *Server) handlePending(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.pendingCards())
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sub, err := s.engine.Approve(r.Context(), id)
	if err != nil {
		writeOpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, submitted(sub))
}

func (s *Server) handleReject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.engine.Reject(r.Context(), id); err != nil {
		writeOpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, protocol.SubmissionResolved{ID: id, Status: models.StatusRejected})
}

func (s *Server) handleClear(w http.ResponseWriter, _ *http.Request) {
	s.engine.ClearMessages()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetConfig(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Config())
}

func (s *Server) handleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	var cfg models.LiveConfig
	if !readJSON(w, r, &cfg) {
		return
	}
	writeJSON(w, http.StatusOK, s.engine.UpdateConfig(r.Context(), cfg))
}

func (s *Server) handlePhotos(w http.ResponseWriter, _ *http.Request) {
	refs := s.engine.Photos()
	photos := make([]protocol.PhotoRef, 0, len(refs))
	for _, ref := range refs {
		photos = append(photos, protocol.PhotoRef{StorageRef: ref, URL: broadcast.PhotoURL(broadcast.AreaApproved, ref)})
	}
	writeJSON(w, http.StatusOK, photos)
}

func (s *Server) handleDeletePhoto(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.RemovePhoto(r.Context(), chi.URLParam(r, "ref")); err != nil {
		writeOpError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleQR renders the guest URL currently shown on the overlay.
func (s *Server) handleQR(w http.ResponseWriter, r *http.Request) {
	size := qrcode.DefaultSize
	if v := r.URL.Query().Get("size"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 64 && n <= 2048 {
			size = n
		}
	}
	url := s.fanout.Overlay(s.engine.Config()).URL
	png, err := qrcode.PNG(url, size)
	if err != nil {
		writeOpError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(png)
}

func (s *Server) handleMedia(w http.ResponseWriter, r *http.Request) {
	path, err := s.media.Path(chi.URLParam(r, "area"), chi.URLParam(r, "ref"))
	if err != nil {
		http.Error(w, "Invalid file path", http.StatusBadRequest)
		return
	}
	w.Header().Set("Cache-Control", "public, max-age=3600")
	http.ServeFile(w, r, path)
}

func (s *Server) handleThumbnail(w http.ResponseWriter, r *http.Request) {
	data, err := s.media.Thumbnail(chi.URLParam(r, "area"), chi.URLParam(r, "ref"))
	switch {
	case errors.Is(err, models.ErrNotFound):
		http.Error(w, "Photo not found", http.StatusNotFound)
		return
	case errors.Is(err, models.ErrValidation):
		http.Error(w, "Invalid file path", http.StatusBadRequest)
		return
	case err != nil:
		slog.Warn("thumbnail failed", "error", err, "path", r.URL.Path)
		http.Error(w, "Failed to generate thumbnail", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(data)
}

// photoUploaded reports whether ref names a photo waiting in the temp area.
func (s *Server) photoUploaded(ref string) bool {
	return s.media.Exists(media.Temp, ref)
}

// detached keeps request values but outlives the upgrade handler.
func detached(r *http.Request) context.Context {
	return context.WithoutCancel(r.Context())
}
