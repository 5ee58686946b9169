package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"event-wall/internal/models"
)

// maxJSONBody caps request bodies on the JSON endpoints.
const maxJSONBody = 32 * 1024

// readJSON decodes a capped request body into v. On failure it has already
// written the response.
func readJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Errorf("%w: body exceeds %d bytes", models.ErrValidation, maxJSONBody))
			return false
		}
		writeError(w, http.StatusBadRequest, fmt.Errorf("%w: %v", models.ErrValidation, err))
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

// writeOpError maps an operation error onto a response. Acting on a card that
// is gone or already decided is a soft no-op: 200 with a warning.
func writeOpError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound), errors.Is(err, models.ErrAlreadyResolved):
		writeJSON(w, http.StatusOK, map[string]string{"warning": err.Error()})
	case errors.Is(err, models.ErrValidation), errors.Is(err, models.ErrUnknownKind):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, models.ErrForbidden):
		writeError(w, http.StatusForbidden, err)
	default:
		slog.Error("request failed", "error", err, "method", r.Method, "path", r.URL.Path)
		writeError(w, http.StatusInternalServerError, errors.New("internal error"))
	}
}
