package protocol

import (
	"errors"

	"event-wall/internal/models"
)

// ErrorEvent maps an operation error onto the error event sent back to the
// client that issued the command.
func ErrorEvent(err error) *Event {
	p := ErrorPayload{Code: "internal", Message: err.Error()}
	switch {
	case errors.Is(err, models.ErrValidation):
		p.Code = "validation"
	case errors.Is(err, models.ErrNotFound):
		p.Code, p.Warning = "not_found", true
	case errors.Is(err, models.ErrAlreadyResolved):
		p.Code, p.Warning = "already_resolved", true
	case errors.Is(err, models.ErrUnknownKind):
		p.Code = "unknown_kind"
	case errors.Is(err, models.ErrForbidden):
		p.Code = "forbidden"
	}
	return NewEvent(EvtError, p)
}
