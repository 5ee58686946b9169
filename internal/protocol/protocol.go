// Package protocol defines the messages exchanged over the realtime channel.
//
// Each direction has its own closed set of kinds. A command whose kind is not
// listed here is rejected with models.ErrUnknownKind.
package protocol

import (
	"encoding/json"
	"fmt"
	"time"

	"event-wall/internal/models"
)

// CommandKind names a client -> core message.
type CommandKind string

const (
	CmdSubmit        CommandKind = "submit"
	CmdApprove       CommandKind = "approve"
	CmdReject        CommandKind = "reject"
	CmdUpdateConfig  CommandKind = "updateConfig"
	CmdClearMessages CommandKind = "clearMessages"
	CmdViewport      CommandKind = "viewport"
)

// EventKind names a core -> client message.
type EventKind string

const (
	EvtSubmissionWaiting  EventKind = "submissionWaiting"
	EvtContentApproved    EventKind = "contentApproved"
	EvtPerformClear       EventKind = "performClear"
	EvtUpdateOverlay      EventKind = "updateOverlay"
	EvtSubmissionResolved EventKind = "submissionResolved"
	EvtPhotoRemoved       EventKind = "photoRemoved"
	EvtShowPhoto          EventKind = "showPhoto"
	EvtRenderMessage      EventKind = "renderMessage"
	EvtSubmitted          EventKind = "submitted"
	EvtSnapshot           EventKind = "snapshot"
	EvtError              EventKind = "error"
)

// allowed maps every command to the roles that may send it.
var allowed = map[CommandKind][]models.Role{
	CmdSubmit:        {models.RoleGuest, models.RoleAdmin},
	CmdApprove:       {models.RoleAdmin},
	CmdReject:        {models.RoleAdmin},
	CmdUpdateConfig:  {models.RoleAdmin},
	CmdClearMessages: {models.RoleAdmin},
	CmdViewport:      {models.RoleDisplay},
}

// Command is a decoded client message. Payload stays raw until the handler
// knows which shape to expect.
type Command struct {
	Kind    CommandKind     `json:"kind"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Event is a message sent to clients. Payload holds one of the typed payload
// structs below.
type Event struct {
	Kind      EventKind `json:"kind"`
	Payload   any       `json:"payload,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewEvent stamps an event with the current time.
func NewEvent(kind EventKind, payload any) *Event {
	return &Event{Kind: kind, Payload: payload, Timestamp: time.Now()}
}

// DecodeCommand parses a raw frame and rejects kinds outside the closed set.
func DecodeCommand(data []byte) (Command, error) {
	var cmd Command
	if err := json.Unmarshal(data, &cmd); err != nil {
		return Command{}, fmt.Errorf("decode command: %w", err)
	}
	if _, ok := allowed[cmd.Kind]; !ok {
		return Command{}, fmt.Errorf("%w: %q", models.ErrUnknownKind, cmd.Kind)
	}
	return cmd, nil
}

// Authorize checks that role may send the command.
func (c Command) Authorize(role models.Role) error {
	for _, r := range allowed[c.Kind] {
		if r == role {
			return nil
		}
	}
	return fmt.Errorf("%w: %s cannot send %s", models.ErrForbidden, role, c.Kind)
}

// Decode unmarshals the payload into v.
func (c Command) Decode(v any) error {
	if len(c.Payload) == 0 {
		return fmt.Errorf("%w: %s requires a payload", models.ErrValidation, c.Kind)
	}
	if err := json.Unmarshal(c.Payload, v); err != nil {
		return fmt.Errorf("%w: %s payload: %v", models.ErrValidation, c.Kind, err)
	}
	return nil
}
