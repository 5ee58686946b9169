package protocol

import (
	"time"

	"event-wall/internal/models"
)

// SubmitPayload carries a guest submission. Photos are uploaded over HTTP
// first and referenced here by StorageRef.
type SubmitPayload struct {
	Kind       models.Kind `json:"kind"`
	Text       string      `json:"text,omitempty"`
	StorageRef string      `json:"storageRef,omitempty"`
}

// IDPayload addresses one submission.
type IDPayload struct {
	ID string `json:"id"`
}

// ViewportPayload reports the display's rendering-surface height in pixels.
type ViewportPayload struct {
	Height int `json:"height"`
}

// SubmissionCard holds what the admin needs to render a moderation card.
type SubmissionCard struct {
	ID           string      `json:"id"`
	Kind         models.Kind `json:"kind"`
	Payload      string      `json:"payload"`
	PreviewURL   string      `json:"previewUrl,omitempty"`
	ThumbnailURL string      `json:"thumbnailUrl,omitempty"`
	CreatedAt    time.Time   `json:"createdAt"`
}

// ContentApproved is the public payload of an approved submission.
type ContentApproved struct {
	ID         string      `json:"id"`
	Kind       models.Kind `json:"kind"`
	StorageRef string      `json:"storageRef,omitempty"`
	URL        string      `json:"url,omitempty"`
	Text       string      `json:"text,omitempty"`
}

// Overlay controls the QR overlay on the display.
type Overlay struct {
	Show bool   `json:"show"`
	URL  string `json:"url"`
}

// SubmissionResolved tells admins a card is gone.
type SubmissionResolved struct {
	ID     string        `json:"id"`
	Status models.Status `json:"status"`
}

// PhotoRef names one photo in the approved pool.
type PhotoRef struct {
	StorageRef string `json:"storageRef"`
	URL        string `json:"url,omitempty"`
}

// RenderMessage is the directive for one floating message.
type RenderMessage struct {
	ID                  string `json:"id"`
	Text                string `json:"text"`
	LaneIndex           int    `json:"laneIndex"`
	TraversalDurationMs int64  `json:"traversalDurationMs"`
}

// Submitted acknowledges a guest submission.
type Submitted struct {
	ID     string        `json:"id"`
	Kind   models.Kind   `json:"kind"`
	Status models.Status `json:"status"`
}

// Snapshot is sent to an admin when it connects.
type Snapshot struct {
	Pending []SubmissionCard  `json:"pending"`
	Config  models.LiveConfig `json:"config"`
}

// ErrorPayload reports a failed command to its sender. Warning marks soft
// failures such as acting on an already resolved submission.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Warning bool   `json:"warning,omitempty"`
}
