package models

import "time"

// Kind distinguishes the two submission variants.
type Kind string

const (
	KindPhoto   Kind = "photo"
	KindMessage Kind = "message"
)

// Valid reports whether k is a known submission kind.
func (k Kind) Valid() bool {
	return k == KindPhoto || k == KindMessage
}

// Status is the moderation state of a submission.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Submission is a guest-provided photo or message. Photos carry StorageRef,
// messages carry Text.
type Submission struct {
	ID         string    `json:"id"`
	Kind       Kind      `json:"kind"`
	StorageRef string    `json:"storageRef,omitempty"`
	Text       string    `json:"text,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	Status     Status    `json:"status"`
}

// PublicPayload returns what Display and Admin render: the photo reference or
// the message text.
func (s Submission) PublicPayload() string {
	if s.Kind == KindPhoto {
		return s.StorageRef
	}
	return s.Text
}
