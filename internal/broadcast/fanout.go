// Package broadcast translates moderation transitions into channel events for
// the roles that need them. It keeps no state of its own.
package broadcast

import (
	"event-wall/internal/models"
	"event-wall/internal/protocol"
	"event-wall/internal/qrcode"
)

// Publisher delivers an event to every session connected under the roles.
type Publisher interface {
	Publish(ev *protocol.Event, roles ...models.Role)
}

// Media paths as served by the HTTP layer.
const (
	AreaTemp     = "temp"
	AreaApproved = "approved"
)

// PhotoURL is where a stored photo can be fetched.
func PhotoURL(area, ref string) string {
	return "/uploads/" + area + "/" + ref
}

// ThumbnailURL is where a downscaled copy of a stored photo can be fetched.
func ThumbnailURL(area, ref string) string {
	return "/thumbnail/" + area + "/" + ref
}

// Fanout is the broadcast translator.
type Fanout struct {
	pub    Publisher
	origin string
}

// New creates a Fanout. origin is the public base URL used when the overlay
// falls back to the same-origin guest page.
func New(pub Publisher, origin string) *Fanout {
	return &Fanout{pub: pub, origin: origin}
}

// Card builds the moderation card for a pending submission.
func Card(sub models.Submission) protocol.SubmissionCard {
	card := protocol.SubmissionCard{
		ID:        sub.ID,
		Kind:      sub.Kind,
		Payload:   sub.PublicPayload(),
		CreatedAt: sub.CreatedAt,
	}
	if sub.Kind == models.KindPhoto {
		card.PreviewURL = PhotoURL(AreaTemp, sub.StorageRef)
		card.ThumbnailURL = ThumbnailURL(AreaTemp, sub.StorageRef)
	}
	return card
}

// SubmissionWaiting tells admins a new card needs a decision.
func (f *Fanout) SubmissionWaiting(sub models.Submission) {
	f.pub.Publish(protocol.NewEvent(protocol.EvtSubmissionWaiting, Card(sub)), models.RoleAdmin)
}

// ContentApproved pushes the public payload to displays and retires the card
// on every admin screen.
func (f *Fanout) ContentApproved(sub models.Submission) {
	payload := protocol.ContentApproved{ID: sub.ID, Kind: sub.Kind}
	switch sub.Kind {
	case models.KindPhoto:
		payload.StorageRef = sub.StorageRef
		payload.URL = PhotoURL(AreaApproved, sub.StorageRef)
	case models.KindMessage:
		payload.Text = sub.Text
	}
	f.pub.Publish(protocol.NewEvent(protocol.EvtContentApproved, payload), models.RoleDisplay)
	f.SubmissionResolved(sub.ID, models.StatusApproved)
}

// SubmissionResolved tells admins a card was decided.
func (f *Fanout) SubmissionResolved(id string, status models.Status) {
	f.pub.Publish(protocol.NewEvent(protocol.EvtSubmissionResolved,
		protocol.SubmissionResolved{ID: id, Status: status}), models.RoleAdmin)
}

// PerformClear makes displays drop every floating message.
func (f *Fanout) PerformClear() {
	f.pub.Publish(protocol.NewEvent(protocol.EvtPerformClear, nil), models.RoleDisplay)
}

// UpdateOverlay pushes the QR overlay state to displays.
func (f *Fanout) UpdateOverlay(cfg models.LiveConfig) {
	f.pub.Publish(protocol.NewEvent(protocol.EvtUpdateOverlay, f.Overlay(cfg)), models.RoleDisplay)
}

// Overlay computes the overlay payload for cfg.
func (f *Fanout) Overlay(cfg models.LiveConfig) protocol.Overlay {
	return protocol.Overlay{
		Show: cfg.ShowQROverlay,
		URL:  qrcode.Canonicalize(cfg.PublicURL, f.origin),
	}
}

// PhotoRemoved tells displays and admins a photo left the slideshow.
func (f *Fanout) PhotoRemoved(ref string) {
	f.pub.Publish(protocol.NewEvent(protocol.EvtPhotoRemoved,
		protocol.PhotoRef{StorageRef: ref}), models.RoleDisplay, models.RoleAdmin)
}
