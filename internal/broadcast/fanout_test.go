package broadcast

import (
	"testing"
	"time"

	"event-wall/internal/models"
	"event-wall/internal/protocol"
)

type published struct {
	ev    *protocol.Event
	roles []models.Role
}

type recorder struct {
	got []published
}

func (r *recorder) Publish(ev *protocol.Event, roles ...models.Role) {
	r.got = append(r.got, published{ev: ev, roles: roles})
}

func onlyRole(t *testing.T, p published, want models.Role) {
	t.Helper()
	if len(p.roles) != 1 || p.roles[0] != want {
		t.Fatalf("%s sent to %v, want [%s]", p.ev.Kind, p.roles, want)
	}
}

func TestSubmissionWaiting_PhotoCard(t *testing.T) {
	rec := &recorder{}
	f := New(rec, "http://wall.local")
	f.SubmissionWaiting(models.Submission{
		ID: "sub_1", Kind: models.KindPhoto, StorageRef: "abc.jpg",
		CreatedAt: time.Now(), Status: models.StatusPending,
	})

	if len(rec.got) != 1 {
		t.Fatalf("expected 1 event, got %d", len(rec.got))
	}
	onlyRole(t, rec.got[0], models.RoleAdmin)
	card := rec.got[0].ev.Payload.(protocol.SubmissionCard)
	if card.ID != "sub_1" || card.Payload != "abc.jpg" {
		t.Fatalf("unexpected card %+v", card)
	}
	if card.PreviewURL != "/uploads/temp/abc.jpg" || card.ThumbnailURL != "/thumbnail/temp/abc.jpg" {
		t.Fatalf("unexpected urls %+v", card)
	}
}

func TestSubmissionWaiting_MessageCard(t *testing.T) {
	rec := &recorder{}
	New(rec, "").SubmissionWaiting(models.Submission{ID: "sub_2", Kind: models.KindMessage, Text: "hello"})
	card := rec.got[0].ev.Payload.(protocol.SubmissionCard)
	if card.Payload != "hello" || card.PreviewURL != "" {
		t.Fatalf("unexpected card %+v", card)
	}
}

func TestContentApproved(t *testing.T) {
	rec := &recorder{}
	f := New(rec, "")
	f.ContentApproved(models.Submission{ID: "sub_3", Kind: models.KindPhoto, StorageRef: "p.png"})

	if len(rec.got) != 2 {
		t.Fatalf("expected approved + resolved, got %d events", len(rec.got))
	}
	onlyRole(t, rec.got[0], models.RoleDisplay)
	p := rec.got[0].ev.Payload.(protocol.ContentApproved)
	if p.Kind != models.KindPhoto || p.StorageRef != "p.png" || p.URL != "/uploads/approved/p.png" {
		t.Fatalf("unexpected payload %+v", p)
	}
	onlyRole(t, rec.got[1], models.RoleAdmin)
	if rec.got[1].ev.Kind != protocol.EvtSubmissionResolved {
		t.Fatalf("second event = %s", rec.got[1].ev.Kind)
	}
}

func TestPerformClear(t *testing.T) {
	rec := &recorder{}
	New(rec, "").PerformClear()
	onlyRole(t, rec.got[0], models.RoleDisplay)
	if rec.got[0].ev.Kind != protocol.EvtPerformClear {
		t.Fatalf("kind = %s", rec.got[0].ev.Kind)
	}
}

func TestUpdateOverlay_CanonicalizesURL(t *testing.T) {
	rec := &recorder{}
	f := New(rec, "http://10.0.0.5:8000")

	f.UpdateOverlay(models.LiveConfig{ShowQROverlay: true, PublicURL: "myevent.ngrok-free.app"})
	f.UpdateOverlay(models.LiveConfig{ShowQROverlay: false})

	first := rec.got[0].ev.Payload.(protocol.Overlay)
	if !first.Show || first.URL != "https://myevent.ngrok-free.app" {
		t.Fatalf("unexpected overlay %+v", first)
	}
	second := rec.got[1].ev.Payload.(protocol.Overlay)
	if second.Show || second.URL != "http://10.0.0.5:8000/guest" {
		t.Fatalf("unexpected overlay %+v", second)
	}
}

func TestPhotoRemoved(t *testing.T) {
	rec := &recorder{}
	New(rec, "").PhotoRemoved("p.png")
	if len(rec.got[0].roles) != 2 {
		t.Fatalf("photoRemoved should reach displays and admins, got %v", rec.got[0].roles)
	}
}
