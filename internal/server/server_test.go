package server

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"event-wall/internal/broadcast"
	"event-wall/internal/display"
	"event-wall/internal/lanes"
	"event-wall/internal/media"
	"event-wall/internal/models"
	"event-wall/internal/moderation"
	"event-wall/internal/protocol"
	"event-wall/internal/settings"
	"event-wall/internal/slideshow"
	ws "event-wall/internal/websocket"
)

type testEnv struct {
	srv    *Server
	http   *httptest.Server
	engine *moderation.Engine
	pool   *slideshow.Pool
	media  *media.Store
	hub    *ws.Hub
}

func newEnv(t *testing.T, live models.LiveConfig) *testEnv {
	t.Helper()

	store, err := media.New(t.TempDir(), 0)
	if err != nil {
		t.Fatal(err)
	}
	hub := ws.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	pool := slideshow.NewPool()
	fanout := broadcast.New(hub, "http://wall.test")
	engine := moderation.NewEngine(moderation.NewStore(nil), settings.New(live, nil), fanout, pool,
		moderation.WithMedia(store))

	srv := New(engine, hub, store, fanout, pool, Options{
		SendBuffer: 64,
		Display: display.Options{
			SlideInterval: time.Hour,
			SurfaceHeight: 300,
			Lanes:         lanes.Options{MinTraversal: time.Hour},
		},
	})
	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(func() {
		ts.Close()
		cancel()
		<-hub.Done()
	})
	return &testEnv{srv: srv, http: ts, engine: engine, pool: pool, media: store, hub: hub}
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 40, 30))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func upload(t *testing.T, env *testEnv, data []byte) *http.Response {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "holiday.png")
	if err != nil {
		t.Fatal(err)
	}
	part.Write(data)
	mw.Close()

	resp, err := http.Post(env.http.URL+"/api/upload", mw.FormDataContentType(), &body)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func post(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func TestHealth(t *testing.T) {
	env := newEnv(t, models.LiveConfig{})
	resp, err := http.Get(env.http.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	body := decode[map[string]any](t, resp)
	if resp.StatusCode != http.StatusOK || body["status"] != "ok" {
		t.Fatalf("health = %d %v", resp.StatusCode, body)
	}
	sessions, ok := body["sessions"].(map[string]any)
	if !ok || len(sessions) != len(models.Roles) {
		t.Fatalf("sessions = %v", body["sessions"])
	}
}

func TestUploadApproveServe(t *testing.T) {
	env := newEnv(t, models.LiveConfig{})

	resp := upload(t, env, pngBytes(t))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("upload status = %d", resp.StatusCode)
	}
	sub := decode[protocol.Submitted](t, resp)
	if sub.Status != models.StatusPending || sub.Kind != models.KindPhoto {
		t.Fatalf("unexpected ack %+v", sub)
	}

	resp, _ = http.Get(env.http.URL + "/api/pending")
	cards := decode[[]protocol.SubmissionCard](t, resp)
	if len(cards) != 1 || cards[0].ID != sub.ID {
		t.Fatalf("pending = %+v", cards)
	}
	if strings.Contains(cards[0].Payload, "holiday") {
		t.Fatalf("storage ref leaks the upload name: %s", cards[0].Payload)
	}
	ref := cards[0].Payload

	resp, _ = http.Get(env.http.URL + cards[0].ThumbnailURL)
	if resp.StatusCode != http.StatusOK || resp.Header.Get("Content-Type") != "image/jpeg" {
		t.Fatalf("thumbnail = %d %s", resp.StatusCode, resp.Header.Get("Content-Type"))
	}
	resp.Body.Close()

	resp = post(t, env.http.URL+"/api/submissions/"+sub.ID+"/approve", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("approve status = %d", resp.StatusCode)
	}
	resp.Body.Close()

	if !env.pool.Contains(ref) {
		t.Fatal("approved photo not in pool")
	}
	resp, _ = http.Get(env.http.URL + broadcast.PhotoURL(broadcast.AreaApproved, ref))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("serve approved = %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp, _ = http.Get(env.http.URL + "/api/photos")
	photos := decode[[]protocol.PhotoRef](t, resp)
	if len(photos) != 1 || photos[0].StorageRef != ref {
		t.Fatalf("photos = %+v", photos)
	}

	req, _ := http.NewRequest(http.MethodDelete, env.http.URL+"/api/photos/"+ref, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusNoContent || env.pool.Len() != 0 {
		t.Fatalf("delete = %d, pool %d", resp.StatusCode, env.pool.Len())
	}
}

func TestUpload_RejectsNonImage(t *testing.T) {
	env := newEnv(t, models.LiveConfig{})
	resp := upload(t, env, []byte("definitely not a photo"))
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	if len(env.engine.Pending()) != 0 {
		t.Fatal("invalid upload reached the queue")
	}
}

func TestMessageValidation(t *testing.T) {
	env := newEnv(t, models.LiveConfig{})
	resp := post(t, env.http.URL+"/api/messages", `{"text":"   "}`)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}

	resp = post(t, env.http.URL+"/api/messages", `{"text":"hello <b>wall</b>"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}
	resp.Body.Close()
	if p := env.engine.Pending(); len(p) != 1 || p[0].Text != "hello wall" {
		t.Fatalf("pending = %+v", p)
	}
}

func TestDecisionOnUnknownIsWarning(t *testing.T) {
	env := newEnv(t, models.LiveConfig{})
	for _, action := range []string{"approve", "reject"} {
		resp := post(t, env.http.URL+"/api/submissions/sub_nope/"+action, "")
		body := decode[map[string]string](t, resp)
		if resp.StatusCode != http.StatusOK || body["warning"] == "" {
			t.Fatalf("%s: %d %v", action, resp.StatusCode, body)
		}
	}
}

func TestConfigRoundTrip(t *testing.T) {
	env := newEnv(t, models.LiveConfig{})
	resp := post(t, env.http.URL+"/api/config", `{"publicUrl":"wall.example.com","showQrOverlay":true}`)
	got := decode[models.LiveConfig](t, resp)
	if got.PublicURL != "wall.example.com" || !got.ShowQROverlay {
		t.Fatalf("config = %+v", got)
	}

	resp, _ = http.Get(env.http.URL + "/api/config")
	if decode[models.LiveConfig](t, resp) != got {
		t.Fatal("GET /api/config disagrees with POST")
	}
}

func TestQRCode(t *testing.T) {
	env := newEnv(t, models.LiveConfig{PublicURL: "wall.example.com"})
	resp, err := http.Get(env.http.URL + "/api/qr.png?size=128")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.Header.Get("Content-Type") != "image/png" {
		t.Fatalf("content type = %s", resp.Header.Get("Content-Type"))
	}
	img, err := png.Decode(resp.Body)
	if err != nil {
		t.Fatalf("not a png: %v", err)
	}
	if img.Bounds().Dx() != 128 {
		t.Fatalf("size = %d", img.Bounds().Dx())
	}
}

func TestMediaRefusesTraversal(t *testing.T) {
	env := newEnv(t, models.LiveConfig{})
	resp, _ := http.Get(env.http.URL + "/uploads/approved/..%2Fsecret")
	resp.Body.Close()
	if resp.StatusCode == http.StatusOK {
		t.Fatal("traversal served a file")
	}
}

func TestJSONBodyCapped(t *testing.T) {
	env := newEnv(t, models.LiveConfig{})
	huge := `{"text":"` + strings.Repeat("x", maxJSONBody) + `"}`
	for _, path := range []string{"/api/messages", "/api/config"} {
		resp := post(t, env.http.URL+path, huge)
		resp.Body.Close()
		if resp.StatusCode != http.StatusRequestEntityTooLarge {
			t.Errorf("%s status = %d, want 413", path, resp.StatusCode)
		}
	}
	if env.engine.PendingCount() != 0 {
		t.Fatal("oversized message reached the queue")
	}
}
