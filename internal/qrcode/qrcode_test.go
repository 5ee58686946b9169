package qrcode

import (
	"bytes"
	"image/png"
	"testing"
)

func TestCanonicalize(t *testing.T) {
	const origin = "http://192.168.1.20:8000"
	tests := []struct {
		in, want string
	}{
		{"", origin + "/guest"},
		{"   ", origin + "/guest"},
		{"myevent.ngrok-free.app", "https://myevent.ngrok-free.app"},
		{"https://x.com", "https://x.com"},
		{"http://party.local/guest", "http://party.local/guest"},
		{"HTTPS://X.COM", "HTTPS://X.COM"},
		{"localhost", origin + "/guest"},
		{"  wall.example.org ", "https://wall.example.org"},
	}
	for _, tt := range tests {
		if got := Canonicalize(tt.in, origin); got != tt.want {
			t.Errorf("Canonicalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCanonicalize_OriginTrailingSlash(t *testing.T) {
	if got := Canonicalize("", "https://wall.example.org/"); got != "https://wall.example.org/guest" {
		t.Fatalf("got %q", got)
	}
}

func TestPNG(t *testing.T) {
	data, err := PNG("https://myevent.ngrok-free.app", 128)
	if err != nil {
		t.Fatalf("PNG: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("output is not a PNG: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 128 || b.Dy() != 128 {
		t.Fatalf("size = %dx%d, want 128x128", b.Dx(), b.Dy())
	}
}
