// Package qrcode turns the admin-entered guest URL into the address encoded in
// the scannable code shown on displays.
package qrcode

import (
	"fmt"
	"strings"

	qr "github.com/skip2/go-qrcode"
)

// GuestPath is the same-origin fallback page for guests.
const GuestPath = "/guest"

// DefaultSize is the PNG edge length in pixels.
const DefaultSize = 256

// Canonicalize applies the one rule used everywhere a guest URL is rendered:
// an explicit http(s) URL is kept, something that looks like a domain gets
// https://, anything else falls back to origin + GuestPath.
func Canonicalize(raw, origin string) string {
	s := strings.TrimSpace(raw)
	lower := strings.ToLower(s)
	switch {
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		return s
	case s != "" && strings.Contains(s, "."):
		return "https://" + s
	}
	return strings.TrimRight(origin, "/") + GuestPath
}

// PNG renders url as a QR code image.
func PNG(url string, size int) ([]byte, error) {
	if size <= 0 {
		size = DefaultSize
	}
	png, err := qr.Encode(url, qr.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	return png, nil
}
