// Package media stores uploaded photos on disk.
//
// A photo lives in one of two areas: temp while it waits for moderation and
// approved once it is part of the slideshow. Its reference is a fresh UUID
// plus an extension derived from the sniffed content, never the uploader's
// file name.
package media

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	_ "golang.org/x/image/webp"

	"event-wall/internal/models"
)

// Areas.
const (
	Temp     = "temp"
	Approved = "approved"
)

// DefaultMaxBytes bounds one upload.
const DefaultMaxBytes = 5 << 20

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Store keeps photo files under root/temp and root/approved.
type Store struct {
	root     string
	maxBytes int64
	thumbs   *ThumbnailCache
}

// New creates the area directories under root.
func New(root string, maxBytes int64) (*Store, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	for _, area := range []string{Temp, Approved} {
		if err := os.MkdirAll(filepath.Join(root, area), 0755); err != nil {
			return nil, fmt.Errorf("create %s dir: %w", area, err)
		}
	}
	return &Store{root: root, maxBytes: maxBytes, thumbs: NewThumbnailCache(DefaultThumbnailEntries)}, nil
}

// MaxBytes returns the upload limit.
func (s *Store) MaxBytes() int64 {
	return s.maxBytes
}

// Save checks that r holds a supported image within the size limit and writes
// it to the temp area. It returns the new storage reference.
func (s *Store) Save(r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		return "", fmt.Errorf("%w: photo exceeds %d bytes", models.ErrValidation, s.maxBytes)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty upload", models.ErrValidation)
	}

	mime := http.DetectContentType(data)
	ext, ok := extensions[mime]
	if !ok {
		return "", fmt.Errorf("%w: unsupported content type %s", models.ErrValidation, mime)
	}
	if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("%w: not a readable image: %v", models.ErrValidation, err)
	}

	ref := uuid.NewString() + ext
	path := filepath.Join(s.root, Temp, ref)
	tmp := path + ".part"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return "", fmt.Errorf("write upload: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("commit upload: %w", err)
	}
	slog.Debug("photo stored", "ref", ref, "bytes", len(data), "type", mime)
	return ref, nil
}

// Path resolves area/ref to a file path. It refuses unknown areas and refs
// that would leave the area directory.
func (s *Store) Path(area, ref string) (string, error) {
	if area != Temp && area != Approved {
		return "", fmt.Errorf("%w: unknown area %q", models.ErrNotFound, area)
	}
	if ref == "" || ref != filepath.Base(ref) || strings.Contains(ref, "..") || strings.ContainsAny(ref, `/\`) {
		return "", fmt.Errorf("%w: invalid photo reference %q", models.ErrValidation, ref)
	}
	return filepath.Join(s.root, area, ref), nil
}

// Exists reports whether area/ref is on disk.
func (s *Store) Exists(area, ref string) bool {
	path, err := s.Path(area, ref)
	if err != nil {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Promote moves a photo from temp to approved. Promoting a photo that is
// already approved succeeds.
func (s *Store) Promote(ref string) error {
	from, err := s.Path(Temp, ref)
	if err != nil {
		return err
	}
	to, _ := s.Path(Approved, ref)
	if err := os.Rename(from, to); err != nil {
		if errors.Is(err, os.ErrNotExist) && s.Exists(Approved, ref) {
			return nil
		}
		return fmt.Errorf("promote %s: %w", ref, err)
	}
	s.thumbs.Forget(from)
	return nil
}

// Discard deletes a pending photo. A missing file is not an error.
func (s *Store) Discard(ref string) error {
	return s.remove(Temp, ref)
}

// Delete removes an approved photo. A missing file is not an error.
func (s *Store) Delete(ref string) error {
	return s.remove(Approved, ref)
}

func (s *Store) remove(area, ref string) error {
	path, err := s.Path(area, ref)
	if err != nil {
		return err
	}
	s.thumbs.Forget(path)
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %s/%s: %w", area, ref, err)
	}
	return nil
}

// Thumbnail returns a JPEG thumbnail of area/ref, cached after the first call.
func (s *Store) Thumbnail(area, ref string) ([]byte, error) {
	path, err := s.Path(area, ref)
	if err != nil {
		return nil, err
	}
	return s.thumbs.Get(path)
}
