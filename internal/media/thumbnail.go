package media

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"sync"

	"github.com/nfnt/resize"

	"event-wall/internal/models"
)

// Thumbnail geometry.
const (
	ThumbnailSize           = 300
	ThumbnailQuality        = 85
	DefaultThumbnailEntries = 512
)

// ThumbnailCache keeps rendered thumbnails in memory, keyed by file path.
type ThumbnailCache struct {
	mu    sync.RWMutex
	cache map[string][]byte
	max   int
}

// NewThumbnailCache holds at most max entries.
func NewThumbnailCache(max int) *ThumbnailCache {
	if max <= 0 {
		max = DefaultThumbnailEntries
	}
	return &ThumbnailCache{cache: make(map[string][]byte), max: max}
}

// Get returns the thumbnail for path, rendering it on a miss.
func (c *ThumbnailCache) Get(path string) ([]byte, error) {
	c.mu.RLock()
	if cached, ok := c.cache[path]; ok {
		c.mu.RUnlock()
		return cached, nil
	}
	c.mu.RUnlock()

	buf, err := render(path)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if len(c.cache) >= c.max {
		// Evict an arbitrary entry.
		for k := range c.cache {
			delete(c.cache, k)
			break
		}
	}
	c.cache[path] = buf
	c.mu.Unlock()
	return buf, nil
}

// Forget drops path from the cache.
func (c *ThumbnailCache) Forget(path string) {
	c.mu.Lock()
	delete(c.cache, path)
	c.mu.Unlock()
}

// Len returns the number of cached thumbnails.
func (c *ThumbnailCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cache)
}

func render(path string) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", models.ErrNotFound, path)
		}
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	thumbnail := resize.Thumbnail(ThumbnailSize, ThumbnailSize, img, resize.Lanczos3)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, thumbnail, &jpeg.Options{Quality: ThumbnailQuality}); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}
