// Package settings holds the live configuration the administrator edits during
// the event.
package settings

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"event-wall/internal/models"
)

// Persister saves and restores the live configuration. It is optional.
type Persister interface {
	LoadLiveConfig(ctx context.Context) (models.LiveConfig, bool, error)
	SaveLiveConfig(ctx context.Context, cfg models.LiveConfig) error
}

// Store is the single process-wide LiveConfig. The last writer wins and
// readers always see a complete value.
type Store struct {
	mu      sync.RWMutex
	cfg     models.LiveConfig
	persist Persister
}

// New creates a store holding defaults. persist may be nil.
func New(defaults models.LiveConfig, persist Persister) *Store {
	return &Store{cfg: normalize(defaults), persist: persist}
}

// Load replaces the defaults with the persisted value, if any.
func (s *Store) Load(ctx context.Context) error {
	if s.persist == nil {
		return nil
	}
	cfg, found, err := s.persist.LoadLiveConfig(ctx)
	if err != nil {
		return err
	}
	if !found {
		return nil
	}
	s.mu.Lock()
	s.cfg = normalize(cfg)
	s.mu.Unlock()
	return nil
}

// Get returns the current value.
func (s *Store) Get() models.LiveConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Update commits cfg and returns the previous value. A persistence failure is
// logged; the new value is still in effect for this process.
func (s *Store) Update(ctx context.Context, cfg models.LiveConfig) (prev models.LiveConfig) {
	cfg = normalize(cfg)

	s.mu.Lock()
	prev = s.cfg
	s.cfg = cfg
	s.mu.Unlock()

	if s.persist != nil {
		if err := s.persist.SaveLiveConfig(ctx, cfg); err != nil {
			slog.Warn("settings: persist live config failed", "error", err)
		}
	}
	return prev
}

func normalize(cfg models.LiveConfig) models.LiveConfig {
	cfg.PublicURL = strings.TrimSpace(cfg.PublicURL)
	return cfg
}
