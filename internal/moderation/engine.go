// Package moderation holds the submission queue and the approval workflow.
//
// Every Engine operation runs under one mutex. That makes the engine the
// coordinator: a submission, its auto-approval and the events they produce
// are one step as far as any admin or display can observe.
package moderation

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"event-wall/internal/models"
	"event-wall/internal/settings"
	"event-wall/internal/slideshow"
)

// Broadcaster receives the workflow's outgoing notifications.
type Broadcaster interface {
	SubmissionWaiting(sub models.Submission)
	ContentApproved(sub models.Submission)
	SubmissionResolved(id string, status models.Status)
	PerformClear()
	UpdateOverlay(cfg models.LiveConfig)
	PhotoRemoved(ref string)
}

// Media moves photo blobs between the pending and approved areas.
type Media interface {
	Promote(ref string) error
	Discard(ref string) error
	Delete(ref string) error
}

// Archive remembers approved photos across restarts.
type Archive interface {
	SaveApprovedPhoto(ctx context.Context, ref string, at time.Time) error
	DeleteApprovedPhoto(ctx context.Context, ref string) error
}

// Engine runs the moderation workflow.
type Engine struct {
	mu       sync.Mutex
	store    *Store
	settings *settings.Store
	fanout   Broadcaster
	pool     *slideshow.Pool
	media    Media
	archive  Archive
	now      func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithMedia attaches the photo blob store.
func WithMedia(m Media) Option { return func(e *Engine) { e.media = m } }

// WithArchive attaches persistence for the approved pool.
func WithArchive(a Archive) Option { return func(e *Engine) { e.archive = a } }

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option { return func(e *Engine) { e.now = now } }

// NewEngine wires the workflow.
func NewEngine(store *Store, cfg *settings.Store, fanout Broadcaster, pool *slideshow.Pool, opts ...Option) *Engine {
	e := &Engine{
		store:    store,
		settings: cfg,
		fanout:   fanout,
		pool:     pool,
		now:      time.Now,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// SubmitPhoto queues a photo already accepted by the media store.
func (e *Engine) SubmitPhoto(ctx context.Context, ref string) (models.Submission, error) {
	return e.Submit(ctx, models.KindPhoto, ref)
}

// SubmitMessage queues a floating message.
func (e *Engine) SubmitMessage(ctx context.Context, text string) (models.Submission, error) {
	return e.Submit(ctx, models.KindMessage, text)
}

// Submit validates and queues a submission. With auto-approval on, it is
// approved before any admin can see it.
func (e *Engine) Submit(ctx context.Context, kind models.Kind, payload string) (models.Submission, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	sub, err := e.store.Submit(kind, payload)
	if err != nil {
		return models.Submission{}, err
	}

	if e.settings.Get().AutoApprove {
		approved, err := e.approveLocked(ctx, sub.ID)
		if err == nil {
			return approved, nil
		}
		// Fall back to manual moderation rather than losing the item.
		slog.Warn("auto-approve failed, queued for review", "error", err, "id", sub.ID)
	}

	slog.Info("submission waiting", "id", sub.ID, "kind", sub.Kind)
	e.fanout.SubmissionWaiting(sub)
	return sub, nil
}

// Approve publishes a pending submission.
func (e *Engine) Approve(ctx context.Context, id string) (models.Submission, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.approveLocked(ctx, id)
}

func (e *Engine) approveLocked(ctx context.Context, id string) (models.Submission, error) {
	sub, err := e.store.Get(id)
	if err != nil {
		return models.Submission{}, err
	}

	if sub.Kind == models.KindPhoto && e.media != nil {
		if err := e.media.Promote(sub.StorageRef); err != nil {
			return models.Submission{}, fmt.Errorf("promote photo %s: %w", sub.StorageRef, err)
		}
	}

	sub, err = e.store.Resolve(id, models.StatusApproved)
	if err != nil {
		return models.Submission{}, err
	}

	if sub.Kind == models.KindPhoto {
		e.pool.Add(sub.StorageRef)
		if e.archive != nil {
			if err := e.archive.SaveApprovedPhoto(ctx, sub.StorageRef, e.now()); err != nil {
				slog.Warn("archive approved photo failed", "error", err, "ref", sub.StorageRef)
			}
		}
	}

	slog.Info("submission approved", "id", sub.ID, "kind", sub.Kind)
	e.fanout.ContentApproved(sub)
	return sub, nil
}

// Reject drops a pending submission without publishing it.
func (e *Engine) Reject(ctx context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	sub, err := e.store.Resolve(id, models.StatusRejected)
	if err != nil {
		return err
	}
	if sub.Kind == models.KindPhoto && e.media != nil {
		if err := e.media.Discard(sub.StorageRef); err != nil {
			slog.Warn("discard rejected photo failed", "error", err, "ref", sub.StorageRef)
		}
	}

	slog.Info("submission rejected", "id", sub.ID, "kind", sub.Kind)
	e.fanout.SubmissionResolved(sub.ID, models.StatusRejected)
	return nil
}

// Pending lists the moderation queue, oldest first.
func (e *Engine) Pending() []models.Submission {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Pending()
}

// PendingCount returns the size of the moderation queue.
func (e *Engine) PendingCount() int {
	return e.store.Len()
}

// Photos lists the approved pool in rotation order.
func (e *Engine) Photos() []string {
	return e.pool.Snapshot()
}

// Config returns the live configuration.
func (e *Engine) Config() models.LiveConfig {
	return e.settings.Get()
}

// UpdateConfig replaces the live configuration. Displays are told about the
// overlay only when something they show changed.
func (e *Engine) UpdateConfig(ctx context.Context, cfg models.LiveConfig) models.LiveConfig {
	e.mu.Lock()
	defer e.mu.Unlock()

	prev := e.settings.Update(ctx, cfg)
	next := e.settings.Get()
	slog.Info("live config updated",
		"auto_approve", next.AutoApprove, "show_qr_overlay", next.ShowQROverlay, "public_url", next.PublicURL)

	if prev.ShowQROverlay != next.ShowQROverlay || prev.PublicURL != next.PublicURL {
		e.fanout.UpdateOverlay(next)
	}
	return next
}

// ClearMessages wipes every floating message on every display.
func (e *Engine) ClearMessages() {
	e.mu.Lock()
	defer e.mu.Unlock()
	slog.Info("clearing floating messages")
	e.fanout.PerformClear()
}

// RemovePhoto deletes an approved photo. Removing a photo that is not in the
// pool is a no-op.
func (e *Engine) RemovePhoto(ctx context.Context, ref string) error {
	if err := CheckStorageRef(ref); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	removed := e.pool.Remove(ref)
	if e.media != nil {
		if err := e.media.Delete(ref); err != nil {
			slog.Warn("delete approved photo failed", "error", err, "ref", ref)
		}
	}
	if e.archive != nil {
		if err := e.archive.DeleteApprovedPhoto(ctx, ref); err != nil {
			slog.Warn("archive delete failed", "error", err, "ref", ref)
		}
	}
	if removed {
		slog.Info("photo removed from slideshow", "ref", ref)
		e.fanout.PhotoRemoved(ref)
	}
	return nil
}
