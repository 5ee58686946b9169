package moderation

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"event-wall/internal/idgen"
	"event-wall/internal/models"
)

// DefaultTombstones is how many decided ids a Store remembers.
const DefaultTombstones = 10000

// Store is the in-memory registry of submissions awaiting a decision. Decided
// submissions leave the registry but the most recent ids are remembered so a
// late second decision is reported as already resolved rather than unknown.
// Older tombstones are evicted; an evicted id answers ErrNotFound, which
// callers treat the same way.
type Store struct {
	mu       sync.RWMutex
	items    map[string]models.Submission
	refs     map[string]string // pending photo ref -> submission id
	resolved map[string]models.Status
	order    []string // tombstones, oldest first
	maxDone  int
	newID    idgen.Generator
	now      func() time.Time
}

// NewStore creates an empty store. A nil gen selects prefixed UUIDv7 ids.
func NewStore(gen idgen.Generator) *Store {
	if gen == nil {
		gen = idgen.Prefixed("sub_", idgen.Default)
	}
	return &Store{
		items:    make(map[string]models.Submission),
		refs:     make(map[string]string),
		resolved: make(map[string]models.Status),
		maxDone:  DefaultTombstones,
		newID:    gen,
		now:      time.Now,
	}
}

// Submit validates payload and stores a pending submission. For photos the
// payload is the storage reference, for messages the text.
func (s *Store) Submit(kind models.Kind, payload string) (models.Submission, error) {
	if !kind.Valid() {
		return models.Submission{}, fmt.Errorf("%w: unknown submission kind %q", models.ErrValidation, kind)
	}
	sub := models.Submission{Kind: kind, Status: models.StatusPending}
	switch kind {
	case models.KindPhoto:
		if err := CheckStorageRef(payload); err != nil {
			return models.Submission{}, err
		}
		sub.StorageRef = payload
	case models.KindMessage:
		text, err := CleanMessage(payload)
		if err != nil {
			return models.Submission{}, err
		}
		sub.Text = text
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if sub.StorageRef != "" {
		if id, dup := s.refs[sub.StorageRef]; dup {
			return models.Submission{}, fmt.Errorf("%w: photo %q is already pending as %s", models.ErrValidation, sub.StorageRef, id)
		}
	}
	sub.ID = s.freshIDLocked()
	sub.CreatedAt = s.now()
	s.items[sub.ID] = sub
	if sub.StorageRef != "" {
		s.refs[sub.StorageRef] = sub.ID
	}
	return sub, nil
}

func (s *Store) freshIDLocked() string {
	for {
		id := s.newID()
		if _, taken := s.items[id]; taken {
			continue
		}
		if _, taken := s.resolved[id]; taken {
			continue
		}
		return id
	}
}

// Get returns the pending submission with id.
func (s *Store) Get(id string) (models.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if sub, ok := s.items[id]; ok {
		return sub, nil
	}
	if status, ok := s.resolved[id]; ok {
		return models.Submission{}, fmt.Errorf("%w: %s is %s", models.ErrAlreadyResolved, id, status)
	}
	return models.Submission{}, fmt.Errorf("%w: %s", models.ErrNotFound, id)
}

// Resolve removes a pending submission and records the decision.
func (s *Store) Resolve(id string, status models.Status) (models.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.items[id]
	if !ok {
		if prev, done := s.resolved[id]; done {
			return models.Submission{}, fmt.Errorf("%w: %s is %s", models.ErrAlreadyResolved, id, prev)
		}
		return models.Submission{}, fmt.Errorf("%w: %s", models.ErrNotFound, id)
	}
	s.retireLocked(sub, status)
	sub.Status = status
	return sub, nil
}

func (s *Store) retireLocked(sub models.Submission, status models.Status) {
	delete(s.items, sub.ID)
	if sub.StorageRef != "" {
		delete(s.refs, sub.StorageRef)
	}
	s.resolved[sub.ID] = status
	s.order = append(s.order, sub.ID)
	for len(s.order) > s.maxDone {
		delete(s.resolved, s.order[0])
		s.order = s.order[1:]
	}
}

// Remove deletes a record. Removing an absent id is a no-op.
func (s *Store) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sub, ok := s.items[id]; ok {
		s.retireLocked(sub, models.StatusRejected)
	}
}

// Pending lists pending submissions, oldest first.
func (s *Store) Pending() []models.Submission {
	s.mu.RLock()
	out := make([]models.Submission, 0, len(s.items))
	for _, sub := range s.items {
		out = append(out, sub)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Len returns the number of pending submissions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
