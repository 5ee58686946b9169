package settings

import (
	"context"
	"errors"
	"sync"
	"testing"

	"event-wall/internal/models"
)

type memPersister struct {
	cfg     models.LiveConfig
	found   bool
	saves   int
	saveErr error
}

func (m *memPersister) LoadLiveConfig(ctx context.Context) (models.LiveConfig, bool, error) {
	return m.cfg, m.found, nil
}

func (m *memPersister) SaveLiveConfig(ctx context.Context, cfg models.LiveConfig) error {
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.cfg, m.found = cfg, true
	return nil
}

func TestStore_DefaultsAndUpdate(t *testing.T) {
	s := New(models.LiveConfig{ShowQROverlay: true}, nil)
	if !s.Get().ShowQROverlay {
		t.Fatal("defaults not applied")
	}
	prev := s.Update(context.Background(), models.LiveConfig{PublicURL: "  wall.example.org ", AutoApprove: true})
	if !prev.ShowQROverlay {
		t.Fatal("Update should return the previous value")
	}
	got := s.Get()
	if got.PublicURL != "wall.example.org" || !got.AutoApprove || got.ShowQROverlay {
		t.Fatalf("unexpected config %+v", got)
	}
}

func TestStore_LoadFromPersister(t *testing.T) {
	p := &memPersister{cfg: models.LiveConfig{AutoApprove: true}, found: true}
	s := New(models.LiveConfig{}, p)
	if err := s.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !s.Get().AutoApprove {
		t.Fatal("persisted value should replace defaults")
	}
}

func TestStore_LoadNothingPersistedKeepsDefaults(t *testing.T) {
	s := New(models.LiveConfig{PublicURL: "x.org"}, &memPersister{})
	if err := s.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	if s.Get().PublicURL != "x.org" {
		t.Fatal("defaults should survive an empty store")
	}
}

func TestStore_PersistFailureStillCommits(t *testing.T) {
	p := &memPersister{saveErr: errors.New("disk full")}
	s := New(models.LiveConfig{}, p)
	s.Update(context.Background(), models.LiveConfig{AutoApprove: true})
	if !s.Get().AutoApprove {
		t.Fatal("value should be in effect despite persist failure")
	}
	if p.saves != 1 {
		t.Fatalf("expected 1 save attempt, got %d", p.saves)
	}
}

func TestStore_ConcurrentReadersSeeWholeValues(t *testing.T) {
	s := New(models.LiveConfig{}, nil)
	a := models.LiveConfig{PublicURL: "a.example.org", AutoApprove: true, ShowQROverlay: true}
	b := models.LiveConfig{PublicURL: "b.example.org"}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			if i%2 == 0 {
				s.Update(context.Background(), a)
			} else {
				s.Update(context.Background(), b)
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			got := s.Get()
			if got != a && got != b && got != (models.LiveConfig{}) {
				t.Errorf("torn read: %+v", got)
				return
			}
		}
	}()
	wg.Wait()
}
