package lanes

import (
	"fmt"
	"testing"
	"time"

	"event-wall/internal/models"
)

func assignment(d time.Duration) models.LaneAssignment {
	return models.LaneAssignment{LaneIndex: 1, SpawnTime: time.Now(), TraversalDurationMs: d.Milliseconds()}
}

func TestInFlight_ExpiresAfterTraversal(t *testing.T) {
	expired := make(chan string, 1)
	f := NewInFlight(func(id string) { expired <- id })
	f.Track("m1", assignment(20*time.Millisecond))
	if f.Len() != 1 {
		t.Fatalf("expected 1 in flight, got %d", f.Len())
	}

	select {
	case id := <-expired:
		if id != "m1" {
			t.Fatalf("expired %q, want m1", id)
		}
	case <-time.After(time.Second):
		t.Fatal("message never expired")
	}
	if f.Len() != 0 {
		t.Fatalf("expected 0 in flight, got %d", f.Len())
	}
}

func TestInFlight_Clear(t *testing.T) {
	for _, n := range []int{0, 1, 25} {
		t.Run(fmt.Sprintf("%d messages", n), func(t *testing.T) {
			expired := make(chan string, n+1)
			f := NewInFlight(func(id string) { expired <- id })
			for i := 0; i < n; i++ {
				f.Track(fmt.Sprintf("m%d", i), assignment(50*time.Millisecond))
			}
			if got := f.Clear(); got != n {
				t.Fatalf("Clear returned %d, want %d", got, n)
			}
			if f.Len() != 0 {
				t.Fatalf("expected nothing in flight, got %d", f.Len())
			}
			select {
			case id := <-expired:
				t.Fatalf("cleared message %q should not expire later", id)
			case <-time.After(100 * time.Millisecond):
			}
		})
	}
}

func TestInFlight_RetrackRestartsTimer(t *testing.T) {
	expired := make(chan string, 2)
	f := NewInFlight(func(id string) { expired <- id })
	f.Track("m1", assignment(10*time.Millisecond))
	f.Track("m1", assignment(80*time.Millisecond))

	select {
	case <-expired:
		t.Fatal("first timer should have been replaced")
	case <-time.After(40 * time.Millisecond):
	}
	select {
	case <-expired:
	case <-time.After(time.Second):
		t.Fatal("second timer never fired")
	}
	if f.Len() != 0 {
		t.Fatal("entry should be gone")
	}
}
