package websocket

import (
	"testing"

	"event-wall/internal/models"
	"event-wall/internal/protocol"
)

func TestClient_DeliverNonBlocking(t *testing.T) {
	c := NewClient(nil, nil, models.RoleGuest, "c1", 1, nil)
	if !c.Deliver(protocol.NewEvent(protocol.EvtSubmitted, nil)) {
		t.Fatal("first event should be queued")
	}
	if c.Deliver(protocol.NewEvent(protocol.EvtSubmitted, nil)) {
		t.Fatal("second event should be refused when the queue is full")
	}
}

func TestClient_CloseIdempotent(t *testing.T) {
	c := NewClient(nil, nil, models.RoleAdmin, "c1", 4, nil)
	c.Close()
	c.Close()
	if c.Deliver(protocol.NewEvent(protocol.EvtSnapshot, nil)) {
		t.Fatal("Deliver after Close should fail")
	}
	if _, ok := <-c.Send; ok {
		t.Fatal("Send should be closed")
	}
}
