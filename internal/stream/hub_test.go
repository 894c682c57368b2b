package stream

import (
	"testing"

	"github.com/google/uuid"
)

func newTestClient(hub *Hub, topics ...string) *Client {
	client := NewClient(hub, nil, uuid.New(), "default", topics)
	for _, topic := range topics {
		set, ok := hub.clients[topic]
		if !ok {
			set = make(map[*Client]struct{})
			hub.clients[topic] = set
		}
		set[client] = struct{}{}
	}
	return client
}

func TestDeliverEvictsSlowClient(t *testing.T) {
	hub := NewHub()
	client := newTestClient(hub, "tutor", "location:Gunn Library")

	for i := 0; i <= cap(client.send); i++ {
		hub.deliver("tutor", []byte("event"))
	}

	if _, ok := hub.clients["tutor"]; ok {
		t.Fatalf("expected the overflowing client to be evicted from its topic")
	}
	if _, ok := hub.clients["location:Gunn Library"]; ok {
		t.Fatalf("expected eviction from every subscribed topic")
	}
	select {
	case <-client.done:
	default:
		t.Fatalf("expected done to be closed on eviction")
	}
}

func TestWriteErrorAfterEviction(t *testing.T) {
	hub := NewHub()
	client := newTestClient(hub, "tutor")

	for i := 0; i <= cap(client.send); i++ {
		hub.deliver("tutor", []byte("event"))
	}

	// The read pump may still report errors after the hub evicted the
	// client; this must be a no-op rather than a panic.
	client.writeError("too slow")

	// A second drop of an already-evicted client is also a no-op.
	hub.drop(client)
}
