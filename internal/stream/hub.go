package stream

import (
	"encoding/json"
	"log"

	"github.com/nicholaschiang/foss-tutorbook/internal/services"
)

// Hub fans document events out to connected stream clients. Clients are
// keyed by topic: every client subscribes to its own uid plus one
// "location:<name>" topic per supervised location. All map access happens on
// the run loop.
type Hub struct {
	clients    map[string]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan envelope
}

type envelope struct {
	topic   string
	payload []byte
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan envelope, 64),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			for _, topic := range client.topics {
				set, ok := h.clients[topic]
				if !ok {
					set = make(map[*Client]struct{})
					h.clients[topic] = set
				}
				set[client] = struct{}{}
			}
		case client := <-h.unregister:
			h.drop(client)
		case message := <-h.broadcast:
			h.deliver(message.topic, message.payload)
		}
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Publish implements services.EventPublisher. Drops the event when the
// broadcast buffer is full rather than blocking the calling service.
func (h *Hub) Publish(topic string, event services.Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("stream hub encode event: %v", err)
		return
	}
	select {
	case h.broadcast <- envelope{topic: topic, payload: payload}:
	default:
		log.Printf("stream hub dropped event on topic %q", topic)
	}
}

func (h *Hub) deliver(topic string, payload []byte) {
	set, ok := h.clients[topic]
	if !ok {
		return
	}
	for client := range set {
		select {
		case client.send <- payload:
		default:
			h.drop(client)
		}
	}
}

func (h *Hub) drop(client *Client) {
	dropped := false
	for _, topic := range client.topics {
		set, ok := h.clients[topic]
		if !ok {
			continue
		}
		if _, exists := set[client]; exists {
			delete(set, client)
			dropped = true
		}
		if len(set) == 0 {
			delete(h.clients, topic)
		}
	}
	if dropped {
		close(client.done)
	}
}
