package stream

import (
	"context"
	"encoding/json"
	"time"

	websocket "github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"

	"github.com/nicholaschiang/foss-tutorbook/internal/models"
	"github.com/nicholaschiang/foss-tutorbook/internal/services"
)

type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	uid       uuid.UUID
	partition string
	topics    []string
	send      chan []byte
	// done is closed by the hub run loop when the client is dropped. The
	// send channel itself is never closed: the read pump also sends on it,
	// so closing it would race.
	done chan struct{}
}

// chatSender is the slice of the chat service the read pump needs: chat
// messages ride the stream connection alongside document events.
type chatSender interface {
	SendMessage(ctx context.Context, partition string, conversationID uuid.UUID, senderUID uuid.UUID, content string) (*models.ChatMessage, error)
}

func NewClient(hub *Hub, conn *websocket.Conn, uid uuid.UUID, partition string, topics []string) *Client {
	return &Client{
		hub:       hub,
		conn:      conn,
		uid:       uid,
		partition: partition,
		topics:    topics,
		send:      make(chan []byte, 32),
		done:      make(chan struct{}),
	}
}

func (c *Client) ReadPump(chat chatSender) {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var incoming struct {
			Type           string `json:"type"`
			ConversationID string `json:"conversation_id"`
			Content        string `json:"content"`
		}
		if err := json.Unmarshal(payload, &incoming); err != nil {
			c.writeError("invalid message payload")
			continue
		}
		if incoming.Type != "message" {
			c.writeError("unsupported message type")
			continue
		}
		conversationID, err := uuid.Parse(incoming.ConversationID)
		if err != nil {
			c.writeError("invalid conversation id")
			continue
		}

		message, err := chat.SendMessage(context.Background(), c.partition, conversationID, c.uid, incoming.Content)
		if err != nil {
			c.writeError("failed to send message")
			continue
		}

		// The service notifies the other participant; echo the stored
		// message back on the sender's own topic.
		c.hub.Publish(c.uid.String(), services.Event{
			Type:       "document",
			Collection: "chat_messages",
			Action:     "create",
			Doc:        message,
		})
	}
}

func (c *Client) WritePump() {
	defer func() {
		_ = c.conn.Close()
	}()

	for {
		select {
		case payload := <-c.send:
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

func (c *Client) writeError(message string) {
	payload, err := json.Marshal(services.Event{
		Type:   "error",
		Action: message,
		Doc:    time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return
	}
	select {
	case <-c.done:
	case c.send <- payload:
	default:
		c.hub.Unregister(c)
	}
}
