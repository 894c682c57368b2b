package handlers

import (
	"context"
	"errors"
	"strings"

	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/nicholaschiang/foss-tutorbook/internal/models"
	"github.com/nicholaschiang/foss-tutorbook/internal/services"
	"github.com/nicholaschiang/foss-tutorbook/internal/stream"
	"github.com/nicholaschiang/foss-tutorbook/pkg/utils"
)

type supervisedLister interface {
	ListSupervised(ctx context.Context, partition string, uid uuid.UUID) ([]models.Location, error)
}

type streamChatService interface {
	SendMessage(ctx context.Context, partition string, conversationID, senderUID uuid.UUID, content string) (*models.ChatMessage, error)
}

// StreamHandler upgrades authenticated clients onto the event hub. Each
// client is subscribed to its own uid topic plus one topic per supervised
// location, so document events reach exactly the parties that may see them.
type StreamHandler struct {
	hub       *stream.Hub
	chat      streamChatService
	locations supervisedLister
	jwtSecret string
}

func NewStreamHandler(hub *stream.Hub, chat streamChatService, locations supervisedLister, jwtSecret string) *StreamHandler {
	return &StreamHandler{hub: hub, chat: chat, locations: locations, jwtSecret: jwtSecret}
}

// Upgrade authenticates the request before the websocket handshake. The
// token arrives as ?token= or a Bearer header; browsers cannot set headers
// on websocket requests.
func (h *StreamHandler) Upgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return c.Status(fiber.StatusUpgradeRequired).JSON(fiber.Map{"error": "WebSocket upgrade required"})
	}

	claims, err := h.parseClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid or expired token"})
	}
	uid, err := utils.ParseUID(claims.UserID)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid or expired token"})
	}

	c.Locals("user_id", uid)
	c.Locals("role", claims.Role)
	c.Locals("partition", requestPartition(c))
	return c.Next()
}

func (h *StreamHandler) HandleConnection(conn *websocket.Conn) {
	uid, ok := conn.Locals("user_id").(uuid.UUID)
	if !ok {
		_ = conn.Close()
		return
	}
	partition, _ := conn.Locals("partition").(string)
	if partition == "" {
		partition = "default"
	}

	topics := []string{uid.String()}
	if role, _ := conn.Locals("role").(string); role == models.RoleSupervisor {
		locations, err := h.locations.ListSupervised(context.Background(), partition, uid)
		if err == nil {
			for _, location := range locations {
				topics = append(topics, services.LocationTopic(location.Name))
			}
		}
	}

	client := stream.NewClient(h.hub, conn, uid, partition, topics)
	h.hub.Register(client)
	go client.WritePump()
	client.ReadPump(h.chat)
}

func (h *StreamHandler) parseClaims(c *fiber.Ctx) (*utils.Claims, error) {
	tokenString := strings.TrimSpace(c.Query("token"))
	if tokenString == "" {
		authHeader := strings.TrimSpace(c.Get("Authorization"))
		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				tokenString = parts[1]
			}
		}
	}
	if tokenString == "" {
		return nil, errors.New("missing token")
	}
	return utils.ValidateToken(tokenString, h.jwtSecret)
}
