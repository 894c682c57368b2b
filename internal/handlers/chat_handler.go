package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/nicholaschiang/foss-tutorbook/internal/models"
	"github.com/nicholaschiang/foss-tutorbook/pkg/utils"
)

type chatApplicationService interface {
	GetUserConversations(ctx context.Context, partition string, uid uuid.UUID) ([]models.ConversationSummary, error)
	StartConversation(ctx context.Context, partition string, creatorUID, recipientUID uuid.UUID) (*models.Conversation, error)
	GetMessages(ctx context.Context, partition string, conversationID, uid uuid.UUID, page, limit int) ([]models.ChatMessage, *models.PaginationMeta, error)
	SendMessage(ctx context.Context, partition string, conversationID, senderUID uuid.UUID, content string) (*models.ChatMessage, error)
}

type ChatHandler struct {
	service chatApplicationService
}

func NewChatHandler(service chatApplicationService) *ChatHandler {
	return &ChatHandler{service: service}
}

func (h *ChatHandler) ListConversations(c *fiber.Ctx) error {
	uid, err := actorUID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	conversations, err := h.service.GetUserConversations(c.Context(), requestPartition(c), uid)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(fiber.Map{"conversations": conversations})
}

type createConversationRequest struct {
	RecipientUID string `json:"recipient_uid"`
}

func (h *ChatHandler) CreateConversation(c *fiber.Ctx) error {
	uid, err := actorUID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req createConversationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	recipientUID, err := utils.ParseUID(req.RecipientUID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid recipient uid"})
	}

	conversation, err := h.service.StartConversation(c.Context(), requestPartition(c), uid, recipientUID)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"conversation": conversation})
}

func (h *ChatHandler) GetMessages(c *fiber.Ctx) error {
	uid, err := actorUID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}
	conversationID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid conversation ID"})
	}

	page, limit := parsePagination(c)
	messages, meta, err := h.service.GetMessages(c.Context(), requestPartition(c), conversationID, uid, page, limit)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"messages":   messages,
		"pagination": meta,
	})
}

type sendMessageRequest struct {
	Content string `json:"content"`
}

// SendMessage is the REST fallback for clients without a stream connection.
func (h *ChatHandler) SendMessage(c *fiber.Ctx) error {
	uid, err := actorUID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}
	conversationID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid conversation ID"})
	}

	var req sendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	message, err := h.service.SendMessage(c.Context(), requestPartition(c), conversationID, uid, req.Content)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": message})
}
