package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/nicholaschiang/foss-tutorbook/internal/models"
	"github.com/nicholaschiang/foss-tutorbook/internal/repository"
)

var ErrConversationNotFound = errors.New("conversation not found")

type ChatService struct {
	conversationRepo *repository.ConversationRepository
	messageRepo      *repository.MessageRepository
	userRepo         userReader
	notifier         *Notifier
}

func NewChatService(
	conversationRepo *repository.ConversationRepository,
	messageRepo *repository.MessageRepository,
	userRepo userReader,
	notifier *Notifier,
) *ChatService {
	return &ChatService{
		conversationRepo: conversationRepo,
		messageRepo:      messageRepo,
		userRepo:         userRepo,
		notifier:         notifier,
	}
}

// StartConversation opens (or returns the existing) thread between two users.
func (s *ChatService) StartConversation(
	ctx context.Context,
	partition string,
	creatorUID uuid.UUID,
	recipientUID uuid.UUID,
) (*models.Conversation, error) {
	if creatorUID == recipientUID {
		return nil, ErrInvalidInput
	}
	if _, err := s.userRepo.GetByID(ctx, partition, recipientUID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return s.conversationRepo.CreateOrGet(ctx, partition, creatorUID, recipientUID)
}

func (s *ChatService) SendMessage(
	ctx context.Context,
	partition string,
	conversationID uuid.UUID,
	senderUID uuid.UUID,
	content string,
) (*models.ChatMessage, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrInvalidInput
	}

	conversation, err := s.conversationRepo.GetByIDForParticipant(ctx, partition, conversationID, senderUID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}

	message, err := s.messageRepo.Create(ctx, conversationID, senderUID, content)
	if err != nil {
		return nil, err
	}
	if err := s.conversationRepo.Touch(ctx, partition, conversationID); err != nil {
		return nil, err
	}

	recipient := conversation.RecipientUID
	if recipient == senderUID {
		recipient = conversation.CreatorUID
	}
	s.notifier.DocumentEvent("chat_messages", "create", message, recipient.String())
	return message, nil
}

func (s *ChatService) GetMessages(
	ctx context.Context,
	partition string,
	conversationID uuid.UUID,
	uid uuid.UUID,
	page int,
	limit int,
) ([]models.ChatMessage, *models.PaginationMeta, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	if _, err := s.conversationRepo.GetByIDForParticipant(ctx, partition, conversationID, uid); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, ErrConversationNotFound
		}
		return nil, nil, err
	}

	messages, total, err := s.messageRepo.ListByConversation(ctx, conversationID, limit, (page-1)*limit)
	if err != nil {
		return nil, nil, err
	}

	// Reading a page marks the other side's messages in it as read.
	unreadIDs := make([]uuid.UUID, 0, len(messages))
	for _, message := range messages {
		if message.SenderUID != uid && !message.IsRead {
			unreadIDs = append(unreadIDs, message.ID)
		}
	}
	if err := s.messageRepo.MarkMessagesRead(ctx, unreadIDs, uid); err != nil {
		return nil, nil, err
	}

	totalPages := (total + limit - 1) / limit
	meta := &models.PaginationMeta{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
	}
	return messages, meta, nil
}

func (s *ChatService) GetUserConversations(
	ctx context.Context,
	partition string,
	uid uuid.UUID,
) ([]models.ConversationSummary, error) {
	return s.conversationRepo.ListForParticipant(ctx, partition, uid)
}
