package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/nicholaschiang/foss-tutorbook/internal/models"
)

type ConversationRepository struct {
	db DBTX
}

func NewConversationRepository(db DBTX) *ConversationRepository {
	return &ConversationRepository{db: db}
}

func (r *ConversationRepository) CreateOrGet(
	ctx context.Context,
	partition string,
	creatorUID uuid.UUID,
	recipientUID uuid.UUID,
) (*models.Conversation, error) {
	query := `
		INSERT INTO conversations (partition, creator_uid, recipient_uid)
		VALUES ($1, $2, $3)
		ON CONFLICT (partition, creator_uid, recipient_uid)
		DO UPDATE SET updated_at = conversations.updated_at
		RETURNING id, partition, creator_uid, recipient_uid, created_at, updated_at
	`
	var conversation models.Conversation
	err := r.db.QueryRow(ctx, query, partition, creatorUID, recipientUID).Scan(
		&conversation.ID,
		&conversation.Partition,
		&conversation.CreatorUID,
		&conversation.RecipientUID,
		&conversation.CreatedAt,
		&conversation.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &conversation, nil
}

func (r *ConversationRepository) GetByIDForParticipant(
	ctx context.Context,
	partition string,
	conversationID uuid.UUID,
	uid uuid.UUID,
) (*models.Conversation, error) {
	query := `
		SELECT id, partition, creator_uid, recipient_uid, created_at, updated_at
		FROM conversations
		WHERE partition = $1 AND id = $2 AND (creator_uid = $3 OR recipient_uid = $3)
	`
	var conversation models.Conversation
	err := r.db.QueryRow(ctx, query, partition, conversationID, uid).Scan(
		&conversation.ID,
		&conversation.Partition,
		&conversation.CreatorUID,
		&conversation.RecipientUID,
		&conversation.CreatedAt,
		&conversation.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &conversation, nil
}

func (r *ConversationRepository) ListForParticipant(
	ctx context.Context,
	partition string,
	uid uuid.UUID,
) ([]models.ConversationSummary, error) {
	query := `
		SELECT c.id, c.partition, c.creator_uid, c.recipient_uid, c.created_at, c.updated_at,
			m.id, m.conversation_id, m.sender_uid, m.content, m.is_read, m.created_at,
			COALESCE(u.unread, 0)
		FROM conversations c
		LEFT JOIN LATERAL (
			SELECT id, conversation_id, sender_uid, content, is_read, created_at
			FROM chat_messages
			WHERE conversation_id = c.id
			ORDER BY created_at DESC, id DESC
			LIMIT 1
		) m ON TRUE
		LEFT JOIN LATERAL (
			SELECT COUNT(*) AS unread
			FROM chat_messages
			WHERE conversation_id = c.id AND sender_uid <> $3 AND NOT is_read
		) u ON TRUE
		WHERE c.partition = $1 AND (c.creator_uid = $2 OR c.recipient_uid = $2)
		ORDER BY c.updated_at DESC
	`
	rows, err := r.db.Query(ctx, query, partition, uid, uid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := make([]models.ConversationSummary, 0)
	for rows.Next() {
		var summary models.ConversationSummary
		var messageID, messageConversationID *uuid.UUID
		var senderUID *uuid.UUID
		var content *string
		var isRead *bool
		var createdAt *time.Time
		if err := rows.Scan(
			&summary.ID,
			&summary.Partition,
			&summary.CreatorUID,
			&summary.RecipientUID,
			&summary.CreatedAt,
			&summary.UpdatedAt,
			&messageID,
			&messageConversationID,
			&senderUID,
			&content,
			&isRead,
			&createdAt,
			&summary.UnreadCount,
		); err != nil {
			return nil, err
		}
		if messageID != nil {
			summary.LastMessage = &models.ChatMessage{
				ID:             *messageID,
				ConversationID: *messageConversationID,
				SenderUID:      *senderUID,
				Content:        *content,
				IsRead:         *isRead,
				CreatedAt:      *createdAt,
			}
		}
		summaries = append(summaries, summary)
	}
	return summaries, rows.Err()
}

func (r *ConversationRepository) Touch(ctx context.Context, partition string, conversationID uuid.UUID) error {
	query := `UPDATE conversations SET updated_at = NOW() WHERE partition = $1 AND id = $2`
	tag, err := r.db.Exec(ctx, query, partition, conversationID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
