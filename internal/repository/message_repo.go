package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/nicholaschiang/foss-tutorbook/internal/models"
)

type MessageRepository struct {
	db DBTX
}

func NewMessageRepository(db DBTX) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) Create(
	ctx context.Context,
	conversationID uuid.UUID,
	senderUID uuid.UUID,
	content string,
) (*models.ChatMessage, error) {
	query := `
		INSERT INTO chat_messages (conversation_id, sender_uid, content)
		VALUES ($1, $2, $3)
		RETURNING id, conversation_id, sender_uid, content, is_read, created_at
	`
	var message models.ChatMessage
	err := r.db.QueryRow(ctx, query, conversationID, senderUID, content).Scan(
		&message.ID,
		&message.ConversationID,
		&message.SenderUID,
		&message.Content,
		&message.IsRead,
		&message.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &message, nil
}

func (r *MessageRepository) ListByConversation(
	ctx context.Context,
	conversationID uuid.UUID,
	limit int,
	offset int,
) ([]models.ChatMessage, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM chat_messages WHERE conversation_id = $1`
	if err := r.db.QueryRow(ctx, countQuery, conversationID).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT id, conversation_id, sender_uid, content, is_read, created_at
		FROM chat_messages
		WHERE conversation_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, conversationID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	messages := make([]models.ChatMessage, 0)
	for rows.Next() {
		var message models.ChatMessage
		if err := rows.Scan(
			&message.ID,
			&message.ConversationID,
			&message.SenderUID,
			&message.Content,
			&message.IsRead,
			&message.CreatedAt,
		); err != nil {
			return nil, 0, err
		}
		messages = append(messages, message)
	}
	return messages, total, rows.Err()
}

// MarkMessagesRead flags the listed messages as read for everyone but their
// sender.
func (r *MessageRepository) MarkMessagesRead(ctx context.Context, messageIDs []uuid.UUID, readerUID uuid.UUID) error {
	if len(messageIDs) == 0 {
		return nil
	}
	query := `
		UPDATE chat_messages
		SET is_read = TRUE
		WHERE id = ANY($1) AND sender_uid <> $2 AND NOT is_read
	`
	_, err := r.db.Exec(ctx, query, messageIDs, readerUID)
	return err
}
