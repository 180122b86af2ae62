package postgres

import (
	"context"
	"fmt"

	"github.com/lalith-99/questboard/internal/models"
)

type MessageStore struct {
	db Querier
}

func NewMessageStore(db Querier) *MessageStore {
	return &MessageStore{db: db}
}

// Create appends a message. created_at uses clock_timestamp() so messages
// written in one transaction still get distinct, increasing times.
func (s *MessageStore) Create(ctx context.Context, msg models.Message) (*models.Message, error) {
	query := `
		INSERT INTO messages (id, conversation_id, sender_id, sender_name, body, type, read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, false, clock_timestamp())
		RETURNING id, conversation_id, sender_id, sender_name, body, type, read, created_at`

	var m models.Message
	err := s.db.QueryRow(ctx, query,
		msg.ID, msg.ConversationID, msg.SenderID, msg.SenderName, msg.Body, msg.Type,
	).Scan(
		&m.ID,
		&m.ConversationID,
		&m.SenderID,
		&m.SenderName,
		&m.Body,
		&m.Type,
		&m.Read,
		&m.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}
	return &m, nil
}

func (s *MessageStore) ListByConversation(ctx context.Context, conversationID string) ([]models.Message, error) {
	// seq breaks ties between messages stamped with the same time.
	query := `
		SELECT id, conversation_id, sender_id, sender_name, body, type, read, created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at ASC, seq ASC`

	rows, err := s.db.Query(ctx, query, conversationID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	messages := make([]models.Message, 0)
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(
			&m.ID,
			&m.ConversationID,
			&m.SenderID,
			&m.SenderName,
			&m.Body,
			&m.Type,
			&m.Read,
			&m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return messages, nil
}

func (s *MessageStore) MarkRead(ctx context.Context, conversationID, readerID string) error {
	query := `
		UPDATE messages
		SET read = true
		WHERE conversation_id = $1 AND sender_id <> $2 AND NOT read`

	if _, err := s.db.Exec(ctx, query, conversationID, readerID); err != nil {
		return fmt.Errorf("mark messages read: %w", err)
	}
	return nil
}

func (s *MessageStore) DeleteByConversation(ctx context.Context, conversationID string) (int64, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM messages WHERE conversation_id = $1`, conversationID)
	if err != nil {
		return 0, fmt.Errorf("delete messages: %w", err)
	}
	return tag.RowsAffected(), nil
}
