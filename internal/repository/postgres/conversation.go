package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/lalith-99/questboard/internal/models"
)

type ConversationStore struct {
	db Querier
}

func NewConversationStore(db Querier) *ConversationStore {
	return &ConversationStore{db: db}
}

const conversationColumns = `
	id, participants, participant_details, job_id, job_title, application_id,
	last_message, last_message_at, last_message_sender_id, unread_count,
	created_at, updated_at`

// CreateIfAbsent uses ON CONFLICT DO NOTHING on the derived id, so two
// concurrent "start chat" calls converge on one row and exactly one of
// them sees true.
func (s *ConversationStore) CreateIfAbsent(ctx context.Context, conv models.Conversation) (bool, error) {
	query := `
		INSERT INTO conversations (
			id, participants, participant_details, job_id, job_title, application_id,
			last_message, last_message_at, last_message_sender_id, unread_count,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
		ON CONFLICT (id) DO NOTHING`

	tag, err := s.db.Exec(ctx, query,
		conv.ID,
		conv.Participants,
		conv.ParticipantDetails,
		conv.JobID,
		conv.JobTitle,
		conv.ApplicationID,
		conv.LastMessage,
		conv.LastMessageAt,
		conv.LastMessageSenderID,
		conv.UnreadCount,
		conv.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("insert conversation: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *ConversationStore) GetByID(ctx context.Context, conversationID string) (*models.Conversation, error) {
	query := `SELECT ` + conversationColumns + ` FROM conversations WHERE id = $1`

	conv, err := scanConversation(s.db.QueryRow(ctx, query, conversationID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	return conv, nil
}

// ListByParticipant uses the GIN index on participants (array containment).
func (s *ConversationStore) ListByParticipant(ctx context.Context, userID string) ([]models.Conversation, error) {
	query := `
		SELECT ` + conversationColumns + `
		FROM conversations
		WHERE participants @> ARRAY[$1::text]
		ORDER BY last_message_at DESC`

	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	convs := make([]models.Conversation, 0)
	for rows.Next() {
		conv, err := scanConversation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		convs = append(convs, *conv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate conversations: %w", err)
	}
	return convs, nil
}

// RecordMessage rebuilds unread_count inside the UPDATE itself, so two
// senders racing on the same conversation both get counted.
func (s *ConversationStore) RecordMessage(ctx context.Context, conversationID, senderID, preview string, at time.Time) error {
	query := `
		UPDATE conversations c
		SET last_message = $2,
			last_message_sender_id = $3::text,
			last_message_at = $4,
			updated_at = $4,
			unread_count = (
				SELECT COALESCE(jsonb_object_agg(
					p,
					COALESCE((c.unread_count ->> p)::int, 0) + CASE WHEN p = $3::text THEN 0 ELSE 1 END
				), '{}'::jsonb)
				FROM unnest(c.participants) AS p
			)
		WHERE c.id = $1`

	if _, err := s.db.Exec(ctx, query, conversationID, preview, senderID, at); err != nil {
		return fmt.Errorf("record message: %w", err)
	}
	return nil
}

func (s *ConversationStore) ResetUnread(ctx context.Context, conversationID, userID string) error {
	query := `
		UPDATE conversations
		SET unread_count = jsonb_set(unread_count, ARRAY[$2::text], '0'::jsonb, true)
		WHERE id = $1`

	if _, err := s.db.Exec(ctx, query, conversationID, userID); err != nil {
		return fmt.Errorf("reset unread: %w", err)
	}
	return nil
}

func (s *ConversationStore) Delete(ctx context.Context, conversationID string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM conversations WHERE id = $1`, conversationID); err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	return nil
}

func scanConversation(row pgx.Row) (*models.Conversation, error) {
	var c models.Conversation
	err := row.Scan(
		&c.ID,
		&c.Participants,
		&c.ParticipantDetails,
		&c.JobID,
		&c.JobTitle,
		&c.ApplicationID,
		&c.LastMessage,
		&c.LastMessageAt,
		&c.LastMessageSenderID,
		&c.UnreadCount,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
