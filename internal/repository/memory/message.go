package memory

import (
	"context"
	"sync"
	"time"

	"github.com/lalith-99/questboard/internal/models"
)

type MessageRepo struct {
	mu     sync.RWMutex
	byConv map[string][]models.Message
	last   time.Time
}

func NewMessageRepo() *MessageRepo {
	return &MessageRepo{byConv: make(map[string][]models.Message)}
}

// Create appends msg. Timestamps are strictly increasing across the repo so
// append order and timestamp order always agree.
func (r *MessageRepo) Create(ctx context.Context, msg models.Message) (*models.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	t := now()
	if !t.After(r.last) {
		t = r.last.Add(time.Microsecond)
	}
	r.last = t

	msg.CreatedAt = t
	msg.Read = false
	r.byConv[msg.ConversationID] = append(r.byConv[msg.ConversationID], msg)
	return &msg, nil
}

func (r *MessageRepo) ListByConversation(ctx context.Context, conversationID string) ([]models.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	msgs := make([]models.Message, len(r.byConv[conversationID]))
	copy(msgs, r.byConv[conversationID])
	return msgs, nil
}

func (r *MessageRepo) MarkRead(ctx context.Context, conversationID, readerID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	msgs := r.byConv[conversationID]
	for i := range msgs {
		if msgs[i].SenderID != readerID {
			msgs[i].Read = true
		}
	}
	return nil
}

func (r *MessageRepo) DeleteByConversation(ctx context.Context, conversationID string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	n := len(r.byConv[conversationID])
	delete(r.byConv, conversationID)
	return int64(n), nil
}
