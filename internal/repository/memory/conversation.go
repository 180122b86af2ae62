package memory

import (
	"context"
	"maps"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/lalith-99/questboard/internal/models"
)

type ConversationRepo struct {
	mu    sync.RWMutex
	convs map[string]models.Conversation
}

func NewConversationRepo() *ConversationRepo {
	return &ConversationRepo{convs: make(map[string]models.Conversation)}
}

// cloneConversation copies the slice and maps so callers never share
// state with the stored value.
func cloneConversation(c models.Conversation) models.Conversation {
	c.Participants = slices.Clone(c.Participants)
	c.ParticipantDetails = maps.Clone(c.ParticipantDetails)
	c.UnreadCount = maps.Clone(c.UnreadCount)
	if c.UnreadCount == nil {
		c.UnreadCount = make(map[string]int)
	}
	return c
}

func (r *ConversationRepo) CreateIfAbsent(ctx context.Context, conv models.Conversation) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.convs[conv.ID]; exists {
		return false, nil
	}
	conv = cloneConversation(conv)
	conv.UpdatedAt = conv.CreatedAt
	r.convs[conv.ID] = conv
	return true, nil
}

func (r *ConversationRepo) GetByID(ctx context.Context, conversationID string) (*models.Conversation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	conv, ok := r.convs[conversationID]
	if !ok {
		return nil, nil
	}
	conv = cloneConversation(conv)
	return &conv, nil
}

func (r *ConversationRepo) ListByParticipant(ctx context.Context, userID string) ([]models.Conversation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	convs := make([]models.Conversation, 0)
	for _, conv := range r.convs {
		if conv.HasParticipant(userID) {
			convs = append(convs, cloneConversation(conv))
		}
	}
	sort.SliceStable(convs, func(i, j int) bool {
		if convs[i].LastMessageAt.Equal(convs[j].LastMessageAt) {
			return convs[i].ID < convs[j].ID
		}
		return convs[i].LastMessageAt.After(convs[j].LastMessageAt)
	})
	return convs, nil
}

func (r *ConversationRepo) RecordMessage(ctx context.Context, conversationID, senderID, preview string, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	conv, ok := r.convs[conversationID]
	if !ok {
		return nil
	}
	conv = cloneConversation(conv)
	conv.LastMessage = preview
	conv.LastMessageSenderID = senderID
	conv.LastMessageAt = at
	conv.UpdatedAt = at
	for _, p := range conv.Participants {
		if p != senderID {
			conv.UnreadCount[p]++
		}
	}
	r.convs[conversationID] = conv
	return nil
}

func (r *ConversationRepo) ResetUnread(ctx context.Context, conversationID, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	conv, ok := r.convs[conversationID]
	if !ok {
		return nil
	}
	conv = cloneConversation(conv)
	conv.UnreadCount[userID] = 0
	r.convs[conversationID] = conv
	return nil
}

func (r *ConversationRepo) Delete(ctx context.Context, conversationID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.convs, conversationID)
	return nil
}
