// Package memory implements the repository contracts in process. It backs
// STORAGE_DRIVER=memory and the service tests.
package memory

import (
	"time"

	"github.com/lalith-99/questboard/internal/repository"
)

// Stores bundles one of each repository over independent maps.
type Stores struct {
	Users         *UserRepo
	Jobs          *JobRepo
	Applications  *ApplicationRepo
	Conversations *ConversationRepo
	Messages      *MessageRepo
	Completions   *CompletionRepo
}

func New() *Stores {
	return &Stores{
		Users:         NewUserRepo(),
		Jobs:          NewJobRepo(),
		Applications:  NewApplicationRepo(),
		Conversations: NewConversationRepo(),
		Messages:      NewMessageRepo(),
		Completions:   NewCompletionRepo(),
	}
}

var (
	_ repository.UserRepository         = (*UserRepo)(nil)
	_ repository.JobRepository          = (*JobRepo)(nil)
	_ repository.ApplicationRepository  = (*ApplicationRepo)(nil)
	_ repository.ConversationRepository = (*ConversationRepo)(nil)
	_ repository.MessageRepository      = (*MessageRepo)(nil)
	_ repository.CompletionRepository   = (*CompletionRepo)(nil)
)

func now() time.Time {
	return time.Now().UTC()
}

func timePtr(t time.Time) *time.Time {
	return &t
}
