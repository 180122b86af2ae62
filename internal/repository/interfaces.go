package repository

import (
	"context"
	"errors"
	"time"

	"github.com/lalith-99/questboard/internal/models"
)

// Every method takes ctx first and touches exactly one row or one
// collection; multi-document workflows are sequences of these calls made
// by the service layer.
//
// Lookups return nil, nil when the row does not exist.

// ErrDuplicate is returned by Create methods when a uniqueness constraint
// rejects the row: a second application for the same (job, applicant), a
// second completion for the same application, a reused email.
var ErrDuplicate = errors.New("duplicate record")

// UserRepository handles registered parties.
type UserRepository interface {
	Create(ctx context.Context, user models.User) (*models.User, error)
	GetByID(ctx context.Context, userID string) (*models.User, error)
	// GetByEmail is used for login, so it is case-insensitive.
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// JobRepository handles job postings.
type JobRepository interface {
	Create(ctx context.Context, job models.JobPosting) (*models.JobPosting, error)
	GetByID(ctx context.Context, jobID string) (*models.JobPosting, error)

	// Update overwrites the employer-editable fields (title, description,
	// category, payment, location, date/time, requirements).
	Update(ctx context.Context, job models.JobPosting) error

	SetStatus(ctx context.Context, jobID string, status models.JobStatus) error

	// Delete removes the posting only. Applications referencing it stay.
	Delete(ctx context.Context, jobID string) error

	// List returns matching postings, newest first. Never nil.
	List(ctx context.Context, filter models.JobFilter) ([]models.JobPosting, error)

	// AdjustApplicants atomically adds delta to applicants_count, clamped
	// at 0.
	AdjustApplicants(ctx context.Context, jobID string, delta int) error
}

// ApplicationRepository handles applications.
type ApplicationRepository interface {
	// Create returns ErrDuplicate if (JobID, ApplicantID) already exists.
	Create(ctx context.Context, app models.Application) (*models.Application, error)
	GetByID(ctx context.Context, applicationID string) (*models.Application, error)
	FindByJobAndApplicant(ctx context.Context, jobID, applicantID string) (*models.Application, error)

	// List returns matching applications, most recently submitted first.
	List(ctx context.Context, filter models.ApplicationFilter) ([]models.Application, error)

	// ChangeStatus applies change only if the stored status equals
	// change.From. It returns false when the row is missing or its status
	// moved on. The companion timestamp for change.To is set to change.At.
	ChangeStatus(ctx context.Context, change models.StatusChange) (bool, error)

	Delete(ctx context.Context, applicationID string) error
}

// ConversationRepository handles conversation documents. Messages live in
// MessageRepository.
type ConversationRepository interface {
	// CreateIfAbsent inserts conv under conv.ID. It returns false, without
	// touching the stored row, if the id is already taken.
	CreateIfAbsent(ctx context.Context, conv models.Conversation) (bool, error)
	GetByID(ctx context.Context, conversationID string) (*models.Conversation, error)

	// ListByParticipant returns userID's conversations, latest activity
	// first.
	ListByParticipant(ctx context.Context, userID string) ([]models.Conversation, error)

	// RecordMessage sets the last-message preview and adds 1 to the unread
	// counter of every participant other than senderID, in one write.
	RecordMessage(ctx context.Context, conversationID, senderID, preview string, at time.Time) error

	// ResetUnread sets userID's unread counter to 0.
	ResetUnread(ctx context.Context, conversationID, userID string) error

	Delete(ctx context.Context, conversationID string) error
}

// MessageRepository handles the append-only message log under each
// conversation.
type MessageRepository interface {
	// Create appends msg. CreatedAt is assigned by the store.
	Create(ctx context.Context, msg models.Message) (*models.Message, error)

	// ListByConversation returns messages oldest first.
	ListByConversation(ctx context.Context, conversationID string) ([]models.Message, error)

	// MarkRead flags every message in the conversation not sent by readerID
	// as read.
	MarkRead(ctx context.Context, conversationID, readerID string) error

	DeleteByConversation(ctx context.Context, conversationID string) (int64, error)
}

// CompletionRepository handles job completion reports.
type CompletionRepository interface {
	// Create returns ErrDuplicate if the application already has one.
	Create(ctx context.Context, completion models.JobCompletion) (*models.JobCompletion, error)
	GetByID(ctx context.Context, completionID string) (*models.JobCompletion, error)
	GetByApplication(ctx context.Context, applicationID string) (*models.JobCompletion, error)

	// Review records the employer's review if the completion has not been
	// reviewed yet. It returns false otherwise.
	Review(ctx context.Context, completionID string, review models.CompletionReview) (bool, error)

	// ListReviewedBySeeker returns the reviewed completions of one job seeker.
	ListReviewedBySeeker(ctx context.Context, jobSeekerID string) ([]models.JobCompletion, error)
}
