package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/lalith-99/questboard/internal/apperr"
	"github.com/lalith-99/questboard/internal/auth"
	"github.com/lalith-99/questboard/internal/models"
	"github.com/lalith-99/questboard/internal/realtime"
	"github.com/lalith-99/questboard/internal/validation"
	"go.uber.org/zap"
)

const (
	systemSenderName = "System"
	createdPreview   = "Application submitted"
)

// MessagingService manages the two-party conversations between a job
// seeker and an employer about one job.
type MessagingService struct {
	base
}

// ConversationParams names the parties and job a conversation is about.
// Everything else about the conversation (display names, job title, the
// application) is read from storage, never taken from the caller.
type ConversationParams struct {
	JobSeekerID string `json:"job_seeker_id" validate:"notblank,conversation_id_part"`
	EmployerID  string `json:"employer_id" validate:"notblank,conversation_id_part,nefield=JobSeekerID"`
	JobID       string `json:"job_id" validate:"notblank,conversation_id_part"`
}

// conversationSeed is everything written into a new conversation.
type conversationSeed struct {
	jobSeekerID   string
	jobSeekerName string
	employerID    string
	employerName  string
	jobID         string
	jobTitle      string
	applicationID string
}

// GetOrCreateConversation returns the conversation for
// (job seeker, employer, job), creating it if needed. The caller must be
// one of the two parties, the parties must hold the job seeker and
// employer roles, and the job must belong to the employer.
//
// Creation is idempotent under concurrency: every caller gets the same
// conversation and exactly one system message is written.
func (s *MessagingService) GetOrCreateConversation(ctx context.Context, p ConversationParams) (*models.Conversation, error) {
	id, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	if err := validation.Struct(p); err != nil {
		return nil, err
	}
	if id.UserID != p.JobSeekerID && id.UserID != p.EmployerID {
		return nil, apperr.ErrNotParticipant
	}

	seeker, err := s.user(ctx, p.JobSeekerID)
	if err != nil {
		return nil, err
	}
	employer, err := s.user(ctx, p.EmployerID)
	if err != nil {
		return nil, err
	}
	details := make(map[string]string)
	if seeker.Role != models.RoleJobSeeker {
		details["job_seeker_id"] = "jobseeker_role"
	}
	if employer.Role != models.RoleEmployer {
		details["employer_id"] = "employer_role"
	}
	if len(details) > 0 {
		return nil, apperr.Validation(details)
	}

	job, err := s.job(ctx, p.JobID)
	if err != nil {
		return nil, err
	}
	if job.EmployerID != employer.ID {
		return nil, apperr.Validation(map[string]string{"job_id": "owned_by_employer"})
	}

	seed := conversationSeed{
		jobSeekerID:   seeker.ID,
		jobSeekerName: seeker.DisplayName,
		employerID:    employer.ID,
		employerName:  employer.DisplayName,
		jobID:         job.ID,
		jobTitle:      job.Title,
	}
	app, err := s.Applications.FindByJobAndApplicant(ctx, job.ID, seeker.ID)
	if err != nil {
		return nil, storeErr(err)
	}
	if app != nil {
		seed.applicationID = app.ID
	}
	return s.openConversation(ctx, seed)
}

// StartConversation opens (or reopens) the conversation about an
// application. Either party may call it. The parties and job come from the
// application, which already passed every check GetOrCreateConversation
// makes.
func (s *MessagingService) StartConversation(ctx context.Context, applicationID string) (*models.Conversation, error) {
	id, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	app, err := s.application(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if !canSeeApplication(id, app) {
		return nil, apperr.ErrApplicationNotVisible
	}
	return s.openConversation(ctx, conversationSeed{
		jobSeekerID:   app.ApplicantID,
		jobSeekerName: app.ApplicantName,
		employerID:    app.EmployerID,
		employerName:  app.EmployerName,
		jobID:         app.JobID,
		jobTitle:      app.JobTitle,
		applicationID: app.ID,
	})
}

// openConversation derives the conversation id and inserts the
// conversation if it is not there yet. Only the caller that wins the
// insert writes the system message; if that write fails the insert is
// undone, so a retry starts over instead of finding a thread without its
// opening message.
func (s *MessagingService) openConversation(ctx context.Context, seed conversationSeed) (*models.Conversation, error) {
	convID := models.ConversationID(seed.jobSeekerID, seed.employerID, seed.jobID)
	existing, err := s.Conversations.GetByID(ctx, convID)
	if err != nil {
		return nil, storeErr(err)
	}
	if existing != nil {
		return existing, nil
	}

	now := s.Now()
	created, err := s.Conversations.CreateIfAbsent(ctx, models.Conversation{
		ID:           convID,
		Participants: []string{seed.jobSeekerID, seed.employerID},
		ParticipantDetails: map[string]models.ParticipantInfo{
			seed.jobSeekerID: {Name: seed.jobSeekerName, AccountType: models.RoleJobSeeker},
			seed.employerID:  {Name: seed.employerName, AccountType: models.RoleEmployer},
		},
		JobID:               seed.jobID,
		JobTitle:            seed.jobTitle,
		ApplicationID:       seed.applicationID,
		LastMessage:         createdPreview,
		LastMessageAt:       now,
		LastMessageSenderID: seed.jobSeekerID,
		// The seeker caused this conversation, so the employer starts
		// with one unseen update.
		UnreadCount: map[string]int{seed.jobSeekerID: 0, seed.employerID: 1},
		CreatedAt:   now,
	})
	if err != nil {
		return nil, storeErr(err)
	}

	if created {
		_, err := s.Messages.Create(ctx, models.Message{
			ID:             uuid.NewString(),
			ConversationID: convID,
			SenderID:       models.SystemSenderID,
			SenderName:     systemSenderName,
			Body:           seed.jobSeekerName + " applied for " + seed.jobTitle,
			Type:           models.MessageTypeSystem,
		})
		if err != nil {
			if delErr := s.Conversations.Delete(ctx, convID); delErr != nil {
				s.Logger.Error("conversation left without system message",
					zap.String("conversation_id", convID),
					zap.Error(delErr),
				)
			}
			return nil, storeErr(err)
		}
		s.Logger.Info("conversation created",
			zap.String("conversation_id", convID),
			zap.String("job_id", seed.jobID),
		)
		s.publishConversation(ctx, convID, seed.jobSeekerID, seed.employerID)
	}

	conv, err := s.Conversations.GetByID(ctx, convID)
	if err != nil {
		return nil, storeErr(err)
	}
	if conv == nil {
		// Deleted between our insert and this read.
		return nil, apperr.ErrConversationNotFound
	}
	return conv, nil
}

// participantConversation loads a conversation the caller takes part in.
func (s *MessagingService) participantConversation(ctx context.Context, conversationID string) (auth.Identity, *models.Conversation, error) {
	id, err := s.caller(ctx)
	if err != nil {
		return id, nil, err
	}
	conv, err := s.Conversations.GetByID(ctx, conversationID)
	if err != nil {
		return id, nil, storeErr(err)
	}
	if conv == nil {
		return id, nil, apperr.ErrConversationNotFound
	}
	if !conv.HasParticipant(id.UserID) {
		return id, nil, apperr.ErrNotParticipant
	}
	return id, conv, nil
}

type sendMessageInput struct {
	Text string `json:"text" validate:"notblank,max=4000"`
}

// SendMessage appends a text message from the caller and bumps the other
// participant's unread counter.
func (s *MessagingService) SendMessage(ctx context.Context, conversationID, text string) (*models.Message, error) {
	if err := validation.Struct(sendMessageInput{Text: text}); err != nil {
		return nil, err
	}
	id, conv, err := s.participantConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	msg, err := s.Messages.Create(ctx, models.Message{
		ID:             uuid.NewString(),
		ConversationID: conv.ID,
		SenderID:       id.UserID,
		SenderName:     conv.ParticipantDetails[id.UserID].Name,
		Body:           text,
		Type:           models.MessageTypeText,
	})
	if err != nil {
		return nil, storeErr(err)
	}

	// The message is durable at this point. If the summary update fails
	// the caller still learns about it, but the message is not retracted.
	if err := s.Conversations.RecordMessage(ctx, conv.ID, id.UserID, text, msg.CreatedAt); err != nil {
		s.Logger.Error("record message on conversation failed",
			zap.String("conversation_id", conv.ID),
			zap.String("message_id", msg.ID),
			zap.Error(err),
		)
		s.publish(ctx, realtime.TopicMessages(conv.ID))
		return nil, storeErr(err)
	}

	s.publishConversation(ctx, conv.ID, conv.Participants...)
	return msg, nil
}

// MarkRead zeroes the caller's unread counter and flags the other
// party's messages as read.
func (s *MessagingService) MarkRead(ctx context.Context, conversationID string) error {
	id, conv, err := s.participantConversation(ctx, conversationID)
	if err != nil {
		return err
	}
	if err := s.Conversations.ResetUnread(ctx, conv.ID, id.UserID); err != nil {
		return storeErr(err)
	}
	if err := s.Messages.MarkRead(ctx, conv.ID, id.UserID); err != nil {
		return storeErr(err)
	}
	s.publishConversation(ctx, conv.ID, conv.Participants...)
	return nil
}

// DeleteConversation purges the messages and then the conversation. A
// failure part way leaves messages without a conversation; deleting again
// finishes the job.
func (s *MessagingService) DeleteConversation(ctx context.Context, conversationID string) error {
	_, conv, err := s.participantConversation(ctx, conversationID)
	if err != nil {
		return err
	}

	purged, err := s.Messages.DeleteByConversation(ctx, conv.ID)
	if err != nil {
		return storeErr(err)
	}
	if err := s.Conversations.Delete(ctx, conv.ID); err != nil {
		return storeErr(err)
	}
	s.Logger.Info("conversation deleted",
		zap.String("conversation_id", conv.ID),
		zap.Int64("messages", purged),
	)
	s.publishConversation(ctx, conv.ID, conv.Participants...)
	return nil
}

func (s *MessagingService) GetConversation(ctx context.Context, conversationID string) (*models.Conversation, error) {
	_, conv, err := s.participantConversation(ctx, conversationID)
	return conv, err
}

func (s *MessagingService) conversationsLoader(userID string) realtime.Loader[models.Conversation] {
	return func(ctx context.Context) ([]models.Conversation, error) {
		convs, err := s.Conversations.ListByParticipant(ctx, userID)
		if err != nil {
			return nil, storeErr(err)
		}
		return convs, nil
	}
}

// ListConversations returns the caller's conversations, latest activity
// first.
func (s *MessagingService) ListConversations(ctx context.Context) ([]models.Conversation, error) {
	id, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	return s.conversationsLoader(id.UserID)(ctx)
}

// SearchConversations filters the caller's conversations by job title or
// the other participant's name, ignoring case. A blank query matches all.
func (s *MessagingService) SearchConversations(ctx context.Context, query string) ([]models.Conversation, error) {
	id, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	convs, err := s.conversationsLoader(id.UserID)(ctx)
	if err != nil {
		return nil, err
	}

	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return convs, nil
	}
	matches := make([]models.Conversation, 0, len(convs))
	for _, c := range convs {
		if strings.Contains(strings.ToLower(c.JobTitle), q) {
			matches = append(matches, c)
			continue
		}
		for userID, info := range c.ParticipantDetails {
			if userID != id.UserID && strings.Contains(strings.ToLower(info.Name), q) {
				matches = append(matches, c)
				break
			}
		}
	}
	return matches, nil
}

func (s *MessagingService) WatchConversations(ctx context.Context) (*realtime.Subscription[models.Conversation], error) {
	id, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	sub, err := realtime.Watch(ctx, s.Bus, s.conversationsLoader(id.UserID), realtime.TopicUserConversations(id.UserID))
	if err != nil {
		return nil, storeErr(err)
	}
	return sub, nil
}

func (s *MessagingService) messagesLoader(conversationID string) realtime.Loader[models.Message] {
	return func(ctx context.Context) ([]models.Message, error) {
		msgs, err := s.Messages.ListByConversation(ctx, conversationID)
		if err != nil {
			return nil, storeErr(err)
		}
		return msgs, nil
	}
}

// ListMessages returns the conversation's messages, oldest first.
func (s *MessagingService) ListMessages(ctx context.Context, conversationID string) ([]models.Message, error) {
	_, conv, err := s.participantConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	return s.messagesLoader(conv.ID)(ctx)
}

func (s *MessagingService) WatchMessages(ctx context.Context, conversationID string) (*realtime.Subscription[models.Message], error) {
	_, conv, err := s.participantConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	sub, err := realtime.Watch(ctx, s.Bus, s.messagesLoader(conv.ID), realtime.TopicMessages(conv.ID))
	if err != nil {
		return nil, storeErr(err)
	}
	return sub, nil
}

func (s *MessagingService) publishConversation(ctx context.Context, conversationID string, participants ...string) {
	topics := []string{realtime.TopicMessages(conversationID)}
	for _, p := range participants {
		topics = append(topics, realtime.TopicUserConversations(p))
	}
	s.publish(ctx, topics...)
}
