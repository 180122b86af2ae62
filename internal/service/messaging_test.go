package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/lalith-99/questboard/internal/apperr"
	"github.com/lalith-99/questboard/internal/models"
	"github.com/lalith-99/questboard/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (h *harness) params(job *models.JobPosting) ConversationParams {
	return ConversationParams{
		JobSeekerID: h.seeker.ID,
		EmployerID:  job.EmployerID,
		JobID:       job.ID,
	}
}

func TestGetOrCreateConversationIsIdempotentUnderConcurrency(t *testing.T) {
	h := newHarness(t)
	job := h.postJob(t)
	p := h.params(job)

	var wg sync.WaitGroup
	ids := make([]string, 20)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			caller := h.seeker
			if i%2 == 1 {
				caller = h.employer
			}
			conv, err := h.Messaging.GetOrCreateConversation(as(caller), p)
			if assert.NoError(t, err) {
				ids[i] = conv.ID
			}
		}(i)
	}
	wg.Wait()

	want := models.ConversationID(h.seeker.ID, h.employer.ID, job.ID)
	for _, id := range ids {
		assert.Equal(t, want, id)
	}

	msgs, err := h.Messaging.ListMessages(as(h.seeker), want)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, models.MessageTypeSystem, msgs[0].Type)
	assert.Equal(t, models.SystemSenderID, msgs[0].SenderID)

	conv, err := h.Messaging.GetConversation(as(h.seeker), want)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{h.seeker.ID: 0, h.employer.ID: 1}, conv.UnreadCount)
	assert.Equal(t, "Application submitted", conv.LastMessage)
	assert.Equal(t, h.seeker.ID, conv.LastMessageSenderID)
	assert.Equal(t, models.RoleEmployer, conv.ParticipantDetails[h.employer.ID].AccountType)
}

func TestGetOrCreateConversationRequiresParty(t *testing.T) {
	h := newHarness(t)

	_, err := h.Messaging.GetOrCreateConversation(as(h.other), h.params(h.postJob(t)))
	assert.ErrorIs(t, err, apperr.ErrNotParticipant)

	_, err = h.Messaging.GetOrCreateConversation(as(h.seeker), ConversationParams{JobSeekerID: h.seeker.ID, EmployerID: h.employer.ID})
	requireKind(t, err, apperr.KindValidation)
}

func TestGetOrCreateConversationChecksParties(t *testing.T) {
	h := newHarness(t)
	job := h.postJob(t)
	othersJob := h.postJobAs(t, h.other, "Wash the car")

	tests := []struct {
		name    string
		caller  models.User
		params  ConversationParams
		want    error
		details map[string]string
	}{
		{
			name:    "same party twice",
			caller:  h.seeker,
			params:  ConversationParams{JobSeekerID: h.seeker.ID, EmployerID: h.seeker.ID, JobID: job.ID},
			want:    apperr.ErrValidation,
			details: map[string]string{"employer_id": "nefield"},
		},
		{
			name:    "separator in id",
			caller:  h.employer,
			params:  ConversationParams{JobSeekerID: "seeker_1", EmployerID: h.employer.ID, JobID: job.ID},
			want:    apperr.ErrValidation,
			details: map[string]string{"job_seeker_id": "conversation_id_part"},
		},
		{
			name:    "seeker as employer",
			caller:  h.seeker,
			params:  ConversationParams{JobSeekerID: h.seeker.ID, EmployerID: h.seeker2.ID, JobID: job.ID},
			want:    apperr.ErrValidation,
			details: map[string]string{"employer_id": "employer_role"},
		},
		{
			name:    "employer as seeker",
			caller:  h.employer,
			params:  ConversationParams{JobSeekerID: h.other.ID, EmployerID: h.employer.ID, JobID: job.ID},
			want:    apperr.ErrValidation,
			details: map[string]string{"job_seeker_id": "jobseeker_role"},
		},
		{
			name:    "job of another employer",
			caller:  h.seeker,
			params:  ConversationParams{JobSeekerID: h.seeker.ID, EmployerID: h.employer.ID, JobID: othersJob.ID},
			want:    apperr.ErrValidation,
			details: map[string]string{"job_id": "owned_by_employer"},
		},
		{
			name:   "unknown job",
			caller: h.seeker,
			params: ConversationParams{JobSeekerID: h.seeker.ID, EmployerID: h.employer.ID, JobID: "job-x"},
			want:   apperr.ErrJobNotFound,
		},
		{
			name:   "unknown party",
			caller: h.employer,
			params: ConversationParams{JobSeekerID: "ghost", EmployerID: h.employer.ID, JobID: job.ID},
			want:   apperr.ErrUserNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.Messaging.GetOrCreateConversation(as(tt.caller), tt.params)
			require.ErrorIs(t, err, tt.want)
			if tt.details != nil {
				var appErr *apperr.Error
				require.True(t, errors.As(err, &appErr))
				assert.Equal(t, tt.details, appErr.Details)
			}
		})
	}

	for _, u := range []models.User{h.seeker, h.seeker2, h.employer, h.other} {
		convs, err := h.Messaging.ListConversations(as(u))
		require.NoError(t, err)
		assert.Empty(t, convs, "nothing may be written for %s", u.ID)
	}
}

func TestGetOrCreateConversationReadsDetailsFromStorage(t *testing.T) {
	h := newHarness(t)
	job := h.postJob(t)
	app := h.apply(t, h.seeker, job.ID)

	conv, err := h.Messaging.GetOrCreateConversation(as(h.employer), h.params(job))
	require.NoError(t, err)

	assert.Equal(t, app.ID, conv.ApplicationID)
	assert.Equal(t, job.Title, conv.JobTitle)
	assert.Equal(t, map[string]models.ParticipantInfo{
		h.seeker.ID:   {Name: h.seeker.DisplayName, AccountType: models.RoleJobSeeker},
		h.employer.ID: {Name: h.employer.DisplayName, AccountType: models.RoleEmployer},
	}, conv.ParticipantDetails)

	msgs, err := h.Messaging.ListMessages(as(h.seeker), conv.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "Sam Seeker applied for Paint the fence", msgs[0].Body)

	// Both entry points land on the same thread.
	started, err := h.Messaging.StartConversation(as(h.seeker), app.ID)
	require.NoError(t, err)
	assert.Equal(t, conv.ID, started.ID)
}

// failingMessages fails the next `failures` Create calls.
type failingMessages struct {
	repository.MessageRepository

	mu       sync.Mutex
	failures int
}

func (f *failingMessages) Create(ctx context.Context, msg models.Message) (*models.Message, error) {
	f.mu.Lock()
	fail := f.failures > 0
	if fail {
		f.failures--
	}
	f.mu.Unlock()
	if fail {
		return nil, errors.New("store down")
	}
	return f.MessageRepository.Create(ctx, msg)
}

func TestGetOrCreateConversationRetriesAfterSystemMessageFailure(t *testing.T) {
	h := newHarness(t)
	job := h.postJob(t)

	deps := h.deps
	deps.Messages = &failingMessages{MessageRepository: h.stores.Messages, failures: 1}
	svc := New(deps)

	_, err := svc.Messaging.GetOrCreateConversation(as(h.seeker), h.params(job))
	requireKind(t, err, apperr.KindTransient)

	convID := models.ConversationID(h.seeker.ID, h.employer.ID, job.ID)
	stored, err := h.stores.Conversations.GetByID(context.Background(), convID)
	require.NoError(t, err)
	assert.Nil(t, stored, "a conversation without its system message must not be kept")

	conv, err := svc.Messaging.GetOrCreateConversation(as(h.seeker), h.params(job))
	require.NoError(t, err)
	assert.Equal(t, convID, conv.ID)

	msgs, err := svc.Messaging.ListMessages(as(h.seeker), convID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, models.MessageTypeSystem, msgs[0].Type)
}

func TestUnreadAccounting(t *testing.T) {
	h := newHarness(t)
	conv, err := h.Messaging.GetOrCreateConversation(as(h.seeker), h.params(h.postJob(t)))
	require.NoError(t, err)

	unread := func(userID string) int {
		c, err := h.Messaging.GetConversation(as(h.seeker), conv.ID)
		require.NoError(t, err)
		return c.UnreadCount[userID]
	}

	_, err = h.Messaging.SendMessage(as(h.seeker), conv.ID, "one")
	require.NoError(t, err)
	_, err = h.Messaging.SendMessage(as(h.seeker), conv.ID, "two")
	require.NoError(t, err)
	assert.Equal(t, 3, unread(h.employer.ID))
	assert.Equal(t, 0, unread(h.seeker.ID))

	_, err = h.Messaging.SendMessage(as(h.employer), conv.ID, "reply")
	require.NoError(t, err)
	assert.Equal(t, 1, unread(h.seeker.ID))
	assert.Equal(t, 3, unread(h.employer.ID))

	require.NoError(t, h.Messaging.MarkRead(as(h.employer), conv.ID))
	assert.Equal(t, 0, unread(h.employer.ID))
	assert.Equal(t, 1, unread(h.seeker.ID), "markRead only touches the caller")

	msgs, err := h.Messaging.ListMessages(as(h.employer), conv.ID)
	require.NoError(t, err)
	for _, m := range msgs {
		assert.Equal(t, m.SenderID != h.employer.ID, m.Read, "message %q", m.Body)
	}

	c, err := h.Messaging.GetConversation(as(h.employer), conv.ID)
	require.NoError(t, err)
	assert.Equal(t, "reply", c.LastMessage)
	assert.Equal(t, h.employer.ID, c.LastMessageSenderID)
}

func TestConcurrentSendsAreAllCounted(t *testing.T) {
	h := newHarness(t)
	conv, err := h.Messaging.GetOrCreateConversation(as(h.seeker), h.params(h.postJob(t)))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.Messaging.SendMessage(as(h.seeker), conv.ID, "ping")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	c, err := h.Messaging.GetConversation(as(h.employer), conv.ID)
	require.NoError(t, err)
	assert.Equal(t, 26, c.UnreadCount[h.employer.ID])
}

func TestSendMessageValidation(t *testing.T) {
	h := newHarness(t)
	conv, err := h.Messaging.GetOrCreateConversation(as(h.seeker), h.params(h.postJob(t)))
	require.NoError(t, err)

	tests := []struct {
		name string
		ctx  context.Context
		conv string
		text string
		want error
	}{
		{"blank", as(h.seeker), conv.ID, "   ", apperr.ErrValidation},
		{"too long", as(h.seeker), conv.ID, strings.Repeat("a", 4001), apperr.ErrValidation},
		{"outsider", as(h.other), conv.ID, "hi", apperr.ErrNotParticipant},
		{"missing", as(h.seeker), "nope", "hi", apperr.ErrConversationNotFound},
		{"anonymous", context.Background(), conv.ID, "hi", apperr.ErrNotAuthenticated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.Messaging.SendMessage(tt.ctx, tt.conv, tt.text)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err = h.Messaging.SendMessage(as(h.seeker), conv.ID, strings.Repeat("a", 4000))
	assert.NoError(t, err)
}

func TestDeleteConversation(t *testing.T) {
	h := newHarness(t)
	job := h.postJob(t)
	conv, err := h.Messaging.GetOrCreateConversation(as(h.seeker), h.params(job))
	require.NoError(t, err)
	_, err = h.Messaging.SendMessage(as(h.employer), conv.ID, "hi")
	require.NoError(t, err)

	err = h.Messaging.DeleteConversation(as(h.other), conv.ID)
	assert.ErrorIs(t, err, apperr.ErrNotParticipant)

	require.NoError(t, h.Messaging.DeleteConversation(as(h.employer), conv.ID))

	_, err = h.Messaging.GetConversation(as(h.seeker), conv.ID)
	assert.ErrorIs(t, err, apperr.ErrConversationNotFound)
	msgs, err := h.stores.Messages.ListByConversation(context.Background(), conv.ID)
	require.NoError(t, err)
	assert.Empty(t, msgs)

	// Recreating after delete starts a fresh thread.
	again, err := h.Messaging.GetOrCreateConversation(as(h.seeker), h.params(job))
	require.NoError(t, err)
	assert.Equal(t, conv.ID, again.ID)
	assert.Equal(t, 1, again.UnreadCount[h.employer.ID])
}

func TestStartConversationFromApplication(t *testing.T) {
	h := newHarness(t)
	job := h.postJob(t)
	app := h.apply(t, h.seeker, job.ID)

	_, err := h.Messaging.StartConversation(as(h.other), app.ID)
	assert.ErrorIs(t, err, apperr.ErrApplicationNotVisible)

	conv, err := h.Messaging.StartConversation(as(h.employer), app.ID)
	require.NoError(t, err)
	assert.Equal(t, app.ID, conv.ApplicationID)
	assert.Equal(t, job.Title, conv.JobTitle)
	assert.ElementsMatch(t, []string{h.seeker.ID, h.employer.ID}, conv.Participants)
}

func TestListAndSearchConversations(t *testing.T) {
	h := newHarness(t)
	ctx := as(h.seeker)

	p1 := h.params(h.postJobAs(t, h.employer, "Garden cleanup"))
	p2 := h.params(h.postJobAs(t, h.other, "Move furniture"))

	c1, err := h.Messaging.GetOrCreateConversation(ctx, p1)
	require.NoError(t, err)
	c2, err := h.Messaging.GetOrCreateConversation(ctx, p2)
	require.NoError(t, err)
	_, err = h.Messaging.SendMessage(ctx, c1.ID, "latest")
	require.NoError(t, err)

	all, err := h.Messaging.ListConversations(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, c1.ID, all[0].ID, "latest activity first")

	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{c1.ID, c2.ID}},
		{"GARDEN", []string{c1.ID}},
		{"olly", []string{c2.ID}},
		{"sam", nil},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got, err := h.Messaging.SearchConversations(ctx, tt.query)
			require.NoError(t, err)
			ids := make([]string, 0, len(got))
			for _, c := range got {
				ids = append(ids, c.ID)
			}
			assert.ElementsMatch(t, tt.want, ids)
		})
	}

	theirs, err := h.Messaging.ListConversations(as(h.other))
	require.NoError(t, err)
	require.Len(t, theirs, 1)
	assert.Equal(t, c2.ID, theirs[0].ID)
}

func TestWatchMessages(t *testing.T) {
	h := newHarness(t)
	conv, err := h.Messaging.GetOrCreateConversation(as(h.seeker), h.params(h.postJob(t)))
	require.NoError(t, err)

	_, err = h.Messaging.WatchMessages(as(h.other), conv.ID)
	assert.ErrorIs(t, err, apperr.ErrNotParticipant)

	sub, err := h.Messaging.WatchMessages(as(h.employer), conv.ID)
	require.NoError(t, err)
	defer sub.Close()
	assert.Len(t, receive(t, sub).Items, 1)

	_, err = h.Messaging.SendMessage(as(h.seeker), conv.ID, "hello")
	require.NoError(t, err)
	snap := receive(t, sub)
	require.Len(t, snap.Items, 2)
	assert.Equal(t, "hello", snap.Items[1].Body)
}
