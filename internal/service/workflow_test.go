package service

import (
	"testing"

	"github.com/lalith-99/questboard/internal/apperr"
	"github.com/lalith-99/questboard/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Apply, accept, chat, complete, review, then nothing else is allowed.
func TestEndToEndHiringFlow(t *testing.T) {
	h := newHarness(t)
	seekerCtx, employerCtx := as(h.seeker), as(h.employer)

	job := h.postJob(t)
	assert.Equal(t, 0, job.ApplicantsCount)

	app := h.apply(t, h.seeker, job.ID)
	assert.Equal(t, models.StatusPending, app.Status)
	assert.Equal(t, 1, h.jobCount(t, job.ID))

	accepted, err := h.Applications.Accept(employerCtx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAccepted, accepted.Status)
	require.NotNil(t, accepted.RespondedAt)
	assert.False(t, accepted.NotificationSent)

	conv, err := h.Messaging.StartConversation(seekerCtx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ConversationID(h.seeker.ID, h.employer.ID, job.ID), conv.ID)

	_, err = h.Messaging.SendMessage(seekerCtx, conv.ID, "Hello, when do I start?")
	require.NoError(t, err)

	conv, err = h.Messaging.GetConversation(employerCtx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, conv.UnreadCount[h.employer.ID])
	assert.Equal(t, 0, conv.UnreadCount[h.seeker.ID])

	msgs, err := h.Messaging.ListMessages(employerCtx, conv.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, models.MessageTypeSystem, msgs[0].Type)
	assert.Equal(t, "Sam Seeker applied for Paint the fence", msgs[0].Body)
	assert.Equal(t, models.MessageTypeText, msgs[1].Type)
	assert.Equal(t, "Sam Seeker", msgs[1].SenderName)

	completion, err := h.Completions.FileCompletion(seekerCtx, app.ID, CompletionInput{IsCompleted: true})
	require.NoError(t, err)
	app, err = h.Applications.Get(seekerCtx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, app.Status)
	assert.NotNil(t, app.CompletedAt)

	reviewed, err := h.Completions.ReviewCompletion(employerCtx, completion.ID, ReviewInput{
		Rating:              5,
		PaymentMethod:       models.PaymentCash,
		PaymentConfirmed:    true,
		CompletionConfirmed: true,
	})
	require.NoError(t, err)
	assert.True(t, reviewed.ReviewedByEmployer)
	assert.True(t, reviewed.PaymentReleased)

	app, err = h.Applications.Get(employerCtx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusReviewed, app.Status)

	finished, err := h.Jobs.GetJob(employerCtx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobCompleted, finished.Status)

	_, err = h.Applications.Accept(employerCtx, app.ID)
	requireKind(t, err, apperr.KindInvalidTransition)
	_, err = h.Applications.Reject(employerCtx, app.ID)
	requireKind(t, err, apperr.KindInvalidTransition)
	err = h.Applications.Cancel(seekerCtx, app.ID)
	requireKind(t, err, apperr.KindInvalidTransition)
}
