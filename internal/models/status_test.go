package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplicationStatusNext(t *testing.T) {
	tests := []struct {
		name    string
		from    ApplicationStatus
		action  Action
		want    ApplicationStatus
		wantErr bool
	}{
		{"accept pending", StatusPending, ActionAccept, StatusAccepted, false},
		{"reject pending", StatusPending, ActionReject, StatusRejected, false},
		{"cancel pending", StatusPending, ActionCancel, StatusWithdrawn, false},
		{"cancel accepted", StatusAccepted, ActionCancel, StatusWithdrawn, false},
		{"complete accepted", StatusAccepted, ActionComplete, StatusCompleted, false},
		{"review completed", StatusCompleted, ActionReview, StatusReviewed, false},
		{"complete pending", StatusPending, ActionComplete, StatusPending, true},
		{"accept accepted", StatusAccepted, ActionAccept, StatusAccepted, true},
		{"reject completed", StatusCompleted, ActionReject, StatusCompleted, true},
		{"cancel completed", StatusCompleted, ActionCancel, StatusCompleted, true},
		{"review accepted", StatusAccepted, ActionReview, StatusAccepted, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.from.Next(tt.action)
			if tt.wantErr {
				var terr *TransitionError
				require.True(t, errors.As(err, &terr))
				assert.Equal(t, tt.from, terr.From)
				assert.Equal(t, tt.action, terr.Action)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTerminalStatusesRejectEveryAction(t *testing.T) {
	actions := []Action{ActionAccept, ActionReject, ActionCancel, ActionComplete, ActionReview}
	for _, status := range []ApplicationStatus{StatusRejected, StatusReviewed} {
		assert.True(t, status.Terminal())
		for _, action := range actions {
			_, err := status.Next(action)
			assert.Error(t, err, "%s should not allow %s", status, action)
		}
	}
}

func TestParseApplicationStatus(t *testing.T) {
	s, ok := ParseApplicationStatus("accepted")
	require.True(t, ok)
	assert.Equal(t, StatusAccepted, s)

	_, ok = ParseApplicationStatus("Withdrawn")
	assert.False(t, ok)
	assert.False(t, StatusWithdrawn.Valid())
}

func TestConversationIDIsDeterministic(t *testing.T) {
	a := ConversationID("seeker", "employer", "job")
	b := ConversationID("seeker", "employer", "job")
	assert.Equal(t, a, b)
	assert.Equal(t, "seeker_employer_job", a)

	// Swapping the parties yields a different thread.
	assert.NotEqual(t, a, ConversationID("employer", "seeker", "job"))
	assert.NotEqual(t, a, ConversationID("seeker", "employer", "other-job"))
}

func TestConversationHasParticipant(t *testing.T) {
	c := Conversation{Participants: []string{"s", "e"}}
	assert.True(t, c.HasParticipant("s"))
	assert.True(t, c.HasParticipant("e"))
	assert.False(t, c.HasParticipant("x"))
}
