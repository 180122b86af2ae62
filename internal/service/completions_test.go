package service

import (
	"errors"
	"testing"

	"github.com/lalith-99/questboard/internal/apperr"
	"github.com/lalith-99/questboard/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// acceptedApplication returns an application ready for a completion.
func (h *harness) acceptedApplication(t *testing.T) *models.Application {
	t.Helper()
	job := h.postJob(t)
	app := h.apply(t, h.seeker, job.ID)
	accepted, err := h.Applications.Accept(as(h.employer), app.ID)
	require.NoError(t, err)
	return accepted
}

func (h *harness) filedCompletion(t *testing.T) *models.JobCompletion {
	t.Helper()
	app := h.acceptedApplication(t)
	c, err := h.Completions.FileCompletion(as(h.seeker), app.ID, CompletionInput{IsCompleted: true})
	require.NoError(t, err)
	return c
}

func validationDetails(t *testing.T, err error) map[string]string {
	t.Helper()
	var appErr *apperr.Error
	require.True(t, errors.As(err, &appErr), "not an app error: %v", err)
	require.Equal(t, apperr.KindValidation, appErr.Kind)
	details, ok := appErr.Details.(map[string]string)
	require.True(t, ok)
	return details
}

func TestFileCompletionValidation(t *testing.T) {
	tests := []struct {
		name    string
		in      CompletionInput
		wantErr []string
	}{
		{"neither flag", CompletionInput{}, []string{"is_completed"}},
		{"both flags", CompletionInput{IsCompleted: true, HasIssues: true, Concerns: "late"}, []string{"is_completed"}},
		{"issues without concerns", CompletionInput{HasIssues: true, Concerns: "  "}, []string{"concerns"}},
		{"bad photo url", CompletionInput{IsCompleted: true, WorkPhotoURL: "not a url"}, []string{"work_photo_url"}},
		{"completed", CompletionInput{IsCompleted: true}, nil},
		{"issues with concerns", CompletionInput{HasIssues: true, Concerns: "Client was absent"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			app := h.acceptedApplication(t)

			c, err := h.Completions.FileCompletion(as(h.seeker), app.ID, tt.in)
			if tt.wantErr != nil {
				details := validationDetails(t, err)
				for _, field := range tt.wantErr {
					assert.Contains(t, details, field)
				}
				stored, err := h.Applications.Get(as(h.seeker), app.ID)
				require.NoError(t, err)
				assert.Equal(t, models.StatusAccepted, stored.Status, "nothing written on validation failure")
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.in.HasIssues, c.HasIssues)
			stored, err := h.Applications.Get(as(h.seeker), app.ID)
			require.NoError(t, err)
			assert.Equal(t, models.StatusCompleted, stored.Status)
		})
	}
}

func TestFileCompletionRules(t *testing.T) {
	h := newHarness(t)
	job := h.postJob(t)
	pending := h.apply(t, h.seeker, job.ID)

	_, err := h.Completions.FileCompletion(as(h.seeker), pending.ID, CompletionInput{IsCompleted: true})
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition, "pending applications cannot be completed")

	_, err = h.Applications.Accept(as(h.employer), pending.ID)
	require.NoError(t, err)

	_, err = h.Completions.FileCompletion(as(h.employer), pending.ID, CompletionInput{IsCompleted: true})
	assert.ErrorIs(t, err, apperr.ErrNotApplicant)

	c, err := h.Completions.FileCompletion(as(h.seeker), pending.ID, CompletionInput{IsCompleted: true, AdditionalNotes: "done early"})
	require.NoError(t, err)
	assert.Equal(t, h.employer.ID, c.EmployerID)
	assert.False(t, c.ReviewedByEmployer)

	_, err = h.Completions.FileCompletion(as(h.seeker), pending.ID, CompletionInput{IsCompleted: true})
	assert.Error(t, err)

	byApp, err := h.Completions.GetCompletionForApplication(as(h.employer), pending.ID)
	require.NoError(t, err)
	assert.Equal(t, c.ID, byApp.ID)
}

func TestReviewCompletionValidation(t *testing.T) {
	valid := ReviewInput{Rating: 4, PaymentMethod: models.PaymentCash, PaymentConfirmed: true, CompletionConfirmed: true}

	tests := []struct {
		name    string
		mutate  func(*ReviewInput)
		wantErr string
	}{
		{"valid cash", func(*ReviewInput) {}, ""},
		{"zero rating", func(in *ReviewInput) { in.Rating = 0 }, "rating"},
		{"rating above five", func(in *ReviewInput) { in.Rating = 5.5 }, "rating"},
		{"no payment method", func(in *ReviewInput) { in.PaymentMethod = "" }, "payment_method"},
		{"unknown payment method", func(in *ReviewInput) { in.PaymentMethod = "Card" }, "payment_method"},
		{"completion unconfirmed", func(in *ReviewInput) { in.CompletionConfirmed = false }, "completion_confirmed"},
		{"cash payment unconfirmed", func(in *ReviewInput) { in.PaymentConfirmed = false }, "payment_confirmed"},
		{"gcash auto-confirms payment", func(in *ReviewInput) {
			in.PaymentMethod = models.PaymentGCash
			in.PaymentConfirmed = false
		}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			c := h.filedCompletion(t)

			in := valid
			tt.mutate(&in)
			reviewed, err := h.Completions.ReviewCompletion(as(h.employer), c.ID, in)
			if tt.wantErr != "" {
				assert.Contains(t, validationDetails(t, err), tt.wantErr)
				stored, err := h.Completions.GetCompletion(as(h.employer), c.ID)
				require.NoError(t, err)
				assert.False(t, stored.ReviewedByEmployer)
				return
			}
			require.NoError(t, err)
			assert.True(t, reviewed.ReviewedByEmployer)
			assert.True(t, reviewed.PaymentReleased)
			assert.Equal(t, in.PaymentMethod, reviewed.PaymentMethod)
		})
	}
}

func TestPaymentPolicyIsConfigurable(t *testing.T) {
	_, err := NewPaymentPolicy([]string{"Bitcoin"})
	assert.Error(t, err)

	strict, err := NewPaymentPolicy(nil)
	require.NoError(t, err)
	assert.False(t, strict.AutoConfirms(models.PaymentGCash))

	h := newHarness(t)
	h.Completions.Payments = strict
	c := h.filedCompletion(t)

	_, err = h.Completions.ReviewCompletion(as(h.employer), c.ID, ReviewInput{
		Rating: 3, PaymentMethod: models.PaymentGCash, CompletionConfirmed: true,
	})
	assert.Contains(t, validationDetails(t, err), "payment_confirmed")
}

func TestReviewCompletionOnce(t *testing.T) {
	h := newHarness(t)
	c := h.filedCompletion(t)
	in := ReviewInput{Rating: 5, PaymentMethod: models.PaymentGCash, CompletionConfirmed: true}

	_, err := h.Completions.ReviewCompletion(as(h.other), c.ID, in)
	assert.ErrorIs(t, err, apperr.ErrNotJobOwner)

	_, err = h.Completions.ReviewCompletion(as(h.employer), "missing", in)
	assert.ErrorIs(t, err, apperr.ErrCompletionNotFound)

	_, err = h.Completions.ReviewCompletion(as(h.employer), c.ID, in)
	require.NoError(t, err)

	_, err = h.Completions.ReviewCompletion(as(h.employer), c.ID, in)
	assert.ErrorIs(t, err, apperr.ErrAlreadyReviewed)
}

func TestSeekerStats(t *testing.T) {
	h := newHarness(t)

	stats, err := h.Completions.SeekerStats(as(h.employer), h.seeker.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SeekerStats{JobSeekerID: h.seeker.ID}, *stats)

	for _, rating := range []float64{5, 4} {
		c := h.filedCompletion(t)
		_, err := h.Completions.ReviewCompletion(as(h.employer), c.ID, ReviewInput{
			Rating: rating, PaymentMethod: models.PaymentGCash, CompletionConfirmed: true,
		})
		require.NoError(t, err)
	}
	// Filed but not reviewed: not counted.
	h.filedCompletion(t)

	stats, err = h.Completions.SeekerStats(as(h.seeker), h.seeker.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.JobsCompleted)
	assert.Equal(t, 2, stats.ReviewCount)
	assert.InDelta(t, 4.5, stats.AverageRating, 0.001)
}
