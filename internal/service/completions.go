package service

import (
	"context"
	"errors"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/lalith-99/questboard/internal/apperr"
	"github.com/lalith-99/questboard/internal/models"
	"github.com/lalith-99/questboard/internal/repository"
	"github.com/lalith-99/questboard/internal/validation"
	"go.uber.org/zap"
)

// CompletionService handles the end of a job: the seeker files a
// completion report, the employer reviews it once.
type CompletionService struct {
	base
}

type CompletionInput struct {
	IsCompleted     bool   `json:"is_completed"`
	HasIssues       bool   `json:"has_issues"`
	Concerns        string `json:"concerns" validate:"max=2000"`
	AdditionalNotes string `json:"additional_notes" validate:"max=2000"`
	WorkPhotoURL    string `json:"work_photo_url" validate:"omitempty,url"`
}

// validate requires exactly one of the two outcome flags, and concerns
// whenever issues are reported.
func (in CompletionInput) validate() error {
	details := make(map[string]string)
	if in.IsCompleted == in.HasIssues {
		details["is_completed"] = "exactly_one_of_has_issues"
	}
	if in.HasIssues && strings.TrimSpace(in.Concerns) == "" {
		details["concerns"] = "required_with_has_issues"
	}
	if err := validation.Struct(in); err != nil {
		var appErr *apperr.Error
		if !errors.As(err, &appErr) {
			return err
		}
		if fields, ok := appErr.Details.(map[string]string); ok {
			for k, v := range fields {
				details[k] = v
			}
		}
	}
	if len(details) > 0 {
		return apperr.Validation(details)
	}
	return nil
}

// FileCompletion records the seeker's completion report and moves the
// application from Accepted to Completed. Reporting issues instead of a
// clean completion ends in the same state; the flags only inform the
// employer.
func (s *CompletionService) FileCompletion(ctx context.Context, applicationID string, in CompletionInput) (*models.JobCompletion, error) {
	id, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	app, err := s.application(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if app.ApplicantID != id.UserID {
		return nil, apperr.ErrNotApplicant
	}
	if _, err := app.Status.Next(models.ActionComplete); err != nil {
		return nil, invalidTransition(app.Status, models.ActionComplete, err)
	}

	existing, err := s.Completions.GetByApplication(ctx, app.ID)
	if err != nil {
		return nil, storeErr(err)
	}
	if existing != nil {
		return nil, apperr.ErrCompletionExists.WithDetails(map[string]string{"completion_id": existing.ID})
	}

	completion, err := s.Completions.Create(ctx, models.JobCompletion{
		ID:              uuid.NewString(),
		ApplicationID:   app.ID,
		JobID:           app.JobID,
		JobTitle:        app.JobTitle,
		JobSeekerID:     app.ApplicantID,
		JobSeekerName:   app.ApplicantName,
		EmployerID:      app.EmployerID,
		EmployerName:    app.EmployerName,
		IsCompleted:     in.IsCompleted,
		HasIssues:       in.HasIssues,
		Concerns:        in.Concerns,
		AdditionalNotes: in.AdditionalNotes,
		WorkPhotoURL:    in.WorkPhotoURL,
		SubmittedAt:     s.Now(),
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.ErrCompletionExists
		}
		return nil, storeErr(err)
	}

	updated, err := s.transition(ctx, app, models.ActionComplete)
	if err != nil {
		s.Logger.Error("completion filed but application not advanced",
			zap.String("completion_id", completion.ID),
			zap.String("application_id", app.ID),
			zap.Error(err),
		)
		return nil, err
	}

	s.Logger.Info("completion filed",
		zap.String("completion_id", completion.ID),
		zap.String("application_id", app.ID),
		zap.Bool("has_issues", in.HasIssues),
	)
	s.publishApplication(ctx, updated)
	return completion, nil
}

type ReviewInput struct {
	Rating              float64              `json:"rating" validate:"gt=0,lte=5"`
	Feedback            string               `json:"feedback" validate:"max=2000"`
	PaymentMethod       models.PaymentMethod `json:"payment_method" validate:"required,payment_method"`
	PaymentConfirmed    bool                 `json:"payment_confirmed"`
	CompletionConfirmed bool                 `json:"completion_confirmed"`
}

func (in ReviewInput) validate() error {
	details := make(map[string]string)
	if err := validation.Struct(in); err != nil {
		var appErr *apperr.Error
		if !errors.As(err, &appErr) {
			return err
		}
		if fields, ok := appErr.Details.(map[string]string); ok {
			for k, v := range fields {
				details[k] = v
			}
		}
	}
	if !in.CompletionConfirmed {
		details["completion_confirmed"] = "required"
	}
	if !in.PaymentConfirmed {
		details["payment_confirmed"] = "required"
	}
	if len(details) > 0 {
		return apperr.Validation(details)
	}
	return nil
}

// ReviewCompletion records the employer's one-time review, releases the
// payment and moves the application from Completed to Reviewed.
//
// Payment methods the policy auto-confirms do not need the explicit
// payment confirmation.
func (s *CompletionService) ReviewCompletion(ctx context.Context, completionID string, in ReviewInput) (*models.JobCompletion, error) {
	id, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	if s.Payments.AutoConfirms(in.PaymentMethod) {
		in.PaymentConfirmed = true
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	completion, err := s.completion(ctx, completionID)
	if err != nil {
		return nil, err
	}
	if completion.EmployerID != id.UserID {
		return nil, apperr.ErrNotJobOwner
	}
	if completion.ReviewedByEmployer {
		return nil, apperr.ErrAlreadyReviewed
	}
	app, err := s.application(ctx, completion.ApplicationID)
	if err != nil {
		return nil, err
	}
	if _, err := app.Status.Next(models.ActionReview); err != nil {
		return nil, invalidTransition(app.Status, models.ActionReview, err)
	}

	reviewed, err := s.Completions.Review(ctx, completion.ID, models.CompletionReview{
		Rating:          in.Rating,
		Feedback:        in.Feedback,
		PaymentMethod:   in.PaymentMethod,
		PaymentReleased: in.PaymentConfirmed,
		ReviewedAt:      s.Now(),
	})
	if err != nil {
		return nil, storeErr(err)
	}
	if !reviewed {
		return nil, apperr.ErrAlreadyReviewed
	}

	updated, err := s.transition(ctx, app, models.ActionReview)
	if err != nil {
		s.Logger.Error("completion reviewed but application not advanced",
			zap.String("completion_id", completion.ID),
			zap.String("application_id", app.ID),
			zap.Error(err),
		)
		return nil, err
	}
	s.setJobStatusBestEffort(ctx, app.JobID, models.JobCompleted)

	s.Logger.Info("completion reviewed",
		zap.String("completion_id", completion.ID),
		zap.Float64("rating", in.Rating),
		zap.String("payment_method", string(in.PaymentMethod)),
	)
	s.publishApplication(ctx, updated)
	return s.completion(ctx, completion.ID)
}

func (s *CompletionService) completion(ctx context.Context, completionID string) (*models.JobCompletion, error) {
	c, err := s.Completions.GetByID(ctx, completionID)
	if err != nil {
		return nil, storeErr(err)
	}
	if c == nil {
		return nil, apperr.ErrCompletionNotFound
	}
	return c, nil
}

// GetCompletion returns a completion to the seeker who filed it or the
// employer reviewing it.
func (s *CompletionService) GetCompletion(ctx context.Context, completionID string) (*models.JobCompletion, error) {
	id, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	c, err := s.completion(ctx, completionID)
	if err != nil {
		return nil, err
	}
	if c.JobSeekerID != id.UserID && c.EmployerID != id.UserID {
		return nil, apperr.ErrApplicationNotVisible
	}
	return c, nil
}

func (s *CompletionService) GetCompletionForApplication(ctx context.Context, applicationID string) (*models.JobCompletion, error) {
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
	c, err := s.Completions.GetByApplication(ctx, app.ID)
	if err != nil {
		return nil, storeErr(err)
	}
	if c == nil {
		return nil, apperr.ErrCompletionNotFound
	}
	return c, nil
}

// SeekerStats aggregates a job seeker's reviewed completions. Every
// reviewed completion counts as a finished job; only rated ones count
// toward the average, which is rounded to one decimal.
func (s *CompletionService) SeekerStats(ctx context.Context, jobSeekerID string) (*models.SeekerStats, error) {
	if _, err := s.caller(ctx); err != nil {
		return nil, err
	}
	reviewed, err := s.Completions.ListReviewedBySeeker(ctx, jobSeekerID)
	if err != nil {
		return nil, storeErr(err)
	}

	stats := &models.SeekerStats{JobSeekerID: jobSeekerID, JobsCompleted: len(reviewed)}
	var total float64
	for _, c := range reviewed {
		if c.EmployerRating > 0 {
			total += c.EmployerRating
			stats.ReviewCount++
		}
	}
	if stats.ReviewCount > 0 {
		stats.AverageRating = math.Round(total/float64(stats.ReviewCount)*10) / 10
	}
	return stats, nil
}
