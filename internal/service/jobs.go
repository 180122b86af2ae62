package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/lalith-99/questboard/internal/apperr"
	"github.com/lalith-99/questboard/internal/auth"
	"github.com/lalith-99/questboard/internal/models"
	"github.com/lalith-99/questboard/internal/realtime"
	"github.com/lalith-99/questboard/internal/validation"
	"go.uber.org/zap"
)

// JobService is the job catalog: employers post and manage listings, job
// seekers browse the open ones.
type JobService struct {
	base
}

// JobInput is the employer-editable part of a posting.
type JobInput struct {
	Title        string             `json:"title" validate:"notblank,max=200"`
	Description  string             `json:"description" validate:"notblank,max=5000"`
	Category     string             `json:"category" validate:"notblank,max=100"`
	PaymentType  models.PaymentType `json:"payment_type" validate:"payment_type"`
	Amount       float64            `json:"amount" validate:"gte=0"`
	Location     string             `json:"location" validate:"notblank,max=500"`
	DateTime     string             `json:"date_time" validate:"notblank,max=100"`
	Requirements string             `json:"requirements" validate:"max=5000"`
}

func (in JobInput) apply(job *models.JobPosting) {
	job.Title = in.Title
	job.Description = in.Description
	job.Category = in.Category
	job.PaymentType = in.PaymentType
	job.Amount = in.Amount
	job.Location = in.Location
	job.DateTime = in.DateTime
	job.Requirements = in.Requirements
}

func (s *JobService) CreateJob(ctx context.Context, in JobInput) (*models.JobPosting, error) {
	id, err := s.callerWithRole(ctx, models.RoleEmployer)
	if err != nil {
		return nil, err
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	employer, err := s.user(ctx, id.UserID)
	if err != nil {
		return nil, err
	}

	job := models.JobPosting{
		ID:            uuid.NewString(),
		EmployerID:    employer.ID,
		EmployerName:  employer.DisplayName,
		EmployerEmail: employer.Email,
		Status:        models.JobOpen,
		IsActive:      true,
	}
	in.apply(&job)

	created, err := s.Jobs.Create(ctx, job)
	if err != nil {
		return nil, storeErr(err)
	}
	s.Logger.Info("job created", zap.String("job_id", created.ID), zap.String("employer_id", created.EmployerID))
	s.publish(ctx, realtime.TopicJobs)
	return created, nil
}

// ownedJob loads jobID and checks that the caller posted it.
func (s *JobService) ownedJob(ctx context.Context, jobID string) (*models.JobPosting, error) {
	id, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	job, err := s.job(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.EmployerID != id.UserID {
		return nil, apperr.ErrNotJobOwner
	}
	return job, nil
}

func (s *JobService) UpdateJob(ctx context.Context, jobID string, in JobInput) (*models.JobPosting, error) {
	job, err := s.ownedJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	in.apply(job)
	if err := s.Jobs.Update(ctx, *job); err != nil {
		return nil, storeErr(err)
	}
	s.publish(ctx, realtime.TopicJobs)
	return s.job(ctx, jobID)
}

type jobStatusInput struct {
	Status models.JobStatus `json:"status" validate:"job_status"`
}

// SetJobStatus lets the owner toggle a posting between Open and Closed. A
// Completed job stays completed.
func (s *JobService) SetJobStatus(ctx context.Context, jobID string, status models.JobStatus) (*models.JobPosting, error) {
	if err := validation.Struct(jobStatusInput{Status: status}); err != nil {
		return nil, err
	}
	job, err := s.ownedJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status == models.JobCompleted {
		return nil, apperr.ErrInvalidTransition.WithDetails(map[string]string{
			"status":    string(job.Status),
			"requested": string(status),
		})
	}
	if job.Status == status {
		return job, nil
	}

	if err := s.Jobs.SetStatus(ctx, jobID, status); err != nil {
		return nil, storeErr(err)
	}
	s.publish(ctx, realtime.TopicJobs)
	return s.job(ctx, jobID)
}

// DeleteJob removes the posting. Its applications are left untouched.
func (s *JobService) DeleteJob(ctx context.Context, jobID string) error {
	job, err := s.ownedJob(ctx, jobID)
	if err != nil {
		return err
	}
	if err := s.Jobs.Delete(ctx, job.ID); err != nil {
		return storeErr(err)
	}
	s.Logger.Info("job deleted", zap.String("job_id", job.ID))
	s.publish(ctx, realtime.TopicJobs)
	return nil
}

func (s *JobService) GetJob(ctx context.Context, jobID string) (*models.JobPosting, error) {
	if _, err := s.caller(ctx); err != nil {
		return nil, err
	}
	return s.job(ctx, jobID)
}

func (s *JobService) loadOpenJobs(category string) realtime.Loader[models.JobPosting] {
	return func(ctx context.Context) ([]models.JobPosting, error) {
		jobs, err := s.Jobs.List(ctx, models.JobFilter{Status: models.JobOpen, Category: category})
		if err != nil {
			return nil, storeErr(err)
		}
		active := jobs[:0]
		for _, j := range jobs {
			if j.IsActive {
				active = append(active, j)
			}
		}
		return active, nil
	}
}

// ListOpenJobs returns the postings accepting applications, newest first.
// An empty category means every category.
func (s *JobService) ListOpenJobs(ctx context.Context, category string) ([]models.JobPosting, error) {
	if _, err := s.caller(ctx); err != nil {
		return nil, err
	}
	return s.loadOpenJobs(category)(ctx)
}

func (s *JobService) WatchOpenJobs(ctx context.Context, category string) (*realtime.Subscription[models.JobPosting], error) {
	if _, err := s.caller(ctx); err != nil {
		return nil, err
	}
	sub, err := realtime.Watch(ctx, s.Bus, s.loadOpenJobs(category), realtime.TopicJobs)
	if err != nil {
		return nil, storeErr(err)
	}
	return sub, nil
}

func (s *JobService) ListMyJobs(ctx context.Context) ([]models.JobPosting, error) {
	id, err := s.callerWithRole(ctx, models.RoleEmployer)
	if err != nil {
		return nil, err
	}
	return s.employerJobs(ctx, id)
}

func (s *JobService) employerJobs(ctx context.Context, id auth.Identity) ([]models.JobPosting, error) {
	jobs, err := s.Jobs.List(ctx, models.JobFilter{EmployerID: id.UserID})
	if err != nil {
		return nil, storeErr(err)
	}
	return jobs, nil
}

// EmployerStats summarises the caller's postings.
func (s *JobService) EmployerStats(ctx context.Context) (*models.EmployerStats, error) {
	id, err := s.callerWithRole(ctx, models.RoleEmployer)
	if err != nil {
		return nil, err
	}
	jobs, err := s.employerJobs(ctx, id)
	if err != nil {
		return nil, err
	}

	stats := &models.EmployerStats{EmployerID: id.UserID, TotalJobs: len(jobs)}
	for _, j := range jobs {
		switch j.Status {
		case models.JobOpen:
			stats.OpenJobs++
		case models.JobCompleted:
			stats.CompletedJobs++
		}
		stats.TotalApplicants += j.ApplicantsCount
	}
	return stats, nil
}
