package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/lalith-99/questboard/internal/apperr"
	"github.com/lalith-99/questboard/internal/auth"
	"github.com/lalith-99/questboard/internal/models"
	"github.com/lalith-99/questboard/internal/realtime"
	"github.com/lalith-99/questboard/internal/repository"
	"github.com/lalith-99/questboard/internal/validation"
	"go.uber.org/zap"
)

// ApplicationService drives the application lifecycle:
//
//	apply -> Pending -> accept -> Accepted -> (completion) -> Completed -> (review) -> Reviewed
//	                 -> reject -> Rejected
//	Pending/Accepted -> cancel -> deleted
type ApplicationService struct {
	base
}

type ApplyInput struct {
	Message     string `json:"message" validate:"max=2000"`
	CoverLetter string `json:"cover_letter" validate:"max=5000"`
}

// Apply submits the caller's application to jobID.
//
// The existence check gives a friendly error in the common case; the
// unique (job, applicant) constraint decides concurrent duplicates.
func (s *ApplicationService) Apply(ctx context.Context, jobID string, in ApplyInput) (*models.Application, error) {
	id, err := s.callerWithRole(ctx, models.RoleJobSeeker)
	if err != nil {
		return nil, err
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	job, err := s.job(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.EmployerID == id.UserID {
		return nil, apperr.ErrCannotApplyToOwnJob
	}
	if job.Status != models.JobOpen || !job.IsActive {
		return nil, apperr.ErrJobNotOpen.WithDetails(map[string]string{"status": string(job.Status)})
	}

	existing, err := s.Applications.FindByJobAndApplicant(ctx, jobID, id.UserID)
	if err != nil {
		return nil, storeErr(err)
	}
	if existing != nil {
		return nil, apperr.ErrAlreadyApplied.WithDetails(map[string]string{"application_id": existing.ID})
	}

	applicant, err := s.user(ctx, id.UserID)
	if err != nil {
		return nil, err
	}

	created, err := s.Applications.Create(ctx, models.Application{
		ID:             uuid.NewString(),
		JobID:          job.ID,
		JobTitle:       job.Title,
		EmployerID:     job.EmployerID,
		EmployerName:   job.EmployerName,
		EmployerEmail:  job.EmployerEmail,
		ApplicantID:    applicant.ID,
		ApplicantName:  applicant.DisplayName,
		ApplicantEmail: applicant.Email,
		ApplicantPhone: applicant.Phone,
		Status:         models.StatusPending,
		Message:        in.Message,
		CoverLetter:    in.CoverLetter,
		SubmittedAt:    s.Now(),
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.ErrAlreadyApplied
		}
		return nil, storeErr(err)
	}

	s.adjustApplicants(ctx, job.ID, 1)
	s.Logger.Info("application submitted",
		zap.String("application_id", created.ID),
		zap.String("job_id", job.ID),
		zap.String("applicant_id", applicant.ID),
	)
	s.publishApplication(ctx, created)
	return created, nil
}

// adjustApplicants keeps the job's applicant counter in step. The counter
// is informational, so a failed update is logged rather than returned.
func (s *ApplicationService) adjustApplicants(ctx context.Context, jobID string, delta int) {
	if err := s.Jobs.AdjustApplicants(ctx, jobID, delta); err != nil {
		s.Logger.Warn("adjust applicants count failed",
			zap.String("job_id", jobID),
			zap.Int("delta", delta),
			zap.Error(err),
		)
		return
	}
	s.publish(ctx, realtime.TopicJobs)
}

// Accept moves a Pending application to Accepted and marks the job
// InProgress.
func (s *ApplicationService) Accept(ctx context.Context, applicationID string) (*models.Application, error) {
	app, err := s.respond(ctx, applicationID, models.ActionAccept)
	if err != nil {
		return nil, err
	}
	s.setJobStatusBestEffort(ctx, app.JobID, models.JobInProgress)
	return app, nil
}

func (s *ApplicationService) Reject(ctx context.Context, applicationID string) (*models.Application, error) {
	return s.respond(ctx, applicationID, models.ActionReject)
}

func (s *ApplicationService) respond(ctx context.Context, applicationID string, action models.Action) (*models.Application, error) {
	id, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	app, err := s.application(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if app.EmployerID != id.UserID {
		return nil, apperr.ErrNotJobOwner
	}

	updated, err := s.transition(ctx, app, action)
	if err != nil {
		return nil, err
	}
	s.publishApplication(ctx, updated)
	return updated, nil
}

// Cancel withdraws the caller's application: it is deleted and the job's
// applicant counter goes down by one.
func (s *ApplicationService) Cancel(ctx context.Context, applicationID string) error {
	id, err := s.caller(ctx)
	if err != nil {
		return err
	}
	app, err := s.application(ctx, applicationID)
	if err != nil {
		return err
	}
	if app.ApplicantID != id.UserID {
		return apperr.ErrNotApplicant
	}
	if _, err := app.Status.Next(models.ActionCancel); err != nil {
		return invalidTransition(app.Status, models.ActionCancel, err)
	}

	if err := s.Applications.Delete(ctx, app.ID); err != nil {
		return storeErr(err)
	}
	s.adjustApplicants(ctx, app.JobID, -1)
	s.Logger.Info("application cancelled", zap.String("application_id", app.ID), zap.String("job_id", app.JobID))
	s.publishApplication(ctx, app)
	return nil
}

// Get returns an application to either of its two parties.
func (s *ApplicationService) Get(ctx context.Context, applicationID string) (*models.Application, error) {
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
	return app, nil
}

func canSeeApplication(id auth.Identity, app *models.Application) bool {
	return app.ApplicantID == id.UserID || app.EmployerID == id.UserID
}

func (s *ApplicationService) loader(filter models.ApplicationFilter) realtime.Loader[models.Application] {
	return func(ctx context.Context) ([]models.Application, error) {
		apps, err := s.Applications.List(ctx, filter)
		if err != nil {
			return nil, storeErr(err)
		}
		return apps, nil
	}
}

// ListForEmployer returns applications to the caller's jobs. An empty
// status means every status.
func (s *ApplicationService) ListForEmployer(ctx context.Context, status models.ApplicationStatus) ([]models.Application, error) {
	id, err := s.callerWithRole(ctx, models.RoleEmployer)
	if err != nil {
		return nil, err
	}
	return s.loader(models.ApplicationFilter{EmployerID: id.UserID, Status: status})(ctx)
}

func (s *ApplicationService) ListForApplicant(ctx context.Context, status models.ApplicationStatus) ([]models.Application, error) {
	id, err := s.callerWithRole(ctx, models.RoleJobSeeker)
	if err != nil {
		return nil, err
	}
	return s.loader(models.ApplicationFilter{ApplicantID: id.UserID, Status: status})(ctx)
}

func (s *ApplicationService) WatchForEmployer(ctx context.Context, status models.ApplicationStatus) (*realtime.Subscription[models.Application], error) {
	id, err := s.callerWithRole(ctx, models.RoleEmployer)
	if err != nil {
		return nil, err
	}
	return s.watch(ctx, models.ApplicationFilter{EmployerID: id.UserID, Status: status},
		realtime.TopicEmployerApplications(id.UserID))
}

func (s *ApplicationService) WatchForApplicant(ctx context.Context, status models.ApplicationStatus) (*realtime.Subscription[models.Application], error) {
	id, err := s.callerWithRole(ctx, models.RoleJobSeeker)
	if err != nil {
		return nil, err
	}
	return s.watch(ctx, models.ApplicationFilter{ApplicantID: id.UserID, Status: status},
		realtime.TopicApplicantApplications(id.UserID))
}

func (s *ApplicationService) watch(ctx context.Context, filter models.ApplicationFilter, topic string) (*realtime.Subscription[models.Application], error) {
	sub, err := realtime.Watch(ctx, s.Bus, s.loader(filter), topic)
	if err != nil {
		return nil, storeErr(err)
	}
	return sub, nil
}
