// Package service holds the marketplace workflows: the job catalog, the
// application lifecycle, conversations and messaging, and completion
// reviews. Each operation resolves the caller through the injected
// identity provider and talks to storage only through the repository
// contracts.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/lalith-99/questboard/internal/apperr"
	"github.com/lalith-99/questboard/internal/auth"
	"github.com/lalith-99/questboard/internal/models"
	"github.com/lalith-99/questboard/internal/realtime"
	"github.com/lalith-99/questboard/internal/repository"
	"go.uber.org/zap"
)

// Deps are the collaborators every service is built from.
type Deps struct {
	Users         repository.UserRepository
	Jobs          repository.JobRepository
	Applications  repository.ApplicationRepository
	Conversations repository.ConversationRepository
	Messages      repository.MessageRepository
	Completions   repository.CompletionRepository

	Bus      realtime.Bus
	Identity auth.IdentityProvider
	Payments PaymentPolicy
	Logger   *zap.Logger

	// Now defaults to time.Now().UTC.
	Now func() time.Time
}

// Services bundles the four workflow services over one set of Deps.
type Services struct {
	Jobs         *JobService
	Applications *ApplicationService
	Messaging    *MessagingService
	Completions  *CompletionService
}

func New(d Deps) *Services {
	if d.Now == nil {
		d.Now = func() time.Time { return time.Now().UTC() }
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Identity == nil {
		d.Identity = auth.ContextIdentity{}
	}
	b := base{Deps: d}
	return &Services{
		Jobs:         &JobService{base: b},
		Applications: &ApplicationService{base: b},
		Messaging:    &MessagingService{base: b},
		Completions:  &CompletionService{base: b},
	}
}

type base struct {
	Deps
}

// caller returns the authenticated identity or ErrNotAuthenticated.
func (b *base) caller(ctx context.Context) (auth.Identity, error) {
	id, ok := b.Identity.CurrentIdentity(ctx)
	if !ok {
		return auth.Identity{}, apperr.ErrNotAuthenticated
	}
	return id, nil
}

// callerWithRole additionally requires the caller's account type.
func (b *base) callerWithRole(ctx context.Context, role models.Role) (auth.Identity, error) {
	id, err := b.caller(ctx)
	if err != nil {
		return id, err
	}
	if id.Role != role {
		return id, apperr.ErrWrongRole.WithDetails(map[string]string{"required_role": string(role)})
	}
	return id, nil
}

// storeErr classifies a repository failure. Errors that already carry a
// kind pass through; everything else is a transient store failure.
func storeErr(err error) error {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}
	return apperr.Transient(err)
}

// publish notifies stream subscribers. Notifications are advisory, so a
// failure is logged and never fails the write that triggered it.
func (b *base) publish(ctx context.Context, topics ...string) {
	if b.Bus == nil {
		return
	}
	if err := b.Bus.Publish(ctx, topics...); err != nil {
		b.Logger.Warn("publish change notification failed", zap.Strings("topics", topics), zap.Error(err))
	}
}

func (b *base) user(ctx context.Context, userID string) (*models.User, error) {
	u, err := b.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, storeErr(err)
	}
	if u == nil {
		return nil, apperr.ErrUserNotFound
	}
	return u, nil
}

func (b *base) job(ctx context.Context, jobID string) (*models.JobPosting, error) {
	job, err := b.Jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, storeErr(err)
	}
	if job == nil {
		return nil, apperr.ErrJobNotFound
	}
	return job, nil
}

func (b *base) application(ctx context.Context, applicationID string) (*models.Application, error) {
	app, err := b.Applications.GetByID(ctx, applicationID)
	if err != nil {
		return nil, storeErr(err)
	}
	if app == nil {
		return nil, apperr.ErrApplicationNotFound
	}
	return app, nil
}

// transition moves app along action with a compare-and-set on its current
// status and returns the stored result.
func (b *base) transition(ctx context.Context, app *models.Application, action models.Action) (*models.Application, error) {
	next, err := app.Status.Next(action)
	if err != nil {
		return nil, invalidTransition(app.Status, action, err)
	}

	applied, err := b.Applications.ChangeStatus(ctx, models.StatusChange{
		ApplicationID: app.ID,
		From:          app.Status,
		To:            next,
		At:            b.Now(),
	})
	if err != nil {
		return nil, storeErr(err)
	}
	if !applied {
		// Someone else moved (or deleted) the application since we read it.
		current, err := b.Applications.GetByID(ctx, app.ID)
		if err != nil {
			return nil, storeErr(err)
		}
		if current == nil {
			return nil, apperr.ErrApplicationNotFound
		}
		_, err = current.Status.Next(action)
		return nil, invalidTransition(current.Status, action, err)
	}

	updated, err := b.application(ctx, app.ID)
	if err != nil {
		return nil, err
	}
	b.Logger.Info("application status changed",
		zap.String("application_id", app.ID),
		zap.String("from", string(app.Status)),
		zap.String("to", string(next)),
	)
	return updated, nil
}

func invalidTransition(from models.ApplicationStatus, action models.Action, cause error) error {
	e := apperr.ErrInvalidTransition.WithDetails(map[string]string{
		"status": string(from),
		"action": string(action),
	})
	if cause != nil {
		e = e.Wrap(cause)
	}
	return e
}

// setJobStatusBestEffort records a workflow-driven job status. A failure
// leaves the job's status stale, which the next workflow step or the
// employer can correct, so it is only logged.
func (b *base) setJobStatusBestEffort(ctx context.Context, jobID string, status models.JobStatus) {
	if err := b.Jobs.SetStatus(ctx, jobID, status); err != nil {
		b.Logger.Warn("update job status failed",
			zap.String("job_id", jobID),
			zap.String("status", string(status)),
			zap.Error(err),
		)
		return
	}
	b.publish(ctx, realtime.TopicJobs)
}

func (b *base) publishApplication(ctx context.Context, app *models.Application) {
	b.publish(ctx,
		realtime.TopicEmployerApplications(app.EmployerID),
		realtime.TopicApplicantApplications(app.ApplicantID),
	)
}
