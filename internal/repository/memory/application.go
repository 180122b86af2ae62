package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/lalith-99/questboard/internal/models"
	"github.com/lalith-99/questboard/internal/repository"
)

type ApplicationRepo struct {
	mu   sync.RWMutex
	apps map[string]models.Application
	// byPair indexes jobID+"/"+applicantID, mirroring the unique index.
	byPair map[string]string
}

func NewApplicationRepo() *ApplicationRepo {
	return &ApplicationRepo{
		apps:   make(map[string]models.Application),
		byPair: make(map[string]string),
	}
}

func pairKey(jobID, applicantID string) string {
	return jobID + "/" + applicantID
}

func (r *ApplicationRepo) Create(ctx context.Context, app models.Application) (*models.Application, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	key := pairKey(app.JobID, app.ApplicantID)
	if _, exists := r.byPair[key]; exists {
		return nil, repository.ErrDuplicate
	}
	app.IsRead = false
	app.NotificationSent = false
	r.apps[app.ID] = app
	r.byPair[key] = app.ID
	return &app, nil
}

func (r *ApplicationRepo) GetByID(ctx context.Context, applicationID string) (*models.Application, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	app, ok := r.apps[applicationID]
	if !ok {
		return nil, nil
	}
	return &app, nil
}

func (r *ApplicationRepo) FindByJobAndApplicant(ctx context.Context, jobID, applicantID string) (*models.Application, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byPair[pairKey(jobID, applicantID)]
	if !ok {
		return nil, nil
	}
	app := r.apps[id]
	return &app, nil
}

func (r *ApplicationRepo) List(ctx context.Context, filter models.ApplicationFilter) ([]models.Application, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	apps := make([]models.Application, 0)
	for _, app := range r.apps {
		if filter.JobID != "" && app.JobID != filter.JobID {
			continue
		}
		if filter.EmployerID != "" && app.EmployerID != filter.EmployerID {
			continue
		}
		if filter.ApplicantID != "" && app.ApplicantID != filter.ApplicantID {
			continue
		}
		if filter.Status != "" && app.Status != filter.Status {
			continue
		}
		apps = append(apps, app)
	}
	sort.SliceStable(apps, func(i, j int) bool {
		if apps[i].SubmittedAt.Equal(apps[j].SubmittedAt) {
			return apps[i].ID > apps[j].ID
		}
		return apps[i].SubmittedAt.After(apps[j].SubmittedAt)
	})
	return apps, nil
}

func (r *ApplicationRepo) ChangeStatus(ctx context.Context, change models.StatusChange) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	app, ok := r.apps[change.ApplicationID]
	if !ok || app.Status != change.From {
		return false, nil
	}
	app.Status = change.To
	switch change.To {
	case models.StatusAccepted, models.StatusRejected:
		app.RespondedAt = timePtr(change.At)
		app.NotificationSent = false
	case models.StatusCompleted:
		app.CompletedAt = timePtr(change.At)
	case models.StatusReviewed:
		app.ReviewedAt = timePtr(change.At)
	}
	r.apps[app.ID] = app
	return true, nil
}

func (r *ApplicationRepo) Delete(ctx context.Context, applicationID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if app, ok := r.apps[applicationID]; ok {
		delete(r.byPair, pairKey(app.JobID, app.ApplicantID))
		delete(r.apps, applicationID)
	}
	return nil
}
