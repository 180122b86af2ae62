package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/lalith-99/questboard/internal/models"
)

type JobRepo struct {
	mu   sync.RWMutex
	jobs map[string]models.JobPosting
}

func NewJobRepo() *JobRepo {
	return &JobRepo{jobs: make(map[string]models.JobPosting)}
}

func (r *JobRepo) Create(ctx context.Context, job models.JobPosting) (*models.JobPosting, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	t := now()
	job.ApplicantsCount = 0
	job.CreatedAt = t
	job.UpdatedAt = t
	r.jobs[job.ID] = job
	return &job, nil
}

func (r *JobRepo) GetByID(ctx context.Context, jobID string) (*models.JobPosting, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	job, ok := r.jobs[jobID]
	if !ok {
		return nil, nil
	}
	return &job, nil
}

func (r *JobRepo) Update(ctx context.Context, job models.JobPosting) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.jobs[job.ID]
	if !ok {
		return nil
	}
	stored.Title = job.Title
	stored.Description = job.Description
	stored.Category = job.Category
	stored.PaymentType = job.PaymentType
	stored.Amount = job.Amount
	stored.Location = job.Location
	stored.DateTime = job.DateTime
	stored.Requirements = job.Requirements
	stored.UpdatedAt = now()
	r.jobs[job.ID] = stored
	return nil
}

func (r *JobRepo) SetStatus(ctx context.Context, jobID string, status models.JobStatus) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if job, ok := r.jobs[jobID]; ok {
		job.Status = status
		job.UpdatedAt = now()
		r.jobs[jobID] = job
	}
	return nil
}

func (r *JobRepo) Delete(ctx context.Context, jobID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.jobs, jobID)
	return nil
}

func (r *JobRepo) List(ctx context.Context, filter models.JobFilter) ([]models.JobPosting, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	jobs := make([]models.JobPosting, 0)
	for _, job := range r.jobs {
		if filter.EmployerID != "" && job.EmployerID != filter.EmployerID {
			continue
		}
		if filter.Status != "" && job.Status != filter.Status {
			continue
		}
		if filter.Category != "" && job.Category != filter.Category {
			continue
		}
		jobs = append(jobs, job)
	}
	sort.SliceStable(jobs, func(i, j int) bool {
		if jobs[i].CreatedAt.Equal(jobs[j].CreatedAt) {
			return jobs[i].ID > jobs[j].ID
		}
		return jobs[i].CreatedAt.After(jobs[j].CreatedAt)
	})
	return jobs, nil
}

func (r *JobRepo) AdjustApplicants(ctx context.Context, jobID string, delta int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[jobID]
	if !ok {
		return nil
	}
	job.ApplicantsCount = max(job.ApplicantsCount+delta, 0)
	job.UpdatedAt = now()
	r.jobs[jobID] = job
	return nil
}
