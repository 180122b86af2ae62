package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/lalith-99/questboard/internal/models"
	"github.com/lalith-99/questboard/internal/repository"
)

type CompletionRepo struct {
	mu    sync.RWMutex
	byID  map[string]models.JobCompletion
	byApp map[string]string
}

func NewCompletionRepo() *CompletionRepo {
	return &CompletionRepo{
		byID:  make(map[string]models.JobCompletion),
		byApp: make(map[string]string),
	}
}

func (r *CompletionRepo) Create(ctx context.Context, c models.JobCompletion) (*models.JobCompletion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byApp[c.ApplicationID]; exists {
		return nil, repository.ErrDuplicate
	}
	c.ReviewedByEmployer = false
	c.PaymentReleased = false
	c.ReviewedAt = nil
	r.byID[c.ID] = c
	r.byApp[c.ApplicationID] = c.ID
	return &c, nil
}

func (r *CompletionRepo) GetByID(ctx context.Context, completionID string) (*models.JobCompletion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.byID[completionID]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r *CompletionRepo) GetByApplication(ctx context.Context, applicationID string) (*models.JobCompletion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byApp[applicationID]
	if !ok {
		return nil, nil
	}
	c := r.byID[id]
	return &c, nil
}

func (r *CompletionRepo) Review(ctx context.Context, completionID string, review models.CompletionReview) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.byID[completionID]
	if !ok || c.ReviewedByEmployer {
		return false, nil
	}
	c.ReviewedByEmployer = true
	c.EmployerRating = review.Rating
	c.EmployerFeedback = review.Feedback
	c.PaymentMethod = review.PaymentMethod
	c.PaymentReleased = review.PaymentReleased
	c.ReviewedAt = timePtr(review.ReviewedAt)
	r.byID[completionID] = c
	return true, nil
}

func (r *CompletionRepo) ListReviewedBySeeker(ctx context.Context, jobSeekerID string) ([]models.JobCompletion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.JobCompletion, 0)
	for _, c := range r.byID {
		if c.JobSeekerID == jobSeekerID && c.ReviewedByEmployer {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SubmittedAt.After(out[j].SubmittedAt)
	})
	return out, nil
}
