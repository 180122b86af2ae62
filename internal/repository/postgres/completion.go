package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/lalith-99/questboard/internal/models"
	"github.com/lalith-99/questboard/internal/repository"
)

type CompletionStore struct {
	db Querier
}

func NewCompletionStore(db Querier) *CompletionStore {
	return &CompletionStore{db: db}
}

const completionColumns = `
	id, application_id, job_id, job_title, job_seeker_id, job_seeker_name,
	employer_id, employer_name, is_completed, has_issues, concerns, additional_notes,
	work_photo_url, submitted_at, reviewed_by_employer, employer_feedback,
	employer_rating, payment_method, payment_released, reviewed_at`

func (s *CompletionStore) Create(ctx context.Context, c models.JobCompletion) (*models.JobCompletion, error) {
	query := `
		INSERT INTO job_completions (
			id, application_id, job_id, job_title, job_seeker_id, job_seeker_name,
			employer_id, employer_name, is_completed, has_issues, concerns, additional_notes,
			work_photo_url, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING ` + completionColumns

	created, err := scanCompletion(s.db.QueryRow(ctx, query,
		c.ID,
		c.ApplicationID,
		c.JobID,
		c.JobTitle,
		c.JobSeekerID,
		c.JobSeekerName,
		c.EmployerID,
		c.EmployerName,
		c.IsCompleted,
		c.HasIssues,
		c.Concerns,
		c.AdditionalNotes,
		c.WorkPhotoURL,
		c.SubmittedAt,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, repository.ErrDuplicate
		}
		return nil, fmt.Errorf("insert completion: %w", err)
	}
	return created, nil
}

func (s *CompletionStore) GetByID(ctx context.Context, completionID string) (*models.JobCompletion, error) {
	return s.getOne(ctx, `SELECT `+completionColumns+` FROM job_completions WHERE id = $1`, completionID)
}

func (s *CompletionStore) GetByApplication(ctx context.Context, applicationID string) (*models.JobCompletion, error) {
	return s.getOne(ctx, `SELECT `+completionColumns+` FROM job_completions WHERE application_id = $1`, applicationID)
}

func (s *CompletionStore) getOne(ctx context.Context, query string, arg string) (*models.JobCompletion, error) {
	c, err := scanCompletion(s.db.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get completion: %w", err)
	}
	return c, nil
}

func (s *CompletionStore) Review(ctx context.Context, completionID string, review models.CompletionReview) (bool, error) {
	query := `
		UPDATE job_completions
		SET reviewed_by_employer = true,
			employer_rating = $2,
			employer_feedback = $3,
			payment_method = $4,
			payment_released = $5,
			reviewed_at = $6
		WHERE id = $1 AND NOT reviewed_by_employer`

	tag, err := s.db.Exec(ctx, query,
		completionID,
		review.Rating,
		review.Feedback,
		review.PaymentMethod,
		review.PaymentReleased,
		review.ReviewedAt,
	)
	if err != nil {
		return false, fmt.Errorf("review completion: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *CompletionStore) ListReviewedBySeeker(ctx context.Context, jobSeekerID string) ([]models.JobCompletion, error) {
	query := `
		SELECT ` + completionColumns + `
		FROM job_completions
		WHERE job_seeker_id = $1 AND reviewed_by_employer
		ORDER BY submitted_at DESC`

	rows, err := s.db.Query(ctx, query, jobSeekerID)
	if err != nil {
		return nil, fmt.Errorf("list completions: %w", err)
	}
	defer rows.Close()

	out := make([]models.JobCompletion, 0)
	for rows.Next() {
		c, err := scanCompletion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan completion: %w", err)
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate completions: %w", err)
	}
	return out, nil
}

func scanCompletion(row pgx.Row) (*models.JobCompletion, error) {
	var c models.JobCompletion
	err := row.Scan(
		&c.ID,
		&c.ApplicationID,
		&c.JobID,
		&c.JobTitle,
		&c.JobSeekerID,
		&c.JobSeekerName,
		&c.EmployerID,
		&c.EmployerName,
		&c.IsCompleted,
		&c.HasIssues,
		&c.Concerns,
		&c.AdditionalNotes,
		&c.WorkPhotoURL,
		&c.SubmittedAt,
		&c.ReviewedByEmployer,
		&c.EmployerFeedback,
		&c.EmployerRating,
		&c.PaymentMethod,
		&c.PaymentReleased,
		&c.ReviewedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
