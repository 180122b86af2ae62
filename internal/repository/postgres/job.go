package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/lalith-99/questboard/internal/models"
)

type JobStore struct {
	db Querier
}

func NewJobStore(db Querier) *JobStore {
	return &JobStore{db: db}
}

const jobColumns = `
	id, employer_id, employer_name, employer_email, title, description, category,
	payment_type, amount, location, date_time, requirements, status,
	applicants_count, is_active, created_at, updated_at`

func (s *JobStore) Create(ctx context.Context, job models.JobPosting) (*models.JobPosting, error) {
	query := `
		INSERT INTO jobs (
			id, employer_id, employer_name, employer_email, title, description, category,
			payment_type, amount, location, date_time, requirements, status,
			applicants_count, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, 0, $14, now(), now())
		RETURNING ` + jobColumns

	created, err := scanJob(s.db.QueryRow(ctx, query,
		job.ID,
		job.EmployerID,
		job.EmployerName,
		job.EmployerEmail,
		job.Title,
		job.Description,
		job.Category,
		job.PaymentType,
		job.Amount,
		job.Location,
		job.DateTime,
		job.Requirements,
		job.Status,
		job.IsActive,
	))
	if err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}
	return created, nil
}

func (s *JobStore) GetByID(ctx context.Context, jobID string) (*models.JobPosting, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE id = $1`

	job, err := scanJob(s.db.QueryRow(ctx, query, jobID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

func (s *JobStore) Update(ctx context.Context, job models.JobPosting) error {
	query := `
		UPDATE jobs
		SET title = $2, description = $3, category = $4, payment_type = $5, amount = $6,
			location = $7, date_time = $8, requirements = $9, updated_at = now()
		WHERE id = $1`

	_, err := s.db.Exec(ctx, query,
		job.ID,
		job.Title,
		job.Description,
		job.Category,
		job.PaymentType,
		job.Amount,
		job.Location,
		job.DateTime,
		job.Requirements,
	)
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	return nil
}

func (s *JobStore) SetStatus(ctx context.Context, jobID string, status models.JobStatus) error {
	query := `UPDATE jobs SET status = $2, updated_at = now() WHERE id = $1`

	if _, err := s.db.Exec(ctx, query, jobID, status); err != nil {
		return fmt.Errorf("set job status: %w", err)
	}
	return nil
}

func (s *JobStore) Delete(ctx context.Context, jobID string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM jobs WHERE id = $1`, jobID); err != nil {
		return fmt.Errorf("delete job: %w", err)
	}
	return nil
}

func (s *JobStore) List(ctx context.Context, filter models.JobFilter) ([]models.JobPosting, error) {
	var (
		where []string
		args  []any
	)
	if filter.EmployerID != "" {
		args = append(args, filter.EmployerID)
		where = append(where, fmt.Sprintf("employer_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		where = append(where, fmt.Sprintf("category = $%d", len(args)))
	}

	query := `SELECT ` + jobColumns + ` FROM jobs`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	jobs := make([]models.JobPosting, 0)
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, *job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate jobs: %w", err)
	}
	return jobs, nil
}

// AdjustApplicants is a single UPDATE, so concurrent applies and cancels
// cannot lose increments.
func (s *JobStore) AdjustApplicants(ctx context.Context, jobID string, delta int) error {
	query := `
		UPDATE jobs
		SET applicants_count = GREATEST(applicants_count + $2, 0), updated_at = now()
		WHERE id = $1`

	if _, err := s.db.Exec(ctx, query, jobID, delta); err != nil {
		return fmt.Errorf("adjust applicants: %w", err)
	}
	return nil
}

func scanJob(row pgx.Row) (*models.JobPosting, error) {
	var j models.JobPosting
	err := row.Scan(
		&j.ID,
		&j.EmployerID,
		&j.EmployerName,
		&j.EmployerEmail,
		&j.Title,
		&j.Description,
		&j.Category,
		&j.PaymentType,
		&j.Amount,
		&j.Location,
		&j.DateTime,
		&j.Requirements,
		&j.Status,
		&j.ApplicantsCount,
		&j.IsActive,
		&j.CreatedAt,
		&j.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &j, nil
}
