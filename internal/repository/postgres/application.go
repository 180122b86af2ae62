package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/lalith-99/questboard/internal/models"
	"github.com/lalith-99/questboard/internal/repository"
)

type ApplicationStore struct {
	db Querier
}

func NewApplicationStore(db Querier) *ApplicationStore {
	return &ApplicationStore{db: db}
}

const applicationColumns = `
	id, job_id, job_title, employer_id, employer_name, employer_email,
	applicant_id, applicant_name, applicant_email, applicant_phone,
	status, message, cover_letter, is_read, notification_sent,
	submitted_at, responded_at, completed_at, reviewed_at`

// Create relies on the (job_id, applicant_id) unique index: two concurrent
// applies from the same user cannot both land.
func (s *ApplicationStore) Create(ctx context.Context, app models.Application) (*models.Application, error) {
	query := `
		INSERT INTO applications (
			id, job_id, job_title, employer_id, employer_name, employer_email,
			applicant_id, applicant_name, applicant_email, applicant_phone,
			status, message, cover_letter, is_read, notification_sent, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, false, false, $14)
		RETURNING ` + applicationColumns

	created, err := scanApplication(s.db.QueryRow(ctx, query,
		app.ID,
		app.JobID,
		app.JobTitle,
		app.EmployerID,
		app.EmployerName,
		app.EmployerEmail,
		app.ApplicantID,
		app.ApplicantName,
		app.ApplicantEmail,
		app.ApplicantPhone,
		app.Status,
		app.Message,
		app.CoverLetter,
		app.SubmittedAt,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, repository.ErrDuplicate
		}
		return nil, fmt.Errorf("insert application: %w", err)
	}
	return created, nil
}

func (s *ApplicationStore) GetByID(ctx context.Context, applicationID string) (*models.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE id = $1`

	app, err := scanApplication(s.db.QueryRow(ctx, query, applicationID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get application: %w", err)
	}
	return app, nil
}

func (s *ApplicationStore) FindByJobAndApplicant(ctx context.Context, jobID, applicantID string) (*models.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE job_id = $1 AND applicant_id = $2`

	app, err := scanApplication(s.db.QueryRow(ctx, query, jobID, applicantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find application: %w", err)
	}
	return app, nil
}

func (s *ApplicationStore) List(ctx context.Context, filter models.ApplicationFilter) ([]models.Application, error) {
	var (
		where []string
		args  []any
	)
	add := func(column string, value any) {
		args = append(args, value)
		where = append(where, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if filter.JobID != "" {
		add("job_id", filter.JobID)
	}
	if filter.EmployerID != "" {
		add("employer_id", filter.EmployerID)
	}
	if filter.ApplicantID != "" {
		add("applicant_id", filter.ApplicantID)
	}
	if filter.Status != "" {
		add("status", filter.Status)
	}

	query := `SELECT ` + applicationColumns + ` FROM applications`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY submitted_at DESC`

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	defer rows.Close()

	apps := make([]models.Application, 0)
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("scan application: %w", err)
		}
		apps = append(apps, *app)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate applications: %w", err)
	}
	return apps, nil
}

// ChangeStatus is a compare-and-set on status. Accept/reject also stamp
// responded_at and clear notification_sent so the applicant gets notified.
func (s *ApplicationStore) ChangeStatus(ctx context.Context, change models.StatusChange) (bool, error) {
	query := `
		UPDATE applications
		SET status = $3::text,
			responded_at = CASE WHEN $3::text IN ('Accepted', 'Rejected') THEN $4 ELSE responded_at END,
			notification_sent = CASE WHEN $3::text IN ('Accepted', 'Rejected') THEN false ELSE notification_sent END,
			completed_at = CASE WHEN $3::text = 'Completed' THEN $4 ELSE completed_at END,
			reviewed_at = CASE WHEN $3::text = 'Reviewed' THEN $4 ELSE reviewed_at END
		WHERE id = $1 AND status = $2`

	tag, err := s.db.Exec(ctx, query, change.ApplicationID, change.From, change.To, change.At)
	if err != nil {
		return false, fmt.Errorf("change application status: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *ApplicationStore) Delete(ctx context.Context, applicationID string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM applications WHERE id = $1`, applicationID); err != nil {
		return fmt.Errorf("delete application: %w", err)
	}
	return nil
}

func scanApplication(row pgx.Row) (*models.Application, error) {
	var a models.Application
	err := row.Scan(
		&a.ID,
		&a.JobID,
		&a.JobTitle,
		&a.EmployerID,
		&a.EmployerName,
		&a.EmployerEmail,
		&a.ApplicantID,
		&a.ApplicantName,
		&a.ApplicantEmail,
		&a.ApplicantPhone,
		&a.Status,
		&a.Message,
		&a.CoverLetter,
		&a.IsRead,
		&a.NotificationSent,
		&a.SubmittedAt,
		&a.RespondedAt,
		&a.CompletedAt,
		&a.ReviewedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
