package recruit

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("record not found")

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) CountJobs(ctx context.Context, status string) (int, error) {
	query := "SELECT COUNT(1) FROM job_list WHERE is_deleted = FALSE"
	var args []any
	if status != "" {
		query += " AND status = $1"
		args = append(args, status)
	}
	var total int
	err := s.DB.QueryRow(ctx, query, args...).Scan(&total)
	return total, err
}

func (s *Store) ListJobs(ctx context.Context, status string, limit, offset int) ([]Job, error) {
	query := `
    SELECT id, title, COALESCE(department, ''), COALESCE(location, ''), description,
           status, created_by, edited_by, created_at, updated_at
    FROM job_list
    WHERE is_deleted = FALSE`
	var args []any
	if status != "" {
		query += " AND status = $1"
		args = append(args, status)
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Job
	for rows.Next() {
		var j Job
		if err := rows.Scan(&j.ID, &j.Title, &j.Department, &j.Location, &j.Description,
			&j.Status, &j.CreatedBy, &j.EditedBy, &j.CreatedAt, &j.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, nil
}

func (s *Store) GetJob(ctx context.Context, id string) (Job, error) {
	var j Job
	err := s.DB.QueryRow(ctx, `
    SELECT id, title, COALESCE(department, ''), COALESCE(location, ''), description,
           status, created_by, edited_by, created_at, updated_at
    FROM job_list
    WHERE id = $1 AND is_deleted = FALSE
  `, id).Scan(&j.ID, &j.Title, &j.Department, &j.Location, &j.Description,
		&j.Status, &j.CreatedBy, &j.EditedBy, &j.CreatedAt, &j.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Job{}, ErrNotFound
	}
	return j, err
}

func (s *Store) CreateJob(ctx context.Context, j Job) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO job_list (title, department, location, description, status, created_by, edited_by)
    VALUES ($1,$2,$3,$4,$5,$6,$6)
    RETURNING id
  `, j.Title, nullIfEmpty(j.Department), nullIfEmpty(j.Location), j.Description,
		JobStatusOpen, j.CreatedBy).Scan(&id)
	return id, err
}

func (s *Store) UpdateJobStatus(ctx context.Context, id, status, editedBy string) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE job_list SET status = $1, edited_by = $2, updated_at = now()
    WHERE id = $3 AND is_deleted = FALSE
  `, status, editedBy, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) SoftDeleteJob(ctx context.Context, id, editedBy string) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE job_list SET is_deleted = TRUE, edited_by = $1, updated_at = now()
    WHERE id = $2 AND is_deleted = FALSE
  `, editedBy, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) CountApplicants(ctx context.Context, jobID, status string) (int, error) {
	query := "SELECT COUNT(1) FROM job_applicant WHERE is_deleted = FALSE"
	var args []any
	if jobID != "" {
		query += fmt.Sprintf(" AND job_id = $%d", len(args)+1)
		args = append(args, jobID)
	}
	if status != "" {
		query += fmt.Sprintf(" AND status = $%d", len(args)+1)
		args = append(args, status)
	}
	var total int
	err := s.DB.QueryRow(ctx, query, args...).Scan(&total)
	return total, err
}

func (s *Store) ListApplicants(ctx context.Context, jobID, status string, limit, offset int) ([]Applicant, error) {
	query := `
    SELECT id, job_id, name, email, COALESCE(mobile, ''), COALESCE(resume_url, ''),
           status, COALESCE(edited_by, ''), created_at, updated_at
    FROM job_applicant
    WHERE is_deleted = FALSE`
	var args []any
	if jobID != "" {
		query += fmt.Sprintf(" AND job_id = $%d", len(args)+1)
		args = append(args, jobID)
	}
	if status != "" {
		query += fmt.Sprintf(" AND status = $%d", len(args)+1)
		args = append(args, status)
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Applicant
	for rows.Next() {
		var a Applicant
		if err := rows.Scan(&a.ID, &a.JobID, &a.Name, &a.Email, &a.Mobile, &a.ResumeURL,
			&a.Status, &a.EditedBy, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func (s *Store) CreateApplicant(ctx context.Context, a Applicant) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO job_applicant (job_id, name, email, mobile, resume_url, status)
    VALUES ($1,$2,$3,$4,$5,$6)
    RETURNING id
  `, a.JobID, a.Name, a.Email, nullIfEmpty(a.Mobile), nullIfEmpty(a.ResumeURL),
		ApplicantStatusReceived).Scan(&id)
	return id, err
}

func (s *Store) UpdateApplicantStatus(ctx context.Context, id, status, editedBy string) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE job_applicant SET status = $1, edited_by = $2, updated_at = now()
    WHERE id = $3 AND is_deleted = FALSE
  `, status, editedBy, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
