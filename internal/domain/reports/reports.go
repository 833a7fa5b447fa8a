// Package reports aggregates headline counts for the dashboard.
package reports

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Dashboard struct {
	ActiveEmployees    int            `json:"activeEmployees"`
	InactiveEmployees  int            `json:"inactiveEmployees"`
	TimesheetsByStatus map[string]int `json:"timesheetsByStatus"`
	OpenEnquiries      int            `json:"openEnquiries"`
	OpenCases          int            `json:"openCases"`
	OpenJobs           int            `json:"openJobs"`
	ApplicantsByStatus map[string]int `json:"applicantsByStatus"`
}

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

// Dashboard returns headline counts. Timesheet counts cover the given month,
// which the handler pins to the current calendar month.
func (s *Store) Dashboard(ctx context.Context, month time.Time) (Dashboard, error) {
	d := Dashboard{
		TimesheetsByStatus: map[string]int{},
		ApplicantsByStatus: map[string]int{},
	}

	err := s.DB.QueryRow(ctx, `
    SELECT
      (SELECT COUNT(1) FROM employees WHERE is_deleted = FALSE AND status = 'active'),
      (SELECT COUNT(1) FROM employees WHERE is_deleted = FALSE AND status = 'inactive'),
      (SELECT COUNT(1) FROM business_enquiry WHERE is_deleted = FALSE AND status = 'open'),
      (SELECT COUNT(1) FROM employee_request WHERE is_deleted = FALSE AND status = 'open'),
      (SELECT COUNT(1) FROM job_list WHERE is_deleted = FALSE AND status = 'open')
  `).Scan(&d.ActiveEmployees, &d.InactiveEmployees, &d.OpenEnquiries, &d.OpenCases, &d.OpenJobs)
	if err != nil {
		return Dashboard{}, err
	}

	rows, err := s.DB.Query(ctx, `
    SELECT status, COUNT(1)
    FROM generated_timesheet_summary
    WHERE month = $1
    GROUP BY status
  `, month)
	if err != nil {
		return Dashboard{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return Dashboard{}, err
		}
		d.TimesheetsByStatus[status] = count
	}
	if err := rows.Err(); err != nil {
		return Dashboard{}, err
	}

	appRows, err := s.DB.Query(ctx, `
    SELECT status, COUNT(1)
    FROM job_applicant
    WHERE is_deleted = FALSE
    GROUP BY status
  `)
	if err != nil {
		return Dashboard{}, err
	}
	defer appRows.Close()
	for appRows.Next() {
		var status string
		var count int
		if err := appRows.Scan(&status, &count); err != nil {
			return Dashboard{}, err
		}
		d.ApplicantsByStatus[status] = count
	}
	return d, appRows.Err()
}
