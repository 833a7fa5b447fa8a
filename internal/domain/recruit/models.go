package recruit

import "time"

const (
	JobStatusOpen   = "open"
	JobStatusClosed = "closed"

	ApplicantStatusReceived    = "received"
	ApplicantStatusShortlisted = "shortlisted"
	ApplicantStatusInterviewed = "interviewed"
	ApplicantStatusHired       = "hired"
	ApplicantStatusRejected    = "rejected"
)

var ApplicantStatuses = []string{
	ApplicantStatusReceived,
	ApplicantStatusShortlisted,
	ApplicantStatusInterviewed,
	ApplicantStatusHired,
	ApplicantStatusRejected,
}

type Job struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Department  string    `json:"department,omitempty"`
	Location    string    `json:"location,omitempty"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	CreatedBy   string    `json:"createdBy"`
	EditedBy    string    `json:"editedBy"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type Applicant struct {
	ID        string    `json:"id"`
	JobID     string    `json:"jobId"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Mobile    string    `json:"mobile,omitempty"`
	ResumeURL string    `json:"resumeUrl,omitempty"`
	Status    string    `json:"status"`
	EditedBy  string    `json:"editedBy,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
