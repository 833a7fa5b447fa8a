package crm

import "time"

const (
	QuotationStatusDraft    = "draft"
	QuotationStatusSent     = "sent"
	QuotationStatusAccepted = "accepted"
	QuotationStatusRejected = "rejected"

	EnquiryStatusNew        = "new"
	EnquiryStatusInProgress = "in_progress"
	EnquiryStatusClosed     = "closed"

	CaseStatusOpen       = "open"
	CaseStatusInProgress = "in_progress"
	CaseStatusResolved   = "resolved"
	CaseStatusClosed     = "closed"
)

var (
	QuotationStatuses = []string{QuotationStatusDraft, QuotationStatusSent, QuotationStatusAccepted, QuotationStatusRejected}
	EnquiryStatuses   = []string{EnquiryStatusNew, EnquiryStatusInProgress, EnquiryStatusClosed}
	CaseStatuses      = []string{CaseStatusOpen, CaseStatusInProgress, CaseStatusResolved, CaseStatusClosed}
)

// ListFilter narrows CRM lists; Search matches the record's headline fields.
type ListFilter struct {
	Status string
	Search string
}

type Quotation struct {
	ID           string    `json:"id"`
	ClientName   string    `json:"clientName"`
	ContactEmail string    `json:"contactEmail"`
	ContactPhone string    `json:"contactPhone,omitempty"`
	Subject      string    `json:"subject"`
	Amount       float64   `json:"amount"`
	Notes        string    `json:"notes,omitempty"`
	Status       string    `json:"status"`
	CreatedBy    string    `json:"createdBy"`
	EditedBy     string    `json:"editedBy"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// UpdateQuotationParams is a partial update; nil fields keep their value.
// Status changes go through UpdateQuotationStatus.
type UpdateQuotationParams struct {
	ClientName   *string  `json:"clientName"`
	ContactEmail *string  `json:"contactEmail"`
	ContactPhone *string  `json:"contactPhone"`
	Subject      *string  `json:"subject"`
	Amount       *float64 `json:"amount"`
	Notes        *string  `json:"notes"`
}

type Enquiry struct {
	ID          string    `json:"id"`
	CompanyName string    `json:"companyName"`
	ContactName string    `json:"contactName"`
	Email       string    `json:"email"`
	Mobile      string    `json:"mobile,omitempty"`
	Message     string    `json:"message"`
	Status      string    `json:"status"`
	EditedBy    string    `json:"editedBy,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// UpdateCaseParams is a partial update; nil fields keep their value.
type UpdateCaseParams struct {
	Subject     *string `json:"subject"`
	Description *string `json:"description"`
	Priority    *string `json:"priority"`
}

// Case is an employee request raised against a staffed worker.
type Case struct {
	ID          string    `json:"id"`
	IqamaNumber string    `json:"iqamaNumber,omitempty"`
	Subject     string    `json:"subject"`
	Description string    `json:"description"`
	Priority    string    `json:"priority"`
	Status      string    `json:"status"`
	CreatedBy   string    `json:"createdBy"`
	EditedBy    string    `json:"editedBy"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
