package employee

import "time"

const (
	StatusActive   = "active"
	StatusInactive = "inactive"

	AllowanceFixed      = "fixed"
	AllowancePercentage = "percentage"
)

// Allowance is either a fixed monthly amount or a percentage of basic salary.
type Allowance struct {
	Type  string  `json:"type"`
	Value float64 `json:"value"`
}

type Employee struct {
	ID             string     `json:"id"`
	IqamaNumber    string     `json:"iqamaNumber"`
	Name           string     `json:"name"`
	Nationality    string     `json:"nationality"`
	PassportNumber string     `json:"passportNumber,omitempty"`
	PassportExpiry *time.Time `json:"passportExpiry,omitempty"`
	ClientNumber   string     `json:"clientNumber"`
	ClientName     string     `json:"clientName"`
	BasicSalary    float64    `json:"basicSalary"`
	Housing        Allowance  `json:"housingAllowance"`
	Transport      Allowance  `json:"transportAllowance"`
	Food           Allowance  `json:"foodAllowance"`
	OtherAllowance float64    `json:"otherAllowance"`
	TotalSalary    float64    `json:"totalSalary"`
	Status         string     `json:"status"`
	InactiveDate   *time.Time `json:"inactiveDate,omitempty"`
	StatusRemark   string     `json:"statusRemark,omitempty"`
	CreatedBy      string     `json:"createdBy"`
	EditedBy       string     `json:"editedBy"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// UpdateParams enumerates the fields an edit may touch. Partial updates go
// through this struct rather than merging arbitrary payload keys.
type UpdateParams struct {
	Name           *string    `json:"name"`
	Nationality    *string    `json:"nationality"`
	PassportNumber *string    `json:"passportNumber"`
	PassportExpiry *time.Time `json:"passportExpiry"`
	ClientNumber   *string    `json:"clientNumber"`
	ClientName     *string    `json:"clientName"`
	BasicSalary    *float64   `json:"basicSalary"`
	Housing        *Allowance `json:"housingAllowance"`
	Transport      *Allowance `json:"transportAllowance"`
	Food           *Allowance `json:"foodAllowance"`
	OtherAllowance *float64   `json:"otherAllowance"`
}

type ListFilter struct {
	Search       string
	ClientNumber string
	Status       string
}
