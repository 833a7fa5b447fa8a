package timesheet

import "time"

// Adjustments are the per-employee inputs read from one spreadsheet row.
type Adjustments struct {
	WorkingDays   float64 `json:"workingDays"`
	AbsentHours   float64 `json:"absentHours"`
	OvertimeHours float64 `json:"overtimeHours"`
	Incentive     float64 `json:"incentive"`
	Penalty       float64 `json:"penalty"`
	EtmamCost     float64 `json:"etmamCost"`
}

// Computed are the derived payroll figures for one detail row.
type Computed struct {
	OvertimePay    float64 `json:"overtimePay"`
	Deductions     float64 `json:"deductions"`
	AdjustedSalary float64 `json:"adjustedSalary"`
	TotalCost      float64 `json:"totalCost"`
	VAT            float64 `json:"vat"`
	NetCost        float64 `json:"netCost"`
}

// DetailRow is one employee's one month, unique per
// (iqama_number, client_number, month).
type DetailRow struct {
	ID           string    `json:"id"`
	IqamaNumber  string    `json:"iqamaNumber"`
	EmployeeName string    `json:"employeeName"`
	ClientNumber string    `json:"clientNumber"`
	Month        time.Time `json:"month"`
	BasicSalary  float64   `json:"basicSalary"`
	TotalSalary  float64   `json:"totalSalary"`
	Adjustments
	Computed
	GeneratedBy string    `json:"generatedBy"`
	EditedBy    string    `json:"editedBy"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Summary is the aggregated, workflow-tracked record for one client's month.
type Summary struct {
	ID                string     `json:"id"`
	ClientNumber      string     `json:"clientNumber"`
	ClientName        string     `json:"clientName"`
	Month             time.Time  `json:"month"`
	AdjustedSalarySum float64    `json:"adjustedSalarySum"`
	EtmamCostSum      float64    `json:"etmamCostSum"`
	VATSum            float64    `json:"vatSum"`
	GrandTotal        float64    `json:"grandTotal"`
	EmployeeCount     int        `json:"employeeCount"`
	WorkingDaysSum    float64    `json:"workingDaysSum"`
	Status            string     `json:"status"`
	ApprovedBy        string     `json:"approvedBy,omitempty"`
	ApprovedAt        *time.Time `json:"approvedAt,omitempty"`
	RevisionReason    string     `json:"revisionReason,omitempty"`
	GeneratedBy       string     `json:"generatedBy"`
	EditedBy          string     `json:"editedBy"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

// UploadRow is one parsed spreadsheet row before employee matching.
type UploadRow struct {
	RowNumber int
	Iqama     string
	Adjustments
}

type UploadResult struct {
	ClientNumber string    `json:"clientNumber"`
	Month        time.Time `json:"month"`
	RowCount     int       `json:"rowCount"`
	Summary      Summary   `json:"summary"`
}

type SummaryFilter struct {
	ClientNumber string
	Month        *time.Time
	Status       string
}

// MonthOf normalizes a (year, month) pair to the canonical month key.
func MonthOf(year, month int) time.Time {
	return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
}
