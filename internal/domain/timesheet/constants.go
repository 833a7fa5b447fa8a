package timesheet

const (
	StatusDraft            = "draft"
	StatusPending          = "pending"
	StatusApproved         = "approved"
	StatusRevisionRequired = "revision_required"

	ActionSubmit          = "submit"
	ActionApprove         = "approve"
	ActionRequestRevision = "request_revision"
	ActionResubmit        = "resubmit"
)

const (
	// Defaults applied to absent or unparseable spreadsheet cells.
	DefaultWorkingDays = 30
	DefaultEtmamCost   = 1000

	// Payroll bases: 1.5x overtime over a 240-hour monthly baseline, absence
	// deducted against 30 days of 8 hours, flat 15% VAT.
	OvertimeMultiplier = 1.5
	OvertimeBaseHours  = 240
	DeductionBaseHours = 30 * 8
	VATRate            = 0.15

	upsertBatchSize = 50
)
