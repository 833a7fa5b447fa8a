package timesheet

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrSummaryNotFound    = errors.New("timesheet summary not found")
	ErrStateConflict      = errors.New("timesheet is not in the expected state")
	ErrMissingIqamaColumn = errors.New("sheet has no iqama number column")
	ErrEmptySheet         = errors.New("sheet has no data rows")
	ErrUnknownAction      = errors.New("unknown workflow action")
)

// RowError describes one rejected spreadsheet row. Row numbers are 1-based
// workbook positions so operators can find the offending line.
type RowError struct {
	Row    int    `json:"row"`
	Iqama  string `json:"iqama,omitempty"`
	Reason string `json:"reason"`
}

// BatchError rejects an entire upload: any bad row fails the whole batch, no
// partial commit of the valid rows.
type BatchError struct {
	Rows []RowError
}

func (e *BatchError) Error() string {
	reasons := make([]string, 0, len(e.Rows))
	for _, row := range e.Rows {
		reasons = append(reasons, fmt.Sprintf("row %d: %s", row.Row, row.Reason))
	}
	return "upload rejected: " + strings.Join(reasons, "; ")
}
