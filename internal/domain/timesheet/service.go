package timesheet

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"etmam/internal/domain/employee"
)

// EmployeeDirectory resolves spreadsheet rows to employee records.
type EmployeeDirectory interface {
	GetByIqama(ctx context.Context, iqama string) (employee.Employee, error)
}

// GeneratedSaver persists a computed batch plus its summary atomically.
type GeneratedSaver interface {
	SaveGenerated(ctx context.Context, clientNumber, clientName string, month time.Time, rows []DetailRow, actorEmail string) (Summary, error)
}

type Service struct {
	store     GeneratedSaver
	employees EmployeeDirectory
}

func NewService(store GeneratedSaver, employees EmployeeDirectory) *Service {
	return &Service{store: store, employees: employees}
}

// Ingest runs the upload pipeline: parse the workbook, match every row to an
// employee of the requested client, compute the payroll fields and upsert the
// month. All-or-nothing: any row error rejects the batch before anything is
// written.
func (s *Service) Ingest(ctx context.Context, actorEmail, clientNumber string, year, month int, file io.Reader) (UploadResult, error) {
	rows, err := ParseAdjustmentSheet(file)
	if err != nil {
		return UploadResult{}, err
	}

	monthKey := MonthOf(year, month)
	clientName := ""
	details := make([]DetailRow, 0, len(rows))
	var rowErrors []RowError

	for _, row := range rows {
		if row.Iqama == "" {
			rowErrors = append(rowErrors, RowError{Row: row.RowNumber, Reason: "missing iqama number"})
			continue
		}

		emp, err := s.employees.GetByIqama(ctx, row.Iqama)
		if errors.Is(err, employee.ErrNotFound) {
			rowErrors = append(rowErrors, RowError{Row: row.RowNumber, Iqama: row.Iqama, Reason: "employee not found"})
			continue
		}
		if err != nil {
			return UploadResult{}, err
		}
		if emp.ClientNumber != clientNumber {
			rowErrors = append(rowErrors, RowError{
				Row:    row.RowNumber,
				Iqama:  row.Iqama,
				Reason: fmt.Sprintf("employee belongs to client %s, not %s", emp.ClientNumber, clientNumber),
			})
			continue
		}

		if clientName == "" {
			clientName = emp.ClientName
		}

		details = append(details, DetailRow{
			IqamaNumber:  emp.IqamaNumber,
			EmployeeName: emp.Name,
			ClientNumber: clientNumber,
			Month:        monthKey,
			BasicSalary:  emp.BasicSalary,
			TotalSalary:  emp.TotalSalary,
			Adjustments:  row.Adjustments,
			Computed:     Compute(emp.BasicSalary, emp.TotalSalary, row.Adjustments),
		})
	}

	if len(rowErrors) > 0 {
		return UploadResult{}, &BatchError{Rows: rowErrors}
	}

	summary, err := s.store.SaveGenerated(ctx, clientNumber, clientName, monthKey, details, actorEmail)
	if err != nil {
		return UploadResult{}, err
	}

	return UploadResult{
		ClientNumber: clientNumber,
		Month:        monthKey,
		RowCount:     len(details),
		Summary:      summary,
	}, nil
}
