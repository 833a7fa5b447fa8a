package timesheet

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// BuildSummaryPDF renders a one-page statement for the monthly summary.
func BuildSummaryPDF(summary Summary) (*bytes.Buffer, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Monthly Timesheet Summary")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Client: %s (%s)", summary.ClientName, summary.ClientNumber))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Month: %s", summary.Month.Format("January 2006")))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Status: %s", summary.Status))
	pdf.Ln(10)

	pdf.Cell(0, 8, fmt.Sprintf("Employees: %d", summary.EmployeeCount))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Working Days: %.0f", summary.WorkingDaysSum))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Adjusted Salary Total: %.2f", summary.AdjustedSalarySum))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Etmam Cost Total: %.2f", summary.EtmamCostSum))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("VAT Total: %.2f", summary.VATSum))
	pdf.Ln(7)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Grand Total: %.2f", summary.GrandTotal))

	if summary.ApprovedBy != "" && summary.ApprovedAt != nil {
		pdf.Ln(12)
		pdf.SetFont("Helvetica", "I", 10)
		pdf.Cell(0, 8, fmt.Sprintf("Approved by %s on %s", summary.ApprovedBy, summary.ApprovedAt.Format("2006-01-02")))
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return &buf, nil
}
