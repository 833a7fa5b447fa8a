package timesheet

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

var exportHeaders = []string{
	"Iqama No.", "Employee Name", "Working Days", "Absent Hours", "Overtime Hours",
	"Incentive", "Penalty", "Etmam Cost", "Overtime Pay", "Deductions",
	"Adjusted Salary", "Total Cost", "VAT", "Net Cost",
}

// ExportFileName encodes the client and period into the attachment name.
func ExportFileName(clientNumber string, year, month int) string {
	return fmt.Sprintf("timesheet_%s_%04d_%02d.xlsx", clientNumber, year, month)
}

// BuildWorkbook renders the monthly timesheet as a styled workbook: filled
// header row, one line per employee, and a colored summary block underneath.
func BuildWorkbook(summary Summary, details []DetailRow) (*bytes.Buffer, error) {
	file := excelize.NewFile()
	sheet := file.GetSheetName(0)

	headerStyle, err := file.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"1F4E78"}},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return nil, err
	}
	summaryStyle, err := file.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"D9E1F2"}},
	})
	if err != nil {
		return nil, err
	}

	title := fmt.Sprintf("%s (%s) — %s", summary.ClientName, summary.ClientNumber, summary.Month.Format("January 2006"))
	if err := file.SetCellValue(sheet, "A1", title); err != nil {
		return nil, err
	}

	headerRow := make([]any, len(exportHeaders))
	for i, header := range exportHeaders {
		headerRow[i] = header
	}
	if err := file.SetSheetRow(sheet, "A3", &headerRow); err != nil {
		return nil, err
	}
	lastCol, err := excelize.CoordinatesToCellName(len(exportHeaders), 3)
	if err != nil {
		return nil, err
	}
	if err := file.SetCellStyle(sheet, "A3", lastCol, headerStyle); err != nil {
		return nil, err
	}

	for i, d := range details {
		row := []any{
			d.IqamaNumber, d.EmployeeName, d.WorkingDays, d.AbsentHours, d.OvertimeHours,
			d.Incentive, d.Penalty, d.EtmamCost, d.OvertimePay, d.Deductions,
			d.AdjustedSalary, d.TotalCost, d.VAT, d.NetCost,
		}
		cell, err := excelize.CoordinatesToCellName(1, 4+i)
		if err != nil {
			return nil, err
		}
		if err := file.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, err
		}
	}

	summaryStart := 5 + len(details)
	lines := [][2]any{
		{"Employees", summary.EmployeeCount},
		{"Working Days", summary.WorkingDaysSum},
		{"Adjusted Salary Total", summary.AdjustedSalarySum},
		{"Etmam Cost Total", summary.EtmamCostSum},
		{"VAT Total", summary.VATSum},
		{"Grand Total", summary.GrandTotal},
		{"Status", summary.Status},
	}
	for i, line := range lines {
		labelCell, err := excelize.CoordinatesToCellName(1, summaryStart+i)
		if err != nil {
			return nil, err
		}
		valueCell, err := excelize.CoordinatesToCellName(2, summaryStart+i)
		if err != nil {
			return nil, err
		}
		if err := file.SetCellValue(sheet, labelCell, line[0]); err != nil {
			return nil, err
		}
		if err := file.SetCellValue(sheet, valueCell, line[1]); err != nil {
			return nil, err
		}
		if err := file.SetCellStyle(sheet, labelCell, valueCell, summaryStyle); err != nil {
			return nil, err
		}
	}

	if err := file.SetColWidth(sheet, "A", "B", 22); err != nil {
		return nil, err
	}
	if err := file.SetColWidth(sheet, "C", "N", 14); err != nil {
		return nil, err
	}

	return file.WriteToBuffer()
}
