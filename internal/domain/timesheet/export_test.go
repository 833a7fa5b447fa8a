package timesheet

import (
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
)

func TestExportFileName(t *testing.T) {
	if got := ExportFileName("C-100", 2026, 3); got != "timesheet_C-100_2026_03.xlsx" {
		t.Fatalf("unexpected export file name %q", got)
	}
}

func TestBuildWorkbookRoundTrip(t *testing.T) {
	approvedAt := time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC)
	summary := Summary{
		ClientNumber:      "C-100",
		ClientName:        "Acme Contracting",
		Month:             MonthOf(2026, 3),
		AdjustedSalarySum: 3500,
		EtmamCostSum:      1000,
		VATSum:            675,
		GrandTotal:        5175,
		EmployeeCount:     1,
		WorkingDaysSum:    30,
		Status:            StatusApproved,
		ApprovedBy:        "fin@etmam.local",
		ApprovedAt:        &approvedAt,
	}
	details := []DetailRow{{
		IqamaNumber:  "2200000001",
		EmployeeName: "Ahmed Ali",
		Adjustments:  Adjustments{WorkingDays: 30, EtmamCost: 1000},
		Computed:     Compute(3000, 3500, Adjustments{WorkingDays: 30, EtmamCost: 1000}),
	}}

	buf, err := BuildWorkbook(summary, details)
	if err != nil {
		t.Fatalf("build workbook failed: %v", err)
	}

	file, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatalf("reopen workbook failed: %v", err)
	}
	defer func() { _ = file.Close() }()

	sheet := file.GetSheetName(0)
	header, err := file.GetCellValue(sheet, "A3")
	if err != nil || header != "Iqama No." {
		t.Fatalf("expected header row at A3, got %q (%v)", header, err)
	}
	name, err := file.GetCellValue(sheet, "B4")
	if err != nil || name != "Ahmed Ali" {
		t.Fatalf("expected employee name at B4, got %q (%v)", name, err)
	}
}

func TestBuildSummaryPDF(t *testing.T) {
	buf, err := BuildSummaryPDF(Summary{
		ClientNumber: "C-100",
		ClientName:   "Acme Contracting",
		Month:        MonthOf(2026, 3),
		GrandTotal:   5175,
		Status:       StatusPending,
	})
	if err != nil {
		t.Fatalf("build pdf failed: %v", err)
	}
	if buf.Len() == 0 {
		t.Fatal("expected non-empty pdf output")
	}
}
