package timesheet

import (
	"context"
	"errors"
	"testing"
	"time"

	"etmam/internal/domain/employee"
)

type fakeDirectory map[string]employee.Employee

func (d fakeDirectory) GetByIqama(_ context.Context, iqama string) (employee.Employee, error) {
	emp, ok := d[iqama]
	if !ok {
		return employee.Employee{}, employee.ErrNotFound
	}
	return emp, nil
}

type fakeSaver struct {
	saved  []DetailRow
	client string
	month  time.Time
	calls  int
}

func (s *fakeSaver) SaveGenerated(_ context.Context, clientNumber, _ string, month time.Time, rows []DetailRow, _ string) (Summary, error) {
	s.calls++
	s.client = clientNumber
	s.month = month
	s.saved = rows
	total := 0.0
	for _, row := range rows {
		total += row.TotalCost
	}
	return Summary{
		ClientNumber: clientNumber,
		Month:        month,
		GrandTotal:   round2(total * (1 + VATRate)),
		Status:       StatusDraft,
	}, nil
}

func directoryFixture() fakeDirectory {
	return fakeDirectory{
		"2200000001": {
			IqamaNumber:  "2200000001",
			Name:         "Ahmed Ali",
			ClientNumber: "C-100",
			ClientName:   "Acme Contracting",
			BasicSalary:  3000,
			TotalSalary:  3500,
		},
		"2200000002": {
			IqamaNumber:  "2200000002",
			Name:         "Imran Khan",
			ClientNumber: "C-200",
			ClientName:   "Other Client",
			BasicSalary:  2000,
			TotalSalary:  2400,
		},
	}
}

func TestIngestComputesAndSaves(t *testing.T) {
	buf := buildSheet(t, [][]any{
		{"Iqama No.", "Working Days", "OT Hours", "Absent Hrs", "Incentive", "Penalty", "Etmam Cost"},
		{"2200000001", 30, 0, 0, 0, 0, 1000},
	})

	saver := &fakeSaver{}
	svc := NewService(saver, directoryFixture())

	result, err := svc.Ingest(context.Background(), "ops@etmam.local", "C-100", 2026, 3, buf)
	if err != nil {
		t.Fatalf("ingest failed: %v", err)
	}
	if result.RowCount != 1 {
		t.Fatalf("expected 1 row, got %d", result.RowCount)
	}
	if saver.calls != 1 {
		t.Fatalf("expected one save call, got %d", saver.calls)
	}
	if !saver.month.Equal(MonthOf(2026, 3)) {
		t.Fatalf("expected month key 2026-03-01, got %v", saver.month)
	}

	row := saver.saved[0]
	if row.EmployeeName != "Ahmed Ali" {
		t.Fatalf("expected matched employee name, got %q", row.EmployeeName)
	}
	if row.AdjustedSalary != 3500 || row.TotalCost != 4500 || row.VAT != 675 || row.NetCost != 5175 {
		t.Fatalf("unexpected computed fields: %+v", row.Computed)
	}
}

func TestIngestRejectsUnknownEmployee(t *testing.T) {
	buf := buildSheet(t, [][]any{
		{"iqama"},
		{"9999999999"},
	})

	saver := &fakeSaver{}
	svc := NewService(saver, directoryFixture())

	_, err := svc.Ingest(context.Background(), "ops@etmam.local", "C-100", 2026, 3, buf)
	var batchErr *BatchError
	if !errors.As(err, &batchErr) {
		t.Fatalf("expected BatchError, got %v", err)
	}
	if len(batchErr.Rows) != 1 || batchErr.Rows[0].Reason != "employee not found" {
		t.Fatalf("unexpected row errors: %+v", batchErr.Rows)
	}
	if saver.calls != 0 {
		t.Fatal("expected nothing persisted when the batch has errors")
	}
}

func TestIngestRejectsClientMismatch(t *testing.T) {
	buf := buildSheet(t, [][]any{
		{"iqama"},
		{"2200000002"},
	})

	svc := NewService(&fakeSaver{}, directoryFixture())
	_, err := svc.Ingest(context.Background(), "ops@etmam.local", "C-100", 2026, 3, buf)
	var batchErr *BatchError
	if !errors.As(err, &batchErr) {
		t.Fatalf("expected BatchError, got %v", err)
	}
	if batchErr.Rows[0].Iqama != "2200000002" {
		t.Fatalf("expected mismatch error to carry the iqama, got %+v", batchErr.Rows[0])
	}
}

func TestIngestAllOrNothing(t *testing.T) {
	// One valid row plus one bad row: the valid row must not be committed.
	buf := buildSheet(t, [][]any{
		{"iqama", "working days"},
		{"2200000001", 30},
		{"9999999999", 30},
	})

	saver := &fakeSaver{}
	svc := NewService(saver, directoryFixture())
	_, err := svc.Ingest(context.Background(), "ops@etmam.local", "C-100", 2026, 3, buf)
	var batchErr *BatchError
	if !errors.As(err, &batchErr) {
		t.Fatalf("expected BatchError, got %v", err)
	}
	if saver.calls != 0 {
		t.Fatal("expected no partial commit")
	}
}

func TestIngestReportsRowNumbersForMissingIqama(t *testing.T) {
	buf := buildSheet(t, [][]any{
		{"iqama", "working days"},
		{"2200000001", 30},
		{"", 28},
	})

	svc := NewService(&fakeSaver{}, directoryFixture())
	_, err := svc.Ingest(context.Background(), "ops@etmam.local", "C-100", 2026, 3, buf)
	var batchErr *BatchError
	if !errors.As(err, &batchErr) {
		t.Fatalf("expected BatchError, got %v", err)
	}
	if batchErr.Rows[0].Row != 3 {
		t.Fatalf("expected workbook row 3 flagged, got %d", batchErr.Rows[0].Row)
	}
}

func TestIngestPropagatesParseErrors(t *testing.T) {
	buf := buildSheet(t, [][]any{
		{"name", "working days"},
		{"no iqama header", 30},
	})

	svc := NewService(&fakeSaver{}, directoryFixture())
	_, err := svc.Ingest(context.Background(), "ops@etmam.local", "C-100", 2026, 3, buf)
	if !errors.Is(err, ErrMissingIqamaColumn) {
		t.Fatalf("expected ErrMissingIqamaColumn, got %v", err)
	}
}
