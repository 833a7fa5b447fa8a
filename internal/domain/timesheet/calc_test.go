package timesheet

import "testing"

func TestComputeBaselineMonth(t *testing.T) {
	// Full month, no adjustments: adjusted salary equals total salary and the
	// service fee plus VAT carries straight through.
	got := Compute(3000, 3500, Adjustments{
		WorkingDays: 30,
		EtmamCost:   1000,
	})

	if got.OvertimePay != 0 {
		t.Fatalf("expected overtime pay 0, got %v", got.OvertimePay)
	}
	if got.Deductions != 0 {
		t.Fatalf("expected deductions 0, got %v", got.Deductions)
	}
	if got.AdjustedSalary != 3500 {
		t.Fatalf("expected adjusted salary 3500, got %v", got.AdjustedSalary)
	}
	if got.TotalCost != 4500 {
		t.Fatalf("expected total cost 4500, got %v", got.TotalCost)
	}
	if got.VAT != 675 {
		t.Fatalf("expected vat 675, got %v", got.VAT)
	}
	if got.NetCost != 5175 {
		t.Fatalf("expected net cost 5175, got %v", got.NetCost)
	}
}

func TestComputeOvertime(t *testing.T) {
	got := Compute(2400, 3000, Adjustments{
		WorkingDays:   30,
		OvertimeHours: 10,
		EtmamCost:     1000,
	})

	// 2400 * 1.5 / 240 * 10 = 150
	if got.OvertimePay != 150 {
		t.Fatalf("expected overtime pay 150, got %v", got.OvertimePay)
	}
	if got.AdjustedSalary != 3150 {
		t.Fatalf("expected adjusted salary 3150, got %v", got.AdjustedSalary)
	}
	if got.TotalCost != 4150 {
		t.Fatalf("expected total cost 4150, got %v", got.TotalCost)
	}
}

func TestComputeAbsenceDeduction(t *testing.T) {
	got := Compute(3000, 3600, Adjustments{
		WorkingDays: 30,
		AbsentHours: 24,
		EtmamCost:   1000,
	})

	// 3600 * 24 / 240 = 360
	if got.Deductions != 360 {
		t.Fatalf("expected deductions 360, got %v", got.Deductions)
	}
	if got.AdjustedSalary != 3240 {
		t.Fatalf("expected adjusted salary 3240, got %v", got.AdjustedSalary)
	}
}

func TestComputeProratedWorkingDays(t *testing.T) {
	got := Compute(3000, 3000, Adjustments{
		WorkingDays: 15,
		EtmamCost:   1000,
	})
	if got.AdjustedSalary != 1500 {
		t.Fatalf("expected half-month proration 1500, got %v", got.AdjustedSalary)
	}
	if got.TotalCost != 2500 {
		t.Fatalf("expected total cost 2500, got %v", got.TotalCost)
	}
}

func TestComputeIncentiveAndPenalty(t *testing.T) {
	got := Compute(3000, 3500, Adjustments{
		WorkingDays: 30,
		Incentive:   250,
		Penalty:     100,
		EtmamCost:   1000,
	})
	if got.AdjustedSalary != 3650 {
		t.Fatalf("expected adjusted salary 3650, got %v", got.AdjustedSalary)
	}
}

func TestComputeRoundsToTwoDecimals(t *testing.T) {
	got := Compute(3333, 3333, Adjustments{
		WorkingDays:   29,
		OvertimeHours: 7,
		AbsentHours:   5,
		EtmamCost:     1000,
	})

	// overtime: 3333*1.5/240*7 = 145.81875 -> 145.82
	if got.OvertimePay != 145.82 {
		t.Fatalf("expected overtime pay 145.82, got %v", got.OvertimePay)
	}
	// deductions: 3333*5/240 = 69.4375 -> 69.44
	if got.Deductions != 69.44 {
		t.Fatalf("expected deductions 69.44, got %v", got.Deductions)
	}
	// adjusted: 3333*29/30 - 69.4375 + 145.81875 = 3298.28125 -> 3298.28
	if got.AdjustedSalary != 3298.28 {
		t.Fatalf("expected adjusted salary 3298.28, got %v", got.AdjustedSalary)
	}
	// total: 1000 + 3298.28125 = 4298.28125 -> 4298.28; vat 644.7421875 -> 644.74
	if got.TotalCost != 4298.28 {
		t.Fatalf("expected total cost 4298.28, got %v", got.TotalCost)
	}
	if got.VAT != 644.74 {
		t.Fatalf("expected vat 644.74, got %v", got.VAT)
	}
	// net: 4298.28125 * 1.15 = 4943.0234375 -> 4943.02
	if got.NetCost != 4943.02 {
		t.Fatalf("expected net cost 4943.02, got %v", got.NetCost)
	}
}

func TestSummaryGrandTotalMatchesVATOnCostSum(t *testing.T) {
	first := Compute(3000, 3500, Adjustments{WorkingDays: 30, EtmamCost: 1000})
	second := Compute(2400, 3000, Adjustments{WorkingDays: 30, EtmamCost: 1000})

	costSum := first.TotalCost + second.TotalCost
	grand := round2(costSum * (1 + VATRate))
	if grand != round2(first.NetCost+second.NetCost) {
		t.Fatalf("expected grand total %v to equal summed net costs %v", grand, first.NetCost+second.NetCost)
	}
}
