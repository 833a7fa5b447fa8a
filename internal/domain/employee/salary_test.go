package employee

import "testing"

func TestTotalSalaryFixedAllowances(t *testing.T) {
	emp := Employee{
		BasicSalary:    3000,
		Housing:        Allowance{Type: AllowanceFixed, Value: 300},
		Transport:      Allowance{Type: AllowanceFixed, Value: 150},
		Food:           Allowance{Type: AllowanceFixed, Value: 50},
		OtherAllowance: 0,
	}
	if got := TotalSalary(emp); got != 3500 {
		t.Fatalf("expected total 3500, got %v", got)
	}
}

func TestTotalSalaryPercentageAllowances(t *testing.T) {
	emp := Employee{
		BasicSalary: 4000,
		Housing:     Allowance{Type: AllowancePercentage, Value: 25},
		Transport:   Allowance{Type: AllowancePercentage, Value: 10},
	}
	// 4000 + 1000 + 400
	if got := TotalSalary(emp); got != 5400 {
		t.Fatalf("expected total 5400, got %v", got)
	}
}

func TestTotalSalaryMixedAndRounded(t *testing.T) {
	emp := Employee{
		BasicSalary:    3333.33,
		Housing:        Allowance{Type: AllowancePercentage, Value: 25},
		Transport:      Allowance{Type: AllowanceFixed, Value: 200.005},
		OtherAllowance: 10,
	}
	// 3333.33 + 833.3325 + 200.005 + 10 = 4376.6675 -> 4376.67
	if got := TotalSalary(emp); got != 4376.67 {
		t.Fatalf("expected total 4376.67, got %v", got)
	}
}

func TestAllowanceAmountDefaultsToFixed(t *testing.T) {
	if got := AllowanceAmount(1000, Allowance{Value: 75}); got != 75 {
		t.Fatalf("expected untyped allowance treated as fixed, got %v", got)
	}
}
