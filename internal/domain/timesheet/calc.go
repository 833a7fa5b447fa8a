package timesheet

import "math"

// Compute derives the payroll figures for one employee month.
//
//	overtime_pay    = basic * 1.5 / 240 * overtime_hours
//	deductions      = total * absent_hours / (30 * 8)
//	adjusted_salary = total * working_days / 30 - deductions
//	                  + incentive - penalty + overtime_pay
//	total_cost      = etmam_cost + adjusted_salary
//	vat             = total_cost * 0.15
//	net_cost        = total_cost * 1.15
//
// Monetary outputs are rounded to 2 decimals.
func Compute(basicSalary, totalSalary float64, adj Adjustments) Computed {
	overtimePay := basicSalary * OvertimeMultiplier / OvertimeBaseHours * adj.OvertimeHours
	deductions := totalSalary * adj.AbsentHours / DeductionBaseHours
	adjusted := totalSalary*adj.WorkingDays/DefaultWorkingDays - deductions +
		adj.Incentive - adj.Penalty + overtimePay
	totalCost := adj.EtmamCost + adjusted

	return Computed{
		OvertimePay:    round2(overtimePay),
		Deductions:     round2(deductions),
		AdjustedSalary: round2(adjusted),
		TotalCost:      round2(totalCost),
		VAT:            round2(totalCost * VATRate),
		NetCost:        round2(totalCost * (1 + VATRate)),
	}
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}
