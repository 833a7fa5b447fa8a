package employee

import "math"

// AllowanceAmount resolves an allowance against the basic salary. Percentage
// allowances are expressed as a percentage of basic, fixed ones as a flat sum.
func AllowanceAmount(basic float64, allowance Allowance) float64 {
	switch allowance.Type {
	case AllowancePercentage:
		return basic * allowance.Value / 100
	default:
		return allowance.Value
	}
}

// TotalSalary derives the monthly total from basic plus all allowances.
// Recomputed server side on every create and update; never trusted from input.
func TotalSalary(e Employee) float64 {
	total := e.BasicSalary +
		AllowanceAmount(e.BasicSalary, e.Housing) +
		AllowanceAmount(e.BasicSalary, e.Transport) +
		AllowanceAmount(e.BasicSalary, e.Food) +
		e.OtherAllowance
	return round2(total)
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}
