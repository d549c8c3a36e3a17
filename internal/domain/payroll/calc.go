package payroll

import "math"

// ComputeNetPay returns base + bonus - deductions rounded to cents.
func ComputeNetPay(base, bonus, deductions float64) float64 {
	return math.Round((base+bonus-deductions)*100) / 100
}
