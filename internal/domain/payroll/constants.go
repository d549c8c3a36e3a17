package payroll

const (
	StatusPaid   = "PAID"
	StatusUnpaid = "UNPAID"
)

var monthNames = [...]string{"January", "February", "March", "April", "May", "June", "July", "August", "September", "October", "November", "December"}

// MonthName returns the English month name for 1..12.
func MonthName(month int) string {
	if month < 1 || month > 12 {
		return ""
	}
	return monthNames[month-1]
}
