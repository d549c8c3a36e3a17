package payroll

import "time"

type Record struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	UserName    string    `json:"userName,omitempty"`
	EmployeeID  string    `json:"employeeId,omitempty"`
	Month       int       `json:"month"`
	Year        int       `json:"year"`
	BaseSalary  float64   `json:"baseSalary"`
	Bonus       float64   `json:"bonus"`
	Deductions  float64   `json:"deductions"`
	NetPay      float64   `json:"netPay"`
	Status      string    `json:"status"`
	GeneratedAt time.Time `json:"generatedAt"`
}

// CreateInput is an admin payroll run for one employee. BaseSalary is
// optional; when nil the employee's salaryBase is used.
type CreateInput struct {
	UserID     string   `json:"userId" validate:"required,uuid"`
	Month      int      `json:"month" validate:"required,gte=1,lte=12"`
	Year       int      `json:"year" validate:"required,gte=2000,lte=2100"`
	BaseSalary *float64 `json:"baseSalary" validate:"omitempty,gte=0"`
	Bonus      float64  `json:"bonus" validate:"gte=0"`
	Deductions float64  `json:"deductions" validate:"gte=0"`
	Status     string   `json:"status" validate:"omitempty,oneof=PAID UNPAID"`
}

type Employee struct {
	Name       string
	EmployeeID string
	Department string
	Position   string
	Salary     float64
}

type ListFilter struct {
	UserID string
	Year   int
}
