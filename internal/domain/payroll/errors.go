package payroll

import "errors"

var (
	ErrNotFound  = errors.New("payroll record not found")
	ErrForbidden = errors.New("forbidden")
	ErrDuplicate = errors.New("payroll record already exists for this month")
	ErrNoSalary  = errors.New("employee not found")
)
