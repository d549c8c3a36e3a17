package employees

import "time"

const (
	StatusActive     = "ACTIVE"
	StatusOnLeave    = "ON_LEAVE"
	StatusTerminated = "TERMINATED"
)

var Statuses = []string{StatusActive, StatusOnLeave, StatusTerminated}

type Employee struct {
	ID               string     `json:"id"`
	EmployeeID       string     `json:"employeeId"`
	Email            string     `json:"email"`
	Role             string     `json:"role"`
	Status           string     `json:"status"`
	Name             string     `json:"name"`
	Phone            string     `json:"phone"`
	Address          string     `json:"address"`
	ProfilePic       string     `json:"profilePic"`
	Department       string     `json:"department"`
	Position         string     `json:"position"`
	JoiningDate      *time.Time `json:"joiningDate"`
	SalaryBase       *float64   `json:"salaryBase,omitempty"`
	BankName         *string    `json:"bankName,omitempty"`
	AccountNumber    *string    `json:"accountNumber,omitempty"`
	EmergencyContact string     `json:"emergencyContact"`
	ReportingManager string     `json:"reportingManager"`
	OfficeLocation   string     `json:"officeLocation"`
	MFAEnabled       bool       `json:"mfaEnabled"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// Redact strips compensation and banking data.
func (e *Employee) Redact() {
	e.SalaryBase = nil
	e.BankName = nil
	e.AccountNumber = nil
}

// Row is an employee as stored, with the account number still sealed.
type Row struct {
	Employee
	Salary           float64
	Bank             string
	AccountNumberEnc []byte
}

type SignupInput struct {
	Name       string `json:"name" validate:"required,max=120"`
	EmployeeID string `json:"employeeId" validate:"required,max=32"`
	Email      string `json:"email" validate:"omitempty,email"`
	Password   string `json:"password" validate:"required,min=8,max=72"`
	Phone      string `json:"phone" validate:"max=32"`
	Department string `json:"department" validate:"max=120"`
	Position   string `json:"position" validate:"max=120"`
}

type CreateInput struct {
	SignupInput
	Role        string  `json:"role" validate:"omitempty,oneof=ADMIN EMPLOYEE"`
	JoiningDate string  `json:"joiningDate" validate:"omitempty,datetime=2006-01-02"`
	SalaryBase  float64 `json:"salaryBase" validate:"gte=0"`
}

// UpdateInput is a partial patch; nil fields are left unchanged.
type UpdateInput struct {
	Name             *string  `json:"name" validate:"omitempty,min=1,max=120"`
	Phone            *string  `json:"phone" validate:"omitempty,max=32"`
	Address          *string  `json:"address" validate:"omitempty,max=255"`
	ProfilePic       *string  `json:"profilePic" validate:"omitempty,max=2048"`
	EmergencyContact *string  `json:"emergencyContact" validate:"omitempty,max=255"`
	Department       *string  `json:"department" validate:"omitempty,max=120"`
	Position         *string  `json:"position" validate:"omitempty,max=120"`
	JoiningDate      *string  `json:"joiningDate" validate:"omitempty,datetime=2006-01-02"`
	SalaryBase       *float64 `json:"salaryBase" validate:"omitempty,gte=0"`
	BankName         *string  `json:"bankName" validate:"omitempty,max=120"`
	AccountNumber    *string  `json:"accountNumber" validate:"omitempty,max=64"`
	ReportingManager *string  `json:"reportingManager" validate:"omitempty,max=120"`
	OfficeLocation   *string  `json:"officeLocation" validate:"omitempty,max=120"`
	Role             *string  `json:"role" validate:"omitempty,oneof=ADMIN EMPLOYEE"`
}

// adminOnly reports whether the patch touches fields employees cannot edit
// on their own profile.
func (u UpdateInput) adminOnly() bool {
	return u.Name != nil || u.Department != nil || u.Position != nil || u.JoiningDate != nil ||
		u.SalaryBase != nil || u.BankName != nil || u.AccountNumber != nil ||
		u.ReportingManager != nil || u.OfficeLocation != nil || u.Role != nil
}

type NewUser struct {
	EmployeeID  string
	Email       string
	Password    string
	Role        string
	Name        string
	Phone       string
	Department  string
	Position    string
	JoiningDate time.Time
	SalaryBase  float64
}

type Patch struct {
	Name             *string
	Phone            *string
	Address          *string
	ProfilePic       *string
	EmergencyContact *string
	Department       *string
	Position         *string
	JoiningDate      *time.Time
	SalaryBase       *float64
	BankName         *string
	AccountNumberEnc []byte
	ReportingManager *string
	OfficeLocation   *string
	Role             *string
}
