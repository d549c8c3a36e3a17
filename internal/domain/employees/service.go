package employees

import (
	"context"
	"fmt"
	"strings"
	"time"

	"dayflow/internal/domain/auth"
	cryptoutil "dayflow/internal/platform/crypto"
	"dayflow/internal/platform/validate"
)

type Service struct {
	store           StoreAPI
	crypto          *cryptoutil.Service
	corporateDomain string
	allowSignup     bool
	Now             func() time.Time
}

func NewService(store StoreAPI, crypto *cryptoutil.Service, corporateDomain string, allowSignup bool) *Service {
	return &Service{
		store:           store,
		crypto:          crypto,
		corporateDomain: corporateDomain,
		allowSignup:     allowSignup,
		Now:             time.Now,
	}
}

// Signup registers a new EMPLOYEE. When no e-mail is supplied the
// corporate address is derived from name and employee id.
func (s *Service) Signup(ctx context.Context, in SignupInput) (Employee, error) {
	if !s.allowSignup {
		return Employee{}, ErrSignupClosed
	}
	return s.create(ctx, in, auth.RoleEmployee, time.Time{}, 0)
}

func (s *Service) Create(ctx context.Context, actor auth.UserContext, in CreateInput) (Employee, error) {
	if !actor.IsAdmin() {
		return Employee{}, ErrForbidden
	}
	if err := validate.Struct(in); err != nil {
		return Employee{}, err
	}
	role := in.Role
	if role == "" {
		role = auth.RoleEmployee
	}
	var joining time.Time
	if in.JoiningDate != "" {
		parsed, err := time.Parse(time.DateOnly, in.JoiningDate)
		if err != nil {
			return Employee{}, validate.Field("joiningDate", "must be a valid date in YYYY-MM-DD format")
		}
		joining = parsed
	}
	return s.create(ctx, in.SignupInput, role, joining, in.SalaryBase)
}

func (s *Service) create(ctx context.Context, in SignupInput, role string, joining time.Time, salary float64) (Employee, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.EmployeeID = strings.TrimSpace(in.EmployeeID)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validate.Struct(in); err != nil {
		return Employee{}, err
	}
	if in.Email == "" {
		in.Email = CorporateEmail(in.Name, in.EmployeeID, s.corporateDomain)
	}
	if !CorporateEmailPattern(s.corporateDomain).MatchString(in.Email) {
		return Employee{}, validate.Field("email", fmt.Sprintf("must follow name.id@%s", s.corporateDomain))
	}
	if joining.IsZero() {
		now := s.Now()
		joining = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return Employee{}, err
	}
	row, err := s.store.Insert(ctx, NewUser{
		EmployeeID:  in.EmployeeID,
		Email:       in.Email,
		Role:        role,
		Name:        in.Name,
		Phone:       in.Phone,
		Department:  in.Department,
		Position:    in.Position,
		JoiningDate: joining,
		SalaryBase:  salary,
	}, hash)
	if err != nil {
		return Employee{}, err
	}
	return s.toEmployee(row)
}

// Get returns a full profile. Employees may only open their own.
func (s *Service) Get(ctx context.Context, actor auth.UserContext, id string) (Employee, error) {
	if !actor.IsAdmin() && actor.UserID != id {
		return Employee{}, ErrForbidden
	}
	row, err := s.store.Get(ctx, id)
	if err != nil {
		return Employee{}, err
	}
	return s.toEmployee(row)
}

// Lookup returns the stored profile without any access check. Other
// services use it to resolve names and salaries.
func (s *Service) Lookup(ctx context.Context, id string) (Employee, error) {
	row, err := s.store.Get(ctx, id)
	if err != nil {
		return Employee{}, err
	}
	return s.toEmployee(row)
}

// List is the directory. Non-admins see everyone's public profile and only
// their own compensation data.
func (s *Service) List(ctx context.Context, actor auth.UserContext, filter ListFilter, limit, offset int) ([]Employee, int, error) {
	rows, err := s.store.List(ctx, filter, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.store.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	out := make([]Employee, 0, len(rows))
	for _, row := range rows {
		emp, err := s.toEmployee(row)
		if err != nil {
			return nil, 0, err
		}
		if !actor.IsAdmin() && actor.UserID != emp.ID {
			emp.Redact()
		}
		out = append(out, emp)
	}
	return out, total, nil
}

func (s *Service) Update(ctx context.Context, actor auth.UserContext, id string, in UpdateInput) (before, after Employee, err error) {
	if !actor.IsAdmin() && (actor.UserID != id || in.adminOnly()) {
		return Employee{}, Employee{}, ErrForbidden
	}
	if err := validate.Struct(in); err != nil {
		return Employee{}, Employee{}, err
	}
	current, err := s.store.Get(ctx, id)
	if err != nil {
		return Employee{}, Employee{}, err
	}
	before, err = s.toEmployee(current)
	if err != nil {
		return Employee{}, Employee{}, err
	}

	patch := Patch{
		Name:             trimmed(in.Name),
		Phone:            trimmed(in.Phone),
		Address:          trimmed(in.Address),
		ProfilePic:       trimmed(in.ProfilePic),
		EmergencyContact: trimmed(in.EmergencyContact),
		Department:       trimmed(in.Department),
		Position:         trimmed(in.Position),
		SalaryBase:       in.SalaryBase,
		BankName:         trimmed(in.BankName),
		ReportingManager: trimmed(in.ReportingManager),
		OfficeLocation:   trimmed(in.OfficeLocation),
		Role:             in.Role,
	}
	if in.JoiningDate != nil {
		parsed, err := time.Parse(time.DateOnly, *in.JoiningDate)
		if err != nil {
			return Employee{}, Employee{}, validate.Field("joiningDate", "must be a valid date in YYYY-MM-DD format")
		}
		patch.JoiningDate = &parsed
	}
	if in.AccountNumber != nil {
		sealed, err := s.crypto.EncryptString(strings.TrimSpace(*in.AccountNumber))
		if err != nil {
			return Employee{}, Employee{}, fmt.Errorf("encrypt account number: %w", err)
		}
		patch.AccountNumberEnc = sealed
	}

	row, err := s.store.Update(ctx, id, patch)
	if err != nil {
		return Employee{}, Employee{}, err
	}
	after, err = s.toEmployee(row)
	return before, after, err
}

// SetStatus moves an employee between ACTIVE, ON_LEAVE and TERMINATED.
// Users are never deleted.
func (s *Service) SetStatus(ctx context.Context, actor auth.UserContext, id, status string) (Employee, error) {
	if !actor.IsAdmin() {
		return Employee{}, ErrForbidden
	}
	status = strings.ToUpper(strings.TrimSpace(status))
	if !validStatus(status) {
		return Employee{}, validate.Field("status", "must be one of: ACTIVE, ON_LEAVE, TERMINATED")
	}
	if status == StatusTerminated && actor.UserID == id {
		return Employee{}, validate.Field("status", "admins cannot terminate their own account")
	}
	row, err := s.store.SetStatus(ctx, id, status)
	if err != nil {
		return Employee{}, err
	}
	return s.toEmployee(row)
}

func (s *Service) toEmployee(row Row) (Employee, error) {
	emp := row.Employee
	salary := row.Salary
	emp.SalaryBase = &salary
	if row.Bank != "" {
		bank := row.Bank
		emp.BankName = &bank
	}
	if len(row.AccountNumberEnc) > 0 {
		account, err := s.crypto.DecryptString(row.AccountNumberEnc)
		if err != nil {
			return Employee{}, fmt.Errorf("decrypt account number: %w", err)
		}
		emp.AccountNumber = &account
	}
	return emp, nil
}

func validStatus(status string) bool {
	for _, candidate := range Statuses {
		if candidate == status {
			return true
		}
	}
	return false
}

func trimmed(value *string) *string {
	if value == nil {
		return nil
	}
	out := strings.TrimSpace(*value)
	return &out
}
