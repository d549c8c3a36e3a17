package auth

import "context"

const (
	PermEmployeesRead     = "employees.read"
	PermEmployeesWrite    = "employees.write"
	PermAttendanceRead    = "attendance.read"
	PermAttendanceWrite   = "attendance.write"
	PermAttendanceManage  = "attendance.manage"
	PermLeaveRead         = "leave.read"
	PermLeaveWrite        = "leave.write"
	PermPayrollRead       = "payroll.read"
	PermPayrollWrite      = "payroll.write"
	PermDocumentsRead     = "documents.read"
	PermDocumentsWrite    = "documents.write"
	PermNotificationsRead = "notifications.read"
	PermAuditRead         = "audit.read"
)

var DefaultPermissions = []string{
	PermEmployeesRead,
	PermEmployeesWrite,
	PermAttendanceRead,
	PermAttendanceWrite,
	PermAttendanceManage,
	PermLeaveRead,
	PermLeaveWrite,
	PermPayrollRead,
	PermPayrollWrite,
	PermDocumentsRead,
	PermDocumentsWrite,
	PermNotificationsRead,
	PermAuditRead,
}

var RolePermissions = map[string][]string{
	RoleEmployee: {
		PermEmployeesRead,
		PermAttendanceRead,
		PermAttendanceWrite,
		PermLeaveRead,
		PermLeaveWrite,
		PermPayrollRead,
		PermDocumentsRead,
		PermDocumentsWrite,
		PermNotificationsRead,
	},
	RoleAdmin: DefaultPermissions,
}

// StaticPermissions resolves permissions from RolePermissions. Roles are
// fixed, so there is nothing to look up in the database.
type StaticPermissions struct{}

func (StaticPermissions) HasPermission(_ context.Context, role, permission string) (bool, error) {
	for _, perm := range RolePermissions[role] {
		if perm == permission {
			return true, nil
		}
	}
	return false, nil
}
