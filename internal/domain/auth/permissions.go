package auth

import "context"

const (
	RoleAdmin          = "admin"
	RolePayrollManager = "payroll_manager"
	RoleViewer         = "viewer"
)

const (
	PermPayrollRead     = "payroll.read"
	PermPayrollWrite    = "payroll.write"
	PermPayrollRun      = "payroll.run"
	PermPayrollSettings = "payroll.settings"
)

var DefaultPermissions = []string{
	PermPayrollRead,
	PermPayrollWrite,
	PermPayrollRun,
	PermPayrollSettings,
}

var RolePermissions = map[string][]string{
	RoleViewer: {
		PermPayrollRead,
	},
	RolePayrollManager: {
		PermPayrollRead,
		PermPayrollWrite,
		PermPayrollRun,
	},
	RoleAdmin: {
		PermPayrollRead,
		PermPayrollWrite,
		PermPayrollRun,
		PermPayrollSettings,
	},
}

// StaticPermissions answers permission checks from RolePermissions.
type StaticPermissions struct{}

func (StaticPermissions) HasPermission(_ context.Context, role, permission string) (bool, error) {
	for _, perm := range RolePermissions[role] {
		if perm == permission {
			return true, nil
		}
	}
	return false, nil
}
