// internal/domain/models/roles.go
package models

import "strings"

// Roles stored on users and invitations.
const (
	RoleSuperAdmin   = "super_admin"
	RoleCompanyAdmin = "company_admin"
	RoleHRManager    = "hr_manager"
	RoleEmployee     = "employee"
)

// AllRoles lists every valid role, most privileged first.
var AllRoles = []string{RoleSuperAdmin, RoleCompanyAdmin, RoleHRManager, RoleEmployee}

// IsValidRole reports whether value names a known role.
func IsValidRole(value string) bool {
	for _, r := range AllRoles {
		if r == value {
			return true
		}
	}
	return false
}

// NormalizeRole trims and lowercases a role string. It does not validate.
func NormalizeRole(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
