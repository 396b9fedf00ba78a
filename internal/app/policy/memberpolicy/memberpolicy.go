// Package memberpolicy provides authorization rules for managing company
// members.
//
// Authorization rules:
//   - HR-capable roles may list members and grant employee or hr_manager
//   - Only admin-capable roles may grant company_admin or change an admin
//   - super_admin is never granted or changed through member management
//   - Nobody changes their own role
package memberpolicy

import (
	"github.com/dalemusser/onboardhub/internal/app/system/apperr"
	"github.com/dalemusser/onboardhub/internal/app/system/authz"
	"github.com/dalemusser/onboardhub/internal/domain/models"
)

// CanList reports whether a may list the members of their company.
func CanList(a authz.Actor) bool {
	return a.HasCompany() && a.Can(authz.CapHR)
}

// CheckRoleChange returns nil when a may set target's role to newRole.
// target must already be loaded from a's company.
func CheckRoleChange(a authz.Actor, target *models.User, newRole string) error {
	if target == nil || !target.HasCompany() || *target.CompanyID != a.CompanyID {
		return apperr.NewNotFound("member not found")
	}
	if target.ID == a.UserID {
		return apperr.NewForbidden("you cannot change your own role")
	}
	newRole = models.NormalizeRole(newRole)
	if !models.IsValidRole(newRole) {
		return apperr.NewValidation("role must be one of: employee, hr_manager, company_admin")
	}
	current := models.NormalizeRole(target.Role)
	if current == models.RoleSuperAdmin {
		return apperr.NewForbidden("super admin roles cannot be changed here")
	}
	if current == models.RoleCompanyAdmin && !a.Can(authz.CapAdmin) {
		return apperr.NewForbidden("only company admins can change an admin's role")
	}
	if !authz.CanGrantRole(a.Role, newRole) {
		return apperr.NewForbidden("insufficient permissions to grant this role")
	}
	return nil
}
