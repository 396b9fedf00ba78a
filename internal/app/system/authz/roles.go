// internal/app/system/authz/roles.go
package authz

import "github.com/dalemusser/onboardhub/internal/domain/models"

// Capability is a privilege class checked by the role gate.
type Capability int

const (
	// CapEmployee is held by every valid role.
	CapEmployee Capability = iota
	// CapHR covers document review, invitations and policy management.
	CapHR
	// CapAdmin covers company settings and member role changes.
	CapAdmin
)

func (c Capability) String() string {
	switch c {
	case CapHR:
		return "hr"
	case CapAdmin:
		return "admin"
	default:
		return "employee"
	}
}

var capabilityRoles = map[Capability]map[string]bool{
	CapEmployee: {
		models.RoleSuperAdmin:   true,
		models.RoleCompanyAdmin: true,
		models.RoleHRManager:    true,
		models.RoleEmployee:     true,
	},
	CapHR: {
		models.RoleSuperAdmin:   true,
		models.RoleCompanyAdmin: true,
		models.RoleHRManager:    true,
	},
	CapAdmin: {
		models.RoleSuperAdmin:   true,
		models.RoleCompanyAdmin: true,
	},
}

// HasAccess reports whether role holds capability. It is total: unknown
// roles and unknown capabilities are denied.
func HasAccess(role string, capability Capability) bool {
	return capabilityRoles[capability][models.NormalizeRole(role)]
}

// HasHRAccess reports whether role may perform HR actions.
func HasHRAccess(role string) bool {
	return HasAccess(role, CapHR)
}

// HasAdminAccess reports whether role may administer its company.
func HasAdminAccess(role string) bool {
	return HasAccess(role, CapAdmin)
}

// CanGrantRole reports whether a user holding actorRole may assign target
// to someone else. super_admin is never grantable through the API, and only
// admin-capable roles may grant company_admin.
func CanGrantRole(actorRole, target string) bool {
	target = models.NormalizeRole(target)
	switch target {
	case models.RoleEmployee, models.RoleHRManager:
		return HasHRAccess(actorRole)
	case models.RoleCompanyAdmin:
		return HasAdminAccess(actorRole)
	default:
		return false
	}
}
