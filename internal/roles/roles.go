package roles

import (
	"fmt"
	"strings"
)

// Role is the closed set of account roles. Anything outside this set is
// rejected at parse time; there is no free-form role string in the system.
type Role string

// Role constants define every recognized role.
const (
	// RoleEmpresa is the owning account of a subscribing company.
	RoleEmpresa Role = "empresa"
	// RoleAsesor is an advisor account bound to an empresa.
	RoleAsesor Role = "asesor"
	// RoleSoporte is a read-only internal support account.
	RoleSoporte Role = "soporte"
	// RoleSuperAdmin is an internal administrator account.
	RoleSuperAdmin Role = "super_admin"
	// RoleSuperAdminRoot is the bootstrap internal administrator account.
	RoleSuperAdminRoot Role = "super_admin_root"
)

// Parse validates a role string against the closed set.
func Parse(raw string) (Role, error) {
	role := Role(strings.TrimSpace(strings.ToLower(raw)))
	switch role {
	case RoleEmpresa, RoleAsesor, RoleSoporte, RoleSuperAdmin, RoleSuperAdminRoot:
		return role, nil
	default:
		return "", fmt.Errorf("roles: unknown role %q", raw)
	}
}

// Valid reports whether the role belongs to the closed set.
func (r Role) Valid() bool {
	_, err := Parse(string(r))
	return err == nil
}

// Internal reports whether the role belongs to back-office staff.
func (r Role) Internal() bool {
	switch r {
	case RoleSoporte, RoleSuperAdmin, RoleSuperAdminRoot:
		return true
	default:
		return false
	}
}

// Tenant reports whether the role belongs to a subscribing company.
func (r Role) Tenant() bool {
	switch r {
	case RoleEmpresa, RoleAsesor:
		return true
	default:
		return false
	}
}

// CanWriteAdmin reports whether the role may perform admin mutations.
// Soporte accounts get the admin surface read-only.
func (r Role) CanWriteAdmin() bool {
	return r == RoleSuperAdmin || r == RoleSuperAdminRoot
}

// CanManageAdmins reports whether the role may create or modify internal
// accounts. Only the root administrator can.
func (r Role) CanManageAdmins() bool {
	return r == RoleSuperAdminRoot
}

// Actor is an authenticated principal: its role plus the empresa binding
// tenant accounts carry. Internal accounts have no binding.
type Actor struct {
	UserID    uint64  // Authenticated user.
	Role      Role    // Parsed role.
	EmpresaID *uint64 // Tenant binding; nil for internal accounts.
}

// CanActOnTenant reports whether the actor may touch resources of the given
// empresa. Internal roles reach every tenant; tenant roles only their own.
func (a Actor) CanActOnTenant(empresaID uint64) bool {
	if !a.Role.Valid() {
		return false
	}
	if a.Role.Internal() {
		return true
	}
	return a.EmpresaID != nil && *a.EmpresaID == empresaID
}
