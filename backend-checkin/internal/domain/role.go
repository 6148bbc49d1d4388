package domain

import "strings"

// Role is the operator's privilege level at the gate
type Role string

const (
	RoleOperator Role = "operator"
	RoleAdmin    Role = "admin"
)

// ParseRole maps a token role claim to a Role. Unknown values become
// RoleOperator, the least privileged role.
func ParseRole(s string) Role {
	if Role(strings.ToLower(strings.TrimSpace(s))) == RoleAdmin {
		return RoleAdmin
	}
	return RoleOperator
}

// CanRevertCheckIn is the single privilege gate for undoing an admission
func (r Role) CanRevertCheckIn() bool {
	return r == RoleAdmin
}
