package domain

import "strings"

// Role is a coarse-grained permission tag used for route-level access control.
type Role string

const (
	RoleAdmin             Role = "ADMIN"
	RoleFreelancer        Role = "FREELANCER"
	RoleFreelancerPremium Role = "FREELANCER_PREMIUM"
	RoleLegalAnalyst      Role = "LEGAL_ANALYST"
)

// DefaultRole is granted to subjects whose upstream record carries no role list.
const DefaultRole = RoleFreelancer

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleFreelancer, RoleFreelancerPremium, RoleLegalAnalyst:
		return true
	}
	return false
}

// JoinRoles renders roles as a comma separated list.
func JoinRoles(roles []Role) string {
	parts := make([]string, len(roles))
	for i, r := range roles {
		parts[i] = string(r)
	}
	return strings.Join(parts, ", ")
}

// Identity is the request-scoped authenticated caller.
type Identity struct {
	SubjectID   int64
	SubjectName string
	Roles       []Role
}

// HasAnyRole reports whether the identity holds at least one of roles.
func (i Identity) HasAnyRole(roles ...Role) bool {
	for _, want := range roles {
		for _, have := range i.Roles {
			if want == have {
				return true
			}
		}
	}
	return false
}
