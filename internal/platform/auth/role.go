package auth

import "fmt"

// Role is the closed set of staff and patient roles known to the system.
// Keeping it a distinct type prevents arbitrary strings from reaching the
// authorization checks.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleDoctor     Role = "doctor"
	RoleNurse      Role = "nurse"
	RolePharmacist Role = "pharmacist"
	RolePatient    Role = "patient"
)

// ParseRole validates a role string against the known set.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin, RoleDoctor, RoleNurse, RolePharmacist, RolePatient:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// ParseRoles validates a list of role strings, skipping unknown values.
func ParseRoles(ss []string) []Role {
	roles := make([]Role, 0, len(ss))
	for _, s := range ss {
		if r, err := ParseRole(s); err == nil {
			roles = append(roles, r)
		}
	}
	return roles
}

func (r Role) String() string { return string(r) }
