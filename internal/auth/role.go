// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Custos Contributors

package auth

import "github.com/samber/oops"

// Role is the authorization level attached to a principal.
// Every principal carries exactly one role; there is no hierarchy or
// inheritance between roles.
type Role string

// The closed set of roles.
const (
	RoleUser        Role = "USER"
	RolePowerUser   Role = "POWER_USER"
	RoleSupportDesk Role = "SUPPORT_DESK"
	RoleAdmin       Role = "ADMIN"
	RoleSuperAdmin  Role = "SUPER_ADMIN"
)

// allRoles lists every member of the closed enumeration.
var allRoles = []Role{RoleUser, RolePowerUser, RoleSupportDesk, RoleAdmin, RoleSuperAdmin}

// Valid reports whether r is a member of the closed role set.
func (r Role) Valid() bool {
	for _, known := range allRoles {
		if r == known {
			return true
		}
	}
	return false
}

// String returns the stored representation of the role.
func (r Role) String() string {
	return string(r)
}

// ParseRole converts a stored or client-supplied string into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", oops.Code("AUTH_INVALID_ROLE").
			With("role", s).
			Errorf("unknown role %q", s)
	}
	return r, nil
}
