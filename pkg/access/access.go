// Copyright (C) 2025 NIA Insight Group (dev@niainsight.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package access maps stored role strings to capability checks.
//
// Roles are stored on the user row as one of three strings: "member",
// "admin", or "super_admin". Every authorization decision in the hub
// reduces to one of the boolean checks in this package; handlers never
// compare role strings directly.
package access

import "fmt"

// Role is a stored user role.
type Role string

const (
	RoleMember     Role = "member"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

// ParseRole validates a stored role string.
//
// Unknown strings are rejected rather than defaulted: a typo'd role in
// the database must surface as an error, not silently grant or deny.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleMember, RoleAdmin, RoleSuperAdmin:
		return Role(s), nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// IsAdmin reports whether the role carries admin capabilities.
// Super admins are admins.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// IsSuperAdmin reports whether the role is super_admin.
func (r Role) IsSuperAdmin() bool {
	return r == RoleSuperAdmin
}

// CanManageUsers reports whether the role may list users and change roles.
func (r Role) CanManageUsers() bool {
	return r.IsAdmin()
}

// CanImpersonate reports whether a user with this role may open a proxy
// session viewing the app as target. Only super admins may impersonate,
// and never another super admin.
func (r Role) CanImpersonate(target Role) bool {
	return r.IsSuperAdmin() && !target.IsSuperAdmin()
}

// String implements fmt.Stringer.
func (r Role) String() string { return string(r) }
