// Copyright (C) 2025 NIA Insight Group (dev@niainsight.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package access

import "testing"

func TestParseRole(t *testing.T) {
	t.Run("accepts the three stored roles", func(t *testing.T) {
		for _, s := range []string{"member", "admin", "super_admin"} {
			if _, err := ParseRole(s); err != nil {
				t.Errorf("ParseRole(%q) returned error: %v", s, err)
			}
		}
	})

	t.Run("rejects unknown strings", func(t *testing.T) {
		for _, s := range []string{"", "Member", "superadmin", "root"} {
			if _, err := ParseRole(s); err == nil {
				t.Errorf("ParseRole(%q) should have failed", s)
			}
		}
	})
}

func TestCapabilities(t *testing.T) {
	cases := []struct {
		role         Role
		isAdmin      bool
		isSuperAdmin bool
	}{
		{RoleMember, false, false},
		{RoleAdmin, true, false},
		{RoleSuperAdmin, true, true},
	}
	for _, tc := range cases {
		if got := tc.role.IsAdmin(); got != tc.isAdmin {
			t.Errorf("%s.IsAdmin() = %v, want %v", tc.role, got, tc.isAdmin)
		}
		if got := tc.role.IsSuperAdmin(); got != tc.isSuperAdmin {
			t.Errorf("%s.IsSuperAdmin() = %v, want %v", tc.role, got, tc.isSuperAdmin)
		}
		if got := tc.role.CanManageUsers(); got != tc.isAdmin {
			t.Errorf("%s.CanManageUsers() = %v, want %v", tc.role, got, tc.isAdmin)
		}
	}
}

func TestCanImpersonate(t *testing.T) {
	t.Run("super admin may view as member or admin", func(t *testing.T) {
		if !RoleSuperAdmin.CanImpersonate(RoleMember) {
			t.Error("super_admin should impersonate member")
		}
		if !RoleSuperAdmin.CanImpersonate(RoleAdmin) {
			t.Error("super_admin should impersonate admin")
		}
	})

	t.Run("never another super admin", func(t *testing.T) {
		if RoleSuperAdmin.CanImpersonate(RoleSuperAdmin) {
			t.Error("super_admin must not impersonate super_admin")
		}
	})

	t.Run("admins and members may not impersonate", func(t *testing.T) {
		if RoleAdmin.CanImpersonate(RoleMember) || RoleMember.CanImpersonate(RoleMember) {
			t.Error("only super_admin may impersonate")
		}
	})
}
