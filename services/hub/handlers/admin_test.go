// Copyright (C) 2025 NIA Insight Group (dev@niainsight.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/niahq/excellence-hub/services/hub/datatypes"
	"github.com/niahq/excellence-hub/services/hub/middleware"
)

var testProxySecret = []byte("0123456789abcdef0123456789abcdef")

// =============================================================================
// Role Management Tests
// =============================================================================

func TestUpdateUserRole_AdminPromotesMember(t *testing.T) {
	s := newTestStore(t)
	admin := seedUser(t, s, "admin@example.com", "admin")
	member := seedUser(t, s, "member@example.com", "member")

	router := testRouter(admin, "PATCH", "/admin/users/:userId/role", UpdateUserRole(s))
	w := performRequest(router, "PATCH", "/admin/users/"+member.ID+"/role",
		datatypes.UpdateRoleRequest{Role: "admin"})

	require.Equal(t, http.StatusOK, w.Code)
	got, err := s.UserByID(context.Background(), member.ID)
	require.NoError(t, err)
	assert.Equal(t, "admin", got.Role)
}

func TestUpdateUserRole_AdminCannotGrantSuperAdmin(t *testing.T) {
	s := newTestStore(t)
	admin := seedUser(t, s, "admin@example.com", "admin")
	member := seedUser(t, s, "member@example.com", "member")

	router := testRouter(admin, "PATCH", "/admin/users/:userId/role", UpdateUserRole(s))
	w := performRequest(router, "PATCH", "/admin/users/"+member.ID+"/role",
		datatypes.UpdateRoleRequest{Role: "super_admin"})

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestUpdateUserRole_AdminCannotDemoteSuperAdmin(t *testing.T) {
	s := newTestStore(t)
	admin := seedUser(t, s, "admin@example.com", "admin")
	super := seedUser(t, s, "super@example.com", "super_admin")

	router := testRouter(admin, "PATCH", "/admin/users/:userId/role", UpdateUserRole(s))
	w := performRequest(router, "PATCH", "/admin/users/"+super.ID+"/role",
		datatypes.UpdateRoleRequest{Role: "member"})

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestUpdateUserRole_SuperAdminGrantsSuperAdmin(t *testing.T) {
	s := newTestStore(t)
	super := seedUser(t, s, "super@example.com", "super_admin")
	member := seedUser(t, s, "member@example.com", "member")

	router := testRouter(super, "PATCH", "/admin/users/:userId/role", UpdateUserRole(s))
	w := performRequest(router, "PATCH", "/admin/users/"+member.ID+"/role",
		datatypes.UpdateRoleRequest{Role: "super_admin"})

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUpdateUserRole_RejectsUnknownRole(t *testing.T) {
	s := newTestStore(t)
	super := seedUser(t, s, "super@example.com", "super_admin")
	member := seedUser(t, s, "member@example.com", "member")

	router := testRouter(super, "PATCH", "/admin/users/:userId/role", UpdateUserRole(s))
	w := performRequest(router, "PATCH", "/admin/users/"+member.ID+"/role",
		datatypes.UpdateRoleRequest{Role: "owner"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// =============================================================================
// Impersonation Tests
// =============================================================================

func TestStartImpersonation_SetsProxyCookie(t *testing.T) {
	s := newTestStore(t)
	super := seedUser(t, s, "super@example.com", "super_admin")
	member := seedUser(t, s, "member@example.com", "member")

	router := testRouter(super, "POST", "/admin/impersonate", StartImpersonation(s, testProxySecret, false))
	w := performRequest(router, "POST", "/admin/impersonate",
		datatypes.ImpersonateRequest{TargetUserID: member.ID})

	require.Equal(t, http.StatusOK, w.Code)

	var proxy string
	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == middleware.ProxyCookie {
			proxy = cookie.Value
		}
	}
	require.NotEmpty(t, proxy, "proxy cookie must be set")

	claims, err := middleware.ParseProxyToken(testProxySecret, proxy)
	require.NoError(t, err)
	assert.Equal(t, super.ID, claims.AdminID)
	assert.Equal(t, member.ID, claims.TargetID)
}

func TestStartImpersonation_RefusesSuperAdminTarget(t *testing.T) {
	s := newTestStore(t)
	super := seedUser(t, s, "super@example.com", "super_admin")
	other := seedUser(t, s, "other-super@example.com", "super_admin")

	router := testRouter(super, "POST", "/admin/impersonate", StartImpersonation(s, testProxySecret, false))
	w := performRequest(router, "POST", "/admin/impersonate",
		datatypes.ImpersonateRequest{TargetUserID: other.ID})

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestStopImpersonation_ClearsCookie(t *testing.T) {
	s := newTestStore(t)
	super := seedUser(t, s, "super@example.com", "super_admin")

	router := testRouter(super, "DELETE", "/impersonate", StopImpersonation())
	w := performRequest(router, "DELETE", "/impersonate", nil)

	require.Equal(t, http.StatusOK, w.Code)
	found := false
	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == middleware.ProxyCookie {
			found = true
			assert.Empty(t, cookie.Value)
			assert.Negative(t, cookie.MaxAge)
		}
	}
	assert.True(t, found, "expired proxy cookie must be sent")
}

// =============================================================================
// Audit Trail Tests
// =============================================================================

func TestEntityAudit_RecordsDependencyChanges(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	owner := seedUser(t, s, "owner@example.com", "member")
	admin := seedUser(t, s, "admin@example.com", "admin")
	p := seedProcess(t, s, owner.ID, "Payroll")
	a := seedTask(t, s, p.ID, "A")
	b := seedTask(t, s, p.ID, "B")
	require.NoError(t, s.AddDependency(ctx, owner.ID, a.ID, b.ID))

	router := testRouter(admin, "GET", "/admin/audit/:entityType/:entityId", EntityAudit(s))
	w := performRequest(router, "GET", "/admin/audit/task/"+a.ID, nil)

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.True(t, strings.Contains(body, owner.ID), "audit entry names the actor")
}
