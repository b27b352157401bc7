// Copyright (C) 2025 NIA Insight Group (dev@niainsight.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/niahq/excellence-hub/pkg/access"
	"github.com/niahq/excellence-hub/services/hub/datatypes"
	"github.com/niahq/excellence-hub/services/hub/middleware"
	"github.com/niahq/excellence-hub/services/store"
)

func ListUsers(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		users, err := s.ListUsers(c.Request.Context())
		if err != nil {
			storeError(c, err, "users")
			return
		}
		c.JSON(http.StatusOK, gin.H{"users": users})
	}
}

// UpdateUserRole changes a user's role. Admins cannot grant or revoke
// super_admin; that stays with super admins.
func UpdateUserRole(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := currentIdentity(c)
		if !ok {
			return
		}
		var req datatypes.UpdateRoleRequest
		if !bindAndValidate(c, &req) {
			return
		}

		target, err := s.UserByID(c.Request.Context(), c.Param("userId"))
		if err != nil {
			storeError(c, err, "user")
			return
		}

		targetRole, _ := access.ParseRole(target.Role)
		touchesSuper := req.Role == string(access.RoleSuperAdmin) || targetRole.IsSuperAdmin()
		if touchesSuper && !id.Role().IsSuperAdmin() {
			c.JSON(http.StatusForbidden, gin.H{"error": "only super admins can manage super admin roles"})
			return
		}

		if err := s.UpdateRole(c.Request.Context(), target.ID, req.Role); err != nil {
			storeError(c, err, "user")
			return
		}
		slog.Info("role updated", "actor", id.User.ID, "target", target.ID, "role", req.Role)
		c.JSON(http.StatusOK, gin.H{"status": "updated"})
	}
}

// StartImpersonation opens a proxy session viewing the app as the
// target user. Super admin only; a super admin can never be
// impersonated.
func StartImpersonation(s *store.Store, proxySecret []byte, secureCookies bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := currentIdentity(c)
		if !ok {
			return
		}
		var req datatypes.ImpersonateRequest
		if !bindAndValidate(c, &req) {
			return
		}

		target, err := s.UserByID(c.Request.Context(), req.TargetUserID)
		if err != nil {
			storeError(c, err, "user")
			return
		}
		targetRole, err := access.ParseRole(target.Role)
		if err != nil || !id.Role().CanImpersonate(targetRole) {
			c.JSON(http.StatusForbidden, gin.H{"error": "cannot impersonate this user"})
			return
		}

		token, err := middleware.IssueProxyToken(proxySecret, id.User, target, time.Now())
		if err != nil {
			slog.Error("failed to issue proxy token", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to start impersonation"})
			return
		}

		c.SetCookie(middleware.ProxyCookie, token,
			int(middleware.ProxyTTL/time.Second), "/", "", secureCookies, true)
		slog.Info("impersonation started", "admin", id.User.ID, "target", target.ID)
		c.JSON(http.StatusOK, gin.H{
			"status": "impersonating",
			"target": gin.H{"id": target.ID, "display_name": target.DisplayName, "role": target.Role},
		})
	}
}

// StopImpersonation clears the proxy cookie, returning the admin to
// their own identity.
func StopImpersonation() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := currentIdentity(c)
		if !ok {
			return
		}
		c.SetCookie(middleware.ProxyCookie, "", -1, "/", "", false, true)
		if id.Admin != nil {
			slog.Info("impersonation stopped", "admin", id.Admin.ID, "target", id.User.ID)
		}
		c.JSON(http.StatusOK, gin.H{"status": "stopped"})
	}
}

// EntityAudit returns the audit trail for one entity.
func EntityAudit(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		entries, err := s.AuditByEntity(c.Request.Context(), c.Param("entityType"), c.Param("entityId"))
		if err != nil {
			storeError(c, err, "audit")
			return
		}
		c.JSON(http.StatusOK, gin.H{"entries": entries})
	}
}
