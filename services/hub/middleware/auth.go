// Copyright (C) 2025 NIA Insight Group (dev@niainsight.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package middleware provides HTTP middleware for the hub service.
//
// # Authentication Flow
//
// The auth middleware reads the session cookie, resolves it to a user
// through the session store, and stores the resulting Identity in the
// Gin context for downstream handlers.
//
//	Request
//	   │
//	   ▼
//	Auth middleware
//	   │
//	   ├─► Read session cookie, look up user
//	   │
//	   ├─► If a proxy cookie is present and the session user is a
//	   │   super admin, swap the effective identity to the target
//	   │
//	   └─► Store Identity in context
//	           │
//	           ▼
//	       Handler (retrieves via GetIdentity)
//
// # Impersonation
//
// A super admin can act as another user. The proxy session is a signed
// JWT cookie carrying the admin and target ids; the middleware verifies
// the signature, the expiry, and that the session user matches the
// admin recorded in the token.
package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/niahq/excellence-hub/pkg/access"
	"github.com/niahq/excellence-hub/services/store"
)

const (
	// SessionCookie carries the opaque session token.
	SessionCookie = "hub_session"

	// ProxyCookie carries the signed impersonation token.
	ProxyCookie = "hub_proxy_session"

	// ProxyTTL bounds an impersonation session.
	ProxyTTL = 4 * time.Hour

	identityKey = "hub_identity"
)

// SessionStore is the slice of the persistence layer auth needs.
type SessionStore interface {
	SessionUser(ctx context.Context, token string) (store.User, error)
	UserByID(ctx context.Context, id string) (store.User, error)
}

// Identity is the resolved caller for one request. When Admin is set
// the request is an impersonation: User is the target, Admin is the
// real super admin.
type Identity struct {
	User  store.User
	Admin *store.User
}

// Role returns the effective role for authorization checks.
func (id Identity) Role() access.Role {
	r, err := access.ParseRole(id.User.Role)
	if err != nil {
		return access.RoleMember
	}
	return r
}

// Impersonating reports whether this request acts on behalf of another
// user.
func (id Identity) Impersonating() bool { return id.Admin != nil }

// SetIdentity stores the resolved identity in the Gin context.
func SetIdentity(c *gin.Context, id Identity) {
	c.Set(identityKey, id)
}

// GetIdentity retrieves the resolved identity. The second return is
// false when the request was not authenticated.
func GetIdentity(c *gin.Context) (Identity, bool) {
	v, exists := c.Get(identityKey)
	if !exists {
		return Identity{}, false
	}
	id, ok := v.(Identity)
	return id, ok
}

// ProxyClaims is the payload of the impersonation cookie.
type ProxyClaims struct {
	AdminID    string `json:"adminId"`
	TargetID   string `json:"targetAuthId"`
	TargetName string `json:"targetName"`
	TargetRole string `json:"targetRole"`
	StartedAt  int64  `json:"startedAt"`
	jwt.RegisteredClaims
}

// IssueProxyToken signs an impersonation token for admin acting as
// target.
func IssueProxyToken(secret []byte, admin, target store.User, now time.Time) (string, error) {
	claims := ProxyClaims{
		AdminID:    admin.ID,
		TargetID:   target.ID,
		TargetName: target.DisplayName,
		TargetRole: target.Role,
		StartedAt:  now.Unix(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ProxyTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", err
	}
	return signed, nil
}

// ParseProxyToken verifies the token signature and expiry.
func ParseProxyToken(secret []byte, raw string) (*ProxyClaims, error) {
	claims := &ProxyClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid proxy token")
	}
	return claims, nil
}

// Auth authenticates every request via the session cookie and resolves
// impersonation. Unauthenticated requests get 401.
func Auth(sessions SessionStore, proxySecret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(SessionCookie)
		if err != nil || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
			return
		}

		user, err := sessions.SessionUser(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session expired"})
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication failed"})
			return
		}

		id := Identity{User: user}

		if raw, err := c.Cookie(ProxyCookie); err == nil && raw != "" {
			proxyID, ok := resolveProxy(c, sessions, proxySecret, user, raw)
			if !ok {
				// An invalid proxy cookie falls back to the real user
				// rather than failing the request.
				clearCookie(c, ProxyCookie)
			} else {
				id = proxyID
			}
		}

		SetIdentity(c, id)
		c.Next()
	}
}

func resolveProxy(c *gin.Context, sessions SessionStore, secret []byte, user store.User, raw string) (Identity, bool) {
	role, err := access.ParseRole(user.Role)
	if err != nil || !role.IsSuperAdmin() {
		return Identity{}, false
	}
	claims, err := ParseProxyToken(secret, raw)
	if err != nil || claims.AdminID != user.ID {
		return Identity{}, false
	}
	target, err := sessions.UserByID(c.Request.Context(), claims.TargetID)
	if err != nil {
		return Identity{}, false
	}
	// The token records the target's role at issuance. Check the
	// current one too: a target promoted to super admin mid-session
	// ends the impersonation.
	targetRole, err := access.ParseRole(target.Role)
	if err != nil || !role.CanImpersonate(targetRole) {
		return Identity{}, false
	}
	admin := user
	return Identity{User: target, Admin: &admin}, true
}

func clearCookie(c *gin.Context, name string) {
	c.SetCookie(name, "", -1, "/", "", false, true)
}

// RequireAdmin allows admins and super admins through.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := GetIdentity(c)
		if !ok || !id.Role().IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			return
		}
		c.Next()
	}
}

// RequireSuperAdmin allows only super admins, and never an
// impersonated one.
func RequireSuperAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := GetIdentity(c)
		if !ok || id.Impersonating() || !id.Role().IsSuperAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "super admin access required"})
			return
		}
		c.Next()
	}
}
