// Copyright (C) 2025 NIA Insight Group (dev@niainsight.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/niahq/excellence-hub/services/asana"
	"github.com/niahq/excellence-hub/services/hub/datatypes"
	"github.com/niahq/excellence-hub/services/hub/observability"
	"github.com/niahq/excellence-hub/services/store"
)

// stateCookie guards the OAuth callback against forged codes.
const stateCookie = "hub_asana_state"

// AsanaConnect starts the OAuth flow. The client redirects the browser
// to the returned URL.
func AsanaConnect(cfg asana.OAuthConfig, secureCookies bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := currentIdentity(c); !ok {
			return
		}
		state := uuid.NewString()
		c.SetCookie(stateCookie, state, int((10 * time.Minute).Seconds()), "/", "", secureCookies, true)
		c.JSON(http.StatusOK, gin.H{"auth_url": cfg.AuthCodeURL(state)})
	}
}

// AsanaCallback exchanges the authorization code and stores the token
// set for the caller.
func AsanaCallback(s *store.Store, cfg asana.OAuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := currentIdentity(c)
		if !ok {
			return
		}

		expected, err := c.Cookie(stateCookie)
		if err != nil || expected == "" || c.Query("state") != expected {
			c.JSON(http.StatusBadRequest, gin.H{"error": "state mismatch"})
			return
		}
		c.SetCookie(stateCookie, "", -1, "/", "", false, true)

		code := c.Query("code")
		if code == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing authorization code"})
			return
		}

		tok, err := cfg.Exchange(c.Request.Context(), code)
		if err != nil {
			slog.Error("oauth exchange failed", "user", id.User.ID, "error", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "authorization exchange failed"})
			return
		}

		record := store.AsanaToken{
			UserID:       id.User.ID,
			AccessToken:  tok.AccessToken,
			RefreshToken: tok.RefreshToken,
		}
		if !tok.Expiry.IsZero() {
			expiry := tok.Expiry
			record.ExpiresAt = &expiry
		}
		if err := s.SaveAsanaToken(c.Request.Context(), record); err != nil {
			storeError(c, err, "token")
			return
		}
		slog.Info("asana account connected", "user", id.User.ID)
		c.JSON(http.StatusOK, gin.H{"status": "connected"})
	}
}

// AsanaDisconnect removes the caller's stored token set.
func AsanaDisconnect(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := currentIdentity(c)
		if !ok {
			return
		}
		if err := s.DeleteAsanaToken(c.Request.Context(), id.User.ID); err != nil {
			storeError(c, err, "token")
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "disconnected"})
	}
}

// userAsanaClient builds an API client authenticated as the caller.
// Rotated tokens are persisted back to the store transparently.
func userAsanaClient(c *gin.Context, s *store.Store, cfg asana.OAuthConfig) (*asana.Client, bool) {
	id, ok := currentIdentity(c)
	if !ok {
		return nil, false
	}

	record, err := s.AsanaTokenByUser(c.Request.Context(), id.User.ID)
	if err != nil {
		c.JSON(http.StatusPreconditionFailed, gin.H{"error": "Asana account not connected"})
		return nil, false
	}

	tok := &oauth2.Token{
		AccessToken:  record.AccessToken,
		RefreshToken: record.RefreshToken,
	}
	if record.ExpiresAt != nil {
		tok.Expiry = *record.ExpiresAt
	}

	userID := id.User.ID
	save := func(ctx context.Context, rotated *oauth2.Token) error {
		upd := store.AsanaToken{
			UserID:       userID,
			AccessToken:  rotated.AccessToken,
			RefreshToken: rotated.RefreshToken,
			WorkspaceID:  record.WorkspaceID,
		}
		if !rotated.Expiry.IsZero() {
			expiry := rotated.Expiry
			upd.ExpiresAt = &expiry
		}
		return s.SaveAsanaToken(ctx, upd)
	}

	return asana.NewClient(cfg.HTTPClient(c.Request.Context(), tok, save)), true
}

func AsanaWorkspaces(s *store.Store, cfg asana.OAuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		client, ok := userAsanaClient(c, s, cfg)
		if !ok {
			return
		}
		workspaces, err := client.Workspaces(c.Request.Context())
		if err != nil {
			upstreamError(c, err, "workspaces")
			return
		}
		c.JSON(http.StatusOK, gin.H{"workspaces": workspaces})
	}
}

func AsanaProjects(s *store.Store, cfg asana.OAuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		client, ok := userAsanaClient(c, s, cfg)
		if !ok {
			return
		}
		workspace := c.Query("workspace")
		if workspace == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "workspace query parameter required"})
			return
		}
		projects, err := client.Projects(c.Request.Context(), workspace)
		if err != nil {
			upstreamError(c, err, "projects")
			return
		}
		c.JSON(http.StatusOK, gin.H{"projects": projects})
	}
}

// AsanaMembers lists workspace members through the TTL cache, so
// repeated assignee pickers do not hammer the upstream API.
func AsanaMembers(s *store.Store, cfg asana.OAuthConfig, members *asana.MemberCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		client, ok := userAsanaClient(c, s, cfg)
		if !ok {
			return
		}
		workspace := c.Query("workspace")
		if workspace == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "workspace query parameter required"})
			return
		}
		list, err := members.Members(c.Request.Context(), client, workspace)
		if err != nil {
			upstreamError(c, err, "members")
			return
		}
		c.JSON(http.StatusOK, gin.H{"members": list})
	}
}

// ImportAsanaProject creates a hub process from an Asana project,
// copying its open tasks and capturing the first snapshot.
func ImportAsanaProject(s *store.Store, cfg asana.OAuthConfig, cache *asana.SnapshotCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := currentIdentity(c)
		if !ok {
			return
		}
		var req datatypes.ImportProjectRequest
		if !bindAndValidate(c, &req) {
			return
		}
		client, ok := userAsanaClient(c, s, cfg)
		if !ok {
			return
		}
		ctx := c.Request.Context()

		name := req.ProcessName
		if name == "" {
			projects, err := client.Projects(ctx, req.WorkspaceGID)
			if err != nil {
				upstreamError(c, err, "projects")
				return
			}
			for _, proj := range projects {
				if proj.GID == req.ProjectGID {
					name = proj.Name
					break
				}
			}
			if name == "" {
				c.JSON(http.StatusNotFound, gin.H{"error": "project not found in workspace"})
				return
			}
		}

		processType := req.ProcessTypeID
		if processType == "" {
			processType = "support"
		}

		p, err := s.CreateProcess(ctx, id.User.ID, name, processType)
		if err != nil {
			storeError(c, err, "process")
			return
		}
		if err := s.LinkAsanaProject(ctx, p.ID, req.ProjectGID); err != nil {
			storeError(c, err, "process")
			return
		}

		tasks, err := client.ProjectTasks(ctx, req.ProjectGID)
		if err != nil {
			upstreamError(c, err, "tasks")
			return
		}
		imported := 0
		for _, t := range tasks {
			st := store.Task{
				ProcessID: p.ID,
				Title:     t.Name,
				Done:      t.Completed,
				Origin:    "asana",
			}
			if t.DueOn != "" {
				if due, err := time.Parse("2006-01-02", t.DueOn); err == nil {
					st.DueDate = &due
				}
			}
			if _, err := s.CreateTask(ctx, st); err != nil {
				slog.Warn("failed to import task", "process", p.ID, "task", t.GID, "error", err)
				continue
			}
			imported++
		}

		syncer := asana.NewSyncer(client, s, cache)
		if _, err := syncer.SyncOne(ctx, asana.Link{ProcessID: p.ID, ProjectGID: req.ProjectGID}); err != nil {
			slog.Warn("initial snapshot failed", "process", p.ID, "error", err)
		}

		slog.Info("asana project imported", "process", p.ID, "project", req.ProjectGID, "tasks", imported)
		c.JSON(http.StatusCreated, gin.H{"process": p, "imported_tasks": imported})
	}
}

// BulkSyncProjects resyncs the snapshots of up to MaxBulkSyncItems
// linked processes, sequentially with a fixed inter-item delay. Items
// keep failing independently; the response reports per-item outcomes.
func BulkSyncProjects(s *store.Store, cfg asana.OAuthConfig, cache *asana.SnapshotCache, metrics *observability.HubMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.BulkSyncRequest
		if !bindAndValidate(c, &req) {
			return
		}
		client, ok := userAsanaClient(c, s, cfg)
		if !ok {
			return
		}
		ctx := c.Request.Context()

		links := make([]asana.Link, 0, len(req.ProcessIDs))
		for _, pid := range req.ProcessIDs {
			p, ok := ownedProcess(c, s, pid)
			if !ok {
				return
			}
			if p.AsanaProjectID == "" {
				c.JSON(http.StatusBadRequest, gin.H{"error": "process " + pid + " has no linked project"})
				return
			}
			links = append(links, asana.Link{ProcessID: p.ID, ProjectGID: p.AsanaProjectID})
		}

		syncer := asana.NewSyncer(client, s, cache)
		results := syncer.SyncAll(ctx, links)

		synced := 0
		for _, r := range results {
			metrics.RecordSyncItem(r.OK)
			if r.OK {
				synced++
			}
		}
		c.JSON(http.StatusOK, gin.H{
			"synced":  synced,
			"failed":  len(results) - synced,
			"results": results,
		})
	}
}

// ResyncProcessSnapshot refreshes one process's snapshot on demand.
func ResyncProcessSnapshot(s *store.Store, cfg asana.OAuthConfig, cache *asana.SnapshotCache, metrics *observability.HubMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := ownedProcess(c, s, c.Param("processId"))
		if !ok {
			return
		}
		if p.AsanaProjectID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "process has no linked project"})
			return
		}
		client, ok := userAsanaClient(c, s, cfg)
		if !ok {
			return
		}

		syncer := asana.NewSyncer(client, s, cache)
		res, err := syncer.SyncOne(c.Request.Context(), asana.Link{ProcessID: p.ID, ProjectGID: p.AsanaProjectID})
		metrics.RecordSyncItem(err == nil)
		if err != nil {
			slog.Error("snapshot resync failed", "process", p.ID, "error", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "snapshot resync failed"})
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

// upstreamError maps a third-party API failure to a response.
func upstreamError(c *gin.Context, err error, what string) {
	slog.Error("upstream request failed", "resource", what, "error", err)
	c.JSON(http.StatusBadGateway, gin.H{"error": "failed to fetch " + what})
}
