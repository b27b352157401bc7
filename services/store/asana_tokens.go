// Copyright (C) 2025 NIA Insight Group (dev@niainsight.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SaveAsanaToken upserts a user's OAuth credentials. One row per user;
// re-authorizing replaces the previous grant.
func (s *Store) SaveAsanaToken(ctx context.Context, t AsanaToken) error {
	t.UpdatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO asana_tokens (user_id, access_token, refresh_token, expires_at, workspace_id, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (user_id) DO UPDATE SET
		   access_token = excluded.access_token,
		   refresh_token = excluded.refresh_token,
		   expires_at = excluded.expires_at,
		   workspace_id = excluded.workspace_id,
		   updated_at = excluded.updated_at`,
		t.UserID, t.AccessToken, t.RefreshToken, formatTimePtr(t.ExpiresAt), t.WorkspaceID, formatTime(t.UpdatedAt))
	if err != nil {
		return fmt.Errorf("save asana token: %w", err)
	}
	return nil
}

// AsanaTokenByUser loads a user's OAuth credentials.
func (s *Store) AsanaTokenByUser(ctx context.Context, userID string) (AsanaToken, error) {
	var t AsanaToken
	var expires sql.NullString
	var updated string
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id, access_token, refresh_token, expires_at, workspace_id, updated_at
		 FROM asana_tokens WHERE user_id = ?`, userID).
		Scan(&t.UserID, &t.AccessToken, &t.RefreshToken, &expires, &t.WorkspaceID, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return AsanaToken{}, ErrNotFound
	}
	if err != nil {
		return AsanaToken{}, fmt.Errorf("load asana token: %w", err)
	}
	if t.ExpiresAt, err = parseTime(expires); err != nil {
		return AsanaToken{}, err
	}
	if t.UpdatedAt, err = mustTime(updated); err != nil {
		return AsanaToken{}, err
	}
	return t, nil
}

// DeleteAsanaToken disconnects a user from the external tool.
func (s *Store) DeleteAsanaToken(ctx context.Context, userID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM asana_tokens WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("delete asana token: %w", err)
	}
	return requireRow(res)
}
