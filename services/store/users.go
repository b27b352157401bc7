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

	"github.com/google/uuid"
)

// CreateUser inserts a new user. Email must be unique.
func (s *Store) CreateUser(ctx context.Context, email, displayName, role string) (User, error) {
	now := time.Now().UTC()
	u := User{
		ID:          uuid.NewString(),
		Email:       email,
		DisplayName: displayName,
		Role:        role,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, email, display_name, role, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.DisplayName, u.Role, formatTime(now), formatTime(now))
	if err != nil {
		if isUniqueViolation(err) {
			return User{}, fmt.Errorf("user %s: %w", email, ErrDuplicate)
		}
		return User{}, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

// UserByID loads one user.
func (s *Store) UserByID(ctx context.Context, id string) (User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, email, display_name, role, onboarding_completed_at, last_login_at, created_at, updated_at
		 FROM users WHERE id = ?`, id))
}

// UserByEmail loads one user by email.
func (s *Store) UserByEmail(ctx context.Context, email string) (User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, email, display_name, role, onboarding_completed_at, last_login_at, created_at, updated_at
		 FROM users WHERE email = ?`, email))
}

// ListUsers returns all users ordered by email.
func (s *Store) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, email, display_name, role, onboarding_completed_at, last_login_at, created_at, updated_at
		 FROM users ORDER BY email`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		u, err := s.scanUserRows(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// UpdateRole changes a user's stored role.
func (s *Store) UpdateRole(ctx context.Context, userID, role string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET role = ?, updated_at = ? WHERE id = ?`,
		role, formatTime(time.Now().UTC()), userID)
	if err != nil {
		return fmt.Errorf("update role: %w", err)
	}
	return requireRow(res)
}

// CompleteOnboarding stamps the onboarding completion time once.
// Re-running is a no-op so the timestamp records the first completion.
func (s *Store) CompleteOnboarding(ctx context.Context, userID string, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET onboarding_completed_at = ?, updated_at = ?
		 WHERE id = ? AND onboarding_completed_at IS NULL`,
		formatTime(at), formatTime(time.Now().UTC()), userID)
	if err != nil {
		return fmt.Errorf("complete onboarding: %w", err)
	}
	return nil
}

// TouchLastLogin records a login.
func (s *Store) TouchLastLogin(ctx context.Context, userID string, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET last_login_at = ? WHERE id = ?`, formatTime(at), userID)
	if err != nil {
		return fmt.Errorf("touch last login: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *Store) scanUser(row *sql.Row) (User, error) {
	u, err := s.scanUserRows(row)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return u, err
}

func (s *Store) scanUserRows(row rowScanner) (User, error) {
	var u User
	var onboarded, lastLogin sql.NullString
	var created, updated string
	if err := row.Scan(&u.ID, &u.Email, &u.DisplayName, &u.Role, &onboarded, &lastLogin, &created, &updated); err != nil {
		return User{}, err
	}
	var err error
	if u.OnboardingCompletedAt, err = parseTime(onboarded); err != nil {
		return User{}, err
	}
	if u.LastLoginAt, err = parseTime(lastLogin); err != nil {
		return User{}, err
	}
	if u.CreatedAt, err = mustTime(created); err != nil {
		return User{}, err
	}
	if u.UpdatedAt, err = mustTime(updated); err != nil {
		return User{}, err
	}
	return u, nil
}

// requireRow converts a zero-row update into ErrNotFound.
func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
