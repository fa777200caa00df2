// Veridian Web - Marketing Site and Admin Back Office
// Copyright 2026 Veridian Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/veridianlabs/veridian-web

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/veridianlabs/veridian-web/internal/auth"
	"github.com/veridianlabs/veridian-web/internal/models"
)

// GetUserByUsername looks up a user by exact, case-sensitive username.
// Returns auth.ErrUserNotFound when no account matches.
func (db *DB) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	row := db.conn.QueryRowContext(ctx,
		`SELECT id, username, password, role, created_at, updated_at
		 FROM users WHERE username = ?`, username)

	var user models.User
	err := row.Scan(&user.ID, &user.Username, &user.Password, &user.Role, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, auth.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	return &user, nil
}

// CreateUser inserts a new account with an already-hashed password and
// returns it with its assigned ID.
func (db *DB) CreateUser(ctx context.Context, username, passwordHash, role string) (*models.User, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	row := db.conn.QueryRowContext(ctx,
		`INSERT INTO users (username, password, role)
		 VALUES (?, ?, ?)
		 RETURNING id, username, password, role, created_at, updated_at`,
		username, passwordHash, role)

	var user models.User
	err := row.Scan(&user.ID, &user.Username, &user.Password, &user.Role, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return &user, nil
}

// UpdateUserPassword replaces the stored password hash for a user.
func (db *DB) UpdateUserPassword(ctx context.Context, id int64, passwordHash string) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	result, err := db.conn.ExecContext(ctx,
		`UPDATE users SET password = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		passwordHash, id)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if rows == 0 {
		return auth.ErrUserNotFound
	}

	return nil
}

// CountUsers returns the number of stored accounts. Zero means the
// instance is unconfigured and the setup flow is open.
func (db *DB) CountUsers(ctx context.Context) (int64, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var count int64
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}

	return count, nil
}
