// Veridian Web - Marketing Site and Admin Back Office
// Copyright 2026 Veridian Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/veridianlabs/veridian-web

package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/veridianlabs/veridian-web/internal/models"
)

var (
	// ErrUserNotFound is returned by UserStore implementations when no
	// account matches the username.
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidCredentials collapses unknown-username and wrong-password
	// into a single error so responses never reveal which part failed.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrPasswordTooShort is returned when a new password fails the
	// minimum length policy.
	ErrPasswordTooShort = errors.New("password must be at least 8 characters")
)

// MinPasswordLength is the minimum accepted new password length.
const MinPasswordLength = 8

// UserStore is the persistence seam the Authenticator depends on.
// *database.DB satisfies it; tests use in-memory fakes.
type UserStore interface {
	// GetUserByUsername looks up a user by exact, case-sensitive
	// username. Returns ErrUserNotFound when no account matches.
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)

	// UpdateUserPassword replaces the stored password hash for a user.
	UpdateUserPassword(ctx context.Context, id int64, passwordHash string) error
}

// Authenticator verifies credentials against the user store and manages
// password changes.
type Authenticator struct {
	store  UserStore
	hasher *PasswordHasher
}

// NewAuthenticator creates an Authenticator.
func NewAuthenticator(store UserStore, hasher *PasswordHasher) *Authenticator {
	return &Authenticator{
		store:  store,
		hasher: hasher,
	}
}

// Authenticate verifies a username/password pair and returns the
// sanitized identity. Unknown usernames and wrong passwords both return
// ErrInvalidCredentials; callers must not distinguish them. Username
// matching is exact and case-sensitive.
func (a *Authenticator) Authenticate(ctx context.Context, username, password string) (*models.Identity, error) {
	user, err := a.store.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("user lookup failed: %w", err)
	}

	if !a.hasher.Verify(password, user.Password) {
		return nil, ErrInvalidCredentials
	}

	identity := user.Identity()
	return &identity, nil
}

// ChangePassword verifies the current password and replaces the stored
// hash with a hash of the new one. The new password must meet the
// minimum length policy. A wrong current password returns
// ErrInvalidCredentials.
func (a *Authenticator) ChangePassword(ctx context.Context, username, currentPassword, newPassword string) error {
	if len(newPassword) < MinPasswordLength {
		return ErrPasswordTooShort
	}

	user, err := a.store.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return ErrInvalidCredentials
		}
		return fmt.Errorf("user lookup failed: %w", err)
	}

	if !a.hasher.Verify(currentPassword, user.Password) {
		return ErrInvalidCredentials
	}

	hash, err := a.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash new password: %w", err)
	}

	if err := a.store.UpdateUserPassword(ctx, user.ID, hash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	return nil
}
