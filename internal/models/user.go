// Veridian Web - Marketing Site and Admin Back Office
// Copyright 2026 Veridian Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/veridianlabs/veridian-web

// Package models defines shared data types for the user store and the
// auth HTTP surface.
package models

import "time"

// Role names for back-office accounts.
const (
	RoleAdmin  = "admin"
	RoleEditor = "editor"
)

// User is a stored back-office account. Password holds the bcrypt hash,
// never the plaintext. User values must not cross the HTTP boundary;
// use Identity for that.
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Password  string    `json:"-"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Identity is the sanitized view of an authenticated user. It is what
// login responses and session claims carry.
type Identity struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// Identity returns the sanitized view of the user.
func (u *User) Identity() Identity {
	return Identity{
		ID:       u.ID,
		Username: u.Username,
		Role:     u.Role,
	}
}

// LoginRequest is the POST /api/auth/login body. The CSRF token may
// arrive in the body or in the X-CSRF-Token header; the header wins.
type LoginRequest struct {
	Username  string `json:"username" validate:"required"`
	Password  string `json:"password" validate:"required"`
	CSRFToken string `json:"csrfToken"`
}

// ChangePasswordRequest is the POST /api/auth/change-password body.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8"`
}

// SetupRequest is the POST /api/setup body creating the first admin
// account on a fresh install.
type SetupRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Password string `json:"password" validate:"required,min=8"`
}
