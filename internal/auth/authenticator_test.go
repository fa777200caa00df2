// Veridian Web - Marketing Site and Admin Back Office
// Copyright 2026 Veridian Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/veridianlabs/veridian-web

package auth

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/veridianlabs/veridian-web/internal/models"
)

// fakeUserStore is an in-memory UserStore for tests.
type fakeUserStore struct {
	users map[string]*models.User

	// failWith, when set, makes every call return this error.
	failWith error
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[string]*models.User)}
}

func (s *fakeUserStore) add(t *testing.T, username, password, role string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt error: %v", err)
	}
	u := &models.User{
		ID:       int64(len(s.users) + 1),
		Username: username,
		Password: string(hash),
		Role:     role,
	}
	s.users[username] = u
	return u
}

func (s *fakeUserStore) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	if s.failWith != nil {
		return nil, s.failWith
	}
	u, ok := s.users[username]
	if !ok {
		return nil, ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

func (s *fakeUserStore) UpdateUserPassword(_ context.Context, id int64, passwordHash string) error {
	if s.failWith != nil {
		return s.failWith
	}
	for _, u := range s.users {
		if u.ID == id {
			u.Password = passwordHash
			return nil
		}
	}
	return ErrUserNotFound
}

func newTestAuthenticator(store *fakeUserStore) *Authenticator {
	return NewAuthenticator(store, NewPasswordHasher(bcrypt.MinCost))
}

func TestAuthenticate(t *testing.T) {
	store := newFakeUserStore()
	store.add(t, "alice", "correct-password", models.RoleAdmin)
	a := newTestAuthenticator(store)

	tests := []struct {
		name     string
		username string
		password string
		wantErr  error
	}{
		{name: "valid credentials", username: "alice", password: "correct-password"},
		{name: "wrong password", username: "alice", password: "wrong", wantErr: ErrInvalidCredentials},
		{name: "unknown user", username: "bob", password: "correct-password", wantErr: ErrInvalidCredentials},
		// Username matching is exact and case-sensitive.
		{name: "wrong case username", username: "Alice", password: "correct-password", wantErr: ErrInvalidCredentials},
		{name: "empty credentials", username: "", password: "", wantErr: ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			identity, err := a.Authenticate(context.Background(), tt.username, tt.password)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Authenticate() error = %v, want %v", err, tt.wantErr)
				}
				if identity != nil {
					t.Error("Authenticate() returned identity alongside error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Authenticate() error: %v", err)
			}
			if identity.Username != tt.username {
				t.Errorf("identity.Username = %q, want %q", identity.Username, tt.username)
			}
			if identity.Role != models.RoleAdmin {
				t.Errorf("identity.Role = %q, want %q", identity.Role, models.RoleAdmin)
			}
		})
	}
}

func TestAuthenticateStoreError(t *testing.T) {
	store := newFakeUserStore()
	store.failWith = errors.New("connection refused")
	a := newTestAuthenticator(store)

	_, err := a.Authenticate(context.Background(), "alice", "password")
	if err == nil {
		t.Fatal("Authenticate() expected error, got nil")
	}
	// Infrastructure failures must not masquerade as credential failures.
	if errors.Is(err, ErrInvalidCredentials) {
		t.Error("store error collapsed into ErrInvalidCredentials")
	}
}

func TestChangePassword(t *testing.T) {
	tests := []struct {
		name            string
		currentPassword string
		newPassword     string
		wantErr         error
	}{
		{name: "valid change", currentPassword: "original-pw", newPassword: "new-password-1"},
		{name: "wrong current password", currentPassword: "nope", newPassword: "new-password-1", wantErr: ErrInvalidCredentials},
		{name: "short new password", currentPassword: "original-pw", newPassword: "short", wantErr: ErrPasswordTooShort},
		{name: "exactly 8 characters", currentPassword: "original-pw", newPassword: "12345678"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeUserStore()
			store.add(t, "alice", "original-pw", models.RoleAdmin)
			a := newTestAuthenticator(store)

			err := a.ChangePassword(context.Background(), "alice", tt.currentPassword, tt.newPassword)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ChangePassword() error = %v, want %v", err, tt.wantErr)
				}
				// The stored hash must be untouched on failure.
				if _, authErr := a.Authenticate(context.Background(), "alice", "original-pw"); authErr != nil {
					t.Error("original password no longer works after failed change")
				}
				return
			}
			if err != nil {
				t.Fatalf("ChangePassword() error: %v", err)
			}

			if _, authErr := a.Authenticate(context.Background(), "alice", tt.newPassword); authErr != nil {
				t.Errorf("new password rejected after change: %v", authErr)
			}
			if _, authErr := a.Authenticate(context.Background(), "alice", tt.currentPassword); !errors.Is(authErr, ErrInvalidCredentials) {
				t.Error("old password still accepted after change")
			}
		})
	}
}

func TestChangePasswordUnknownUser(t *testing.T) {
	a := newTestAuthenticator(newFakeUserStore())

	err := a.ChangePassword(context.Background(), "ghost", "whatever", "new-password-1")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("ChangePassword() error = %v, want ErrInvalidCredentials", err)
	}
}
