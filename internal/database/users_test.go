// Veridian Web - Marketing Site and Admin Back Office
// Copyright 2026 Veridian Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/veridianlabs/veridian-web

package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/veridianlabs/veridian-web/internal/auth"
	"github.com/veridianlabs/veridian-web/internal/config"
	"github.com/veridianlabs/veridian-web/internal/models"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(&config.DatabaseConfig{
		Path:      filepath.Join(t.TempDir(), "test.duckdb"),
		MaxMemory: "256MB",
		Threads:   1,
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("Close() error: %v", err)
		}
	})

	return db
}

func TestCreateAndGetUser(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	created, err := db.CreateUser(ctx, "alice", "$2a$12$hash", models.RoleAdmin)
	if err != nil {
		t.Fatalf("CreateUser() error: %v", err)
	}
	if created.ID == 0 {
		t.Error("created user has zero ID")
	}
	if created.Role != models.RoleAdmin {
		t.Errorf("role = %q, want %q", created.Role, models.RoleAdmin)
	}

	got, err := db.GetUserByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("GetUserByUsername() error: %v", err)
	}
	if got.ID != created.ID || got.Username != "alice" || got.Password != "$2a$12$hash" {
		t.Errorf("got = %+v", got)
	}
	if got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
		t.Error("timestamps not populated")
	}
}

func TestGetUserByUsernameCaseSensitive(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if _, err := db.CreateUser(ctx, "alice", "hash", models.RoleAdmin); err != nil {
		t.Fatalf("CreateUser() error: %v", err)
	}

	// Lookup is exact; a different casing is a different username.
	if _, err := db.GetUserByUsername(ctx, "Alice"); !errors.Is(err, auth.ErrUserNotFound) {
		t.Errorf("GetUserByUsername(Alice) error = %v, want ErrUserNotFound", err)
	}
}

func TestGetUserByUsernameNotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetUserByUsername(context.Background(), "ghost")
	if !errors.Is(err, auth.ErrUserNotFound) {
		t.Errorf("error = %v, want ErrUserNotFound", err)
	}
}

func TestCreateUserDuplicate(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if _, err := db.CreateUser(ctx, "alice", "hash", models.RoleAdmin); err != nil {
		t.Fatalf("CreateUser() error: %v", err)
	}
	if _, err := db.CreateUser(ctx, "alice", "hash2", models.RoleAdmin); err == nil {
		t.Error("CreateUser() accepted duplicate username")
	}
}

func TestUpdateUserPassword(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	created, err := db.CreateUser(ctx, "alice", "old-hash", models.RoleAdmin)
	if err != nil {
		t.Fatalf("CreateUser() error: %v", err)
	}

	if err := db.UpdateUserPassword(ctx, created.ID, "new-hash"); err != nil {
		t.Fatalf("UpdateUserPassword() error: %v", err)
	}

	got, err := db.GetUserByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("GetUserByUsername() error: %v", err)
	}
	if got.Password != "new-hash" {
		t.Errorf("password = %q, want %q", got.Password, "new-hash")
	}
}

func TestUpdateUserPasswordUnknownID(t *testing.T) {
	db := newTestDB(t)

	err := db.UpdateUserPassword(context.Background(), 999, "hash")
	if !errors.Is(err, auth.ErrUserNotFound) {
		t.Errorf("error = %v, want ErrUserNotFound", err)
	}
}

func TestCountUsers(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	count, err := db.CountUsers(ctx)
	if err != nil {
		t.Fatalf("CountUsers() error: %v", err)
	}
	if count != 0 {
		t.Errorf("count = %d, want 0", count)
	}

	if _, err := db.CreateUser(ctx, "alice", "hash", models.RoleAdmin); err != nil {
		t.Fatalf("CreateUser() error: %v", err)
	}
	if _, err := db.CreateUser(ctx, "bob", "hash", models.RoleEditor); err != nil {
		t.Fatalf("CreateUser() error: %v", err)
	}

	count, err = db.CountUsers(ctx)
	if err != nil {
		t.Fatalf("CountUsers() error: %v", err)
	}
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}
}

func TestPing(t *testing.T) {
	db := newTestDB(t)
	if err := db.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error: %v", err)
	}
}
