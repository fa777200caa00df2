// Veridian Web - Marketing Site and Admin Back Office
// Copyright 2026 Veridian Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/veridianlabs/veridian-web

package api

import (
	"context"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/veridianlabs/veridian-web/internal/auth"
	"github.com/veridianlabs/veridian-web/internal/logging"
	"github.com/veridianlabs/veridian-web/internal/models"
	"github.com/veridianlabs/veridian-web/internal/validation"
)

// AccountStore is the slice of the user store the setup flow needs.
type AccountStore interface {
	CountUsers(ctx context.Context) (int64, error)
	CreateUser(ctx context.Context, username, passwordHash, role string) (*models.User, error)
}

// SetupHandlers serves the first-run flow: until an account exists, the
// instance accepts one unauthenticated admin creation.
type SetupHandlers struct {
	store  AccountStore
	hasher *auth.PasswordHasher
}

// NewSetupHandlers creates the setup flow handlers.
func NewSetupHandlers(store AccountStore, hasher *auth.PasswordHasher) *SetupHandlers {
	return &SetupHandlers{store: store, hasher: hasher}
}

// Status reports whether the instance still needs its first admin.
func (s *SetupHandlers) Status(w http.ResponseWriter, r *http.Request) {
	count, err := s.store.CountUsers(r.Context())
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to count users")
		respondJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to check setup status"})
		return
	}

	respondJSON(w, http.StatusOK, map[string]bool{"needsSetup": count == 0})
}

// CreateFirstAdmin creates the initial admin account. Once any account
// exists the endpoint is closed with 409.
func (s *SetupHandlers) CreateFirstAdmin(w http.ResponseWriter, r *http.Request) {
	count, err := s.store.CountUsers(r.Context())
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to count users")
		respondJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to check setup status"})
		return
	}
	if count > 0 {
		respondJSON(w, http.StatusConflict, map[string]string{"error": "Setup already completed"})
		return
	}

	var req models.SetupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}

	if verr := validation.ValidateStruct(&req); verr != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": verr.Error()})
		return
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to hash setup password")
		respondJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to create account"})
		return
	}

	user, err := s.store.CreateUser(r.Context(), req.Username, hash, models.RoleAdmin)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to create first admin")
		respondJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to create account"})
		return
	}

	logging.Ctx(r.Context()).Info().Str("username", user.Username).Msg("First admin account created")
	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"user":    user.Identity(),
	})
}
