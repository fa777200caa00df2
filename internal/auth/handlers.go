// Veridian Web - Marketing Site and Admin Back Office
// Copyright 2026 Veridian Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/veridianlabs/veridian-web

package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/veridianlabs/veridian-web/internal/logging"
	"github.com/veridianlabs/veridian-web/internal/models"
	"github.com/veridianlabs/veridian-web/internal/validation"
)

// Cookie names used by the auth surface.
const (
	// SessionCookieName carries the signed session token.
	SessionCookieName = "auth_token"

	// CSRFCookieName carries the encrypted CSRF payload.
	CSRFCookieName = "csrf_token"

	// CSRFHeaderName carries the plaintext CSRF token on state-changing
	// requests.
	CSRFHeaderName = "X-CSRF-Token"
)

// Handlers implements the /api/auth HTTP endpoints.
type Handlers struct {
	authenticator *Authenticator
	jwt           *JWTManager
	csrf          *CSRFManager
	throttle      *LoginThrottle

	// secureCookies sets the Secure attribute on issued cookies.
	// Enabled in production, where the site is only served over TLS.
	secureCookies bool
}

// NewHandlers creates the auth endpoint handlers.
func NewHandlers(authenticator *Authenticator, jwt *JWTManager, csrf *CSRFManager, throttle *LoginThrottle, secureCookies bool) *Handlers {
	return &Handlers{
		authenticator: authenticator,
		jwt:           jwt,
		csrf:          csrf,
		throttle:      throttle,
		secureCookies: secureCookies,
	}
}

// CSRFToken handles GET /api/auth/csrf. It issues a fresh token, sets
// the encrypted cookie, and returns the plaintext token in the body for
// the double-submit check.
func (h *Handlers) CSRFToken(w http.ResponseWriter, r *http.Request) {
	token, cookieValue, err := h.csrf.Issue()
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("CSRF token generation failed")
		respondJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to generate CSRF token"})
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CSRFCookieName,
		Value:    cookieValue,
		Path:     "/",
		MaxAge:   int(h.csrf.TTL().Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})

	respondJSON(w, http.StatusOK, map[string]string{"token": token})
}

// Login handles POST /api/auth/login. Request processing order is fixed:
// CSRF check, field validation, throttle, credential check, token
// signing. Each failure class maps to exactly one status and message so
// responses leak nothing about which account exists.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()

	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}

	if !h.validateCSRF(r, req.CSRFToken) {
		RecordCSRFValidation(false)
		respondJSON(w, http.StatusForbidden, map[string]string{"error": "Invalid CSRF token"})
		return
	}
	RecordCSRFValidation(true)

	if err := validation.ValidateStruct(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "Username and password are required"})
		return
	}

	if !h.throttle.Allow(req.Username) {
		RecordLogin("throttled", time.Since(start))
		logging.Ctx(ctx).Warn().Str("username", sanitizeLogValue(req.Username)).Msg("Login throttled")
		respondJSON(w, http.StatusTooManyRequests, map[string]string{"error": "Too many login attempts, try again later"})
		return
	}

	identity, err := h.authenticator.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			RecordLogin("invalid_credentials", time.Since(start))
			logging.Ctx(ctx).Info().Str("username", sanitizeLogValue(req.Username)).Msg("Login rejected")
			respondJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid username or password"})
			return
		}
		RecordLogin("error", time.Since(start))
		logging.Ctx(ctx).Error().Err(err).Msg("Login failed")
		respondJSON(w, http.StatusInternalServerError, map[string]string{"error": "Login failed"})
		return
	}

	token, err := h.jwt.GenerateToken(*identity)
	if err != nil {
		RecordLogin("error", time.Since(start))
		logging.Ctx(ctx).Error().Err(err).Msg("Session token signing failed")
		respondJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to create session"})
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.jwt.Timeout().Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookies,
	})

	RecordLogin("success", time.Since(start))
	logging.Ctx(ctx).Info().Str("username", sanitizeLogValue(identity.Username)).Str("role", identity.Role).Msg("Login succeeded")

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"user":    identity,
	})
}

// validateCSRF checks the double-submit pair. The header token wins over
// the body field.
func (h *Handlers) validateCSRF(r *http.Request, bodyToken string) bool {
	supplied := r.Header.Get(CSRFHeaderName)
	if supplied == "" {
		supplied = bodyToken
	}

	cookie, err := r.Cookie(CSRFCookieName)
	if err != nil {
		return false
	}

	return h.csrf.Validate(cookie.Value, supplied)
}

// Logout handles POST /api/auth/logout. It clears the session cookie.
// Logging out an already logged-out client still succeeds.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies,
	})

	respondJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// Check handles GET /api/auth/check. It reports whether the request
// carries a valid session, without redirecting.
func (h *Handlers) Check(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.sessionClaims(r)
	if !ok {
		respondJSON(w, http.StatusOK, map[string]interface{}{"authenticated": false})
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"authenticated": true,
		"user": map[string]string{
			"username": claims.Username,
			"role":     claims.Role,
		},
	})
}

// ChangePassword handles POST /api/auth/change-password. The session is
// validated in-handler: API clients get a 401 JSON response, never a
// redirect.
func (h *Handlers) ChangePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claims, ok := h.sessionClaims(r)
	if !ok {
		respondJSON(w, http.StatusUnauthorized, map[string]string{"error": "Not authenticated"})
		return
	}

	var req models.ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}

	if err := validation.ValidateStruct(&req); err != nil {
		RecordPasswordChange("policy_violation")
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "New password must be at least 8 characters"})
		return
	}

	err := h.authenticator.ChangePassword(ctx, claims.Username, req.CurrentPassword, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, ErrPasswordTooShort):
			RecordPasswordChange("policy_violation")
			respondJSON(w, http.StatusBadRequest, map[string]string{"error": "New password must be at least 8 characters"})
		case errors.Is(err, ErrInvalidCredentials):
			RecordPasswordChange("invalid_current")
			respondJSON(w, http.StatusBadRequest, map[string]string{"error": "Current password is incorrect"})
		default:
			RecordPasswordChange("error")
			logging.Ctx(ctx).Error().Err(err).Msg("Password change failed")
			respondJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to change password"})
		}
		return
	}

	RecordPasswordChange("success")
	logging.Ctx(ctx).Info().Str("username", sanitizeLogValue(claims.Username)).Msg("Password changed")
	respondJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// sessionClaims verifies the session cookie for handlers that enforce
// authentication themselves rather than through the guard.
func (h *Handlers) sessionClaims(r *http.Request) (*Claims, bool) {
	if claims, ok := ClaimsFromContext(r.Context()); ok {
		return claims, true
	}

	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return nil, false
	}

	claims, err := h.jwt.ValidateToken(cookie.Value)
	if err != nil {
		RecordTokenVerification(false)
		return nil, false
	}

	RecordTokenVerification(true)
	return claims, true
}

// respondJSON writes a JSON response with the given status.
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.Error().Err(err).Msg("Failed to encode response")
	}
}

// sanitizeLogValue strips CR/LF from user-supplied values before they
// reach the log stream, preventing log injection.
func sanitizeLogValue(value string) string {
	value = strings.ReplaceAll(value, "\n", "")
	value = strings.ReplaceAll(value, "\r", "")
	if len(value) > 128 {
		value = value[:128]
	}
	return value
}
