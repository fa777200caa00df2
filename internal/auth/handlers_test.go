// Veridian Web - Marketing Site and Admin Back Office
// Copyright 2026 Veridian Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/veridianlabs/veridian-web

package auth

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/veridianlabs/veridian-web/internal/models"
)

// testHarness bundles the auth components for handler tests.
type testHarness struct {
	handlers *Handlers
	store    *fakeUserStore
	jwt      *JWTManager
	csrf     *CSRFManager
}

func newTestHarness(t *testing.T) *testHarness {
	t.Helper()

	store := newFakeUserStore()
	store.add(t, "alice", "correct-password", models.RoleAdmin)

	jwtManager, err := NewJWTManager(testSessionSecret, time.Hour)
	if err != nil {
		t.Fatalf("NewJWTManager() error: %v", err)
	}

	cipher, err := NewTokenCipher("handlers-test-secret")
	if err != nil {
		t.Fatalf("NewTokenCipher() error: %v", err)
	}
	csrf := NewCSRFManager(cipher, time.Hour)

	handlers := NewHandlers(
		newTestAuthenticator(store),
		jwtManager,
		csrf,
		NewLoginThrottle(100, time.Minute),
		false,
	)

	return &testHarness{handlers: handlers, store: store, jwt: jwtManager, csrf: csrf}
}

// fetchCSRF performs GET /api/auth/csrf and returns the token and cookie.
func (h *testHarness) fetchCSRF(t *testing.T) (token string, cookie *http.Cookie) {
	t.Helper()

	rec := httptest.NewRecorder()
	h.handlers.CSRFToken(rec, httptest.NewRequest(http.MethodGet, "/api/auth/csrf", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("csrf status = %d", rec.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("csrf body: %v", err)
	}

	for _, c := range rec.Result().Cookies() {
		if c.Name == CSRFCookieName {
			cookie = c
		}
	}
	if cookie == nil {
		t.Fatal("csrf cookie not set")
	}

	return body["token"], cookie
}

// login performs POST /api/auth/login with a valid CSRF pair.
func (h *testHarness) login(t *testing.T, username, password string) *httptest.ResponseRecorder {
	t.Helper()

	token, cookie := h.fetchCSRF(t)

	body, _ := json.Marshal(models.LoginRequest{Username: username, Password: password})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body))
	req.Header.Set(CSRFHeaderName, token)
	req.AddCookie(cookie)

	rec := httptest.NewRecorder()
	h.handlers.Login(rec, req)
	return rec
}

func TestCSRFTokenEndpoint(t *testing.T) {
	h := newTestHarness(t)

	token, cookie := h.fetchCSRF(t)

	if len(token) != 64 {
		t.Errorf("token length = %d, want 64", len(token))
	}
	if !cookie.HttpOnly {
		t.Error("csrf cookie not HttpOnly")
	}
	if cookie.SameSite != http.SameSiteLaxMode {
		t.Error("csrf cookie SameSite != Lax")
	}
	if cookie.Value == token {
		t.Error("csrf cookie holds plaintext token")
	}
}

func TestLoginSuccess(t *testing.T) {
	h := newTestHarness(t)

	rec := h.login(t, "alice", "correct-password")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Success bool            `json:"success"`
		User    models.Identity `json:"user"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("body: %v", err)
	}
	if !body.Success {
		t.Error("success = false")
	}
	if body.User.Username != "alice" || body.User.Role != models.RoleAdmin {
		t.Errorf("user = %+v", body.User)
	}
	if strings.Contains(rec.Body.String(), "password") {
		t.Error("response leaks a password field")
	}

	var session *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == SessionCookieName {
			session = c
		}
	}
	if session == nil {
		t.Fatal("session cookie not set")
	}
	if !session.HttpOnly {
		t.Error("session cookie not HttpOnly")
	}

	claims, err := h.jwt.ValidateToken(session.Value)
	if err != nil {
		t.Fatalf("session cookie does not validate: %v", err)
	}
	if claims.Username != "alice" {
		t.Errorf("claims.Username = %q", claims.Username)
	}
}

func TestLoginFailures(t *testing.T) {
	tests := []struct {
		name        string
		prepare     func(t *testing.T, h *testHarness, req *http.Request)
		wantStatus  int
		wantMessage string
	}{
		{
			name: "missing csrf cookie",
			prepare: func(t *testing.T, h *testHarness, req *http.Request) {
				token, _ := h.fetchCSRF(t)
				req.Header.Set(CSRFHeaderName, token)
			},
			wantStatus:  http.StatusForbidden,
			wantMessage: "Invalid CSRF token",
		},
		{
			name: "missing csrf header",
			prepare: func(t *testing.T, h *testHarness, req *http.Request) {
				_, cookie := h.fetchCSRF(t)
				req.AddCookie(cookie)
			},
			wantStatus:  http.StatusForbidden,
			wantMessage: "Invalid CSRF token",
		},
		{
			name: "mismatched csrf token",
			prepare: func(t *testing.T, h *testHarness, req *http.Request) {
				_, cookie := h.fetchCSRF(t)
				req.AddCookie(cookie)
				req.Header.Set(CSRFHeaderName, strings.Repeat("0", 64))
			},
			wantStatus:  http.StatusForbidden,
			wantMessage: "Invalid CSRF token",
		},
		{
			name:        "wrong password",
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "Invalid username or password",
		},
		{
			name:        "unknown user",
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "Invalid username or password",
		},
	}

	bodies := map[string]models.LoginRequest{
		"missing csrf cookie":   {Username: "alice", Password: "correct-password"},
		"missing csrf header":   {Username: "alice", Password: "correct-password"},
		"mismatched csrf token": {Username: "alice", Password: "correct-password"},
		"wrong password":        {Username: "alice", Password: "wrong"},
		"unknown user":          {Username: "ghost", Password: "correct-password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHarness(t)

			payload, _ := json.Marshal(bodies[tt.name])
			req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(payload))

			if tt.prepare != nil {
				tt.prepare(t, h, req)
			} else {
				token, cookie := h.fetchCSRF(t)
				req.Header.Set(CSRFHeaderName, token)
				req.AddCookie(cookie)
			}

			rec := httptest.NewRecorder()
			h.handlers.Login(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if !strings.Contains(rec.Body.String(), tt.wantMessage) {
				t.Errorf("body = %s, want containing %q", rec.Body.String(), tt.wantMessage)
			}

			for _, c := range rec.Result().Cookies() {
				if c.Name == SessionCookieName {
					t.Error("session cookie set on failed login")
				}
			}
		})
	}
}

func TestLoginMissingFields(t *testing.T) {
	h := newTestHarness(t)
	token, cookie := h.fetchCSRF(t)

	tests := []struct {
		name string
		body string
	}{
		{name: "empty username", body: `{"username":"","password":"x"}`},
		{name: "empty password", body: `{"username":"alice","password":""}`},
		{name: "empty body", body: `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(tt.body))
			req.Header.Set(CSRFHeaderName, token)
			req.AddCookie(cookie)

			rec := httptest.NewRecorder()
			h.handlers.Login(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestLoginThrottled(t *testing.T) {
	h := newTestHarness(t)
	h.handlers.throttle = NewLoginThrottle(2, time.Hour)

	for i := 0; i < 2; i++ {
		if rec := h.login(t, "alice", "wrong"); rec.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d status = %d", i+1, rec.Code)
		}
	}

	rec := h.login(t, "alice", "wrong")
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", rec.Code)
	}
}

func TestLogout(t *testing.T) {
	h := newTestHarness(t)

	rec := httptest.NewRecorder()
	h.handlers.Logout(rec, httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var cleared *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == SessionCookieName {
			cleared = c
		}
	}
	if cleared == nil {
		t.Fatal("session cookie not present in logout response")
	}
	if cleared.MaxAge != -1 || cleared.Value != "" {
		t.Errorf("cookie not cleared: MaxAge=%d Value=%q", cleared.MaxAge, cleared.Value)
	}
}

func TestCheck(t *testing.T) {
	h := newTestHarness(t)

	validToken, err := h.jwt.GenerateToken(models.Identity{ID: 1, Username: "alice", Role: models.RoleAdmin})
	if err != nil {
		t.Fatalf("GenerateToken() error: %v", err)
	}

	tests := []struct {
		name              string
		cookie            string
		wantAuthenticated bool
	}{
		{name: "no cookie", wantAuthenticated: false},
		{name: "garbage cookie", cookie: "garbage", wantAuthenticated: false},
		{name: "valid cookie", cookie: validToken, wantAuthenticated: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/auth/check", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: tt.cookie})
			}

			rec := httptest.NewRecorder()
			h.handlers.Check(rec, req)

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rec.Code)
			}

			var body struct {
				Authenticated bool `json:"authenticated"`
				User          *struct {
					Username string `json:"username"`
					Role     string `json:"role"`
				} `json:"user"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("body: %v", err)
			}
			if body.Authenticated != tt.wantAuthenticated {
				t.Errorf("authenticated = %v, want %v", body.Authenticated, tt.wantAuthenticated)
			}
			if tt.wantAuthenticated && (body.User == nil || body.User.Username != "alice") {
				t.Errorf("user = %+v", body.User)
			}
		})
	}
}

func TestChangePasswordHandler(t *testing.T) {
	makeBody := func(current, next string) string {
		b, _ := json.Marshal(models.ChangePasswordRequest{CurrentPassword: current, NewPassword: next})
		return string(b)
	}

	tests := []struct {
		name        string
		withSession bool
		body        string
		wantStatus  int
		wantMessage string
	}{
		{
			name:        "no session",
			body:        makeBody("correct-password", "new-password-1"),
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "Not authenticated",
		},
		{
			name:        "success",
			withSession: true,
			body:        makeBody("correct-password", "new-password-1"),
			wantStatus:  http.StatusOK,
		},
		{
			name:        "wrong current password",
			withSession: true,
			body:        makeBody("nope", "new-password-1"),
			wantStatus:  http.StatusBadRequest,
			wantMessage: "Current password is incorrect",
		},
		{
			name:        "short new password",
			withSession: true,
			body:        makeBody("correct-password", "short"),
			wantStatus:  http.StatusBadRequest,
			wantMessage: "at least 8 characters",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHarness(t)

			req := httptest.NewRequest(http.MethodPost, "/api/auth/change-password", strings.NewReader(tt.body))
			if tt.withSession {
				token, err := h.jwt.GenerateToken(models.Identity{ID: 1, Username: "alice", Role: models.RoleAdmin})
				if err != nil {
					t.Fatalf("GenerateToken() error: %v", err)
				}
				req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: token})
			}

			rec := httptest.NewRecorder()
			h.handlers.ChangePassword(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantMessage != "" && !strings.Contains(rec.Body.String(), tt.wantMessage) {
				t.Errorf("body = %s, want containing %q", rec.Body.String(), tt.wantMessage)
			}

			if tt.wantStatus == http.StatusOK {
				// New password now authenticates.
				if rec := h.login(t, "alice", "new-password-1"); rec.Code != http.StatusOK {
					t.Errorf("login with new password failed: %d", rec.Code)
				}
			}
		})
	}
}
