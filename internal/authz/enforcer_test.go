// Veridian Web - Marketing Site and Admin Back Office
// Copyright 2026 Veridian Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/veridianlabs/veridian-web

package authz

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/veridianlabs/veridian-web/internal/auth"
)

func TestEnforce(t *testing.T) {
	e, err := NewEnforcer()
	if err != nil {
		t.Fatalf("NewEnforcer() error: %v", err)
	}

	tests := []struct {
		name    string
		subject string
		object  string
		action  string
		want    bool
	}{
		{name: "admin on admin ui", subject: "admin", object: "/admin/users", action: "GET", want: true},
		{name: "admin on admin api", subject: "admin", object: "/api/admin/users", action: "DELETE", want: true},
		{name: "admin inherits editor paths", subject: "admin", object: "/admin/blogs/7", action: "PUT", want: true},
		{name: "editor on blogs", subject: "editor", object: "/admin/blogs/7", action: "PUT", want: true},
		{name: "editor on jobs api", subject: "editor", object: "/api/admin/jobs/3", action: "POST", want: true},
		{name: "editor on user management", subject: "editor", object: "/api/admin/users", action: "GET", want: false},
		{name: "unknown role", subject: "viewer", object: "/admin/blogs/7", action: "GET", want: false},
		{name: "empty subject", subject: "", object: "/admin/users", action: "GET", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := e.Enforce(tt.subject, tt.object, tt.action); got != tt.want {
				t.Errorf("Enforce(%q, %q, %q) = %v, want %v", tt.subject, tt.object, tt.action, got, tt.want)
			}
		})
	}
}

func TestRequireAccess(t *testing.T) {
	e, err := NewEnforcer()
	if err != nil {
		t.Fatalf("NewEnforcer() error: %v", err)
	}

	handler := e.RequireAccess(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name       string
		claims     *auth.Claims
		path       string
		wantStatus int
	}{
		{name: "no claims", path: "/api/admin/users", wantStatus: http.StatusForbidden},
		{name: "admin allowed", claims: &auth.Claims{Role: "admin"}, path: "/api/admin/users", wantStatus: http.StatusOK},
		{name: "editor denied", claims: &auth.Claims{Role: "editor"}, path: "/api/admin/users", wantStatus: http.StatusForbidden},
		{name: "editor allowed on blogs", claims: &auth.Claims{Role: "editor"}, path: "/api/admin/blogs/1", wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.claims != nil {
				ctx := context.WithValue(req.Context(), auth.ClaimsContextKey, tt.claims)
				req = req.WithContext(ctx)
			}

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}
