// Veridian Web - Marketing Site and Admin Back Office
// Copyright 2026 Veridian Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/veridianlabs/veridian-web

package auth

import (
	"context"
	"net/http"
	"net/url"
	"strings"
)

type contextKey string

// ClaimsContextKey stores verified session claims in the request context.
const ClaimsContextKey contextKey = "claims"

// LoginPath is where unauthenticated admin requests are redirected.
const LoginPath = "/admin/login"

// publicAPIPrefixes lists /api paths reachable without a session.
// Everything under /api not matching one of these requires a valid
// session cookie.
var publicAPIPrefixes = []string{
	"/api/auth/",
	"/api/health",
	"/api/setup",
	"/api/contact",
	"/api/blogs",
	"/api/jobs",
	"/api/applications",
	"/api/upload",
	"/api/resume-url",
}

// Guard is the route-protection middleware. It verifies the session
// cookie exactly once per request for protected paths, injects claims
// into the request context, and redirects failures to the admin login
// page carrying the original path in the "from" query parameter.
//
// The guard is stateless: every decision comes from the request itself
// plus signature verification.
type Guard struct {
	jwt *JWTManager
}

// NewGuard creates a Guard.
func NewGuard(jwt *JWTManager) *Guard {
	return &Guard{jwt: jwt}
}

// Protect wraps next with route protection for /admin and /api paths.
// Paths outside those prefixes, the login page, and the public API
// allow-list pass through untouched.
func (g *Guard) Protect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path

		if !g.requiresSession(path) {
			next.ServeHTTP(w, r)
			return
		}

		claims, ok := g.verifyCookie(r)
		if !ok {
			g.redirectToLogin(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), ClaimsContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requiresSession reports whether the path is a protected route.
func (g *Guard) requiresSession(path string) bool {
	switch {
	case strings.HasPrefix(path, "/admin"):
		// The login page itself must stay reachable.
		return path != LoginPath
	case strings.HasPrefix(path, "/api"):
		for _, prefix := range publicAPIPrefixes {
			if strings.HasPrefix(path, prefix) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// verifyCookie performs the single session verification for a request.
func (g *Guard) verifyCookie(r *http.Request) (*Claims, bool) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return nil, false
	}

	claims, err := g.jwt.ValidateToken(cookie.Value)
	if err != nil {
		RecordTokenVerification(false)
		return nil, false
	}

	RecordTokenVerification(true)
	return claims, true
}

// redirectToLogin sends a 302 to the login page with the original path
// preserved so the front end can return the user after login.
func (g *Guard) redirectToLogin(w http.ResponseWriter, r *http.Request) {
	target := LoginPath + "?from=" + url.QueryEscape(r.URL.Path)
	http.Redirect(w, r, target, http.StatusFound)
}

// ClaimsFromContext retrieves verified session claims placed by the
// guard or by a handler that validated the cookie itself.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(ClaimsContextKey).(*Claims)
	return claims, ok
}
