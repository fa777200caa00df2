// Veridian Web - Marketing Site and Admin Back Office
// Copyright 2026 Veridian Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/veridianlabs/veridian-web

package authz

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/veridianlabs/veridian-web/internal/auth"
	"github.com/veridianlabs/veridian-web/internal/logging"
)

// RequireAccess enforces the role policy for requests that already
// passed the session guard. The guard answers "who are you"; this
// middleware answers "may this role touch this path".
func (e *Enforcer) RequireAccess(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := auth.ClaimsFromContext(r.Context())
		if !ok {
			forbid(w)
			return
		}

		if !e.Enforce(claims.Role, r.URL.Path, r.Method) {
			logging.Ctx(r.Context()).Warn().
				Str("role", claims.Role).
				Str("path", r.URL.Path).
				Str("method", r.Method).
				Msg("Access denied by policy")
			forbid(w)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func forbid(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	//nolint:errcheck // best-effort error body
	json.NewEncoder(w).Encode(map[string]string{"error": "Forbidden"})
}
