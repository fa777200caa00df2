// Veridian Web - Marketing Site and Admin Back Office
// Copyright 2026 Veridian Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/veridianlabs/veridian-web

// Package api assembles the HTTP router: public marketing routes, the
// auth endpoints, the setup flow, and the guarded admin surface.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/veridianlabs/veridian-web/internal/auth"
	"github.com/veridianlabs/veridian-web/internal/authz"
	"github.com/veridianlabs/veridian-web/internal/config"
	"github.com/veridianlabs/veridian-web/internal/metrics"
	"github.com/veridianlabs/veridian-web/internal/middleware"
)

// Router bundles the collaborators the HTTP surface needs. PublicContent
// and AdminUI are injectable so the marketing site and back-office UI
// can be served by whatever frontend pipeline the deployment uses.
type Router struct {
	cfg      *config.Config
	handlers *auth.Handlers
	guard    *auth.Guard
	enforcer *authz.Enforcer
	setup    *SetupHandlers
	health   *HealthHandlers

	// PublicContent serves the marketing site. Defaults to 404.
	PublicContent http.Handler

	// AdminUI serves the back-office pages, including /admin/login.
	// Defaults to 404.
	AdminUI http.Handler

	// AdminAPI serves the /api/admin content-management endpoints.
	// Defaults to 404.
	AdminAPI http.Handler
}

// NewRouter creates a Router with default 404 content handlers.
func NewRouter(cfg *config.Config, handlers *auth.Handlers, guard *auth.Guard, enforcer *authz.Enforcer, setup *SetupHandlers, health *HealthHandlers) *Router {
	return &Router{
		cfg:           cfg,
		handlers:      handlers,
		guard:         guard,
		enforcer:      enforcer,
		setup:         setup,
		health:        health,
		PublicContent: http.NotFoundHandler(),
		AdminUI:       http.NotFoundHandler(),
		AdminAPI:      http.NotFoundHandler(),
	}
}

// Handler builds the chi mux.
//
// The session guard wraps the whole tree. It only challenges paths that
// need a session, so public routes pass through untouched; this keeps
// the protected-path logic in one place instead of per-route wiring.
func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.SecurityHeaders(rt.cfg.IsProduction()))
	r.Use(middleware.PrometheusMetrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   rt.cfg.Security.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", auth.CSRFHeaderName},
		AllowCredentials: true,
		MaxAge:           86400,
	}))
	r.Use(rt.guard.Protect)

	if !rt.cfg.Security.RateLimitDisabled {
		r.Use(httprate.Limit(
			rt.cfg.Security.RateLimitReqs,
			rt.cfg.Security.RateLimitWindow,
			httprate.WithKeyFuncs(httprate.KeyByIP),
			httprate.WithLimitHandler(rateLimited),
		))
	}

	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", rt.health.Status)
		r.Get("/health/live", rt.health.Live)
		r.Get("/health/ready", rt.health.Ready)

		r.Get("/setup", rt.setup.Status)
		r.Post("/setup", rt.setup.CreateFirstAdmin)

		r.Route("/auth", func(r chi.Router) {
			r.Get("/csrf", rt.handlers.CSRFToken)
			r.With(httprate.Limit(
				rt.cfg.Security.LoginAttempts,
				loginRateWindow(rt.cfg.Security.LoginWindow),
				httprate.WithKeyFuncs(httprate.KeyByIP),
				httprate.WithLimitHandler(loginRateLimited),
			)).Post("/login", rt.handlers.Login)
			r.Post("/logout", rt.handlers.Logout)
			r.Get("/check", rt.handlers.Check)
			r.Post("/change-password", rt.handlers.ChangePassword)
		})

		// Guarded by the session middleware; the enforcer adds the
		// role check on top.
		r.Route("/admin", func(r chi.Router) {
			r.Use(rt.enforcer.RequireAccess)
			r.Handle("/", rt.AdminAPI)
			r.Handle("/*", rt.AdminAPI)
		})
	})

	r.Route("/admin", func(r chi.Router) {
		r.Get("/login", rt.AdminUI.ServeHTTP)
		r.Group(func(r chi.Router) {
			r.Use(rt.enforcer.RequireAccess)
			r.Handle("/", rt.AdminUI)
			r.Handle("/*", rt.AdminUI)
		})
	})

	r.NotFound(rt.PublicContent.ServeHTTP)

	return r
}

func loginRateLimited(w http.ResponseWriter, r *http.Request) {
	metrics.RecordRateLimitHit(r.URL.Path)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	//nolint:errcheck // best-effort error body
	w.Write([]byte(`{"error":"Too many login attempts, try again later"}`))
}

func rateLimited(w http.ResponseWriter, r *http.Request) {
	metrics.RecordRateLimitHit(r.URL.Path)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	//nolint:errcheck // best-effort error body
	w.Write([]byte(`{"error":"Too many requests"}`))
}

// loginRateWindow guards against pathological config values when the
// window is zero.
func loginRateWindow(window time.Duration) time.Duration {
	if window <= 0 {
		return 5 * time.Minute
	}
	return window
}
