// Veridian Web - Marketing Site and Admin Back Office
// Copyright 2026 Veridian Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/veridianlabs/veridian-web

package auth

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LoginAttempts counts login attempts.
	// Labels:
	//   - outcome: "success", "invalid_credentials", "throttled", "error"
	LoginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_login_attempts_total",
			Help: "Total number of login attempts",
		},
		[]string{"outcome"},
	)

	// LoginDuration measures login latency including the bcrypt verify.
	LoginDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "auth_login_duration_seconds",
			Help: "Duration of login operations in seconds",
			// Auth latency range: 10ms to 10s (bcrypt dominates)
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)

	// CSRFValidations counts CSRF token validations.
	// Labels:
	//   - outcome: "valid", "invalid"
	CSRFValidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_csrf_validations_total",
			Help: "Total number of CSRF token validations",
		},
		[]string{"outcome"},
	)

	// TokenVerifications counts session token verifications by the guard
	// and the auth handlers.
	// Labels:
	//   - outcome: "valid", "invalid"
	TokenVerifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_token_verifications_total",
			Help: "Total number of session token verifications",
		},
		[]string{"outcome"},
	)

	// PasswordChanges counts password change attempts.
	// Labels:
	//   - outcome: "success", "invalid_current", "policy_violation", "error"
	PasswordChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_password_changes_total",
			Help: "Total number of password change attempts",
		},
		[]string{"outcome"},
	)
)

// RecordLogin records a login attempt and its outcome.
func RecordLogin(outcome string, duration time.Duration) {
	LoginAttempts.WithLabelValues(outcome).Inc()
	if outcome == "success" {
		LoginDuration.Observe(duration.Seconds())
	}
}

// RecordCSRFValidation records a CSRF validation outcome.
func RecordCSRFValidation(valid bool) {
	if valid {
		CSRFValidations.WithLabelValues("valid").Inc()
	} else {
		CSRFValidations.WithLabelValues("invalid").Inc()
	}
}

// RecordTokenVerification records a session token verification outcome.
func RecordTokenVerification(valid bool) {
	if valid {
		TokenVerifications.WithLabelValues("valid").Inc()
	} else {
		TokenVerifications.WithLabelValues("invalid").Inc()
	}
}

// RecordPasswordChange records a password change attempt outcome.
func RecordPasswordChange(outcome string) {
	PasswordChanges.WithLabelValues(outcome).Inc()
}
