// Veridian Web - Marketing Site and Admin Back Office
// Copyright 2026 Veridian Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/veridianlabs/veridian-web

package api

import (
	"context"
	"net/http"
	"time"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandlers serves liveness and readiness probes.
type HealthHandlers struct {
	db      Pinger
	version string
}

// NewHealthHandlers creates the health probe handlers.
func NewHealthHandlers(db Pinger, version string) *HealthHandlers {
	return &HealthHandlers{db: db, version: version}
}

// Status reports overall health including the database check.
func (h *HealthHandlers) Status(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "ok"
	status := http.StatusOK
	if err := h.db.Ping(ctx); err != nil {
		dbStatus = "unavailable"
		status = http.StatusServiceUnavailable
	}

	respondJSON(w, status, map[string]string{
		"status":   statusWord(status),
		"database": dbStatus,
		"version":  h.version,
	})
}

// Live always reports 200 while the process is serving.
func (h *HealthHandlers) Live(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready reports 200 only when the database answers a ping.
func (h *HealthHandlers) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func statusWord(code int) string {
	if code == http.StatusOK {
		return "ok"
	}
	return "degraded"
}
