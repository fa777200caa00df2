// Veridian Web - Marketing Site and Admin Back Office
// Copyright 2026 Veridian Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/veridianlabs/veridian-web

package auth

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/veridianlabs/veridian-web/internal/logging"
)

// throttleEntry pairs a limiter with its last use for idle eviction.
type throttleEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// LoginThrottle limits login attempts per username with a token bucket
// per key. It supplements the per-IP limits at the router: a distributed
// guessing attack against one account is throttled even when each source
// IP stays under its own limit.
//
// LoginThrottle implements suture.Service; Serve runs the idle-entry
// sweep until the context is canceled.
type LoginThrottle struct {
	mu       sync.Mutex
	limiters map[string]*throttleEntry

	limit rate.Limit
	burst int

	sweepInterval time.Duration
	maxIdle       time.Duration
}

// NewLoginThrottle creates a throttle allowing attempts per window for
// each username.
func NewLoginThrottle(attempts int, window time.Duration) *LoginThrottle {
	if attempts < 1 {
		attempts = 1
	}
	if window <= 0 {
		window = 5 * time.Minute
	}

	return &LoginThrottle{
		limiters:      make(map[string]*throttleEntry),
		limit:         rate.Every(window / time.Duration(attempts)),
		burst:         attempts,
		sweepInterval: 10 * time.Minute,
		maxIdle:       time.Hour,
	}
}

// Allow reports whether another login attempt for username may proceed.
func (t *LoginThrottle) Allow(username string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.limiters[username]
	if !ok {
		entry = &throttleEntry{
			limiter: rate.NewLimiter(t.limit, t.burst),
		}
		t.limiters[username] = entry
	}
	entry.lastSeen = time.Now()

	return entry.limiter.Allow()
}

// Serve runs the idle-entry sweep until ctx is canceled. Part of the
// suture.Service contract.
func (t *LoginThrottle) Serve(ctx context.Context) error {
	ticker := time.NewTicker(t.sweepInterval)
	defer ticker.Stop()

	logging.Debug().Dur("interval", t.sweepInterval).Msg("Login throttle sweep started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			t.sweep()
		}
	}
}

// sweep evicts limiters that have been idle longer than maxIdle.
func (t *LoginThrottle) sweep() {
	t.mu.Lock()
	defer t.mu.Unlock()

	cutoff := time.Now().Add(-t.maxIdle)
	removed := 0
	for username, entry := range t.limiters {
		if entry.lastSeen.Before(cutoff) {
			delete(t.limiters, username)
			removed++
		}
	}

	if removed > 0 {
		logging.Debug().Int("removed", removed).Msg("Login throttle sweep evicted idle entries")
	}
}

// String identifies the service in supervisor logs.
func (t *LoginThrottle) String() string {
	return "login-throttle"
}
