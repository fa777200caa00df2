// Veridian Web - Marketing Site and Admin Back Office
// Copyright 2026 Veridian Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/veridianlabs/veridian-web

// Package main is the entry point for the Veridian Web server.
//
// Veridian Web serves the company marketing site and the admin back
// office behind a single HTTP server. Startup order:
//
//  1. Configuration: layered Koanf v2 sources (defaults, config.yaml,
//     environment variables)
//  2. Database: embedded DuckDB user store
//  3. Admin seeding: create the configured admin account when the
//     store is empty
//  4. Auth stack: bcrypt hasher, token cipher, CSRF manager, JWT
//     manager, login throttle
//  5. HTTP server: chi router under a suture supervisor tree
//
// For session signing and CSRF cookies:
//   - SESSION_SECRET: 32+ character secret for JWT signing (required)
//   - ENCRYPTION_SECRET: secret for CSRF cookie encryption (required
//     in production; a generated key is used in development)
//   - ADMIN_USERNAME / ADMIN_PASSWORD: seed account for first boot
//
// The server handles graceful shutdown on SIGINT and SIGTERM: it stops
// accepting connections, drains in-flight requests within the shutdown
// timeout, and closes the database.
package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/veridianlabs/veridian-web/internal/api"
	"github.com/veridianlabs/veridian-web/internal/auth"
	"github.com/veridianlabs/veridian-web/internal/authz"
	"github.com/veridianlabs/veridian-web/internal/config"
	"github.com/veridianlabs/veridian-web/internal/database"
	"github.com/veridianlabs/veridian-web/internal/logging"
	"github.com/veridianlabs/veridian-web/internal/supervisor"
	"github.com/veridianlabs/veridian-web/internal/supervisor/services"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("version", version).
		Str("environment", cfg.Server.Environment).
		Str("db_path", cfg.Database.Path).
		Msg("Starting Veridian Web")

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()

	hasher := auth.NewPasswordHasher(cfg.Security.BcryptCost)

	if err := seedAdminAccount(context.Background(), db, hasher, cfg); err != nil {
		logging.Fatal().Err(err).Msg("Failed to seed admin account")
	}

	cipher, err := newTokenCipher(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize token cipher")
	}

	jwt, err := auth.NewJWTManager(cfg.Security.SessionSecret, cfg.Security.SessionTimeout)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize session manager")
	}

	csrf := auth.NewCSRFManager(cipher, cfg.Security.CSRFTimeout)
	authenticator := auth.NewAuthenticator(db, hasher)
	throttle := auth.NewLoginThrottle(cfg.Security.LoginAttempts, cfg.Security.LoginWindow)
	handlers := auth.NewHandlers(authenticator, jwt, csrf, throttle, cfg.IsProduction())
	guard := auth.NewGuard(jwt)

	enforcer, err := authz.NewEnforcer()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize access policy")
	}

	router := api.NewRouter(cfg, handlers, guard, enforcer,
		api.NewSetupHandlers(db, hasher),
		api.NewHealthHandlers(db, version))

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       120 * time.Second,
	}

	treeConfig := supervisor.DefaultTreeConfig()
	tree := supervisor.NewTree(logging.NewSlogLogger(), treeConfig)
	tree.Add(services.NewHTTPServerService(server, treeConfig.ShutdownTimeout))
	tree.Add(throttle)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Str("addr", server.Addr).Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Application stopped gracefully")
}

// seedAdminAccount creates the configured admin user on first boot. A
// populated store is left untouched so the seed credentials cannot
// overwrite accounts managed through the back office.
func seedAdminAccount(ctx context.Context, db *database.DB, hasher *auth.PasswordHasher, cfg *config.Config) error {
	if cfg.Security.AdminUsername == "" || cfg.Security.AdminPassword == "" {
		return nil
	}

	count, err := db.CountUsers(ctx)
	if err != nil {
		return fmt.Errorf("failed to count users: %w", err)
	}
	if count > 0 {
		return nil
	}

	if len(cfg.Security.AdminPassword) < auth.MinPasswordLength {
		return fmt.Errorf("ADMIN_PASSWORD must be at least %d characters", auth.MinPasswordLength)
	}

	hash, err := hasher.Hash(cfg.Security.AdminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	user, err := db.CreateUser(ctx, cfg.Security.AdminUsername, hash, "admin")
	if err != nil {
		return fmt.Errorf("failed to create admin account: %w", err)
	}

	logging.Info().Str("username", user.Username).Msg("Seeded admin account")
	return nil
}

// newTokenCipher builds the CSRF cookie cipher. Production requires an
// explicit secret; development falls back to a per-process random key,
// which invalidates outstanding CSRF cookies on restart.
func newTokenCipher(cfg *config.Config) (*auth.TokenCipher, error) {
	secret := cfg.Security.EncryptionSecret
	if secret == "" {
		if cfg.IsProduction() {
			return nil, errors.New("ENCRYPTION_SECRET is required in production")
		}
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			return nil, fmt.Errorf("failed to generate development key: %w", err)
		}
		secret = hex.EncodeToString(buf)
		logging.Warn().Msg("ENCRYPTION_SECRET not set, using ephemeral development key")
	}

	return auth.NewTokenCipher(secret)
}
