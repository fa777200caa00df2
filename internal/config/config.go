// Veridian Web - Marketing Site and Admin Back Office
// Copyright 2026 Veridian Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/veridianlabs/veridian-web

// Package config defines the application configuration and its layered
// loading via Koanf v2.
//
// Configuration Loading Order:
//  1. Defaults: built-in sensible defaults for all optional settings
//  2. Config File: optional YAML config file (config.yaml)
//  3. Environment Variables: override any setting
//
// Validation runs after loading and fails closed: a missing or weak
// session secret, or a missing encryption secret in production, prevents
// the server from starting.
//
// Example:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    logging.Fatal().Err(err).Msg("Failed to load config")
//	}
package config

import "time"

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Security SecurityConfig `koanf:"security"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host        string        `koanf:"host"`
	Port        int           `koanf:"port"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"`
}

// DatabaseConfig holds embedded database settings.
type DatabaseConfig struct {
	// Path to the DuckDB database file.
	Path string `koanf:"path"`

	// MaxMemory limits database engine memory usage (e.g. "512MB").
	MaxMemory string `koanf:"max_memory"`

	// Threads for the database engine. 0 means runtime.NumCPU().
	Threads int `koanf:"threads"`
}

// SecurityConfig holds authentication and session settings.
type SecurityConfig struct {
	// SessionSecret signs session tokens. Required, minimum 32 characters.
	SessionSecret string `koanf:"session_secret"`

	// EncryptionSecret keys the AES-256-CBC cipher protecting CSRF
	// cookies. Required in production; development falls back to a fixed
	// key and logs a warning.
	EncryptionSecret string `koanf:"encryption_secret"`

	// SessionTimeout is the signed lifetime of a session token.
	SessionTimeout time.Duration `koanf:"session_timeout"`

	// CSRFTimeout is the lifetime of an issued CSRF token.
	CSRFTimeout time.Duration `koanf:"csrf_timeout"`

	// BcryptCost is the bcrypt work factor for password hashing.
	BcryptCost int `koanf:"bcrypt_cost"`

	// AdminUsername and AdminPassword optionally seed the first admin
	// account at startup when the user store is empty.
	AdminUsername string `koanf:"admin_username"`
	AdminPassword string `koanf:"admin_password"`

	// LoginAttempts per username allowed within LoginWindow before the
	// login throttle rejects further attempts.
	LoginAttempts int           `koanf:"login_attempts"`
	LoginWindow   time.Duration `koanf:"login_window"`

	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`

	CORSOrigins []string `koanf:"cors_origins"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}
