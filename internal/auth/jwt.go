// Veridian Web - Marketing Site and Admin Back Office
// Copyright 2026 Veridian Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/veridianlabs/veridian-web

package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/veridianlabs/veridian-web/internal/models"
)

// minSessionSecretLen is the minimum signing secret length. Anything
// shorter gives HS256 less than 256 bits of key material.
const minSessionSecretLen = 32

// DefaultSessionTimeout is the signed lifetime of a session token.
const DefaultSessionTimeout = 24 * time.Hour

// ErrInvalidToken is returned for any unusable session token: bad
// signature, expired, malformed, or wrong signing method.
var ErrInvalidToken = errors.New("invalid session token")

// Claims are the session token claims. The JSON field names are part of
// the cookie contract with the admin front end.
type Claims struct {
	UserID   int64  `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// JWTManager creates and validates HS256-signed session tokens.
//
// Tokens are stateless: there is no server-side session record and no
// revocation before natural expiry.
type JWTManager struct {
	secret  []byte
	timeout time.Duration
}

// NewJWTManager creates a session token manager. The secret must be at
// least 32 characters; this is enforced here so a misconfigured server
// fails at startup rather than signing weak tokens.
func NewJWTManager(secret string, timeout time.Duration) (*JWTManager, error) {
	if len(secret) < minSessionSecretLen {
		return nil, fmt.Errorf("session secret must be at least %d characters", minSessionSecretLen)
	}
	if timeout == 0 {
		timeout = DefaultSessionTimeout
	}

	return &JWTManager{
		secret:  []byte(secret),
		timeout: timeout,
	}, nil
}

// GenerateToken creates a signed session token for the authenticated
// identity, valid for the configured timeout.
func (m *JWTManager) GenerateToken(identity models.Identity) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:   identity.ID,
		Username: identity.Username,
		Role:     identity.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.timeout)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signedToken, nil
}

// ValidateToken validates a session token and extracts its claims.
// All failure modes collapse to ErrInvalidToken.
func (m *JWTManager) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// Reject any signing method other than HMAC. Accepting the
		// token's self-declared algorithm is the classic alg-confusion
		// vulnerability.
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// Timeout returns the configured token lifetime.
func (m *JWTManager) Timeout() time.Duration {
	return m.timeout
}
