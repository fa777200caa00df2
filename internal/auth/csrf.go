// Veridian Web - Marketing Site and Admin Back Office
// Copyright 2026 Veridian Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/veridianlabs/veridian-web

package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// csrfTokenBytes is the entropy of a CSRF token. Hex-encoded this
	// yields a 64 character token.
	csrfTokenBytes = 32

	// DefaultCSRFTTL is the lifetime of an issued CSRF token.
	DefaultCSRFTTL = time.Hour
)

// CSRFManager issues and validates CSRF tokens using the double-submit
// pattern. The token travels to the client in the response body while an
// encrypted copy with its expiry rides in a cookie. Validation decrypts
// the cookie, checks expiry, and compares tokens in constant time.
type CSRFManager struct {
	cipher *TokenCipher
	ttl    time.Duration

	// now is stubbed in tests.
	now func() time.Time
}

// NewCSRFManager creates a CSRFManager. TTL 0 selects DefaultCSRFTTL.
func NewCSRFManager(cipher *TokenCipher, ttl time.Duration) *CSRFManager {
	if ttl == 0 {
		ttl = DefaultCSRFTTL
	}
	return &CSRFManager{
		cipher: cipher,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue generates a fresh CSRF token. It returns the plaintext token for
// the response body and the encrypted cookie value binding the token to
// its expiry.
func (m *CSRFManager) Issue() (token, cookieValue string, err error) {
	raw := make([]byte, csrfTokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", "", fmt.Errorf("failed to generate CSRF token: %w", err)
	}
	token = hex.EncodeToString(raw)

	expiresAt := m.now().Add(m.ttl).UnixMilli()
	payload := fmt.Sprintf("%s|%d", token, expiresAt)

	cookieValue, err = m.cipher.Encrypt(payload)
	if err != nil {
		return "", "", fmt.Errorf("failed to encrypt CSRF payload: %w", err)
	}

	return token, cookieValue, nil
}

// Validate reports whether the supplied token matches the encrypted
// cookie value and has not expired. Any failure, including undecryptable
// or malformed cookies, returns false. No error detail escapes.
func (m *CSRFManager) Validate(cookieValue, supplied string) bool {
	if cookieValue == "" || supplied == "" {
		return false
	}

	payload, err := m.cipher.Decrypt(cookieValue)
	if err != nil {
		return false
	}

	token, expiresStr, found := strings.Cut(payload, "|")
	if !found {
		return false
	}

	expiresAt, err := strconv.ParseInt(expiresStr, 10, 64)
	if err != nil {
		return false
	}
	if m.now().UnixMilli() > expiresAt {
		return false
	}

	return subtle.ConstantTimeCompare([]byte(token), []byte(supplied)) == 1
}

// TTL returns the configured token lifetime.
func (m *CSRFManager) TTL() time.Duration {
	return m.ttl
}
