// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Custos Contributors

package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/samber/oops"
)

// PurposeReset tags tokens that authorize exactly one password change.
// Session tokens carry no purpose, so neither kind can be replayed as the
// other.
const PurposeReset = "reset-password"

// Claims are the signed assertions carried by a Custos token. Subject is
// always set; the remaining fields depend on the token kind.
type Claims struct {
	jwt.RegisteredClaims
	Email   string `json:"email,omitempty"`
	Role    Role   `json:"role,omitempty"`
	Purpose string `json:"purpose,omitempty"`
}

// TokenCodec signs and verifies compact, expiring, tamper-evident claims.
type TokenCodec interface {
	// Sign issues a token for the claims, embedding an expiry of now+ttl.
	Sign(claims Claims, ttl time.Duration) (string, error)

	// Verify parses and validates a token. Verification is all-or-nothing:
	// a bad signature, malformed structure, unexpected algorithm or expired
	// token all fail, and no claims are returned.
	Verify(token string) (*Claims, error)
}

// HS256Codec implements TokenCodec with HMAC-SHA256 signatures. The signing
// key is process-wide and immutable after startup; rotating it invalidates
// every previously issued token.
type HS256Codec struct {
	secret []byte
}

// NewHS256Codec creates a codec from the configured signing secret.
func NewHS256Codec(secret string) (*HS256Codec, error) {
	if secret == "" {
		return nil, oops.Code("CONFIG_INVALID").Errorf("jwt secret cannot be empty")
	}
	return &HS256Codec{secret: []byte(secret)}, nil
}

// Sign issues a signed token valid for ttl.
func (c *HS256Codec) Sign(claims Claims, ttl time.Duration) (string, error) {
	if claims.Subject == "" {
		return "", oops.Code("AUTH_TOKEN_SIGN_FAILED").Errorf("claims subject cannot be empty")
	}
	if ttl <= 0 {
		return "", oops.Code("AUTH_TOKEN_SIGN_FAILED").
			With("ttl", ttl.String()).
			Errorf("token ttl must be positive")
	}

	now := time.Now()
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", oops.Code("AUTH_TOKEN_SIGN_FAILED").Wrap(err)
	}
	return signed, nil
}

// Verify parses and validates a token, returning its claims.
func (c *HS256Codec) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(_ *jwt.Token) (any, error) {
		return c.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, oops.Code("AUTH_TOKEN_INVALID").Wrap(err)
	}
	if !token.Valid || claims.Subject == "" {
		return nil, oops.Code("AUTH_TOKEN_INVALID").Errorf("invalid token")
	}
	return claims, nil
}

// peekSubject extracts the claimed subject from a token without verifying
// the signature. Used only for best-effort cleanup of stale reset state;
// nothing returned here is ever trusted.
func peekSubject(tokenString string) string {
	claims := &Claims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(tokenString, claims); err != nil {
		return ""
	}
	return claims.Subject
}
