// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Custos Contributors

package auth

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// DefaultResetTTL is used when no reset-token lifetime is configured.
const DefaultResetTTL = time.Hour

// errResetTokenInvalid is the single failure a caller of Consume can see.
// Invalid signature, unknown token, expired token and already-used token are
// deliberately indistinguishable.
var errResetTokenInvalid = errors.New("invalid or expired reset token")

// HashResetToken computes the hex SHA-256 digest of a reset token. Only the
// digest is persisted; the plaintext token travels to the user by email.
func HashResetToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

// VerifyResetToken reports whether the plaintext token matches the stored
// digest, comparing in constant time.
func VerifyResetToken(token, hash string) bool {
	if token == "" || hash == "" {
		return false
	}
	computed := HashResetToken(token)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(hash)) == 1
}

// ResetCoordinator owns the per-principal reset-token state machine:
// NoResetPending -> ResetIssued (Issue, re-issue overwrites) and
// ResetIssued -> NoResetPending (Consume succeeds, or any failed Consume
// proactively clears the stored token).
type ResetCoordinator struct {
	users  UserRepository
	codec  TokenCodec
	hasher PasswordHasher
	ttl    time.Duration
}

// NewResetCoordinator creates a ResetCoordinator. A non-positive ttl falls
// back to DefaultResetTTL.
func NewResetCoordinator(users UserRepository, codec TokenCodec, hasher PasswordHasher, ttl time.Duration) (*ResetCoordinator, error) {
	if users == nil {
		return nil, oops.Errorf("user repository is required")
	}
	if codec == nil {
		return nil, oops.Errorf("token codec is required")
	}
	if hasher == nil {
		return nil, oops.Errorf("password hasher is required")
	}
	if ttl <= 0 {
		ttl = DefaultResetTTL
	}
	return &ResetCoordinator{users: users, codec: codec, hasher: hasher, ttl: ttl}, nil
}

// TTL returns the configured reset-token lifetime.
func (c *ResetCoordinator) TTL() time.Duration {
	return c.ttl
}

// Issue signs a reset token for the user and atomically stores its digest
// and expiry, silently invalidating any previously pending token. The
// plaintext token is returned for delivery by the email collaborator.
func (c *ResetCoordinator) Issue(ctx context.Context, user *User) (string, error) {
	claims := Claims{Purpose: PurposeReset}
	claims.Subject = user.Email
	// JWT timestamps have second precision, so without a per-issue claim two
	// tokens minted in the same second would be byte-identical and a
	// superseded token would still match the newest digest.
	claims.ID = ulid.Make().String()
	token, err := c.codec.Sign(claims, c.ttl)
	if err != nil {
		return "", oops.Code("AUTH_RESET_ISSUE_FAILED").
			With("operation", "sign reset token").
			Wrap(err)
	}

	expires := time.Now().Add(c.ttl)
	if err := c.users.SetResetToken(ctx, user.ID, HashResetToken(token), expires); err != nil {
		return "", oops.Code("AUTH_RESET_ISSUE_FAILED").
			With("operation", "store reset token").
			Wrap(err)
	}

	return token, nil
}

// Consume redeems a reset token exactly once: it verifies the token, finds
// the principal holding its digest with an unexpired window, replaces the
// password hash, clears the reset fields and marks the account verified.
//
// Every failure path first attempts to null the stored reset fields for the
// token's claimed subject, so a leaked token cannot be retried indefinitely.
// That cleanup is best-effort and never masks the invalid-token failure the
// caller sees.
func (c *ResetCoordinator) Consume(ctx context.Context, token, newPassword string) error {
	claims, err := c.codec.Verify(token)
	if err != nil {
		c.clearStale(ctx, peekSubject(token))
		return invalidResetToken()
	}

	if claims.Purpose != PurposeReset {
		// A structurally valid session token presented as a reset token.
		c.clearStale(ctx, claims.Subject)
		return invalidResetToken()
	}

	user, err := c.users.GetByResetToken(ctx, claims.Subject, HashResetToken(token))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			c.clearStale(ctx, claims.Subject)
			return invalidResetToken()
		}
		return oops.Code("AUTH_RESET_CONSUME_FAILED").
			With("operation", "lookup by reset token").
			Wrap(err)
	}

	newHash, err := c.hasher.Hash(newPassword)
	if err != nil {
		return oops.Code("AUTH_RESET_CONSUME_FAILED").
			With("operation", "hash new password").
			Wrap(err)
	}

	if err := c.users.CompleteReset(ctx, user.ID, newHash); err != nil {
		return oops.Code("AUTH_RESET_CONSUME_FAILED").
			With("operation", "complete reset").
			Wrap(err)
	}

	return nil
}

// clearStale nulls any stored reset fields for the email, if such a user
// exists. Failures are swallowed: cleanup must never escalate past the
// invalid-token error the caller is about to receive.
func (c *ResetCoordinator) clearStale(ctx context.Context, email string) {
	if email == "" {
		return
	}
	user, err := c.users.GetByEmail(ctx, email)
	if err != nil {
		return
	}
	_ = c.users.ClearResetToken(ctx, user.ID) //nolint:errcheck // best effort
}

func invalidResetToken() error {
	return oops.Code("AUTH_RESET_TOKEN_INVALID").Wrap(errResetTokenInvalid)
}
