// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Custos Contributors

// Package auth provides the identity and access control core for Custos:
// credential storage contracts, password hashing, signed-token issuance and
// verification, the password-reset lifecycle, and the authentication service
// that orchestrates them.
package auth

import (
	"context"
	"regexp"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// emailRegex is a permissive structural check: local part, one @, and a
// domain with at least one dot. Deliverability is the mail server's problem.
var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// User is a principal: an identity that can authenticate and carry a role.
type User struct {
	ID           ulid.ULID
	Email        string
	PasswordHash string
	Role         Role
	IsVerified   bool

	// PasswordResetToken holds the SHA-256 digest of the currently pending
	// reset token, or nil when no reset is pending. PasswordResetExpires is
	// nil exactly when PasswordResetToken is nil.
	PasswordResetToken   *string
	PasswordResetExpires *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewUser creates a validated User with a fresh ID and no pending reset.
// Direct struct initialization bypasses validation; repositories expect
// instances produced here.
func NewUser(email, passwordHash string, role Role, verified bool) (*User, error) {
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if passwordHash == "" {
		return nil, oops.Code("AUTH_EMPTY_HASH").Errorf("password hash cannot be empty")
	}
	if !role.Valid() {
		return nil, oops.Code("AUTH_INVALID_ROLE").
			With("role", string(role)).
			Errorf("unknown role %q", string(role))
	}

	now := time.Now()
	return &User{
		ID:           ulid.Make(),
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
		IsVerified:   verified,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// HasPendingReset reports whether a reset token is stored for the user.
func (u *User) HasPendingReset() bool {
	return u.PasswordResetToken != nil
}

// View is the external representation of a principal with secret
// fields (password hash, reset token material) stripped.
type View struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	Role       Role      `json:"role"`
	IsVerified bool      `json:"isVerified"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// View returns the secret-free representation of the user.
func (u *User) View() View {
	return View{
		ID:         u.ID.String(),
		Email:      u.Email,
		Role:       u.Role,
		IsVerified: u.IsVerified,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}

// ValidateEmail checks the structural shape of an email address.
func ValidateEmail(email string) error {
	if email == "" {
		return oops.Code("AUTH_INVALID_EMAIL").Errorf("email cannot be empty")
	}
	if !emailRegex.MatchString(email) {
		return oops.Code("AUTH_INVALID_EMAIL").
			With("email", email).
			Errorf("malformed email address")
	}
	return nil
}

// UserRepository is the narrow credential-store contract. Implementations
// must make each method a single atomic operation against the backing store;
// callers rely on that atomicity instead of holding locks.
type UserRepository interface {
	// Create stores a new user. Returns an error wrapping ErrDuplicateEmail
	// if the email is already taken.
	Create(ctx context.Context, user *User) error

	// GetByID retrieves a user by ID. Returns an error wrapping ErrNotFound
	// if absent.
	GetByID(ctx context.Context, id ulid.ULID) (*User, error)

	// GetByEmail retrieves a user by email (exact, case-sensitive match).
	GetByEmail(ctx context.Context, email string) (*User, error)

	// GetByResetToken retrieves the user whose stored reset-token digest
	// matches tokenHash, whose email matches, and whose reset expiry is
	// still in the future.
	GetByResetToken(ctx context.Context, email, tokenHash string) (*User, error)

	// SetResetToken atomically writes the reset-token digest and expiry,
	// replacing any previously stored pair.
	SetResetToken(ctx context.Context, id ulid.ULID, tokenHash string, expires time.Time) error

	// ClearResetToken atomically nulls both reset fields.
	ClearResetToken(ctx context.Context, id ulid.ULID) error

	// CompleteReset atomically replaces the password hash, nulls both reset
	// fields, and marks the user verified.
	CompleteReset(ctx context.Context, id ulid.ULID, passwordHash string) error

	// ExistsByRole reports whether any user carries the given role.
	ExistsByRole(ctx context.Context, role Role) (bool, error)
}
