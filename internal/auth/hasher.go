// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Custos Contributors

package auth

import (
	"github.com/samber/oops"
	"golang.org/x/crypto/bcrypt"
)

// bcryptCost is the fixed work factor. Changing it requires a rebuild;
// hashes produced under the old cost keep verifying because bcrypt embeds
// the cost in the output.
const bcryptCost = 10

// ErrEmptyPassword is returned when attempting to hash an empty password.
var ErrEmptyPassword = oops.Code("AUTH_EMPTY_PASSWORD").Errorf("password cannot be empty")

// PasswordHasher provides one-way password hashing and verification.
type PasswordHasher interface {
	// Hash produces a salted one-way hash of the password.
	Hash(password string) (string, error)

	// Verify reports whether the password matches the hash. A malformed
	// hash is a mismatch, never an error.
	Verify(password, hash string) bool
}

// BcryptHasher implements PasswordHasher using bcrypt with a fixed cost.
// Each call salts independently, so equal passwords yield distinct hashes.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher creates a BcryptHasher at the build-time cost.
func NewBcryptHasher() *BcryptHasher {
	return &BcryptHasher{cost: bcryptCost}
}

// Hash produces a bcrypt hash of the password.
func (h *BcryptHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", oops.Code("AUTH_HASH_FAILED").Wrap(err)
	}
	return string(hash), nil
}

// Verify reports whether the password matches the hash. bcrypt compares in
// constant time; parse failures on garbage hashes surface as a mismatch.
func (h *BcryptHasher) Verify(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
