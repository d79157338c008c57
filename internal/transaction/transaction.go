// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Custos Contributors

// Package transaction manages user-owned transaction records and their
// uploaded documents. Every read and write is scoped to the owning user;
// only the privileged listing crosses owners.
package transaction

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/oklog/ulid/v2"
)

// ErrNotFound indicates the transaction does not exist or belongs to a
// different user.
var ErrNotFound = errors.New("transaction not found")

// ErrFileNotFound indicates the requested stored document does not exist.
var ErrFileNotFound = errors.New("file not found")

// Transaction is a user-owned record with an optional stored document.
type Transaction struct {
	ID          ulid.ULID
	Title       string
	Description *string
	FilePath    *string
	UserID      ulid.ULID
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Repository is the transaction persistence contract.
type Repository interface {
	// Create stores a new transaction.
	Create(ctx context.Context, tx *Transaction) error

	// GetByIDForUser retrieves a transaction scoped to its owner. Returns an
	// error wrapping ErrNotFound when absent or owned by someone else.
	GetByIDForUser(ctx context.Context, id, userID ulid.ULID) (*Transaction, error)

	// Update persists title, description and file path changes.
	Update(ctx context.Context, tx *Transaction) error

	// Delete removes a transaction scoped to its owner.
	Delete(ctx context.Context, id, userID ulid.ULID) error

	// List returns a page of transactions across all users, newest first.
	List(ctx context.Context, offset, limit int) ([]*Transaction, error)

	// ListByUser returns a page of one user's transactions, newest first.
	ListByUser(ctx context.Context, userID ulid.ULID, offset, limit int) ([]*Transaction, error)
}

// FileStore persists uploaded documents.
type FileStore interface {
	// Save stores the content under a generated name derived from the
	// original filename's extension and returns the stored name.
	Save(ctx context.Context, originalName string, content io.Reader) (string, error)

	// Open returns the stored document for reading. Returns an error
	// wrapping ErrFileNotFound when absent.
	Open(name string) (io.ReadCloser, error)

	// Remove deletes a stored document.
	Remove(name string) error
}
