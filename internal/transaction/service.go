// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Custos Contributors

package transaction

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/custos-project/custos/internal/auth"
	"github.com/custos-project/custos/pkg/errutil"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// UserDirectory is the read-only principal lookup the service needs to
// validate owners. auth.Service satisfies it.
type UserDirectory interface {
	FindByID(ctx context.Context, id ulid.ULID) (*auth.User, error)
}

// Service orchestrates transaction records and their documents.
type Service struct {
	repo   Repository
	users  UserDirectory
	files  FileStore
	logger *slog.Logger
}

// NewService creates a Service. All collaborators are required.
func NewService(repo Repository, users UserDirectory, files FileStore, logger *slog.Logger) (*Service, error) {
	if repo == nil {
		return nil, oops.Errorf("transaction repository is required")
	}
	if users == nil {
		return nil, oops.Errorf("user directory is required")
	}
	if files == nil {
		return nil, oops.Errorf("file store is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, users: users, files: files, logger: logger}, nil
}

// Create stores a new transaction for userID. The document is mandatory on
// creation.
func (s *Service) Create(ctx context.Context, userID ulid.ULID, title string, description *string, filename string, content io.Reader) (*Transaction, error) {
	if title == "" {
		return nil, oops.Code("TRANSACTION_TITLE_REQUIRED").Errorf("title cannot be empty")
	}
	if content == nil {
		return nil, oops.Code("TRANSACTION_FILE_REQUIRED").Errorf("a document is required")
	}

	if _, err := s.users.FindByID(ctx, userID); err != nil {
		if errors.Is(err, auth.ErrNotFound) {
			return nil, oops.Code("TRANSACTION_USER_INVALID").
				With("user_id", userID.String()).
				Errorf("no principal with the given id")
		}
		return nil, oops.Code("TRANSACTION_CREATE_FAILED").
			With("operation", "look up owner").
			Wrap(err)
	}

	stored, err := s.files.Save(ctx, filename, content)
	if err != nil {
		return nil, oops.Code("TRANSACTION_CREATE_FAILED").
			With("operation", "store document").
			Wrap(err)
	}

	now := time.Now()
	tx := &Transaction{
		ID:          ulid.Make(),
		Title:       title,
		Description: description,
		FilePath:    &stored,
		UserID:      userID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, tx); err != nil {
		// The record never existed; don't leave its document behind.
		//nolint:errcheck // best effort
		s.files.Remove(stored)
		return nil, oops.Code("TRANSACTION_CREATE_FAILED").
			With("operation", "store transaction").
			Wrap(err)
	}
	return tx, nil
}

// Update changes title and description, and replaces the document when a
// new one is supplied. The previous document is removed best effort.
func (s *Service) Update(ctx context.Context, id, userID ulid.ULID, title string, description *string, filename string, content io.Reader) (*Transaction, error) {
	if title == "" {
		return nil, oops.Code("TRANSACTION_TITLE_REQUIRED").Errorf("title cannot be empty")
	}

	tx, err := s.GetByID(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	tx.Title = title
	tx.Description = description

	if content != nil {
		stored, err := s.files.Save(ctx, filename, content)
		if err != nil {
			return nil, oops.Code("TRANSACTION_UPDATE_FAILED").
				With("operation", "store replacement document").
				Wrap(err)
		}
		if tx.FilePath != nil {
			s.removeFile(*tx.FilePath)
		}
		tx.FilePath = &stored
	}

	tx.UpdatedAt = time.Now()
	if err := s.repo.Update(ctx, tx); err != nil {
		return nil, oops.Code("TRANSACTION_UPDATE_FAILED").
			With("operation", "update transaction").
			With("id", id.String()).
			Wrap(err)
	}
	return tx, nil
}

// GetByID retrieves a transaction scoped to its owner: a record owned by
// someone else is indistinguishable from a missing one.
func (s *Service) GetByID(ctx context.Context, id, userID ulid.ULID) (*Transaction, error) {
	tx, err := s.repo.GetByIDForUser(ctx, id, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code("TRANSACTION_NOT_FOUND").
				With("id", id.String()).
				Wrap(ErrNotFound)
		}
		return nil, oops.Code("TRANSACTION_GET_FAILED").
			With("operation", "get transaction").
			With("id", id.String()).
			Wrap(err)
	}
	return tx, nil
}

// Delete removes a transaction and its document, scoped to the owner.
func (s *Service) Delete(ctx context.Context, id, userID ulid.ULID) error {
	tx, err := s.GetByID(ctx, id, userID)
	if err != nil {
		return err
	}
	if tx.FilePath != nil {
		s.removeFile(*tx.FilePath)
	}
	if err := s.repo.Delete(ctx, id, userID); err != nil {
		return oops.Code("TRANSACTION_DELETE_FAILED").
			With("operation", "delete transaction").
			With("id", id.String()).
			Wrap(err)
	}
	return nil
}

// ListAll returns a page of transactions across all users.
func (s *Service) ListAll(ctx context.Context, page, limit int) ([]*Transaction, error) {
	offset, limit := normalizePage(page, limit)
	txs, err := s.repo.List(ctx, offset, limit)
	if err != nil {
		return nil, oops.Code("TRANSACTION_LIST_FAILED").
			With("operation", "list transactions").
			Wrap(err)
	}
	return txs, nil
}

// ListByUser returns a page of one user's transactions.
func (s *Service) ListByUser(ctx context.Context, userID ulid.ULID, page, limit int) ([]*Transaction, error) {
	offset, limit := normalizePage(page, limit)
	txs, err := s.repo.ListByUser(ctx, userID, offset, limit)
	if err != nil {
		return nil, oops.Code("TRANSACTION_LIST_FAILED").
			With("operation", "list transactions by user").
			With("user_id", userID.String()).
			Wrap(err)
	}
	return txs, nil
}

// OpenFile returns a stored document for reading.
func (s *Service) OpenFile(name string) (io.ReadCloser, error) {
	rc, err := s.files.Open(name)
	if err != nil {
		if errors.Is(err, ErrFileNotFound) {
			return nil, oops.Code("TRANSACTION_FILE_NOT_FOUND").
				With("name", name).
				Wrap(ErrFileNotFound)
		}
		return nil, oops.Code("TRANSACTION_FILE_FAILED").
			With("operation", "open document").
			With("name", name).
			Wrap(err)
	}
	return rc, nil
}

func (s *Service) removeFile(name string) {
	if err := s.files.Remove(name); err != nil {
		errutil.LogError(s.logger, "document removal failed", err)
	}
}

// normalizePage converts 1-based page/limit query values into an offset and
// a bounded limit.
func normalizePage(page, limit int) (offset, normalized int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return (page - 1) * limit, limit
}
