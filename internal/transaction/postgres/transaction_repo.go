// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Custos Contributors

// Package postgres provides the PostgreSQL-backed transaction repository.
package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/custos-project/custos/internal/transaction"
)

type poolIface interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const transactionColumns = `id, title, description, file_path, user_id, created_at, updated_at`

// TransactionRepository implements transaction.Repository using PostgreSQL.
type TransactionRepository struct {
	pool poolIface
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(pool poolIface) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

// Create stores a new transaction.
func (r *TransactionRepository) Create(ctx context.Context, tx *transaction.Transaction) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO transactions (id, title, description, file_path, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, tx.ID.String(), tx.Title, tx.Description, tx.FilePath, tx.UserID.String(), tx.CreatedAt, tx.UpdatedAt)
	if err != nil {
		return oops.Code("TRANSACTION_CREATE_FAILED").
			With("operation", "insert transaction").
			With("id", tx.ID.String()).
			Wrap(err)
	}
	return nil
}

// GetByIDForUser retrieves a transaction scoped to its owner.
func (r *TransactionRepository) GetByIDForUser(ctx context.Context, id, userID ulid.ULID) (*transaction.Transaction, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE id = $1 AND user_id = $2
	`, id.String(), userID.String())

	tx, err := scanTransaction(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("TRANSACTION_NOT_FOUND").
			With("id", id.String()).
			Wrap(transaction.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("TRANSACTION_GET_FAILED").
			With("operation", "scan transaction").
			With("id", id.String()).
			Wrap(err)
	}
	return tx, nil
}

// Update persists title, description and file path changes, scoped to the
// owner.
func (r *TransactionRepository) Update(ctx context.Context, tx *transaction.Transaction) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE transactions
		SET title = $1, description = $2, file_path = $3, updated_at = $4
		WHERE id = $5 AND user_id = $6
	`, tx.Title, tx.Description, tx.FilePath, tx.UpdatedAt, tx.ID.String(), tx.UserID.String())
	if err != nil {
		return oops.Code("TRANSACTION_UPDATE_FAILED").
			With("operation", "update transaction").
			With("id", tx.ID.String()).
			Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return oops.Code("TRANSACTION_NOT_FOUND").
			With("id", tx.ID.String()).
			Wrap(transaction.ErrNotFound)
	}
	return nil
}

// Delete removes a transaction scoped to its owner.
func (r *TransactionRepository) Delete(ctx context.Context, id, userID ulid.ULID) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM transactions
		WHERE id = $1 AND user_id = $2
	`, id.String(), userID.String())
	if err != nil {
		return oops.Code("TRANSACTION_DELETE_FAILED").
			With("operation", "delete transaction").
			With("id", id.String()).
			Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return oops.Code("TRANSACTION_NOT_FOUND").
			With("id", id.String()).
			Wrap(transaction.ErrNotFound)
	}
	return nil
}

// List returns a page of transactions across all users, newest first.
func (r *TransactionRepository) List(ctx context.Context, offset, limit int) ([]*transaction.Transaction, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		ORDER BY id DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, oops.Code("TRANSACTION_LIST_FAILED").
			With("operation", "list transactions").
			Wrap(err)
	}
	return collectTransactions(rows)
}

// ListByUser returns a page of one user's transactions, newest first.
func (r *TransactionRepository) ListByUser(ctx context.Context, userID ulid.ULID, offset, limit int) ([]*transaction.Transaction, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE user_id = $1
		ORDER BY id DESC
		LIMIT $2 OFFSET $3
	`, userID.String(), limit, offset)
	if err != nil {
		return nil, oops.Code("TRANSACTION_LIST_FAILED").
			With("operation", "list transactions by user").
			With("user_id", userID.String()).
			Wrap(err)
	}
	return collectTransactions(rows)
}

func collectTransactions(rows pgx.Rows) ([]*transaction.Transaction, error) {
	defer rows.Close()

	txs := make([]*transaction.Transaction, 0)
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, oops.Code("TRANSACTION_LIST_FAILED").
				With("operation", "scan transaction row").
				Wrap(err)
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("TRANSACTION_LIST_FAILED").
			With("operation", "iterate transaction rows").
			Wrap(err)
	}
	return txs, nil
}

// scanTransaction maps a row onto a Transaction. pgx.ErrNoRows passes
// through unchanged so callers can translate it.
func scanTransaction(row pgx.Row) (*transaction.Transaction, error) {
	var (
		idStr       string
		title       string
		description *string
		filePath    *string
		userIDStr   string
		tx          transaction.Transaction
	)
	err := row.Scan(&idStr, &title, &description, &filePath, &userIDStr, &tx.CreatedAt, &tx.UpdatedAt)
	if err != nil {
		return nil, err //nolint:wrapcheck // callers translate pgx.ErrNoRows
	}

	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("TRANSACTION_INVALID_ID").
			With("id", idStr).
			Wrap(err)
	}
	userID, err := ulid.Parse(userIDStr)
	if err != nil {
		return nil, oops.Code("TRANSACTION_INVALID_USER_ID").
			With("user_id", userIDStr).
			Wrap(err)
	}

	tx.ID = id
	tx.Title = title
	tx.Description = description
	tx.FilePath = filePath
	tx.UserID = userID
	return &tx, nil
}

// Compile-time interface check.
var _ transaction.Repository = (*TransactionRepository)(nil)
