// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Custos Contributors

// Package postgres provides the PostgreSQL-backed group repository.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/custos-project/custos/internal/group"
)

type poolIface interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// GroupRepository implements group.Repository using PostgreSQL.
type GroupRepository struct {
	pool poolIface
}

// NewGroupRepository creates a new GroupRepository.
func NewGroupRepository(pool poolIface) *GroupRepository {
	return &GroupRepository{pool: pool}
}

// Create stores a new group.
func (r *GroupRepository) Create(ctx context.Context, g *group.Group) error {
	var adminID *string
	if g.AdminID != nil {
		s := g.AdminID.String()
		adminID = &s
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO groups (id, name, admin_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`, g.ID.String(), g.Name, adminID, g.CreatedAt, g.UpdatedAt)
	if err != nil {
		return oops.Code("GROUP_CREATE_FAILED").
			With("operation", "insert group").
			With("name", g.Name).
			Wrap(err)
	}
	return nil
}

// GetByIDForAdmin retrieves a group by ID, constrained to its admin.
func (r *GroupRepository) GetByIDForAdmin(ctx context.Context, id, adminID ulid.ULID) (*group.Group, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, admin_id, created_at, updated_at
		FROM groups
		WHERE id = $1 AND admin_id = $2
	`, id.String(), adminID.String())

	var (
		idStr      string
		name       string
		adminIDStr *string
		createdAt  time.Time
		updatedAt  time.Time
	)
	err := row.Scan(&idStr, &name, &adminIDStr, &createdAt, &updatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("GROUP_NOT_FOUND").
			With("id", id.String()).
			Wrap(group.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("GROUP_GET_FAILED").
			With("operation", "scan group").
			With("id", id.String()).
			Wrap(err)
	}

	parsedID, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("GROUP_INVALID_ID").
			With("id", idStr).
			Wrap(err)
	}
	var parsedAdmin *ulid.ULID
	if adminIDStr != nil {
		a, err := ulid.Parse(*adminIDStr)
		if err != nil {
			return nil, oops.Code("GROUP_INVALID_ADMIN_ID").
				With("admin_id", *adminIDStr).
				Wrap(err)
		}
		parsedAdmin = &a
	}

	return &group.Group{
		ID:        parsedID,
		Name:      name,
		AdminID:   parsedAdmin,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}, nil
}

// Compile-time interface check.
var _ group.Repository = (*GroupRepository)(nil)
