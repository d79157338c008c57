// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Custos Contributors

// Package group manages named user groups, each administered by an ADMIN
// principal.
package group

import (
	"context"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/custos-project/custos/internal/auth"
)

// ErrNotFound indicates the requested group does not exist or is not
// visible to the caller.
var ErrNotFound = errors.New("group not found")

// Group is a named collection of users with an administering principal.
type Group struct {
	ID        ulid.ULID
	Name      string
	AdminID   *ulid.ULID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Repository is the group persistence contract.
type Repository interface {
	// Create stores a new group.
	Create(ctx context.Context, g *Group) error

	// GetByIDForAdmin retrieves a group by ID, visible only to its
	// administering principal. Returns an error wrapping ErrNotFound when
	// absent or administered by someone else.
	GetByIDForAdmin(ctx context.Context, id, adminID ulid.ULID) (*Group, error)
}

// UserDirectory is the read-only principal lookup the service needs to
// validate group administrators. auth.Service satisfies it.
type UserDirectory interface {
	FindByID(ctx context.Context, id ulid.ULID) (*auth.User, error)
}

// Service orchestrates group management.
type Service struct {
	groups Repository
	users  UserDirectory
}

// NewService creates a Service. Both collaborators are required.
func NewService(groups Repository, users UserDirectory) (*Service, error) {
	if groups == nil {
		return nil, oops.Errorf("group repository is required")
	}
	if users == nil {
		return nil, oops.Errorf("user directory is required")
	}
	return &Service{groups: groups, users: users}, nil
}

// Create stores a new group after confirming adminID names an existing
// ADMIN principal.
func (s *Service) Create(ctx context.Context, name string, adminID ulid.ULID) (*Group, error) {
	if name == "" {
		return nil, oops.Code("GROUP_NAME_REQUIRED").Errorf("group name cannot be empty")
	}

	admin, err := s.users.FindByID(ctx, adminID)
	if err != nil {
		if errors.Is(err, auth.ErrNotFound) {
			return nil, invalidAdmin(adminID)
		}
		return nil, oops.Code("GROUP_CREATE_FAILED").
			With("operation", "look up group admin").
			Wrap(err)
	}
	if admin.Role != auth.RoleAdmin {
		return nil, invalidAdmin(adminID)
	}

	now := time.Now()
	g := &Group{
		ID:        ulid.Make(),
		Name:      name,
		AdminID:   &adminID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.groups.Create(ctx, g); err != nil {
		return nil, oops.Code("GROUP_CREATE_FAILED").
			With("operation", "store group").
			Wrap(err)
	}
	return g, nil
}

// GetByID retrieves a group, scoped to the administering principal: a group
// administered by someone else is indistinguishable from a missing one.
func (s *Service) GetByID(ctx context.Context, id, adminID ulid.ULID) (*Group, error) {
	g, err := s.groups.GetByIDForAdmin(ctx, id, adminID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code("GROUP_NOT_FOUND").
				With("id", id.String()).
				Wrap(ErrNotFound)
		}
		return nil, oops.Code("GROUP_GET_FAILED").
			With("operation", "get group").
			With("id", id.String()).
			Wrap(err)
	}
	return g, nil
}

func invalidAdmin(adminID ulid.ULID) error {
	return oops.Code("GROUP_ADMIN_INVALID").
		With("admin_id", adminID.String()).
		Errorf("no ADMIN principal with the given id")
}
