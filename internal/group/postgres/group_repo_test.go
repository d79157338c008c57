// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Custos Contributors

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custos-project/custos/internal/group"
)

func newMockRepo(t *testing.T) (*GroupRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err, "failed to create mock")
	t.Cleanup(mock.Close)
	return NewGroupRepository(mock), mock
}

func TestGroupRepository_Create(t *testing.T) {
	ctx := context.Background()
	repo, mock := newMockRepo(t)

	adminID := ulid.Make()
	now := time.Now()
	g := &group.Group{ID: ulid.Make(), Name: "billing", AdminID: &adminID, CreatedAt: now, UpdatedAt: now}
	adminStr := adminID.String()

	mock.ExpectExec(`INSERT INTO groups`).
		WithArgs(g.ID.String(), g.Name, &adminStr, now, now).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.Create(ctx, g))
	assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
}

func TestGroupRepository_GetByIDForAdmin(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		id, adminID := ulid.Make(), ulid.Make()
		adminStr := adminID.String()
		now := time.Now()

		rows := pgxmock.NewRows([]string{"id", "name", "admin_id", "created_at", "updated_at"}).
			AddRow(id.String(), "billing", &adminStr, now, now)
		mock.ExpectQuery(`SELECT id, name, admin_id, created_at, updated_at\s+FROM groups`).
			WithArgs(id.String(), adminID.String()).
			WillReturnRows(rows)

		got, err := repo.GetByIDForAdmin(ctx, id, adminID)
		require.NoError(t, err)
		assert.Equal(t, id, got.ID)
		assert.Equal(t, "billing", got.Name)
		require.NotNil(t, got.AdminID)
		assert.Equal(t, adminID, *got.AdminID)
	})

	t.Run("wrong admin maps to not found", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		id, adminID := ulid.Make(), ulid.Make()

		mock.ExpectQuery(`SELECT id, name, admin_id, created_at, updated_at\s+FROM groups`).
			WithArgs(id.String(), adminID.String()).
			WillReturnRows(pgxmock.NewRows([]string{"id", "name", "admin_id", "created_at", "updated_at"}))

		_, err := repo.GetByIDForAdmin(ctx, id, adminID)
		require.Error(t, err)
		assert.ErrorIs(t, err, group.ErrNotFound)
	})
}
