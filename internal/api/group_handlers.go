// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Custos Contributors

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"

	"github.com/custos-project/custos/internal/group"
)

type createGroupRequest struct {
	Name    string `json:"name"`
	AdminID string `json:"adminId"`
}

type groupResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	AdminID   *string   `json:"adminId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toGroupResponse(g *group.Group) groupResponse {
	resp := groupResponse{
		ID:        g.ID.String(),
		Name:      g.Name,
		CreatedAt: g.CreatedAt,
		UpdatedAt: g.UpdatedAt,
	}
	if g.AdminID != nil {
		admin := g.AdminID.String()
		resp.AdminID = &admin
	}
	return resp
}

// handleCreateGroup creates a group owned by the named admin.
func (s *Server) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	var req createGroupRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	adminID, err := ulid.Parse(req.AdminID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "adminId must be a valid ULID")
		return
	}

	g, err := s.groups.Create(r.Context(), req.Name, adminID)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toGroupResponse(g))
}

// handleGetGroup retrieves a group, scoped to the calling admin.
func (s *Server) handleGetGroup(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}

	id, err := ulid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "id must be a valid ULID")
		return
	}

	g, err := s.groups.GetByID(r.Context(), id, principal.ID)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toGroupResponse(g))
}
