// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Custos Contributors

package api

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"

	"github.com/custos-project/custos/internal/transaction"
)

// maxUploadBytes bounds multipart transaction bodies, attachment included.
const maxUploadBytes = 10 << 20

type transactionResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	FilePath    *string   `json:"filePath"`
	UserID      string    `json:"userId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func toTransactionResponse(tx *transaction.Transaction) transactionResponse {
	return transactionResponse{
		ID:          tx.ID.String(),
		Title:       tx.Title,
		Description: tx.Description,
		FilePath:    tx.FilePath,
		UserID:      tx.UserID.String(),
		CreatedAt:   tx.CreatedAt,
		UpdatedAt:   tx.UpdatedAt,
	}
}

func toTransactionResponses(txs []*transaction.Transaction) []transactionResponse {
	out := make([]transactionResponse, 0, len(txs))
	for _, tx := range txs {
		out = append(out, toTransactionResponse(tx))
	}
	return out
}

// transactionForm is the parsed multipart payload shared by create and
// update. file is nil when no attachment was sent.
type transactionForm struct {
	title       string
	description *string
	filename    string
	file        multipart.File
}

func (f *transactionForm) close() {
	if f.file != nil {
		f.file.Close() //nolint:errcheck // best effort
	}
}

func parseTransactionForm(w http.ResponseWriter, r *http.Request) (*transactionForm, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart body")
		return nil, false
	}

	form := &transactionForm{title: r.FormValue("title")}
	if values, ok := r.MultipartForm.Value["description"]; ok && len(values) > 0 {
		form.description = &values[0]
	}

	file, header, err := r.FormFile("file")
	switch {
	case err == nil:
		form.filename = header.Filename
		form.file = file
	case errors.Is(err, http.ErrMissingFile):
	default:
		writeError(w, http.StatusBadRequest, "invalid file attachment")
		return nil, false
	}
	return form, true
}

// fileReader returns the attachment as an io.Reader, nil when absent. The
// distinction matters downstream: creation requires an attachment, update
// treats nil as keep-the-current-one.
func (f *transactionForm) fileReader() io.Reader {
	if f.file == nil {
		return nil
	}
	return f.file
}

// handleCreateTransaction stores a transaction with its attachment.
func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}

	form, ok := parseTransactionForm(w, r)
	if !ok {
		return
	}
	defer form.close()

	tx, err := s.transactions.Create(r.Context(), principal.ID, form.title, form.description, form.filename, form.fileReader())
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTransactionResponse(tx))
}

// handleUpdateTransaction updates a transaction, replacing the attachment
// when a new one is supplied.
func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
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

	form, ok := parseTransactionForm(w, r)
	if !ok {
		return
	}
	defer form.close()

	tx, err := s.transactions.Update(r.Context(), id, principal.ID, form.title, form.description, form.filename, form.fileReader())
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponse(tx))
}

// handleGetTransaction retrieves one of the caller's transactions.
func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
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

	tx, err := s.transactions.GetByID(r.Context(), id, principal.ID)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponse(tx))
}

// handleDeleteTransaction removes one of the caller's transactions.
func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
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

	if err := s.transactions.Delete(r.Context(), id, principal.ID); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "transaction deleted",
	})
}

// handleListTransactions returns a page of every user's transactions.
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)

	txs, err := s.transactions.ListAll(r.Context(), page, limit)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponses(txs))
}

// handleListOwnTransactions returns a page of the caller's transactions.
func (s *Server) handleListOwnTransactions(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}
	page, limit := pageParams(r)

	txs, err := s.transactions.ListByUser(r.Context(), principal.ID, page, limit)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponses(txs))
}

// handleGetTransactionFile streams a stored attachment.
func (s *Server) handleGetTransactionFile(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	rc, err := s.transactions.OpenFile(name)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	defer rc.Close() //nolint:errcheck // best effort

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	if _, err := io.Copy(w, rc); err != nil {
		s.logger.Error("attachment stream failed", "name", name, "error", err)
	}
}

// pageParams reads page/limit query values, zero when absent or malformed.
func pageParams(r *http.Request) (page, limit int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	return page, limit
}
