// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 RealmDir Contributors

package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/samber/oops"

	"github.com/realmdir/realmdir/internal/directory"
	"github.com/realmdir/realmdir/internal/observability"
	"github.com/realmdir/realmdir/pkg/errutil"
)

// Handler exposes the directory service over HTTP.
type Handler struct {
	svc     *directory.Service
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewHandler creates a Handler. Metrics may be nil, in which case no
// operation counters are recorded.
func NewHandler(svc *directory.Service, logger *slog.Logger, metrics *observability.Metrics) (*Handler, error) {
	if svc == nil {
		return nil, oops.Errorf("service is required")
	}
	if logger == nil {
		return nil, oops.Errorf("logger is required")
	}
	return &Handler{svc: svc, logger: logger, metrics: metrics}, nil
}

type createAccountRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

type createAccountResponse struct {
	ID      uint64 `json:"id"`
	Warning string `json:"warning,omitempty"`
}

type setPasswordRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type existsResponse struct {
	Exists bool `json:"exists"`
}

type updatedResponse struct {
	Updated bool `json:"updated"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// fieldsParam parses the comma-separated "fields" query parameter. An
// absent or empty parameter means no projection.
func fieldsParam(r *http.Request) []string {
	raw := r.URL.Query().Get("fields")
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	fields := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			fields = append(fields, p)
		}
	}
	return fields
}

func idParam(r *http.Request) (uint64, error) {
	return strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
}

func (h *Handler) record(operation string, err error) {
	if h.metrics == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = errutil.ErrorCode(err)
	}
	h.metrics.OperationsTotal.WithLabelValues(operation, status).Inc()
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

// writeError maps domain errors onto HTTP status codes. Response bodies
// carry only the error class, never storage detail.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, directory.ErrNotFound):
		h.writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
	case errors.Is(err, directory.ErrAlreadyExists):
		h.writeJSON(w, http.StatusConflict, errorResponse{Error: "already exists"})
	case errors.Is(err, directory.ErrInvalidInput):
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid input"})
	default:
		errutil.LogError(h.logger, "request failed", err)
		h.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func (h *Handler) listAccounts(w http.ResponseWriter, r *http.Request) {
	accounts := h.svc.ListAccounts(r.Context(), fieldsParam(r))
	h.record("list_accounts", nil)
	h.writeJSON(w, http.StatusOK, accounts)
}

func (h *Handler) getAccount(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid account id"})
		return
	}

	account, err := h.svc.GetAccount(r.Context(), id, fieldsParam(r))
	h.record("get_account", err)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, account)
}

func (h *Handler) checkUsername(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	if username == "" {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "username is required"})
		return
	}

	exists, err := h.svc.CheckUsername(r.Context(), username)
	h.record("check_username", err)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, existsResponse{Exists: exists})
}

func (h *Handler) createAccount(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	id, err := h.svc.CreateAccount(r.Context(), req.Username, req.Password, req.Email)
	h.record("create_account", err)

	// Provisioning failure still created the account. Report the id with
	// a warning rather than hiding it behind a failure status.
	if errors.Is(err, directory.ErrProvisionIncomplete) {
		h.writeJSON(w, http.StatusCreated, createAccountResponse{
			ID:      id,
			Warning: "realm character provisioning incomplete",
		})
		return
	}
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, createAccountResponse{ID: id})
}

func (h *Handler) setPassword(w http.ResponseWriter, r *http.Request) {
	var req setPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	updated, err := h.svc.SetPassword(r.Context(), req.Username, req.Password)
	h.record("set_password", err)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, updatedResponse{Updated: updated})
}

func (h *Handler) deleteAccount(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid account id"})
		return
	}

	if !h.svc.DeleteAccount(r.Context(), id) {
		h.record("delete_account", directory.ErrNotFound)
		h.writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
		return
	}
	h.record("delete_account", nil)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) accountGrants(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid account id"})
		return
	}

	grants, err := h.svc.Grants(r.Context(), id, fieldsParam(r))
	h.record("account_grants", err)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, grants)
}

func (h *Handler) realmCharacters(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid account id"})
		return
	}

	summaries, err := h.svc.CharacterSummaries(r.Context(), id)
	h.record("realm_characters", err)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, summaries)
}
