package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mimhaad/finance-ledger/internal/adapter/http/dto"
	"github.com/mimhaad/finance-ledger/internal/domain"
)

// FloatService manages float accounts and mirrors them into the GL.
type FloatService interface {
	ListFloatAccounts(ctx context.Context) ([]*domain.FloatAccount, error)
	UpdateFloatAccount(ctx context.Context, float *domain.FloatAccount, userID string) (*domain.FloatAccount, error)
	SyncFloatBalances(ctx context.Context, userID string) (*domain.FloatSyncResult, error)
}

// FloatHandler handles float account HTTP requests.
type FloatHandler struct {
	svc FloatService
}

// NewFloatHandler creates a new FloatHandler.
func NewFloatHandler(svc FloatService) *FloatHandler {
	return &FloatHandler{svc: svc}
}

// List lists float accounts.
func (h *FloatHandler) List(w http.ResponseWriter, r *http.Request) {
	floats, err := h.svc.ListFloatAccounts(r.Context())
	if err != nil {
		writeDomainError(w, "failed to list float accounts", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.FloatAccountsFromDomain(floats))
}

// Update stores the externally reported state of a float account.
func (h *FloatHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateFloatAccountRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, "invalid request body", err)
		return
	}

	userID, err := resolveUserID(r, req.UserID)
	if err != nil {
		writeDomainError(w, "missing user", err)
		return
	}

	float, err := h.svc.UpdateFloatAccount(r.Context(), req.ToDomain(chi.URLParam(r, "id")), userID)
	if err != nil {
		writeDomainError(w, "failed to update float account", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.FloatAccountFromDomain(float))
}

// Sync runs one float-to-GL sync pass.
func (h *FloatHandler) Sync(w http.ResponseWriter, r *http.Request) {
	var req dto.UserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, "invalid request body", err)
		return
	}

	userID, err := resolveUserID(r, req.UserID)
	if err != nil {
		writeDomainError(w, "missing user", err)
		return
	}

	result, err := h.svc.SyncFloatBalances(r.Context(), userID)
	if err != nil {
		writeDomainError(w, "float sync failed", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.FloatSyncFromDomain(result))
}
