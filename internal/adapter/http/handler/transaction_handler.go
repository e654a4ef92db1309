package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mimhaad/finance-ledger/internal/adapter/http/dto"
	"github.com/mimhaad/finance-ledger/internal/domain"
)

// TransactionService posts and lists the entries of a business transaction.
type TransactionService interface {
	PostGLTransaction(ctx context.Context, transactionID, userID string) ([]*domain.JournalEntry, error)
	GetJournalEntriesByTransactionID(ctx context.Context, transactionID string) ([]*domain.JournalEntry, error)
}

// TransactionHandler handles business transaction HTTP requests.
type TransactionHandler struct {
	svc TransactionService
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(svc TransactionService) *TransactionHandler {
	return &TransactionHandler{svc: svc}
}

// Post posts every draft recorded for the transaction.
func (h *TransactionHandler) Post(w http.ResponseWriter, r *http.Request) {
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

	entries, err := h.svc.PostGLTransaction(r.Context(), chi.URLParam(r, "transactionID"), userID)
	if err != nil {
		writeDomainError(w, "failed to post transaction", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.JournalEntriesFromDomain(entries))
}

// ListEntries lists the journal entries recorded for the transaction.
func (h *TransactionHandler) ListEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := h.svc.GetJournalEntriesByTransactionID(r.Context(), chi.URLParam(r, "transactionID"))
	if err != nil {
		writeDomainError(w, "failed to list journal entries", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.JournalEntriesFromDomain(entries))
}
