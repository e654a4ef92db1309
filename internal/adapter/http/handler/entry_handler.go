package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mimhaad/finance-ledger/internal/adapter/http/dto"
	"github.com/mimhaad/finance-ledger/internal/domain"
	"github.com/mimhaad/finance-ledger/internal/usecase"
)

// EntryDrafter builds and stores draft journal entries.
type EntryDrafter interface {
	CreateDraft(ctx context.Context, input usecase.BuildEntryInput) (*domain.JournalEntry, error)
}

// EntryPoster drives the lifecycle of a single journal entry.
type EntryPoster interface {
	GetEntry(ctx context.Context, id string) (*domain.JournalEntry, error)
	Post(ctx context.Context, entryID, postedBy string) (*domain.JournalEntry, error)
	Reverse(ctx context.Context, entryID, reversedBy, reason string) (*domain.JournalEntry, error)
	DiscardDraft(ctx context.Context, entryID, userID string) error
}

// EntryHandler handles journal entry HTTP requests.
type EntryHandler struct {
	drafter EntryDrafter
	poster  EntryPoster
}

// NewEntryHandler creates a new EntryHandler.
func NewEntryHandler(drafter EntryDrafter, poster EntryPoster) *EntryHandler {
	return &EntryHandler{drafter: drafter, poster: poster}
}

// Create drafts a journal entry from a transaction type or explicit lines.
func (h *EntryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateJournalEntryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, "invalid request body", err)
		return
	}

	userID, err := resolveUserID(r, req.UserID)
	if err != nil {
		writeDomainError(w, "missing user", err)
		return
	}

	entry, err := h.drafter.CreateDraft(r.Context(), req.ToUseCaseInput(userID))
	if err != nil {
		writeDomainError(w, "failed to create journal entry", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.JournalEntryFromDomain(entry))
}

// Get retrieves a journal entry with its lines.
func (h *EntryHandler) Get(w http.ResponseWriter, r *http.Request) {
	entry, err := h.poster.GetEntry(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to get journal entry", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.JournalEntryFromDomain(entry))
}

// Post posts a draft entry.
func (h *EntryHandler) Post(w http.ResponseWriter, r *http.Request) {
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

	entry, err := h.poster.Post(r.Context(), chi.URLParam(r, "id"), userID)
	if err != nil {
		writeDomainError(w, "failed to post journal entry", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.JournalEntryFromDomain(entry))
}

// Reverse records the mirror of a posted entry and returns the original,
// now reversed and pointing at its reversal.
func (h *EntryHandler) Reverse(w http.ResponseWriter, r *http.Request) {
	var req dto.ReverseEntryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, "invalid request body", err)
		return
	}

	userID, err := resolveUserID(r, req.UserID)
	if err != nil {
		writeDomainError(w, "missing user", err)
		return
	}

	original, err := h.poster.Reverse(r.Context(), chi.URLParam(r, "id"), userID, req.Reason)
	if err != nil {
		writeDomainError(w, "failed to reverse journal entry", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.JournalEntryFromDomain(original))
}

// Discard deletes a draft entry.
func (h *EntryHandler) Discard(w http.ResponseWriter, r *http.Request) {
	userID, err := resolveUserID(r, "")
	if err != nil {
		writeDomainError(w, "missing user", err)
		return
	}

	if err := h.poster.DiscardDraft(r.Context(), chi.URLParam(r, "id"), userID); err != nil {
		writeDomainError(w, "failed to discard journal entry", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
