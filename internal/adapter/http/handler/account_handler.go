package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mimhaad/finance-ledger/internal/adapter/http/dto"
	"github.com/mimhaad/finance-ledger/internal/domain"
	"github.com/mimhaad/finance-ledger/internal/usecase"
)

// ChartService defines the behavior needed by AccountHandler.
type ChartService interface {
	CreateAccount(ctx context.Context, input usecase.CreateAccountInput) (*domain.GLAccount, error)
	GetAccountByID(ctx context.Context, id string) (*domain.GLAccount, error)
	GetAccountByCode(ctx context.Context, code string) (*domain.GLAccount, error)
	ListAccounts(ctx context.Context, limit, offset int) ([]*domain.GLAccount, error)
	GetAccountTree(ctx context.Context) ([]*domain.AccountNode, error)
	GetAccountBalance(ctx context.Context, id string) (*domain.AccountBalance, error)
	GetAccountBalanceByCode(ctx context.Context, code string) (*domain.AccountBalance, error)
	EnsureRequiredAccounts(ctx context.Context, codes []string) ([]*domain.GLAccount, error)
}

// AccountHandler handles chart-of-accounts HTTP requests.
type AccountHandler struct {
	chart ChartService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(chart ChartService) *AccountHandler {
	return &AccountHandler{chart: chart}
}

// Create creates a new account.
func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateAccountRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, "invalid request body", err)
		return
	}

	account, err := h.chart.CreateAccount(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, "failed to create account", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.AccountFromDomain(account))
}

// Ensure creates any missing accounts from the given codes.
func (h *AccountHandler) Ensure(w http.ResponseWriter, r *http.Request) {
	var req dto.EnsureAccountsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, "invalid request body", err)
		return
	}

	accounts, err := h.chart.EnsureRequiredAccounts(r.Context(), req.Codes)
	if err != nil {
		writeDomainError(w, "failed to ensure accounts", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListAccountsResponse{
		Accounts: dto.AccountsFromDomain(accounts),
		Total:    int64(len(accounts)),
	})
}

// Get retrieves an account by ID.
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	account, err := h.chart.GetAccountByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to get account", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}

// GetByCode retrieves an account by its chart code.
func (h *AccountHandler) GetByCode(w http.ResponseWriter, r *http.Request) {
	account, err := h.chart.GetAccountByCode(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		writeDomainError(w, "failed to get account", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}

// List lists accounts ordered by code.
func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := parseIntQuery(r, "limit", 100)
	offset := parseIntQuery(r, "offset", 0)

	accounts, err := h.chart.ListAccounts(r.Context(), limit, offset)
	if err != nil {
		writeDomainError(w, "failed to list accounts", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListAccountsResponse{
		Accounts: dto.AccountsFromDomain(accounts),
		Total:    int64(len(accounts)),
	})
}

// Tree returns the chart as a parent/child forest.
func (h *AccountHandler) Tree(w http.ResponseWriter, r *http.Request) {
	nodes, err := h.chart.GetAccountTree(r.Context())
	if err != nil {
		writeDomainError(w, "failed to build account tree", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountTreeFromDomain(nodes))
}

// Balance returns the current balance of an account by ID.
func (h *AccountHandler) Balance(w http.ResponseWriter, r *http.Request) {
	balance, err := h.chart.GetAccountBalance(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to get balance", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountBalanceFromDomain(balance))
}

// BalanceByCode returns the current balance of an account by code.
func (h *AccountHandler) BalanceByCode(w http.ResponseWriter, r *http.Request) {
	balance, err := h.chart.GetAccountBalanceByCode(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		writeDomainError(w, "failed to get balance", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountBalanceFromDomain(balance))
}
