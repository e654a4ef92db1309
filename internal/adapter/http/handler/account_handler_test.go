package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mimhaad/finance-ledger/internal/adapter/http/dto"
	"github.com/mimhaad/finance-ledger/internal/domain"
	"github.com/mimhaad/finance-ledger/internal/usecase"
)

type chartServiceStub struct {
	createFn        func(ctx context.Context, input usecase.CreateAccountInput) (*domain.GLAccount, error)
	getFn           func(ctx context.Context, id string) (*domain.GLAccount, error)
	getByCodeFn     func(ctx context.Context, code string) (*domain.GLAccount, error)
	listFn          func(ctx context.Context, limit, offset int) ([]*domain.GLAccount, error)
	treeFn          func(ctx context.Context) ([]*domain.AccountNode, error)
	balanceFn       func(ctx context.Context, id string) (*domain.AccountBalance, error)
	balanceByCodeFn func(ctx context.Context, code string) (*domain.AccountBalance, error)
	ensureFn        func(ctx context.Context, codes []string) ([]*domain.GLAccount, error)
}

func (s *chartServiceStub) CreateAccount(ctx context.Context, input usecase.CreateAccountInput) (*domain.GLAccount, error) {
	return s.createFn(ctx, input)
}

func (s *chartServiceStub) GetAccountByID(ctx context.Context, id string) (*domain.GLAccount, error) {
	return s.getFn(ctx, id)
}

func (s *chartServiceStub) GetAccountByCode(ctx context.Context, code string) (*domain.GLAccount, error) {
	return s.getByCodeFn(ctx, code)
}

func (s *chartServiceStub) ListAccounts(ctx context.Context, limit, offset int) ([]*domain.GLAccount, error) {
	return s.listFn(ctx, limit, offset)
}

func (s *chartServiceStub) GetAccountTree(ctx context.Context) ([]*domain.AccountNode, error) {
	return s.treeFn(ctx)
}

func (s *chartServiceStub) GetAccountBalance(ctx context.Context, id string) (*domain.AccountBalance, error) {
	return s.balanceFn(ctx, id)
}

func (s *chartServiceStub) GetAccountBalanceByCode(ctx context.Context, code string) (*domain.AccountBalance, error) {
	return s.balanceByCodeFn(ctx, code)
}

func (s *chartServiceStub) EnsureRequiredAccounts(ctx context.Context, codes []string) ([]*domain.GLAccount, error) {
	return s.ensureFn(ctx, codes)
}

func TestAccountHandler_Create_Success(t *testing.T) {
	var captured usecase.CreateAccountInput
	handler := NewAccountHandler(&chartServiceStub{
		createFn: func(ctx context.Context, input usecase.CreateAccountInput) (*domain.GLAccount, error) {
			captured = input
			return &domain.GLAccount{ID: "acc-1", Code: input.Code, Name: input.Name, Type: domain.AccountTypeAsset}, nil
		},
	})

	body, _ := json.Marshal(dto.CreateAccountRequest{Code: "1101", Name: "Branch Cash", Type: "asset"})
	req := httptest.NewRequest(http.MethodPost, "/accounts", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if captured.Code != "1101" || captured.Type != domain.AccountTypeAsset {
		t.Fatalf("expected input to match request, got %+v", captured)
	}

	var resp dto.AccountResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ID != "acc-1" || resp.Balance != "0.00" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestAccountHandler_Create_InvalidPayload(t *testing.T) {
	handler := NewAccountHandler(&chartServiceStub{
		createFn: func(ctx context.Context, input usecase.CreateAccountInput) (*domain.GLAccount, error) {
			t.Fatal("CreateAccount should not be called for invalid payload")
			return nil, nil
		},
	})

	for _, body := range []string{"{invalid json", `{"name":"no code"}`} {
		req := httptest.NewRequest(http.MethodPost, "/accounts", bytes.NewBufferString(body))
		rec := httptest.NewRecorder()

		handler.Create(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", body, rec.Code)
		}
	}
}

func TestAccountHandler_Create_ServiceError(t *testing.T) {
	handler := NewAccountHandler(&chartServiceStub{
		createFn: func(ctx context.Context, input usecase.CreateAccountInput) (*domain.GLAccount, error) {
			return nil, errors.New("db error")
		},
	})

	body, _ := json.Marshal(dto.CreateAccountRequest{Code: "1101", Name: "Branch Cash"})
	req := httptest.NewRequest(http.MethodPost, "/accounts", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestAccountHandler_Ensure(t *testing.T) {
	var captured []string
	handler := NewAccountHandler(&chartServiceStub{
		ensureFn: func(ctx context.Context, codes []string) ([]*domain.GLAccount, error) {
			captured = codes
			accounts := make([]*domain.GLAccount, len(codes))
			for i, c := range codes {
				accounts[i] = &domain.GLAccount{ID: "id-" + c, Code: c, Type: domain.AccountTypeFromCode(c)}
			}
			return accounts, nil
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/accounts/ensure", bytes.NewBufferString(`{"codes":["1001","4001"]}`))
	rec := httptest.NewRecorder()

	handler.Ensure(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(captured) != 2 || captured[1] != "4001" {
		t.Fatalf("unexpected codes passed: %v", captured)
	}

	var resp dto.ListAccountsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Total != 2 || resp.Accounts[1].Type != "revenue" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestAccountHandler_Get_NotFound(t *testing.T) {
	handler := NewAccountHandler(&chartServiceStub{
		getFn: func(ctx context.Context, id string) (*domain.GLAccount, error) {
			return nil, domain.NewAccountNotFound(id)
		},
	})

	req := withURLParams(httptest.NewRequest(http.MethodGet, "/accounts/missing", nil), "id", "missing")
	rec := httptest.NewRecorder()

	handler.Get(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if resp := decodeError(t, rec); resp.Error != "failed to get account" {
		t.Fatalf("unexpected error body: %+v", resp)
	}
}

func TestAccountHandler_BalanceByCode(t *testing.T) {
	asOf := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	handler := NewAccountHandler(&chartServiceStub{
		balanceByCodeFn: func(ctx context.Context, code string) (*domain.AccountBalance, error) {
			if code != "4001" {
				t.Fatalf("unexpected code %q", code)
			}
			account := &domain.GLAccount{ID: "rev", Code: code, Name: "Fee Income", Type: domain.AccountTypeRevenue, Balance: dec("5")}
			return domain.NewAccountBalance(account, asOf), nil
		},
	})

	req := withURLParams(httptest.NewRequest(http.MethodGet, "/accounts/by-code/4001/balance", nil), "code", "4001")
	rec := httptest.NewRecorder()

	handler.BalanceByCode(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp dto.AccountBalanceResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Balance != "5.00" || resp.NormalSide != "credit" {
		t.Fatalf("unexpected balance response: %+v", resp)
	}
}

func TestAccountHandler_List_PassesPagination(t *testing.T) {
	handler := NewAccountHandler(&chartServiceStub{
		listFn: func(ctx context.Context, limit, offset int) ([]*domain.GLAccount, error) {
			if limit != 10 || offset != 20 {
				t.Fatalf("unexpected pagination %d/%d", limit, offset)
			}
			return []*domain.GLAccount{{ID: "a", Code: "1001", Type: domain.AccountTypeAsset}}, nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/accounts?limit=10&offset=20", nil)
	rec := httptest.NewRecorder()

	handler.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAccountHandler_Tree(t *testing.T) {
	handler := NewAccountHandler(&chartServiceStub{
		treeFn: func(ctx context.Context) ([]*domain.AccountNode, error) {
			return []*domain.AccountNode{{
				Account:  &domain.GLAccount{ID: "p", Code: "1000", Type: domain.AccountTypeAsset},
				Children: []*domain.AccountNode{{Account: &domain.GLAccount{ID: "c", Code: "1001", Type: domain.AccountTypeAsset}}},
			}}, nil
		},
	})

	rec := httptest.NewRecorder()
	handler.Tree(rec, httptest.NewRequest(http.MethodGet, "/accounts/tree", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var nodes []dto.AccountNodeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &nodes); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(nodes) != 1 || len(nodes[0].Children) != 1 || nodes[0].Children[0].Code != "1001" {
		t.Fatalf("unexpected tree: %s", rec.Body.String())
	}
}
