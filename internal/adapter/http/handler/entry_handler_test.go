package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mimhaad/finance-ledger/internal/adapter/http/dto"
	"github.com/mimhaad/finance-ledger/internal/domain"
	"github.com/mimhaad/finance-ledger/internal/usecase"
)

type drafterStub struct {
	createFn func(ctx context.Context, input usecase.BuildEntryInput) (*domain.JournalEntry, error)
}

func (s *drafterStub) CreateDraft(ctx context.Context, input usecase.BuildEntryInput) (*domain.JournalEntry, error) {
	return s.createFn(ctx, input)
}

type posterStub struct {
	getFn     func(ctx context.Context, id string) (*domain.JournalEntry, error)
	postFn    func(ctx context.Context, entryID, postedBy string) (*domain.JournalEntry, error)
	reverseFn func(ctx context.Context, entryID, reversedBy, reason string) (*domain.JournalEntry, error)
	discardFn func(ctx context.Context, entryID, userID string) error
}

func (s *posterStub) GetEntry(ctx context.Context, id string) (*domain.JournalEntry, error) {
	return s.getFn(ctx, id)
}

func (s *posterStub) Post(ctx context.Context, entryID, postedBy string) (*domain.JournalEntry, error) {
	return s.postFn(ctx, entryID, postedBy)
}

func (s *posterStub) Reverse(ctx context.Context, entryID, reversedBy, reason string) (*domain.JournalEntry, error) {
	return s.reverseFn(ctx, entryID, reversedBy, reason)
}

func (s *posterStub) DiscardDraft(ctx context.Context, entryID, userID string) error {
	return s.discardFn(ctx, entryID, userID)
}

func TestEntryHandler_Create_FromTransactionType(t *testing.T) {
	var captured usecase.BuildEntryInput
	handler := NewEntryHandler(&drafterStub{
		createFn: func(ctx context.Context, input usecase.BuildEntryInput) (*domain.JournalEntry, error) {
			captured = input
			return &domain.JournalEntry{
				ID:            "je-1",
				TransactionID: input.TransactionID,
				Status:        domain.EntryStatusDraft,
				Lines: []domain.JournalLine{
					{AccountCode: "1001", Debit: dec("505")},
					{AccountCode: "1003", Credit: dec("500")},
					{AccountCode: "4001", Credit: dec("5")},
				},
			}, nil
		},
	}, &posterStub{})

	body := `{"transaction_id":"tx-1","transaction_type":"momo_cash_in","amount":"500","fee":"5"}`
	req := httptest.NewRequest(http.MethodPost, "/journal-entries", bytes.NewBufferString(body))
	req.Header.Set(UserIDHeader, "teller-1")
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if captured.CreatedBy != "teller-1" || captured.TransactionType != domain.TxTypeMomoCashIn {
		t.Fatalf("unexpected input: %+v", captured)
	}
	if !captured.Amount.Equal(dec("500")) || !captured.Fee.Equal(dec("5")) {
		t.Fatalf("unexpected amounts: %s/%s", captured.Amount, captured.Fee)
	}

	var resp dto.JournalEntryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Status != "draft" || resp.TotalDebits != "505.00" || len(resp.Lines) != 3 {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestEntryHandler_Create_MissingUser(t *testing.T) {
	handler := NewEntryHandler(&drafterStub{
		createFn: func(ctx context.Context, input usecase.BuildEntryInput) (*domain.JournalEntry, error) {
			t.Fatal("CreateDraft should not be called without a user")
			return nil, nil
		},
	}, &posterStub{})

	body := `{"transaction_id":"tx-1","transaction_type":"power_sale","amount":"10"}`
	req := httptest.NewRequest(http.MethodPost, "/journal-entries", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestEntryHandler_Create_Unbalanced(t *testing.T) {
	handler := NewEntryHandler(&drafterStub{
		createFn: func(ctx context.Context, input usecase.BuildEntryInput) (*domain.JournalEntry, error) {
			return nil, &domain.UnbalancedEntryError{Debits: dec("100"), Credits: dec("90")}
		},
	}, &posterStub{})

	body := `{"transaction_id":"tx-1","user_id":"u-1","lines":[
		{"account_code":"1001","debit":"100"},
		{"account_code":"4001","credit":"90"}]}`
	req := httptest.NewRequest(http.MethodPost, "/journal-entries", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestEntryHandler_Post(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "posted", wantStatus: http.StatusOK},
		{name: "already posted", err: &domain.InvalidStateError{EntryID: "je-1", Status: domain.EntryStatusPosted, Operation: "post"}, wantStatus: http.StatusConflict},
		{name: "missing", err: domain.NewEntryNotFound("je-1"), wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewEntryHandler(&drafterStub{}, &posterStub{
				postFn: func(ctx context.Context, entryID, postedBy string) (*domain.JournalEntry, error) {
					if entryID != "je-1" || postedBy != "u-1" {
						t.Fatalf("unexpected args %q %q", entryID, postedBy)
					}
					if tt.err != nil {
						return nil, tt.err
					}
					return &domain.JournalEntry{ID: entryID, Status: domain.EntryStatusPosted, PostedBy: &postedBy}, nil
				},
			})

			req := httptest.NewRequest(http.MethodPost, "/journal-entries/je-1/post", bytes.NewBufferString(`{"user_id":"u-1"}`))
			req = withURLParams(req, "id", "je-1")
			rec := httptest.NewRecorder()

			handler.Post(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestEntryHandler_Reverse(t *testing.T) {
	var gotReason string
	handler := NewEntryHandler(&drafterStub{}, &posterStub{
		reverseFn: func(ctx context.Context, entryID, reversedBy, reason string) (*domain.JournalEntry, error) {
			gotReason = reason
			rev := "je-rev"
			return &domain.JournalEntry{ID: entryID, ReversalEntryID: &rev, ReversalReason: &reason, Status: domain.EntryStatusReversed}, nil
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/journal-entries/je-1/reverse", bytes.NewBufferString(`{"reason":"customer dispute"}`))
	req.Header.Set(UserIDHeader, "supervisor")
	req = withURLParams(req, "id", "je-1")
	rec := httptest.NewRecorder()

	handler.Reverse(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if gotReason != "customer dispute" {
		t.Fatalf("unexpected reason %q", gotReason)
	}

	var resp dto.JournalEntryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Status != string(domain.EntryStatusReversed) || resp.ReversalEntryID == nil || *resp.ReversalEntryID != "je-rev" {
		t.Fatalf("expected je-1 reversed by je-rev, got %+v", resp)
	}
}

func TestEntryHandler_Reverse_RequiresReason(t *testing.T) {
	handler := NewEntryHandler(&drafterStub{}, &posterStub{})

	req := httptest.NewRequest(http.MethodPost, "/journal-entries/je-1/reverse", bytes.NewBufferString(`{"user_id":"u-1"}`))
	req = withURLParams(req, "id", "je-1")
	rec := httptest.NewRecorder()

	handler.Reverse(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestEntryHandler_Discard(t *testing.T) {
	handler := NewEntryHandler(&drafterStub{}, &posterStub{
		discardFn: func(ctx context.Context, entryID, userID string) error {
			if userID != "u-1" {
				t.Fatalf("unexpected user %q", userID)
			}
			return nil
		},
	})

	req := httptest.NewRequest(http.MethodDelete, "/journal-entries/je-1", nil)
	req.Header.Set(UserIDHeader, "u-1")
	req = withURLParams(req, "id", "je-1")
	rec := httptest.NewRecorder()

	handler.Discard(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
}
