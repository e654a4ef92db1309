package dto

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/mimhaad/finance-ledger/internal/domain"
)

func TestCreateJournalEntryRequest_ToUseCaseInput(t *testing.T) {
	req := &CreateJournalEntryRequest{
		TransactionID:   "tx-1",
		TransactionType: "momo_cash_in",
		Amount:          decimal.RequireFromString("500"),
		Fee:             decimal.RequireFromString("5"),
		AccountMappings: map[string]string{"cash": "1101"},
	}

	got := req.ToUseCaseInput("user-1")

	if got.TransactionType != domain.TxTypeMomoCashIn || got.CreatedBy != "user-1" {
		t.Fatalf("unexpected input: %+v", got)
	}
	if got.AccountMappings[domain.RoleCash] != "1101" {
		t.Fatalf("expected cash mapping to 1101, got %v", got.AccountMappings)
	}
	if !got.Amount.Equal(decimal.NewFromInt(500)) || !got.Fee.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("amounts not carried over: %s/%s", got.Amount, got.Fee)
	}
}

func TestCreateJournalEntryRequest_ManualLines(t *testing.T) {
	req := &CreateJournalEntryRequest{
		TransactionID: "tx-2",
		Lines: []LineRequest{
			{AccountCode: "1001", Debit: decimal.RequireFromString("10")},
			{AccountCode: "4001", Credit: decimal.RequireFromString("10"), Memo: "fee"},
		},
	}

	if err := Validate(req); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	got := req.ToUseCaseInput("user-1")
	if len(got.Lines) != 2 || got.Lines[1].Memo != "fee" || got.AccountMappings != nil {
		t.Fatalf("unexpected lines: %+v", got)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		payload any
		wantErr bool
	}{
		{
			name:    "account ok",
			payload: &CreateAccountRequest{Code: "1001", Name: "Cash"},
		},
		{
			name:    "account missing code",
			payload: &CreateAccountRequest{Name: "Cash"},
			wantErr: true,
		},
		{
			name:    "account bad type",
			payload: &CreateAccountRequest{Code: "1001", Name: "Cash", Type: "stock"},
			wantErr: true,
		},
		{
			name:    "ensure empty",
			payload: &EnsureAccountsRequest{},
			wantErr: true,
		},
		{
			name:    "ensure blank code",
			payload: &EnsureAccountsRequest{Codes: []string{"1001", ""}},
			wantErr: true,
		},
		{
			name:    "entry without type or lines",
			payload: &CreateJournalEntryRequest{TransactionID: "tx"},
			wantErr: true,
		},
		{
			name: "entry negative line",
			payload: &CreateJournalEntryRequest{
				TransactionID: "tx",
				Lines: []LineRequest{
					{AccountCode: "1001", Debit: decimal.RequireFromString("-1")},
					{AccountCode: "4001", Credit: decimal.RequireFromString("1")},
				},
			},
			wantErr: true,
		},
		{
			name:    "reverse without reason",
			payload: &ReverseEntryRequest{UserID: "u"},
			wantErr: true,
		},
		{
			name:    "float negative balance",
			payload: &UpdateFloatAccountRequest{Provider: "momo", CurrentBalance: decimal.RequireFromString("-5")},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.payload)
			if tt.wantErr && !errors.Is(err, ErrValidationFailed) {
				t.Fatalf("expected ErrValidationFailed, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidate_UsesJSONFieldNames(t *testing.T) {
	err := Validate(&ReverseEntryRequest{})
	if err == nil || err.Error() != "validation failed: reason must satisfy required" {
		t.Fatalf("unexpected message: %v", err)
	}
}

func TestUpdateFloatAccountRequest_ToDomain(t *testing.T) {
	inactive := false
	req := &UpdateFloatAccountRequest{Provider: "jumia", CurrentBalance: decimal.RequireFromString("12.5")}

	f := req.ToDomain("jumia-1")
	if f.ID != "jumia-1" || f.Provider != domain.FloatProviderJumia || !f.IsActive {
		t.Fatalf("unexpected float: %+v", f)
	}

	req.IsActive = &inactive
	if req.ToDomain("jumia-1").IsActive {
		t.Fatal("expected is_active=false to be honoured")
	}
}
