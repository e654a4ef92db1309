package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestPostingRules_AllBalanced(t *testing.T) {
	amount := decimal.RequireFromString("250.50")
	fee := decimal.RequireFromString("2.75")

	for _, txType := range PostingRuleTypes() {
		t.Run(string(txType), func(t *testing.T) {
			rule, err := PostingRuleFor(txType)
			if err != nil {
				t.Fatalf("PostingRuleFor: %v", err)
			}

			entry := &JournalEntry{Lines: rule.Lines(amount, fee, nil)}
			for i := range entry.Lines {
				entry.Lines[i].AccountID = entry.Lines[i].AccountCode
			}

			if err := entry.Validate(); err != nil {
				t.Fatalf("rule %s produced invalid entry: %v", txType, err)
			}
		})
	}
}

func TestPostingRule_MomoCashIn(t *testing.T) {
	rule, err := PostingRuleFor(TxTypeMomoCashIn)
	if err != nil {
		t.Fatal(err)
	}

	lines := rule.Lines(decimal.NewFromInt(100), decimal.Zero, nil)
	if len(lines) != 2 {
		t.Fatalf("expected zero fee legs to be dropped, got %d lines", len(lines))
	}
	if lines[0].AccountCode != "1001" || !lines[0].Debit.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("unexpected debit line: %+v", lines[0])
	}
	if lines[1].AccountCode != "1003" || !lines[1].Credit.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("unexpected credit line: %+v", lines[1])
	}
}

func TestPostingRule_Mappings(t *testing.T) {
	rule, _ := PostingRuleFor(TxTypePowerSale)

	lines := rule.Lines(decimal.NewFromInt(10), decimal.Zero, map[AccountRole]string{RoleCash: "1002"})
	if lines[0].AccountCode != "1002" {
		t.Fatalf("expected mapping override, got %s", lines[0].AccountCode)
	}

	codes := rule.Codes(map[AccountRole]string{RoleCash: "1002"})
	want := []string{"1002", "1005", "4003"}
	if len(codes) != len(want) {
		t.Fatalf("codes = %v, want %v", codes, want)
	}
	for i := range want {
		if codes[i] != want[i] {
			t.Fatalf("codes = %v, want %v", codes, want)
		}
	}
}

func TestPostingRuleFor_Unknown(t *testing.T) {
	if _, err := PostingRuleFor("lottery"); !errors.Is(err, ErrUnknownTransactionType) {
		t.Fatalf("expected ErrUnknownTransactionType, got %v", err)
	}
}

func TestNewTrialBalanceReport(t *testing.T) {
	activity := []AccountActivity{
		{AccountID: "a1", Code: "1001", Type: AccountTypeAsset, Debits: decimal.NewFromInt(150), Credits: decimal.NewFromInt(50)},
		{AccountID: "a2", Code: "1003", Type: AccountTypeAsset, Debits: decimal.NewFromInt(20), Credits: decimal.NewFromInt(20)},
		{AccountID: "a3", Code: "4001", Type: AccountTypeRevenue, Debits: decimal.Zero, Credits: decimal.NewFromInt(100)},
	}

	report := NewTrialBalanceReport(time.Now(), activity)

	if len(report.Rows) != 2 {
		t.Fatalf("expected zero-net account to be omitted, got %d rows", len(report.Rows))
	}
	if !report.TotalDebits.Equal(decimal.NewFromInt(100)) || !report.TotalCredits.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("unexpected totals %s / %s", report.TotalDebits, report.TotalCredits)
	}
	if !report.Balanced {
		t.Fatal("expected balanced report")
	}
}
