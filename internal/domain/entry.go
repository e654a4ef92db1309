package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryStatus is the lifecycle state of a journal entry.
type EntryStatus string

const (
	EntryStatusDraft    EntryStatus = "draft"
	EntryStatusPosted   EntryStatus = "posted"
	EntryStatusReversed EntryStatus = "reversed"
)

// MinorUnitPlaces is the precision at which debits and credits must agree.
const MinorUnitPlaces = 2

// JournalEntry is a balanced set of debit/credit lines for one business transaction.
type JournalEntry struct {
	Date            time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
	PostedAt        *time.Time
	ReversedAt      *time.Time
	PostedBy        *string
	ReversedBy      *string
	ReversalReason  *string
	ReversalEntryID *string
	ReversesEntryID *string
	ID              string
	TransactionID   string
	TransactionType TransactionType
	Description     string
	Status          EntryStatus
	CreatedBy       string
	Lines           []JournalLine
	Version         int64
}

// JournalLine is one debit or credit against a GL account.
type JournalLine struct {
	ID          string
	EntryID     string
	AccountID   string
	AccountCode string
	Memo        string
	Debit       decimal.Decimal
	Credit      decimal.Decimal
}

// Totals returns the sum of debits and credits across all lines.
func (e *JournalEntry) Totals() (debits, credits decimal.Decimal) {
	debits, credits = decimal.Zero, decimal.Zero
	for _, l := range e.Lines {
		debits = debits.Add(l.Debit)
		credits = credits.Add(l.Credit)
	}
	return debits, credits
}

// IsBalanced reports whether debits equal credits at minor-unit precision.
func (e *JournalEntry) IsBalanced() bool {
	debits, credits := e.Totals()
	return debits.Round(MinorUnitPlaces).Equal(credits.Round(MinorUnitPlaces))
}

// Validate checks the double-entry shape of the entry.
func (e *JournalEntry) Validate() error {
	for _, l := range e.Lines {
		if err := l.Validate(); err != nil {
			return err
		}
	}

	debits, credits := e.Totals()
	if len(e.Lines) < 2 || !e.IsBalanced() {
		return &UnbalancedEntryError{Debits: debits, Credits: credits}
	}

	return nil
}

// Validate checks that exactly one side carries a positive amount.
func (l JournalLine) Validate() error {
	if l.Debit.IsNegative() || l.Credit.IsNegative() {
		return ErrInvalidLine
	}
	if l.Debit.IsPositive() == l.Credit.IsPositive() {
		return ErrInvalidLine
	}
	return nil
}

// Reversed returns a copy of the line with debit and credit swapped.
func (l JournalLine) Reversed() JournalLine {
	return JournalLine{
		AccountID:   l.AccountID,
		AccountCode: l.AccountCode,
		Memo:        l.Memo,
		Debit:       l.Credit,
		Credit:      l.Debit,
	}
}

// AccountIDs returns the distinct account IDs touched by the entry.
func (e *JournalEntry) AccountIDs() []string {
	seen := make(map[string]bool, len(e.Lines))
	ids := make([]string, 0, len(e.Lines))
	for _, l := range e.Lines {
		if !seen[l.AccountID] {
			seen[l.AccountID] = true
			ids = append(ids, l.AccountID)
		}
	}
	return ids
}

// IsReversal reports whether this entry was created to reverse another one.
func (e *JournalEntry) IsReversal() bool {
	return e.ReversesEntryID != nil
}
