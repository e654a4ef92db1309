package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// Lookup errors
	ErrNotFound        = errors.New("not found")
	ErrAccountNotFound = fmt.Errorf("account %w", ErrNotFound)
	ErrEntryNotFound   = fmt.Errorf("journal entry %w", ErrNotFound)

	// Posting errors
	ErrUnbalancedEntry    = errors.New("journal entry is not balanced")
	ErrInvalidState       = errors.New("invalid journal entry state")
	ErrPosting            = errors.New("posting failed")
	ErrInactiveAccount    = errors.New("account is inactive")
	ErrInconsistentLedger = errors.New("ledger is inconsistent: debits do not equal credits")

	// Builder errors
	ErrInvalidAmount          = errors.New("amount must be positive")
	ErrUnknownTransactionType = errors.New("unknown transaction type")
	ErrInvalidLine            = errors.New("journal line must have exactly one positive side")

	// Float sync errors
	ErrSyncInProgress = errors.New("float sync already in progress")
)

// NotFoundError reports a missing account, entry or transaction.
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Resource, e.Key)
}

// Is matches ErrNotFound and the resource specific sentinels.
func (e *NotFoundError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return true
	case ErrAccountNotFound:
		return e.Resource == "account"
	case ErrEntryNotFound:
		return e.Resource == "journal entry"
	}
	return false
}

// NewAccountNotFound returns a NotFoundError for a GL account.
func NewAccountNotFound(key string) error {
	return &NotFoundError{Resource: "account", Key: key}
}

// NewEntryNotFound returns a NotFoundError for a journal entry.
func NewEntryNotFound(key string) error {
	return &NotFoundError{Resource: "journal entry", Key: key}
}

// UnbalancedEntryError is returned when debits and credits differ.
type UnbalancedEntryError struct {
	Debits  decimal.Decimal
	Credits decimal.Decimal
}

func (e *UnbalancedEntryError) Error() string {
	return fmt.Sprintf("journal entry is not balanced: debits %s, credits %s",
		e.Debits.StringFixed(2), e.Credits.StringFixed(2))
}

func (e *UnbalancedEntryError) Is(target error) bool {
	return target == ErrUnbalancedEntry
}

// InvalidStateError is returned when an operation does not fit the entry status.
type InvalidStateError struct {
	EntryID   string
	Status    EntryStatus
	Operation string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s journal entry %s in status %s", e.Operation, e.EntryID, e.Status)
}

func (e *InvalidStateError) Is(target error) bool {
	return target == ErrInvalidState
}

// PostingError wraps any failure while applying an entry to the ledger.
type PostingError struct {
	EntryID string
	Reason  string
	Err     error
}

func (e *PostingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("posting journal entry %s: %s: %v", e.EntryID, e.Reason, e.Err)
	}
	return fmt.Sprintf("posting journal entry %s: %s", e.EntryID, e.Reason)
}

func (e *PostingError) Unwrap() error {
	return e.Err
}

func (e *PostingError) Is(target error) bool {
	return target == ErrPosting
}

// NewPostingError wraps err unless it already carries a ledger error kind.
func NewPostingError(entryID, reason string, err error) error {
	if errors.Is(err, ErrInvalidState) || errors.Is(err, ErrNotFound) {
		return err
	}
	var pe *PostingError
	if errors.As(err, &pe) {
		return err
	}
	return &PostingError{EntryID: entryID, Reason: reason, Err: err}
}
