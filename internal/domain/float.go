package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// FloatAccount is an operational cash or e-money pool mirrored by a GL control account.
type FloatAccount struct {
	UpdatedAt      time.Time
	LastSyncedAt   *time.Time
	ID             string
	Name           string
	Provider       FloatProvider
	BranchID       string
	GLAccountCode  string
	CurrentBalance decimal.Decimal
	IsActive       bool
}

// ControlAccountCode returns the GL code the float is reconciled against.
func (f *FloatAccount) ControlAccountCode() string {
	if f.GLAccountCode != "" {
		return f.GLAccountCode
	}
	code, _ := f.Provider.ControlCode()
	return code
}

// FloatSyncFailure records why one float account could not be synced.
type FloatSyncFailure struct {
	FloatAccountID string
	Error          string
}

// FloatSyncResult summarises a float-to-GL sync run.
type FloatSyncResult struct {
	StartedAt       time.Time
	FinishedAt      time.Time
	Entries         []*JournalEntry
	Failures        []FloatSyncFailure
	AccountsChecked int
	AccountsUpdated int
}
