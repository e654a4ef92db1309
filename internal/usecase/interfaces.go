package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mimhaad/finance-ledger/internal/domain"
)

// AccountRepository defines data access for GL accounts.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.GLAccount) error
	// CreateIfNotExists inserts the account unless its code is taken.
	// It reports whether a row was inserted.
	CreateIfNotExists(ctx context.Context, account *domain.GLAccount) (bool, error)
	GetByID(ctx context.Context, id string) (*domain.GLAccount, error)
	GetByCode(ctx context.Context, code string) (*domain.GLAccount, error)
	GetByCodes(ctx context.Context, codes []string) ([]*domain.GLAccount, error)
	GetByIDsForUpdate(ctx context.Context, tx Transaction, ids []string) ([]*domain.GLAccount, error)
	UpdateBalance(ctx context.Context, tx Transaction, id string, balance decimal.Decimal, updatedAt time.Time) error
	List(ctx context.Context, limit, offset int) ([]*domain.GLAccount, error)
	ListAll(ctx context.Context) ([]*domain.GLAccount, error)
}

// JournalRepository defines data access for journal entries and their lines.
type JournalRepository interface {
	Create(ctx context.Context, tx Transaction, entry *domain.JournalEntry) error
	GetByID(ctx context.Context, id string) (*domain.JournalEntry, error)
	GetByIDTx(ctx context.Context, tx Transaction, id string) (*domain.JournalEntry, error)
	ListByTransactionID(ctx context.Context, transactionID string) ([]*domain.JournalEntry, error)
	ListByTransactionIDTx(ctx context.Context, tx Transaction, transactionID string) ([]*domain.JournalEntry, error)
	// MarkPosted moves a draft to posted. It returns false when the entry
	// was no longer a draft.
	MarkPosted(ctx context.Context, tx Transaction, id, postedBy string, postedAt time.Time) (bool, error)
	// MarkReversed moves a posted entry to reversed. It returns false when the
	// entry was no longer posted.
	MarkReversed(ctx context.Context, tx Transaction, id string, rev ReversalMark) (bool, error)
	// DeleteDraft removes a draft and its lines. It returns false when the
	// entry was not a draft.
	DeleteDraft(ctx context.Context, tx Transaction, id string) (bool, error)
}

// ReversalMark carries the fields stamped on a reversed entry.
type ReversalMark struct {
	ReversedAt      time.Time
	ReversedBy      string
	Reason          string
	ReversalEntryID string
}

// LedgerRepository defines read-side aggregates over posted lines.
type LedgerRepository interface {
	CheckConsistency(ctx context.Context) (totalDebits, totalCredits decimal.Decimal, err error)
	// AccountActivity sums posted lines per account for entries dated on or before asOf.
	AccountActivity(ctx context.Context, asOf time.Time) ([]domain.AccountActivity, error)
	AccountActivityByID(ctx context.Context, accountID string) (domain.AccountActivity, error)
}

// FloatAccountRepository defines data access for float accounts.
type FloatAccountRepository interface {
	Upsert(ctx context.Context, float *domain.FloatAccount) error
	GetByID(ctx context.Context, id string) (*domain.FloatAccount, error)
	List(ctx context.Context) ([]*domain.FloatAccount, error)
	MarkSynced(ctx context.Context, id string, syncedAt time.Time) error
}

// FloatBalanceSource supplies the current external balance of active floats.
type FloatBalanceSource interface {
	ListActive(ctx context.Context) ([]*domain.FloatAccount, error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	DeletePublished(ctx context.Context, before time.Time) error
}

// AuditRepository defines data access for audit logs.
type AuditRepository interface {
	Create(ctx context.Context, log *domain.AuditLog) error
	CreateTx(ctx context.Context, tx Transaction, log *domain.AuditLog) error
	List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error)
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}
