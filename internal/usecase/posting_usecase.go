package usecase

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/mimhaad/finance-ledger/internal/domain"
	"github.com/mimhaad/finance-ledger/internal/infrastructure/metrics"
)

// PostingUseCase commits journal entries to the ledger.
//
// Every operation runs in one database transaction: the entry status moves by
// compare-and-swap, touched accounts are locked in sorted ID order, and all
// balance updates, the outbox event and the audit log commit together.
type PostingUseCase struct {
	txManager   TransactionManager
	accountRepo AccountRepository
	journalRepo JournalRepository
	outboxRepo  OutboxRepository
	auditRepo   AuditRepository
	idGen       IDGenerator
	metrics     *metrics.Metrics
	logger      zerolog.Logger
}

// NewPostingUseCase creates a new PostingUseCase.
func NewPostingUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	journalRepo JournalRepository,
	outboxRepo OutboxRepository,
	auditRepo AuditRepository,
	idGen IDGenerator,
	metrics *metrics.Metrics,
	logger zerolog.Logger,
) *PostingUseCase {
	return &PostingUseCase{
		txManager:   txManager,
		accountRepo: accountRepo,
		journalRepo: journalRepo,
		outboxRepo:  outboxRepo,
		auditRepo:   auditRepo,
		idGen:       idGen,
		metrics:     metrics,
		logger:      logger.With().Str("component", "posting").Logger(),
	}
}

// GetEntry retrieves a journal entry with its lines.
func (uc *PostingUseCase) GetEntry(ctx context.Context, id string) (*domain.JournalEntry, error) {
	return uc.journalRepo.GetByID(ctx, id)
}

// GetJournalEntriesByTransactionID lists every entry recorded for a business transaction.
func (uc *PostingUseCase) GetJournalEntriesByTransactionID(ctx context.Context, transactionID string) ([]*domain.JournalEntry, error) {
	return uc.journalRepo.ListByTransactionID(ctx, transactionID)
}

// Post transitions a draft entry to posted and applies its balance deltas.
func (uc *PostingUseCase) Post(ctx context.Context, entryID, postedBy string) (*domain.JournalEntry, error) {
	if postedBy == "" {
		return nil, domain.ErrMissingUser
	}

	start := time.Now()

	entry, err := uc.inTx(ctx, entryID, "post", func(txCtx context.Context, tx Transaction) (*domain.JournalEntry, error) {
		entry, err := uc.journalRepo.GetByIDTx(txCtx, tx, entryID)
		if err != nil {
			return nil, err
		}
		return uc.postDraft(txCtx, tx, entry, postedBy)
	})
	if err != nil {
		return nil, err
	}

	uc.recordPosted(entry, start)

	return entry, nil
}

// PostGLTransaction posts every draft entry recorded for transactionID in one
// database transaction.
func (uc *PostingUseCase) PostGLTransaction(ctx context.Context, transactionID, userID string) ([]*domain.JournalEntry, error) {
	if userID == "" {
		return nil, domain.ErrMissingUser
	}

	start := time.Now()

	var posted []*domain.JournalEntry
	_, err := uc.inTx(ctx, transactionID, "post", func(txCtx context.Context, tx Transaction) (*domain.JournalEntry, error) {
		entries, err := uc.journalRepo.ListByTransactionIDTx(txCtx, tx, transactionID)
		if err != nil {
			return nil, err
		}
		if len(entries) == 0 {
			return nil, &domain.NotFoundError{Resource: "transaction", Key: transactionID}
		}

		for _, entry := range entries {
			if entry.Status != domain.EntryStatusDraft {
				continue
			}
			p, err := uc.postDraft(txCtx, tx, entry, userID)
			if err != nil {
				return nil, err
			}
			posted = append(posted, p)
		}

		if len(posted) == 0 {
			return nil, &domain.InvalidStateError{
				EntryID:   transactionID,
				Status:    entries[0].Status,
				Operation: "post",
			}
		}
		return nil, nil
	})
	if err != nil {
		return nil, err
	}

	for _, e := range posted {
		uc.recordPosted(e, start)
	}

	return posted, nil
}

// Record inserts a built entry and posts it in the same database transaction.
// Lines must already be resolved to account IDs.
func (uc *PostingUseCase) Record(ctx context.Context, entry *domain.JournalEntry, userID string) (*domain.JournalEntry, error) {
	if userID == "" {
		return nil, domain.ErrMissingUser
	}
	if entry.ID == "" {
		entry.ID = uc.idGen.Generate()
	}

	start := time.Now()

	posted, err := uc.inTx(ctx, entry.ID, "post", func(txCtx context.Context, tx Transaction) (*domain.JournalEntry, error) {
		return uc.insertAndPost(txCtx, tx, entry, userID)
	})
	if err != nil {
		return nil, err
	}

	uc.recordPosted(posted, start)

	return posted, nil
}

// AdjustmentBuilder derives an entry from accounts locked for update, keyed by
// ID. A nil entry means the accounts need no adjustment.
type AdjustmentBuilder func(locked map[string]*domain.GLAccount) (*domain.JournalEntry, error)

// RecordAdjustment locks accountIDs, hands their current balances to build and
// posts the entry it returns, all in one database transaction. The returned
// entry is nil when build returns nil.
func (uc *PostingUseCase) RecordAdjustment(ctx context.Context, accountIDs []string, userID string, build AdjustmentBuilder) (*domain.JournalEntry, error) {
	if userID == "" {
		return nil, domain.ErrMissingUser
	}

	ids := append([]string(nil), accountIDs...)
	sort.Strings(ids)

	start := time.Now()

	posted, err := uc.inTx(ctx, strings.Join(ids, ","), "adjust", func(txCtx context.Context, tx Transaction) (*domain.JournalEntry, error) {
		accounts, err := uc.accountRepo.GetByIDsForUpdate(txCtx, tx, ids)
		if err != nil {
			return nil, err
		}

		locked := make(map[string]*domain.GLAccount, len(accounts))
		for _, a := range accounts {
			locked[a.ID] = a
		}
		for _, id := range ids {
			if _, ok := locked[id]; !ok {
				return nil, domain.NewAccountNotFound(id)
			}
		}

		entry, err := build(locked)
		if err != nil || entry == nil {
			return nil, err
		}
		if entry.ID == "" {
			entry.ID = uc.idGen.Generate()
		}
		return uc.insertAndPost(txCtx, tx, entry, userID)
	})
	if err != nil {
		return nil, err
	}

	if posted != nil {
		uc.recordPosted(posted, start)
	}

	return posted, nil
}

func (uc *PostingUseCase) insertAndPost(ctx context.Context, tx Transaction, entry *domain.JournalEntry, userID string) (*domain.JournalEntry, error) {
	entry.Status = domain.EntryStatusDraft
	if err := uc.journalRepo.Create(ctx, tx, entry); err != nil {
		return nil, err
	}
	return uc.postDraft(ctx, tx, entry, userID)
}

// Reverse creates and posts an offsetting entry for a posted entry, then
// marks the original reversed with a back-reference and reason.
func (uc *PostingUseCase) Reverse(ctx context.Context, entryID, reversedBy, reason string) (*domain.JournalEntry, error) {
	if reversedBy == "" {
		return nil, domain.ErrMissingUser
	}
	if err := domain.ValidateReason(reason); err != nil {
		return nil, err
	}

	start := time.Now()

	original, err := uc.inTx(ctx, entryID, "reverse", func(txCtx context.Context, tx Transaction) (*domain.JournalEntry, error) {
		original, err := uc.journalRepo.GetByIDTx(txCtx, tx, entryID)
		if err != nil {
			return nil, err
		}
		if original.Status != domain.EntryStatusPosted || original.IsReversal() {
			return nil, &domain.InvalidStateError{EntryID: entryID, Status: original.Status, Operation: "reverse"}
		}

		now := time.Now().UTC()
		reversal := &domain.JournalEntry{
			ID:              uc.idGen.Generate(),
			TransactionID:   original.TransactionID,
			TransactionType: domain.TxTypeReversal,
			Description:     "Reversal of " + original.ID + ": " + reason,
			Date:            now,
			Status:          domain.EntryStatusPosted,
			CreatedBy:       reversedBy,
			PostedBy:        &reversedBy,
			PostedAt:        &now,
			ReversesEntryID: &original.ID,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		for _, l := range original.Lines {
			rl := l.Reversed()
			rl.ID = uc.idGen.Generate()
			rl.EntryID = reversal.ID
			reversal.Lines = append(reversal.Lines, rl)
		}

		if err := reversal.Validate(); err != nil {
			return nil, err
		}

		if err := uc.journalRepo.Create(txCtx, tx, reversal); err != nil {
			return nil, err
		}

		if err := uc.applyLines(txCtx, tx, reversal, now); err != nil {
			return nil, err
		}

		ok, err := uc.journalRepo.MarkReversed(txCtx, tx, original.ID, ReversalMark{
			ReversedAt:      now,
			ReversedBy:      reversedBy,
			Reason:          reason,
			ReversalEntryID: reversal.ID,
		})
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, &domain.InvalidStateError{EntryID: entryID, Status: original.Status, Operation: "reverse"}
		}

		before := domain.MarshalState(original)

		original.Status = domain.EntryStatusReversed
		original.ReversedBy = &reversedBy
		original.ReversedAt = &now
		original.ReversalReason = &reason
		original.ReversalEntryID = &reversal.ID
		original.UpdatedAt = now
		original.Version++

		event := &domain.OutboxEvent{
			ID:            uc.idGen.Generate(),
			AggregateID:   original.ID,
			AggregateType: domain.AggregateTypeJournalEntry,
			EventType:     domain.EventTypeJournalReversed,
			Payload: map[string]any{
				"original_entry_id": original.ID,
				"reversal_entry_id": reversal.ID,
				"transaction_id":    original.TransactionID,
				"reversed_by":       reversedBy,
				"reason":            reason,
			},
			CreatedAt: now,
		}
		if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
			return nil, err
		}

		if err := uc.audit(txCtx, tx, domain.AuditActionJournalReverse, reversedBy, original.ID, before, domain.MarshalState(original)); err != nil {
			return nil, err
		}

		return original, nil
	})
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.EntriesReversed.Inc()
		uc.metrics.PostingDuration.Observe(time.Since(start).Seconds())
	}

	uc.logger.Info().
		Str("entry_id", original.ID).
		Str("reversal_entry_id", *original.ReversalEntryID).
		Str("user_id", reversedBy).
		Msg("journal entry reversed")

	return original, nil
}

// DiscardDraft deletes a draft entry that will never be posted.
func (uc *PostingUseCase) DiscardDraft(ctx context.Context, entryID, userID string) error {
	if userID == "" {
		return domain.ErrMissingUser
	}

	_, err := uc.inTx(ctx, entryID, "discard", func(txCtx context.Context, tx Transaction) (*domain.JournalEntry, error) {
		entry, err := uc.journalRepo.GetByIDTx(txCtx, tx, entryID)
		if err != nil {
			return nil, err
		}

		ok, err := uc.journalRepo.DeleteDraft(txCtx, tx, entryID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, &domain.InvalidStateError{EntryID: entryID, Status: entry.Status, Operation: "discard"}
		}

		return nil, uc.audit(txCtx, tx, domain.AuditActionJournalDiscard, userID, entryID, domain.MarshalState(entry), nil)
	})
	if err != nil {
		return err
	}

	uc.logger.Info().Str("entry_id", entryID).Str("user_id", userID).Msg("draft journal entry discarded")

	return nil
}

// inTx runs fn in a transaction with the default timeout and normalises errors.
func (uc *PostingUseCase) inTx(
	ctx context.Context,
	key, operation string,
	fn func(txCtx context.Context, tx Transaction) (*domain.JournalEntry, error),
) (*domain.JournalEntry, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, uc.fail(key, operation, domain.NewPostingError(key, "begin transaction", err))
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	entry, err := fn(txCtx, tx)
	if err != nil {
		return nil, uc.fail(key, operation, err)
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, uc.fail(key, operation, domain.NewPostingError(key, "commit", err))
	}

	return entry, nil
}

// postDraft posts an entry that is already stored as a draft inside tx.
func (uc *PostingUseCase) postDraft(ctx context.Context, tx Transaction, entry *domain.JournalEntry, postedBy string) (*domain.JournalEntry, error) {
	if entry.Status != domain.EntryStatusDraft {
		return nil, &domain.InvalidStateError{EntryID: entry.ID, Status: entry.Status, Operation: "post"}
	}

	if err := entry.Validate(); err != nil {
		return nil, &domain.PostingError{EntryID: entry.ID, Reason: "entry failed validation", Err: err}
	}

	now := time.Now().UTC()

	ok, err := uc.journalRepo.MarkPosted(ctx, tx, entry.ID, postedBy, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Another caller won the draft -> posted transition.
		return nil, &domain.InvalidStateError{EntryID: entry.ID, Status: domain.EntryStatusPosted, Operation: "post"}
	}

	if err := uc.applyLines(ctx, tx, entry, now); err != nil {
		return nil, err
	}

	entry.Status = domain.EntryStatusPosted
	entry.PostedBy = &postedBy
	entry.PostedAt = &now
	entry.UpdatedAt = now
	entry.Version++

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   entry.ID,
		AggregateType: domain.AggregateTypeJournalEntry,
		EventType:     domain.EventTypeJournalPosted,
		Payload:       domain.JournalPostedPayload(entry),
		CreatedAt:     now,
	}
	if err := uc.outboxRepo.Create(ctx, tx, event); err != nil {
		return nil, err
	}

	if err := uc.audit(ctx, tx, domain.AuditActionJournalPost, postedBy, entry.ID, nil, domain.MarshalState(entry)); err != nil {
		return nil, err
	}

	return entry, nil
}

// applyLines locks the touched accounts in sorted order and applies each
// account's aggregated delta.
func (uc *PostingUseCase) applyLines(ctx context.Context, tx Transaction, entry *domain.JournalEntry, now time.Time) error {
	// DEADLOCK PREVENTION: lock in a stable order
	ids := entry.AccountIDs()
	sort.Strings(ids)

	accounts, err := uc.accountRepo.GetByIDsForUpdate(ctx, tx, ids)
	if err != nil {
		return err
	}

	byID := make(map[string]*domain.GLAccount, len(accounts))
	for _, a := range accounts {
		byID[a.ID] = a
	}

	for _, id := range ids {
		account, ok := byID[id]
		if !ok {
			return domain.NewAccountNotFound(id)
		}
		if !account.IsActive {
			return &domain.PostingError{EntryID: entry.ID, Reason: "account " + account.Code + " is inactive", Err: domain.ErrInactiveAccount}
		}
	}

	deltas := make(map[string]decimal.Decimal, len(ids))
	for _, l := range entry.Lines {
		account := byID[l.AccountID]
		deltas[l.AccountID] = deltas[l.AccountID].Add(account.Type.BalanceDelta(l.Debit, l.Credit))
	}

	for _, id := range ids {
		account := byID[id]
		newBalance := account.Balance.Add(deltas[id])
		if err := uc.accountRepo.UpdateBalance(ctx, tx, id, newBalance, now); err != nil {
			return err
		}
		account.Balance = newBalance
		account.Version++
	}

	return nil
}

func (uc *PostingUseCase) audit(
	ctx context.Context,
	tx Transaction,
	action domain.AuditAction,
	userID, entryID string,
	before, after domain.JSON,
) error {
	if uc.auditRepo == nil {
		return nil
	}

	auditLog := &domain.AuditLog{
		ID:           uc.idGen.Generate(),
		UserID:       userID,
		Action:       string(action),
		ResourceType: domain.AggregateTypeJournalEntry,
		ResourceID:   entryID,
		BeforeState:  before,
		AfterState:   after,
		Status:       string(domain.AuditStatusSuccess),
		CreatedAt:    time.Now().UTC(),
	}
	return uc.auditRepo.CreateTx(ctx, tx, auditLog)
}

func (uc *PostingUseCase) fail(key, operation string, err error) error {
	err = domain.NewPostingError(key, operation, err)

	if uc.metrics != nil {
		uc.metrics.PostingErrors.WithLabelValues(errorType(err)).Inc()
	}

	uc.logger.Warn().Err(err).Str("entry_id", key).Str("operation", operation).Msg("journal operation failed")

	return err
}

func (uc *PostingUseCase) recordPosted(entry *domain.JournalEntry, start time.Time) {
	debits, _ := entry.Totals()

	if uc.metrics != nil {
		uc.metrics.EntriesPosted.Inc()
		uc.metrics.PostingDuration.Observe(time.Since(start).Seconds())
		uc.metrics.PostedAmount.Observe(debits.InexactFloat64())
	}

	uc.logger.Info().
		Str("entry_id", entry.ID).
		Str("transaction_id", entry.TransactionID).
		Str("user_id", *entry.PostedBy).
		Str("total", debits.StringFixed(domain.MinorUnitPlaces)).
		Msg("journal entry posted")
}

func errorType(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, domain.ErrUnbalancedEntry):
		return "unbalanced"
	default:
		return "posting"
	}
}
