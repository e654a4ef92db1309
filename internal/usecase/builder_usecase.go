package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/mimhaad/finance-ledger/internal/domain"
	"github.com/mimhaad/finance-ledger/internal/infrastructure/metrics"
)

// BuilderUseCase turns business transactions into draft journal entries.
type BuilderUseCase struct {
	txManager   TransactionManager
	chart       *ChartUseCase
	journalRepo JournalRepository
	outboxRepo  OutboxRepository
	auditRepo   AuditRepository
	idGen       IDGenerator
	metrics     *metrics.Metrics
	logger      zerolog.Logger
}

// NewBuilderUseCase creates a new BuilderUseCase.
func NewBuilderUseCase(
	txManager TransactionManager,
	chart *ChartUseCase,
	journalRepo JournalRepository,
	outboxRepo OutboxRepository,
	auditRepo AuditRepository,
	idGen IDGenerator,
	metrics *metrics.Metrics,
	logger zerolog.Logger,
) *BuilderUseCase {
	return &BuilderUseCase{
		txManager:   txManager,
		chart:       chart,
		journalRepo: journalRepo,
		outboxRepo:  outboxRepo,
		auditRepo:   auditRepo,
		idGen:       idGen,
		metrics:     metrics,
		logger:      logger.With().Str("component", "builder").Logger(),
	}
}

// LineInput is a manual journal line addressed by account code.
type LineInput struct {
	AccountCode string
	Memo        string
	Debit       decimal.Decimal
	Credit      decimal.Decimal
}

// BuildEntryInput describes the business transaction to record.
//
// Either TransactionType (with Amount, Fee and optional AccountMappings) or
// Lines must be set.
type BuildEntryInput struct {
	Date            *time.Time
	AccountMappings map[domain.AccountRole]string
	TransactionID   string
	TransactionType domain.TransactionType
	Description     string
	CreatedBy       string
	Lines           []LineInput
	Amount          decimal.Decimal
	Fee             decimal.Decimal
}

// BuildEntry produces an unsaved draft with lines addressed by account code.
// It fails with UnbalancedEntryError when the lines do not balance.
func (uc *BuilderUseCase) BuildEntry(input BuildEntryInput) (*domain.JournalEntry, error) {
	if input.TransactionID == "" {
		return nil, domain.ErrMissingTransaction
	}

	var lines []domain.JournalLine
	txType := input.TransactionType

	if len(input.Lines) > 0 {
		if txType == "" {
			txType = domain.TxTypeManual
		}
		lines = make([]domain.JournalLine, 0, len(input.Lines))
		for _, l := range input.Lines {
			if err := domain.ValidateAccountCode(l.AccountCode); err != nil {
				return nil, err
			}
			if err := validateLineAmount(l.Debit); err != nil {
				return nil, fmt.Errorf("line %s debit: %w", l.AccountCode, err)
			}
			if err := validateLineAmount(l.Credit); err != nil {
				return nil, fmt.Errorf("line %s credit: %w", l.AccountCode, err)
			}
			lines = append(lines, domain.JournalLine{
				AccountCode: l.AccountCode,
				Memo:        l.Memo,
				Debit:       l.Debit,
				Credit:      l.Credit,
			})
		}
	} else {
		if err := domain.ValidateAmount(input.Amount); err != nil {
			return nil, err
		}
		if err := domain.ValidateFee(input.Fee); err != nil {
			return nil, err
		}
		rule, err := domain.PostingRuleFor(txType)
		if err != nil {
			return nil, err
		}
		lines = rule.Lines(input.Amount, input.Fee, input.AccountMappings)
	}

	now := time.Now().UTC()
	date := now
	if input.Date != nil {
		date = input.Date.UTC()
	}

	entry := &domain.JournalEntry{
		TransactionID:   input.TransactionID,
		TransactionType: txType,
		Description:     input.Description,
		Date:            date,
		Status:          domain.EntryStatusDraft,
		CreatedBy:       input.CreatedBy,
		Lines:           lines,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := entry.Validate(); err != nil {
		return nil, err
	}

	return entry, nil
}

// validateLineAmount applies the amount limits to the used side of a manual
// line. Zero and negative sides are left to JournalLine.Validate.
func validateLineAmount(d decimal.Decimal) error {
	if !d.IsPositive() {
		return nil
	}
	return domain.ValidateAmount(d)
}

// Resolve binds each line of a built entry to its GL account, provisioning
// missing default accounts, and assigns IDs.
func (uc *BuilderUseCase) Resolve(ctx context.Context, entry *domain.JournalEntry) error {
	codes := make([]string, 0, len(entry.Lines))
	for _, l := range entry.Lines {
		codes = append(codes, l.AccountCode)
	}

	accounts, err := uc.chart.ResolveCodes(ctx, codes, true)
	if err != nil {
		return err
	}

	return uc.Bind(entry, accounts)
}

// Bind addresses each line to its account from accounts keyed by code and
// assigns entry and line IDs.
func (uc *BuilderUseCase) Bind(entry *domain.JournalEntry, accounts map[string]*domain.GLAccount) error {
	if entry.ID == "" {
		entry.ID = uc.idGen.Generate()
	}
	for i := range entry.Lines {
		account, ok := accounts[entry.Lines[i].AccountCode]
		if !ok {
			return domain.NewAccountNotFound(entry.Lines[i].AccountCode)
		}
		entry.Lines[i].ID = uc.idGen.Generate()
		entry.Lines[i].EntryID = entry.ID
		entry.Lines[i].AccountID = account.ID
	}

	return nil
}

// CreateDraft builds, resolves and stores a draft entry.
func (uc *BuilderUseCase) CreateDraft(ctx context.Context, input BuildEntryInput) (*domain.JournalEntry, error) {
	if input.CreatedBy == "" {
		input.CreatedBy = domain.UserIDFromContext(ctx)
	}

	entry, err := uc.BuildEntry(input)
	if err != nil {
		return nil, err
	}

	if err := uc.Resolve(ctx, entry); err != nil {
		return nil, err
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	if err := uc.journalRepo.Create(txCtx, tx, entry); err != nil {
		return nil, err
	}

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   entry.ID,
		AggregateType: domain.AggregateTypeJournalEntry,
		EventType:     domain.EventTypeJournalDrafted,
		Payload: map[string]any{
			"entry_id":         entry.ID,
			"transaction_id":   entry.TransactionID,
			"transaction_type": string(entry.TransactionType),
		},
		CreatedAt: entry.CreatedAt,
	}
	if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
		return nil, err
	}

	if uc.auditRepo != nil {
		auditLog := &domain.AuditLog{
			ID:           uc.idGen.Generate(),
			UserID:       entry.CreatedBy,
			Action:       string(domain.AuditActionJournalDraft),
			ResourceType: domain.AggregateTypeJournalEntry,
			ResourceID:   entry.ID,
			AfterState:   domain.MarshalState(entry),
			Status:       string(domain.AuditStatusSuccess),
			CreatedAt:    time.Now().UTC(),
		}
		if err := uc.auditRepo.CreateTx(txCtx, tx, auditLog); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.EntriesDrafted.Inc()
	}

	uc.logger.Info().
		Str("entry_id", entry.ID).
		Str("transaction_id", entry.TransactionID).
		Str("transaction_type", string(entry.TransactionType)).
		Msg("journal entry drafted")

	return entry, nil
}
