package usecase_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/mimhaad/finance-ledger/internal/domain"
	"github.com/mimhaad/finance-ledger/internal/usecase"
	"github.com/mimhaad/finance-ledger/internal/usecase/mocks"
)

type ledgerFixture struct {
	store     *mocks.FakeStore
	txManager *mocks.FakeTransactionManager
	accounts  *mocks.FakeAccountRepository
	journal   *mocks.FakeJournalRepository
	ledger    *mocks.FakeLedgerRepository
	floats    *mocks.FakeFloatAccountRepository
	outbox    *mocks.FakeOutboxRepository
	audit     *mocks.FakeAuditRepository
	idGen     *mocks.FakeIDGenerator

	chart   *usecase.ChartUseCase
	builder *usecase.BuilderUseCase
	posting *usecase.PostingUseCase
	trial   *usecase.TrialBalanceUseCase
}

func newLedgerFixture(t *testing.T) *ledgerFixture {
	t.Helper()

	store := mocks.NewFakeStore()
	f := &ledgerFixture{
		store:     store,
		txManager: mocks.NewFakeTransactionManager(store),
		accounts:  mocks.NewFakeAccountRepository(store),
		journal:   mocks.NewFakeJournalRepository(store),
		ledger:    mocks.NewFakeLedgerRepository(store),
		floats:    mocks.NewFakeFloatAccountRepository(store),
		outbox:    mocks.NewFakeOutboxRepository(store),
		audit:     mocks.NewFakeAuditRepository(store),
		idGen:     mocks.NewFakeIDGenerator(),
	}

	logger := zerolog.Nop()
	f.chart = usecase.NewChartUseCase(f.accounts, f.audit, nil, f.idGen, nil, logger)
	f.builder = usecase.NewBuilderUseCase(f.txManager, f.chart, f.journal, f.outbox, f.audit, f.idGen, nil, logger)
	f.posting = usecase.NewPostingUseCase(f.txManager, f.accounts, f.journal, f.outbox, f.audit, f.idGen, nil, logger)
	f.trial = usecase.NewTrialBalanceUseCase(f.ledger, nil, logger)

	return f
}

// draft stores a balanced draft built from manual lines.
func (f *ledgerFixture) draft(t *testing.T, txID string, lines ...usecase.LineInput) *domain.JournalEntry {
	t.Helper()

	entry, err := f.builder.CreateDraft(context.Background(), usecase.BuildEntryInput{
		TransactionID: txID,
		Description:   "test entry",
		CreatedBy:     "user-1",
		Lines:         lines,
	})
	if err != nil {
		t.Fatalf("CreateDraft() error = %v", err)
	}
	return entry
}

func (f *ledgerFixture) balance(t *testing.T, code string) decimal.Decimal {
	t.Helper()

	bal, err := f.chart.GetAccountBalanceByCode(context.Background(), code)
	if err != nil {
		t.Fatalf("GetAccountBalanceByCode(%s) error = %v", code, err)
	}
	return bal.Balance
}

func debit(code, amount string) usecase.LineInput {
	return usecase.LineInput{AccountCode: code, Debit: decimal.RequireFromString(amount)}
}

func credit(code, amount string) usecase.LineInput {
	return usecase.LineInput{AccountCode: code, Credit: decimal.RequireFromString(amount)}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
