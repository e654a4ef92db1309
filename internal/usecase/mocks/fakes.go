package mocks

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mimhaad/finance-ledger/internal/domain"
	"github.com/mimhaad/finance-ledger/internal/usecase"
)

// FakeStore is an in-memory ledger database shared by the fake repositories.
// Transactions are serialised and roll back by restoring a snapshot.
type FakeStore struct {
	txMu sync.Mutex
	mu   sync.RWMutex

	accounts map[string]*domain.GLAccount
	entries  map[string]*domain.JournalEntry
	floats   map[string]*domain.FloatAccount
	outbox   []*domain.OutboxEvent
	audit    []*domain.AuditLog
}

// NewFakeStore creates an empty store.
func NewFakeStore() *FakeStore {
	return &FakeStore{
		accounts: make(map[string]*domain.GLAccount),
		entries:  make(map[string]*domain.JournalEntry),
		floats:   make(map[string]*domain.FloatAccount),
	}
}

type snapshot struct {
	accounts map[string]*domain.GLAccount
	entries  map[string]*domain.JournalEntry
	floats   map[string]*domain.FloatAccount
	outbox   int
	audit    int
}

func (s *FakeStore) snapshot() snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := snapshot{
		accounts: make(map[string]*domain.GLAccount, len(s.accounts)),
		entries:  make(map[string]*domain.JournalEntry, len(s.entries)),
		floats:   make(map[string]*domain.FloatAccount, len(s.floats)),
		outbox:   len(s.outbox),
		audit:    len(s.audit),
	}
	for id, a := range s.accounts {
		snap.accounts[id] = copyAccount(a)
	}
	for id, e := range s.entries {
		snap.entries[id] = copyEntry(e)
	}
	for id, f := range s.floats {
		c := *f
		snap.floats[id] = &c
	}
	return snap
}

func (s *FakeStore) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.accounts = snap.accounts
	s.entries = snap.entries
	s.floats = snap.floats
	s.outbox = s.outbox[:snap.outbox]
	s.audit = s.audit[:snap.audit]
}

// OutboxEvents returns committed outbox events.
func (s *FakeStore) OutboxEvents() []*domain.OutboxEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*domain.OutboxEvent(nil), s.outbox...)
}

// AuditLogs returns committed audit logs.
func (s *FakeStore) AuditLogs() []*domain.AuditLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*domain.AuditLog(nil), s.audit...)
}

// EntryCount returns the number of stored journal entries.
func (s *FakeStore) EntryCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// SeedAccount stores an account as-is.
func (s *FakeStore) SeedAccount(a *domain.GLAccount) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[a.ID] = copyAccount(a)
}

// SeedEntry stores an entry as-is.
func (s *FakeStore) SeedEntry(e *domain.JournalEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[e.ID] = copyEntry(e)
}

func copyAccount(a *domain.GLAccount) *domain.GLAccount {
	c := *a
	return &c
}

func copyEntry(e *domain.JournalEntry) *domain.JournalEntry {
	c := *e
	c.Lines = append([]domain.JournalLine(nil), e.Lines...)
	return &c
}

// FakeTransactionManager begins serialised, snapshot-backed transactions.
type FakeTransactionManager struct {
	store *FakeStore

	BeginFunc func(ctx context.Context) (usecase.Transaction, error)

	Begun      atomic.Int64
	Committed  atomic.Int64
	RolledBack atomic.Int64
}

func NewFakeTransactionManager(store *FakeStore) *FakeTransactionManager {
	return &FakeTransactionManager{store: store}
}

func (m *FakeTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	m.store.txMu.Lock()
	m.Begun.Add(1)
	return &FakeTransaction{manager: m, snap: m.store.snapshot()}, nil
}

// FakeTransaction restores the store snapshot unless committed.
type FakeTransaction struct {
	manager *FakeTransactionManager
	snap    snapshot
	done    bool

	CommitFunc func(ctx context.Context) error
}

func (t *FakeTransaction) Commit(ctx context.Context) error {
	if t.done {
		return errors.New("transaction already closed")
	}
	if t.CommitFunc != nil {
		if err := t.CommitFunc(ctx); err != nil {
			return err
		}
	}
	t.done = true
	t.manager.Committed.Add(1)
	t.manager.store.txMu.Unlock()
	return nil
}

func (t *FakeTransaction) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	t.manager.store.restore(t.snap)
	t.manager.RolledBack.Add(1)
	t.manager.store.txMu.Unlock()
	return nil
}

// FakeAccountRepository implements usecase.AccountRepository on a FakeStore.
type FakeAccountRepository struct {
	store *FakeStore

	GetByCodeFunc     func(ctx context.Context, code string) (*domain.GLAccount, error)
	UpdateBalanceFunc func(ctx context.Context, tx usecase.Transaction, id string, balance decimal.Decimal, updatedAt time.Time) error
	GetByCodeCalls    atomic.Int64
}

func NewFakeAccountRepository(store *FakeStore) *FakeAccountRepository {
	return &FakeAccountRepository{store: store}
}

func (r *FakeAccountRepository) Create(ctx context.Context, account *domain.GLAccount) error {
	created, err := r.CreateIfNotExists(ctx, account)
	if err != nil {
		return err
	}
	if !created {
		return fmt.Errorf("account code %s already exists", account.Code)
	}
	return nil
}

func (r *FakeAccountRepository) CreateIfNotExists(ctx context.Context, account *domain.GLAccount) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, a := range r.store.accounts {
		if a.Code == account.Code {
			return false, nil
		}
	}
	r.store.accounts[account.ID] = copyAccount(account)
	return true, nil
}

func (r *FakeAccountRepository) GetByID(ctx context.Context, id string) (*domain.GLAccount, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	if a, ok := r.store.accounts[id]; ok {
		return copyAccount(a), nil
	}
	return nil, domain.NewAccountNotFound(id)
}

func (r *FakeAccountRepository) GetByCode(ctx context.Context, code string) (*domain.GLAccount, error) {
	r.GetByCodeCalls.Add(1)
	if r.GetByCodeFunc != nil {
		return r.GetByCodeFunc(ctx, code)
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for _, a := range r.store.accounts {
		if a.Code == code {
			return copyAccount(a), nil
		}
	}
	return nil, domain.NewAccountNotFound(code)
}

func (r *FakeAccountRepository) GetByCodes(ctx context.Context, codes []string) ([]*domain.GLAccount, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	want := make(map[string]bool, len(codes))
	for _, c := range codes {
		want[c] = true
	}
	var out []*domain.GLAccount
	for _, a := range r.store.accounts {
		if want[a.Code] {
			out = append(out, copyAccount(a))
		}
	}
	sortAccounts(out)
	return out, nil
}

func (r *FakeAccountRepository) GetByIDsForUpdate(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.GLAccount, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var out []*domain.GLAccount
	for _, id := range ids {
		if a, ok := r.store.accounts[id]; ok {
			out = append(out, copyAccount(a))
		}
	}
	return out, nil
}

func (r *FakeAccountRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, id string, balance decimal.Decimal, updatedAt time.Time) error {
	if r.UpdateBalanceFunc != nil {
		if err := r.UpdateBalanceFunc(ctx, tx, id, balance, updatedAt); err != nil {
			return err
		}
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	a, ok := r.store.accounts[id]
	if !ok {
		return domain.NewAccountNotFound(id)
	}
	a.Balance = balance
	a.Version++
	a.UpdatedAt = updatedAt
	return nil
}

func (r *FakeAccountRepository) List(ctx context.Context, limit, offset int) ([]*domain.GLAccount, error) {
	all, _ := r.ListAll(ctx)
	if offset >= len(all) {
		return []*domain.GLAccount{}, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (r *FakeAccountRepository) ListAll(ctx context.Context) ([]*domain.GLAccount, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	out := make([]*domain.GLAccount, 0, len(r.store.accounts))
	for _, a := range r.store.accounts {
		out = append(out, copyAccount(a))
	}
	sortAccounts(out)
	return out, nil
}

func sortAccounts(accounts []*domain.GLAccount) {
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].Code < accounts[j].Code })
}

// FakeJournalRepository implements usecase.JournalRepository on a FakeStore.
type FakeJournalRepository struct {
	store *FakeStore

	CreateFunc     func(ctx context.Context, tx usecase.Transaction, entry *domain.JournalEntry) error
	MarkPostedFunc func(ctx context.Context, tx usecase.Transaction, id, postedBy string, postedAt time.Time) (bool, error)
}

func NewFakeJournalRepository(store *FakeStore) *FakeJournalRepository {
	return &FakeJournalRepository{store: store}
}

func (r *FakeJournalRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.JournalEntry) error {
	if r.CreateFunc != nil {
		if err := r.CreateFunc(ctx, tx, entry); err != nil {
			return err
		}
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.entries[entry.ID]; ok {
		return fmt.Errorf("journal entry %s already exists", entry.ID)
	}
	r.store.entries[entry.ID] = copyEntry(entry)
	return nil
}

func (r *FakeJournalRepository) GetByID(ctx context.Context, id string) (*domain.JournalEntry, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	if e, ok := r.store.entries[id]; ok {
		return copyEntry(e), nil
	}
	return nil, domain.NewEntryNotFound(id)
}

func (r *FakeJournalRepository) GetByIDTx(ctx context.Context, tx usecase.Transaction, id string) (*domain.JournalEntry, error) {
	return r.GetByID(ctx, id)
}

func (r *FakeJournalRepository) ListByTransactionID(ctx context.Context, transactionID string) ([]*domain.JournalEntry, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	out := []*domain.JournalEntry{}
	for _, e := range r.store.entries {
		if e.TransactionID == transactionID {
			out = append(out, copyEntry(e))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *FakeJournalRepository) ListByTransactionIDTx(ctx context.Context, tx usecase.Transaction, transactionID string) ([]*domain.JournalEntry, error) {
	return r.ListByTransactionID(ctx, transactionID)
}

func (r *FakeJournalRepository) MarkPosted(ctx context.Context, tx usecase.Transaction, id, postedBy string, postedAt time.Time) (bool, error) {
	if r.MarkPostedFunc != nil {
		return r.MarkPostedFunc(ctx, tx, id, postedBy, postedAt)
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	e, ok := r.store.entries[id]
	if !ok || e.Status != domain.EntryStatusDraft {
		return false, nil
	}
	e.Status = domain.EntryStatusPosted
	e.PostedBy = &postedBy
	e.PostedAt = &postedAt
	e.UpdatedAt = postedAt
	e.Version++
	return true, nil
}

func (r *FakeJournalRepository) MarkReversed(ctx context.Context, tx usecase.Transaction, id string, rev usecase.ReversalMark) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	e, ok := r.store.entries[id]
	if !ok || e.Status != domain.EntryStatusPosted {
		return false, nil
	}
	e.Status = domain.EntryStatusReversed
	e.ReversedBy = &rev.ReversedBy
	e.ReversedAt = &rev.ReversedAt
	e.ReversalReason = &rev.Reason
	e.ReversalEntryID = &rev.ReversalEntryID
	e.UpdatedAt = rev.ReversedAt
	e.Version++
	return true, nil
}

func (r *FakeJournalRepository) DeleteDraft(ctx context.Context, tx usecase.Transaction, id string) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	e, ok := r.store.entries[id]
	if !ok || e.Status != domain.EntryStatusDraft {
		return false, nil
	}
	delete(r.store.entries, id)
	return true, nil
}

// FakeLedgerRepository computes ledger aggregates from the FakeStore.
type FakeLedgerRepository struct {
	store *FakeStore

	CheckConsistencyFunc func(ctx context.Context) (decimal.Decimal, decimal.Decimal, error)
}

func NewFakeLedgerRepository(store *FakeStore) *FakeLedgerRepository {
	return &FakeLedgerRepository{store: store}
}

func (r *FakeLedgerRepository) CheckConsistency(ctx context.Context) (decimal.Decimal, decimal.Decimal, error) {
	if r.CheckConsistencyFunc != nil {
		return r.CheckConsistencyFunc(ctx)
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	debits, credits := decimal.Zero, decimal.Zero
	for _, e := range r.store.entries {
		if e.Status == domain.EntryStatusDraft {
			continue
		}
		d, c := e.Totals()
		debits = debits.Add(d)
		credits = credits.Add(c)
	}
	return debits, credits, nil
}

func (r *FakeLedgerRepository) AccountActivity(ctx context.Context, asOf time.Time) ([]domain.AccountActivity, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	byAccount := make(map[string]*domain.AccountActivity)
	for _, e := range r.store.entries {
		if e.Status == domain.EntryStatusDraft || e.Date.After(asOf) {
			continue
		}
		for _, l := range e.Lines {
			act, ok := byAccount[l.AccountID]
			if !ok {
				a := r.store.accounts[l.AccountID]
				act = &domain.AccountActivity{AccountID: l.AccountID, Debits: decimal.Zero, Credits: decimal.Zero}
				if a != nil {
					act.Code, act.Name, act.Type = a.Code, a.Name, a.Type
				}
				byAccount[l.AccountID] = act
			}
			act.Debits = act.Debits.Add(l.Debit)
			act.Credits = act.Credits.Add(l.Credit)
		}
	}

	out := make([]domain.AccountActivity, 0, len(byAccount))
	for _, act := range byAccount {
		out = append(out, *act)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (r *FakeLedgerRepository) AccountActivityByID(ctx context.Context, accountID string) (domain.AccountActivity, error) {
	all, _ := r.AccountActivity(ctx, time.Now().Add(24*time.Hour))
	for _, a := range all {
		if a.AccountID == accountID {
			return a, nil
		}
	}
	return domain.AccountActivity{AccountID: accountID, Debits: decimal.Zero, Credits: decimal.Zero}, nil
}

// FakeFloatAccountRepository implements the float repository and balance source.
type FakeFloatAccountRepository struct {
	store *FakeStore

	ListActiveFunc func(ctx context.Context) ([]*domain.FloatAccount, error)
}

func NewFakeFloatAccountRepository(store *FakeStore) *FakeFloatAccountRepository {
	return &FakeFloatAccountRepository{store: store}
}

func (r *FakeFloatAccountRepository) Upsert(ctx context.Context, float *domain.FloatAccount) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	c := *float
	r.store.floats[float.ID] = &c
	return nil
}

func (r *FakeFloatAccountRepository) GetByID(ctx context.Context, id string) (*domain.FloatAccount, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	if f, ok := r.store.floats[id]; ok {
		c := *f
		return &c, nil
	}
	return nil, &domain.NotFoundError{Resource: "float account", Key: id}
}

func (r *FakeFloatAccountRepository) List(ctx context.Context) ([]*domain.FloatAccount, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	out := make([]*domain.FloatAccount, 0, len(r.store.floats))
	for _, f := range r.store.floats {
		c := *f
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *FakeFloatAccountRepository) ListActive(ctx context.Context) ([]*domain.FloatAccount, error) {
	if r.ListActiveFunc != nil {
		return r.ListActiveFunc(ctx)
	}
	all, _ := r.List(ctx)
	out := all[:0]
	for _, f := range all {
		if f.IsActive {
			out = append(out, f)
		}
	}
	return out, nil
}

func (r *FakeFloatAccountRepository) MarkSynced(ctx context.Context, id string, syncedAt time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if f, ok := r.store.floats[id]; ok {
		f.LastSyncedAt = &syncedAt
	}
	return nil
}

// FakeOutboxRepository appends events to the FakeStore.
type FakeOutboxRepository struct {
	store *FakeStore
}

func NewFakeOutboxRepository(store *FakeStore) *FakeOutboxRepository {
	return &FakeOutboxRepository{store: store}
}

func (r *FakeOutboxRepository) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.outbox = append(r.store.outbox, event)
	return nil
}

func (r *FakeOutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var out []*domain.OutboxEvent
	for _, e := range r.store.outbox {
		if !e.Published && len(out) < limit {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *FakeOutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, e := range r.store.outbox {
		if e.ID == id {
			e.Published = true
			e.PublishedAt = &publishedAt
		}
	}
	return nil
}

func (r *FakeOutboxRepository) DeletePublished(ctx context.Context, before time.Time) error {
	return nil
}

// FakeAuditRepository appends audit logs to the FakeStore.
type FakeAuditRepository struct {
	store *FakeStore
}

func NewFakeAuditRepository(store *FakeStore) *FakeAuditRepository {
	return &FakeAuditRepository{store: store}
}

func (r *FakeAuditRepository) Create(ctx context.Context, log *domain.AuditLog) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.audit = append(r.store.audit, log)
	return nil
}

func (r *FakeAuditRepository) CreateTx(ctx context.Context, tx usecase.Transaction, log *domain.AuditLog) error {
	return r.Create(ctx, log)
}

func (r *FakeAuditRepository) List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var out []*domain.AuditLog
	for _, l := range r.store.audit {
		if filter.ResourceID != "" && l.ResourceID != filter.ResourceID {
			continue
		}
		if filter.Action != "" && l.Action != filter.Action {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

// FakeIDGenerator returns sequential IDs.
type FakeIDGenerator struct {
	n atomic.Int64

	Prefix string
}

func NewFakeIDGenerator() *FakeIDGenerator {
	return &FakeIDGenerator{Prefix: "id"}
}

func (g *FakeIDGenerator) Generate() string {
	return fmt.Sprintf("%s-%06d", g.Prefix, g.n.Add(1))
}

// FakeRetrier runs the operation once.
type FakeRetrier struct {
	Calls atomic.Int64
}

func (r *FakeRetrier) Retry(ctx context.Context, operation func() error) error {
	r.Calls.Add(1)
	return operation()
}

// FakeLocker is a process-local Locker that fails when the key is held.
type FakeLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

func NewFakeLocker() *FakeLocker {
	return &FakeLocker{held: make(map[string]bool)}
}

func (l *FakeLocker) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	l.mu.Lock()
	if l.held[key] {
		l.mu.Unlock()
		return domain.ErrSyncInProgress
	}
	l.held[key] = true
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		delete(l.held, key)
		l.mu.Unlock()
	}()

	return fn(ctx)
}
