package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/mimhaad/finance-ledger/internal/domain"
	"github.com/mimhaad/finance-ledger/internal/infrastructure/metrics"
)

// FloatSyncConfig holds the collaborators of FloatSyncUseCase.
type FloatSyncConfig struct {
	TxManager    TransactionManager
	Chart        *ChartUseCase
	Builder      *BuilderUseCase
	Posting      *PostingUseCase
	FloatRepo    FloatAccountRepository
	Source       FloatBalanceSource
	OutboxRepo   OutboxRepository
	AuditRepo    AuditRepository
	IDGen        IDGenerator
	Locker       Locker
	Breaker      CircuitBreaker
	Retrier      Retrier
	Metrics      *metrics.Metrics
	Logger       zerolog.Logger
	ClearingCode string
}

// FloatSyncUseCase keeps GL control accounts in line with the external float balances.
type FloatSyncUseCase struct {
	txManager    TransactionManager
	chart        *ChartUseCase
	builder      *BuilderUseCase
	posting      *PostingUseCase
	floatRepo    FloatAccountRepository
	source       FloatBalanceSource
	outboxRepo   OutboxRepository
	auditRepo    AuditRepository
	idGen        IDGenerator
	locker       Locker
	breaker      CircuitBreaker
	retrier      Retrier
	metrics      *metrics.Metrics
	logger       zerolog.Logger
	clearingCode string

	// running serialises runs inside this process, with or without a Locker.
	running sync.Mutex
}

// NewFloatSyncUseCase creates a new FloatSyncUseCase. Source defaults to FloatRepo.
func NewFloatSyncUseCase(cfg FloatSyncConfig) *FloatSyncUseCase {
	if cfg.ClearingCode == "" {
		cfg.ClearingCode = DefaultFloatClearingCode
	}
	if cfg.Source == nil {
		if src, ok := cfg.FloatRepo.(FloatBalanceSource); ok {
			cfg.Source = src
		}
	}

	return &FloatSyncUseCase{
		txManager:    cfg.TxManager,
		chart:        cfg.Chart,
		builder:      cfg.Builder,
		posting:      cfg.Posting,
		floatRepo:    cfg.FloatRepo,
		source:       cfg.Source,
		outboxRepo:   cfg.OutboxRepo,
		auditRepo:    cfg.AuditRepo,
		idGen:        cfg.IDGen,
		locker:       cfg.Locker,
		breaker:      cfg.Breaker,
		retrier:      cfg.Retrier,
		metrics:      cfg.Metrics,
		logger:       cfg.Logger.With().Str("component", "float_sync").Logger(),
		clearingCode: cfg.ClearingCode,
	}
}

// ListFloatAccounts returns all float accounts.
func (uc *FloatSyncUseCase) ListFloatAccounts(ctx context.Context) ([]*domain.FloatAccount, error) {
	return uc.floatRepo.List(ctx)
}

// UpdateFloatAccount records the current external balance of a float.
func (uc *FloatSyncUseCase) UpdateFloatAccount(ctx context.Context, float *domain.FloatAccount, userID string) (*domain.FloatAccount, error) {
	if float.ID == "" {
		return nil, fmt.Errorf("%w: float account id is required", domain.ErrInvalidLine)
	}
	if float.CurrentBalance.IsNegative() {
		return nil, fmt.Errorf("%w: float balance cannot be negative", domain.ErrInvalidAmount)
	}
	if !float.Provider.IsValid() {
		return nil, fmt.Errorf("%w: unknown float provider %q", domain.ErrInvalidLine, float.Provider)
	}
	if float.GLAccountCode != "" {
		if err := domain.ValidateAccountCode(float.GLAccountCode); err != nil {
			return nil, err
		}
	}

	var before domain.JSON
	if existing, err := uc.floatRepo.GetByID(ctx, float.ID); err == nil {
		before = domain.MarshalState(existing)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	float.UpdatedAt = time.Now().UTC()
	if err := uc.floatRepo.Upsert(ctx, float); err != nil {
		return nil, err
	}

	if uc.auditRepo != nil {
		_ = uc.auditRepo.Create(ctx, &domain.AuditLog{
			ID:           uc.idGen.Generate(),
			UserID:       userID,
			Action:       string(domain.AuditActionFloatUpdate),
			ResourceType: domain.AggregateTypeFloatAccount,
			ResourceID:   float.ID,
			BeforeState:  before,
			AfterState:   domain.MarshalState(float),
			Status:       string(domain.AuditStatusSuccess),
			CreatedAt:    float.UpdatedAt,
		})
	}

	return float, nil
}

// SyncFloatBalances aligns every GL control account with the sum of the
// active floats mapped to it, posting one float_sync entry per control account
// that differs. A concurrent run fails with domain.ErrSyncInProgress.
func (uc *FloatSyncUseCase) SyncFloatBalances(ctx context.Context, userID string) (*domain.FloatSyncResult, error) {
	if userID == "" {
		userID = domain.SystemUserID
	}

	var result *domain.FloatSyncResult
	run := func(ctx context.Context) error {
		var err error
		result, err = uc.sync(ctx, userID)
		return err
	}

	var err error
	switch {
	case !uc.running.TryLock():
		err = domain.ErrSyncInProgress
	case uc.locker != nil:
		err = uc.locker.WithLock(ctx, FloatSyncLockKey, run)
		uc.running.Unlock()
	default:
		err = run(ctx)
		uc.running.Unlock()
	}

	status := "success"
	switch {
	case errors.Is(err, domain.ErrSyncInProgress):
		status = "skipped"
	case err != nil:
		status = "error"
	case len(result.Failures) > 0:
		status = "partial"
	}
	if uc.metrics != nil {
		uc.metrics.FloatSyncRuns.WithLabelValues(status).Inc()
	}

	if err != nil {
		return nil, err
	}
	return result, nil
}

// floatGroup is the set of active floats reconciled against one control account.
type floatGroup struct {
	controlCode string
	floats      []*domain.FloatAccount
	total       decimal.Decimal
}

func groupByControlAccount(floats []*domain.FloatAccount) []*floatGroup {
	byCode := make(map[string]*floatGroup)
	var groups []*floatGroup
	for _, f := range floats {
		if !f.IsActive {
			continue
		}
		code := f.ControlAccountCode()
		g, ok := byCode[code]
		if !ok {
			g = &floatGroup{controlCode: code, total: decimal.Zero}
			byCode[code] = g
			groups = append(groups, g)
		}
		g.floats = append(g.floats, f)
		g.total = g.total.Add(f.CurrentBalance)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].controlCode < groups[j].controlCode })
	return groups
}

func (uc *FloatSyncUseCase) sync(ctx context.Context, userID string) (*domain.FloatSyncResult, error) {
	result := &domain.FloatSyncResult{StartedAt: time.Now().UTC()}

	floats, err := uc.activeFloats(ctx)
	if err != nil {
		return nil, err
	}

	if _, err := uc.chart.ResolveCodes(ctx, []string{uc.clearingCode}, true); err != nil {
		return nil, fmt.Errorf("failed to provision clearing account %s: %w", uc.clearingCode, err)
	}

	for _, group := range groupByControlAccount(floats) {
		result.AccountsChecked++

		var entry *domain.JournalEntry
		op := func() error {
			var err error
			entry, err = uc.syncControl(ctx, group, userID)
			return err
		}

		if uc.retrier != nil {
			err = uc.retrier.Retry(ctx, op)
		} else {
			err = op()
		}
		if err != nil {
			uc.logger.Error().Err(err).Str("control_code", group.controlCode).Msg("float sync failed")
			for _, f := range group.floats {
				result.Failures = append(result.Failures, domain.FloatSyncFailure{
					FloatAccountID: f.ID,
					Error:          err.Error(),
				})
			}
			if uc.metrics != nil {
				uc.metrics.FloatSyncFailures.Inc()
			}
			continue
		}

		syncedAt := time.Now().UTC()
		for _, f := range group.floats {
			if err := uc.floatRepo.MarkSynced(ctx, f.ID, syncedAt); err != nil {
				uc.logger.Warn().Err(err).Str("float_account_id", f.ID).Msg("failed to mark float synced")
			}
		}

		if entry != nil {
			result.AccountsUpdated++
			result.Entries = append(result.Entries, entry)
		}
	}

	result.FinishedAt = time.Now().UTC()

	if uc.metrics != nil {
		uc.metrics.FloatSyncUpdated.Add(float64(result.AccountsUpdated))
		uc.metrics.FloatSyncDuration.Observe(result.FinishedAt.Sub(result.StartedAt).Seconds())
	}

	if result.AccountsUpdated > 0 {
		if err := uc.recordSynced(ctx, result, userID); err != nil {
			uc.logger.Warn().Err(err).Msg("failed to record float sync event")
		}
	}

	uc.logger.Info().
		Int("accounts_checked", result.AccountsChecked).
		Int("accounts_updated", result.AccountsUpdated).
		Int("failures", len(result.Failures)).
		Msg("float sync completed")

	return result, nil
}

func (uc *FloatSyncUseCase) activeFloats(ctx context.Context) ([]*domain.FloatAccount, error) {
	if uc.breaker == nil {
		return uc.source.ListActive(ctx)
	}

	out, err := uc.breaker.Execute(func() (interface{}, error) {
		return uc.source.ListActive(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("float balance source unavailable: %w", err)
	}
	floats, _ := out.([]*domain.FloatAccount)
	return floats, nil
}

// syncControl posts the adjustment for one control account. The delta is
// computed from the control balance read under its row lock. It returns a nil
// entry when the control account already matches.
func (uc *FloatSyncUseCase) syncControl(ctx context.Context, group *floatGroup, userID string) (*domain.JournalEntry, error) {
	controlCode := group.controlCode
	if controlCode == "" {
		return nil, fmt.Errorf("%w: float %s has no control account", domain.ErrInvalidAccountCode, group.floats[0].ID)
	}

	accounts, err := uc.chart.ResolveCodes(ctx, []string{controlCode, uc.clearingCode}, true)
	if err != nil {
		return nil, err
	}
	controlID := accounts[controlCode].ID
	clearingID := accounts[uc.clearingCode].ID

	return uc.posting.RecordAdjustment(ctx, []string{controlID, clearingID}, userID, func(locked map[string]*domain.GLAccount) (*domain.JournalEntry, error) {
		control := locked[controlID]

		delta := domain.RoundMinor(group.total.Sub(control.Balance))
		if delta.IsZero() {
			return nil, nil
		}

		controlSide := control.Type.NormalSide()
		if delta.IsNegative() {
			controlSide = oppositeSide(controlSide)
		}
		amount := delta.Abs()

		controlLine := LineInput{AccountCode: controlCode, Memo: "Float control " + controlCode}
		clearingLine := LineInput{AccountCode: uc.clearingCode, Memo: "Float sync clearing"}
		if controlSide == domain.SideDebit {
			controlLine.Debit = amount
			clearingLine.Credit = amount
		} else {
			controlLine.Credit = amount
			clearingLine.Debit = amount
		}

		ids := make([]string, 0, len(group.floats))
		for _, f := range group.floats {
			ids = append(ids, f.ID)
		}

		now := time.Now().UTC()
		entry, err := uc.builder.BuildEntry(BuildEntryInput{
			TransactionID:   fmt.Sprintf("float-sync-%s-%d", controlCode, now.UnixNano()),
			TransactionType: domain.TxTypeFloatSync,
			Description:     fmt.Sprintf("Float sync %s (%s)", controlCode, strings.Join(ids, ", ")),
			CreatedBy:       userID,
			Date:            &now,
			Lines:           []LineInput{controlLine, clearingLine},
		})
		if err != nil {
			return nil, err
		}

		byCode := make(map[string]*domain.GLAccount, len(locked))
		for _, a := range locked {
			byCode[a.Code] = a
		}
		if err := uc.builder.Bind(entry, byCode); err != nil {
			return nil, err
		}
		return entry, nil
	})
}

func (uc *FloatSyncUseCase) recordSynced(ctx context.Context, result *domain.FloatSyncResult, userID string) error {
	if uc.txManager == nil || uc.outboxRepo == nil {
		return nil
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	entryIDs := make([]string, 0, len(result.Entries))
	for _, e := range result.Entries {
		entryIDs = append(entryIDs, e.ID)
	}

	runID := uc.idGen.Generate()
	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   runID,
		AggregateType: domain.AggregateTypeFloatAccount,
		EventType:     domain.EventTypeFloatSynced,
		Payload: map[string]any{
			"accounts_checked": result.AccountsChecked,
			"accounts_updated": result.AccountsUpdated,
			"failures":         len(result.Failures),
			"entry_ids":        entryIDs,
		},
		CreatedAt: result.FinishedAt,
	}
	if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
		return err
	}

	if uc.auditRepo != nil {
		if err := uc.auditRepo.CreateTx(txCtx, tx, &domain.AuditLog{
			ID:           uc.idGen.Generate(),
			UserID:       userID,
			Action:       string(domain.AuditActionFloatSync),
			ResourceType: domain.AggregateTypeFloatAccount,
			ResourceID:   runID,
			AfterState:   domain.MarshalState(event.Payload),
			Status:       string(domain.AuditStatusSuccess),
			CreatedAt:    result.FinishedAt,
		}); err != nil {
			return err
		}
	}

	return tx.Commit(txCtx)
}

// Run syncs on every tick until ctx is cancelled.
func (uc *FloatSyncUseCase) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	uc.logger.Info().Dur("interval", interval).Msg("float sync worker started")

	for {
		select {
		case <-ctx.Done():
			uc.logger.Info().Msg("float sync worker stopped")
			return
		case <-ticker.C:
			if _, err := uc.SyncFloatBalances(ctx, domain.SystemUserID); err != nil {
				if errors.Is(err, domain.ErrSyncInProgress) {
					uc.logger.Debug().Msg("float sync already running elsewhere")
					continue
				}
				uc.logger.Error().Err(err).Msg("scheduled float sync failed")
			}
		}
	}
}

func oppositeSide(s domain.Side) domain.Side {
	if s == domain.SideDebit {
		return domain.SideCredit
	}
	return domain.SideDebit
}
