package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/mimhaad/finance-ledger/internal/domain"
	"github.com/mimhaad/finance-ledger/internal/infrastructure/metrics"
)

// ChartUseCase manages the chart of accounts.
type ChartUseCase struct {
	accountRepo AccountRepository
	auditRepo   AuditRepository
	cache       Cache
	idGen       IDGenerator
	metrics     *metrics.Metrics
	logger      zerolog.Logger
}

// NewChartUseCase creates a new ChartUseCase. cache and auditRepo may be nil.
func NewChartUseCase(
	accountRepo AccountRepository,
	auditRepo AuditRepository,
	cache Cache,
	idGen IDGenerator,
	metrics *metrics.Metrics,
	logger zerolog.Logger,
) *ChartUseCase {
	return &ChartUseCase{
		accountRepo: accountRepo,
		auditRepo:   auditRepo,
		cache:       cache,
		idGen:       idGen,
		metrics:     metrics,
		logger:      logger.With().Str("component", "chart").Logger(),
	}
}

// CreateAccountInput represents input for creating a GL account.
type CreateAccountInput struct {
	ParentID *string
	Code     string
	Name     string
	Type     domain.AccountType
}

// CreateAccount creates an account explicitly.
func (uc *ChartUseCase) CreateAccount(ctx context.Context, input CreateAccountInput) (*domain.GLAccount, error) {
	if err := domain.ValidateAccountCode(input.Code); err != nil {
		return nil, err
	}
	if err := domain.ValidateAccountName(input.Name); err != nil {
		return nil, err
	}
	if err := domain.ValidateAccountType(input.Type); err != nil {
		return nil, err
	}
	if input.ParentID != nil {
		if _, err := uc.accountRepo.GetByID(ctx, *input.ParentID); err != nil {
			return nil, fmt.Errorf("parent account: %w", err)
		}
	}

	now := time.Now().UTC()
	account := &domain.GLAccount{
		ID:        uc.idGen.Generate(),
		Code:      input.Code,
		Name:      input.Name,
		Type:      input.Type,
		ParentID:  input.ParentID,
		Balance:   decimal.Zero,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := uc.accountRepo.Create(ctx, account); err != nil {
		return nil, err
	}

	uc.accountCreated(ctx, account)

	return account, nil
}

// GetAccountByID retrieves an account by ID.
func (uc *ChartUseCase) GetAccountByID(ctx context.Context, id string) (*domain.GLAccount, error) {
	return uc.accountRepo.GetByID(ctx, id)
}

// GetAccountByCode retrieves an account by code, resolving the ID through the cache.
func (uc *ChartUseCase) GetAccountByCode(ctx context.Context, code string) (*domain.GLAccount, error) {
	if id, ok := uc.cachedID(ctx, code); ok {
		account, err := uc.accountRepo.GetByID(ctx, id)
		if err == nil {
			return account, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		uc.forgetCode(ctx, code)
	}

	account, err := uc.accountRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	uc.rememberCode(ctx, account)

	return account, nil
}

// ListAccounts lists accounts ordered by code.
func (uc *ChartUseCase) ListAccounts(ctx context.Context, limit, offset int) ([]*domain.GLAccount, error) {
	limit, offset, _ = domain.ValidatePagination(limit, offset)
	return uc.accountRepo.List(ctx, limit, offset)
}

// GetAccountBalance returns the current balance of an account.
func (uc *ChartUseCase) GetAccountBalance(ctx context.Context, id string) (*domain.AccountBalance, error) {
	account, err := uc.accountRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return domain.NewAccountBalance(account, time.Now().UTC()), nil
}

// GetAccountBalanceByCode returns the current balance of the account with code.
func (uc *ChartUseCase) GetAccountBalanceByCode(ctx context.Context, code string) (*domain.AccountBalance, error) {
	account, err := uc.GetAccountByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	return domain.NewAccountBalance(account, time.Now().UTC()), nil
}

// EnsureRequiredAccounts creates any missing codes from the default chart.
// Existing accounts are left untouched. Parents from the default chart are
// provisioned first so the tree stays connected.
func (uc *ChartUseCase) EnsureRequiredAccounts(ctx context.Context, codes []string) ([]*domain.GLAccount, error) {
	for _, code := range codes {
		if err := domain.ValidateAccountCode(code); err != nil {
			return nil, err
		}
	}

	ordered := withParents(codes)

	existing, err := uc.accountRepo.GetByCodes(ctx, ordered)
	if err != nil {
		return nil, err
	}
	byCode := make(map[string]*domain.GLAccount, len(existing))
	for _, a := range existing {
		byCode[a.Code] = a
	}

	var created []*domain.GLAccount
	for _, code := range ordered {
		if _, ok := byCode[code]; ok {
			continue
		}

		def := domain.DefaultChartEntry(code)
		now := time.Now().UTC()
		account := &domain.GLAccount{
			ID:        uc.idGen.Generate(),
			Code:      def.Code,
			Name:      def.Name,
			Type:      def.Type,
			Balance:   decimal.Zero,
			IsActive:  true,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if parent, ok := byCode[def.ParentCode]; ok {
			account.ParentID = &parent.ID
		}

		inserted, err := uc.accountRepo.CreateIfNotExists(ctx, account)
		if err != nil {
			return nil, fmt.Errorf("ensure account %s: %w", code, err)
		}
		if !inserted {
			// Lost a race with a concurrent ensure; use the winner's row.
			account, err = uc.accountRepo.GetByCode(ctx, code)
			if err != nil {
				return nil, err
			}
			byCode[code] = account
			continue
		}

		byCode[code] = account
		created = append(created, account)
		uc.accountCreated(ctx, account)
	}

	if len(created) > 0 {
		uc.logger.Info().Int("created", len(created)).Strs("codes", codes).Msg("provisioned missing GL accounts")
	}

	return created, nil
}

// ResolveCodes maps account codes to accounts. With autoProvision, missing
// codes are created from the default chart instead of failing.
func (uc *ChartUseCase) ResolveCodes(ctx context.Context, codes []string, autoProvision bool) (map[string]*domain.GLAccount, error) {
	if autoProvision {
		if _, err := uc.EnsureRequiredAccounts(ctx, codes); err != nil {
			return nil, err
		}
	}

	accounts, err := uc.accountRepo.GetByCodes(ctx, codes)
	if err != nil {
		return nil, err
	}

	byCode := make(map[string]*domain.GLAccount, len(accounts))
	for _, a := range accounts {
		byCode[a.Code] = a
	}
	for _, code := range codes {
		if _, ok := byCode[code]; !ok {
			return nil, domain.NewAccountNotFound(code)
		}
	}

	return byCode, nil
}

// GetAccountTree returns root accounts with their children, ordered by code.
func (uc *ChartUseCase) GetAccountTree(ctx context.Context) ([]*domain.AccountNode, error) {
	accounts, err := uc.accountRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	nodes := make(map[string]*domain.AccountNode, len(accounts))
	for _, a := range accounts {
		nodes[a.ID] = &domain.AccountNode{Account: a}
	}

	var roots []*domain.AccountNode
	for _, a := range accounts {
		node := nodes[a.ID]
		if a.ParentID != nil {
			if parent, ok := nodes[*a.ParentID]; ok {
				parent.Children = append(parent.Children, node)
				continue
			}
		}
		roots = append(roots, node)
	}

	sortNodes(roots)

	return roots, nil
}

func sortNodes(nodes []*domain.AccountNode) {
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Account.Code < nodes[j].Account.Code })
	for _, n := range nodes {
		sortNodes(n.Children)
	}
}

// withParents returns codes preceded by their default-chart parents, deduplicated.
func withParents(codes []string) []string {
	seen := make(map[string]bool)
	var out []string
	var add func(code string)
	add = func(code string) {
		if seen[code] {
			return
		}
		if parent := domain.DefaultChartEntry(code).ParentCode; parent != "" {
			add(parent)
		}
		seen[code] = true
		out = append(out, code)
	}
	for _, c := range codes {
		add(c)
	}
	return out
}

func (uc *ChartUseCase) accountCreated(ctx context.Context, account *domain.GLAccount) {
	uc.rememberCode(ctx, account)

	if uc.metrics != nil {
		uc.metrics.AccountsCreated.Inc()
	}

	if uc.auditRepo != nil {
		auditLog := &domain.AuditLog{
			ID:           uc.idGen.Generate(),
			UserID:       domain.UserIDFromContext(ctx),
			Action:       string(domain.AuditActionAccountCreate),
			ResourceType: domain.AggregateTypeAccount,
			ResourceID:   account.ID,
			AfterState:   domain.MarshalState(account),
			Status:       string(domain.AuditStatusSuccess),
			CreatedAt:    time.Now().UTC(),
		}
		if err := uc.auditRepo.Create(ctx, auditLog); err != nil {
			uc.logger.Warn().Err(err).Str("account_id", account.ID).Msg("failed to write audit log")
		}
	}
}

func codeCacheKey(code string) string {
	return "gl:account-code:" + code
}

func (uc *ChartUseCase) cachedID(ctx context.Context, code string) (string, bool) {
	if uc.cache == nil {
		return "", false
	}
	data, err := uc.cache.Get(ctx, codeCacheKey(code))
	if err != nil || len(data) == 0 {
		return "", false
	}
	return string(data), true
}

func (uc *ChartUseCase) rememberCode(ctx context.Context, account *domain.GLAccount) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.Set(ctx, codeCacheKey(account.Code), []byte(account.ID), AccountCodeCacheTTL); err != nil {
		uc.logger.Debug().Err(err).Str("code", account.Code).Msg("account code cache write failed")
	}
}

func (uc *ChartUseCase) forgetCode(ctx context.Context, code string) {
	if uc.cache == nil {
		return
	}
	_ = uc.cache.Delete(ctx, codeCacheKey(code))
}
