package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/mimhaad/finance-ledger/internal/domain"
	"github.com/mimhaad/finance-ledger/internal/infrastructure/metrics"
)

// TrialBalanceUseCase aggregates posted activity into a trial balance.
type TrialBalanceUseCase struct {
	ledgerRepo LedgerRepository
	metrics    *metrics.Metrics
	logger     zerolog.Logger
}

// NewTrialBalanceUseCase creates a new TrialBalanceUseCase.
func NewTrialBalanceUseCase(ledgerRepo LedgerRepository, metrics *metrics.Metrics, logger zerolog.Logger) *TrialBalanceUseCase {
	return &TrialBalanceUseCase{
		ledgerRepo: ledgerRepo,
		metrics:    metrics,
		logger:     logger.With().Str("component", "trial_balance").Logger(),
	}
}

// GetTrialBalance returns every account with a nonzero balance as of asOf
// (now when nil). An unbalanced result is still returned, with Balanced false.
func (uc *TrialBalanceUseCase) GetTrialBalance(ctx context.Context, asOf *time.Time) (*domain.TrialBalanceReport, error) {
	cutoff := time.Now().UTC()
	if asOf != nil {
		cutoff = asOf.UTC()
	}

	activity, err := uc.ledgerRepo.AccountActivity(ctx, cutoff)
	if err != nil {
		return nil, err
	}

	report := domain.NewTrialBalanceReport(cutoff, activity)

	if uc.metrics != nil {
		uc.metrics.TrialBalanceRuns.Inc()
		uc.metrics.TrialBalanceImbalance.Set(report.TotalDebits.Sub(report.TotalCredits).InexactFloat64())
	}

	if !report.Balanced {
		uc.logger.Error().
			Time("as_of", cutoff).
			Str("total_debits", report.TotalDebits.String()).
			Str("total_credits", report.TotalCredits.String()).
			Msg("trial balance does not balance")
	}

	return report, nil
}
