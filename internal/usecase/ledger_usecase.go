package usecase

import (
	"context"

	"github.com/mimhaad/finance-ledger/internal/domain"
)

// LedgerUseCase handles ledger-wide operations.
type LedgerUseCase struct {
	ledgerRepo LedgerRepository
}

// NewLedgerUseCase creates a new LedgerUseCase.
func NewLedgerUseCase(ledgerRepo LedgerRepository) *LedgerUseCase {
	return &LedgerUseCase{
		ledgerRepo: ledgerRepo,
	}
}

// LedgerTotals is the ledger-wide sum of posted lines.
type LedgerTotals struct {
	TotalDebits  string
	TotalCredits string
	Consistent   bool
}

// CheckConsistency verifies that the sum of all posted debits equals the sum
// of all posted credits.
func (uc *LedgerUseCase) CheckConsistency(ctx context.Context) (*LedgerTotals, error) {
	debits, credits, err := uc.ledgerRepo.CheckConsistency(ctx)
	if err != nil {
		return nil, err
	}

	totals := &LedgerTotals{
		TotalDebits:  debits.StringFixed(domain.MinorUnitPlaces),
		TotalCredits: credits.StringFixed(domain.MinorUnitPlaces),
		Consistent:   debits.Equal(credits),
	}

	if !totals.Consistent {
		return totals, domain.ErrInconsistentLedger
	}

	return totals, nil
}
