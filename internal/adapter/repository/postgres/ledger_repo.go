package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/mimhaad/finance-ledger/internal/domain"
)

// LedgerRepository implements usecase.LedgerRepository.
type LedgerRepository struct {
	db DBTX
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(pool *pgxpool.Pool) *LedgerRepository {
	return newLedgerRepository(pool)
}

func newLedgerRepository(db DBTX) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// CheckConsistency sums debit and credit lines over every posted or reversed entry.
func (r *LedgerRepository) CheckConsistency(ctx context.Context) (totalDebits decimal.Decimal, totalCredits decimal.Decimal, err error) {
	var debits, credits pgtype.Numeric

	err = r.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(l.debit), 0), COALESCE(SUM(l.credit), 0)
		FROM journal_lines l
		JOIN journal_entries e ON e.id = l.entry_id
		WHERE e.status <> 'draft'`).Scan(&debits, &credits)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	return numericToDecimal(debits), numericToDecimal(credits), nil
}

// AccountActivity sums non-draft lines per account for entries dated on or before asOf.
func (r *LedgerRepository) AccountActivity(ctx context.Context, asOf time.Time) ([]domain.AccountActivity, error) {
	rows, err := r.db.Query(ctx, `
		SELECT a.id, a.code, a.name, a.type, SUM(l.debit), SUM(l.credit)
		FROM journal_lines l
		JOIN journal_entries e ON e.id = l.entry_id
		JOIN gl_accounts a ON a.id = l.account_id
		WHERE e.status <> 'draft' AND e.entry_date <= $1
		GROUP BY a.id, a.code, a.name, a.type
		ORDER BY a.code`, timeToPgTimestamptz(asOf))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	activity := make([]domain.AccountActivity, 0)
	for rows.Next() {
		act, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		activity = append(activity, act)
	}

	return activity, rows.Err()
}

// AccountActivityByID sums every non-draft line of one account.
func (r *LedgerRepository) AccountActivityByID(ctx context.Context, accountID string) (domain.AccountActivity, error) {
	row := r.db.QueryRow(ctx, `
		SELECT a.id, a.code, a.name, a.type,
		       COALESCE(SUM(l.debit) FILTER (WHERE e.status <> 'draft'), 0),
		       COALESCE(SUM(l.credit) FILTER (WHERE e.status <> 'draft'), 0)
		FROM gl_accounts a
		LEFT JOIN journal_lines l ON l.account_id = a.id
		LEFT JOIN journal_entries e ON e.id = l.entry_id
		WHERE a.id = $1
		GROUP BY a.id, a.code, a.name, a.type`, accountID)

	act, err := scanActivity(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.AccountActivity{}, domain.NewAccountNotFound(accountID)
		}
		return domain.AccountActivity{}, err
	}

	return act, nil
}

func scanActivity(row pgx.Row) (domain.AccountActivity, error) {
	var (
		act             domain.AccountActivity
		typ             string
		debits, credits pgtype.Numeric
	)

	if err := row.Scan(&act.AccountID, &act.Code, &act.Name, &typ, &debits, &credits); err != nil {
		return domain.AccountActivity{}, err
	}

	act.Type = domain.AccountType(typ)
	act.Debits = numericToDecimal(debits)
	act.Credits = numericToDecimal(credits)

	return act, nil
}
