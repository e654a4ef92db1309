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
	"github.com/mimhaad/finance-ledger/internal/usecase"
)

const accountColumns = `id, code, name, type, parent_id, balance, is_active, version, created_at, updated_at`

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	db DBTX
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return newAccountRepository(pool)
}

func newAccountRepository(db DBTX) *AccountRepository {
	return &AccountRepository{db: db}
}

// Create inserts a new account. A duplicate code is returned as the driver error.
func (r *AccountRepository) Create(ctx context.Context, account *domain.GLAccount) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO gl_accounts (`+accountColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		accountArgs(account)...,
	)
	return err
}

// CreateIfNotExists inserts the account unless its code already exists.
func (r *AccountRepository) CreateIfNotExists(ctx context.Context, account *domain.GLAccount) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		INSERT INTO gl_accounts (`+accountColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (code) DO NOTHING`,
		accountArgs(account)...,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.GLAccount, error) {
	row := r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM gl_accounts WHERE id = $1`, id)

	account, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewAccountNotFound(id)
		}
		return nil, err
	}

	return account, nil
}

// GetByCode retrieves an account by its chart code.
func (r *AccountRepository) GetByCode(ctx context.Context, code string) (*domain.GLAccount, error) {
	row := r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM gl_accounts WHERE code = $1`, code)

	account, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewAccountNotFound(code)
		}
		return nil, err
	}

	return account, nil
}

// GetByCodes retrieves the accounts matching codes. Missing codes are skipped.
func (r *AccountRepository) GetByCodes(ctx context.Context, codes []string) ([]*domain.GLAccount, error) {
	rows, err := r.db.Query(ctx, `SELECT `+accountColumns+` FROM gl_accounts WHERE code = ANY($1) ORDER BY code`, codes)
	if err != nil {
		return nil, err
	}

	return collectAccounts(rows)
}

// GetByIDsForUpdate locks the given accounts in ID order.
func (r *AccountRepository) GetByIDsForUpdate(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.GLAccount, error) {
	db, err := txDB(tx)
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(ctx, `
		SELECT `+accountColumns+` FROM gl_accounts
		WHERE id = ANY($1)
		ORDER BY id
		FOR UPDATE`, ids)
	if err != nil {
		return nil, err
	}

	return collectAccounts(rows)
}

// UpdateBalance sets the balance of a locked account and bumps its version.
func (r *AccountRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, id string, balance decimal.Decimal, updatedAt time.Time) error {
	db, err := txDB(tx)
	if err != nil {
		return err
	}

	tag, err := db.Exec(ctx, `
		UPDATE gl_accounts
		SET balance = $2, version = version + 1, updated_at = $3
		WHERE id = $1`,
		id, decimalToNumeric(balance), timeToPgTimestamptz(updatedAt),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.NewAccountNotFound(id)
	}

	return nil
}

// List lists accounts ordered by code.
func (r *AccountRepository) List(ctx context.Context, limit, offset int) ([]*domain.GLAccount, error) {
	rows, err := r.db.Query(ctx, `SELECT `+accountColumns+` FROM gl_accounts ORDER BY code LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}

	return collectAccounts(rows)
}

// ListAll returns the full chart ordered by code.
func (r *AccountRepository) ListAll(ctx context.Context) ([]*domain.GLAccount, error) {
	rows, err := r.db.Query(ctx, `SELECT `+accountColumns+` FROM gl_accounts ORDER BY code`)
	if err != nil {
		return nil, err
	}

	return collectAccounts(rows)
}

func accountArgs(a *domain.GLAccount) []any {
	return []any{
		a.ID,
		a.Code,
		a.Name,
		string(a.Type),
		optionalText(a.ParentID),
		decimalToNumeric(a.Balance),
		a.IsActive,
		a.Version,
		timeToPgTimestamptz(a.CreatedAt),
		timeToPgTimestamptz(a.UpdatedAt),
	}
}

func scanAccount(row pgx.Row) (*domain.GLAccount, error) {
	var (
		a         domain.GLAccount
		typ       string
		parentID  pgtype.Text
		balance   pgtype.Numeric
		createdAt pgtype.Timestamptz
		updatedAt pgtype.Timestamptz
	)

	if err := row.Scan(&a.ID, &a.Code, &a.Name, &typ, &parentID, &balance, &a.IsActive, &a.Version, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	a.Type = domain.AccountType(typ)
	a.ParentID = textPtr(parentID)
	a.Balance = numericToDecimal(balance)
	a.CreatedAt = createdAt.Time
	a.UpdatedAt = updatedAt.Time

	return &a, nil
}

func collectAccounts(rows pgx.Rows) ([]*domain.GLAccount, error) {
	defer rows.Close()

	accounts := make([]*domain.GLAccount, 0)
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}

	return accounts, rows.Err()
}
