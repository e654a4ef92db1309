package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mimhaad/finance-ledger/internal/domain"
)

const floatColumns = `id, name, provider, branch_id, gl_account_code, current_balance, is_active, last_synced_at, updated_at`

// FloatAccountRepository implements usecase.FloatAccountRepository and
// usecase.FloatBalanceSource.
type FloatAccountRepository struct {
	db DBTX
}

// NewFloatAccountRepository creates a new FloatAccountRepository.
func NewFloatAccountRepository(pool *pgxpool.Pool) *FloatAccountRepository {
	return newFloatAccountRepository(pool)
}

func newFloatAccountRepository(db DBTX) *FloatAccountRepository {
	return &FloatAccountRepository{db: db}
}

// Upsert stores the float state reported by float management.
func (r *FloatAccountRepository) Upsert(ctx context.Context, f *domain.FloatAccount) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO float_accounts (id, name, provider, branch_id, gl_account_code, current_balance, is_active, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			provider = EXCLUDED.provider,
			branch_id = EXCLUDED.branch_id,
			gl_account_code = EXCLUDED.gl_account_code,
			current_balance = EXCLUDED.current_balance,
			is_active = EXCLUDED.is_active,
			updated_at = EXCLUDED.updated_at`,
		f.ID, f.Name, string(f.Provider), f.BranchID, f.GLAccountCode,
		decimalToNumeric(f.CurrentBalance), f.IsActive, timeToPgTimestamptz(f.UpdatedAt),
	)
	return err
}

// GetByID retrieves a float account.
func (r *FloatAccountRepository) GetByID(ctx context.Context, id string) (*domain.FloatAccount, error) {
	row := r.db.QueryRow(ctx, `SELECT `+floatColumns+` FROM float_accounts WHERE id = $1`, id)

	f, err := scanFloat(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &domain.NotFoundError{Resource: "float account", Key: id}
		}
		return nil, err
	}

	return f, nil
}

// List returns every float account.
func (r *FloatAccountRepository) List(ctx context.Context) ([]*domain.FloatAccount, error) {
	return r.query(ctx, `SELECT `+floatColumns+` FROM float_accounts ORDER BY id`)
}

// ListActive returns the active floats with their current external balance.
func (r *FloatAccountRepository) ListActive(ctx context.Context) ([]*domain.FloatAccount, error) {
	return r.query(ctx, `SELECT `+floatColumns+` FROM float_accounts WHERE is_active ORDER BY id`)
}

// MarkSynced records the time of the last successful sync.
func (r *FloatAccountRepository) MarkSynced(ctx context.Context, id string, syncedAt time.Time) error {
	_, err := r.db.Exec(ctx, `UPDATE float_accounts SET last_synced_at = $2 WHERE id = $1`, id, timeToPgTimestamptz(syncedAt))
	return err
}

func (r *FloatAccountRepository) query(ctx context.Context, sql string) ([]*domain.FloatAccount, error) {
	rows, err := r.db.Query(ctx, sql)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	floats := make([]*domain.FloatAccount, 0)
	for rows.Next() {
		f, err := scanFloat(rows)
		if err != nil {
			return nil, err
		}
		floats = append(floats, f)
	}

	return floats, rows.Err()
}

func scanFloat(row pgx.Row) (*domain.FloatAccount, error) {
	var (
		f          domain.FloatAccount
		provider   string
		balance    pgtype.Numeric
		lastSynced pgtype.Timestamptz
		updatedAt  pgtype.Timestamptz
	)

	if err := row.Scan(&f.ID, &f.Name, &provider, &f.BranchID, &f.GLAccountCode, &balance, &f.IsActive, &lastSynced, &updatedAt); err != nil {
		return nil, err
	}

	f.Provider = domain.FloatProvider(provider)
	f.CurrentBalance = numericToDecimal(balance)
	f.LastSyncedAt = timestamptzPtr(lastSynced)
	f.UpdatedAt = updatedAt.Time

	return &f, nil
}
