package postgres

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mimhaad/finance-ledger/internal/domain"
)

var floatRowColumns = []string{"id", "name", "provider", "branch_id", "gl_account_code", "current_balance", "is_active", "last_synced_at", "updated_at"}

func TestFloatAccountRepository_Upsert(t *testing.T) {
	mock := newMockPool(t)
	repo := newFloatAccountRepository(mock)

	mock.ExpectExec(`ON CONFLICT \(id\) DO UPDATE`).
		WithArgs("momo-1", "MoMo float", "momo", "branch-1", "1003", pgxmock.AnyArg(), true, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := repo.Upsert(context.Background(), &domain.FloatAccount{
		ID:             "momo-1",
		Name:           "MoMo float",
		Provider:       domain.FloatProviderMomo,
		BranchID:       "branch-1",
		GLAccountCode:  "1003",
		CurrentBalance: decimal.NewFromInt(500),
		IsActive:       true,
		UpdatedAt:      testTime,
	})
	require.NoError(t, err)
	assertExpectations(t, mock)
}

func TestFloatAccountRepository_ListActive(t *testing.T) {
	mock := newMockPool(t)
	repo := newFloatAccountRepository(mock)

	mock.ExpectQuery(`WHERE is_active ORDER BY id`).
		WillReturnRows(pgxmock.NewRows(floatRowColumns).
			AddRow("momo-1", "MoMo", "momo", "branch-1", "", numeric("500"), true, pgtype.Timestamptz{}, ts(testTime)).
			AddRow("power-1", "Power", "power", "branch-1", "1005", numeric("20.50"), true, ts(testTime), ts(testTime)))

	floats, err := repo.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, floats, 2)
	assert.Nil(t, floats[0].LastSyncedAt)
	assert.Equal(t, domain.FloatProviderPower, floats[1].Provider)
	assert.True(t, floats[1].CurrentBalance.Equal(decimal.RequireFromString("20.50")))
	require.NotNil(t, floats[1].LastSyncedAt)
	assertExpectations(t, mock)
}

func TestFloatAccountRepository_GetByID_NotFound(t *testing.T) {
	mock := newMockPool(t)
	repo := newFloatAccountRepository(mock)

	mock.ExpectQuery(`FROM float_accounts WHERE id = \$1`).
		WithArgs("nope").
		WillReturnRows(pgxmock.NewRows(floatRowColumns))

	_, err := repo.GetByID(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assertExpectations(t, mock)
}

func TestFloatAccountRepository_MarkSynced(t *testing.T) {
	mock := newMockPool(t)
	repo := newFloatAccountRepository(mock)

	mock.ExpectExec(`UPDATE float_accounts SET last_synced_at = \$2 WHERE id = \$1`).
		WithArgs("momo-1", ts(testTime)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, repo.MarkSynced(context.Background(), "momo-1", testTime))
	assertExpectations(t, mock)
}
