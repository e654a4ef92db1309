package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
)

var testTime = time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)

func numeric(s string) pgtype.Numeric {
	return decimalToNumeric(decimal.RequireFromString(s))
}

func ts(t time.Time) pgtype.Timestamptz {
	return timeToPgTimestamptz(t)
}

func text(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: true}
}

// beginTx opens a mocked transaction wrapped the way TxManager returns it.
func beginTx(t *testing.T, mock pgxmock.PgxPoolIface) *Tx {
	t.Helper()

	mock.ExpectBegin()
	tx, err := newTxManagerWithPool(mock).Begin(context.Background())
	if err != nil {
		t.Fatalf("Begin() error = %v", err)
	}
	return tx.(*Tx)
}
