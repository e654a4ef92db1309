package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mimhaad/finance-ledger/internal/domain"
	"github.com/mimhaad/finance-ledger/internal/usecase"
)

const entryColumns = `id, transaction_id, transaction_type, description, entry_date, status,
	created_by, posted_by, posted_at, reversed_by, reversed_at, reversal_reason,
	reversal_entry_id, reverses_entry_id, version, created_at, updated_at`

const lineColumns = `id, entry_id, account_id, account_code, debit, credit, memo`

// JournalRepository implements usecase.JournalRepository.
type JournalRepository struct {
	db DBTX
}

// NewJournalRepository creates a new JournalRepository.
func NewJournalRepository(pool *pgxpool.Pool) *JournalRepository {
	return newJournalRepository(pool)
}

func newJournalRepository(db DBTX) *JournalRepository {
	return &JournalRepository{db: db}
}

// Create inserts an entry and its lines.
func (r *JournalRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.JournalEntry) error {
	db, err := txDB(tx)
	if err != nil {
		return err
	}

	_, err = db.Exec(ctx, `
		INSERT INTO journal_entries (`+entryColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		entry.ID,
		entry.TransactionID,
		string(entry.TransactionType),
		entry.Description,
		timeToPgTimestamptz(entry.Date),
		string(entry.Status),
		entry.CreatedBy,
		optionalText(entry.PostedBy),
		optionalTime(entry.PostedAt),
		optionalText(entry.ReversedBy),
		optionalTime(entry.ReversedAt),
		optionalText(entry.ReversalReason),
		optionalText(entry.ReversalEntryID),
		optionalText(entry.ReversesEntryID),
		entry.Version,
		timeToPgTimestamptz(entry.CreatedAt),
		timeToPgTimestamptz(entry.UpdatedAt),
	)
	if err != nil {
		return err
	}

	for i, l := range entry.Lines {
		_, err := db.Exec(ctx, `
			INSERT INTO journal_lines (id, entry_id, line_no, account_id, account_code, debit, credit, memo)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			l.ID, entry.ID, i+1, l.AccountID, l.AccountCode,
			decimalToNumeric(l.Debit), decimalToNumeric(l.Credit), l.Memo,
		)
		if err != nil {
			return err
		}
	}

	return nil
}

// GetByID retrieves an entry with its lines.
func (r *JournalRepository) GetByID(ctx context.Context, id string) (*domain.JournalEntry, error) {
	return r.getByID(ctx, r.db, id, "")
}

// GetByIDTx retrieves an entry inside tx, locking the entry row.
func (r *JournalRepository) GetByIDTx(ctx context.Context, tx usecase.Transaction, id string) (*domain.JournalEntry, error) {
	db, err := txDB(tx)
	if err != nil {
		return nil, err
	}
	return r.getByID(ctx, db, id, " FOR UPDATE")
}

func (r *JournalRepository) getByID(ctx context.Context, db DBTX, id, lock string) (*domain.JournalEntry, error) {
	row := db.QueryRow(ctx, `SELECT `+entryColumns+` FROM journal_entries WHERE id = $1`+lock, id)

	entry, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewEntryNotFound(id)
		}
		return nil, err
	}

	if err := r.loadLines(ctx, db, []*domain.JournalEntry{entry}); err != nil {
		return nil, err
	}

	return entry, nil
}

// ListByTransactionID lists the entries of a business transaction in creation order.
func (r *JournalRepository) ListByTransactionID(ctx context.Context, transactionID string) ([]*domain.JournalEntry, error) {
	return r.listByTransactionID(ctx, r.db, transactionID, "")
}

// ListByTransactionIDTx lists and locks the entries of a business transaction.
func (r *JournalRepository) ListByTransactionIDTx(ctx context.Context, tx usecase.Transaction, transactionID string) ([]*domain.JournalEntry, error) {
	db, err := txDB(tx)
	if err != nil {
		return nil, err
	}
	return r.listByTransactionID(ctx, db, transactionID, " FOR UPDATE")
}

func (r *JournalRepository) listByTransactionID(ctx context.Context, db DBTX, transactionID, lock string) ([]*domain.JournalEntry, error) {
	rows, err := db.Query(ctx, `
		SELECT `+entryColumns+` FROM journal_entries
		WHERE transaction_id = $1
		ORDER BY created_at, id`+lock, transactionID)
	if err != nil {
		return nil, err
	}

	entries, err := collectEntries(rows)
	if err != nil {
		return nil, err
	}

	if err := r.loadLines(ctx, db, entries); err != nil {
		return nil, err
	}

	return entries, nil
}

// MarkPosted moves a draft to posted.
func (r *JournalRepository) MarkPosted(ctx context.Context, tx usecase.Transaction, id, postedBy string, postedAt time.Time) (bool, error) {
	db, err := txDB(tx)
	if err != nil {
		return false, err
	}

	tag, err := db.Exec(ctx, `
		UPDATE journal_entries
		SET status = 'posted', posted_by = $2, posted_at = $3, updated_at = $3, version = version + 1
		WHERE id = $1 AND status = 'draft'`,
		id, postedBy, timeToPgTimestamptz(postedAt),
	)
	if err != nil {
		return false, err
	}

	return tag.RowsAffected() == 1, nil
}

// MarkReversed moves a posted entry to reversed.
func (r *JournalRepository) MarkReversed(ctx context.Context, tx usecase.Transaction, id string, rev usecase.ReversalMark) (bool, error) {
	db, err := txDB(tx)
	if err != nil {
		return false, err
	}

	tag, err := db.Exec(ctx, `
		UPDATE journal_entries
		SET status = 'reversed', reversed_by = $2, reversed_at = $3, reversal_reason = $4,
		    reversal_entry_id = $5, updated_at = $3, version = version + 1
		WHERE id = $1 AND status = 'posted'`,
		id, rev.ReversedBy, timeToPgTimestamptz(rev.ReversedAt), rev.Reason, rev.ReversalEntryID,
	)
	if err != nil {
		return false, err
	}

	return tag.RowsAffected() == 1, nil
}

// DeleteDraft removes a draft entry; its lines cascade.
func (r *JournalRepository) DeleteDraft(ctx context.Context, tx usecase.Transaction, id string) (bool, error) {
	db, err := txDB(tx)
	if err != nil {
		return false, err
	}

	tag, err := db.Exec(ctx, `DELETE FROM journal_entries WHERE id = $1 AND status = 'draft'`, id)
	if err != nil {
		return false, err
	}

	return tag.RowsAffected() == 1, nil
}

func (r *JournalRepository) loadLines(ctx context.Context, db DBTX, entries []*domain.JournalEntry) error {
	if len(entries) == 0 {
		return nil
	}

	byID := make(map[string]*domain.JournalEntry, len(entries))
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		byID[e.ID] = e
		ids = append(ids, e.ID)
	}

	rows, err := db.Query(ctx, `
		SELECT `+lineColumns+` FROM journal_lines
		WHERE entry_id = ANY($1)
		ORDER BY entry_id, line_no`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			l      domain.JournalLine
			debit  pgtype.Numeric
			credit pgtype.Numeric
		)
		if err := rows.Scan(&l.ID, &l.EntryID, &l.AccountID, &l.AccountCode, &debit, &credit, &l.Memo); err != nil {
			return err
		}
		l.Debit = numericToDecimal(debit)
		l.Credit = numericToDecimal(credit)

		if e, ok := byID[l.EntryID]; ok {
			e.Lines = append(e.Lines, l)
		}
	}

	return rows.Err()
}

func scanEntry(row pgx.Row) (*domain.JournalEntry, error) {
	var (
		e               domain.JournalEntry
		txType, status  string
		date            pgtype.Timestamptz
		postedBy        pgtype.Text
		postedAt        pgtype.Timestamptz
		reversedBy      pgtype.Text
		reversedAt      pgtype.Timestamptz
		reversalReason  pgtype.Text
		reversalEntryID pgtype.Text
		reversesEntryID pgtype.Text
		createdAt       pgtype.Timestamptz
		updatedAt       pgtype.Timestamptz
	)

	err := row.Scan(
		&e.ID, &e.TransactionID, &txType, &e.Description, &date, &status,
		&e.CreatedBy, &postedBy, &postedAt, &reversedBy, &reversedAt, &reversalReason,
		&reversalEntryID, &reversesEntryID, &e.Version, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	e.TransactionType = domain.TransactionType(txType)
	e.Status = domain.EntryStatus(status)
	e.Date = date.Time
	e.PostedBy = textPtr(postedBy)
	e.PostedAt = timestamptzPtr(postedAt)
	e.ReversedBy = textPtr(reversedBy)
	e.ReversedAt = timestamptzPtr(reversedAt)
	e.ReversalReason = textPtr(reversalReason)
	e.ReversalEntryID = textPtr(reversalEntryID)
	e.ReversesEntryID = textPtr(reversesEntryID)
	e.CreatedAt = createdAt.Time
	e.UpdatedAt = updatedAt.Time

	return &e, nil
}

func collectEntries(rows pgx.Rows) ([]*domain.JournalEntry, error) {
	defer rows.Close()

	entries := make([]*domain.JournalEntry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}
