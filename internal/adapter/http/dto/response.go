package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/mimhaad/finance-ledger/internal/domain"
	"github.com/mimhaad/finance-ledger/internal/usecase"
)

func money(d decimal.Decimal) string {
	return d.StringFixed(domain.MinorUnitPlaces)
}

// AccountResponse represents a GL account in API responses.
type AccountResponse struct {
	ParentID   *string   `json:"parent_id,omitempty"`
	ID         string    `json:"id"`
	Code       string    `json:"code"`
	Name       string    `json:"name"`
	Type       string    `json:"type"`
	NormalSide string    `json:"normal_side"`
	Balance    string    `json:"balance"`
	Version    int64     `json:"version"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// AccountFromDomain converts domain account to response.
func AccountFromDomain(a *domain.GLAccount) *AccountResponse {
	return &AccountResponse{
		ParentID:   a.ParentID,
		ID:         a.ID,
		Code:       a.Code,
		Name:       a.Name,
		Type:       string(a.Type),
		NormalSide: string(a.Type.NormalSide()),
		Balance:    money(a.Balance),
		Version:    a.Version,
		IsActive:   a.IsActive,
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  a.UpdatedAt,
	}
}

// AccountsFromDomain converts domain accounts to responses.
func AccountsFromDomain(accounts []*domain.GLAccount) []*AccountResponse {
	result := make([]*AccountResponse, len(accounts))
	for i, a := range accounts {
		result[i] = AccountFromDomain(a)
	}
	return result
}

// ListAccountsResponse wraps a page of accounts.
type ListAccountsResponse struct {
	Accounts []*AccountResponse `json:"accounts"`
	Total    int64              `json:"total"`
}

// AccountNodeResponse is one node of the chart tree.
type AccountNodeResponse struct {
	*AccountResponse
	Children []*AccountNodeResponse `json:"children,omitempty"`
}

// AccountTreeFromDomain converts the chart forest.
func AccountTreeFromDomain(nodes []*domain.AccountNode) []*AccountNodeResponse {
	result := make([]*AccountNodeResponse, len(nodes))
	for i, n := range nodes {
		result[i] = &AccountNodeResponse{
			AccountResponse: AccountFromDomain(n.Account),
			Children:        AccountTreeFromDomain(n.Children),
		}
	}
	return result
}

// AccountBalanceResponse is the current balance of one account.
type AccountBalanceResponse struct {
	AccountID  string    `json:"account_id"`
	Code       string    `json:"code"`
	Name       string    `json:"name"`
	Type       string    `json:"type"`
	NormalSide string    `json:"normal_side"`
	Balance    string    `json:"balance"`
	AsOf       time.Time `json:"as_of"`
}

// AccountBalanceFromDomain converts a domain balance to response.
func AccountBalanceFromDomain(b *domain.AccountBalance) *AccountBalanceResponse {
	return &AccountBalanceResponse{
		AccountID:  b.AccountID,
		Code:       b.Code,
		Name:       b.Name,
		Type:       string(b.Type),
		NormalSide: string(b.NormalSide),
		Balance:    money(b.Balance),
		AsOf:       b.AsOf,
	}
}

// JournalLineResponse represents a journal line in API responses.
type JournalLineResponse struct {
	ID          string `json:"id"`
	AccountID   string `json:"account_id"`
	AccountCode string `json:"account_code"`
	Memo        string `json:"memo,omitempty"`
	Debit       string `json:"debit"`
	Credit      string `json:"credit"`
}

// JournalEntryResponse represents a journal entry in API responses.
type JournalEntryResponse struct {
	Date            time.Time              `json:"date"`
	CreatedAt       time.Time              `json:"created_at"`
	PostedAt        *time.Time             `json:"posted_at,omitempty"`
	ReversedAt      *time.Time             `json:"reversed_at,omitempty"`
	PostedBy        *string                `json:"posted_by,omitempty"`
	ReversedBy      *string                `json:"reversed_by,omitempty"`
	ReversalReason  *string                `json:"reversal_reason,omitempty"`
	ReversalEntryID *string                `json:"reversal_entry_id,omitempty"`
	ReversesEntryID *string                `json:"reverses_entry_id,omitempty"`
	ID              string                 `json:"id"`
	TransactionID   string                 `json:"transaction_id"`
	TransactionType string                 `json:"transaction_type,omitempty"`
	Description     string                 `json:"description,omitempty"`
	Status          string                 `json:"status"`
	CreatedBy       string                 `json:"created_by"`
	TotalDebits     string                 `json:"total_debits"`
	TotalCredits    string                 `json:"total_credits"`
	Lines           []*JournalLineResponse `json:"lines"`
}

// JournalEntryFromDomain converts domain entry to response.
func JournalEntryFromDomain(e *domain.JournalEntry) *JournalEntryResponse {
	debits, credits := e.Totals()

	lines := make([]*JournalLineResponse, len(e.Lines))
	for i, l := range e.Lines {
		lines[i] = &JournalLineResponse{
			ID:          l.ID,
			AccountID:   l.AccountID,
			AccountCode: l.AccountCode,
			Memo:        l.Memo,
			Debit:       money(l.Debit),
			Credit:      money(l.Credit),
		}
	}

	return &JournalEntryResponse{
		Date:            e.Date,
		CreatedAt:       e.CreatedAt,
		PostedAt:        e.PostedAt,
		ReversedAt:      e.ReversedAt,
		PostedBy:        e.PostedBy,
		ReversedBy:      e.ReversedBy,
		ReversalReason:  e.ReversalReason,
		ReversalEntryID: e.ReversalEntryID,
		ReversesEntryID: e.ReversesEntryID,
		ID:              e.ID,
		TransactionID:   e.TransactionID,
		TransactionType: string(e.TransactionType),
		Description:     e.Description,
		Status:          string(e.Status),
		CreatedBy:       e.CreatedBy,
		TotalDebits:     money(debits),
		TotalCredits:    money(credits),
		Lines:           lines,
	}
}

// JournalEntriesFromDomain converts domain entries to responses.
func JournalEntriesFromDomain(entries []*domain.JournalEntry) []*JournalEntryResponse {
	result := make([]*JournalEntryResponse, len(entries))
	for i, e := range entries {
		result[i] = JournalEntryFromDomain(e)
	}
	return result
}

// TrialBalanceRowResponse is one account row of a trial balance.
type TrialBalanceRowResponse struct {
	AccountID string `json:"account_id"`
	Code      string `json:"code"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	Debit     string `json:"debit"`
	Credit    string `json:"credit"`
}

// TrialBalanceResponse represents a trial balance report.
type TrialBalanceResponse struct {
	AsOf         time.Time                  `json:"as_of"`
	Rows         []*TrialBalanceRowResponse `json:"rows"`
	TotalDebits  string                     `json:"total_debits"`
	TotalCredits string                     `json:"total_credits"`
	Balanced     bool                       `json:"balanced"`
}

// TrialBalanceFromDomain converts the report to response.
func TrialBalanceFromDomain(r *domain.TrialBalanceReport) *TrialBalanceResponse {
	rows := make([]*TrialBalanceRowResponse, len(r.Rows))
	for i, row := range r.Rows {
		rows[i] = &TrialBalanceRowResponse{
			AccountID: row.AccountID,
			Code:      row.Code,
			Name:      row.Name,
			Type:      string(row.Type),
			Debit:     money(row.Debit),
			Credit:    money(row.Credit),
		}
	}

	return &TrialBalanceResponse{
		AsOf:         r.AsOf,
		Rows:         rows,
		TotalDebits:  money(r.TotalDebits),
		TotalCredits: money(r.TotalCredits),
		Balanced:     r.Balanced,
	}
}

// FloatAccountResponse represents a float account in API responses.
type FloatAccountResponse struct {
	UpdatedAt      time.Time  `json:"updated_at"`
	LastSyncedAt   *time.Time `json:"last_synced_at,omitempty"`
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Provider       string     `json:"provider"`
	BranchID       string     `json:"branch_id,omitempty"`
	GLAccountCode  string     `json:"gl_account_code"`
	CurrentBalance string     `json:"current_balance"`
	IsActive       bool       `json:"is_active"`
}

// FloatAccountFromDomain converts a float account to response.
func FloatAccountFromDomain(f *domain.FloatAccount) *FloatAccountResponse {
	return &FloatAccountResponse{
		UpdatedAt:      f.UpdatedAt,
		LastSyncedAt:   f.LastSyncedAt,
		ID:             f.ID,
		Name:           f.Name,
		Provider:       string(f.Provider),
		BranchID:       f.BranchID,
		GLAccountCode:  f.ControlAccountCode(),
		CurrentBalance: money(f.CurrentBalance),
		IsActive:       f.IsActive,
	}
}

// FloatAccountsFromDomain converts float accounts to responses.
func FloatAccountsFromDomain(floats []*domain.FloatAccount) []*FloatAccountResponse {
	result := make([]*FloatAccountResponse, len(floats))
	for i, f := range floats {
		result[i] = FloatAccountFromDomain(f)
	}
	return result
}

// FloatSyncFailureResponse names a float that could not be synced.
type FloatSyncFailureResponse struct {
	FloatAccountID string `json:"float_account_id"`
	Error          string `json:"error"`
}

// FloatSyncResponse summarises one sync run.
type FloatSyncResponse struct {
	StartedAt       time.Time                   `json:"started_at"`
	FinishedAt      time.Time                   `json:"finished_at"`
	Entries         []*JournalEntryResponse     `json:"entries"`
	Failures        []*FloatSyncFailureResponse `json:"failures,omitempty"`
	AccountsChecked int                         `json:"accounts_checked"`
	AccountsUpdated int                         `json:"accounts_updated"`
}

// FloatSyncFromDomain converts a sync result to response.
func FloatSyncFromDomain(r *domain.FloatSyncResult) *FloatSyncResponse {
	resp := &FloatSyncResponse{
		StartedAt:       r.StartedAt,
		FinishedAt:      r.FinishedAt,
		Entries:         JournalEntriesFromDomain(r.Entries),
		AccountsChecked: r.AccountsChecked,
		AccountsUpdated: r.AccountsUpdated,
	}
	for _, f := range r.Failures {
		resp.Failures = append(resp.Failures, &FloatSyncFailureResponse{
			FloatAccountID: f.FloatAccountID,
			Error:          f.Error,
		})
	}
	return resp
}

// LedgerConsistencyResponse reports the ledger-wide totals.
type LedgerConsistencyResponse struct {
	Status       string `json:"status"`
	TotalDebits  string `json:"total_debits"`
	TotalCredits string `json:"total_credits"`
	Consistent   bool   `json:"consistent"`
	Message      string `json:"message,omitempty"`
}

// LedgerConsistencyFromTotals converts the use case totals.
func LedgerConsistencyFromTotals(t *usecase.LedgerTotals) *LedgerConsistencyResponse {
	status := "consistent"
	if !t.Consistent {
		status = "inconsistent"
	}
	return &LedgerConsistencyResponse{
		Status:       status,
		TotalDebits:  t.TotalDebits,
		TotalCredits: t.TotalCredits,
		Consistent:   t.Consistent,
	}
}

// ReconciliationResultResponse is one account whose balance drifted.
type ReconciliationResultResponse struct {
	AccountID         string    `json:"account_id"`
	Code              string    `json:"code"`
	RecordedBalance   string    `json:"recorded_balance"`
	CalculatedBalance string    `json:"calculated_balance"`
	Difference        string    `json:"difference"`
	IsReconciled      bool      `json:"is_reconciled"`
	LastChecked       time.Time `json:"last_checked"`
}

// ReconciliationReportResponse represents a reconciliation report.
type ReconciliationReportResponse struct {
	CheckedAt          time.Time                       `json:"checked_at"`
	Discrepancies      []*ReconciliationResultResponse `json:"discrepancies"`
	TotalAccounts      int                             `json:"total_accounts"`
	ReconciledAccounts int                             `json:"reconciled_accounts"`
	LedgerConsistent   bool                            `json:"ledger_consistent"`
}

// ReconciliationReportFromUseCase converts the report to response.
func ReconciliationReportFromUseCase(r *usecase.ReconciliationReport) *ReconciliationReportResponse {
	resp := &ReconciliationReportResponse{
		CheckedAt:          r.CheckedAt,
		Discrepancies:      make([]*ReconciliationResultResponse, 0, len(r.Discrepancies)),
		TotalAccounts:      r.TotalAccounts,
		ReconciledAccounts: r.ReconciledAccounts,
		LedgerConsistent:   r.LedgerConsistent,
	}
	for _, d := range r.Discrepancies {
		resp.Discrepancies = append(resp.Discrepancies, &ReconciliationResultResponse{
			AccountID:         d.AccountID,
			Code:              d.Code,
			RecordedBalance:   money(d.RecordedBalance),
			CalculatedBalance: money(d.CalculatedBalance),
			Difference:        money(d.Difference),
			IsReconciled:      d.IsReconciled,
			LastChecked:       d.LastChecked,
		})
	}
	return resp
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
