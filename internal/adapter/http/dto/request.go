package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/mimhaad/finance-ledger/internal/domain"
	"github.com/mimhaad/finance-ledger/internal/usecase"
)

// CreateAccountRequest represents a request to create a GL account.
type CreateAccountRequest struct {
	ParentID *string `json:"parent_id,omitempty"`
	Code     string  `json:"code" validate:"required,max=20"`
	Name     string  `json:"name" validate:"required,max=255"`
	Type     string  `json:"type" validate:"omitempty,oneof=asset liability equity revenue expense"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateAccountRequest) ToUseCaseInput() usecase.CreateAccountInput {
	return usecase.CreateAccountInput{
		ParentID: r.ParentID,
		Code:     r.Code,
		Name:     r.Name,
		Type:     domain.AccountType(r.Type),
	}
}

// EnsureAccountsRequest lists account codes that must exist.
type EnsureAccountsRequest struct {
	Codes []string `json:"codes" validate:"required,min=1,dive,required,max=20"`
}

// LineRequest is a manual journal line addressed by account code.
type LineRequest struct {
	AccountCode string          `json:"account_code" validate:"required,max=20"`
	Memo        string          `json:"memo,omitempty" validate:"max=500"`
	Debit       decimal.Decimal `json:"debit" validate:"nonnegative_decimal"`
	Credit      decimal.Decimal `json:"credit" validate:"nonnegative_decimal"`
}

// CreateJournalEntryRequest drafts an entry either from a transaction type
// or from explicit lines.
type CreateJournalEntryRequest struct {
	Date            *time.Time        `json:"date,omitempty"`
	AccountMappings map[string]string `json:"account_mappings,omitempty"`
	TransactionID   string            `json:"transaction_id" validate:"required,max=100"`
	TransactionType string            `json:"transaction_type,omitempty" validate:"required_without=Lines"`
	Description     string            `json:"description,omitempty" validate:"max=500"`
	UserID          string            `json:"user_id,omitempty"`
	Lines           []LineRequest     `json:"lines,omitempty" validate:"omitempty,min=2,dive"`
	Amount          decimal.Decimal   `json:"amount" validate:"nonnegative_decimal"`
	Fee             decimal.Decimal   `json:"fee" validate:"nonnegative_decimal"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateJournalEntryRequest) ToUseCaseInput(userID string) usecase.BuildEntryInput {
	input := usecase.BuildEntryInput{
		Date:            r.Date,
		TransactionID:   r.TransactionID,
		TransactionType: domain.TransactionType(r.TransactionType),
		Description:     r.Description,
		CreatedBy:       userID,
		Amount:          r.Amount,
		Fee:             r.Fee,
	}

	if len(r.AccountMappings) > 0 {
		input.AccountMappings = make(map[domain.AccountRole]string, len(r.AccountMappings))
		for role, code := range r.AccountMappings {
			input.AccountMappings[domain.AccountRole(role)] = code
		}
	}

	for _, l := range r.Lines {
		input.Lines = append(input.Lines, usecase.LineInput{
			AccountCode: l.AccountCode,
			Memo:        l.Memo,
			Debit:       l.Debit,
			Credit:      l.Credit,
		})
	}

	return input
}

// UserRequest carries the acting user for requests that have no other body.
type UserRequest struct {
	UserID string `json:"user_id,omitempty"`
}

// ReverseEntryRequest represents a request to reverse a posted entry.
type ReverseEntryRequest struct {
	UserID string `json:"user_id,omitempty"`
	Reason string `json:"reason" validate:"required,max=500"`
}

// UpdateFloatAccountRequest pushes the externally reported state of a float.
type UpdateFloatAccountRequest struct {
	IsActive       *bool           `json:"is_active,omitempty"`
	Name           string          `json:"name" validate:"max=255"`
	Provider       string          `json:"provider" validate:"required"`
	BranchID       string          `json:"branch_id,omitempty" validate:"max=100"`
	GLAccountCode  string          `json:"gl_account_code,omitempty" validate:"max=20"`
	UserID         string          `json:"user_id,omitempty"`
	CurrentBalance decimal.Decimal `json:"current_balance" validate:"nonnegative_decimal"`
}

// ToDomain converts the request for float id.
func (r *UpdateFloatAccountRequest) ToDomain(id string) *domain.FloatAccount {
	active := true
	if r.IsActive != nil {
		active = *r.IsActive
	}

	return &domain.FloatAccount{
		ID:             id,
		Name:           r.Name,
		Provider:       domain.FloatProvider(r.Provider),
		BranchID:       r.BranchID,
		GLAccountCode:  r.GLAccountCode,
		CurrentBalance: r.CurrentBalance,
		IsActive:       active,
	}
}
