package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountType classifies a GL account and decides its normal balance side.
type AccountType string

const (
	AccountTypeAsset     AccountType = "asset"
	AccountTypeLiability AccountType = "liability"
	AccountTypeEquity    AccountType = "equity"
	AccountTypeRevenue   AccountType = "revenue"
	AccountTypeExpense   AccountType = "expense"
)

// Side is one column of a journal line.
type Side string

const (
	SideDebit  Side = "debit"
	SideCredit Side = "credit"
)

var validAccountTypes = map[AccountType]bool{
	AccountTypeAsset:     true,
	AccountTypeLiability: true,
	AccountTypeEquity:    true,
	AccountTypeRevenue:   true,
	AccountTypeExpense:   true,
}

// IsValid checks if the account type is known.
func (t AccountType) IsValid() bool {
	return validAccountTypes[t]
}

// NormalSide returns the side that increases an account of this type.
func (t AccountType) NormalSide() Side {
	switch t {
	case AccountTypeAsset, AccountTypeExpense:
		return SideDebit
	default:
		return SideCredit
	}
}

// BalanceDelta returns how much a line with the given debit and credit
// moves the balance of an account of this type.
func (t AccountType) BalanceDelta(debit, credit decimal.Decimal) decimal.Decimal {
	if t.NormalSide() == SideDebit {
		return debit.Sub(credit)
	}
	return credit.Sub(debit)
}

// GLAccount is a node in the chart of accounts.
//
// Balance is kept in the account's normal sign and is only changed by the
// posting engine.
type GLAccount struct {
	CreatedAt time.Time
	UpdatedAt time.Time
	ParentID  *string
	ID        string
	Code      string
	Name      string
	Type      AccountType
	Balance   decimal.Decimal
	Version   int64
	IsActive  bool
}

// ApplyLine returns the balance after applying a debit/credit pair.
func (a *GLAccount) ApplyLine(debit, credit decimal.Decimal) decimal.Decimal {
	return a.Balance.Add(a.Type.BalanceDelta(debit, credit))
}

// AccountNode is a GL account with its children, used for tree views.
type AccountNode struct {
	Account  *GLAccount
	Children []*AccountNode
}

// AccountBalance is a point-in-time balance read for one account.
type AccountBalance struct {
	AsOf       time.Time
	AccountID  string
	Code       string
	Name       string
	Type       AccountType
	NormalSide Side
	Balance    decimal.Decimal
}

// NewAccountBalance builds a balance view for the account.
func NewAccountBalance(a *GLAccount, asOf time.Time) *AccountBalance {
	return &AccountBalance{
		AccountID:  a.ID,
		Code:       a.Code,
		Name:       a.Name,
		Type:       a.Type,
		NormalSide: a.Type.NormalSide(),
		Balance:    a.Balance,
		AsOf:       asOf,
	}
}
