package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountActivity is the sum of posted lines for one account up to a cutoff.
type AccountActivity struct {
	AccountID string
	Code      string
	Name      string
	Type      AccountType
	Debits    decimal.Decimal
	Credits   decimal.Decimal
}

// TrialBalanceRow is one account line of a trial balance.
type TrialBalanceRow struct {
	AccountID string
	Code      string
	Name      string
	Type      AccountType
	Debit     decimal.Decimal
	Credit    decimal.Decimal
}

// TrialBalanceReport lists nonzero account balances as of a date.
type TrialBalanceReport struct {
	AsOf         time.Time
	Rows         []TrialBalanceRow
	TotalDebits  decimal.Decimal
	TotalCredits decimal.Decimal
	Balanced     bool
}

// NewTrialBalanceReport places each account's net activity in the debit or
// credit column and totals both columns. Zero-net accounts are left out.
func NewTrialBalanceReport(asOf time.Time, activity []AccountActivity) *TrialBalanceReport {
	report := &TrialBalanceReport{
		AsOf:         asOf,
		Rows:         make([]TrialBalanceRow, 0, len(activity)),
		TotalDebits:  decimal.Zero,
		TotalCredits: decimal.Zero,
	}

	for _, a := range activity {
		net := RoundMinor(a.Debits.Sub(a.Credits))
		if net.IsZero() {
			continue
		}

		row := TrialBalanceRow{
			AccountID: a.AccountID,
			Code:      a.Code,
			Name:      a.Name,
			Type:      a.Type,
			Debit:     decimal.Zero,
			Credit:    decimal.Zero,
		}
		if net.IsPositive() {
			row.Debit = net
			report.TotalDebits = report.TotalDebits.Add(net)
		} else {
			row.Credit = net.Neg()
			report.TotalCredits = report.TotalCredits.Add(net.Neg())
		}
		report.Rows = append(report.Rows, row)
	}

	report.Balanced = report.TotalDebits.Equal(report.TotalCredits)
	return report
}
