package domain

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// TransactionType names the business event a journal entry records.
type TransactionType string

const (
	TxTypeMomoCashIn              TransactionType = "momo_cash_in"
	TxTypeMomoCashOut             TransactionType = "momo_cash_out"
	TxTypeAgencyBankingWithdrawal TransactionType = "agency_banking_withdrawal"
	TxTypeAgencyBankingDeposit    TransactionType = "agency_banking_deposit"
	TxTypePowerSale               TransactionType = "power_sale"
	TxTypeJumiaPODCollection      TransactionType = "jumia_pod_collection"
	TxTypeCommission              TransactionType = "commission"
	TxTypeFloatSync               TransactionType = "float_sync"
	TxTypeManual                  TransactionType = "manual"
	TxTypeReversal                TransactionType = "reversal"
)

// AccountRole is a slot in a posting rule that resolves to a GL account code.
type AccountRole string

const (
	RoleCash                 AccountRole = "cash"
	RoleMomoFloat            AccountRole = "momo_float"
	RoleAgencyFloat          AccountRole = "agency_float"
	RolePowerFloat           AccountRole = "power_float"
	RoleJumiaPayable         AccountRole = "jumia_payable"
	RoleFeeIncome            AccountRole = "fee_income"
	RoleCommissionReceivable AccountRole = "commission_receivable"
	RoleCommissionIncome     AccountRole = "commission_income"
)

// AmountComponent selects which input amount a leg carries.
type AmountComponent string

const (
	ComponentAmount AmountComponent = "amount"
	ComponentFee    AmountComponent = "fee"
)

// PostingLeg is one line template in a posting rule.
type PostingLeg struct {
	Role        AccountRole
	Side        Side
	Component   AmountComponent
	DefaultCode string
	Memo        string
}

// PostingRule maps a transaction type to its fixed set of legs.
type PostingRule struct {
	Type TransactionType
	Legs []PostingLeg
}

var postingRules = map[TransactionType]PostingRule{
	TxTypeMomoCashIn: {
		Type: TxTypeMomoCashIn,
		Legs: []PostingLeg{
			{Role: RoleCash, Side: SideDebit, Component: ComponentAmount, DefaultCode: "1001", Memo: "cash received"},
			{Role: RoleMomoFloat, Side: SideCredit, Component: ComponentAmount, DefaultCode: "1003", Memo: "momo float sent"},
			{Role: RoleCash, Side: SideDebit, Component: ComponentFee, DefaultCode: "1001", Memo: "fee collected"},
			{Role: RoleFeeIncome, Side: SideCredit, Component: ComponentFee, DefaultCode: "4001", Memo: "momo fee income"},
		},
	},
	TxTypeMomoCashOut: {
		Type: TxTypeMomoCashOut,
		Legs: []PostingLeg{
			{Role: RoleMomoFloat, Side: SideDebit, Component: ComponentAmount, DefaultCode: "1003", Memo: "momo float received"},
			{Role: RoleCash, Side: SideCredit, Component: ComponentAmount, DefaultCode: "1001", Memo: "cash paid out"},
			{Role: RoleCash, Side: SideDebit, Component: ComponentFee, DefaultCode: "1001", Memo: "fee collected"},
			{Role: RoleFeeIncome, Side: SideCredit, Component: ComponentFee, DefaultCode: "4001", Memo: "momo fee income"},
		},
	},
	TxTypeAgencyBankingWithdrawal: {
		Type: TxTypeAgencyBankingWithdrawal,
		Legs: []PostingLeg{
			{Role: RoleAgencyFloat, Side: SideDebit, Component: ComponentAmount, DefaultCode: "1004", Memo: "agency float received"},
			{Role: RoleCash, Side: SideCredit, Component: ComponentAmount, DefaultCode: "1001", Memo: "cash paid out"},
			{Role: RoleCash, Side: SideDebit, Component: ComponentFee, DefaultCode: "1001", Memo: "fee collected"},
			{Role: RoleFeeIncome, Side: SideCredit, Component: ComponentFee, DefaultCode: "4002", Memo: "agency banking fee income"},
		},
	},
	TxTypeAgencyBankingDeposit: {
		Type: TxTypeAgencyBankingDeposit,
		Legs: []PostingLeg{
			{Role: RoleCash, Side: SideDebit, Component: ComponentAmount, DefaultCode: "1001", Memo: "cash received"},
			{Role: RoleAgencyFloat, Side: SideCredit, Component: ComponentAmount, DefaultCode: "1004", Memo: "agency float sent"},
			{Role: RoleCash, Side: SideDebit, Component: ComponentFee, DefaultCode: "1001", Memo: "fee collected"},
			{Role: RoleFeeIncome, Side: SideCredit, Component: ComponentFee, DefaultCode: "4002", Memo: "agency banking fee income"},
		},
	},
	TxTypePowerSale: {
		Type: TxTypePowerSale,
		Legs: []PostingLeg{
			{Role: RoleCash, Side: SideDebit, Component: ComponentAmount, DefaultCode: "1001", Memo: "cash received"},
			{Role: RolePowerFloat, Side: SideCredit, Component: ComponentAmount, DefaultCode: "1005", Memo: "power float consumed"},
			{Role: RoleCash, Side: SideDebit, Component: ComponentFee, DefaultCode: "1001", Memo: "fee collected"},
			{Role: RoleFeeIncome, Side: SideCredit, Component: ComponentFee, DefaultCode: "4003", Memo: "power sale fee income"},
		},
	},
	TxTypeJumiaPODCollection: {
		Type: TxTypeJumiaPODCollection,
		Legs: []PostingLeg{
			{Role: RoleCash, Side: SideDebit, Component: ComponentAmount, DefaultCode: "1001", Memo: "pay-on-delivery cash"},
			{Role: RoleJumiaPayable, Side: SideCredit, Component: ComponentAmount, DefaultCode: "2002", Memo: "owed to jumia"},
			{Role: RoleJumiaPayable, Side: SideDebit, Component: ComponentFee, DefaultCode: "2002", Memo: "collection fee withheld"},
			{Role: RoleFeeIncome, Side: SideCredit, Component: ComponentFee, DefaultCode: "4004", Memo: "jumia collection fee income"},
		},
	},
	TxTypeCommission: {
		Type: TxTypeCommission,
		Legs: []PostingLeg{
			{Role: RoleCommissionReceivable, Side: SideDebit, Component: ComponentAmount, DefaultCode: "1007", Memo: "commission earned"},
			{Role: RoleCommissionIncome, Side: SideCredit, Component: ComponentAmount, DefaultCode: "4005", Memo: "commission income"},
		},
	},
}

// PostingRuleFor returns the posting rule configured for the transaction type.
func PostingRuleFor(t TransactionType) (PostingRule, error) {
	rule, ok := postingRules[t]
	if !ok {
		return PostingRule{}, fmt.Errorf("%w: %s", ErrUnknownTransactionType, t)
	}
	return rule, nil
}

// PostingRuleTypes lists the transaction types that have a posting rule.
func PostingRuleTypes() []TransactionType {
	types := make([]TransactionType, 0, len(postingRules))
	for t := range postingRules {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// Codes returns the account codes the rule resolves to, after mappings.
func (r PostingRule) Codes(mappings map[AccountRole]string) []string {
	seen := make(map[string]bool)
	var codes []string
	for _, leg := range r.Legs {
		code := leg.code(mappings)
		if !seen[code] {
			seen[code] = true
			codes = append(codes, code)
		}
	}
	return codes
}

func (leg PostingLeg) code(mappings map[AccountRole]string) string {
	if c, ok := mappings[leg.Role]; ok && c != "" {
		return c
	}
	return leg.DefaultCode
}

// Lines expands the rule into journal lines keyed by account code.
// Legs whose component amount is zero are dropped.
func (r PostingRule) Lines(amount, fee decimal.Decimal, mappings map[AccountRole]string) []JournalLine {
	lines := make([]JournalLine, 0, len(r.Legs))
	for _, leg := range r.Legs {
		value := amount
		if leg.Component == ComponentFee {
			value = fee
		}
		value = RoundMinor(value)
		if value.IsZero() {
			continue
		}

		line := JournalLine{AccountCode: leg.code(mappings), Memo: leg.Memo, Debit: decimal.Zero, Credit: decimal.Zero}
		if leg.Side == SideDebit {
			line.Debit = value
		} else {
			line.Credit = value
		}
		lines = append(lines, line)
	}
	return lines
}

// RoundMinor rounds an amount to minor-unit precision.
func RoundMinor(d decimal.Decimal) decimal.Decimal {
	return d.Round(MinorUnitPlaces)
}
