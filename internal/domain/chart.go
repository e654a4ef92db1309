package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrInvalidAccountCode is returned for codes that cannot be stored in the chart.
var ErrInvalidAccountCode = errors.New("invalid account code")

// ChartEntry describes a default GL account provisioned on demand.
type ChartEntry struct {
	Code       string
	Name       string
	Type       AccountType
	ParentCode string
}

// Default chart. Header accounts (x000) form the roots of the tree.
var defaultChart = []ChartEntry{
	{Code: "1000", Name: "Assets", Type: AccountTypeAsset},
	{Code: "1001", Name: "Cash on Hand", Type: AccountTypeAsset, ParentCode: "1000"},
	{Code: "1002", Name: "Bank Account", Type: AccountTypeAsset, ParentCode: "1000"},
	{Code: "1003", Name: "MoMo Float", Type: AccountTypeAsset, ParentCode: "1000"},
	{Code: "1004", Name: "Agency Banking Float", Type: AccountTypeAsset, ParentCode: "1000"},
	{Code: "1005", Name: "Power Float", Type: AccountTypeAsset, ParentCode: "1000"},
	{Code: "1006", Name: "E-Zwich Float", Type: AccountTypeAsset, ParentCode: "1000"},
	{Code: "1007", Name: "Commission Receivable", Type: AccountTypeAsset, ParentCode: "1000"},
	{Code: "2000", Name: "Liabilities", Type: AccountTypeLiability},
	{Code: "2001", Name: "Customer Deposits", Type: AccountTypeLiability, ParentCode: "2000"},
	{Code: "2002", Name: "Jumia Payable", Type: AccountTypeLiability, ParentCode: "2000"},
	{Code: "2999", Name: "Float Reconciliation Clearing", Type: AccountTypeLiability, ParentCode: "2000"},
	{Code: "3000", Name: "Equity", Type: AccountTypeEquity},
	{Code: "3001", Name: "Owner's Capital", Type: AccountTypeEquity, ParentCode: "3000"},
	{Code: "3002", Name: "Retained Earnings", Type: AccountTypeEquity, ParentCode: "3000"},
	{Code: "4000", Name: "Revenue", Type: AccountTypeRevenue},
	{Code: "4001", Name: "MoMo Fee Income", Type: AccountTypeRevenue, ParentCode: "4000"},
	{Code: "4002", Name: "Agency Banking Fee Income", Type: AccountTypeRevenue, ParentCode: "4000"},
	{Code: "4003", Name: "Power Sale Fee Income", Type: AccountTypeRevenue, ParentCode: "4000"},
	{Code: "4004", Name: "Jumia Collection Fee Income", Type: AccountTypeRevenue, ParentCode: "4000"},
	{Code: "4005", Name: "Commission Income", Type: AccountTypeRevenue, ParentCode: "4000"},
	{Code: "5000", Name: "Expenses", Type: AccountTypeExpense},
	{Code: "5001", Name: "Operating Expenses", Type: AccountTypeExpense, ParentCode: "5000"},
}

var chartByCode = func() map[string]ChartEntry {
	m := make(map[string]ChartEntry, len(defaultChart))
	for _, e := range defaultChart {
		m[e.Code] = e
	}
	return m
}()

var accountCodeRegex = regexp.MustCompile(`^[A-Za-z0-9-]{1,20}$`)

// ValidateAccountCode checks the code format.
func ValidateAccountCode(code string) error {
	if !accountCodeRegex.MatchString(code) {
		return fmt.Errorf("%w: %q", ErrInvalidAccountCode, code)
	}
	return nil
}

// DefaultChartEntry returns the default definition for a code. Codes outside
// the built-in chart get a generic name and a type inferred from the leading digit.
func DefaultChartEntry(code string) ChartEntry {
	if e, ok := chartByCode[code]; ok {
		return e
	}
	return ChartEntry{
		Code: code,
		Name: "GL Account " + code,
		Type: AccountTypeFromCode(code),
	}
}

// AccountTypeFromCode infers the account type from the first digit of the code.
func AccountTypeFromCode(code string) AccountType {
	switch {
	case strings.HasPrefix(code, "1"):
		return AccountTypeAsset
	case strings.HasPrefix(code, "2"):
		return AccountTypeLiability
	case strings.HasPrefix(code, "3"):
		return AccountTypeEquity
	case strings.HasPrefix(code, "4"):
		return AccountTypeRevenue
	default:
		return AccountTypeExpense
	}
}

// DefaultChartCodes returns every code in the built-in chart, parents first.
func DefaultChartCodes() []string {
	codes := make([]string, 0, len(defaultChart))
	for _, e := range defaultChart {
		codes = append(codes, e.Code)
	}
	return codes
}

// FloatProvider identifies the external service a float account belongs to.
type FloatProvider string

const (
	FloatProviderMomo          FloatProvider = "momo"
	FloatProviderAgencyBanking FloatProvider = "agency_banking"
	FloatProviderPower         FloatProvider = "power"
	FloatProviderJumia         FloatProvider = "jumia"
	FloatProviderCash          FloatProvider = "cash"
)

var floatControlCodes = map[FloatProvider]string{
	FloatProviderMomo:          "1003",
	FloatProviderAgencyBanking: "1004",
	FloatProviderPower:         "1005",
	FloatProviderJumia:         "2002",
	FloatProviderCash:          "1001",
}

// ControlCode returns the default GL control account for the provider.
func (p FloatProvider) ControlCode() (string, bool) {
	code, ok := floatControlCodes[p]
	return code, ok
}

// IsValid checks if the provider is known.
func (p FloatProvider) IsValid() bool {
	_, ok := floatControlCodes[p]
	return ok
}
