package domain

import (
	"fmt"
	"strings"
)

// AccountType defines the fundamental accounting type of an account.
type AccountType string

const (
	Asset     AccountType = "ASSET"
	Liability AccountType = "LIABILITY"
	Equity    AccountType = "EQUITY"
	Income    AccountType = "INCOME"
	Expense   AccountType = "EXPENSE"
)

// IsValid reports whether t is one of the five account types.
func (t AccountType) IsValid() bool {
	switch t {
	case Asset, Liability, Equity, Income, Expense:
		return true
	}
	return false
}

// IsDebitNormal reports whether a debit increases an account of this type.
func (t AccountType) IsDebitNormal() bool {
	return t == Asset || t == Expense
}

// Root account codes. These are fixed and versioned with the system; new roots are added
// through a migration of DefaultChart, never at runtime.
const (
	CodeCash               = "1000"
	CodeAccountsReceivable = "1100"
	CodeAccountsPayable    = "2000"
	CodeDepositsLiability  = "2020"
	CodeAdvancePayments    = "2030"
	CodeOwnerEquity        = "3000"
	CodeRentalIncome       = "4001"
	CodeAdminFeeIncome     = "4002"
	CodeForfeitedIncome    = "4003"
	CodeMaintenance        = "5001"
	CodeUtilities          = "5002"
	CodeCleaning           = "5003"
	CodeManagementFees     = "5004"
	CodeOtherExpenses      = "5099"
)

// Account represents a ledger account, either a root of the chart or a per-entity
// sub-ledger synthesized from a root.
type Account struct {
	Code     string      `json:"code"`
	Name     string      `json:"name"`
	Type     AccountType `json:"type"`
	RootCode string      `json:"rootCode"`
	EntityID string      `json:"entityID,omitempty"` // empty for root accounts
}

// IsSubledger reports whether the account is a per-entity partition of a root.
func (a Account) IsSubledger() bool {
	return a.EntityID != ""
}

// SubledgerKey identifies a per-entity partition of a root account.
type SubledgerKey struct {
	RootCode string
	EntityID string
}

// Subledger builds the key for entityID under rootCode.
func Subledger(rootCode, entityID string) SubledgerKey {
	return SubledgerKey{RootCode: rootCode, EntityID: entityID}
}

// Code returns the composite account code, "<root>-<entity>", or the bare root when the
// key has no entity.
func (k SubledgerKey) Code() string {
	if k.EntityID == "" {
		return k.RootCode
	}
	return k.RootCode + "-" + k.EntityID
}

func (k SubledgerKey) String() string {
	return k.Code()
}

// ParseAccountCode splits a code into its root and optional entity part.
// "1100-tenant42" -> {1100, tenant42}; "1000" -> {1000, ""}.
func ParseAccountCode(code string) (SubledgerKey, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return SubledgerKey{}, fmt.Errorf("empty account code")
	}
	root, entity, found := strings.Cut(code, "-")
	if root == "" {
		return SubledgerKey{}, fmt.Errorf("account code %q has no root", code)
	}
	if found && entity == "" {
		return SubledgerKey{}, fmt.Errorf("account code %q has an empty entity part", code)
	}
	return SubledgerKey{RootCode: root, EntityID: entity}, nil
}

// HasRoot reports whether code belongs to rootCode, either as the root itself or as one of
// its sub-ledgers.
func HasRoot(code, rootCode string) bool {
	return code == rootCode || strings.HasPrefix(code, rootCode+"-")
}
