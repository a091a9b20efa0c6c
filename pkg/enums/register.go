package enums

import (
	"fmt"
	"strings"
)

// RegisterStatus is the drawer lifecycle state.
type RegisterStatus string

const (
	RegisterStatusClosed RegisterStatus = "closed"
	RegisterStatusOpen   RegisterStatus = "open"
)

func (s RegisterStatus) String() string {
	return string(s)
}

func (s RegisterStatus) IsValid() bool {
	return s == RegisterStatusClosed || s == RegisterStatusOpen
}

// RegisterTransactionType is the direction-carrying kind of a ledger entry.
// Amounts are always stored positive.
type RegisterTransactionType string

const (
	RegisterTransactionSale    RegisterTransactionType = "sale"
	RegisterTransactionRefund  RegisterTransactionType = "refund"
	RegisterTransactionExpense RegisterTransactionType = "expense"
	RegisterTransactionCashIn  RegisterTransactionType = "cash_in"
	RegisterTransactionCashOut RegisterTransactionType = "cash_out"
)

var validRegisterTransactionTypes = []RegisterTransactionType{
	RegisterTransactionSale,
	RegisterTransactionRefund,
	RegisterTransactionExpense,
	RegisterTransactionCashIn,
	RegisterTransactionCashOut,
}

func (t RegisterTransactionType) String() string {
	return string(t)
}

func (t RegisterTransactionType) IsValid() bool {
	for _, candidate := range validRegisterTransactionTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// IsInflow reports whether the entry adds cash to the drawer.
func (t RegisterTransactionType) IsInflow() bool {
	return t == RegisterTransactionSale || t == RegisterTransactionCashIn
}

func ParseRegisterTransactionType(value string) (RegisterTransactionType, error) {
	normalized := RegisterTransactionType(strings.ToLower(strings.TrimSpace(value)))
	if normalized.IsValid() {
		return normalized, nil
	}
	return "", fmt.Errorf("invalid register transaction type %q", value)
}

// TransactionOrigin records which operation appended a ledger entry.
type TransactionOrigin string

const (
	OriginRegisterOpen  TransactionOrigin = "register_open"
	OriginRegisterClose TransactionOrigin = "register_close"
	OriginSale          TransactionOrigin = "sale"
	OriginRefund        TransactionOrigin = "refund"
	OriginManual        TransactionOrigin = "manual"
	OriginCorrection    TransactionOrigin = "correction"
)

// IsBalanceEntry reports entries that record the drawer count itself rather
// than cash movement.
func (o TransactionOrigin) IsBalanceEntry() bool {
	return o == OriginRegisterOpen || o == OriginRegisterClose
}

// VarianceStatus classifies counted cash against the expected balance.
type VarianceStatus string

const (
	VarianceBalanced VarianceStatus = "balanced"
	VarianceOver     VarianceStatus = "over"
	VarianceShort    VarianceStatus = "short"
)
