package services

import (
	"strconv"
	"strings"

	"github.com/SscSPs/property_ledger/internal/core/domain"
	"github.com/google/uuid"
)

// entryNamespace scopes the name-based ids of generated entries.
var entryNamespace = uuid.MustParse("6f1c3b8e-2a49-4d0b-9e57-3c4f1a2b7d90")

// deterministicID derives a stable entry id from its natural key, so a retried write
// produces the same id and the ledger treats it as a no-op.
func deterministicID(parts ...string) string {
	return uuid.NewSHA1(entryNamespace, []byte(strings.Join(parts, "|"))).String()
}

func accrualEntryID(obligationID string, period domain.Period, c domain.Component) string {
	return deterministicID("accrual", obligationID, period.String(), string(c))
}

func reversalEntryID(originalID string) string {
	return deterministicID("reversal", originalID)
}

func paymentEntryID(paymentID string, index int, c domain.Component, period domain.Period, t domain.AllocationType) string {
	return deterministicID("payment", paymentID, strconv.Itoa(index), string(c), period.String(), string(t))
}

func applicationEntryID(advanceEntryID string, period domain.Period) string {
	return deterministicID("application", advanceEntryID, period.String())
}

func forfeitureEntryID(obligationID string) string {
	return deterministicID("forfeiture", obligationID)
}

func expensePaymentEntryID(paymentID string) string {
	return deterministicID("expense_payment", paymentID)
}
