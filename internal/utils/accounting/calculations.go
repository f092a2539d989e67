package accounting

import (
	"fmt"

	"github.com/SscSPs/property_ledger/internal/apperrors"
	"github.com/SscSPs/property_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// NormalBalance converts a raw debit-minus-credit net into the account type's normal side.
// DEBIT to ASSET/EXPENSE -> positive, CREDIT to LIABILITY/EQUITY/INCOME -> positive.
func NormalBalance(accountType domain.AccountType, net decimal.Decimal) decimal.Decimal {
	if accountType.IsDebitNormal() {
		return net
	}
	return net.Neg()
}

// SignedAmount returns the line's effect on its account's normal-side balance.
func SignedAmount(line domain.Line, accountType domain.AccountType) decimal.Decimal {
	return NormalBalance(accountType, line.Net())
}

// HasCents reports whether d has at most two decimal places.
func HasCents(d decimal.Decimal) bool {
	scaled := d.Mul(hundred)
	return scaled.Equal(scaled.Floor())
}

// ValidateLines checks the structural invariants of an entry's lines: at least two lines,
// exactly one nonzero side per line, no negative amounts, whole cents, and debits equal to
// credits. Account resolution is the chart's concern.
func ValidateLines(lines []domain.Line) error {
	if len(lines) < 2 {
		return fmt.Errorf("%w: entry must have at least two lines", apperrors.ErrValidation)
	}

	totalDebit := decimal.Zero
	totalCredit := decimal.Zero
	for i, line := range lines {
		if line.Debit.IsNegative() || line.Credit.IsNegative() {
			return fmt.Errorf("%w: line %d (%s) has a negative amount", apperrors.ErrValidation, i, line.AccountCode)
		}
		hasDebit := !line.Debit.IsZero()
		hasCredit := !line.Credit.IsZero()
		if hasDebit == hasCredit {
			return fmt.Errorf("%w: line %d (%s) must have exactly one of debit or credit", apperrors.ErrValidation, i, line.AccountCode)
		}
		if !HasCents(line.Debit) || !HasCents(line.Credit) {
			return fmt.Errorf("%w: line %d (%s) has more than 2 decimal places", apperrors.ErrValidation, i, line.AccountCode)
		}
		totalDebit = totalDebit.Add(line.Debit)
		totalCredit = totalCredit.Add(line.Credit)
	}

	if !totalDebit.Equal(totalCredit) {
		return fmt.Errorf("%w: debits (%s) != credits (%s)", apperrors.ErrUnbalanced, totalDebit.StringFixed(2), totalCredit.StringFixed(2))
	}
	return nil
}

// Balances sums the normal-side balance per account code across entries, using types to
// resolve each code's account type. Lines whose code is missing from types are skipped.
func Balances(entries []domain.LedgerEntry, types func(code string) (domain.AccountType, bool)) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal)
	for _, e := range entries {
		for _, l := range e.Lines {
			t := l.AccountType
			if t == "" {
				var ok bool
				if t, ok = types(l.AccountCode); !ok {
					continue
				}
			}
			out[l.AccountCode] = out[l.AccountCode].Add(SignedAmount(l, t))
		}
	}
	return out
}
