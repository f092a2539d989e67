package domain

// DefaultChart returns the root accounts of the property ledger. Roots are versioned with the
// code; adding one is a code change, never a runtime write.
func DefaultChart() []Account {
	return []Account{
		root(CodeCash, "Cash", Asset),
		root(CodeAccountsReceivable, "Accounts Receivable", Asset),
		root(CodeAccountsPayable, "Accounts Payable", Liability),
		root(CodeDepositsLiability, "Deposits Liability", Liability),
		root(CodeAdvancePayments, "Advance Payments", Liability),
		root(CodeOwnerEquity, "Owner Equity", Equity),
		root(CodeRentalIncome, "Rental Income", Income),
		root(CodeAdminFeeIncome, "Admin Fee Income", Income),
		root(CodeForfeitedIncome, "Forfeited Income", Income),
		root(CodeMaintenance, "Maintenance", Expense),
		root(CodeUtilities, "Utilities", Expense),
		root(CodeCleaning, "Cleaning", Expense),
		root(CodeManagementFees, "Management Fees", Expense),
		root(CodeOtherExpenses, "Other Expenses", Expense),
	}
}

func root(code, name string, t AccountType) Account {
	return Account{Code: code, Name: name, Type: t, RootCode: code}
}

// IncomeAccountFor returns the income root a tenant component is recognized in. Deposits are
// not income: they are held in the entity's deposit liability.
func IncomeAccountFor(c Component) (string, bool) {
	switch c {
	case ComponentRent:
		return CodeRentalIncome, true
	case ComponentAdmin:
		return CodeAdminFeeIncome, true
	}
	return "", false
}

// CreditTargetFor returns the account credited when component c of entityID accrues.
func CreditTargetFor(c Component, entityID string) string {
	if code, ok := IncomeAccountFor(c); ok {
		return code
	}
	return Subledger(CodeDepositsLiability, entityID).Code()
}
