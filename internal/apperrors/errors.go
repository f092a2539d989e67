package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrConflict indicates a concurrent modification lost a compare-and-set race.
var ErrConflict = errors.New("concurrent modification")

// ErrUnbalanced indicates an entry whose debits and credits differ. Nothing is persisted.
var ErrUnbalanced = errors.New("entry is unbalanced")

// ErrInvalidAccount indicates a malformed account code or a line that disagrees with the chart.
var ErrInvalidAccount = errors.New("invalid account")

// ErrUnknownRoot indicates an account code whose root is not in the chart of accounts.
var ErrUnknownRoot = errors.New("unknown root account")

// ErrOverAllocation indicates payment components that sum to more than the gross amount.
var ErrOverAllocation = errors.New("payment components exceed gross amount")

// ErrBalanceMismatch indicates a report whose accounting equation does not hold.
var ErrBalanceMismatch = errors.New("balance mismatch")

// ErrDuplicateRun indicates an accrual or correction that already happened. Callers treat
// it as a successful no-op.
var ErrDuplicateRun = errors.New("duplicate run")

// ErrInvalidTransition indicates a lifecycle event not allowed from the current state.
var ErrInvalidTransition = errors.New("invalid lifecycle transition")

// ErrJobRunning indicates that a job's run-lock is held by another run.
var ErrJobRunning = errors.New("job already running")

// AppError wraps an infrastructure failure with a status-like code.
type AppError struct {
	Code    int
	Message string
	Err     error
}

// NewAppError creates an AppError.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

var kinds = []struct {
	err  error
	name string
}{
	{ErrUnbalanced, "Unbalanced"},
	{ErrInvalidAccount, "InvalidAccount"},
	{ErrUnknownRoot, "UnknownRoot"},
	{ErrOverAllocation, "OverAllocation"},
	{ErrBalanceMismatch, "BalanceMismatch"},
	{ErrDuplicateRun, "DuplicateRun"},
	{ErrInvalidTransition, "InvalidTransition"},
	{ErrJobRunning, "JobRunning"},
	{ErrConflict, "Conflict"},
	{ErrDuplicate, "Duplicate"},
	{ErrNotFound, "NotFound"},
	{ErrValidation, "Validation"},
}

// Kind names the error kind of err for batch result reporting. Unclassified errors are
// reported as "Internal"; nil yields "".
func Kind(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.name
		}
	}
	return "Internal"
}
