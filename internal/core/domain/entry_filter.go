package domain

import (
	"slices"
	"time"
)

// EntryFilter selects ledger entries. Zero-valued fields do not constrain the result.
type EntryFilter struct {
	From          time.Time // inclusive
	To            time.Time // inclusive
	Sources       []EntrySource
	Statuses      []EntryStatus
	AccountPrefix string // the code itself or any code nested under it, whole segments only
	EntityID      string
	MonthKey      Period
	MonthSettled  Period
	ObligationID  string
	PropertyID    string
	ReversalOf    string
	PaymentID     string

	Limit     int
	NextToken *string
}

// PostedOnly returns a copy of f restricted to posted entries.
func (f EntryFilter) PostedOnly() EntryFilter {
	f.Statuses = []EntryStatus{Posted}
	return f
}

// Matches reports whether e satisfies every criterion of f. Pagination is not applied.
func (f EntryFilter) Matches(e LedgerEntry) bool {
	if !f.From.IsZero() && e.Date.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && e.Date.After(f.To) {
		return false
	}
	if len(f.Sources) > 0 && !slices.Contains(f.Sources, e.Source) {
		return false
	}
	if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, e.Status) {
		return false
	}
	if f.AccountPrefix != "" && !slices.ContainsFunc(e.Lines, func(l Line) bool {
		return HasRoot(l.AccountCode, f.AccountPrefix)
	}) {
		return false
	}
	m := e.Metadata
	if f.EntityID != "" && m.EntityID != f.EntityID {
		return false
	}
	if !f.MonthKey.IsZero() && m.MonthKey != f.MonthKey {
		return false
	}
	if !f.MonthSettled.IsZero() && (m.Payment == nil || m.Payment.MonthSettled != f.MonthSettled) {
		return false
	}
	if f.ObligationID != "" && m.ObligationID != f.ObligationID {
		return false
	}
	if f.PropertyID != "" && m.PropertyID != f.PropertyID {
		return false
	}
	if f.ReversalOf != "" && e.ReversalOf() != f.ReversalOf {
		return false
	}
	if f.PaymentID != "" && (m.Payment == nil || m.Payment.PaymentID != f.PaymentID) {
		return false
	}
	return true
}

// EntryOrderLess orders entries by date, then posting time, then id.
func EntryOrderLess(a, b LedgerEntry) bool {
	if !a.Date.Equal(b.Date) {
		return a.Date.Before(b.Date)
	}
	if !a.PostedAt.Equal(b.PostedAt) {
		return a.PostedAt.Before(b.PostedAt)
	}
	return a.EntryID < b.EntryID
}
