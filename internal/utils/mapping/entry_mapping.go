package mapping

import (
	"encoding/json"
	"fmt"

	"github.com/SscSPs/property_ledger/internal/core/domain"
	"github.com/SscSPs/property_ledger/internal/models"
)

// ToModelEntry converts a domain LedgerEntry to its row and line rows
func ToModelEntry(d domain.LedgerEntry) (models.LedgerEntry, []models.LedgerLine, error) {
	metadata, err := json.Marshal(d.Metadata)
	if err != nil {
		return models.LedgerEntry{}, nil, fmt.Errorf("failed to encode metadata of %s: %w", d.EntryID, err)
	}

	m := models.LedgerEntry{
		EntryID:      d.EntryID,
		EntryDate:    d.Date,
		PostedAt:     d.PostedAt,
		Source:       string(d.Source),
		Status:       string(d.Status),
		Description:  d.Description,
		EntityID:     optional(d.Metadata.EntityID),
		PropertyID:   optional(d.Metadata.PropertyID),
		ObligationID: optional(d.Metadata.ObligationID),
		MonthKey:     optional(d.Metadata.MonthKey.String()),
		ReversalOf:   optional(d.ReversalOf()),
		ReversedBy:   optional(d.ReversedBy),
		VoidReason:   optional(d.VoidReason),
		VoidedAt:     d.VoidedAt,
		Metadata:     metadata,
		AuditFields:  ToModelAuditFields(d.AuditFields),
	}
	if p := d.Metadata.Payment; p != nil {
		m.MonthSettled = optional(p.MonthSettled.String())
		m.PaymentID = optional(p.PaymentID)
	}

	lines := make([]models.LedgerLine, len(d.Lines))
	for i, l := range d.Lines {
		lines[i] = models.LedgerLine{
			EntryID:     d.EntryID,
			LineNo:      i + 1,
			AccountCode: l.AccountCode,
			AccountType: string(l.AccountType),
			Debit:       l.Debit,
			Credit:      l.Credit,
			Description: l.Description,
		}
	}
	return m, lines, nil
}

// ToDomainEntry rebuilds a domain LedgerEntry from its row and its lines in line order
func ToDomainEntry(m models.LedgerEntry, lines []models.LedgerLine) (domain.LedgerEntry, error) {
	var metadata domain.EntryMetadata
	if len(m.Metadata) > 0 {
		if err := json.Unmarshal(m.Metadata, &metadata); err != nil {
			return domain.LedgerEntry{}, fmt.Errorf("failed to decode metadata of %s: %w", m.EntryID, err)
		}
	}

	d := domain.LedgerEntry{
		EntryID:     m.EntryID,
		Date:        m.EntryDate,
		PostedAt:    m.PostedAt,
		Source:      domain.EntrySource(m.Source),
		Status:      domain.EntryStatus(m.Status),
		Description: m.Description,
		Lines:       make([]domain.Line, len(lines)),
		Metadata:    metadata,
		ReversedBy:  deref(m.ReversedBy),
		VoidReason:  deref(m.VoidReason),
		VoidedAt:    m.VoidedAt,
		AuditFields: ToDomainAuditFields(m.AuditFields),
	}
	for i, l := range lines {
		d.Lines[i] = domain.Line{
			AccountCode: l.AccountCode,
			AccountType: domain.AccountType(l.AccountType),
			Debit:       l.Debit,
			Credit:      l.Credit,
			Description: l.Description,
		}
	}
	return d, nil
}
