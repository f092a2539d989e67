package services

import (
	"context"
	"slices"
	"sort"

	"github.com/SscSPs/property_ledger/internal/core/domain"
	portssvc "github.com/SscSPs/property_ledger/internal/core/ports/services"
	"github.com/shopspring/decimal"
)

type viewKey struct {
	period    domain.Period
	component domain.Component
}

// entityView is the receivable position of one entity rebuilt from its posted entries.
// Planning code mutates it in place so allocations within one call see each other.
type entityView struct {
	entityID string
	items    map[viewKey]*domain.OutstandingItem
	advances []*domain.AdvanceBalance

	// arCredits sums the receivable credits of payment entries per payment type.
	arCredits    map[domain.Component]decimal.Decimal
	forfeitedAR  decimal.Decimal
	forfeitedAdv decimal.Decimal
}

func loadEntityView(ctx context.Context, ledger portssvc.LedgerReaderSvc, entityID string) (*entityView, error) {
	entries, _, err := ledger.Query(ctx, domain.EntryFilter{EntityID: entityID}.PostedOnly())
	if err != nil {
		return nil, err
	}
	return buildEntityView(entityID, entries), nil
}

func buildEntityView(entityID string, entries []domain.LedgerEntry) *entityView {
	v := &entityView{
		entityID:  entityID,
		items:     make(map[viewKey]*domain.OutstandingItem),
		arCredits: make(map[domain.Component]decimal.Decimal),
	}
	ar := domain.Subledger(domain.CodeAccountsReceivable, entityID).Code()
	adv := domain.Subledger(domain.CodeAdvancePayments, entityID).Code()

	applied := make(map[string]decimal.Decimal)
	for _, e := range entries {
		m := e.Metadata
		switch {
		case e.Source == domain.SourceRentalAccrual && m.Accrual != nil:
			if net := e.NetFor(ar); !net.IsZero() {
				it := v.item(m.MonthKey, m.Accrual.Component)
				it.Accrued = it.Accrued.Add(net)
			}
		case e.Source == domain.SourceAccrualReversal && m.Reversal != nil:
			if net := e.NetFor(ar); !net.IsZero() {
				it := v.item(m.MonthKey, m.Reversal.Component)
				it.Reversed = it.Reversed.Sub(net)
			}
		case e.Source == domain.SourcePayment && m.Payment != nil:
			p := m.Payment
			if credit := e.NetFor(ar).Neg(); !credit.IsZero() {
				v.arCredits[p.PaymentType] = v.arCredits[p.PaymentType].Add(credit)
				if p.AllocationType == domain.AllocationSettlement {
					it := v.item(p.MonthSettled, p.PaymentType)
					it.Settled = it.Settled.Add(credit)
				}
			}
			if p.AllocationType == domain.AllocationAdvance {
				if credit := e.NetFor(adv).Neg(); credit.IsPositive() {
					v.advances = append(v.advances, &domain.AdvanceBalance{
						EntryID:      e.EntryID,
						PaymentID:    p.PaymentID,
						Component:    p.PaymentType,
						MonthSettled: p.MonthSettled,
						Amount:       credit,
						Remaining:    credit,
					})
				}
			}
			if p.AdvanceEntryID != "" {
				applied[p.AdvanceEntryID] = applied[p.AdvanceEntryID].Add(e.NetFor(adv))
			}
		case e.Source == domain.SourcePaymentForfeiture:
			v.forfeitedAR = v.forfeitedAR.Add(e.NetFor(ar))
			v.forfeitedAdv = v.forfeitedAdv.Add(e.NetFor(adv))
		}
	}

	forfeited := v.forfeitedAdv
	for _, a := range v.advances {
		a.Remaining = a.Amount.Sub(applied[a.EntryID])
		if forfeited.IsPositive() && a.Remaining.IsPositive() {
			take := decimal.Min(forfeited, a.Remaining)
			a.Remaining = a.Remaining.Sub(take)
			forfeited = forfeited.Sub(take)
		}
	}
	return v
}

func (v *entityView) item(p domain.Period, c domain.Component) *domain.OutstandingItem {
	k := viewKey{period: p, component: c}
	it, ok := v.items[k]
	if !ok {
		it = &domain.OutstandingItem{
			Period:    p,
			Component: c,
			Accrued:   decimal.Zero,
			Reversed:  decimal.Zero,
			Settled:   decimal.Zero,
		}
		v.items[k] = it
	}
	return it
}

func liveAccrual(it *domain.OutstandingItem) decimal.Decimal {
	return it.Accrued.Sub(it.Reversed)
}

func outstandingOf(it *domain.OutstandingItem) decimal.Decimal {
	return liveAccrual(it).Sub(it.Settled)
}

// sortedItems returns the items of component c (every component when c is empty), oldest first.
func (v *entityView) sortedItems(c domain.Component) []*domain.OutstandingItem {
	out := make([]*domain.OutstandingItem, 0, len(v.items))
	for _, it := range v.items {
		if c == "" || it.Component == c {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Period != out[j].Period {
			return out[i].Period.Before(out[j].Period)
		}
		return componentRank(out[i].Component) < componentRank(out[j].Component)
	})
	return out
}

func componentRank(c domain.Component) int {
	if i := slices.Index(domain.TenantComponents, c); i >= 0 {
		return i
	}
	return len(domain.TenantComponents)
}

// openItems returns the items of c still owed, oldest first.
func (v *entityView) openItems(c domain.Component) []*domain.OutstandingItem {
	var out []*domain.OutstandingItem
	for _, it := range v.sortedItems(c) {
		if outstandingOf(it).IsPositive() {
			out = append(out, it)
		}
	}
	return out
}

func (v *entityView) outstanding(p domain.Period, c domain.Component) decimal.Decimal {
	it, ok := v.items[viewKey{period: p, component: c}]
	if !ok {
		return decimal.Zero
	}
	return outstandingOf(it)
}

// settle records amount as settled against (p, c).
func (v *entityView) settle(p domain.Period, c domain.Component, amount decimal.Decimal) {
	it := v.item(p, c)
	it.Settled = it.Settled.Add(amount)
}

// lastAccrued returns the latest period with a live accrual of c.
func (v *entityView) lastAccrued(c domain.Component) (domain.Period, bool) {
	var last domain.Period
	found := false
	for _, it := range v.sortedItems(c) {
		if liveAccrual(it).IsPositive() {
			last, found = it.Period, true
		}
	}
	return last, found
}

// firstAccrued returns the earliest period with a live accrual of c.
func (v *entityView) firstAccrued(c domain.Component) (domain.Period, bool) {
	for _, it := range v.sortedItems(c) {
		if liveAccrual(it).IsPositive() {
			return it.Period, true
		}
	}
	return domain.Period{}, false
}

// openAdvances returns the unapplied advances of c targeted at or before through, oldest first.
func (v *entityView) openAdvances(c domain.Component, through domain.Period) []*domain.AdvanceBalance {
	var out []*domain.AdvanceBalance
	for _, a := range v.advances {
		if a.Component == c && a.Remaining.IsPositive() && !a.MonthSettled.After(through) {
			out = append(out, a)
		}
	}
	return out
}

// advanceRemaining sums the unapplied advances per component.
func (v *entityView) advanceRemaining() map[domain.Component]decimal.Decimal {
	out := make(map[domain.Component]decimal.Decimal)
	for _, a := range v.advances {
		if a.Remaining.IsPositive() {
			out[a.Component] = out[a.Component].Add(a.Remaining)
		}
	}
	return out
}

// snapshot renders the view for callers.
func (v *entityView) snapshot() domain.OutstandingView {
	out := domain.OutstandingView{
		EntityID: v.entityID,
		Items:    make([]domain.OutstandingItem, 0, len(v.items)),
		Advances: make([]domain.AdvanceBalance, 0),
	}
	for _, it := range v.sortedItems("") {
		item := *it
		item.Outstanding = outstandingOf(it)
		out.Items = append(out.Items, item)
	}
	for _, a := range v.advances {
		if a.Remaining.IsPositive() {
			out.Advances = append(out.Advances, *a)
		}
	}
	return out
}
