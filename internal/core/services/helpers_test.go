package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/SscSPs/property_ledger/internal/adapters/database/memory"
	"github.com/SscSPs/property_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/property_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/property_ledger/internal/core/ports/services"
	"github.com/SscSPs/property_ledger/internal/core/services"
	"github.com/SscSPs/property_ledger/internal/platform/config"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fixture wires every service over fresh in-memory repositories.
type fixture struct {
	ledgerRepo  *memory.LedgerRepository
	obligations *memory.ObligationRepository
	lifecycles  *memory.LifecycleRepository
	svc         *portssvc.ServiceContainer
}

func testConfig() *config.Config {
	return &config.Config{
		AccrualConcurrency: 4,
		AccrualAnchorDay:   1,
		AbandonGracePeriod: 14 * 24 * time.Hour,
		BalanceEpsilon:     decimal.RequireFromString("0.01"),
	}
}

func newFixture(t *testing.T, obligations ...domain.Obligation) *fixture {
	t.Helper()
	f := &fixture{
		ledgerRepo:  memory.NewLedgerRepository(),
		obligations: memory.NewObligationRepository(obligations...),
		lifecycles:  memory.NewLifecycleRepository(),
	}
	f.svc = services.NewServiceContainer(testConfig(), portsrepo.RepositoryProvider{
		LedgerRepo:     f.ledgerRepo,
		ObligationRepo: f.obligations,
		LifecycleRepo:  f.lifecycles,
	}, zap.NewNop())
	return f
}

// allPosted returns every posted entry in ledger order.
func (f *fixture) allPosted(t *testing.T) []domain.LedgerEntry {
	t.Helper()
	entries, _, err := f.svc.Ledger.Query(context.Background(), domain.EntryFilter{}.PostedOnly())
	require.NoError(t, err)
	return entries
}

func (f *fixture) bySource(t *testing.T, source domain.EntrySource) []domain.LedgerEntry {
	t.Helper()
	entries, _, err := f.svc.Ledger.Query(context.Background(), domain.EntryFilter{Sources: []domain.EntrySource{source}}.PostedOnly())
	require.NoError(t, err)
	return entries
}

func (f *fixture) arBalance(t *testing.T, entityID, period string) decimal.Decimal {
	t.Helper()
	bal, err := f.svc.Ledger.EntityBalance(context.Background(), domain.CodeAccountsReceivable, entityID, domain.MustParsePeriod(period))
	require.NoError(t, err)
	return bal
}

func (f *fixture) balance(t *testing.T, code string) decimal.Decimal {
	t.Helper()
	bal, err := f.svc.Ledger.AccountBalance(context.Background(), code, date("2100-01-01"))
	require.NoError(t, err)
	return bal
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func date(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}

func lease(id, entityID, start, end, rent string) domain.Obligation {
	return domain.Obligation{
		ObligationID:   id,
		Kind:           domain.KindLease,
		EntityID:       entityID,
		EntityName:     "Tenant " + entityID,
		PropertyID:     "prop-1",
		StartDate:      date(start),
		PlannedEndDate: date(end),
		MonthlyRent:    d(rent),
		AdminFee:       decimal.Zero,
		Deposit:        decimal.Zero,
		MonthlyAmount:  decimal.Zero,
	}
}

// assertAllBalanced checks that every posted entry balances to the cent.
func assertAllBalanced(t *testing.T, entries []domain.LedgerEntry) {
	t.Helper()
	for _, e := range entries {
		require.Truef(t, e.TotalDebit().Equal(e.TotalCredit()), "entry %s (%s) is unbalanced: %s != %s",
			e.EntryID, e.Source, e.TotalDebit(), e.TotalCredit())
	}
}

func manualEntry(id string, on time.Time, lines ...domain.Line) domain.LedgerEntry {
	return domain.LedgerEntry{
		EntryID:     id,
		Date:        on,
		Source:      domain.SourceManual,
		Description: "manual " + id,
		Lines:       lines,
	}
}
