package services

import (
	portsrepo "github.com/SscSPs/property_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/property_ledger/internal/core/ports/services"
	"github.com/SscSPs/property_ledger/internal/platform/config"
	"go.uber.org/zap"
)

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider, logger *zap.Logger) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	// Every writer of an entity's receivables plans under the same lock
	locks := NewEntityLocks()

	container.Chart = NewChartService()
	container.Ledger = NewLedgerService(repos.LedgerRepo, container.Chart, WithLedgerLogger(logger))

	container.Accrual = NewAccrualService(
		container.Ledger,
		repos.ObligationRepo,
		repos.LifecycleRepo,
		WithAnchorDay(cfg.AccrualAnchorDay),
		WithAccrualConcurrency(cfg.AccrualConcurrency),
		WithAccrualLocks(locks),
		WithAccrualLogger(logger),
	)

	container.Allocation = NewAllocationService(
		container.Ledger,
		container.Chart,
		repos.ObligationRepo,
		WithAllocationLocks(locks),
		WithAllocationLogger(logger),
	)

	container.Correction = NewCorrectionService(
		container.Ledger,
		repos.ObligationRepo,
		repos.LifecycleRepo,
		WithAbandonGracePeriod(cfg.AbandonGracePeriod),
		WithSweepConcurrency(cfg.AccrualConcurrency),
		WithCorrectionLocks(locks),
		WithCorrectionLogger(logger),
	)

	container.Reporting = NewReportingService(
		container.Ledger,
		container.Chart,
		repos.ObligationRepo,
		WithBalanceEpsilon(cfg.BalanceEpsilon),
		WithReportingLogger(logger),
	)

	return container
}

// Helper to check interface implementations at compile time
var (
	_ portssvc.ChartSvc         = (*chartService)(nil)
	_ portssvc.LedgerSvcFacade  = (*ledgerService)(nil)
	_ portssvc.AccrualSvc       = (*accrualService)(nil)
	_ portssvc.AllocationSvc    = (*allocationService)(nil)
	_ portssvc.CorrectionSvc    = (*correctionService)(nil)
	_ portssvc.ReportingService = (*reportingService)(nil)
)
