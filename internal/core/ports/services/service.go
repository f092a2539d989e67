package services

// ServiceContainer holds instances of all the application services.
// This is the main entry point for accessing service functionality and
// is used by the CLI commands and the job runner.
type ServiceContainer struct {
	Chart      ChartSvc
	Ledger     LedgerSvcFacade
	Accrual    AccrualSvc
	Allocation AllocationSvc
	Correction CorrectionSvc
	Reporting  ReportingService
}
