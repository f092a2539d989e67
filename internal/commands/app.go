// Package commands holds the ledgerctl command tree.
package commands

import (
	"context"
	"fmt"

	"github.com/SscSPs/property_ledger/internal/adapters/database/memory"
	"github.com/SscSPs/property_ledger/internal/adapters/database/pgsql"
	portsrepo "github.com/SscSPs/property_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/property_ledger/internal/core/ports/services"
	"github.com/SscSPs/property_ledger/internal/core/services"
	"github.com/SscSPs/property_ledger/internal/jobs"
	"github.com/SscSPs/property_ledger/internal/platform/config"
	"github.com/SscSPs/property_ledger/pkg/database"
	"go.uber.org/zap"
)

// App is everything a command needs: configuration, repositories, services and the job runner.
type App struct {
	Config   *config.Config
	Logger   *zap.Logger
	Repos    portsrepo.RepositoryProvider
	Services *portssvc.ServiceContainer
	Runner   *jobs.Runner

	closers []func()
}

// AppFactory builds the App a command runs against.
type AppFactory func(ctx context.Context) (*App, error)

// Close releases the pool and lock client, if any.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// NewApp wires the application from cfg. Without PGSQL_URL the ledger lives in memory for
// the duration of the process; without REDIS_URL run-locks are in-process.
func NewApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	app := &App{Config: cfg, Logger: logger}

	if cfg.DatabaseURL == "" {
		logger.Warn("PGSQL_URL not set, using in-memory repositories")
		app.Repos = memory.NewRepositoryProvider()
	} else {
		pool, err := database.NewPgxPool(ctx, cfg.DatabaseURL, cfg.EnableDBCheck, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database pool: %w", err)
		}
		app.closers = append(app.closers, func() { database.ClosePgxPool(pool, logger) })
		app.Repos = pgsql.NewRepositoryProvider(pool)
	}

	var locker jobs.Locker = jobs.NewMemoryLocker()
	if cfg.RedisURL != "" {
		redisLocker, err := jobs.NewRedisLocker(ctx, cfg.RedisURL)
		if err != nil {
			app.Close()
			return nil, err
		}
		app.closers = append(app.closers, func() {
			if err := redisLocker.Close(); err != nil {
				logger.Error("Failed to close redis client", zap.Error(err))
			}
		})
		locker = redisLocker
	}

	app.Services = services.NewServiceContainer(cfg, app.Repos, logger)
	app.Runner = jobs.NewRunner(app.Services.Accrual, app.Services.Correction, locker, cfg.RunLockTTL, logger)
	return app, nil
}
