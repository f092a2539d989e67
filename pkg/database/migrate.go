package database

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"

	migrate "github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
)

// MigrationResult describes the schema after RunMigrations.
type MigrationResult struct {
	Version uint `json:"version"`
	Applied bool `json:"applied"`
}

// RunMigrations applies every pending up migration found at the root of migrations.
func RunMigrations(databaseURL string, migrations fs.FS, logger *zap.Logger) (MigrationResult, error) {
	// A plain sql.DB on the pgx stdlib driver, separate from the application pool.
	migrationDB, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return MigrationResult{}, fmt.Errorf("failed to open database connection for migrations: %w", err)
	}
	defer func() {
		if cerr := migrationDB.Close(); cerr != nil {
			logger.Error("Error closing migration DB connection", zap.Error(cerr))
		}
	}()
	if err := migrationDB.Ping(); err != nil {
		return MigrationResult{}, fmt.Errorf("failed to ping database for migrations: %w", err)
	}

	driver, err := postgres.WithInstance(migrationDB, &postgres.Config{})
	if err != nil {
		return MigrationResult{}, fmt.Errorf("could not create postgres driver instance for migrations: %w", err)
	}
	source, err := iofs.New(migrations, ".")
	if err != nil {
		return MigrationResult{}, fmt.Errorf("could not read embedded migrations: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return MigrationResult{}, fmt.Errorf("could not create migrate instance: %w", err)
	}

	upErr := m.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return MigrationResult{}, fmt.Errorf("failed to apply migrations: %w", upErr)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return MigrationResult{}, fmt.Errorf("failed to read migration version: %w", err)
	}
	if dirty {
		return MigrationResult{}, fmt.Errorf("database schema is dirty at version %d", version)
	}

	sourceErr, dbErr := m.Close()
	if sourceErr != nil {
		return MigrationResult{}, fmt.Errorf("migration source error: %w", sourceErr)
	}
	if dbErr != nil {
		return MigrationResult{}, fmt.Errorf("migration database error: %w", dbErr)
	}

	result := MigrationResult{Version: version, Applied: upErr == nil}
	if result.Applied {
		logger.Info("Database migrations applied", zap.Uint("version", version))
	} else {
		logger.Info("No new migrations to apply", zap.Uint("version", version))
	}
	return result, nil
}
