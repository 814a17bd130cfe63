package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/sirupsen/logrus"
)

//go:embed migrations
var migrationFiles embed.FS

// ExpectedTables lists the tables the gateway reads and writes
var ExpectedTables = []string{
	"users",
	"followers",
	"challenges",
	"challenge_submissions",
}

// MigrationManager handles database migrations
type MigrationManager struct {
	db     *sql.DB
	driver string
	logger *logrus.Logger

	// openDedicated returns a handle the postgres migrate driver may close.
	// That driver pins one connection and closes its *sql.DB when done.
	openDedicated func() *sql.DB
}

// NewMigrationManager creates a new migration manager
func NewMigrationManager(db *sql.DB, driver string, logger *logrus.Logger) *MigrationManager {
	return &MigrationManager{
		db:     db,
		driver: driver,
		logger: logger,
	}
}

// MigrationInfo contains information about a migration
type MigrationInfo struct {
	Version   uint
	Dirty     bool
	Applied   bool
	Timestamp time.Time
}

// RunMigrations executes all pending migrations
func (m *MigrationManager) RunMigrations() error {
	m.logger.Info("Starting database migrations...")

	mig, release, err := m.initMigrate()
	if err != nil {
		return fmt.Errorf("failed to initialize migrate: %w", err)
	}
	defer release()

	currentVersion, dirty, err := mig.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to get current migration version: %w", err)
	}

	if dirty {
		m.logger.Warn("Database is in dirty state, attempting to force version")
		if err := mig.Force(int(currentVersion)); err != nil {
			return fmt.Errorf("failed to force migration version: %w", err)
		}
	}

	m.logger.WithField("current_version", currentVersion).Info("Current migration version")

	if err := mig.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	newVersion, _, err := mig.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to get new migration version: %w", err)
	}

	m.logger.WithField("new_version", newVersion).Info("Migrations completed successfully")
	return nil
}

// RollbackMigration rolls back the last migration
func (m *MigrationManager) RollbackMigration() error {
	m.logger.Info("Rolling back last migration...")

	mig, release, err := m.initMigrate()
	if err != nil {
		return fmt.Errorf("failed to initialize migrate: %w", err)
	}
	defer release()

	currentVersion, _, err := mig.Version()
	if err != nil {
		if errors.Is(err, migrate.ErrNilVersion) {
			return fmt.Errorf("no migrations to rollback")
		}
		return fmt.Errorf("failed to get current migration version: %w", err)
	}

	m.logger.WithField("current_version", currentVersion).Info("Rolling back from version")

	if err := mig.Steps(-1); err != nil {
		return fmt.Errorf("failed to rollback migration: %w", err)
	}

	newVersion, _, err := mig.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to get new migration version: %w", err)
	}

	m.logger.WithField("new_version", newVersion).Info("Rollback completed successfully")
	return nil
}

// GetMigrationStatus returns the current migration status
func (m *MigrationManager) GetMigrationStatus() (*MigrationInfo, error) {
	mig, release, err := m.initMigrate()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize migrate: %w", err)
	}
	defer release()

	version, dirty, err := mig.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return nil, fmt.Errorf("failed to get migration version: %w", err)
	}

	return &MigrationInfo{
		Version:   version,
		Dirty:     dirty,
		Applied:   err == nil,
		Timestamp: time.Now(),
	}, nil
}

// ValidateSchema checks that every expected table exists
func (m *MigrationManager) ValidateSchema() error {
	m.logger.Info("Validating database schema...")

	query := `SELECT COUNT(*) FROM information_schema.tables WHERE table_name = $1`
	if m.driver == "sqlite3" {
		query = `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = $1`
	}

	for _, table := range ExpectedTables {
		var count int
		if err := m.db.QueryRow(query, table).Scan(&count); err != nil {
			return fmt.Errorf("failed to check table %s: %w", table, err)
		}
		if count == 0 {
			return fmt.Errorf("expected table %s not found", table)
		}
	}

	m.logger.Info("Schema validation completed successfully")
	return nil
}

// initMigrate binds the embedded migrations for the driver. release closes
// the migrate instance only when it owns its database handle.
func (m *MigrationManager) initMigrate() (*migrate.Migrate, func(), error) {
	source, err := iofs.New(migrationFiles, "migrations/"+m.driver)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open migration source: %w", err)
	}

	var driver database.Driver
	owned := false
	switch m.driver {
	case "postgres":
		db := m.db
		if m.openDedicated != nil {
			db = m.openDedicated()
			owned = true
		}
		driver, err = pgxmigrate.WithInstance(db, &pgxmigrate.Config{})
	case "sqlite3":
		driver, err = sqlite3.WithInstance(m.db, &sqlite3.Config{})
	default:
		return nil, nil, fmt.Errorf("unsupported migration driver %q", m.driver)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create database driver: %w", err)
	}

	mig, err := migrate.NewWithInstance("iofs", source, m.driver, driver)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}

	release := func() {}
	if owned {
		release = func() {
			if srcErr, dbErr := mig.Close(); srcErr != nil || dbErr != nil {
				m.logger.WithFields(logrus.Fields{"source_error": srcErr, "database_error": dbErr}).Warn("Failed to close migrate instance")
			}
		}
	}
	return mig, release, nil
}
