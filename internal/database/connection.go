package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"athletehub-api/internal/config"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
)

// ConnectionManager owns the relational connection pool for the process
type ConnectionManager struct {
	config config.DatabaseConfig
	logger *logrus.Logger
	db     *sql.DB
	pool   *pgxpool.Pool
}

// NewConnectionManager creates a new connection manager
func NewConnectionManager(cfg config.DatabaseConfig, logger *logrus.Logger) *ConnectionManager {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &ConnectionManager{
		config: cfg,
		logger: logger,
	}
}

// Connect opens the pool for the configured driver
func (cm *ConnectionManager) Connect(ctx context.Context) error {
	if cm.db != nil {
		return fmt.Errorf("database connection already established")
	}

	var err error
	switch cm.config.Driver {
	case "postgres":
		err = cm.connectPostgres(ctx)
	case "sqlite3":
		err = cm.connectSQLite(ctx)
	default:
		err = fmt.Errorf("unsupported database driver %q", cm.config.Driver)
	}
	if err != nil {
		return err
	}

	cm.logger.WithField("driver", cm.config.Driver).Info("Database connection established")
	return nil
}

// connectPostgres builds a pgx pool and exposes it through database/sql.
// database/sql keeps no idle connections of its own; pgxpool does the pooling.
func (cm *ConnectionManager) connectPostgres(ctx context.Context) error {
	poolConfig, err := pgxpool.ParseConfig(cm.config.DSN())
	if err != nil {
		return fmt.Errorf("failed to parse database config: %w", err)
	}
	if cm.config.MaxConns > 0 {
		poolConfig.MaxConns = int32(cm.config.MaxConns)
	}
	if cm.config.MinConns > 0 {
		poolConfig.MinConns = int32(cm.config.MinConns)
	}
	if cm.config.ConnMaxIdle > 0 {
		poolConfig.MaxConnIdleTime = cm.config.ConnMaxIdle
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}

	db := stdlib.OpenDBFromPool(pool)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		pool.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	cm.db = db
	cm.pool = pool
	return nil
}

func (cm *ConnectionManager) connectSQLite(ctx context.Context) error {
	dsn := cm.config.DSN()
	path := strings.TrimPrefix(strings.SplitN(dsn, "?", 2)[0], "file:")
	if path != ":memory:" && path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	if !strings.Contains(dsn, "?") {
		dsn += "?_foreign_keys=on&_journal_mode=WAL"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite works best with single connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	cm.db = db
	return nil
}

// GetDB returns the database connection
func (cm *ConnectionManager) GetDB() *sql.DB {
	return cm.db
}

// Driver returns the configured driver name
func (cm *ConnectionManager) Driver() string {
	return cm.config.Driver
}

// Close closes the database connection
func (cm *ConnectionManager) Close() error {
	if cm.db == nil {
		return nil
	}

	err := cm.db.Close()
	cm.db = nil
	if cm.pool != nil {
		cm.pool.Close()
		cm.pool = nil
	}

	if err != nil {
		return fmt.Errorf("failed to close database connection: %w", err)
	}

	cm.logger.Info("Database connection closed")
	return nil
}

// Ping tests the database connection
func (cm *ConnectionManager) Ping(ctx context.Context) error {
	if cm.db == nil {
		return fmt.Errorf("database connection not established")
	}

	if err := cm.db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	return nil
}

// GetMigrationManager returns a migration manager for this connection
func (cm *ConnectionManager) GetMigrationManager() *MigrationManager {
	if cm.db == nil {
		return nil
	}

	m := NewMigrationManager(cm.db, cm.config.Driver, cm.logger)
	if cm.pool != nil {
		pool := cm.pool
		m.openDedicated = func() *sql.DB { return stdlib.OpenDBFromPool(pool) }
	}
	return m
}

// HealthCheck performs a comprehensive health check
func (cm *ConnectionManager) HealthCheck(ctx context.Context) error {
	if err := cm.Ping(ctx); err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}

	var result int
	if err := cm.db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("test query failed: %w", err)
	}
	if result != 1 {
		return fmt.Errorf("test query returned unexpected result: %d", result)
	}

	if cm.config.Driver == "sqlite3" {
		var fkEnabled int
		if err := cm.db.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&fkEnabled); err != nil {
			return fmt.Errorf("failed to check foreign key status: %w", err)
		}
		if fkEnabled != 1 {
			return fmt.Errorf("foreign keys are not enabled")
		}
	}

	return nil
}
