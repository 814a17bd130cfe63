package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"athletehub-api/internal/config"

	"github.com/sirupsen/logrus"
)

// OpenTestSQLite opens a migrated SQLite database in a temp dir and registers
// cleanup with t.
func OpenTestSQLite(t testing.TB) *ConnectionManager {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "athletehub_test_*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)

	cm := NewConnectionManager(config.DatabaseConfig{
		Driver: "sqlite3",
		URL:    filepath.Join(tempDir, "test.db"),
	}, logger)

	if err := cm.Connect(context.Background()); err != nil {
		os.RemoveAll(tempDir)
		t.Fatalf("Failed to connect: %v", err)
	}
	if err := cm.GetMigrationManager().RunMigrations(); err != nil {
		cm.Close()
		os.RemoveAll(tempDir)
		t.Fatalf("Failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		cm.Close()
		os.RemoveAll(tempDir)
	})
	return cm
}
