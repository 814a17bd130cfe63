package main

import (
	"context"
	"flag"
	"fmt"

	"athletehub-api/internal/config"
	"athletehub-api/internal/database"

	"github.com/sirupsen/logrus"
)

func main() {
	var (
		action  = flag.String("action", "up", "Migration action: up, down, status, validate")
		driver  = flag.String("driver", "", "Override DB_DRIVER (postgres or sqlite3)")
		dsn     = flag.String("dsn", "", "Override DATABASE_URL")
		verbose = flag.Bool("verbose", false, "Enable verbose logging")
	)
	flag.Parse()

	logger := logrus.New()
	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}
	if *driver != "" {
		cfg.Database.Driver = *driver
	}
	if *dsn != "" {
		cfg.Database.URL = *dsn
	}

	logger.WithFields(logrus.Fields{
		"driver": cfg.Database.Driver,
		"action": *action,
	}).Info("Starting migration tool")

	cm := database.NewConnectionManager(cfg.Database, logger)
	if err := cm.Connect(context.Background()); err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}
	defer cm.Close()

	if err := run(cm.GetMigrationManager(), *action); err != nil {
		logger.WithError(err).WithField("action", *action).Fatal("Migration failed")
	}

	logger.Info("Migration tool completed successfully")
}

func run(m *database.MigrationManager, action string) error {
	switch action {
	case "up":
		return m.RunMigrations()
	case "down":
		return m.RollbackMigration()
	case "status":
		status, err := m.GetMigrationStatus()
		if err != nil {
			return fmt.Errorf("failed to get migration status: %w", err)
		}
		fmt.Printf("Migration Status:\n")
		fmt.Printf("  Version: %d\n", status.Version)
		fmt.Printf("  Applied: %t\n", status.Applied)
		fmt.Printf("  Dirty: %t\n", status.Dirty)
		return nil
	case "validate":
		if err := m.ValidateSchema(); err != nil {
			return fmt.Errorf("schema validation failed: %w", err)
		}
		fmt.Println("Schema validation passed successfully")
		return nil
	default:
		return fmt.Errorf("unknown action %q, use up, down, status or validate", action)
	}
}
