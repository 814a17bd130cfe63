package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "DB_DRIVER", "EVENTS_TABLE", "EVENTS_HOST_INDEX", "REGISTRATIONS_TABLE",
		"REGISTRATIONS_USER_INDEX", "STORAGE_TYPE", "UPLOAD_URL_TTL", "STORE_TIMEOUT",
		"SEARCH_BACKEND", "SEARCH_LIMIT", "RATE_LIMIT_PER_MINUTE", "AWS_REGION",
	} {
		t.Setenv(key, "")
	}

	config, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if config.Port != "8081" {
		t.Errorf("Expected default port 8081, got %s", config.Port)
	}
	if config.Database.Driver != "postgres" {
		t.Errorf("Expected default driver postgres, got %s", config.Database.Driver)
	}
	if config.KeyValue.EventsTable != "events" || config.KeyValue.EventsHostIndex != "hostUserId-index" {
		t.Errorf("Unexpected events table defaults: %+v", config.KeyValue)
	}
	if config.KeyValue.RegistrationsTable != "event-registrations" || config.KeyValue.RegistrationsUserIndex != "userId-index" {
		t.Errorf("Unexpected registrations table defaults: %+v", config.KeyValue)
	}
	if config.Storage.UploadURLTTL != 600*time.Second {
		t.Errorf("Expected upload TTL 600s, got %v", config.Storage.UploadURLTTL)
	}
	if config.StoreTimeout != 5*time.Second {
		t.Errorf("Expected store timeout 5s, got %v", config.StoreTimeout)
	}
	if config.Search.Limit != 20 {
		t.Errorf("Expected search limit 20, got %d", config.Search.Limit)
	}
	if config.AWSRegion != "us-east-1" {
		t.Errorf("Expected region us-east-1, got %s", config.AWSRegion)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("EVENTS_TABLE", "events-prod")
	t.Setenv("STORE_TIMEOUT", "2s")
	t.Setenv("RATE_LIMIT_ENABLED", "true")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "30")

	config, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if config.KeyValue.EventsTable != "events-prod" {
		t.Errorf("Expected events-prod, got %s", config.KeyValue.EventsTable)
	}
	if config.StoreTimeout != 2*time.Second {
		t.Errorf("Expected 2s, got %v", config.StoreTimeout)
	}
	if !config.RateLimit.Enabled || config.RateLimit.PerMinute != 30 {
		t.Errorf("Unexpected rate limit config: %+v", config.RateLimit)
	}
}

func validConfig() *Config {
	return &Config{
		Database:     DatabaseConfig{Driver: "postgres", Host: "localhost", Port: 5432, Name: "athletehub", User: "postgres", SSLMode: "require"},
		Storage:      StorageConfig{Type: "s3", S3Bucket: "videos", UploadURLTTL: 10 * time.Minute},
		Search:       SearchConfig{Backend: "sql", Limit: 20},
		StoreTimeout: 5 * time.Second,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "unknown driver", mutate: func(c *Config) { c.Database.Driver = "mysql" }, wantErr: "DB_DRIVER"},
		{name: "sqlite without url", mutate: func(c *Config) { c.Database.Driver = "sqlite3" }, wantErr: "DATABASE_URL"},
		{name: "s3 without bucket", mutate: func(c *Config) { c.Storage.S3Bucket = "" }, wantErr: "S3_BUCKET"},
		{name: "unknown storage", mutate: func(c *Config) { c.Storage.Type = "gcs" }, wantErr: "STORAGE_TYPE"},
		{name: "elasticsearch without url", mutate: func(c *Config) { c.Search.Backend = "elasticsearch" }, wantErr: "ELASTIC_URL"},
		{name: "rate limit without redis", mutate: func(c *Config) { c.RateLimit.Enabled = true; c.RateLimit.PerMinute = 10 }, wantErr: "REDIS_URL"},
		{name: "zero store timeout", mutate: func(c *Config) { c.StoreTimeout = 0 }, wantErr: "STORE_TIMEOUT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := validConfig()
			tt.mutate(config)
			err := config.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want mention of %s", err, tt.wantErr)
			}
		})
	}
}

func TestDSN(t *testing.T) {
	d := DatabaseConfig{Driver: "postgres", Host: "db", Port: 5432, Name: "athletehub", User: "app", Password: "p@ss", SSLMode: "require"}
	want := "postgres://app:p%40ss@db:5432/athletehub?sslmode=require"
	if got := d.DSN(); got != want {
		t.Errorf("DSN() = %s, want %s", got, want)
	}

	d.URL = "postgres://override"
	if got := d.DSN(); got != "postgres://override" {
		t.Errorf("DSN() should prefer URL, got %s", got)
	}
}

func TestAdaptConfigForServerless(t *testing.T) {
	config := validConfig()
	config.Storage.Type = "local"
	config.LogFormat = "text"
	config.Database.MaxConns = 10
	config.Database.AutoMigrate = true

	adapted := AdaptConfigForServerless(config, true)
	if adapted.Storage.Type != "s3" {
		t.Errorf("Expected s3 storage, got %s", adapted.Storage.Type)
	}
	if adapted.LogFormat != "json" {
		t.Errorf("Expected json logs, got %s", adapted.LogFormat)
	}
	if adapted.Database.MaxConns != 2 || adapted.Database.AutoMigrate {
		t.Errorf("Unexpected database config: %+v", adapted.Database)
	}

	untouched := validConfig()
	untouched.Storage.Type = "local"
	if AdaptConfigForServerless(untouched, false).Storage.Type != "local" {
		t.Error("Expected config untouched outside Lambda")
	}
}
