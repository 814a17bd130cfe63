package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the gateway
type Config struct {
	Environment string
	Port        string
	LogLevel    string
	LogFormat   string
	BasePath    string

	Database  DatabaseConfig
	KeyValue  KeyValueConfig
	Storage   StorageConfig
	Stripe    StripeConfig
	Cognito   CognitoConfig
	JWT       JWTConfig
	Search    SearchConfig
	RateLimit RateLimitConfig

	AWSRegion    string
	StoreTimeout time.Duration
}

// DatabaseConfig holds relational store configuration
type DatabaseConfig struct {
	Driver      string // "postgres" or "sqlite3"
	URL         string
	Host        string
	Port        int
	Name        string
	User        string
	Password    string
	SSLMode     string
	MaxConns    int
	MinConns    int
	ConnMaxIdle time.Duration
	AutoMigrate bool
}

// KeyValueConfig holds DynamoDB table and index names
type KeyValueConfig struct {
	EventsTable            string
	EventsHostIndex        string
	RegistrationsTable     string
	RegistrationsUserIndex string
	Endpoint               string
}

// StorageConfig holds object storage configuration
type StorageConfig struct {
	Type         string // "s3", "local" or "mock"
	S3Bucket     string
	UploadURLTTL time.Duration
	LocalBaseURL string
	LocalPath    string
}

// StripeConfig holds billing provider configuration
type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	Timeout       time.Duration
}

// CognitoConfig holds identity provider configuration
type CognitoConfig struct {
	ClientID     string
	ClientSecret string
}

// JWTConfig holds local-mode bearer token configuration
type JWTConfig struct {
	Secret      string
	Issuer      string
	ExpiryHours int
}

// SearchConfig holds user search configuration
type SearchConfig struct {
	Backend    string // "sql" or "elasticsearch"
	ElasticURL string
	UsersIndex string
	Limit      int
}

// RateLimitConfig holds rate limiter configuration
type RateLimitConfig struct {
	Enabled   bool
	RedisURL  string
	PerMinute int
}

// Load loads configuration from environment variables and an optional .env file
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	config := &Config{
		Environment: v.GetString("ENVIRONMENT"),
		Port:        v.GetString("PORT"),
		LogLevel:    v.GetString("LOG_LEVEL"),
		LogFormat:   v.GetString("LOG_FORMAT"),
		BasePath:    v.GetString("API_BASE_PATH"),
		Database: DatabaseConfig{
			Driver:      v.GetString("DB_DRIVER"),
			URL:         v.GetString("DATABASE_URL"),
			Host:        v.GetString("DB_HOST"),
			Port:        v.GetInt("DB_PORT"),
			Name:        v.GetString("DB_NAME"),
			User:        v.GetString("DB_USER"),
			Password:    v.GetString("DB_PASSWORD"),
			SSLMode:     v.GetString("DB_SSLMODE"),
			MaxConns:    v.GetInt("DB_MAX_CONNS"),
			MinConns:    v.GetInt("DB_MIN_CONNS"),
			ConnMaxIdle: v.GetDuration("DB_CONN_MAX_IDLE"),
			AutoMigrate: v.GetBool("DB_AUTO_MIGRATE"),
		},
		KeyValue: KeyValueConfig{
			EventsTable:            v.GetString("EVENTS_TABLE"),
			EventsHostIndex:        v.GetString("EVENTS_HOST_INDEX"),
			RegistrationsTable:     v.GetString("REGISTRATIONS_TABLE"),
			RegistrationsUserIndex: v.GetString("REGISTRATIONS_USER_INDEX"),
			Endpoint:               v.GetString("DYNAMODB_ENDPOINT"),
		},
		Storage: StorageConfig{
			Type:         v.GetString("STORAGE_TYPE"),
			S3Bucket:     v.GetString("S3_BUCKET"),
			UploadURLTTL: v.GetDuration("UPLOAD_URL_TTL"),
			LocalBaseURL: v.GetString("STORAGE_LOCAL_BASE_URL"),
			LocalPath:    v.GetString("STORAGE_LOCAL_PATH"),
		},
		Stripe: StripeConfig{
			SecretKey:     v.GetString("STRIPE_SECRET_KEY"),
			WebhookSecret: v.GetString("STRIPE_WEBHOOK_SECRET"),
			Timeout:       v.GetDuration("STRIPE_TIMEOUT"),
		},
		Cognito: CognitoConfig{
			ClientID:     v.GetString("COGNITO_CLIENT_ID"),
			ClientSecret: v.GetString("COGNITO_CLIENT_SECRET"),
		},
		JWT: JWTConfig{
			Secret:      v.GetString("JWT_SECRET"),
			Issuer:      v.GetString("JWT_ISSUER"),
			ExpiryHours: v.GetInt("JWT_EXPIRY_HOURS"),
		},
		Search: SearchConfig{
			Backend:    v.GetString("SEARCH_BACKEND"),
			ElasticURL: v.GetString("ELASTIC_URL"),
			UsersIndex: v.GetString("ELASTIC_USERS_INDEX"),
			Limit:      v.GetInt("SEARCH_LIMIT"),
		},
		RateLimit: RateLimitConfig{
			Enabled:   v.GetBool("RATE_LIMIT_ENABLED"),
			RedisURL:  v.GetString("REDIS_URL"),
			PerMinute: v.GetInt("RATE_LIMIT_PER_MINUTE"),
		},
		AWSRegion:    v.GetString("AWS_REGION"),
		StoreTimeout: v.GetDuration("STORE_TIMEOUT"),
	}

	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8081")
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_NAME", "athletehub")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_SSLMODE", "require")
	v.SetDefault("DB_MAX_CONNS", 5)
	v.SetDefault("DB_MIN_CONNS", 0)
	v.SetDefault("DB_CONN_MAX_IDLE", 5*time.Minute)
	v.SetDefault("DB_AUTO_MIGRATE", false)
	v.SetDefault("STORE_TIMEOUT", 5*time.Second)

	v.SetDefault("EVENTS_TABLE", "events")
	v.SetDefault("EVENTS_HOST_INDEX", "hostUserId-index")
	v.SetDefault("REGISTRATIONS_TABLE", "event-registrations")
	v.SetDefault("REGISTRATIONS_USER_INDEX", "userId-index")

	v.SetDefault("STORAGE_TYPE", "s3")
	v.SetDefault("AWS_REGION", "us-east-1")
	v.SetDefault("UPLOAD_URL_TTL", 600*time.Second)
	v.SetDefault("STORAGE_LOCAL_BASE_URL", "http://localhost:8081/files")
	v.SetDefault("STORAGE_LOCAL_PATH", "./storage")

	v.SetDefault("STRIPE_TIMEOUT", 10*time.Second)

	v.SetDefault("JWT_ISSUER", "athletehub-api")
	v.SetDefault("JWT_EXPIRY_HOURS", 24)

	v.SetDefault("SEARCH_BACKEND", "sql")
	v.SetDefault("ELASTIC_USERS_INDEX", "users")
	v.SetDefault("SEARCH_LIMIT", 20)

	v.SetDefault("RATE_LIMIT_ENABLED", false)
	v.SetDefault("RATE_LIMIT_PER_MINUTE", 120)
}

// Validate rejects inconsistent settings
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite3":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}
	if c.Database.Driver == "sqlite3" && c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required for sqlite3")
	}

	switch c.Storage.Type {
	case "s3":
		if c.Storage.S3Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required when STORAGE_TYPE is s3")
		}
	case "local", "mock":
	default:
		return fmt.Errorf("unsupported STORAGE_TYPE %q", c.Storage.Type)
	}
	if c.Storage.UploadURLTTL <= 0 {
		return fmt.Errorf("UPLOAD_URL_TTL must be positive")
	}

	switch c.Search.Backend {
	case "sql":
	case "elasticsearch":
		if c.Search.ElasticURL == "" {
			return fmt.Errorf("ELASTIC_URL is required when SEARCH_BACKEND is elasticsearch")
		}
	default:
		return fmt.Errorf("unsupported SEARCH_BACKEND %q", c.Search.Backend)
	}

	if c.RateLimit.Enabled {
		if c.RateLimit.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required when RATE_LIMIT_ENABLED is true")
		}
		if c.RateLimit.PerMinute <= 0 {
			return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
		}
	}

	if c.StoreTimeout <= 0 {
		return fmt.Errorf("STORE_TIMEOUT must be positive")
	}
	return nil
}

// DSN returns the relational connection string for the configured driver
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	if d.Driver == "sqlite3" {
		return ""
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   d.Host + ":" + strconv.Itoa(d.Port),
		Path:   "/" + d.Name,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// IsDevelopment reports whether the gateway runs in a development environment
func (c *Config) IsDevelopment() bool {
	env := strings.ToLower(c.Environment)
	return env == "development" || env == "dev" || env == "local"
}

// GetEnv gets an environment variable with a fallback value
func GetEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
