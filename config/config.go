package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"

	EnvironmentSandbox    = "sandbox"
	EnvironmentProduction = "production"
)

type Config struct {
	App               AppConfig
	HTTP              ServerConfig
	GRPC              ServerConfig
	Database          DatabaseConfig
	Log               LogConfig
	InternalEndpoints InternalEndpointsConfig
	Cashfree          CashfreeConfig
	SMTP              SMTPConfig
	Donations         DonationsConfig
	Admin             AdminConfig
	Jobs              JobsConfig
}

type AppConfig struct {
	ServiceName string
	BaseURL     string
}

type ServerConfig struct {
	Host string
	Port string
}

type DatabaseConfig struct {
	Driver          string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type LogConfig struct {
	Level          string
	File           string
	FileMaxSizeMB  int
	FileMaxBackups int
	FileMaxAgeDays int
}

type InternalEndpointsConfig struct {
	AuthGRPCAddr   string
	JobsAccessName string
}

type CashfreeConfig struct {
	AppID                     string
	SecretKey                 string
	WebhookSecret             string
	Environment               string
	APIVersion                string
	SignatureToleranceSeconds int64
	HTTPTimeout               time.Duration
}

type SMTPConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromName  string
	FromEmail string
}

type DonationsConfig struct {
	DefaultCurrency     string
	PendingTimeout      time.Duration
	ReconcileStaleAfter time.Duration
	JobBatchSize        int32
	ReceiptQueueSize    int
}

type AdminConfig struct {
	CacheTTL  time.Duration
	CacheSize int
}

type JobsConfig struct {
	CleanupInterval   time.Duration
	ReconcileInterval time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	dsn := os.Getenv("DATABASE_DSN")
	if dsn == "" {
		return nil, errors.New("DATABASE_DSN environment variable is required")
	}

	driver := strings.ToLower(getEnv("DATABASE_DRIVER", DriverMySQL))
	switch driver {
	case DriverMySQL, DriverPostgres, DriverSQLite:
	default:
		return nil, fmt.Errorf("unsupported DATABASE_DRIVER %q", driver)
	}

	environment := strings.ToLower(getEnv("CASHFREE_ENVIRONMENT", EnvironmentSandbox))
	if environment != EnvironmentSandbox && environment != EnvironmentProduction {
		return nil, fmt.Errorf("unsupported CASHFREE_ENVIRONMENT %q", environment)
	}

	secretKey := getEnv("CASHFREE_SECRET_KEY", "")

	return &Config{
		App: AppConfig{
			ServiceName: getEnv("APP_SERVICE_NAME", "donations-service"),
			BaseURL:     strings.TrimRight(getEnv("APP_BASE_URL", "http://localhost:8080"), "/"),
		},
		HTTP: ServerConfig{
			Host: getEnv("HTTP_HOST", "0.0.0.0"),
			Port: getEnv("HTTP_PORT", "8080"),
		},
		GRPC: ServerConfig{
			Host: getEnv("GRPC_HOST", "0.0.0.0"),
			Port: getEnv("GRPC_PORT", "9090"),
		},
		Database: DatabaseConfig{
			Driver:          driver,
			DSN:             dsn,
			MaxOpenConns:    getIntEnv("DATABASE_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getIntEnv("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getMinutesEnv("DATABASE_CONN_MAX_LIFETIME_MINUTES", 30*time.Minute),
		},
		Log: LogConfig{
			Level:          getEnv("LOG_LEVEL", "info"),
			File:           getEnv("LOG_FILE", ""),
			FileMaxSizeMB:  getIntEnv("LOG_FILE_MAX_SIZE_MB", 100),
			FileMaxBackups: getIntEnv("LOG_FILE_MAX_BACKUPS", 5),
			FileMaxAgeDays: getIntEnv("LOG_FILE_MAX_AGE_DAYS", 30),
		},
		InternalEndpoints: InternalEndpointsConfig{
			AuthGRPCAddr:   getEnv("AUTH_SERVICE_GRPC_ADDR", "localhost:9090"),
			JobsAccessName: getEnv("INTERNAL_JOBS_ACCESS", "donations-jobs"),
		},
		Cashfree: CashfreeConfig{
			AppID:                     getEnv("CASHFREE_APP_ID", ""),
			SecretKey:                 secretKey,
			WebhookSecret:             getEnv("CASHFREE_WEBHOOK_SECRET", secretKey),
			Environment:               environment,
			APIVersion:                getEnv("CASHFREE_API_VERSION", "2023-08-01"),
			SignatureToleranceSeconds: int64(getIntEnv("CASHFREE_SIGNATURE_TOLERANCE_SECONDS", 300)),
			HTTPTimeout:               getSecondsEnv("CASHFREE_HTTP_TIMEOUT_SECONDS", 10*time.Second),
		},
		SMTP: SMTPConfig{
			Host:      getEnv("SMTP_HOST", ""),
			Port:      getIntEnv("SMTP_PORT", 587),
			Username:  getEnv("SMTP_USERNAME", ""),
			Password:  getEnv("SMTP_PASSWORD", ""),
			FromName:  getEnv("SMTP_FROM_NAME", "Temple Construction Trust"),
			FromEmail: getEnv("SMTP_FROM_EMAIL", ""),
		},
		Donations: DonationsConfig{
			DefaultCurrency:     strings.ToUpper(getEnv("DONATIONS_DEFAULT_CURRENCY", "INR")),
			PendingTimeout:      getMinutesEnv("DONATIONS_PENDING_TIMEOUT_MINUTES", 60*time.Minute),
			ReconcileStaleAfter: getMinutesEnv("DONATIONS_RECONCILE_STALE_AFTER_MINUTES", 15*time.Minute),
			JobBatchSize:        int32(getIntEnv("DONATIONS_JOB_BATCH_SIZE", 100)),
			ReceiptQueueSize:    getIntEnv("DONATIONS_RECEIPT_QUEUE_SIZE", 256),
		},
		Admin: AdminConfig{
			CacheTTL:  getMinutesEnv("ADMIN_CACHE_TTL_MINUTES", 5*time.Minute),
			CacheSize: getIntEnv("ADMIN_CACHE_SIZE", 256),
		},
		Jobs: JobsConfig{
			CleanupInterval:   getMinutesEnv("JOBS_CLEANUP_INTERVAL_MINUTES", 10*time.Minute),
			ReconcileInterval: getMinutesEnv("JOBS_RECONCILE_INTERVAL_MINUTES", 5*time.Minute),
		},
	}, nil
}

// GatewayBaseURL returns the Cashfree PG API root for the configured environment.
func (c CashfreeConfig) GatewayBaseURL() string {
	if c.Environment == EnvironmentProduction {
		return "https://api.cashfree.com/pg"
	}
	return "https://sandbox.cashfree.com/pg"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getMinutesEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if minutes, err := strconv.Atoi(value); err == nil {
			return time.Duration(minutes) * time.Minute
		}
	}
	return defaultValue
}

func getSecondsEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if seconds, err := strconv.Atoi(value); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return defaultValue
}
