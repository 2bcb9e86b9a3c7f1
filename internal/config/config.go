package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Supported store drivers
const (
	StoreDriverPostgres = "postgres"
	StoreDriverDynamoDB = "dynamodb"
	StoreDriverMemory   = "memory"
)

// Processor environments
const (
	EnvironmentSandbox    = "sandbox"
	EnvironmentProduction = "production"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Logger    LoggerConfig
	Database  DatabaseConfig
	DynamoDB  DynamoDBConfig
	Processor ProcessorConfig
	Ledger    LedgerConfig
	App       AppConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	ConnMaxLifetime time.Duration
	MaxOpenConns    int
	MaxIdleConns    int
}

// DynamoDBConfig holds table names for the DynamoDB store
type DynamoDBConfig struct {
	TransactionsTable string
}

// ProcessorConfig holds the payment processor credentials and transport settings.
// MerchantID and PrivateKeyPEM are secrets and are redacted when logged.
type ProcessorConfig struct {
	MerchantID    string
	PrivateKeyPEM string
	Environment   string
	BaseURL       string
	Timeout       time.Duration
	MaxAttempts   int
	RetryBaseWait time.Duration
	RetryMaxWait  time.Duration
	FailureRate   float64
	MinLatencyMS  int
	MaxLatencyMS  int
}

// LedgerConfig selects where ledger entries are sent. An empty QueueURL logs them instead.
type LedgerConfig struct {
	QueueURL string
}

// AppConfig holds application-specific configuration
type AppConfig struct {
	StoreDriver   string
	PublicBaseURL string
	Currency      string
}

// LoggerConfig holds logging configuration
type LoggerConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, text
}

// Load loads configuration from environment variables with sensible defaults
func Load() (*Config, error) {
	env := strings.ToLower(getEnv("PROCESSOR_ENV", EnvironmentSandbox))

	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			ReadTimeout:  getEnvAsDuration("SERVER_READ_TIMEOUT", "15s"),
			WriteTimeout: getEnvAsDuration("SERVER_WRITE_TIMEOUT", "30s"),
			IdleTimeout:  getEnvAsDuration("SERVER_IDLE_TIMEOUT", "60s"),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "postgres"),
			DBName:          getEnv("DB_NAME", "merchant_gateway"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", "5m"),
		},
		DynamoDB: DynamoDBConfig{
			TransactionsTable: getEnv("DYNAMODB_TRANSACTIONS_TABLE_NAME", "transactions"),
		},
		Processor: ProcessorConfig{
			MerchantID:    getEnv("PROCESSOR_MERCHANT_ID", ""),
			PrivateKeyPEM: loadPrivateKey(),
			Environment:   env,
			BaseURL:       getEnv("PROCESSOR_BASE_URL", ""),
			Timeout:       getEnvAsDuration("PROCESSOR_TIMEOUT", "20s"),
			MaxAttempts:   getEnvAsInt("PROCESSOR_MAX_ATTEMPTS", 1),
			RetryBaseWait: getEnvAsDuration("PROCESSOR_RETRY_BASE_WAIT", "500ms"),
			RetryMaxWait:  getEnvAsDuration("PROCESSOR_RETRY_MAX_WAIT", "8s"),
			FailureRate:   getEnvAsFloat("PROCESSOR_FAILURE_RATE", 0),
			MinLatencyMS:  getEnvAsInt("PROCESSOR_MIN_LATENCY_MS", 0),
			MaxLatencyMS:  getEnvAsInt("PROCESSOR_MAX_LATENCY_MS", 0),
		},
		Ledger: LedgerConfig{
			QueueURL: getEnv("LEDGER_QUEUE_URL", ""),
		},
		App: AppConfig{
			StoreDriver:   strings.ToLower(getEnv("STORE_DRIVER", StoreDriverPostgres)),
			PublicBaseURL: strings.TrimSuffix(getEnv("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),
			Currency:      getEnv("CURRENCY", "ETB"),
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port cannot be empty")
	}

	switch c.App.StoreDriver {
	case StoreDriverPostgres:
		if c.Database.Host == "" {
			return fmt.Errorf("database host cannot be empty")
		}
		if c.Database.DBName == "" {
			return fmt.Errorf("database name cannot be empty")
		}
	case StoreDriverDynamoDB:
		if c.DynamoDB.TransactionsTable == "" {
			return fmt.Errorf("dynamodb transactions table cannot be empty")
		}
	case StoreDriverMemory:
	default:
		return fmt.Errorf("invalid store driver: %s (must be postgres, dynamodb, or memory)", c.App.StoreDriver)
	}

	if err := c.Processor.Validate(); err != nil {
		return err
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logger.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	return nil
}

// Validate checks the processor settings. Credentials are not required here so that
// tools like keygen can run without them; the gateway client rejects an empty merchant id.
func (c *ProcessorConfig) Validate() error {
	if c.Environment != EnvironmentSandbox && c.Environment != EnvironmentProduction {
		return fmt.Errorf("invalid processor environment: %s (must be sandbox or production)", c.Environment)
	}

	if c.Timeout <= 0 {
		return fmt.Errorf("processor timeout must be positive")
	}

	if c.MaxAttempts < 1 {
		return fmt.Errorf("processor max attempts must be at least 1, got %d", c.MaxAttempts)
	}

	if c.FailureRate < 0 || c.FailureRate > 1 {
		return fmt.Errorf("failure rate must be between 0 and 1, got %f", c.FailureRate)
	}
	if c.FailureRate > 0 && c.Environment != EnvironmentSandbox {
		return fmt.Errorf("failure injection is only allowed in the sandbox environment")
	}

	if c.MinLatencyMS < 0 {
		return fmt.Errorf("min latency cannot be negative")
	}
	if c.MaxLatencyMS < c.MinLatencyMS {
		return fmt.Errorf("max latency (%d) must be >= min latency (%d)", c.MaxLatencyMS, c.MinLatencyMS)
	}

	return nil
}

// LogValue keeps the merchant credentials out of log output
func (c ProcessorConfig) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("merchant_id", redacted(c.MerchantID)),
		slog.String("private_key", redacted(c.PrivateKeyPEM)),
		slog.String("environment", c.Environment),
		slog.String("base_url", c.BaseURL),
		slog.Duration("timeout", c.Timeout),
		slog.Int("max_attempts", c.MaxAttempts),
	)
}

func redacted(secret string) string {
	if secret == "" {
		return ""
	}
	return "[REDACTED]"
}

// DSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// loadPrivateKey reads the signing key inline or from PROCESSOR_PRIVATE_KEY_FILE.
// Escaped newlines are expanded so the PEM can live in a single-line env var.
func loadPrivateKey() string {
	if key := os.Getenv("PROCESSOR_PRIVATE_KEY"); key != "" {
		return strings.ReplaceAll(key, `\n`, "\n")
	}

	path := os.Getenv("PROCESSOR_PRIVATE_KEY_FILE")
	if path == "" {
		return ""
	}
	data, err := os.ReadFile(path) // #nosec G304
	if err != nil {
		return ""
	}
	return string(data)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		// Fallback to parsing the default if provided value is invalid
		duration, err = time.ParseDuration(defaultValue)
		if err != nil {
			return 0
		}
	}
	return duration
}
