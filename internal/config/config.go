package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Server ServerConfig

	// Storage backend selection
	Storage StorageConfig

	// Database configuration (postgres storage driver)
	Database DatabaseConfig

	// JWT configuration
	JWT JWTConfig

	// Redis configuration (checkout sessions)
	Redis RedisConfig

	// Booking notification configuration
	Notifier NotifierConfig

	// New Relic APM configuration
	NewRelic NewRelicConfig

	// CORS configuration
	CORS CORSConfig

	// Checkout session configuration
	Checkout CheckoutConfig

	// Ledger reconciliation job configuration
	Reconcile ReconcileConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port        string
	Environment string // development, staging, production
	LogLevel    string // debug, info, warn, error
}

// StorageConfig selects where trips, occupancy and the booking ledger live
type StorageConfig struct {
	Driver   string // "file" or "postgres"
	DataFile string // JSON document path for the file driver
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	URL                string
	MaxConnections     int
	MaxIdleConnections int
	ConnMaxLifetime    time.Duration
	AutoMigrate        bool
}

// JWTConfig holds JWT-related configuration
type JWTConfig struct {
	Secret            string
	AccessTokenExpiry time.Duration
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

// NotifierConfig holds booking confirmation delivery configuration
type NotifierConfig struct {
	Mode    string // "log", "smtp", "amqp" or "kafka"
	Timeout time.Duration

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	FromEmail    string

	AMQPURL      string
	AMQPExchange string

	KafkaBrokers []string
	KafkaTopic   string
}

// NewRelicConfig holds New Relic configuration
type NewRelicConfig struct {
	Enabled    bool
	AppName    string
	LicenseKey string
}

// CORSConfig holds CORS-related configuration
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

// CheckoutConfig holds checkout session configuration
type CheckoutConfig struct {
	SessionTTL time.Duration
}

// ReconcileConfig holds ledger reconciliation configuration
type ReconcileConfig struct {
	Enabled        bool
	Schedule       string // cron spec with seconds
	ReleaseOrphans bool   // release occupied seats that have no ledger entry
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	config := fromEnv()

	// Validate required configuration
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// LoadStorage loads configuration for tools that only touch the booking store
func LoadStorage() (*Config, error) {
	config := fromEnv()
	if err := config.validateStorage(); err != nil {
		return nil, err
	}
	return config, nil
}

func fromEnv() *Config {
	// Load .env file if it exists (for local development)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "8080"),
			Environment: getEnv("ENVIRONMENT", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
		},
		Storage: StorageConfig{
			Driver:   getEnv("STORAGE_DRIVER", "file"),
			DataFile: getEnv("DATA_FILE", "data/buses.json"),
		},
		Database: DatabaseConfig{
			URL:                getEnv("DATABASE_URL", ""),
			MaxConnections:     getEnvAsInt("DATABASE_MAX_CONNECTIONS", 10),
			MaxIdleConnections: getEnvAsInt("DATABASE_MAX_IDLE_CONNECTIONS", 5),
			ConnMaxLifetime:    time.Duration(getEnvAsInt("DATABASE_CONN_MAX_LIFETIME", 300)) * time.Second,
			AutoMigrate:        getEnvAsBool("DATABASE_AUTO_MIGRATE", true),
		},
		JWT: JWTConfig{
			Secret:            getEnv("JWT_SECRET", ""),
			AccessTokenExpiry: time.Duration(getEnvAsInt("JWT_ACCESS_TOKEN_EXPIRY", 3600)) * time.Second,
		},
		Redis: RedisConfig{
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Notifier: NotifierConfig{
			Mode:         getEnv("NOTIFIER_MODE", "log"),
			Timeout:      time.Duration(getEnvAsInt("NOTIFIER_TIMEOUT_SECONDS", 10)) * time.Second,
			SMTPHost:     getEnv("SMTP_HOST", ""),
			SMTPPort:     getEnvAsInt("SMTP_PORT", 587),
			SMTPUsername: getEnv("SMTP_USERNAME", ""),
			SMTPPassword: getEnv("SMTP_PASSWORD", ""),
			FromEmail:    getEnv("FROM_EMAIL", "no-reply@smarttransit.local"),
			AMQPURL:      getEnv("AMQP_URL", ""),
			AMQPExchange: getEnv("AMQP_EXCHANGE", "bookings"),
			KafkaBrokers: getEnvAsSlice("KAFKA_BROKERS", []string{"localhost:9092"}),
			KafkaTopic:   getEnv("KAFKA_TOPIC", "booking-notifications"),
		},
		NewRelic: NewRelicConfig{
			Enabled:    getEnvAsBool("NEW_RELIC_ENABLED", false),
			AppName:    getEnv("NEW_RELIC_APP_NAME", "seat-reservation"),
			LicenseKey: getEnv("NEW_RELIC_LICENSE_KEY", ""),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
			AllowedMethods: getEnvAsSlice("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
			AllowedHeaders: getEnvAsSlice("CORS_ALLOWED_HEADERS", []string{"Content-Type", "Authorization"}),
		},
		Checkout: CheckoutConfig{
			SessionTTL: time.Duration(getEnvAsInt("CHECKOUT_SESSION_TTL_MINUTES", 15)) * time.Minute,
		},
		Reconcile: ReconcileConfig{
			Enabled:        getEnvAsBool("RECONCILE_ENABLED", true),
			Schedule:       getEnv("RECONCILE_SCHEDULE", "0 30 3 * * *"),
			ReleaseOrphans: getEnvAsBool("RECONCILE_RELEASE_ORPHANS", false),
		},
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	if err := c.validateStorage(); err != nil {
		return err
	}

	switch c.Notifier.Mode {
	case "log":
	case "smtp":
		if c.Notifier.SMTPHost == "" {
			return fmt.Errorf("SMTP_HOST is required for smtp notifier mode")
		}
	case "amqp":
		if c.Notifier.AMQPURL == "" {
			return fmt.Errorf("AMQP_URL is required for amqp notifier mode")
		}
	case "kafka":
		if len(c.Notifier.KafkaBrokers) == 0 || c.Notifier.KafkaTopic == "" {
			return fmt.Errorf("KAFKA_BROKERS and KAFKA_TOPIC are required for kafka notifier mode")
		}
	default:
		return fmt.Errorf("invalid notifier mode: %s (must be 'log', 'smtp', 'amqp' or 'kafka')", c.Notifier.Mode)
	}

	if c.NewRelic.Enabled && c.NewRelic.LicenseKey == "" {
		return fmt.Errorf("NEW_RELIC_LICENSE_KEY is required when New Relic is enabled")
	}

	if c.Checkout.SessionTTL <= 0 {
		return fmt.Errorf("CHECKOUT_SESSION_TTL_MINUTES must be positive")
	}

	return nil
}

func (c *Config) validateStorage() error {
	switch c.Storage.Driver {
	case "file":
		if c.Storage.DataFile == "" {
			return fmt.Errorf("DATA_FILE is required for the file storage driver")
		}
	case "postgres":
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres storage driver")
		}
	default:
		return fmt.Errorf("invalid storage driver: %s (must be 'file' or 'postgres')", c.Storage.Driver)
	}
	return nil
}

// Helper functions to get environment variables

func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Invalid integer value for %s, using default: %d", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("Invalid boolean value for %s, using default: %t", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var result []string
	for _, v := range strings.Split(valueStr, ",") {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}
