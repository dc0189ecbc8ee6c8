package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Configuration keys. They double as environment variable names.
const (
	KeyAppPort             = "APP_PORT"
	KeyAuthMode            = "AUTH_MODE"
	KeyJWTSecret           = "JWT_SECRET"
	KeyTokenTTL            = "TOKEN_TTL"
	KeySessionTTL          = "SESSION_TTL"
	KeySessionCookieSecure = "SESSION_COOKIE_SECURE"
	KeyCORSAllowOrigins    = "CORS_ALLOW_ORIGINS"
	KeyDatabaseDriver      = "DATABASE_DRIVER"
	KeyDatabaseDSN         = "DATABASE_DSN"
	KeyDBPoolSize          = "DB_POOL_SIZE"
	KeyInitSchema          = "INIT_SCHEMA"
	KeyLogLevel            = "LOG_LEVEL"
	KeyLogFile             = "LOG_FILE"
	KeyLogMaxSizeMB        = "LOG_MAX_SIZE_MB"
	KeyLogMaxBackups       = "LOG_MAX_BACKUPS"
	KeyLogMaxAgeDays       = "LOG_MAX_AGE_DAYS"
	KeyRabbitMQURL         = "RABBITMQ_URL"
	KeyRabbitMQQueue       = "RABBITMQ_QUEUE"
	KeyLowStockThreshold   = "LOW_STOCK_THRESHOLD"
	KeyMaintenanceSchedule = "MAINTENANCE_SCHEDULE"
)

// Authentication modes.
const (
	AuthModeJWT     = "jwt"
	AuthModeSession = "session"
)

// Database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

const defaultSessionOrigin = "http://localhost:3000"

// Config is the resolved application configuration.
type Config struct {
	AppPort  string
	AuthMode string

	JWTSecret           string
	TokenTTL            time.Duration
	SessionTTL          time.Duration
	SessionCookieSecure bool
	CORSAllowOrigins    string

	Database DatabaseConfig
	Log      LogConfig

	RabbitMQURL       string
	RabbitMQQueue     string
	LowStockThreshold int

	MaintenanceSchedule string
}

// DatabaseConfig describes the relational store and its connection pool.
type DatabaseConfig struct {
	Driver     string
	DSN        string
	PoolSize   int
	InitSchema bool
}

// LogConfig controls zerolog output and file rotation.
type LogConfig struct {
	Level      string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// NewViper returns a viper instance with defaults and environment binding.
func NewViper() *viper.Viper {
	v := viper.New()

	v.SetDefault(KeyAppPort, ":5000")
	v.SetDefault(KeyAuthMode, AuthModeJWT)
	v.SetDefault(KeyTokenTTL, 7*24*time.Hour)
	v.SetDefault(KeySessionTTL, 7*24*time.Hour)
	v.SetDefault(KeySessionCookieSecure, false)
	v.SetDefault(KeyDatabaseDriver, DriverSQLite)
	v.SetDefault(KeyDatabaseDSN, "ecommerce.db")
	v.SetDefault(KeyDBPoolSize, 5)
	v.SetDefault(KeyInitSchema, true)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFile, "app.log")
	v.SetDefault(KeyLogMaxSizeMB, 50)
	v.SetDefault(KeyLogMaxBackups, 5)
	v.SetDefault(KeyLogMaxAgeDays, 30)
	v.SetDefault(KeyRabbitMQQueue, "purchase_events")
	v.SetDefault(KeyLowStockThreshold, 3)
	v.SetDefault(KeyMaintenanceSchedule, "@daily")

	v.AutomaticEnv()
	// SECRET_KEY is what older deployments export.
	_ = v.BindEnv(KeyJWTSecret, KeyJWTSecret, "SECRET_KEY")

	return v
}

// Load reads the optional config file into v and resolves the configuration.
// When configFile is empty, a ".env" in the working directory is used if present.
// The result is not validated; commands call Validate or ValidateDatabase
// depending on what they use.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	if configFile == "" {
		if _, err := os.Stat(".env"); err == nil {
			configFile = ".env"
		}
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
		if strings.HasSuffix(configFile, ".env") {
			v.SetConfigType("env")
		}
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	cfg := &Config{
		AppPort:             v.GetString(KeyAppPort),
		AuthMode:            strings.ToLower(v.GetString(KeyAuthMode)),
		JWTSecret:           v.GetString(KeyJWTSecret),
		TokenTTL:            v.GetDuration(KeyTokenTTL),
		SessionTTL:          v.GetDuration(KeySessionTTL),
		SessionCookieSecure: v.GetBool(KeySessionCookieSecure),
		CORSAllowOrigins:    v.GetString(KeyCORSAllowOrigins),
		Database: DatabaseConfig{
			Driver:     strings.ToLower(v.GetString(KeyDatabaseDriver)),
			DSN:        v.GetString(KeyDatabaseDSN),
			PoolSize:   v.GetInt(KeyDBPoolSize),
			InitSchema: v.GetBool(KeyInitSchema),
		},
		Log: LogConfig{
			Level:      v.GetString(KeyLogLevel),
			File:       v.GetString(KeyLogFile),
			MaxSizeMB:  v.GetInt(KeyLogMaxSizeMB),
			MaxBackups: v.GetInt(KeyLogMaxBackups),
			MaxAgeDays: v.GetInt(KeyLogMaxAgeDays),
		},
		RabbitMQURL:         v.GetString(KeyRabbitMQURL),
		RabbitMQQueue:       v.GetString(KeyRabbitMQQueue),
		LowStockThreshold:   v.GetInt(KeyLowStockThreshold),
		MaintenanceSchedule: v.GetString(KeyMaintenanceSchedule),
	}

	if cfg.CORSAllowOrigins == "" {
		if cfg.AuthMode == AuthModeSession {
			cfg.CORSAllowOrigins = defaultSessionOrigin
		} else {
			cfg.CORSAllowOrigins = "*"
		}
	}

	return cfg, nil
}

// Validate reports every configuration problem at once.
func (c *Config) Validate() error {
	var errs []error

	switch c.AuthMode {
	case AuthModeJWT:
		if c.JWTSecret == "" {
			errs = append(errs, fmt.Errorf("%s is required when %s=%s", KeyJWTSecret, KeyAuthMode, AuthModeJWT))
		}
		if c.TokenTTL <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive", KeyTokenTTL))
		}
	case AuthModeSession:
		if c.SessionTTL <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive", KeySessionTTL))
		}
		// Credentialed CORS cannot be combined with a wildcard origin.
		if strings.Contains(c.CORSAllowOrigins, "*") {
			errs = append(errs, fmt.Errorf("%s cannot contain '*' when %s=%s", KeyCORSAllowOrigins, KeyAuthMode, AuthModeSession))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported %s %q (expected %s or %s)", KeyAuthMode, c.AuthMode, AuthModeJWT, AuthModeSession))
	}

	errs = append(errs, c.ValidateDatabase())
	return errors.Join(errs...)
}

// ValidateDatabase checks only the settings needed to open the database.
func (c *Config) ValidateDatabase() error {
	var errs []error

	switch c.Database.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		errs = append(errs, fmt.Errorf("unsupported %s %q (expected %s or %s)", KeyDatabaseDriver, c.Database.Driver, DriverSQLite, DriverPostgres))
	}
	if c.Database.DSN == "" {
		errs = append(errs, fmt.Errorf("%s is required", KeyDatabaseDSN))
	}
	if c.Database.PoolSize <= 0 {
		errs = append(errs, fmt.Errorf("%s must be greater than zero", KeyDBPoolSize))
	}

	return errors.Join(errs...)
}
