package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Secondary write strictness levels
const (
	StrictnessBestEffort = "best_effort"
	StrictnessRequired   = "required"
)

// Identity provider kinds
const (
	IdentityProviderLocal  = "local"
	IdentityProviderHosted = "hosted"
)

// Welcome notification modes
const (
	NotificationModePassword  = "password"
	NotificationModeClaimLink = "claim_link"
)

// Config structure represents the application configuration
type Config struct {
	Server struct {
		Port        string `yaml:"port" env:"SERVER_PORT"`
		Mode        string `yaml:"mode" env:"SERVER_MODE"`
		StoragePath string `yaml:"storage_path" env:"SERVER_STORAGE_PATH"`
		PublicURL   string `yaml:"public_url" env:"SERVER_PUBLIC_URL"`
	} `yaml:"server"`

	Database struct {
		Host            string `yaml:"host" env:"DB_HOST"`
		Port            string `yaml:"port" env:"DB_PORT"`
		User            string `yaml:"user" env:"DB_USER"`
		Password        string `yaml:"password" env:"DB_PASSWORD"`
		DBName          string `yaml:"dbname" env:"DB_NAME"`
		SSLMode         string `yaml:"sslmode" env:"DB_SSLMODE"`
		MaxIdleConns    int    `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS"`
		MaxOpenConns    int    `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS"`
		ConnMaxLifetime string `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME"`
		MigrationsDir   string `yaml:"migrations_dir" env:"DB_MIGRATIONS_DIR"`
	} `yaml:"database"`

	JWT struct {
		Secret                 string `yaml:"secret" env:"JWT_SECRET"`
		AccessTokenExpiration  string `yaml:"access_token_expiration" env:"JWT_ACCESS_TOKEN_EXPIRATION"`
		RefreshTokenExpiration string `yaml:"refresh_token_expiration" env:"JWT_REFRESH_TOKEN_EXPIRATION"`
		Issuer                 string `yaml:"issuer" env:"JWT_ISSUER"`
		CookieSecure           bool   `yaml:"cookie_secure" env:"JWT_COOKIE_SECURE"`
		CookieDomain           string `yaml:"cookie_domain" env:"JWT_COOKIE_DOMAIN"`
	} `yaml:"jwt"`

	Logging struct {
		Level  string `yaml:"level" env:"LOG_LEVEL"`
		Format string `yaml:"format" env:"LOG_FORMAT"`
	} `yaml:"logging"`

	Registration struct {
		WebhookSecret string `yaml:"webhook_secret" env:"REGISTRATION_WEBHOOK_SECRET"`
		PendingGrace  string `yaml:"pending_grace" env:"REGISTRATION_PENDING_GRACE"`

		Strictness struct {
			Certification string `yaml:"certification" env:"REGISTRATION_STRICTNESS_CERTIFICATION"`
			Results       string `yaml:"results" env:"REGISTRATION_STRICTNESS_RESULTS"`
			Notification  string `yaml:"notification" env:"REGISTRATION_STRICTNESS_NOTIFICATION"`
		} `yaml:"strictness"`

		Compensation struct {
			MaxAttempts     int    `yaml:"max_attempts" env:"REGISTRATION_COMPENSATION_MAX_ATTEMPTS"`
			InitialInterval string `yaml:"initial_interval" env:"REGISTRATION_COMPENSATION_INITIAL_INTERVAL"`
			Timeout         string `yaml:"timeout" env:"REGISTRATION_COMPENSATION_TIMEOUT"`
		} `yaml:"compensation"`
	} `yaml:"registration"`

	Identity struct {
		Provider string `yaml:"provider" env:"IDENTITY_PROVIDER"`

		Hosted struct {
			URL        string `yaml:"url" env:"IDENTITY_HOSTED_URL"`
			ServiceKey string `yaml:"service_key" env:"IDENTITY_HOSTED_SERVICE_KEY"`
			Timeout    string `yaml:"timeout" env:"IDENTITY_HOSTED_TIMEOUT"`
		} `yaml:"hosted"`
	} `yaml:"identity"`

	Notification struct {
		Mode        string `yaml:"mode" env:"NOTIFICATION_MODE"`
		FunctionURL string `yaml:"function_url" env:"NOTIFICATION_FUNCTION_URL"`
		ServiceKey  string `yaml:"service_key" env:"NOTIFICATION_SERVICE_KEY"`
		AppURL      string `yaml:"app_url" env:"NOTIFICATION_APP_URL"`
		FromAddress string `yaml:"from_address" env:"NOTIFICATION_FROM_ADDRESS"`
		ClaimTTL    string `yaml:"claim_ttl" env:"NOTIFICATION_CLAIM_TTL"`
		Timeout     string `yaml:"timeout" env:"NOTIFICATION_TIMEOUT"`
	} `yaml:"notification"`

	Redis struct {
		Addr     string `yaml:"addr" env:"REDIS_ADDR"`
		Password string `yaml:"password" env:"REDIS_PASSWORD"`
		DB       int    `yaml:"db" env:"REDIS_DB"`
	} `yaml:"redis"`

	Reconciler struct {
		Enabled  bool   `yaml:"enabled" env:"RECONCILER_ENABLED"`
		Interval string `yaml:"interval" env:"RECONCILER_INTERVAL"`
		Timeout  string `yaml:"timeout" env:"RECONCILER_TIMEOUT"`
	} `yaml:"reconciler"`

	Tracing struct {
		Enabled     bool   `yaml:"enabled" env:"TRACING_ENABLED"`
		Endpoint    string `yaml:"endpoint" env:"TRACING_ENDPOINT"`
		ServiceName string `yaml:"service_name" env:"TRACING_SERVICE_NAME"`
	} `yaml:"tracing"`

	Seed struct {
		AdminIIN       string `yaml:"admin_iin" env:"SEED_ADMIN_IIN"`
		AdminEmail     string `yaml:"admin_email" env:"SEED_ADMIN_EMAIL"`
		AdminPassword  string `yaml:"admin_password" env:"SEED_ADMIN_PASSWORD"`
		AdminFirstName string `yaml:"admin_first_name" env:"SEED_ADMIN_FIRST_NAME"`
		AdminLastName  string `yaml:"admin_last_name" env:"SEED_ADMIN_LAST_NAME"`
	} `yaml:"seed"`
}

// LoadConfig loads configuration from a file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}
	setDefaults(config)

	if _, err := os.Stat(configPath); err == nil {
		file, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := yaml.Unmarshal(file, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := loadFromEnv(config); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// setDefaults sets default values for the configuration
func setDefaults(config *Config) {
	config.Server.Port = "8080"
	config.Server.Mode = "development"
	config.Server.StoragePath = "uploads"
	config.Server.PublicURL = "http://localhost:8080"

	config.Database.Host = "localhost"
	config.Database.Port = "5432"
	config.Database.User = "postgres"
	config.Database.Password = "postgres"
	config.Database.DBName = "teacherportfolio"
	config.Database.SSLMode = "disable"
	config.Database.MaxIdleConns = 5
	config.Database.MaxOpenConns = 20
	config.Database.ConnMaxLifetime = "1h"
	config.Database.MigrationsDir = "migrations"

	config.JWT.AccessTokenExpiration = "1h"
	config.JWT.RefreshTokenExpiration = "720h"
	config.JWT.Issuer = "teacherportfolio.kz"

	config.Logging.Level = "info"
	config.Logging.Format = "json"

	config.Registration.PendingGrace = "10m"
	config.Registration.Strictness.Certification = StrictnessBestEffort
	config.Registration.Strictness.Results = StrictnessBestEffort
	config.Registration.Strictness.Notification = StrictnessBestEffort
	config.Registration.Compensation.MaxAttempts = 4
	config.Registration.Compensation.InitialInterval = "200ms"
	config.Registration.Compensation.Timeout = "15s"

	config.Identity.Provider = IdentityProviderLocal
	config.Identity.Hosted.Timeout = "10s"

	config.Notification.Mode = NotificationModePassword
	config.Notification.AppURL = "http://localhost:3000"
	config.Notification.FromAddress = "noreply@teacherportfolio.kz"
	config.Notification.ClaimTTL = "72h"
	config.Notification.Timeout = "10s"

	config.Reconciler.Enabled = true
	config.Reconciler.Interval = "5m"
	config.Reconciler.Timeout = "30s"

	config.Tracing.ServiceName = "teacherportfolio"
}

// validateConfig ensures that the configuration is valid
func validateConfig(config *Config) error {
	if config.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if config.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}

	durations := map[string]string{
		"JWT access token expiration":   config.JWT.AccessTokenExpiration,
		"JWT refresh token expiration":  config.JWT.RefreshTokenExpiration,
		"registration pending grace":    config.Registration.PendingGrace,
		"compensation initial interval": config.Registration.Compensation.InitialInterval,
		"compensation timeout":          config.Registration.Compensation.Timeout,
		"notification claim TTL":        config.Notification.ClaimTTL,
		"notification timeout":          config.Notification.Timeout,
		"identity timeout":              config.Identity.Hosted.Timeout,
		"reconciler interval":           config.Reconciler.Interval,
		"reconciler timeout":            config.Reconciler.Timeout,
	}
	for name, value := range durations {
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid %s format: %w", name, err)
		}
	}

	strictness := map[string]*string{
		"certification": &config.Registration.Strictness.Certification,
		"results":       &config.Registration.Strictness.Results,
		"notification":  &config.Registration.Strictness.Notification,
	}
	for name, value := range strictness {
		*value = strings.ToLower(strings.TrimSpace(*value))
		if *value != StrictnessBestEffort && *value != StrictnessRequired {
			return fmt.Errorf("registration strictness for %s must be %q or %q", name, StrictnessBestEffort, StrictnessRequired)
		}
	}

	if config.Registration.Compensation.MaxAttempts < 1 {
		return fmt.Errorf("compensation max attempts must be at least 1")
	}

	switch config.Identity.Provider {
	case IdentityProviderLocal:
	case IdentityProviderHosted:
		if config.Identity.Hosted.URL == "" || config.Identity.Hosted.ServiceKey == "" {
			return fmt.Errorf("hosted identity provider requires url and service_key")
		}
	default:
		return fmt.Errorf("unknown identity provider %q", config.Identity.Provider)
	}

	switch config.Notification.Mode {
	case NotificationModePassword:
	case NotificationModeClaimLink:
		if config.Redis.Addr == "" {
			return fmt.Errorf("claim_link notification mode requires redis.addr")
		}
	default:
		return fmt.Errorf("unknown notification mode %q", config.Notification.Mode)
	}

	return nil
}

// GetPostgresConnectionString returns postgres connection string
func (c *Config) GetPostgresConnectionString() string {
	sslMode := c.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
		sslMode,
	)
}

// IsProduction reports whether the server runs in production mode
func (c *Config) IsProduction() bool {
	return strings.ToLower(c.Server.Mode) == "production"
}
