package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config structure represents the application configuration
type Config struct {
	Server struct {
		Port            string   `yaml:"port" env:"SERVER_PORT"`
		Mode            string   `yaml:"mode" env:"SERVER_MODE"`
		PublicBaseURL   string   `yaml:"public_base_url" env:"SERVER_PUBLIC_BASE_URL"`
		StoragePath     string   `yaml:"storage_path" env:"SERVER_STORAGE_PATH"`
		CORSOrigins     []string `yaml:"cors_origins" env:"SERVER_CORS_ORIGINS"`
		ShutdownTimeout string   `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT"`
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
		MigrationsPath  string `yaml:"migrations_path" env:"DB_MIGRATIONS_PATH"`
	} `yaml:"database"`

	JWT struct {
		Secret                 string `yaml:"secret" env:"JWT_SECRET"`
		AccessTokenExpiration  string `yaml:"access_token_expiration" env:"JWT_ACCESS_TOKEN_EXPIRATION"`
		RefreshTokenExpiration string `yaml:"refresh_token_expiration" env:"JWT_REFRESH_TOKEN_EXPIRATION"`
		Issuer                 string `yaml:"issuer" env:"JWT_ISSUER"`
	} `yaml:"jwt"`

	Logging struct {
		Level  string `yaml:"level" env:"LOG_LEVEL"`
		Format string `yaml:"format" env:"LOG_FORMAT"`
	} `yaml:"logging"`

	// Redis is optional; an empty address keeps caches in process memory.
	Redis struct {
		Addr     string `yaml:"addr" env:"REDIS_ADDR"`
		Password string `yaml:"password" env:"REDIS_PASSWORD"`
		DB       int    `yaml:"db" env:"REDIS_DB"`
		Prefix   string `yaml:"prefix" env:"REDIS_PREFIX"`
	} `yaml:"redis"`

	Session struct {
		LookupTimeout string `yaml:"lookup_timeout" env:"SESSION_LOOKUP_TIMEOUT"`
		RoleCacheTTL  string `yaml:"role_cache_ttl" env:"SESSION_ROLE_CACHE_TTL"`
		CookieName    string `yaml:"cookie_name" env:"SESSION_COOKIE_NAME"`
		CookieSecret  string `yaml:"cookie_secret" env:"SESSION_COOKIE_SECRET"`
	} `yaml:"session"`

	OAuth struct {
		IssuerURL    string `yaml:"issuer_url" env:"OAUTH_ISSUER_URL"`
		ClientID     string `yaml:"client_id" env:"OAUTH_CLIENT_ID"`
		ClientSecret string `yaml:"client_secret" env:"OAUTH_CLIENT_SECRET"`
		RedirectURL  string `yaml:"redirect_url" env:"OAUTH_REDIRECT_URL"`
	} `yaml:"oauth"`

	// AMQP is optional; an empty URL keeps change events in process.
	AMQP struct {
		URL      string `yaml:"url" env:"AMQP_URL"`
		Exchange string `yaml:"exchange" env:"AMQP_EXCHANGE"`
	} `yaml:"amqp"`

	SendGrid struct {
		APIKey    string `yaml:"api_key" env:"SENDGRID_API_KEY"`
		FromName  string `yaml:"from_name" env:"SENDGRID_FROM_NAME"`
		FromEmail string `yaml:"from_email" env:"SENDGRID_FROM_EMAIL"`
		LoginURL  string `yaml:"login_url" env:"SENDGRID_LOGIN_URL"`
	} `yaml:"sendgrid"`

	Breaker struct {
		MaxRequests         int    `yaml:"max_requests" env:"BREAKER_MAX_REQUESTS"`
		Interval            string `yaml:"interval" env:"BREAKER_INTERVAL"`
		Timeout             string `yaml:"timeout" env:"BREAKER_TIMEOUT"`
		ConsecutiveFailures int    `yaml:"consecutive_failures" env:"BREAKER_CONSECUTIVE_FAILURES"`
	} `yaml:"breaker"`

	Seed struct {
		SuperAdminEmail    string `yaml:"super_admin_email" env:"SEED_SUPER_ADMIN_EMAIL"`
		SuperAdminPassword string `yaml:"super_admin_password" env:"SEED_SUPER_ADMIN_PASSWORD"`
	} `yaml:"seed"`
}

// LoadDotEnv loads variables from the given .env files into the process
// environment without overriding variables that are already set. Missing
// files are ignored.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
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

	// Override with environment variables
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
	config.Server.PublicBaseURL = "http://localhost:8080"
	config.Server.StoragePath = "./storage"
	config.Server.CORSOrigins = []string{"http://localhost:5173"}
	config.Server.ShutdownTimeout = "10s"

	config.Database.Host = "localhost"
	config.Database.Port = "5432"
	config.Database.User = "postgres"
	config.Database.Password = "postgres"
	config.Database.DBName = "collegeerp"
	config.Database.SSLMode = "disable"
	config.Database.MaxIdleConns = 5
	config.Database.MaxOpenConns = 20
	config.Database.ConnMaxLifetime = "1h"
	config.Database.MigrationsPath = "migrations"

	config.JWT.AccessTokenExpiration = "1h"
	config.JWT.RefreshTokenExpiration = "720h"
	config.JWT.Issuer = "collegeerp"

	config.Logging.Level = "info"
	config.Logging.Format = "json"

	config.Redis.Prefix = "erp:"

	config.Session.LookupTimeout = "5s"
	config.Session.RoleCacheTTL = "5m"
	config.Session.CookieName = "erp_oauth"

	config.OAuth.IssuerURL = "https://accounts.google.com"

	config.AMQP.Exchange = "erp.changes"

	config.SendGrid.FromName = "College ERP"

	config.Breaker.MaxRequests = 3
	config.Breaker.Interval = "10s"
	config.Breaker.Timeout = "10s"
	config.Breaker.ConsecutiveFailures = 3
}

// loadFromEnv overrides configuration with environment variables
func loadFromEnv(config *Config) error {
	return applyEnvOverrides(config)
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
		"JWT access token expiration":  config.JWT.AccessTokenExpiration,
		"JWT refresh token expiration": config.JWT.RefreshTokenExpiration,
		"database conn max lifetime":   config.Database.ConnMaxLifetime,
		"server shutdown timeout":      config.Server.ShutdownTimeout,
		"session lookup timeout":       config.Session.LookupTimeout,
		"session role cache ttl":       config.Session.RoleCacheTTL,
		"breaker interval":             config.Breaker.Interval,
		"breaker timeout":              config.Breaker.Timeout,
	}
	for name, value := range durations {
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid %s format: %w", name, err)
		}
	}

	if config.OAuth.ClientID != "" && config.Session.CookieSecret == "" {
		return fmt.Errorf("session cookie secret is required when OAuth is enabled")
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

// Duration parses a duration that validateConfig already checked.
func Duration(value string) time.Duration {
	d, _ := time.ParseDuration(value)
	return d
}

// OAuthEnabled reports whether Google sign-in is configured.
func (c *Config) OAuthEnabled() bool {
	return c.OAuth.ClientID != ""
}

// IsProduction reports whether the server runs in release mode.
func (c *Config) IsProduction() bool {
	mode := strings.ToLower(c.Server.Mode)
	return mode == "production" || mode == "release"
}

// GetEnv gets an environment variable or returns a default value
func GetEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// GetEnvAsInt gets an environment variable as an integer or returns a default value
func GetEnvAsInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(GetEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}
