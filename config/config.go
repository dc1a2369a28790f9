package config

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the complete gateway configuration
type Config struct {
	Server        ServerConfig
	Gate          GateConfig
	Webhook       WebhookConfig
	Backend       BackendConfig
	Frontend      FrontendConfig
	Database      *DatabaseConfig // Optional: delivery receipts are disabled when nil
	Observability ObservabilityConfig
	Environment   string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// GateConfig holds the session gate configuration
type GateConfig struct {
	CookieNames    []string // Checked in order; the first non-empty value counts as a credential
	RootPath       string
	ProtectedEntry string   // Where authenticated visitors of RootPath are sent
	PublicPrefixes []string // Appended after the default allow-list
}

// WebhookConfig holds the document-signing webhook configuration
type WebhookConfig struct {
	SharedKey      string
	SignatureParam string
	MaxBodyBytes   int64
	EventTimeout   time.Duration
	ReceiptWorkers int
	ReceiptBuffer  int
}

// BackendConfig holds the REST backend the proxy and downstream actions talk to
type BackendConfig struct {
	BaseURL       string
	ServiceSecret string // HS256 secret for service bearer tokens
	ServiceIssuer string
	Timeout       time.Duration
}

// FrontendConfig holds the UI upstream configuration
type FrontendConfig struct {
	UpstreamURL string
	StaticDir   string // Served locally under /static/ when set
	CORSOrigins []string
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	ConnectionString string
	MaxOpenConns     int
	MaxIdleConns     int
	ConnMaxLifetime  time.Duration
}

// ObservabilityConfig holds logging configuration
type ObservabilityConfig struct {
	LogLevel  string
	LogFormat string // json or console
}

// New creates a new Config instance by loading environment variables
func New(ctx context.Context) (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getPort(),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Gate: GateConfig{
			CookieNames:    getEnvAsList("GATE_SESSION_COOKIES", []string{"auth_token", "session"}),
			RootPath:       getEnv("GATE_ROOT_PATH", "/"),
			ProtectedEntry: getEnv("GATE_PROTECTED_ENTRY", "/dashboard"),
			PublicPrefixes: getEnvAsList("GATE_PUBLIC_PREFIXES", nil),
		},
		Webhook: WebhookConfig{
			SharedKey:      getEnv("WEBHOOK_SHARED_KEY", ""),
			SignatureParam: getEnv("WEBHOOK_SIGNATURE_PARAM", "signature"),
			MaxBodyBytes:   int64(getEnvAsInt("WEBHOOK_MAX_BODY_BYTES", 1<<20)),
			EventTimeout:   getEnvAsDuration("WEBHOOK_EVENT_TIMEOUT", 10*time.Second),
			ReceiptWorkers: getEnvAsInt("WEBHOOK_RECEIPT_WORKERS", 2),
			ReceiptBuffer:  getEnvAsInt("WEBHOOK_RECEIPT_BUFFER", 1000),
		},
		Backend: BackendConfig{
			BaseURL:       getEnv("BACKEND_BASE_URL", "http://localhost:8080"),
			ServiceSecret: getEnv("BACKEND_SERVICE_SECRET", ""),
			ServiceIssuer: getEnv("BACKEND_SERVICE_ISSUER", "lending-edge"),
			Timeout:       getEnvAsDuration("BACKEND_TIMEOUT", 15*time.Second),
		},
		Frontend: FrontendConfig{
			UpstreamURL: getEnv("FRONTEND_UPSTREAM_URL", "http://localhost:3000"),
			StaticDir:   getEnv("FRONTEND_STATIC_DIR", ""),
			CORSOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:*"}),
		},
		Database: loadDatabaseConfig(),
		Observability: ObservabilityConfig{
			LogLevel:  getEnv("LOG_LEVEL", "info"),
			LogFormat: getEnv("LOG_FORMAT", "json"),
		},
	}

	// Validate the configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if all required configuration fields are set.
// A missing webhook key is fatal: the endpoint must not accept traffic it cannot verify.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Webhook.SharedKey) == "" {
		return fmt.Errorf("webhook shared key is required (WEBHOOK_SHARED_KEY)")
	}
	if c.Webhook.SignatureParam == "" {
		return fmt.Errorf("webhook signature parameter name is required")
	}
	if c.Webhook.MaxBodyBytes <= 0 {
		return fmt.Errorf("webhook max body bytes must be positive")
	}
	if c.Webhook.EventTimeout <= 0 {
		return fmt.Errorf("webhook event timeout must be positive")
	}

	if err := validatePath("gate root path", c.Gate.RootPath); err != nil {
		return err
	}
	if err := validatePath("gate protected entry", c.Gate.ProtectedEntry); err != nil {
		return err
	}
	if c.Gate.RootPath == c.Gate.ProtectedEntry {
		return fmt.Errorf("gate protected entry must differ from the root path")
	}
	if len(c.Gate.CookieNames) == 0 {
		return fmt.Errorf("at least one session cookie name is required")
	}

	if err := validateURL("backend base URL", c.Backend.BaseURL); err != nil {
		return err
	}
	if err := validateURL("frontend upstream URL", c.Frontend.UpstreamURL); err != nil {
		return err
	}

	if c.IsProduction() && c.Backend.ServiceSecret == "" {
		return fmt.Errorf("backend service secret is required in production")
	}

	if c.Observability.LogLevel == "" {
		return fmt.Errorf("log level is required")
	}

	return nil
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev"
}

// LogString returns a safe string for logging (no password).
func (c *DatabaseConfig) LogString() string {
	u, err := url.Parse(c.ConnectionString)
	if err != nil {
		return "host=<from DATABASE_URL>"
	}
	port := u.Port()
	if port == "" {
		port = "5432"
	}
	return fmt.Sprintf("host=%s port=%s database=%s", u.Hostname(), port, strings.TrimPrefix(u.Path, "/"))
}

// Address returns the HTTP server address
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// loadDatabaseConfig loads database config from DATABASE_URL.
// Returns nil when not set (delivery receipts are discarded).
func loadDatabaseConfig() *DatabaseConfig {
	dbURL := getEnv("DATABASE_URL", "")
	if dbURL == "" {
		return nil
	}
	return &DatabaseConfig{
		ConnectionString: dbURL,
		MaxOpenConns:     getEnvAsInt("DB_MAX_OPEN_CONNS", 10),
		MaxIdleConns:     getEnvAsInt("DB_MAX_IDLE_CONNS", 2),
		ConnMaxLifetime:  getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
	}
}

func validatePath(name, p string) error {
	if !strings.HasPrefix(p, "/") {
		return fmt.Errorf("%s must start with '/': %q", name, p)
	}
	return nil
}

func validateURL(name, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", name, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid %s: scheme must be http or https", name)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid %s: host is required", name)
	}
	return nil
}

// Helper functions

// getPort returns the server port from PORT or SERVER_PORT env vars (default: 8000)
func getPort() int {
	for _, key := range []string{"PORT", "SERVER_PORT"} {
		if value := os.Getenv(key); value != "" {
			if p, err := strconv.Atoi(value); err == nil {
				return p
			}
		}
	}
	return 8000
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

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsList splits a comma separated value, dropping empty entries
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
