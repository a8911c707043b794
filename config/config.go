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

// Storage drivers
const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

// Insight providers
const (
	InsightsProviderGemini = "gemini"
	InsightsProviderOpenAI = "openai"
)

// Config represents the complete application configuration
type Config struct {
	Server        ServerConfig
	Storage       StorageConfig
	Database      DatabaseConfig
	Auth          AuthConfig
	Matching      MatchingConfig
	Impact        ImpactConfig
	Messaging     MessagingConfig
	Insights      InsightsConfig
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
	AllowedOrigins  []string
}

// StorageConfig selects the persistence backend
type StorageConfig struct {
	Driver   string // postgres or memory
	SeedPath string // Optional YAML fixture; the embedded fixture is used when empty
}

// DatabaseConfig holds PostgreSQL database configuration.
// When ConnectionString (from DATABASE_URL) is set, it takes precedence over individual fields.
type DatabaseConfig struct {
	ConnectionString string // From DATABASE_URL when set
	Host             string
	Port             int
	User             string
	Password         string
	Database         string
	SSLMode          string
	MaxOpenConns     int
	MaxIdleConns     int
	ConnMaxLifetime  time.Duration
}

// AuthConfig holds bearer token validation settings
type AuthConfig struct {
	JWTSecret   string
	JWTIssuer   string
	JWTAudience string
	AdminRole   string
}

// MatchingConfig holds default eligibility criteria and the fallback donor location
type MatchingConfig struct {
	MaxDistanceKm          float64
	MaxResponseTimeMinutes int
	MinAvailableKg         float64
	DefaultLatitude        float64
	DefaultLongitude       float64
}

// ImpactConfig holds impact aggregation settings
type ImpactConfig struct {
	Timezone string // IANA name that defines "today"
}

// MessagingConfig holds RabbitMQ settings. An empty URL disables publishing.
type MessagingConfig struct {
	RabbitMQURL string
	Exchange    string
}

// InsightsConfig holds AI insight provider settings
type InsightsConfig struct {
	Provider   string
	Gemini     ProviderConfig
	OpenAI     ProviderConfig
	Timeout    time.Duration
	MaxRetries int

	// EnableFallback lets another configured provider serve when the primary fails
	EnableFallback bool

	// Per-donor request caps for insight generation, 0 disables a window
	RequestsPerHour int
	RequestsPerDay  int
}

// ProviderConfig holds one provider's credentials and endpoint
type ProviderConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// ObservabilityConfig holds logging and telemetry configuration
type ObservabilityConfig struct {
	LogLevel        string
	LogFormat       string // json or console
	OTelEnabled     bool
	OTLPEndpoint    string
	ServiceName     string
	TracesSampler   string
	MetricsInterval time.Duration
}

// New creates a new Config instance by loading environment variables
func New(ctx context.Context) (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load(".env")

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getPort(),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			AllowedOrigins:  getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		},
		Storage: StorageConfig{
			Driver:   getEnv("STORAGE_DRIVER", StorageDriverPostgres),
			SeedPath: getEnv("SEED_PATH", ""),
		},
		Database: loadDatabaseConfig(),
		Auth: AuthConfig{
			JWTSecret:   getEnv("AUTH_JWT_SECRET", ""),
			JWTIssuer:   getEnv("AUTH_JWT_ISSUER", ""),
			JWTAudience: getEnv("AUTH_JWT_AUDIENCE", ""),
			AdminRole:   getEnv("AUTH_ADMIN_ROLE", "admin"),
		},
		Matching: MatchingConfig{
			MaxDistanceKm:          getEnvAsFloat("MATCH_MAX_DISTANCE_KM", 20),
			MaxResponseTimeMinutes: getEnvAsInt("MATCH_MAX_RESPONSE_MINUTES", 120),
			MinAvailableKg:         getEnvAsFloat("MATCH_MIN_AVAILABLE_KG", 0),
			DefaultLatitude:        getEnvAsFloat("DONOR_DEFAULT_LAT", 28.6139),
			DefaultLongitude:       getEnvAsFloat("DONOR_DEFAULT_LON", 77.2090),
		},
		Impact: ImpactConfig{
			Timezone: getEnv("IMPACT_TIMEZONE", "Local"),
		},
		Messaging: MessagingConfig{
			RabbitMQURL: getEnv("RABBITMQ_URL", ""),
			Exchange:    getEnv("RABBITMQ_EXCHANGE", "foodloop.donations"),
		},
		Insights: InsightsConfig{
			Provider: getEnv("INSIGHTS_PROVIDER", InsightsProviderGemini),
			Gemini: ProviderConfig{
				APIKey:  getEnv("GEMINI_API_KEY", ""),
				Model:   getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
				BaseURL: getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
			},
			OpenAI: ProviderConfig{
				APIKey:  getEnv("OPENAI_API_KEY", ""),
				Model:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),
				BaseURL: getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			},
			Timeout:         getEnvAsDuration("INSIGHTS_TIMEOUT", 30*time.Second),
			MaxRetries:      getEnvAsInt("INSIGHTS_MAX_RETRIES", 3),
			EnableFallback:  getEnvAsBool("INSIGHTS_ENABLE_FALLBACK", true),
			RequestsPerHour: getEnvAsInt("INSIGHTS_REQUESTS_PER_HOUR", 10),
			RequestsPerDay:  getEnvAsInt("INSIGHTS_REQUESTS_PER_DAY", 50),
		},
		Observability: ObservabilityConfig{
			LogLevel:        getEnv("LOG_LEVEL", "info"),
			LogFormat:       getEnv("LOG_FORMAT", "json"),
			OTelEnabled:     getEnvAsBool("OTEL_ENABLED", false),
			OTLPEndpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			ServiceName:     getEnv("OTEL_SERVICE_NAME", "donation-engine"),
			TracesSampler:   getEnv("OTEL_TRACES_SAMPLER", "always_on"),
			MetricsInterval: getEnvAsDuration("OTEL_METRICS_EXPORT_INTERVAL", 30*time.Second),
		},
	}

	// Validate the configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if all required configuration fields are set
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case StorageDriverPostgres:
		if c.Database.ConnectionString == "" && c.Database.Host == "" {
			return fmt.Errorf("database configuration required: set DATABASE_URL or DB_HOST")
		}
		if c.Database.ConnectionString == "" {
			if c.Database.User == "" {
				return fmt.Errorf("database user is required")
			}
			if c.Database.Database == "" {
				return fmt.Errorf("database name is required")
			}
		}
	case StorageDriverMemory:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}

	if c.IsProduction() && c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT secret is required in production")
	}

	switch c.Insights.Provider {
	case InsightsProviderGemini, InsightsProviderOpenAI:
	default:
		return fmt.Errorf("unknown insights provider %q", c.Insights.Provider)
	}

	if c.Matching.MaxDistanceKm < 0 || c.Matching.MinAvailableKg < 0 || c.Matching.MaxResponseTimeMinutes < 0 {
		return fmt.Errorf("matching defaults must not be negative")
	}

	if c.Insights.RequestsPerHour < 0 || c.Insights.RequestsPerDay < 0 {
		return fmt.Errorf("insight request limits must not be negative")
	}

	if _, err := c.Impact.Location(); err != nil {
		return fmt.Errorf("invalid impact timezone: %w", err)
	}

	switch strings.ToLower(c.Observability.LogLevel) {
	case "debug", "info", "warn", "error":
	case "":
		return fmt.Errorf("log level is required")
	default:
		return fmt.Errorf("invalid log level %q", c.Observability.LogLevel)
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

// Location returns the time zone that defines "today" for impact figures
func (c *ImpactConfig) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

// DSN returns the PostgreSQL connection string.
// Uses ConnectionString (from DATABASE_URL) when set; otherwise builds from individual fields.
func (c *DatabaseConfig) DSN() string {
	if c.ConnectionString != "" {
		return c.ConnectionString
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// Name returns the database name, parsed from ConnectionString when set
func (c *DatabaseConfig) Name() string {
	if c.ConnectionString != "" {
		if u, err := url.Parse(c.ConnectionString); err == nil {
			return strings.TrimPrefix(u.Path, "/")
		}
		return ""
	}
	return c.Database
}

// LogString returns a safe string for logging (no password). Parses ConnectionString when set.
func (c *DatabaseConfig) LogString() string {
	if c.ConnectionString != "" {
		u, err := url.Parse(c.ConnectionString)
		if err == nil {
			host := u.Hostname()
			port := u.Port()
			if port == "" {
				port = "5432"
			}
			return fmt.Sprintf("host=%s port=%s database=%s", host, port, c.Name())
		}
		return "host=<from DATABASE_URL>"
	}
	return fmt.Sprintf("host=%s port=%d database=%s", c.Host, c.Port, c.Database)
}

// loadDatabaseConfig loads database config from DATABASE_URL or DB_* env vars
func loadDatabaseConfig() DatabaseConfig {
	dbURL := getEnv("DATABASE_URL", "")
	if dbURL != "" {
		return DatabaseConfig{
			ConnectionString: dbURL,
			MaxOpenConns:     getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:     getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime:  getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		}
	}
	return DatabaseConfig{
		Host:            getEnv("DB_HOST", "localhost"),
		Port:            getEnvAsInt("DB_PORT", 5432),
		User:            getEnv("DB_USER", "foodloop"),
		Password:        getEnv("DB_PASSWORD", ""),
		Database:        getEnv("DB_NAME", "foodloop"),
		SSLMode:         getEnv("DB_SSLMODE", "disable"),
		MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
		MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
	}
}

// Address returns the HTTP server address
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Helper functions

// getPort returns the server port from PORT or SERVER_PORT env vars (default: 8080)
func getPort() int {
	if value := os.Getenv("PORT"); value != "" {
		if p, err := strconv.Atoi(value); err == nil {
			return p
		}
	}
	if value := os.Getenv("SERVER_PORT"); value != "" {
		if p, err := strconv.Atoi(value); err == nil {
			return p
		}
	}
	return 8080
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

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
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

// getEnvAsList splits a comma-separated variable, dropping empty entries
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
