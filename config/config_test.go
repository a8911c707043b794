package config

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		wantErr bool
		check   func(*testing.T, *Config)
	}{
		{
			name: "default configuration",
			envVars: map[string]string{
				"ENVIRONMENT": "development",
			},
			wantErr: false,
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "development", cfg.Environment)
				assert.Equal(t, "0.0.0.0", cfg.Server.Host)
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, StorageDriverPostgres, cfg.Storage.Driver)
				assert.Equal(t, "localhost", cfg.Database.Host)
				assert.Equal(t, 5432, cfg.Database.Port)
				assert.Equal(t, "foodloop", cfg.Database.User)
				assert.Equal(t, "admin", cfg.Auth.AdminRole)
				assert.Equal(t, 20.0, cfg.Matching.MaxDistanceKm)
				assert.Equal(t, 120, cfg.Matching.MaxResponseTimeMinutes)
				assert.Equal(t, 28.6139, cfg.Matching.DefaultLatitude)
				assert.Equal(t, 77.2090, cfg.Matching.DefaultLongitude)
				assert.Equal(t, "foodloop.donations", cfg.Messaging.Exchange)
				assert.Empty(t, cfg.Messaging.RabbitMQURL)
				assert.True(t, cfg.Insights.EnableFallback)
				assert.Equal(t, 10, cfg.Insights.RequestsPerHour)
				assert.Equal(t, 50, cfg.Insights.RequestsPerDay)
				assert.Equal(t, InsightsProviderGemini, cfg.Insights.Provider)
				assert.Equal(t, "gemini-2.5-flash", cfg.Insights.Gemini.Model)
				assert.False(t, cfg.Observability.OTelEnabled)
			},
		},
		{
			name: "production configuration",
			envVars: map[string]string{
				"ENVIRONMENT":     "production",
				"SERVER_PORT":     "9000",
				"DB_HOST":         "prod-db.example.com",
				"DB_PORT":         "5433",
				"AUTH_JWT_SECRET": "s3cret",
				"GEMINI_API_KEY":  "key",
			},
			wantErr: false,
			check: func(t *testing.T, cfg *Config) {
				assert.True(t, cfg.IsProduction())
				assert.False(t, cfg.IsDevelopment())
				assert.Equal(t, 9000, cfg.Server.Port)
				assert.Equal(t, "prod-db.example.com", cfg.Database.Host)
				assert.Equal(t, 5433, cfg.Database.Port)
				assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
			},
		},
		{
			name: "custom timeouts and pool settings",
			envVars: map[string]string{
				"SERVER_READ_TIMEOUT":  "60s",
				"SERVER_WRITE_TIMEOUT": "90s",
				"DB_MAX_OPEN_CONNS":    "50",
				"DB_MAX_IDLE_CONNS":    "10",
			},
			wantErr: false,
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 60*time.Second, cfg.Server.ReadTimeout)
				assert.Equal(t, 90*time.Second, cfg.Server.WriteTimeout)
				assert.Equal(t, 50, cfg.Database.MaxOpenConns)
				assert.Equal(t, 10, cfg.Database.MaxIdleConns)
			},
		},
		{
			name: "memory storage with matching overrides",
			envVars: map[string]string{
				"STORAGE_DRIVER":             "memory",
				"SEED_PATH":                  "/etc/foodloop/orgs.yaml",
				"MATCH_MAX_DISTANCE_KM":      "35.5",
				"MATCH_MAX_RESPONSE_MINUTES": "45",
				"IMPACT_TIMEZONE":            "Asia/Kolkata",
				"CORS_ALLOWED_ORIGINS":       "https://a.example, https://b.example",
			},
			wantErr: false,
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, StorageDriverMemory, cfg.Storage.Driver)
				assert.Equal(t, "/etc/foodloop/orgs.yaml", cfg.Storage.SeedPath)
				assert.Equal(t, 35.5, cfg.Matching.MaxDistanceKm)
				assert.Equal(t, 45, cfg.Matching.MaxResponseTimeMinutes)
				assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)

				loc, err := cfg.Impact.Location()
				require.NoError(t, err)
				assert.Equal(t, "Asia/Kolkata", loc.String())
			},
		},
		{
			name: "observability configuration",
			envVars: map[string]string{
				"LOG_LEVEL":                    "debug",
				"LOG_FORMAT":                   "console",
				"OTEL_ENABLED":                 "true",
				"OTEL_EXPORTER_OTLP_ENDPOINT":  "collector:4317",
				"OTEL_TRACES_SAMPLER":          "traceidratio",
				"OTEL_METRICS_EXPORT_INTERVAL": "10s",
			},
			wantErr: false,
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "debug", cfg.Observability.LogLevel)
				assert.Equal(t, "console", cfg.Observability.LogFormat)
				assert.True(t, cfg.Observability.OTelEnabled)
				assert.Equal(t, "collector:4317", cfg.Observability.OTLPEndpoint)
				assert.Equal(t, "traceidratio", cfg.Observability.TracesSampler)
				assert.Equal(t, 10*time.Second, cfg.Observability.MetricsInterval)
			},
		},
		{
			name: "PORT env var takes precedence over SERVER_PORT",
			envVars: map[string]string{
				"PORT":        "9443",
				"SERVER_PORT": "9000",
			},
			wantErr: false,
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 9443, cfg.Server.Port)
			},
		},
		{
			name: "DATABASE_URL",
			envVars: map[string]string{
				"DATABASE_URL": "postgres://u:p@db.internal:6543/donations?sslmode=require",
			},
			wantErr: false,
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "donations", cfg.Database.Name())
				assert.Equal(t, "host=db.internal port=6543 database=donations", cfg.Database.LogString())
				assert.NotContains(t, cfg.Database.LogString(), "p@")
			},
		},
		{
			name: "production without JWT secret",
			envVars: map[string]string{
				"ENVIRONMENT": "production",
			},
			wantErr: true,
		},
		{
			name: "unknown insights provider",
			envVars: map[string]string{
				"INSIGHTS_PROVIDER": "bard",
			},
			wantErr: true,
		},
		{
			name: "invalid timezone",
			envVars: map[string]string{
				"IMPACT_TIMEZONE": "Mars/Olympus_Mons",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Clear environment
			os.Clearenv()

			// Set test environment variables
			for k, v := range tt.envVars {
				os.Setenv(k, v)
			}

			// Create config
			cfg, err := New(context.Background())

			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, cfg)

			if tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}

func validConfig() *Config {
	return &Config{
		Environment: "development",
		Storage:     StorageConfig{Driver: StorageDriverPostgres},
		Database: DatabaseConfig{
			Host:     "localhost",
			User:     "user",
			Database: "db",
		},
		Insights: InsightsConfig{Provider: InsightsProviderGemini},
		Observability: ObservabilityConfig{
			LogLevel: "info",
		},
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
		errMsg  string
	}{
		{
			name:    "valid development config",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "missing database host",
			mutate:  func(c *Config) { c.Database.Host = "" },
			wantErr: true,
			errMsg:  "database configuration required",
		},
		{
			name:    "missing database user",
			mutate:  func(c *Config) { c.Database.User = "" },
			wantErr: true,
			errMsg:  "database user is required",
		},
		{
			name: "memory storage needs no database",
			mutate: func(c *Config) {
				c.Storage.Driver = StorageDriverMemory
				c.Database = DatabaseConfig{}
			},
			wantErr: false,
		},
		{
			name:    "unknown storage driver",
			mutate:  func(c *Config) { c.Storage.Driver = "mongo" },
			wantErr: true,
			errMsg:  "unknown storage driver",
		},
		{
			name:    "negative matching default",
			mutate:  func(c *Config) { c.Matching.MaxDistanceKm = -1 },
			wantErr: true,
			errMsg:  "must not be negative",
		},
		{
			name:    "negative insight limit",
			mutate:  func(c *Config) { c.Insights.RequestsPerDay = -5 },
			wantErr: true,
			errMsg:  "insight request limits",
		},
		{
			name:    "invalid log level",
			mutate:  func(c *Config) { c.Observability.LogLevel = "loud" },
			wantErr: true,
			errMsg:  "invalid log level",
		},
		{
			name:    "missing log level",
			mutate:  func(c *Config) { c.Observability.LogLevel = "" },
			wantErr: true,
			errMsg:  "log level is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()

			if tt.wantErr {
				assert.Error(t, err)
				if tt.errMsg != "" {
					assert.Contains(t, err.Error(), tt.errMsg)
				}
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_IsProduction(t *testing.T) {
	tests := []struct {
		name        string
		environment string
		want        bool
	}{
		{"production", "production", true},
		{"prod", "prod", true},
		{"development", "development", false},
		{"dev", "dev", false},
		{"staging", "staging", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Environment: tt.environment}
			assert.Equal(t, tt.want, cfg.IsProduction())
		})
	}
}

func TestConfig_IsDevelopment(t *testing.T) {
	tests := []struct {
		name        string
		environment string
		want        bool
	}{
		{"development", "development", true},
		{"dev", "dev", true},
		{"production", "production", false},
		{"staging", "staging", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Environment: tt.environment}
			assert.Equal(t, tt.want, cfg.IsDevelopment())
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "testuser",
		Password: "testpass",
		Database: "testdb",
		SSLMode:  "disable",
	}

	expected := "host=localhost port=5432 user=testuser password=testpass dbname=testdb sslmode=disable"
	assert.Equal(t, expected, cfg.DSN())
}

func TestServerConfig_Address(t *testing.T) {
	cfg := ServerConfig{
		Host: "0.0.0.0",
		Port: 8080,
	}

	assert.Equal(t, "0.0.0.0:8080", cfg.Address())
}

func TestGetEnvAsInt(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		value        string
		defaultValue int
		want         int
	}{
		{"valid int", "TEST_INT", "42", 10, 42},
		{"empty value", "TEST_INT", "", 10, 10},
		{"invalid int", "TEST_INT", "not-a-number", 10, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Clearenv()
			if tt.value != "" {
				os.Setenv(tt.key, tt.value)
			}
			got := getEnvAsInt(tt.key, tt.defaultValue)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetEnvAsBool(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		value        string
		defaultValue bool
		want         bool
	}{
		{"true", "TEST_BOOL", "true", false, true},
		{"false", "TEST_BOOL", "false", true, false},
		{"empty value", "TEST_BOOL", "", true, true},
		{"invalid bool", "TEST_BOOL", "not-a-bool", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Clearenv()
			if tt.value != "" {
				os.Setenv(tt.key, tt.value)
			}
			got := getEnvAsBool(tt.key, tt.defaultValue)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetEnvAsFloat(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		value        string
		defaultValue float64
		want         float64
	}{
		{"valid float", "TEST_FLOAT", "3.14", 1.0, 3.14},
		{"empty value", "TEST_FLOAT", "", 1.0, 1.0},
		{"invalid float", "TEST_FLOAT", "not-a-number", 1.0, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Clearenv()
			if tt.value != "" {
				os.Setenv(tt.key, tt.value)
			}
			got := getEnvAsFloat(tt.key, tt.defaultValue)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetEnvAsDuration(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		value        string
		defaultValue time.Duration
		want         time.Duration
	}{
		{"valid duration", "TEST_DURATION", "30s", 10 * time.Second, 30 * time.Second},
		{"empty value", "TEST_DURATION", "", 10 * time.Second, 10 * time.Second},
		{"invalid duration", "TEST_DURATION", "not-a-duration", 10 * time.Second, 10 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Clearenv()
			if tt.value != "" {
				os.Setenv(tt.key, tt.value)
			}
			got := getEnvAsDuration(tt.key, tt.defaultValue)
			assert.Equal(t, tt.want, got)
		})
	}
}
