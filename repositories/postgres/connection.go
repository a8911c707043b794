package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/XSAM/otelsql"
	"github.com/foodloop/donation-engine/config"
	_ "github.com/lib/pq" // PostgreSQL driver
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.uber.org/zap"
)

// DB wraps the sql.DB connection pool
type DB struct {
	*sql.DB
	logger *zap.Logger
}

// NewDB creates a new database connection pool instrumented with OpenTelemetry
func NewDB(cfg config.DatabaseConfig, logger *zap.Logger) (*DB, error) {
	attrs := otelsql.WithAttributes(
		semconv.DBSystemPostgreSQL,
		semconv.DBName(cfg.Name()),
	)

	db, err := otelsql.Open("postgres", cfg.DSN(), attrs)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := otelsql.RegisterDBStatsMetrics(db, attrs); err != nil {
		logger.Warn("failed to register database stats metrics", zap.Error(err))
	}

	// Configure connection pool
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("database connection established",
		zap.String("connection", cfg.LogString()))

	return &DB{
		DB:     db,
		logger: logger,
	}, nil
}

// NewFromSQL wraps an existing pool, used with sqlmock in tests
func NewFromSQL(db *sql.DB, logger *zap.Logger) *DB {
	return &DB{DB: db, logger: logger}
}

// Close closes the database connection pool
func (db *DB) Close() error {
	db.logger.Info("closing database connection")
	return db.DB.Close()
}

// HealthCheck performs a health check on the database
func (db *DB) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}

	// Check if we can query
	var result int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("database query check failed: %w", err)
	}

	return nil
}

// Stats returns database connection pool statistics
func (db *DB) Stats() sql.DBStats {
	return db.DB.Stats()
}

// InitSchema initializes the database schema
func (db *DB) InitSchema(ctx context.Context) error {
	schema := `
		-- Organizations table
		CREATE TABLE IF NOT EXISTS organizations (
			id UUID PRIMARY KEY,
			slug VARCHAR(100) NOT NULL UNIQUE,
			name VARCHAR(255) NOT NULL,
			address TEXT NOT NULL DEFAULT '',
			phone VARCHAR(50) NOT NULL DEFAULT '',
			email VARCHAR(255) NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			latitude DOUBLE PRECISION NOT NULL,
			longitude DOUBLE PRECISION NOT NULL,
			total_capacity_kg DOUBLE PRECISION NOT NULL CHECK (total_capacity_kg >= 0),
			current_load_kg DOUBLE PRECISION NOT NULL DEFAULT 0 CHECK (current_load_kg >= 0),
			food_categories TEXT[] NOT NULL DEFAULT '{}',
			response_time_minutes INTEGER NOT NULL DEFAULT 0,
			is_active BOOLEAN NOT NULL DEFAULT true,
			rating DOUBLE PRECISION,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			CHECK (current_load_kg <= total_capacity_kg)
		);

		-- Donation offers table
		CREATE TABLE IF NOT EXISTS donation_offers (
			id UUID PRIMARY KEY,
			org_id UUID NOT NULL REFERENCES organizations(id),
			donor_id VARCHAR(255) NOT NULL,
			quantity_kg DOUBLE PRECISION NOT NULL CHECK (quantity_kg > 0),
			food_type VARCHAR(50) NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			pickup_time TIMESTAMPTZ NOT NULL,
			status VARCHAR(20) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			last_transition_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		-- Audit logs table
		CREATE TABLE IF NOT EXISTS audit_logs (
			id UUID PRIMARY KEY,
			org_id UUID NOT NULL,
			actor_id VARCHAR(255),
			action VARCHAR(100) NOT NULL,
			resource_type VARCHAR(100) NOT NULL,
			resource_id UUID,
			details JSONB,
			request_id VARCHAR(255),
			timestamp TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		-- Feedback table
		CREATE TABLE IF NOT EXISTS feedback (
			id UUID PRIMARY KEY,
			dish_name VARCHAR(255) NOT NULL,
			meal_type VARCHAR(20) NOT NULL,
			rating SMALLINT NOT NULL CHECK (rating BETWEEN 1 AND 4),
			transcript TEXT NOT NULL DEFAULT '',
			sentiment VARCHAR(20) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		-- Waste records table
		CREATE TABLE IF NOT EXISTS waste_records (
			id UUID PRIMARY KEY,
			date DATE NOT NULL,
			dish_name VARCHAR(255) NOT NULL,
			meal_type VARCHAR(20) NOT NULL,
			wastage_kg DOUBLE PRECISION NOT NULL CHECK (wastage_kg > 0),
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		-- Indexes for performance
		CREATE INDEX IF NOT EXISTS idx_organizations_is_active ON organizations(is_active);

		CREATE INDEX IF NOT EXISTS idx_donation_offers_org_id ON donation_offers(org_id);
		CREATE INDEX IF NOT EXISTS idx_donation_offers_donor_id ON donation_offers(donor_id);
		CREATE INDEX IF NOT EXISTS idx_donation_offers_status ON donation_offers(status);
		CREATE INDEX IF NOT EXISTS idx_donation_offers_created_at ON donation_offers(created_at);

		CREATE INDEX IF NOT EXISTS idx_audit_logs_resource_id ON audit_logs(resource_id);
		CREATE INDEX IF NOT EXISTS idx_audit_logs_timestamp ON audit_logs(timestamp);

		CREATE INDEX IF NOT EXISTS idx_feedback_created_at ON feedback(created_at);
		CREATE INDEX IF NOT EXISTS idx_waste_records_date ON waste_records(date);
	`

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	db.logger.Info("database schema initialized successfully")
	return nil
}
