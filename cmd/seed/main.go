// Command seed loads partner organizations into Postgres.
//
// Usage:
//
//	seed [-file organizations.yaml]
//
// Without -file the embedded fixture is used. Re-running is safe: organizations are keyed by
// slug and their current load is kept.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/foodloop/donation-engine/config"
	"github.com/foodloop/donation-engine/internal/observability"
	"github.com/foodloop/donation-engine/models"
	"github.com/foodloop/donation-engine/repositories/postgres"
	"github.com/foodloop/donation-engine/seed"
	"go.uber.org/zap"
)

func main() {
	file := flag.String("file", "", "YAML fixture to load (defaults to the embedded fixture)")
	timeout := flag.Duration("timeout", time.Minute, "overall timeout")
	flag.Parse()

	if err := run(*file, *timeout); err != nil {
		fmt.Fprintf(os.Stderr, "seed: %v\n", err)
		os.Exit(1)
	}
}

func run(file string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	logger, err := observability.NewLogger(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	orgs, err := loadFixture(file)
	if err != nil {
		return err
	}

	cfg, err := config.New(ctx)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.Storage.Driver != config.StorageDriverPostgres {
		return fmt.Errorf("seed requires STORAGE_DRIVER=%s, got %q", config.StorageDriverPostgres, cfg.Storage.Driver)
	}

	factory, err := postgres.NewRepositoryFactory(cfg, logger)
	if err != nil {
		return err
	}
	defer factory.Close()

	if err := factory.GetDB().InitSchema(ctx); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	repos := factory.NewRepositories()
	if err := seed.Apply(ctx, repos.Organizations, orgs, logger); err != nil {
		return err
	}

	logger.Info("seed complete", zap.String("source", fixtureName(file)))
	return nil
}

func loadFixture(file string) ([]*models.Organization, error) {
	if file == "" {
		return seed.Default()
	}
	return seed.LoadFile(file)
}

func fixtureName(file string) string {
	if file == "" {
		return "embedded"
	}
	return file
}
