package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/foodloop/donation-engine/config"
	"github.com/foodloop/donation-engine/handlers"
	"github.com/foodloop/donation-engine/internal/messaging"
	"github.com/foodloop/donation-engine/internal/observability"
	"github.com/foodloop/donation-engine/middleware"
	"github.com/foodloop/donation-engine/models"
	"github.com/foodloop/donation-engine/repositories"
	"github.com/foodloop/donation-engine/repositories/memory"
	"github.com/foodloop/donation-engine/repositories/postgres"
	"github.com/foodloop/donation-engine/seed"
	"github.com/foodloop/donation-engine/services/audit"
	"github.com/foodloop/donation-engine/services/capacity"
	"github.com/foodloop/donation-engine/services/donation"
	"github.com/foodloop/donation-engine/services/geo"
	"github.com/foodloop/donation-engine/services/impact"
	"github.com/foodloop/donation-engine/services/insights"
	"github.com/foodloop/donation-engine/services/matching"
	"github.com/foodloop/donation-engine/services/organization"
	"github.com/foodloop/donation-engine/services/providers"
	"github.com/foodloop/donation-engine/services/providers/gemini"
	"github.com/foodloop/donation-engine/services/providers/openai"
	"github.com/foodloop/donation-engine/services/ratelimit"
	"github.com/foodloop/donation-engine/services/records"
	"github.com/foodloop/donation-engine/services/routing"
	"go.uber.org/zap"
)

const (
	// auditStopTimeout bounds how long Close waits for queued audit entries
	auditStopTimeout = 5 * time.Second

	limiterCleanupInterval = 10 * time.Minute
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config  *config.Config
	Logger  *zap.Logger
	Metrics *observability.Metrics
	DB      *postgres.DB // nil with memory storage

	// Repository Factory (postgres only)
	RepoFactory *postgres.RepositoryFactory

	// Repositories
	Repos     *repositories.Repositories
	TxManager repositories.TransactionManager

	// Messaging
	Publisher messaging.PublisherInterface

	// Services
	Audit         *audit.AuditService
	Matching      *matching.Service
	Donations     *donation.Service
	Organizations *organization.Service
	Impact        *impact.Service
	Records       *records.Service
	Insights      *insights.Service

	// InsightLimiter caps insight generation per donor
	InsightLimiter *ratelimit.Service

	// Providers
	ProviderRegistry *providers.Registry
	ProviderRouter   *routing.Service

	// HTTP
	AuthMiddleware      *middleware.AuthMiddleware
	HealthHandler       *handlers.HealthHandler
	MatchHandler        *handlers.MatchHandler
	OrganizationHandler *handlers.OrganizationHandler
	DonationHandler     *handlers.DonationHandler
	ImpactHandler       *handlers.ImpactHandler
	RecordsHandler      *handlers.RecordsHandler
	InsightHandler      *handlers.InsightHandler

	stopWorkers context.CancelFunc
}

// NewDependencies creates and wires up all application dependencies.
// metrics may be nil, in which case nothing is recorded.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger, metrics *observability.Metrics) (*Dependencies, error) {
	deps := &Dependencies{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics,
	}

	if err := deps.initStorage(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	if err := deps.seedOrganizations(ctx, cfg); err != nil {
		_ = deps.Close(ctx)
		return nil, fmt.Errorf("failed to seed organizations: %w", err)
	}

	deps.initPublisher(cfg)

	if err := deps.initProviders(cfg); err != nil {
		_ = deps.Close(ctx)
		return nil, fmt.Errorf("failed to initialize providers: %w", err)
	}

	if err := deps.initServices(cfg); err != nil {
		_ = deps.Close(ctx)
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	if err := deps.initHandlers(cfg); err != nil {
		_ = deps.Close(ctx)
		return nil, fmt.Errorf("failed to initialize handlers: %w", err)
	}

	logger.Info("all dependencies initialized successfully",
		zap.String("storage", cfg.Storage.Driver))
	return deps, nil
}

// initStorage opens the configured backend and builds the repositories
func (d *Dependencies) initStorage(ctx context.Context, cfg *config.Config) error {
	switch cfg.Storage.Driver {
	case config.StorageDriverMemory:
		store := memory.NewStore()
		d.Repos = memory.NewRepositories(store, d.Logger)
		d.TxManager = memory.NewTransactionManager(store, d.Logger)
		d.Logger.Warn("using in-memory storage, data is lost on restart")
		return nil

	case config.StorageDriverPostgres:
		factory, err := postgres.NewRepositoryFactory(cfg, d.Logger)
		if err != nil {
			return fmt.Errorf("failed to create repository factory: %w", err)
		}
		d.RepoFactory = factory
		d.DB = factory.GetDB()

		if err := d.DB.InitSchema(ctx); err != nil {
			_ = factory.Close()
			return fmt.Errorf("failed to initialize schema: %w", err)
		}

		d.Repos = factory.NewRepositories()
		d.TxManager = factory.GetTransactionManager()
		return nil

	default:
		return fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

// seedOrganizations loads the fixture when SEED_PATH is set or the directory is empty
func (d *Dependencies) seedOrganizations(ctx context.Context, cfg *config.Config) error {
	var (
		orgs []*models.Organization
		err  error
	)

	if cfg.Storage.SeedPath != "" {
		orgs, err = seed.LoadFile(cfg.Storage.SeedPath)
	} else {
		count, cerr := d.Repos.Organizations.Count(ctx)
		if cerr != nil {
			return fmt.Errorf("failed to count organizations: %w", cerr)
		}
		if count > 0 {
			return nil
		}
		orgs, err = seed.Default()
	}
	if err != nil {
		return err
	}

	return seed.Apply(ctx, d.Repos.Organizations, orgs, d.Logger)
}

// initPublisher connects to RabbitMQ. Events are dropped when no broker is configured or reachable.
func (d *Dependencies) initPublisher(cfg *config.Config) {
	if cfg.Messaging.RabbitMQURL == "" {
		d.Logger.Info("RabbitMQ not configured, lifecycle events are not published")
		d.Publisher = messaging.NoopPublisher{}
		return
	}

	publisher, err := messaging.NewPublisher(cfg.Messaging.RabbitMQURL, cfg.Messaging.Exchange, d.Logger)
	if err != nil {
		d.Logger.Warn("failed to connect to RabbitMQ, lifecycle events are not published", zap.Error(err))
		d.Publisher = messaging.NoopPublisher{}
		return
	}
	d.Publisher = publisher
}

// initProviders registers every insight provider that has an API key
func (d *Dependencies) initProviders(cfg *config.Config) error {
	providerConfig := func(p config.ProviderConfig) providers.ProviderConfig {
		pc := providers.DefaultProviderConfig()
		pc.APIKey = p.APIKey
		pc.Model = p.Model
		pc.BaseURL = p.BaseURL
		pc.Timeout = cfg.Insights.Timeout
		pc.MaxRetries = cfg.Insights.MaxRetries
		return pc
	}

	registry, err := providers.NewRegistryBuilder().
		WithProviderBuilder(config.InsightsProviderGemini, func(pc providers.ProviderConfig) (providers.Provider, error) {
			return gemini.NewGeminiAdapter(pc, d.Logger), nil
		}).
		WithProviderBuilder(config.InsightsProviderOpenAI, func(pc providers.ProviderConfig) (providers.Provider, error) {
			return openai.NewOpenAIAdapter(pc, d.Logger), nil
		}).
		Build(map[string]providers.ProviderConfig{
			config.InsightsProviderGemini: providerConfig(cfg.Insights.Gemini),
			config.InsightsProviderOpenAI: providerConfig(cfg.Insights.OpenAI),
		})
	if err != nil {
		return err
	}

	if _, err := registry.GetProvider(cfg.Insights.Provider); err != nil {
		d.Logger.Warn("insight provider has no API key",
			zap.String("provider", cfg.Insights.Provider),
			zap.Bool("fallback", cfg.Insights.EnableFallback),
			zap.Strings("registered", registry.ListProviders()))
	}

	d.ProviderRegistry = registry
	return nil
}

// initServices builds the domain services and starts the audit workers
func (d *Dependencies) initServices(cfg *config.Config) error {
	location, err := cfg.Impact.Location()
	if err != nil {
		return err
	}

	d.Audit = audit.NewAuditService(d.Repos.AuditLogs, d.Logger, audit.DefaultConfig())
	if err := d.Audit.Start(); err != nil {
		return fmt.Errorf("failed to start audit service: %w", err)
	}

	d.Matching = matching.NewService(d.Repos.Organizations, d.Metrics, d.Logger)
	d.Donations = donation.NewService(d.Repos, d.TxManager, capacity.NewLocker(), d.Publisher, d.Audit, d.Metrics, d.Logger)
	d.Organizations = organization.NewService(d.Repos.Organizations, d.Publisher, d.Audit, d.Logger)
	d.Impact = impact.NewService(d.Repos.Donations, location, d.Logger)
	d.Records = records.NewService(d.Repos.Feedback, d.Repos.Waste, location, d.Logger)
	d.ProviderRouter = routing.NewService(routing.Config{
		Primary:        cfg.Insights.Provider,
		EnableFallback: cfg.Insights.EnableFallback,
	}, d.ProviderRegistry, d.Logger)
	d.Insights = insights.NewService(
		d.Repos.Feedback,
		d.Repos.Waste,
		d.ProviderRouter,
		cfg.Insights.Timeout,
		d.Metrics,
		d.Logger,
	)

	d.InsightLimiter = ratelimit.NewService(ratelimit.Config{
		RequestsPerHour: cfg.Insights.RequestsPerHour,
		RequestsPerDay:  cfg.Insights.RequestsPerDay,
	}, d.Logger)
	workerCtx, cancel := context.WithCancel(context.Background())
	d.stopWorkers = cancel
	go d.InsightLimiter.StartCleanupWorker(workerCtx, limiterCleanupInterval)
	return nil
}

// initHandlers builds the HTTP handlers and the auth middleware
func (d *Dependencies) initHandlers(cfg *config.Config) error {
	location, err := cfg.Impact.Location()
	if err != nil {
		return err
	}

	defaults := matching.DefaultCriteria()
	defaults.MaxDistanceKm = cfg.Matching.MaxDistanceKm
	defaults.MinAvailableKg = cfg.Matching.MinAvailableKg
	defaults.MaxResponseTimeMinutes = cfg.Matching.MaxResponseTimeMinutes

	defaultLocation := geo.Point{
		Latitude:  cfg.Matching.DefaultLatitude,
		Longitude: cfg.Matching.DefaultLongitude,
	}
	if err := defaultLocation.Validate(); err != nil {
		return fmt.Errorf("invalid default donor location: %w", err)
	}

	if cfg.Auth.JWTSecret == "" {
		d.Logger.Warn("JWT secret not configured, authenticated routes reject every request")
	}
	validator := middleware.NewJWTValidator(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.JWTAudience)
	d.AuthMiddleware = middleware.NewAuthMiddleware(validator, d.Logger)

	d.HealthHandler = handlers.NewHealthHandler(d.Logger, d.readinessChecks(cfg)...)
	d.MatchHandler = handlers.NewMatchHandler(d.Matching, defaults, defaultLocation, d.Logger)
	d.OrganizationHandler = handlers.NewOrganizationHandler(d.Organizations, d.Logger)
	d.DonationHandler = handlers.NewDonationHandler(d.Donations, cfg.Auth.AdminRole, d.Logger)
	d.ImpactHandler = handlers.NewImpactHandler(d.Impact, d.Logger)
	d.RecordsHandler = handlers.NewRecordsHandler(d.Records, location, d.Logger)
	d.InsightHandler = handlers.NewInsightHandler(d.Insights, d.Logger)
	return nil
}

// readinessChecks probes storage, the broker, the insight providers and the
// capacity ledger. Only storage is critical.
func (d *Dependencies) readinessChecks(cfg *config.Config) []handlers.Check {
	storage := handlers.Check{Name: "storage", Critical: true, Probe: handlers.StaticProbe(config.StorageDriverMemory)}
	if d.DB != nil {
		storage.Probe = handlers.SQLProbe(d.DB.DB, config.StorageDriverPostgres)
	}

	messagingProbe := handlers.StaticProbe("disabled")
	if publisher, ok := d.Publisher.(*messaging.Publisher); ok {
		messagingProbe = func(context.Context) (string, error) {
			if !publisher.IsConnected() {
				return "", errors.New("broker connection closed")
			}
			return "connected", nil
		}
	}

	insightsProbe := func(context.Context) (string, error) {
		if _, err := d.ProviderRegistry.GetProvider(cfg.Insights.Provider); err == nil {
			return cfg.Insights.Provider, nil
		}
		if cfg.Insights.EnableFallback && d.ProviderRegistry.GetProviderCount() > 0 {
			return "fallback", nil
		}
		return "", errors.New("no insight provider configured")
	}

	ledgerProbe := func(ctx context.Context) (string, error) {
		drifts, err := d.Donations.VerifyLoads(ctx)
		if err != nil {
			return "", err
		}
		if len(drifts) > 0 {
			return "", fmt.Errorf("%d organizations have load out of sync with confirmed donations", len(drifts))
		}
		return "consistent", nil
	}

	return []handlers.Check{
		storage,
		{Name: "messaging", Probe: messagingProbe},
		{Name: "insights", Probe: insightsProbe},
		{Name: "capacity_ledger", Probe: ledgerProbe},
	}
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	if d.stopWorkers != nil {
		d.stopWorkers()
	}

	// Drain audit entries before the database goes away
	if d.Audit != nil {
		if err := d.Audit.Stop(auditStopTimeout); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop audit service: %w", err))
		}
	}

	if d.Publisher != nil {
		if err := d.Publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close publisher: %w", err))
		}
	}

	if d.RepoFactory != nil {
		if err := d.RepoFactory.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		} else {
			d.Logger.Info("database connection closed")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}

	return nil
}
