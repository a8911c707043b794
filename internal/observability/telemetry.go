package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled         bool
	ServiceName     string
	ServiceVersion  string
	Environment     string
	OTLPEndpoint    string
	TracesSampler   string
	MetricsInterval time.Duration
}

// Provider holds the OpenTelemetry providers
type Provider struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	logger         *zap.Logger
}

// InitProvider initializes OpenTelemetry tracer and meter providers.
// It fails gracefully if the OTLP collector is unavailable; the global no-op providers stay in place.
func InitProvider(ctx context.Context, cfg TelemetryConfig, logger *zap.Logger) (*Provider, error) {
	p := &Provider{logger: logger}
	if !cfg.Enabled {
		logger.Info("OpenTelemetry export disabled")
		return p, nil
	}

	logger.Info("initializing OpenTelemetry", zap.String("endpoint", cfg.OTLPEndpoint))

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
			semconv.DeploymentEnvironment(cfg.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	tracerProvider, err := initTracerProvider(ctx, cfg, res)
	if err != nil {
		logger.Warn("failed to initialize tracer provider, continuing without tracing", zap.Error(err))
	} else {
		otel.SetTracerProvider(tracerProvider)
		p.TracerProvider = tracerProvider
	}

	meterProvider, err := initMeterProvider(ctx, cfg, res)
	if err != nil {
		logger.Warn("failed to initialize meter provider, continuing without metrics export", zap.Error(err))
	} else {
		otel.SetMeterProvider(meterProvider)
		p.MeterProvider = meterProvider
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return p, nil
}

func initTracerProvider(ctx context.Context, cfg TelemetryConfig, res *resource.Resource) (*sdktrace.TracerProvider, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint),
		otlptracegrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
		otlptracegrpc.WithTimeout(5*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP trace exporter: %w", err)
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSampler(samplerFor(cfg.TracesSampler)),
		sdktrace.WithBatcher(exporter,
			sdktrace.WithBatchTimeout(5*time.Second),
			sdktrace.WithMaxExportBatchSize(512),
		),
	), nil
}

func samplerFor(name string) sdktrace.Sampler {
	switch name {
	case "always_off":
		return sdktrace.NeverSample()
	case "traceidratio":
		return sdktrace.TraceIDRatioBased(0.1)
	default:
		return sdktrace.AlwaysSample()
	}
}

func initMeterProvider(ctx context.Context, cfg TelemetryConfig, res *resource.Resource) (*sdkmetric.MeterProvider, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	exporter, err := otlpmetricgrpc.New(ctx,
		otlpmetricgrpc.WithEndpoint(cfg.OTLPEndpoint),
		otlpmetricgrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
		otlpmetricgrpc.WithTimeout(5*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP metric exporter: %w", err)
	}

	interval := cfg.MetricsInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}

	return sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval))),
	), nil
}

// Shutdown flushes and stops the providers
func (p *Provider) Shutdown(ctx context.Context) error {
	var err error

	if p.TracerProvider != nil {
		if shutdownErr := p.TracerProvider.Shutdown(ctx); shutdownErr != nil {
			p.logger.Error("error shutting down tracer provider", zap.Error(shutdownErr))
			err = shutdownErr
		}
	}

	if p.MeterProvider != nil {
		if shutdownErr := p.MeterProvider.Shutdown(ctx); shutdownErr != nil {
			p.logger.Error("error shutting down meter provider", zap.Error(shutdownErr))
			if err == nil {
				err = shutdownErr
			}
		}
	}

	return err
}

// Tracer returns the service tracer from the global provider
func Tracer() trace.Tracer {
	return otel.Tracer(InstrumentationName)
}
