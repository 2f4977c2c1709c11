package runtime

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/architeacher/filterspec/pkg/circuitbreaker"
	"github.com/architeacher/filterspec/pkg/logger"
	"github.com/architeacher/filterspec/pkg/metrics"
	"github.com/architeacher/filterspec/pkg/metrics/noop"
	"github.com/architeacher/filterspec/pkg/predicate"
	httpadapter "github.com/architeacher/filterspec/services/svc-devices/internal/adapters/inbound/http"
	"github.com/architeacher/filterspec/services/svc-devices/internal/adapters/repos"
	"github.com/architeacher/filterspec/services/svc-devices/internal/config"
	"github.com/architeacher/filterspec/services/svc-devices/internal/domain/model"
	"github.com/architeacher/filterspec/services/svc-devices/internal/infrastructure"
	infraPostgres "github.com/architeacher/filterspec/services/svc-devices/internal/infrastructure/postgres"
	"github.com/architeacher/filterspec/services/svc-devices/internal/services"
	"github.com/architeacher/filterspec/services/svc-devices/internal/usecases"
)

const instrumentationName = "github.com/architeacher/filterspec/services/svc-devices"

var cacheMetricDescriptors = map[string]metrics.Descriptor{
	predicate.MetricCacheHit:    {Description: "Filter compilations served from the predicate cache"},
	predicate.MetricCacheMiss:   {Description: "Filter compilations missing the predicate cache"},
	predicate.MetricCacheBypass: {Description: "Filters compiled without caching"},
}

func defaultOptions(ctx context.Context) []DependencyOption {
	return []DependencyOption{
		WithConfig(),
		WithLogger(),
		WithTracing(ctx),
		WithMetrics(),
		WithFilterCompiler(),
		WithDevicesRepository(ctx),
		WithDevicesService(),
		WithDemoData(ctx),
		WithApplication(),
		WithHTTPServer(),
	}
}

func WithConfig() DependencyOption {
	return func(d *dependencies) error {
		cfg, err := config.Init()
		if err != nil {
			return fmt.Errorf("initializing configuration: %w", err)
		}

		d.config = cfg

		return nil
	}
}

func WithLogger() DependencyOption {
	return func(d *dependencies) error {
		d.infra.logger = logger.New(d.config.Logging.Level, d.config.Logging.Format)

		return nil
	}
}

func WithTracing(ctx context.Context) DependencyOption {
	return func(d *dependencies) error {
		tp, shutdown, err := infrastructure.NewTracerProvider(ctx, d.config.Telemetry)
		if err != nil {
			return fmt.Errorf("initializing tracer: %w", err)
		}

		d.infra.tracerProvider = tp
		d.onShutdown("tracer", shutdown)

		return nil
	}
}

// WithMetrics records counters on the global meter provider when metrics
// are enabled.
func WithMetrics() DependencyOption {
	return func(d *dependencies) error {
		if !d.config.Telemetry.Enabled || !d.config.Telemetry.Metrics.Enabled {
			d.infra.metricsClient = noop.NewMetricsClient()

			return nil
		}

		meter := otel.GetMeterProvider().Meter(instrumentationName)
		d.infra.metricsClient = metrics.NewOTelClient(meter, cacheMetricDescriptors)

		return nil
	}
}

// WithFilterCompiler registers the device filter and, unless disabled,
// fronts the registry with a bounded predicate cache.
func WithFilterCompiler() DependencyOption {
	return func(d *dependencies) error {
		registry := predicate.NewRegistry(predicate.WithRegistryLogger(d.infra.logger))
		predicate.Register[model.Device, *model.DeviceFilter](registry)

		d.filters.registry = registry
		d.filters.compiler = repos.CompilerFunc(registry.CompileDynamic)

		if !d.config.Compiler.CacheEnabled {
			return nil
		}

		cache, err := predicate.NewCache(
			registry,
			d.config.Compiler.CacheSize,
			predicate.WithCacheLogger(d.infra.logger),
			predicate.WithCacheMetrics(d.infra.metricsClient),
		)
		if err != nil {
			return fmt.Errorf("initializing predicate cache: %w", err)
		}

		d.filters.compiler = cache

		return nil
	}
}

// WithDevicesRepository stores devices in PostgreSQL when the database is
// enabled and in memory otherwise.
func WithDevicesRepository(ctx context.Context) DependencyOption {
	return func(d *dependencies) error {
		if !d.config.Database.Enabled {
			d.repos.devices = repos.NewMemoryRepository(d.filters.compiler, d.infra.logger.Component("memory-repository"))

			return nil
		}

		pool, err := infraPostgres.NewPool(ctx, d.config.Database)
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}

		d.infra.dbPool = pool
		d.onShutdown("database", func(context.Context) error {
			pool.Close()

			return nil
		})

		log := d.infra.logger.Component("postgres-repository")
		postgres := repos.NewDevicesRepository(
			pool,
			repos.NewPgxScanner(),
			repos.NewExprTranslator(repos.DeviceColumns, log),
			log,
		)

		breakerCfg := d.config.Database.Breaker
		breaker := circuitbreaker.New(
			circuitbreaker.Settings{
				Name:             "postgres",
				Enabled:          breakerCfg.Enabled,
				HalfOpenProbes:   breakerCfg.HalfOpenProbes,
				ResetInterval:    breakerCfg.ResetInterval,
				Timeout:          breakerCfg.Timeout,
				FailureThreshold: breakerCfg.FailureThreshold,
			},
			circuitbreaker.WithLogger(log),
			circuitbreaker.WithExcludedErrors(repos.CallerErrors()...),
		)

		d.repos.devices = repos.NewGuardedRepository(postgres, breaker)

		return nil
	}
}

func WithDevicesService() DependencyOption {
	return func(d *dependencies) error {
		d.devicesService = services.NewDevicesService(d.repos.devices)

		return nil
	}
}

// WithDemoData seeds a few devices so an in-memory deployment has
// something to search.
func WithDemoData(ctx context.Context) DependencyOption {
	return func(d *dependencies) error {
		if !d.config.App.SeedDemoData || d.config.Database.Enabled {
			return nil
		}

		for _, device := range demoDevices() {
			if _, err := d.devicesService.CreateDevice(ctx, device); err != nil && !errors.Is(err, model.ErrDuplicateDevice) {
				return fmt.Errorf("seeding demo devices: %w", err)
			}
		}

		d.infra.logger.Info().Int("devices", len(demoDevices())).Msg("seeded demo devices")

		return nil
	}
}

func demoDevices() []*model.Device {
	base := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)

	devices := []*model.Device{
		model.NewDevice("Pixel 9", "Google", model.StateAvailable).WithOwner("ana").WithBatteryLevel(80).WithTags("mobile"),
		model.NewDevice("iPad Air", "Apple", model.StateInUse).WithBatteryLevel(15).WithTags("tablet"),
		model.NewDevice("ThinkPad X1", "Lenovo", model.StateInactive).WithOwner("bo"),
		model.NewDevice("Galaxy Watch", "Samsung", model.StateAvailable).WithBatteryLevel(42).WithTags("wearable", "mobile"),
		model.NewDevice("MacBook Pro", "Apple", model.StateInUse).WithOwner("cy").WithBatteryLevel(96),
	}

	for i, device := range devices {
		device.CreatedAt = base.Add(time.Duration(i) * 24 * time.Hour)
		device.UpdatedAt = device.CreatedAt
	}

	return devices
}

func WithApplication() DependencyOption {
	return func(d *dependencies) error {
		d.app = usecases.NewApplication(
			d.devicesService,
			d.repos.devices,
			d.infra.logger,
			d.infra.tracerProvider,
			d.infra.metricsClient,
		)

		return nil
	}
}

func WithHTTPServer() DependencyOption {
	return func(d *dependencies) error {
		router := httpadapter.NewRouter(httpadapter.RouterConfig{
			App:    d.app,
			Logger: d.infra.logger,
			Config: d.config,
		})

		d.infra.httpServer = &http.Server{
			Addr:              d.config.HTTPServer.Address(),
			Handler:           router,
			ReadTimeout:       d.config.HTTPServer.ReadTimeout,
			ReadHeaderTimeout: d.config.HTTPServer.ReadTimeout,
			WriteTimeout:      d.config.HTTPServer.WriteTimeout,
		}

		d.onShutdown("http-server", d.infra.httpServer.Shutdown)

		return nil
	}
}
