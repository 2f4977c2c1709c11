package runtime

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	otelTrace "go.opentelemetry.io/otel/trace"

	"github.com/architeacher/filterspec/pkg/logger"
	"github.com/architeacher/filterspec/pkg/metrics"
	"github.com/architeacher/filterspec/pkg/predicate"
	"github.com/architeacher/filterspec/services/svc-devices/internal/adapters/repos"
	"github.com/architeacher/filterspec/services/svc-devices/internal/config"
	"github.com/architeacher/filterspec/services/svc-devices/internal/ports"
	"github.com/architeacher/filterspec/services/svc-devices/internal/usecases"
)

type (
	infrastructureDep struct {
		httpServer     *http.Server
		tracerProvider otelTrace.TracerProvider
		metricsClient  metrics.Client
		logger         logger.Logger
		dbPool         *pgxpool.Pool
	}

	filtering struct {
		registry *predicate.Registry
		compiler repos.PredicateCompiler
	}

	repositories struct {
		devices ports.DevicesRepository
	}

	dependencies struct {
		config         *config.ServiceConfig
		infra          infrastructureDep
		filters        filtering
		repos          repositories
		devicesService ports.DevicesService
		app            *usecases.Application
		cleanups       []cleanup
	}

	// cleanup releases one resource on shutdown. Cleanups run in reverse
	// registration order.
	cleanup struct {
		resource string
		fn       func(ctx context.Context) error
	}

	DependencyOption func(*dependencies) error
)

func initializeDependencies(ctx context.Context, opts ...DependencyOption) (*dependencies, error) {
	deps := &dependencies{}

	allOpts := append(defaultOptions(ctx), opts...)

	for _, opt := range allOpts {
		if err := opt(deps); err != nil {
			return nil, fmt.Errorf("failed to apply dependency option: %w", err)
		}
	}

	return deps, nil
}

func (d *dependencies) onShutdown(resource string, fn func(ctx context.Context) error) {
	d.cleanups = append(d.cleanups, cleanup{resource: resource, fn: fn})
}
