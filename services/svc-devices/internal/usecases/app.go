package usecases

import (
	otelTrace "go.opentelemetry.io/otel/trace"

	"github.com/architeacher/filterspec/pkg/logger"
	"github.com/architeacher/filterspec/pkg/metrics"
	"github.com/architeacher/filterspec/services/svc-devices/internal/ports"
	"github.com/architeacher/filterspec/services/svc-devices/internal/usecases/queries"
)

type (
	Queries struct {
		GetDevice      queries.GetDeviceQueryHandler
		ListDevices    queries.ListDevicesQueryHandler
		FetchLiveness  queries.FetchLivenessQueryHandler
		FetchReadiness queries.FetchReadinessQueryHandler
	}

	Application struct {
		Queries Queries
	}
)

func NewApplication(
	devicesSvc ports.DevicesService,
	dbHealthChecker ports.DatabaseHealthChecker,
	log logger.Logger,
	tracerProvider otelTrace.TracerProvider,
	metricsClient metrics.Client,
) *Application {
	return &Application{
		Queries: Queries{
			GetDevice:      queries.NewGetDeviceQueryHandler(devicesSvc, log, metricsClient, tracerProvider),
			ListDevices:    queries.NewListDevicesQueryHandler(devicesSvc, log, metricsClient, tracerProvider),
			FetchLiveness:  queries.NewFetchLivenessQueryHandler(log, metricsClient, tracerProvider),
			FetchReadiness: queries.NewFetchReadinessQueryHandler(dbHealthChecker, log, metricsClient, tracerProvider),
		},
	}
}
