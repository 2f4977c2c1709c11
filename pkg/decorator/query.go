package decorator

import (
	"context"
	"fmt"
	"strings"

	"github.com/architeacher/filterspec/pkg/logger"
	"github.com/architeacher/filterspec/pkg/metrics"
	otelTrace "go.opentelemetry.io/otel/trace"
)

type (
	Query  any
	Result any

	QueryHandler[Q Query, R Result] interface {
		Execute(ctx context.Context, query Q) (R, error)
	}
)

// ApplyQueryDecorators wraps handler so that every execution is logged,
// counted and traced, in that order from the outside in.
func ApplyQueryDecorators[Q Query, R Result](
	handler QueryHandler[Q, R],
	log logger.Logger,
	metricsClient metrics.Client,
	tracerProvider otelTrace.TracerProvider,
) QueryHandler[Q, R] {
	return queryLoggingDecorator[Q, R]{
		base: queryMetricsDecorator[Q, R]{
			base: queryTracingDecorator[Q, R]{
				base:           handler,
				tracerProvider: tracerProvider,
			},
			client: metricsClient,
		},
		logger: log,
	}
}

// generateActionName derives "ListDevicesQuery" from a value of type
// queries.ListDevicesQuery.
func generateActionName(query any) string {
	name := fmt.Sprintf("%T", query)
	name = strings.TrimLeft(name, "*")

	if _, after, ok := strings.Cut(name, "."); ok {
		return after
	}

	return name
}
