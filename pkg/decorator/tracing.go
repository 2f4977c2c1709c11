package decorator

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	otelTrace "go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/architeacher/filterspec/pkg/decorator"

type queryTracingDecorator[Q Query, R Result] struct {
	base           QueryHandler[Q, R]
	tracerProvider otelTrace.TracerProvider
}

func (d queryTracingDecorator[Q, R]) Execute(ctx context.Context, query Q) (R, error) {
	if d.tracerProvider == nil {
		return d.base.Execute(ctx, query)
	}

	action := generateActionName(query)

	ctx, span := d.tracerProvider.Tracer(tracerName).Start(ctx, "query."+action,
		otelTrace.WithAttributes(attribute.String("query.name", action)),
	)
	defer span.End()

	result, err := d.base.Execute(ctx, query)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	return result, err
}
