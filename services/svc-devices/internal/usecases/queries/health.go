package queries

import (
	"context"
	"errors"

	otelTrace "go.opentelemetry.io/otel/trace"

	"github.com/architeacher/filterspec/pkg/circuitbreaker"
	"github.com/architeacher/filterspec/pkg/decorator"
	"github.com/architeacher/filterspec/pkg/logger"
	"github.com/architeacher/filterspec/pkg/metrics"
	"github.com/architeacher/filterspec/services/svc-devices/internal/ports"
)

const (
	statusOK          = "ok"
	statusUnavailable = "unavailable"
	statusUnreachable = "unreachable"
	statusCircuitOpen = "circuit open"

	checkStorage = "storage"
)

type (
	FetchLivenessQuery  struct{}
	FetchReadinessQuery struct{}

	LivenessResult struct {
		Status string `json:"status"`
	}

	// ReadinessResult carries one entry per dependency in Checks.
	ReadinessResult struct {
		Status string            `json:"status"`
		Ready  bool              `json:"ready"`
		Checks map[string]string `json:"checks"`
	}

	FetchLivenessQueryHandler  = decorator.QueryHandler[FetchLivenessQuery, *LivenessResult]
	FetchReadinessQueryHandler = decorator.QueryHandler[FetchReadinessQuery, *ReadinessResult]

	fetchLivenessQueryHandler struct{}

	fetchReadinessQueryHandler struct {
		storage ports.DatabaseHealthChecker
	}
)

func NewFetchLivenessQueryHandler(
	log logger.Logger,
	metricsClient metrics.Client,
	tracerProvider otelTrace.TracerProvider,
) FetchLivenessQueryHandler {
	return decorator.ApplyQueryDecorators[FetchLivenessQuery, *LivenessResult](
		fetchLivenessQueryHandler{}, log, metricsClient, tracerProvider,
	)
}

func (fetchLivenessQueryHandler) Execute(context.Context, FetchLivenessQuery) (*LivenessResult, error) {
	return &LivenessResult{Status: statusOK}, nil
}

func NewFetchReadinessQueryHandler(
	storage ports.DatabaseHealthChecker,
	log logger.Logger,
	metricsClient metrics.Client,
	tracerProvider otelTrace.TracerProvider,
) FetchReadinessQueryHandler {
	return decorator.ApplyQueryDecorators[FetchReadinessQuery, *ReadinessResult](
		fetchReadinessQueryHandler{storage: storage}, log, metricsClient, tracerProvider,
	)
}

// Execute never fails; an unhealthy dependency makes the result not ready.
func (h fetchReadinessQueryHandler) Execute(ctx context.Context, _ FetchReadinessQuery) (*ReadinessResult, error) {
	result := &ReadinessResult{
		Status: statusOK,
		Ready:  true,
		Checks: map[string]string{checkStorage: statusOK},
	}

	err := h.storage.Ping(ctx)
	if err == nil {
		return result, nil
	}

	result.Status = statusUnavailable
	result.Ready = false
	result.Checks[checkStorage] = statusUnreachable

	if errors.Is(err, circuitbreaker.ErrOpen) || errors.Is(err, circuitbreaker.ErrProbeLimit) {
		result.Checks[checkStorage] = statusCircuitOpen
	}

	return result, nil
}
