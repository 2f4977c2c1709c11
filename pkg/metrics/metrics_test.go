package metrics_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/architeacher/filterspec/pkg/metrics"
)

type countingMeter struct {
	metricnoop.Meter

	mu         sync.Mutex
	registered []string
}

func (m *countingMeter) Int64Counter(name string, _ ...metric.Int64CounterOption) (metric.Int64Counter, error) {
	m.mu.Lock()
	m.registered = append(m.registered, name)
	m.mu.Unlock()

	return metricnoop.Int64Counter{}, nil
}

func TestOTelClientRegistersCounterOnce(t *testing.T) {
	t.Parallel()

	meter := &countingMeter{}
	client := metrics.NewOTelClient(meter, map[string]metrics.Descriptor{
		"predicate.cache.hit": {Description: "compiled predicate served from cache", Unit: "1"},
	})

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)

		go func() {
			defer wg.Done()
			client.Inc(context.Background(), "predicate.cache.hit", 1, attribute.String("record", "Device"))
		}()
	}
	wg.Wait()

	require.Equal(t, []string{"predicate.cache.hit"}, meter.registered)
}

func TestOTelClientIgnoresUnsupportedValues(t *testing.T) {
	t.Parallel()

	meter := &countingMeter{}
	client := metrics.NewOTelClient(meter, nil)

	client.Inc(context.Background(), "queries.list.failure", "one")
	client.Inc(context.Background(), "queries.list.failure", -1)

	require.Empty(t, meter.registered)
}

func TestRegisterInt64Counter(t *testing.T) {
	t.Parallel()

	counter, err := metrics.RegisterInt64Counter(
		metricnoop.NewMeterProvider().Meter("test"),
		metrics.Descriptor{Description: "d", Unit: "1"},
		"queries.list.success",
	)
	require.NoError(t, err)
	require.NotNil(t, counter)
}

func TestOTelClientRecordsOnMeterProvider(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	client := metrics.NewOTelClient(provider.Meter("test"), map[string]metrics.Descriptor{
		"predicate.cache.miss": {Description: "compiled predicate missing from cache", Unit: "1"},
	})

	record := attribute.String("record", "model.Device")
	client.Inc(ctx, "predicate.cache.miss", 1, record)
	client.Inc(ctx, "predicate.cache.miss", int64(2), record)

	var collected metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &collected))
	require.Len(t, collected.ScopeMetrics, 1)
	require.Len(t, collected.ScopeMetrics[0].Metrics, 1)

	m := collected.ScopeMetrics[0].Metrics[0]
	require.Equal(t, "predicate.cache.miss", m.Name)
	require.Equal(t, "compiled predicate missing from cache", m.Description)

	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.True(t, sum.IsMonotonic)
	require.Len(t, sum.DataPoints, 1)
	require.Equal(t, int64(3), sum.DataPoints[0].Value)

	value, ok := sum.DataPoints[0].Attributes.Value("record")
	require.True(t, ok)
	require.Equal(t, "model.Device", value.AsString())
}
