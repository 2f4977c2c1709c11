package metrics

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type (
	Client interface {
		Inc(ctx context.Context, key string, value any, attributes ...attribute.KeyValue)
	}

	// Descriptor defines metadata used when registering OTEL instruments.
	Descriptor struct {
		Description string
		Unit        string
	}

	// OTelClient records every key as an Int64 counter on an OTel meter.
	// Counters are registered on first use.
	OTelClient struct {
		meter       metric.Meter
		descriptors map[string]Descriptor

		mu       sync.RWMutex
		counters map[string]metric.Int64Counter
	}
)

func NewOTelClient(meter metric.Meter, descriptors map[string]Descriptor) *OTelClient {
	return &OTelClient{
		meter:       meter,
		descriptors: descriptors,
		counters:    make(map[string]metric.Int64Counter),
	}
}

func (c *OTelClient) Inc(ctx context.Context, key string, value any, attributes ...attribute.KeyValue) {
	delta, ok := toInt64(value)
	if !ok || delta < 0 {
		return
	}

	counter, err := c.counter(key)
	if err != nil {
		return
	}

	counter.Add(ctx, delta, metric.WithAttributes(attributes...))
}

func (c *OTelClient) counter(key string) (metric.Int64Counter, error) {
	c.mu.RLock()
	counter, ok := c.counters[key]
	c.mu.RUnlock()

	if ok {
		return counter, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if counter, ok = c.counters[key]; ok {
		return counter, nil
	}

	counter, err := RegisterInt64Counter(c.meter, c.descriptors[key], key)
	if err != nil {
		return nil, err
	}

	c.counters[key] = counter

	return counter, nil
}

func toInt64(value any) (int64, bool) {
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint32:
		return int64(v), true
	default:
		return 0, false
	}
}

// RegisterInt64Counter creates an Int64 counter using the provided descriptor.
func RegisterInt64Counter(m metric.Meter, descriptor Descriptor, name string) (metric.Int64Counter, error) {
	counter, err := m.Int64Counter(
		name,
		metric.WithDescription(descriptor.Description),
		metric.WithUnit(descriptor.Unit),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s counter: %w", name, err)
	}

	return counter, nil
}
