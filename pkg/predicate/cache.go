package predicate

import (
	"context"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/singleflight"

	"github.com/architeacher/filterspec/pkg/logger"
	"github.com/architeacher/filterspec/pkg/metrics"
	"github.com/architeacher/filterspec/pkg/metrics/noop"
)

const (
	componentName = "predicate"

	MetricCacheHit    = "predicate.cache.hit"
	MetricCacheMiss   = "predicate.cache.miss"
	MetricCacheBypass = "predicate.cache.bypass"

	// maxFingerprintDepth bounds the walk over literal values.
	maxFingerprintDepth = 16
)

var errUnhashable = errors.New("literal cannot be fingerprinted")

type (
	// Cache memoizes CompileDynamic for structurally equal specifications.
	// Specifications holding literals that cannot be fingerprinted (maps,
	// funcs, channels, deep pointer chains) are compiled without caching.
	Cache struct {
		registry *Registry
		entries  *lru.Cache
		group    singleflight.Group
		hash     func(string) uint64
		metrics  metrics.Client
		logger   logger.Logger
	}

	CacheOption func(*Cache)

	// cacheEntry keeps the full fingerprint next to the predicate so a hash
	// collision between two specifications is detected on lookup.
	cacheEntry struct {
		fingerprint string
		pred        Predicate[any]
	}
)

func WithCacheLogger(log logger.Logger) CacheOption {
	return func(c *Cache) {
		c.logger = log.Component(componentName)
	}
}

func WithCacheMetrics(client metrics.Client) CacheOption {
	return func(c *Cache) {
		c.metrics = client
	}
}

// NewCache returns a cache holding at most size compiled predicates.
func NewCache(registry *Registry, size int, opts ...CacheOption) (*Cache, error) {
	entries, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("creating predicate cache: %w", err)
	}

	c := &Cache{
		registry: registry,
		entries:  entries,
		hash:     xxhash.Sum64String,
		metrics:  noop.NewMetricsClient(),
		logger:   logger.Nop(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Compile returns the predicate for spec over record, compiling it at most
// once per distinct specification even under concurrent first use.
func (c *Cache) Compile(spec any, record reflect.Type) (Predicate[any], error) {
	reg, err := c.registry.lookup(spec, record)
	if err != nil {
		return nil, err
	}

	attrs := attribute.String("record", record.String())

	var b strings.Builder
	if err := reg.fingerprint(spec, &b); err != nil {
		c.logger.Debug().Err(err).Str("spec", fmt.Sprintf("%T", spec)).Msg("compiling without cache")
		c.metrics.Inc(context.Background(), MetricCacheBypass, 1, attrs)

		return reg.compile(spec)
	}

	fp := b.String()
	key := strconv.FormatUint(c.hash(fp), 16)

	if pred, ok := c.lookup(key, fp); ok {
		c.metrics.Inc(context.Background(), MetricCacheHit, 1, attrs)

		return pred, nil
	}

	c.metrics.Inc(context.Background(), MetricCacheMiss, 1, attrs)

	v, err, _ := c.group.Do(fp, func() (any, error) {
		if pred, ok := c.lookup(key, fp); ok {
			return pred, nil
		}

		pred, err := reg.compile(spec)
		if err != nil {
			return nil, err
		}

		c.entries.Add(key, cacheEntry{fingerprint: fp, pred: pred})
		c.logger.Debug().Str("key", key).Str("record", record.String()).Msg("compiled filter")

		return pred, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(Predicate[any]), nil
}

// lookup returns the cached predicate under key only when it was compiled
// from the same fingerprint.
func (c *Cache) lookup(key, fp string) (Predicate[any], bool) {
	cached, ok := c.entries.Get(key)
	if !ok {
		return nil, false
	}

	entry, ok := cached.(cacheEntry)
	if !ok || entry.fingerprint != fp {
		return nil, false
	}

	return entry.pred, true
}

// Len reports the number of cached predicates.
func (c *Cache) Len() int {
	return c.entries.Len()
}

// Purge drops every cached predicate.
func (c *Cache) Purge() {
	c.entries.Purge()
}

// writeNode writes the structure of a specification tree into d: node
// types, set slots with their literal types and values, and children.
func writeNode[T any](d *strings.Builder, n Node[T]) error {
	if isNilNode(n) {
		_, _ = d.WriteString("nil;")

		return nil
	}

	_, _ = fmt.Fprintf(d, "%T{", n)

	for _, slot := range n.Slots() {
		if !slot.Set {
			continue
		}

		_, _ = d.WriteString(slot.Name)
		_, _ = d.WriteString("=")

		if err := writeValue(d, reflect.ValueOf(slot.Value), 0); err != nil {
			return fmt.Errorf("slot %q: %w", slot.Name, err)
		}

		_, _ = d.WriteString(";")
	}

	and, or := n.Children()

	if err := writeChildren(d, "and", and); err != nil {
		return err
	}

	if err := writeChildren(d, "or", or); err != nil {
		return err
	}

	_, _ = d.WriteString("}")

	return nil
}

func writeChildren[T any](d *strings.Builder, label string, children []Node[T]) error {
	_, _ = fmt.Fprintf(d, "%s[%d:", label, len(children))

	for _, child := range children {
		if err := writeNode[T](d, child); err != nil {
			return err
		}
	}

	_, _ = d.WriteString("]")

	return nil
}

func writeValue(d *strings.Builder, v reflect.Value, depth int) error {
	if depth > maxFingerprintDepth {
		return errUnhashable
	}

	if !v.IsValid() {
		_, _ = d.WriteString("<nil>")

		return nil
	}

	_, _ = d.WriteString(v.Type().String())
	_, _ = d.WriteString("(")

	switch v.Kind() {
	case reflect.Bool:
		_, _ = d.WriteString(strconv.FormatBool(v.Bool()))
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		_, _ = d.WriteString(strconv.FormatInt(v.Int(), 10))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		_, _ = d.WriteString(strconv.FormatUint(v.Uint(), 10))
	case reflect.Float32, reflect.Float64:
		_, _ = d.WriteString(strconv.FormatUint(math.Float64bits(v.Float()), 16))
	case reflect.Complex64, reflect.Complex128:
		_, _ = d.WriteString(strconv.FormatComplex(v.Complex(), 'g', -1, 128))
	case reflect.String:
		_, _ = d.WriteString(strconv.Quote(v.String()))
	case reflect.Pointer, reflect.Interface:
		if v.IsNil() {
			_, _ = d.WriteString("<nil>")

			break
		}

		if err := writeValue(d, v.Elem(), depth+1); err != nil {
			return err
		}
	case reflect.Slice, reflect.Array:
		if v.Kind() == reflect.Slice && v.IsNil() {
			_, _ = d.WriteString("<nil>")

			break
		}

		_, _ = d.WriteString(strconv.Itoa(v.Len()))

		for i := range v.Len() {
			_, _ = d.WriteString(",")

			if err := writeValue(d, v.Index(i), depth+1); err != nil {
				return err
			}
		}
	case reflect.Struct:
		if v.Type() == timeType && v.CanInterface() {
			_, _ = d.WriteString(v.Interface().(time.Time).Format(time.RFC3339Nano))

			break
		}

		for i := range v.NumField() {
			_, _ = d.WriteString(",")

			if err := writeValue(d, v.Field(i), depth+1); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("%w: %s", errUnhashable, v.Type())
	}

	_, _ = d.WriteString(")")

	return nil
}
