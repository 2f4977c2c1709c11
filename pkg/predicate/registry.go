package predicate

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/architeacher/filterspec/pkg/logger"
)

type (
	dispatchKey struct {
		spec   reflect.Type
		record reflect.Type
	}

	registration struct {
		compile     func(spec any) (Predicate[any], error)
		fingerprint func(spec any, d *strings.Builder) error
	}

	// Registry maps concrete specification types to their compiler for a
	// record type. Entries are added once at startup with Register.
	Registry struct {
		mu      sync.RWMutex
		entries map[dispatchKey]registration
		logger  logger.Logger
	}

	RegistryOption func(*Registry)
)

func WithRegistryLogger(log logger.Logger) RegistryOption {
	return func(r *Registry) {
		r.logger = log.Component(componentName)
	}
}

func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		entries: make(map[dispatchKey]registration),
		logger:  logger.Nop(),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Register makes specification type S compilable for record type T through
// CompileDynamic.
func Register[T any, S Node[T]](r *Registry) {
	key := dispatchKey{spec: reflect.TypeFor[S](), record: reflect.TypeFor[T]()}

	assert := func(spec any) (S, error) {
		typed, ok := spec.(S)
		if !ok {
			return typed, fmt.Errorf("%w: %T is not %s", ErrNoMatchingCompiler, spec, key.spec)
		}

		return typed, nil
	}

	reg := registration{
		compile: func(spec any) (Predicate[any], error) {
			typed, err := assert(spec)
			if err != nil {
				return nil, err
			}

			pred, err := Compile[T](typed)
			if err != nil {
				return nil, err
			}

			return func(record any) bool {
				rec, ok := record.(T)
				if !ok {
					return false
				}

				return pred(rec)
			}, nil
		},
		fingerprint: func(spec any, d *strings.Builder) error {
			typed, err := assert(spec)
			if err != nil {
				return err
			}

			_, _ = d.WriteString(key.record.String())

			return writeNode[T](d, typed)
		},
	}

	r.mu.Lock()
	r.entries[key] = reg
	r.mu.Unlock()

	r.logger.Debug().
		Str("spec", key.spec.String()).
		Str("record", key.record.String()).
		Msg("registered filter compiler")
}

// CompileDynamic compiles spec, whose concrete type is only known at run
// time, into a predicate over records of type record.
func (r *Registry) CompileDynamic(spec any, record reflect.Type) (Predicate[any], error) {
	reg, err := r.lookup(spec, record)
	if err != nil {
		return nil, err
	}

	return reg.compile(spec)
}

// Supports reports whether a compiler is registered for the pair.
func (r *Registry) Supports(spec reflect.Type, record reflect.Type) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.entries[dispatchKey{spec: spec, record: record}]

	return ok
}

func (r *Registry) lookup(spec any, record reflect.Type) (registration, error) {
	if spec == nil {
		return registration{}, fmt.Errorf("%w: nil specification", ErrNoMatchingCompiler)
	}

	key := dispatchKey{spec: reflect.TypeOf(spec), record: record}

	r.mu.RLock()
	reg, ok := r.entries[key]
	r.mu.RUnlock()

	if !ok {
		return registration{}, fmt.Errorf("%w: %s for record %v", ErrNoMatchingCompiler, key.spec, record)
	}

	return reg, nil
}
