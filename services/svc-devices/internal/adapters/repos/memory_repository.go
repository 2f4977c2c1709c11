package repos

import (
	"context"
	"fmt"
	"reflect"
	"slices"
	"sync"

	"github.com/architeacher/filterspec/pkg/logger"
	"github.com/architeacher/filterspec/pkg/predicate"
	"github.com/architeacher/filterspec/services/svc-devices/internal/domain/model"
)

var deviceType = reflect.TypeFor[model.Device]()

type (
	// PredicateCompiler turns a filter of any registered type into a
	// predicate over records of the given type.
	PredicateCompiler interface {
		Compile(spec any, record reflect.Type) (predicate.Predicate[any], error)
	}

	// CompilerFunc adapts a function, such as Registry.CompileDynamic, to
	// PredicateCompiler.
	CompilerFunc func(spec any, record reflect.Type) (predicate.Predicate[any], error)

	// MemoryRepository keeps devices in process and evaluates filters with
	// compiled predicates.
	MemoryRepository struct {
		mu       sync.RWMutex
		devices  map[model.DeviceID]*model.Device
		compiler PredicateCompiler
		logger   logger.Logger
	}
)

func (f CompilerFunc) Compile(spec any, record reflect.Type) (predicate.Predicate[any], error) {
	return f(spec, record)
}

func NewMemoryRepository(compiler PredicateCompiler, log logger.Logger) *MemoryRepository {
	return &MemoryRepository{
		devices:  make(map[model.DeviceID]*model.Device),
		compiler: compiler,
		logger:   log,
	}
}

func (r *MemoryRepository) Create(_ context.Context, device *model.Device) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.devices[device.ID]; ok {
		return model.ErrDuplicateDevice
	}

	r.devices[device.ID] = cloneDevice(device)

	return nil
}

func (r *MemoryRepository) FetchByID(_ context.Context, id model.DeviceID) (*model.Device, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	device, ok := r.devices[id]
	if !ok {
		return nil, model.ErrDeviceNotFound
	}

	return cloneDevice(device), nil
}

func (r *MemoryRepository) Search(ctx context.Context, filter *model.DeviceFilter, page model.Page) (*model.DeviceList, error) {
	matches, err := r.compiler.Compile(filter, deviceType)
	if err != nil {
		return nil, fmt.Errorf("compiling device filter: %w", err)
	}

	r.mu.RLock()
	selected := make([]*model.Device, 0, len(r.devices))
	for _, device := range r.devices {
		if matches(*device) {
			selected = append(selected, cloneDevice(device))
		}
	}
	r.mu.RUnlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	slices.SortFunc(selected, page.Sort.Compare)

	list, err := model.Paginate(selected, page)
	if err != nil {
		return nil, err
	}

	r.logger.Debug().
		Str("sort", page.Sort.String()).
		Int("matched", len(selected)).
		Int("results", len(list.Devices)).
		Msg("searched devices")

	return list, nil
}

func (r *MemoryRepository) Ping(context.Context) error {
	return nil
}

func cloneDevice(d *model.Device) *model.Device {
	c := *d

	if d.Owner != nil {
		owner := *d.Owner
		c.Owner = &owner
	}

	if d.BatteryLevel != nil {
		level := *d.BatteryLevel
		c.BatteryLevel = &level
	}

	c.Tags = slices.Clone(d.Tags)
	if c.Tags == nil {
		c.Tags = []string{}
	}

	return &c
}
