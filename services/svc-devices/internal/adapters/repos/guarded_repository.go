package repos

import (
	"context"

	"github.com/architeacher/filterspec/pkg/circuitbreaker"
	"github.com/architeacher/filterspec/services/svc-devices/internal/domain/model"
	"github.com/architeacher/filterspec/services/svc-devices/internal/ports"
)

// callerErrors never open the breaker: they describe a bad request, not an
// unhealthy database.
var callerErrors = []error{
	model.ErrDeviceNotFound,
	model.ErrDuplicateDevice,
	model.ErrInvalidFilter,
	model.ErrInvalidCursor,
	context.Canceled,
}

// GuardedRepository sends every call to the wrapped repository through a
// circuit breaker.
type GuardedRepository struct {
	inner   ports.DevicesRepository
	breaker *circuitbreaker.Breaker
}

// CallerErrors lists the errors to exclude when building the breaker
// passed to NewGuardedRepository.
func CallerErrors() []error {
	return append([]error(nil), callerErrors...)
}

func NewGuardedRepository(inner ports.DevicesRepository, breaker *circuitbreaker.Breaker) *GuardedRepository {
	return &GuardedRepository{inner: inner, breaker: breaker}
}

func (r *GuardedRepository) Create(ctx context.Context, device *model.Device) error {
	return circuitbreaker.Do(r.breaker, func() error {
		return r.inner.Create(ctx, device)
	})
}

func (r *GuardedRepository) FetchByID(ctx context.Context, id model.DeviceID) (*model.Device, error) {
	return circuitbreaker.Call(r.breaker, func() (*model.Device, error) {
		return r.inner.FetchByID(ctx, id)
	})
}

func (r *GuardedRepository) Search(
	ctx context.Context,
	filter *model.DeviceFilter,
	page model.Page,
) (*model.DeviceList, error) {
	return circuitbreaker.Call(r.breaker, func() (*model.DeviceList, error) {
		return r.inner.Search(ctx, filter, page)
	})
}

// Ping reports an open breaker as unhealthy without touching the database.
func (r *GuardedRepository) Ping(ctx context.Context) error {
	return circuitbreaker.Do(r.breaker, func() error {
		return r.inner.Ping(ctx)
	})
}
