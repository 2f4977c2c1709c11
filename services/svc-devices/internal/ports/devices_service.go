package ports

import (
	"context"

	"github.com/architeacher/filterspec/services/svc-devices/internal/domain/model"
)

type DevicesService interface {
	CreateDevice(ctx context.Context, device *model.Device) (*model.Device, error)

	GetDevice(ctx context.Context, id model.DeviceID) (*model.Device, error)

	// SearchDevices validates filter and returns the requested page of
	// matching devices.
	SearchDevices(ctx context.Context, filter *model.DeviceFilter, page model.Page) (*model.DeviceList, error)
}
