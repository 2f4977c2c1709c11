package ports

import (
	"context"

	"github.com/architeacher/filterspec/services/svc-devices/internal/domain/model"
)

type (
	Saver interface {
		// Create stores a new device.
		Create(ctx context.Context, device *model.Device) error
	}

	Fetcher interface {
		// FetchByID retrieves a device by its ID.
		FetchByID(ctx context.Context, id model.DeviceID) (*model.Device, error)
	}

	Finder interface {
		// Search returns one page of the devices matching filter. A nil
		// filter matches every device.
		Search(ctx context.Context, filter *model.DeviceFilter, page model.Page) (*model.DeviceList, error)
	}

	// DevicesRepository is implemented by the in-memory and Postgres stores.
	DevicesRepository interface {
		Saver
		Fetcher
		Finder
		DatabaseHealthChecker
	}
)
