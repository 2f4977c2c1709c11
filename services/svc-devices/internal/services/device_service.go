package services

import (
	"context"
	"fmt"

	"github.com/architeacher/filterspec/services/svc-devices/internal/domain/model"
	"github.com/architeacher/filterspec/services/svc-devices/internal/ports"
)

type DevicesService struct {
	repo ports.DevicesRepository
}

func NewDevicesService(repo ports.DevicesRepository) *DevicesService {
	return &DevicesService{repo: repo}
}

func (s *DevicesService) CreateDevice(ctx context.Context, device *model.Device) (*model.Device, error) {
	if !device.State.IsValid() {
		return nil, fmt.Errorf("%w: %q", model.ErrInvalidState, device.State)
	}

	if device.ID.IsZero() {
		device.ID = model.NewDeviceID()
	}

	if err := s.repo.Create(ctx, device); err != nil {
		return nil, err
	}

	return device, nil
}

func (s *DevicesService) GetDevice(ctx context.Context, id model.DeviceID) (*model.Device, error) {
	return s.repo.FetchByID(ctx, id)
}

func (s *DevicesService) SearchDevices(
	ctx context.Context,
	filter *model.DeviceFilter,
	page model.Page,
) (*model.DeviceList, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	return s.repo.Search(ctx, filter, page)
}
