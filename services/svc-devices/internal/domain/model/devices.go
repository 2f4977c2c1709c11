package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type DeviceID struct {
	uuid.UUID
}

func NewDeviceID() DeviceID {
	return DeviceID{UUID: uuid.Must(uuid.NewV7())}
}

func ParseDeviceID(s string) (DeviceID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return DeviceID{}, fmt.Errorf("%w: %v", ErrInvalidDeviceID, err)
	}

	return DeviceID{UUID: id}, nil
}

func (d DeviceID) String() string {
	return d.UUID.String()
}

func (d DeviceID) IsZero() bool {
	return d.UUID == uuid.Nil
}

// Device is the record type device filters compile against. Owner and
// BatteryLevel are optional.
type Device struct {
	ID           DeviceID  `json:"id"`
	Name         string    `json:"name"`
	Brand        string    `json:"brand"`
	State        State     `json:"state"`
	Owner        *string   `json:"owner,omitempty"`
	BatteryLevel *int      `json:"batteryLevel,omitempty"`
	Tags         []string  `json:"tags"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func NewDevice(name, brand string, state State) *Device {
	now := time.Now().UTC()

	return &Device{
		ID:        NewDeviceID(),
		Name:      name,
		Brand:     brand,
		State:     state,
		Tags:      []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (d *Device) WithOwner(owner string) *Device {
	d.Owner = &owner

	return d
}

func (d *Device) WithBatteryLevel(level int) *Device {
	d.BatteryLevel = &level

	return d
}

func (d *Device) WithTags(tags ...string) *Device {
	d.Tags = append(d.Tags, tags...)

	return d
}
