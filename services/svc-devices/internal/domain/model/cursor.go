package model

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var ErrInvalidCursor = errors.New("invalid cursor")

// Cursor is the keyset position of the last device on a page: the value
// of the sort field and the device ID.
type Cursor struct {
	Sort  string `json:"s"`
	Value string `json:"v"`
	ID    string `json:"id"`
}

// EncodeCursor serializes a cursor to a URL-safe base64 string.
func EncodeCursor(c Cursor) (string, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("marshal cursor: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(data), nil
}

// DecodeCursor deserializes a cursor from a base64 string.
func DecodeCursor(encoded string) (Cursor, error) {
	if encoded == "" {
		return Cursor{}, ErrInvalidCursor
	}

	data, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return Cursor{}, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}

	var c Cursor
	if err := json.Unmarshal(data, &c); err != nil {
		return Cursor{}, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}

	return c, nil
}

// NewCursor records the position of device under sort.
func NewCursor(device *Device, sort Sort) Cursor {
	var value string

	switch sort.Field {
	case SortByName:
		value = device.Name
	default:
		value = device.CreatedAt.UTC().Format(time.RFC3339Nano)
	}

	return Cursor{
		Sort:  sort.String(),
		Value: value,
		ID:    device.ID.String(),
	}
}

// SortValue returns the typed sort value, a time.Time for createdAt and a
// string for name.
func (c Cursor) SortValue() (any, error) {
	sort, err := ParseSort(c.Sort)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}

	switch sort.Field {
	case SortByName:
		return c.Value, nil
	default:
		ts, err := time.Parse(time.RFC3339Nano, c.Value)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
		}

		return ts, nil
	}
}

// DeviceID returns the tie-breaking device ID of the cursor.
func (c Cursor) DeviceID() (DeviceID, error) {
	id, err := ParseDeviceID(c.ID)
	if err != nil {
		return DeviceID{}, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}

	return id, nil
}

// Anchor rebuilds the sort-relevant part of the device the cursor points
// at, for comparison with Sort.Compare.
func (c Cursor) Anchor() (*Device, error) {
	value, err := c.SortValue()
	if err != nil {
		return nil, err
	}

	id, err := c.DeviceID()
	if err != nil {
		return nil, err
	}

	anchor := &Device{ID: id}

	switch v := value.(type) {
	case time.Time:
		anchor.CreatedAt = v
	case string:
		anchor.Name = v
	}

	return anchor, nil
}
