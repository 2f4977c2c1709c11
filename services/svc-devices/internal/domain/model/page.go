package model

import (
	"bytes"
	"fmt"
	"strings"
)

const (
	DefaultPageSize uint = 20
	MaxPageSize     uint = 100

	descendingPrefix = "-"
)

type (
	SortField string

	// Sort orders devices by one field, with the device ID breaking ties in
	// the same direction.
	Sort struct {
		Field      SortField
		Descending bool
	}

	Page struct {
		Size   uint
		Sort   Sort
		Cursor *Cursor
	}

	DeviceList struct {
		Devices    []*Device
		Size       uint
		NextCursor string
	}
)

const (
	SortByCreatedAt SortField = "createdAt"
	SortByName      SortField = "name"
)

func DefaultSort() Sort {
	return Sort{Field: SortByCreatedAt, Descending: true}
}

// ParseSort reads "name", "-createdAt" and the like. An empty value yields
// DefaultSort.
func ParseSort(s string) (Sort, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultSort(), nil
	}

	sort := Sort{}
	if rest, ok := strings.CutPrefix(s, descendingPrefix); ok {
		sort.Descending = true
		s = rest
	}

	switch SortField(s) {
	case SortByCreatedAt, "created_at":
		sort.Field = SortByCreatedAt
	case SortByName:
		sort.Field = SortByName
	default:
		return Sort{}, fmt.Errorf("%w: unsupported field %q", ErrInvalidSort, s)
	}

	return sort, nil
}

func (s Sort) String() string {
	if s.Descending {
		return descendingPrefix + string(s.Field)
	}

	return string(s.Field)
}

// Compare orders a before b (negative) or after b (positive) under s.
func (s Sort) Compare(a, b *Device) int {
	var c int

	switch s.Field {
	case SortByName:
		c = strings.Compare(a.Name, b.Name)
	default:
		c = a.CreatedAt.Compare(b.CreatedAt)
	}

	if c == 0 {
		c = bytes.Compare(a.ID.UUID[:], b.ID.UUID[:])
	}

	if s.Descending {
		return -c
	}

	return c
}

// NewPage validates the raw paging parameters of a request. A zero size
// selects DefaultPageSize.
func NewPage(size uint, sort, cursor string) (Page, error) {
	if size == 0 {
		size = DefaultPageSize
	}

	if size > MaxPageSize {
		return Page{}, fmt.Errorf("%w: %d exceeds %d", ErrInvalidPageSize, size, MaxPageSize)
	}

	parsed, err := ParseSort(sort)
	if err != nil {
		return Page{}, err
	}

	page := Page{Size: size, Sort: parsed}

	if cursor == "" {
		return page, nil
	}

	c, err := DecodeCursor(cursor)
	if err != nil {
		return Page{}, err
	}

	if c.Sort != parsed.String() {
		return Page{}, fmt.Errorf("%w: issued for sort %q, not %q", ErrInvalidCursor, c.Sort, parsed)
	}

	page.Cursor = &c

	return page, nil
}

// Paginate keeps the devices after the page cursor, in sort order, and
// cuts them to the page size. devices must already be sorted.
func Paginate(devices []*Device, page Page) (*DeviceList, error) {
	start := 0

	if page.Cursor != nil {
		anchor, err := page.Cursor.Anchor()
		if err != nil {
			return nil, err
		}

		for start < len(devices) && page.Sort.Compare(devices[start], anchor) <= 0 {
			start++
		}
	}

	rest := devices[start:]
	end := min(len(rest), int(page.Size))

	list := &DeviceList{
		Devices: rest[:end],
		Size:    page.Size,
	}

	if len(rest) > end && end > 0 {
		next, err := EncodeCursor(NewCursor(rest[end-1], page.Sort))
		if err != nil {
			return nil, err
		}

		list.NextCursor = next
	}

	return list, nil
}
