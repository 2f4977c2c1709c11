package model

import (
	"fmt"
	"time"

	"github.com/architeacher/filterspec/pkg/predicate"
)

// MaxFilterDepth bounds the nesting of and/or groups accepted from clients.
const MaxFilterDepth = 8

// DeviceFilter is the search specification for devices. Each JSON key is
// also the criterion slot name, so "battery_level_gte" constrains
// Device.BatteryLevel with >=.
type DeviceFilter struct {
	IDIn            []DeviceID `json:"id_in,omitempty"`
	Name            *string    `json:"name,omitempty"`
	NameContains    *string    `json:"name_contains,omitempty"`
	NameStartsWith  *string    `json:"name_starts_with,omitempty"`
	BrandIn         []string   `json:"brand_in,omitempty"`
	BrandNotIn      []string   `json:"brand_not_in,omitempty"`
	State           *State     `json:"state,omitempty"`
	StateNot        *State     `json:"state_not,omitempty"`
	Owner           *string    `json:"owner,omitempty"`
	OwnerNull       *bool      `json:"owner_null,omitempty"`
	BatteryLevelGTE *int       `json:"battery_level_gte,omitempty"`
	BatteryLevelLT  *int       `json:"battery_level_lt,omitempty"`
	TagsEmpty       *bool      `json:"tags_empty,omitempty"`
	CreatedAtGT     *time.Time `json:"created_at_gt,omitempty"`
	CreatedAtLTE    *time.Time `json:"created_at_lte,omitempty"`

	And []*DeviceFilter `json:"and,omitempty"`
	Or  []*DeviceFilter `json:"or,omitempty"`
}

func (f *DeviceFilter) Slots() []predicate.Slot {
	if f == nil {
		return nil
	}

	return []predicate.Slot{
		predicate.List("id_in", f.IDIn),
		predicate.Ptr("name", f.Name),
		predicate.Ptr("name_contains", f.NameContains),
		predicate.Ptr("name_starts_with", f.NameStartsWith),
		predicate.List("brand_in", f.BrandIn),
		predicate.List("brand_not_in", f.BrandNotIn),
		predicate.Ptr("state", f.State),
		predicate.Ptr("state_not", f.StateNot),
		predicate.Ptr("owner", f.Owner),
		predicate.Ptr("owner_null", f.OwnerNull),
		predicate.Ptr("battery_level_gte", f.BatteryLevelGTE),
		predicate.Ptr("battery_level_lt", f.BatteryLevelLT),
		predicate.Ptr("tags_empty", f.TagsEmpty),
		predicate.Ptr("created_at_gt", f.CreatedAtGT),
		predicate.Ptr("created_at_lte", f.CreatedAtLTE),
	}
}

func (f *DeviceFilter) Children() ([]predicate.Node[Device], []predicate.Node[Device]) {
	if f == nil {
		return nil, nil
	}

	return predicate.Nodes[Device](f.And), predicate.Nodes[Device](f.Or)
}

// Validate checks the filter tree for problems the compiler does not
// report, such as excessive nesting or nil groups.
func (f *DeviceFilter) Validate() error {
	errs := NewValidationErrors()

	f.validate("filter", 1, errs)

	if errs.HasErrors() {
		return errs
	}

	return nil
}

func (f *DeviceFilter) validate(path string, depth int, errs *ValidationErrors) {
	if f == nil {
		return
	}

	if depth > MaxFilterDepth {
		errs.Add(path, fmt.Sprintf("filter nesting exceeds %d levels", MaxFilterDepth), "too_deep")

		return
	}

	if f.BatteryLevelGTE != nil && (*f.BatteryLevelGTE < 0 || *f.BatteryLevelGTE > 100) {
		errs.Add(path+".battery_level_gte", "battery level must be between 0 and 100", "out_of_range")
	}

	if f.BatteryLevelLT != nil && (*f.BatteryLevelLT < 0 || *f.BatteryLevelLT > 101) {
		errs.Add(path+".battery_level_lt", "battery level must be between 0 and 101", "out_of_range")
	}

	groups := []struct {
		name     string
		children []*DeviceFilter
	}{
		{name: "and", children: f.And},
		{name: "or", children: f.Or},
	}

	for _, group := range groups {
		for i, child := range group.children {
			childPath := fmt.Sprintf("%s.%s[%d]", path, group.name, i)
			if child == nil {
				errs.Add(childPath, "filter group must not be null", "null_group")

				continue
			}

			child.validate(childPath, depth+1, errs)
		}
	}
}
