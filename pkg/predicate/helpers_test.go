package predicate_test

import (
	"time"

	"github.com/architeacher/filterspec/pkg/predicate"
)

type (
	member struct {
		ID       int
		Age      int
		Level    int8
		Name     *string
		Nick     string `json:"nickname"`
		Score    *float64
		Active   bool
		Tags     []string
		Labels   map[string]string
		JoinedAt time.Time
		Extra    any
	}

	memberFilter struct {
		AgeGT    *int    `json:"age_gt,omitempty"`
		IDIn     []int   `json:"id_in,omitempty"`
		NameNull *bool   `json:"name_null,omitempty"`
		Nick     *string `json:"nick,omitempty"`
		And      []*memberFilter
		Or       []*memberFilter
	}
)

func (f *memberFilter) Slots() []predicate.Slot {
	if f == nil {
		return nil
	}

	return []predicate.Slot{
		predicate.Ptr("age_gt", f.AgeGT),
		predicate.List("id_in", f.IDIn),
		predicate.Ptr("name_null", f.NameNull),
		predicate.Ptr("nick", f.Nick),
	}
}

func (f *memberFilter) Children() ([]predicate.Node[member], []predicate.Node[member]) {
	if f == nil {
		return nil, nil
	}

	return predicate.Nodes[member](f.And), predicate.Nodes[member](f.Or)
}

func ptr[V any](v V) *V {
	return &v
}

func spec(slots ...predicate.Slot) *predicate.Spec[member] {
	return &predicate.Spec[member]{Criteria: slots}
}
