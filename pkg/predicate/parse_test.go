package predicate_test

import (
	"testing"

	"github.com/architeacher/filterspec/pkg/predicate"
	"github.com/stretchr/testify/require"
)

func TestParseCriterion(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name          string
		criterion     string
		expectedField string
		expectedOp    predicate.Operator
	}{
		{name: "multi token field", criterion: "foo_bar_gt", expectedField: "foo_bar", expectedOp: predicate.OpGreaterThan},
		{name: "not upgrade", criterion: "foo_not_in", expectedField: "foo", expectedOp: predicate.OpNotIn},
		{name: "no operator defaults to equal", criterion: "foo", expectedField: "foo", expectedOp: predicate.OpEqual},
		{name: "multi token field without operator", criterion: "created_at", expectedField: "created_at", expectedOp: predicate.OpEqual},
		{name: "operator spread over tokens", criterion: "name_starts_with", expectedField: "name", expectedOp: predicate.OpStartsWith},
		{name: "not upgrade of spread operator", criterion: "name_not_starts_with", expectedField: "name", expectedOp: predicate.OpNotStartsWith},
		{name: "single token negated operator", criterion: "name_notcontains", expectedField: "name", expectedOp: predicate.OpNotContains},
		{name: "trailing not is an operator", criterion: "state_not", expectedField: "state", expectedOp: predicate.OpNot},
		{name: "not without negated form stays in field", criterion: "age_not_lt", expectedField: "age_not", expectedOp: predicate.OpLessThan},
		{name: "double not", criterion: "state_not_not", expectedField: "state_not", expectedOp: predicate.OpNot},
		{name: "not null", criterion: "owner_not_null", expectedField: "owner", expectedOp: predicate.OpIsNotNull},
		{name: "not empty", criterion: "tags_not_empty", expectedField: "tags", expectedOp: predicate.OpIsNotEmpty},
		{name: "shortest suffix wins over field tokens", criterion: "price_l_t_e", expectedField: "price", expectedOp: predicate.OpLessOrEqual},
		{name: "operator word inside field", criterion: "contains_in", expectedField: "contains", expectedOp: predicate.OpIn},
		{name: "earlier operator token is part of field", criterion: "is_null_gt", expectedField: "is_null", expectedOp: predicate.OpGreaterThan},
		{name: "case insensitive operator", criterion: "age_GTE", expectedField: "age", expectedOp: predicate.OpGreaterOrEqual},
		{name: "upper case not is not an upgrade", criterion: "id_NOT_in", expectedField: "id_NOT", expectedOp: predicate.OpIn},
		{name: "operator only", criterion: "in", expectedField: "", expectedOp: predicate.OpIn},
		{name: "not upgrade consuming whole name", criterion: "not_in", expectedField: "", expectedOp: predicate.OpNotIn},
		{name: "empty name", criterion: "", expectedField: "", expectedOp: predicate.OpEqual},
		{name: "camel case field", criterion: "BatteryLevel_gte", expectedField: "BatteryLevel", expectedOp: predicate.OpGreaterOrEqual},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			field, op := predicate.ParseCriterion(tc.criterion)
			require.Equal(t, tc.expectedField, field)
			require.Equal(t, tc.expectedOp, op)

			again, againOp := predicate.ParseCriterion(tc.criterion)
			require.Equal(t, field, again)
			require.Equal(t, op, againOp)
		})
	}
}

func TestParseCriterionIsTotal(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"_", "__", "a__gt", "_gt", "gt_", "not_", "ünïcode_lt", "a-b_in"} {
		field, op := predicate.ParseCriterion(name)
		require.True(t, op.IsValid(), "name %q gave %q", name, op)
		require.LessOrEqual(t, len(field), len(name))
	}
}

func TestSlotResolve(t *testing.T) {
	t.Parallel()

	crit := predicate.Value("battery_level_gte", 20).Resolve()

	require.Equal(t, predicate.Criterion{
		Slot:  "battery_level_gte",
		Field: "battery_level",
		Op:    predicate.OpGreaterOrEqual,
		Value: 20,
	}, crit)
}
