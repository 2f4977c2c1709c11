package predicate_test

import (
	"strings"
	"testing"

	"github.com/architeacher/filterspec/pkg/predicate"
	"github.com/stretchr/testify/require"
)

func TestOperatorsVocabulary(t *testing.T) {
	t.Parallel()

	ops := predicate.Operators()
	require.Len(t, ops, 18)

	seen := make(map[predicate.Operator]struct{}, len(ops))
	for _, op := range ops {
		require.True(t, op.IsValid(), op)
		require.Equal(t, strings.ToLower(op.String()), op.String())

		_, dup := seen[op]
		require.False(t, dup, "duplicate operator %s", op)
		seen[op] = struct{}{}
	}

	ops[0] = "mutated"
	require.Equal(t, predicate.OpEqual, predicate.Operators()[0])
}

func TestParseOperator(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		token    string
		expected predicate.Operator
		found    bool
	}{
		{name: "lower case", token: "gte", expected: predicate.OpGreaterOrEqual, found: true},
		{name: "upper case", token: "NOTIN", expected: predicate.OpNotIn, found: true},
		{name: "mixed case", token: "StartsWith", expected: predicate.OpStartsWith, found: true},
		{name: "null token", token: "null", expected: predicate.OpIsNull, found: true},
		{name: "unknown", token: "between"},
		{name: "empty", token: ""},
		{name: "separator is not stripped", token: "not_in"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			op, ok := predicate.ParseOperator(tc.token)
			require.Equal(t, tc.found, ok)
			require.Equal(t, tc.expected, op)
		})
	}
}

func TestOperatorNegated(t *testing.T) {
	t.Parallel()

	cases := []struct {
		op       predicate.Operator
		expected predicate.Operator
		ok       bool
	}{
		{op: predicate.OpIn, expected: predicate.OpNotIn, ok: true},
		{op: predicate.OpContains, expected: predicate.OpNotContains, ok: true},
		{op: predicate.OpStartsWith, expected: predicate.OpNotStartsWith, ok: true},
		{op: predicate.OpEndsWith, expected: predicate.OpNotEndsWith, ok: true},
		{op: predicate.OpIsNull, expected: predicate.OpIsNotNull, ok: true},
		{op: predicate.OpIsEmpty, expected: predicate.OpIsNotEmpty, ok: true},
		{op: predicate.OpEqual},
		{op: predicate.OpLessThan},
		{op: predicate.OpNotIn},
	}

	for _, tc := range cases {
		t.Run(tc.op.String(), func(t *testing.T) {
			t.Parallel()

			negated, ok := tc.op.Negated()
			require.Equal(t, tc.ok, ok)
			require.Equal(t, tc.expected, negated)
		})
	}
}

func TestOperatorIsToggle(t *testing.T) {
	t.Parallel()

	toggles := map[predicate.Operator]bool{
		predicate.OpIsNull:     true,
		predicate.OpIsNotNull:  true,
		predicate.OpIsEmpty:    true,
		predicate.OpIsNotEmpty: true,
	}

	for _, op := range predicate.Operators() {
		require.Equal(t, toggles[op], op.IsToggle(), op)
	}
}
