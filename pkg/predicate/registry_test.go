package predicate_test

import (
	"bytes"
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/architeacher/filterspec/pkg/logger"
	"github.com/architeacher/filterspec/pkg/predicate"
)

func newMemberRegistry(t *testing.T) *predicate.Registry {
	t.Helper()

	r := predicate.NewRegistry()
	predicate.Register[member, *memberFilter](r)
	predicate.Register[member, *predicate.Spec[member]](r)

	return r
}

func TestRegistryCompileDynamic(t *testing.T) {
	t.Parallel()

	r := newMemberRegistry(t)
	recordType := reflect.TypeFor[member]()

	cases := []struct {
		name     string
		spec     any
		expected []int
	}{
		{name: "typed filter", spec: &memberFilter{IDIn: []int{1, 2}}, expected: []int{1, 2}},
		{name: "explicit spec", spec: spec(predicate.Value("age_lte", 30)), expected: []int{2, 3}},
		{name: "typed nil filter", spec: (*memberFilter)(nil), expected: []int{1, 2, 3}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			pred, err := r.CompileDynamic(tc.spec, recordType)
			require.NoError(t, err)

			ids := []int{}
			for _, m := range members {
				if pred(m) {
					ids = append(ids, m.ID)
				}
			}

			require.Equal(t, tc.expected, ids)
		})
	}
}

func TestRegistryRejectsForeignRecords(t *testing.T) {
	t.Parallel()

	r := newMemberRegistry(t)

	pred, err := r.CompileDynamic(&memberFilter{}, reflect.TypeFor[member]())
	require.NoError(t, err)

	require.True(t, pred(members[0]))
	require.False(t, pred(&members[0]))
	require.False(t, pred("member"))
	require.False(t, pred(nil))
}

func TestRegistryNoMatchingCompiler(t *testing.T) {
	t.Parallel()

	r := newMemberRegistry(t)

	cases := []struct {
		name   string
		spec   any
		record reflect.Type
	}{
		{name: "nil spec", spec: nil, record: reflect.TypeFor[member]()},
		{name: "unregistered spec type", spec: memberFilter{}, record: reflect.TypeFor[member]()},
		{name: "unregistered record type", spec: &memberFilter{}, record: reflect.TypeFor[*member]()},
		{name: "not a spec", spec: 42, record: reflect.TypeFor[member]()},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			pred, err := r.CompileDynamic(tc.spec, tc.record)
			require.ErrorIs(t, err, predicate.ErrNoMatchingCompiler)
			require.Nil(t, pred)
		})
	}
}

func TestRegistryPropagatesCompileErrors(t *testing.T) {
	t.Parallel()

	r := newMemberRegistry(t)

	_, err := r.CompileDynamic(spec(predicate.Value("height", 1)), reflect.TypeFor[member]())
	require.ErrorIs(t, err, predicate.ErrFieldNotFound)
}

func TestRegistrySupportsAndLogs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	r := predicate.NewRegistry(predicate.WithRegistryLogger(logger.NewBufferedTestLogger(&buf)))
	require.False(t, r.Supports(reflect.TypeFor[*memberFilter](), reflect.TypeFor[member]()))

	predicate.Register[member, *memberFilter](r)

	require.True(t, r.Supports(reflect.TypeFor[*memberFilter](), reflect.TypeFor[member]()))
	require.Contains(t, buf.String(), "registered filter compiler")
	require.Contains(t, buf.String(), `"component":"predicate"`)
}
