package circuitbreaker

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/architeacher/filterspec/pkg/logger"
)

var (
	errUnavailable = errors.New("connection refused")
	errNotFound    = errors.New("not found")
)

func enabled(name string, threshold uint) Settings {
	return Settings{
		Name:             name,
		Enabled:          true,
		HalfOpenProbes:   1,
		ResetInterval:    time.Minute,
		Timeout:          time.Minute,
		FailureThreshold: threshold,
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name          string
		settings      Settings
		expectedNil   bool
		expectedName  string
		expectedState string
	}{
		{name: "enabled", settings: enabled("postgres", 3), expectedName: "postgres", expectedState: "closed"},
		{name: "disabled", settings: Settings{Name: "postgres"}, expectedNil: true, expectedName: "", expectedState: "closed"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			b := New(tc.settings)

			require.Equal(t, tc.expectedNil, b == nil)
			require.Equal(t, tc.expectedName, b.Name())
			require.Equal(t, tc.expectedState, b.State())
		})
	}
}

func TestCall(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name           string
		breaker        *Breaker
		fn             func() (int, error)
		expectedResult int
		expectedErr    error
	}{
		{
			name:           "success through breaker",
			breaker:        New(enabled("ok", 3)),
			fn:             func() (int, error) { return 7, nil },
			expectedResult: 7,
		},
		{
			name:           "nil breaker calls through",
			fn:             func() (int, error) { return 9, nil },
			expectedResult: 9,
		},
		{
			name:        "failure is returned",
			breaker:     New(enabled("failing", 3)),
			fn:          func() (int, error) { return 0, errUnavailable },
			expectedErr: errUnavailable,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			result, err := Call(tc.breaker, tc.fn)

			require.ErrorIs(t, err, tc.expectedErr)
			require.Equal(t, tc.expectedResult, result)
		})
	}
}

func TestBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	b := New(enabled("postgres", 2), WithLogger(logger.NewBufferedTestLogger(&buf)))

	for range 2 {
		require.ErrorIs(t, Do(b, func() error { return errUnavailable }), errUnavailable)
	}

	calls := 0
	err := Do(b, func() error {
		calls++

		return nil
	})

	require.ErrorIs(t, err, ErrOpen)
	require.Zero(t, calls)
	require.Equal(t, "open", b.State())
	require.Contains(t, buf.String(), "circuit breaker state changed")
	require.Contains(t, buf.String(), `"to":"open"`)
}

func TestBreaker_ExcludedErrorsKeepItClosed(t *testing.T) {
	t.Parallel()

	b := New(enabled("postgres", 1), WithExcludedErrors(errNotFound))

	for range 3 {
		_, err := Call(b, func() (*string, error) { return nil, errNotFound })
		require.ErrorIs(t, err, errNotFound)
	}

	require.Equal(t, "closed", b.State())
}

func TestBreaker_HalfOpenProbe(t *testing.T) {
	t.Parallel()

	settings := enabled("probe", 1)
	settings.Timeout = 50 * time.Millisecond

	b := New(settings)

	require.Error(t, Do(b, func() error { return errUnavailable }))
	require.Equal(t, "open", b.State())

	require.Eventually(t, func() bool { return b.State() == "half-open" }, time.Second, 10*time.Millisecond)

	entered := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)

	go func() {
		done <- Do(b, func() error {
			close(entered)
			<-release

			return nil
		})
	}()

	<-entered
	require.ErrorIs(t, Do(b, func() error { return nil }), ErrProbeLimit)

	close(release)
	require.NoError(t, <-done)
	require.Equal(t, "closed", b.State())
}
