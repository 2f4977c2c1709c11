package decorator

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/architeacher/filterspec/pkg/logger"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

type (
	lookupWidgets struct{ Name string }

	stubHandler struct {
		result []string
		err    error
	}

	recordingClient struct {
		mu   sync.Mutex
		keys []string
	}
)

func (h stubHandler) Execute(context.Context, lookupWidgets) ([]string, error) {
	return h.result, h.err
}

func (c *recordingClient) Inc(_ context.Context, key string, _ any, _ ...attribute.KeyValue) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.keys = append(c.keys, key)
}

func TestGenerateActionName(t *testing.T) {
	t.Parallel()

	require.Equal(t, "lookupWidgets", generateActionName(lookupWidgets{}))
	require.Equal(t, "lookupWidgets", generateActionName(&lookupWidgets{}))
}

func TestApplyQueryDecorators(t *testing.T) {
	t.Parallel()

	errBoom := errors.New("boom")

	cases := []struct {
		name        string
		handler     stubHandler
		expectedKey string
		expectedErr error
		logContains string
	}{
		{
			name:        "counts success",
			handler:     stubHandler{result: []string{"a"}},
			expectedKey: "queries.lookupwidgets.success",
			logContains: "query executed successfully",
		},
		{
			name:        "counts and logs failure",
			handler:     stubHandler{err: errBoom},
			expectedKey: "queries.lookupwidgets.failure",
			expectedErr: errBoom,
			logContains: "failed to execute query",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var (
				buf    bytes.Buffer
				client = &recordingClient{}
			)

			handler := ApplyQueryDecorators[lookupWidgets, []string](
				tc.handler,
				logger.NewBufferedTestLogger(&buf),
				client,
				tracenoop.NewTracerProvider(),
			)

			result, err := handler.Execute(context.Background(), lookupWidgets{Name: "x"})
			if tc.expectedErr != nil {
				require.ErrorIs(t, err, tc.expectedErr)
			} else {
				require.NoError(t, err)
				require.Equal(t, tc.handler.result, result)
			}

			require.Contains(t, client.keys, "queries.lookupwidgets.duration_ms")
			require.Contains(t, client.keys, tc.expectedKey)
			require.Contains(t, buf.String(), tc.logContains)
		})
	}
}

func TestTracingDecoratorWithoutProvider(t *testing.T) {
	t.Parallel()

	d := queryTracingDecorator[lookupWidgets, []string]{base: stubHandler{result: []string{"b"}}}

	result, err := d.Execute(context.Background(), lookupWidgets{})
	require.NoError(t, err)
	require.Equal(t, []string{"b"}, result)
}
