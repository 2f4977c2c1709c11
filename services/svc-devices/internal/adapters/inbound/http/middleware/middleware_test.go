package middleware_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/architeacher/filterspec/pkg/logger"
	"github.com/architeacher/filterspec/services/svc-devices/internal/adapters/inbound/http/middleware"
)

func TestRequestTracking(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		requestID string
	}{
		{name: "propagates incoming id", requestID: "req-123"},
		{name: "mints missing id"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var seen string

			handler := middleware.RequestTracking()(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
				seen = middleware.GetRequestID(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/v1/devices", nil)
			if tc.requestID != "" {
				req.Header.Set(middleware.RequestIDHeader, tc.requestID)
			}

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			require.NotEmpty(t, seen)
			require.Equal(t, seen, rec.Header().Get(middleware.RequestIDHeader))
			require.NotEmpty(t, rec.Header().Get(middleware.CorrelationIDHeader))

			if tc.requestID != "" {
				require.Equal(t, tc.requestID, seen)
			}
		})
	}
}

func TestRecovery(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}

	handler := middleware.Recovery(logger.NewBufferedTestLogger(buf))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/devices", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.JSONEq(t, `{"code":"INTERNAL_ERROR","message":"internal server error"}`, rec.Body.String())
	require.Contains(t, buf.String(), `"error":"boom"`)
}

func TestAccessLogger(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name            string
		path            string
		status          int
		logHealthChecks bool
		expectedLevel   string
	}{
		{name: "success at info", path: "/v1/devices", status: http.StatusOK, expectedLevel: `"level":"info"`},
		{name: "client error at warn", path: "/v1/devices", status: http.StatusBadRequest, expectedLevel: `"level":"warn"`},
		{name: "server error at error", path: "/v1/devices", status: http.StatusInternalServerError, expectedLevel: `"level":"error"`},
		{name: "health probe skipped", path: "/healthz", status: http.StatusOK},
		{name: "health probe logged on demand", path: "/healthz", status: http.StatusOK, logHealthChecks: true, expectedLevel: `"level":"info"`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			buf := &bytes.Buffer{}

			handler := middleware.AccessLogger(logger.NewBufferedTestLogger(buf), tc.logHealthChecks)(
				http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
					w.WriteHeader(tc.status)
				}),
			)

			handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, tc.path, nil))

			if tc.expectedLevel == "" {
				require.Empty(t, buf.String())

				return
			}

			require.Contains(t, buf.String(), tc.expectedLevel)
			require.Contains(t, buf.String(), `"path":"`+tc.path+`"`)
		})
	}
}
