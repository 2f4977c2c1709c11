package middleware

import (
	"net/http"
	"strings"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/architeacher/filterspec/pkg/logger"
)

var healthEndpoints = map[string]struct{}{
	"/healthz": {},
	"/readyz":  {},
}

// AccessLogger writes one structured line per request. Health probes are
// skipped unless logHealthChecks is set.
func AccessLogger(log logger.Logger, logHealthChecks bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !logHealthChecks && isHealthEndpoint(r.URL.Path) {
				next.ServeHTTP(w, r)

				return
			}

			start := time.Now()
			wrapped := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(wrapped, r)

			status := wrapped.Status()
			if status == 0 {
				status = http.StatusOK
			}

			reqLogger := log.WithContext(r.Context()).With().Str("component", "http").Logger()

			event := reqLogger.Info()
			if status >= http.StatusInternalServerError {
				event = reqLogger.Error()
			} else if status >= http.StatusBadRequest {
				event = reqLogger.Warn()
			}

			event.
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("remote_addr", r.RemoteAddr).
				Str("user_agent", r.UserAgent()).
				Int("status", status).
				Int("bytes", wrapped.BytesWritten()).
				Int64("duration_ms", time.Since(start).Milliseconds())

			if r.URL.RawQuery != "" {
				event.Str("query", r.URL.RawQuery)
			}

			event.Msg("request handled")
		})
	}
}

func isHealthEndpoint(path string) bool {
	_, ok := healthEndpoints[strings.TrimSuffix(path, "/")]

	return ok
}
