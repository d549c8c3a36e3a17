package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"dayflow/internal/platform/metrics"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Unwrap() http.ResponseWriter {
	return s.ResponseWriter
}

// Logger writes one structured line per request and feeds the metrics
// collector when one is given.
func Logger(collector *metrics.Collector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			if collector != nil {
				collector.Begin()
			}
			recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(recorder, r)
			duration := time.Since(start)
			if collector != nil {
				collector.Record(recorder.status, duration)
			}

			level := slog.LevelInfo
			if recorder.status >= 500 {
				level = slog.LevelError
			}
			attrs := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", recorder.status,
				"durationMs", duration.Milliseconds(),
				"requestId", GetRequestID(r.Context()),
			}
			if user, ok := GetUser(r.Context()); ok {
				attrs = append(attrs, "userId", user.UserID)
			}
			slog.Log(r.Context(), level, "http request", attrs...)
		})
	}
}
