package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"art-platform/backend/metrics"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// knownPaths bounds the path label; anything else is counted as "other".
var knownPaths = map[string]bool{
	"/":                             true,
	"/login":                        true,
	"/logout":                       true,
	"/register":                     true,
	"/security-settings":            true,
	"/security-settings/toggle-2fa": true,
	"/twofa-setup":                  true,
	"/verify-2fa":                   true,
	"/compliance-documents":         true,
	"/security-events":              true,
	"/health":                       true,
}

func WithMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		sr := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sr, r)

		duration := time.Since(start).Seconds()
		path := r.URL.Path
		if !knownPaths[path] {
			path = "other"
		}
		statusStr := strconv.Itoa(sr.status)

		metrics.HTTPRequestsTotal.WithLabelValues(r.Method, path, statusStr).Inc()
		metrics.HTTPRequestDurationSeconds.WithLabelValues(r.Method, path).Observe(duration)

		slog.Debug("request served",
			"source", "http",
			"method", r.Method,
			"path", r.URL.Path,
			"status", sr.status,
			"duration_seconds", duration,
		)
	})
}
