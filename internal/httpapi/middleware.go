package httpapi

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func metricsHandler() http.Handler {
	return promhttp.Handler()
}

// statusRecorder captures the status code a handler wrote so middleware can
// log and record it after the fact.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// withMiddleware wraps mux with request tracing, structured access logging
// and Prometheus request metrics, and enforces the node's inbound request
// timeout.
func (s *Server) withMiddleware(next http.Handler) http.Handler {
	handler := http.Handler(next)
	handler = s.instrument(handler)
	handler = http.TimeoutHandler(handler, 10*time.Second, `{"error":"request timed out"}`)
	return handler
}

func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		var ctx = r.Context()
		if s.obs != nil {
			span, spanCtx := s.obs.StartSpan(ctx, "http.request")
			ctx = spanCtx
			if span != nil {
				defer span.Finish()
			}
		}
		r = r.WithContext(ctx)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		duration := time.Since(start)
		route := r.URL.Path

		s.logger.Debug("handled request",
			zap.String("method", r.Method),
			zap.String("route", route),
			zap.Int("status", rec.status),
			zap.Duration("duration", duration),
		)

		if s.metrics != nil {
			status := http.StatusText(rec.status)
			s.metrics.HTTPRequestsTotal.WithLabelValues(r.Method, route, status).Inc()
			s.metrics.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(duration.Seconds())
		}
	})
}
