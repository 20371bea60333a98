package middleware

import (
	"context"
	"net/http"
	"time"

	"vectorbase/internal/logging"
)

// contextKey namespaces values this package stores on the request context.
type contextKey string

// RequestIDKey is the context key for request ID
const RequestIDKey contextKey = "request_id"

// LoggingMiddleware logs every request/response except the /health and
// /api/health checks through the structured logging.Logger, tagging each
// with a trace ID so a request's start, finish,
// and any downstream build/search logs it triggers can be correlated.
type LoggingMiddleware struct {
	logger logging.Logger
}

// NewLoggingMiddleware creates a new logging middleware
func NewLoggingMiddleware(logger logging.Logger) *LoggingMiddleware {
	if logger == nil {
		logger = logging.NewNoOpLogger()
	}
	return &LoggingMiddleware{logger: logger.WithComponent("http")}
}

// Handler returns the logging middleware handler
func (lm *LoggingMiddleware) Handler() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Skip logging for health checks to reduce noise
			if r.URL.Path == "/health" || r.URL.Path == "/api/health" {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()

			requestID := r.Header.Get("X-Request-ID")
			if requestID == "" {
				requestID = logging.GenerateTraceID()
			}

			ctx := context.WithValue(r.Context(), RequestIDKey, requestID)
			ctx = logging.WithTraceID(ctx, requestID)
			r = r.WithContext(ctx)
			w.Header().Set("X-Request-ID", requestID)

			wrapper := &responseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			lm.logger.InfoContext(ctx, "request started",
				"method", r.Method,
				"path", r.URL.Path,
				"remote_addr", r.RemoteAddr,
				"user_agent", r.Header.Get("User-Agent"),
			)

			next.ServeHTTP(wrapper, r)

			duration := time.Since(start)
			fields := []interface{}{
				"method", r.Method,
				"path", r.URL.Path,
				"status", wrapper.statusCode,
				"duration_ms", duration.Milliseconds(),
			}

			switch {
			case wrapper.statusCode >= 500:
				lm.logger.ErrorContext(ctx, "request failed", fields...)
			case wrapper.statusCode >= 400:
				lm.logger.WarnContext(ctx, "request completed with client error", fields...)
			default:
				lm.logger.InfoContext(ctx, "request completed", fields...)
			}

			if duration > 1*time.Second {
				lm.logger.WarnContext(ctx, "slow request",
					"method", r.Method,
					"path", r.URL.Path,
					"duration_ms", duration.Milliseconds(),
				)
			}
		})
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

// WriteHeader captures the status code
func (rw *responseWriter) WriteHeader(statusCode int) {
	rw.statusCode = statusCode
	rw.ResponseWriter.WriteHeader(statusCode)
}

// GetRequestID extracts request ID from context
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}
