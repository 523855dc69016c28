// Package shield provides the HTTP middleware stack for the stats API:
// panic recovery, request tracing with access logs, security headers,
// per-IP rate limiting, and HEAD method handling.
//
// Usage:
//
//	r := chi.NewRouter()
//	for _, mw := range shield.DefaultStack(logger, 60) {
//	    r.Use(mw)
//	}
//
// Or pick middleware individually with r.Use(shield.HeadToGet) etc.
package shield

import (
	"context"
	"log/slog"
	"net/http"
)

type contextKey string

const (
	// LoggerKey is the context key for the per-request structured logger.
	LoggerKey contextKey = "shield_logger"

	// TraceIDKey is the context key for the request trace ID.
	TraceIDKey contextKey = "shield_trace_id"
)

// GetLogger retrieves the per-request logger from the context.
// Returns slog.Default() if no logger was set.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(LoggerKey).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}

// GetTraceID retrieves the trace ID from the request context, or "".
func GetTraceID(ctx context.Context) string {
	v, _ := ctx.Value(TraceIDKey).(string)
	return v
}

// DefaultStack returns the standard middleware stack for the API, ordered
// Recover → HeadToGet → SecurityHeaders → TraceID → RateLimit.
// maxPerMinute <= 0 disables rate limiting.
func DefaultStack(logger *slog.Logger, maxPerMinute int) []func(http.Handler) http.Handler {
	stack := []func(http.Handler) http.Handler{
		Recover(logger),
		HeadToGet,
		SecurityHeaders(DefaultHeaders()),
		TraceID(logger),
	}
	if maxPerMinute > 0 {
		stack = append(stack, NewRateLimiter(maxPerMinute).Middleware)
	}
	return stack
}
