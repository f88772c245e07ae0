package logger

import (
	"context"
	"log/slog"
)

// ContextKey is the type for business context values carried on a
// context.Context and emitted as log attributes.
type ContextKey string

const (
	UserIDKey         ContextKey = "user_id"
	RequestIDKey      ContextKey = "request_id"
	SessionIDKey      ContextKey = "audit.session.id"
	AuditRequestIDKey ContextKey = "audit.request.id"
	OfferIDKey        ContextKey = "audit.offer.id"
	AuthStageKey      ContextKey = "audit.auth.stage"
)

// GlobalContext is the process-wide ContextLogger, set by Init.
var GlobalContext *ContextLogger

// ContextLogger emits structured logs enriched with the business context
// carried on the request context.
type ContextLogger struct {
	logger *slog.Logger
}

// NewContextLogger creates a ContextLogger over the given slog.Logger.
func NewContextLogger(logger *slog.Logger) *ContextLogger {
	return &ContextLogger{logger: logger}
}

// WithContext returns a logger pre-populated with every business key
// present on ctx.
func (cl *ContextLogger) WithContext(ctx context.Context) *slog.Logger {
	logger := cl.logger

	var fields []any
	for _, key := range []ContextKey{
		UserIDKey, RequestIDKey, SessionIDKey,
		AuditRequestIDKey, OfferIDKey, AuthStageKey,
	} {
		if v := ctx.Value(key); v != nil {
			fields = append(fields, string(key), v)
		}
	}

	if len(fields) > 0 {
		logger = logger.With(fields...)
	}
	return logger
}

// LogDuration records a timing measurement for an operation.
func (cl *ContextLogger) LogDuration(ctx context.Context, operation string, ms int64) {
	cl.WithContext(ctx).InfoContext(ctx, "operation completed",
		"operation", operation,
		"duration_ms", ms,
	)
}

// LogError records an operation failure.
func (cl *ContextLogger) LogError(ctx context.Context, operation string, err error) {
	cl.WithContext(ctx).ErrorContext(ctx, "operation failed",
		"operation", operation,
		"error", err,
	)
}

// Context helpers. Session and offer identifiers should already be
// truncated by the caller where they are secrets.

func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, SessionIDKey, sessionID)
}

func WithAuditRequestID(ctx context.Context, auditRequestID string) context.Context {
	return context.WithValue(ctx, AuditRequestIDKey, auditRequestID)
}

func WithOfferID(ctx context.Context, offerID string) context.Context {
	return context.WithValue(ctx, OfferIDKey, offerID)
}

func WithAuthStage(ctx context.Context, stage string) context.Context {
	return context.WithValue(ctx, AuthStageKey, stage)
}
