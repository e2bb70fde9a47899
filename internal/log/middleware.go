package log

import (
	"context"
	"log/slog"
	"net/http"
)

type ContextKey string

const LoggerContextKey ContextKey = "logger"

func WithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, LoggerContextKey, logger)
}

// FromContext returns the request logger, or one wrapping slog.Default.
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(LoggerContextKey).(*Logger); ok {
		return logger
	}
	return newLogger(slog.Default(), "unknown", nil)
}

// StructuredLogger emits the canned HTTP and ledger log lines.
type StructuredLogger struct {
	logger *Logger
}

func NewStructuredLogger(logger *Logger) *StructuredLogger {
	return &StructuredLogger{logger: logger}
}

// LogHTTPEnd logs a finished request at a level derived from its status.
func (sl *StructuredLogger) LogHTTPEnd(ctx context.Context, r *http.Request, statusCode int, durationMs int64, clientIP, requestID string) {
	level := slog.LevelInfo
	if statusCode >= 400 && statusCode < 500 {
		level = slog.LevelWarn
	} else if statusCode >= 500 {
		level = slog.LevelError
	}

	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.UserAgent()).
		WithHTTPResponse(statusCode, durationMs).
		WithClientIP(clientIP).
		WithRequestID(requestID)

	sl.logger.Log(ctx, level, "HTTP request completed", fields.ToSlice()...)
}

// LogExpense logs a successful ledger mutation.
func (sl *StructuredLogger) LogExpense(ctx context.Context, op, id string, amountCents int64, category, paymentMode string, revision uint64) {
	fields := NewFields().
		WithExpense(id, amountCents, category, paymentMode).
		WithOperation(op).
		ToSlice()
	fields = append(fields, FieldRevision, revision)

	sl.logger.InfoContext(ctx, "Ledger mutated", fields...)
}

// LogError logs err at error level tagged with its type and operation.
func (sl *StructuredLogger) LogError(ctx context.Context, msg string, err error, errorType, operation string, fields LogFields) {
	if fields == nil {
		fields = NewFields()
	}
	sl.logger.ErrorContext(ctx, msg, fields.WithError(err, errorType).WithOperation(operation).ToSlice()...)
}
