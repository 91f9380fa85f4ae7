package logger

import "context"

// contextKey is an unexported type for context keys to avoid collisions.
type contextKey string

// contextFields lists the context keys WithContext copies onto records.
var contextFields = []string{FieldTraceID, FieldSpanID, FieldRequestID, FieldCorrelationID}

// ContextWithRequestID stores a request id picked up by WithContext.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKey(FieldRequestID), id)
}

// RequestIDFromContext returns the request id stored in ctx, if any.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(contextKey(FieldRequestID)).(string)
	return id, ok && id != ""
}

// ContextWithCorrelationID stores a correlation id picked up by WithContext.
func ContextWithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKey(FieldCorrelationID), id)
}
