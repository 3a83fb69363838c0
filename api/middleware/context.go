package middleware

import "context"

type contextKey int

const (
	ctxActor contextKey = iota
	ctxRequestID
)

func stringFrom(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(key).(string)
	return v
}

func withString(ctx context.Context, key contextKey, value string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, key, value)
}

// ActorFromContext returns the operator name attached by Actor, or "".
func ActorFromContext(ctx context.Context) string {
	return stringFrom(ctx, ctxActor)
}

func WithActor(ctx context.Context, actor string) context.Context {
	return withString(ctx, ctxActor, actor)
}

// RequestIDFromContext returns the id assigned by RequestID, or "".
func RequestIDFromContext(ctx context.Context) string {
	return stringFrom(ctx, ctxRequestID)
}
