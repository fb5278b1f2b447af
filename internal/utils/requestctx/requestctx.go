package requestctx

import "context"

type ctxKey int

const (
	requestIDKey ctxKey = iota
	requesterKey
)

func WithRequestID(ctx context.Context, requestID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, requestIDKey, requestID)
}

func RequestID(ctx context.Context) string {
	return stringValue(ctx, requestIDKey)
}

// WithRequester stores the admitted caller identity.
func WithRequester(ctx context.Context, requester string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, requesterKey, requester)
}

func Requester(ctx context.Context) string {
	return stringValue(ctx, requesterKey)
}

func stringValue(ctx context.Context, key ctxKey) string {
	if ctx == nil {
		return ""
	}
	if s, ok := ctx.Value(key).(string); ok {
		return s
	}
	return ""
}
