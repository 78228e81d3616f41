package instrument

import "context"

// CorrelationHeader carries the request correlation ID over HTTP and broker messages.
const CorrelationHeader = "X-Correlation-ID"

type correlationKey struct{}

// SetCorrelationID stores id in ctx.
func SetCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey{}, id)
}

// GetCorrelationID returns the correlation ID stored in ctx, or "".
func GetCorrelationID(ctx context.Context) string {
	id, _ := ctx.Value(correlationKey{}).(string)
	return id
}
