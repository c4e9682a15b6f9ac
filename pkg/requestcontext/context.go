// Package requestcontext carries request-scoped values without depending on
// net/http. Middleware writes them; the linkage service and the audit
// publisher read them, and tests inject them directly.
package requestcontext

import (
	"context"
	"time"
)

type key int

const (
	clientIDKey key = iota
	requestIDKey
	requestTimeKey
)

func value[T any](ctx context.Context, k key) (T, bool) {
	v, ok := ctx.Value(k).(T)
	return v, ok
}

// ClientID is the authenticated caller, or "" for anonymous requests.
func ClientID(ctx context.Context) string {
	id, _ := value[string](ctx, clientIDKey)
	return id
}

func WithClientID(ctx context.Context, clientID string) context.Context {
	return context.WithValue(ctx, clientIDKey, clientID)
}

// RequestID is the correlation id assigned at the edge, or "".
func RequestID(ctx context.Context) string {
	id, _ := value[string](ctx, requestIDKey)
	return id
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// Now is the time the request arrived. Outside a request it is time.Now().
func Now(ctx context.Context) time.Time {
	if t, ok := value[time.Time](ctx, requestTimeKey); ok {
		return t
	}
	return time.Now()
}

func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey, t)
}
