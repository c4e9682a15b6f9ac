// Package requesttime pins one "now" per HTTP request so every audit event
// and log line for that request carries the same timestamp.
package requesttime

import (
	"net/http"
	"time"

	"linkage/pkg/requestcontext"
)

// Middleware stamps requests with the wall clock.
var Middleware = WithClock(time.Now)

// WithClock stamps requests with now(). Tests pass a fixed clock.
func WithClock(now func() time.Time) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(requestcontext.WithTime(r.Context(), now())))
		})
	}
}
