package request

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// routePattern returns chi's matched pattern (e.g. /institutions/{address})
// so metrics labels stay low-cardinality. Unmatched requests collapse to "unmatched".
func routePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return "unmatched"
	}
	if pattern := rctx.RoutePattern(); pattern != "" {
		return pattern
	}
	return "unmatched"
}

// LatencyMiddleware reports handler latency keyed by the matched route pattern.
func LatencyMiddleware(observe func(route, method string, seconds float64)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if observe == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			observe(routePattern(r), r.Method, time.Since(start).Seconds())
		})
	}
}
