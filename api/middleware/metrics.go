package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

type httpObserver interface {
	Observe(method, route string, status int, elapsed time.Duration)
}

// Metrics records request counts and latency keyed by the chi route pattern, so path
// parameters do not explode label cardinality.
func Metrics(observer httpObserver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if observer == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &statusRecorder{ResponseWriter: w}
			start := time.Now()
			next.ServeHTTP(rec, r)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					route = pattern
				}
			}
			observer.Observe(r.Method, route, defaultStatus(rec.status), time.Since(start))
		})
	}
}
