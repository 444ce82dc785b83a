package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// unmatchedRoute labels requests that no chi route matched, so raw paths never
// become label values.
const unmatchedRoute = "unmatched"

// RequestMiddleware returns chi middleware that counts requests by matched
// route pattern and status class, and observes their latency per route.
func RequestMiddleware(m *Metrics) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			route := RoutePattern(r)
			m.ObserveRequest(route, ww.Status(), time.Since(start))
		})
	}
}

// RoutePattern returns the chi pattern that matched r, such as
// "/ingest/{asset_id}/transcode". It must be called after routing.
func RoutePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return unmatchedRoute
	}
	if pattern := rctx.RoutePattern(); pattern != "" {
		return pattern
	}
	return unmatchedRoute
}

// StatusClass folds a status code into "2xx", "3xx", "4xx" or "5xx". A handler
// that never wrote a header answered 200.
func StatusClass(status int) string {
	if status == 0 {
		status = http.StatusOK
	}
	if status < 100 || status > 599 {
		return "other"
	}
	return strconv.Itoa(status/100) + "xx"
}
