package middlewares

import (
	"fmt"
	"net/http"
	"time"
)

// Cache lets clients reuse read-mostly responses for maxAge and revalidate in the background afterwards.
func Cache(maxAge time.Duration) func(http.Handler) http.Handler {
	value := fmt.Sprintf("stale-while-revalidate, max-age=%d", int(maxAge.Seconds()))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", value)
			next.ServeHTTP(w, r)
		})
	}
}
