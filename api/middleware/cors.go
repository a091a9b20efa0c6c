package middleware

import (
	"net/http"
	"strings"

	"github.com/go-chi/cors"
)

// devOrigins are the local till UI servers, allowed only outside prod.
var devOrigins = []string{
	"http://localhost:3000",
	"http://localhost:5173",
}

// CORS lets the browser-based till and back office call the API. Clients may
// send Idempotency-Key and read back X-Request-Id and the replay marker.
func CORS(origins []string, allowDev bool) func(http.Handler) http.Handler {
	allowed := make([]string, 0, len(origins)+len(devOrigins))
	for _, o := range origins {
		if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
			allowed = append(allowed, o)
		}
	}
	if allowDev {
		allowed = append(allowed, devOrigins...)
	}
	return cors.New(cors.Options{
		AllowedOrigins:   allowed,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id", "Idempotent-Replayed", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           600,
	}).Handler
}
