package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS allows browser clients from the given origins. Range and the
// Content-Range family are exposed so players can seek.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "Range", "X-Request-Id"},
		ExposedHeaders: []string{"Accept-Ranges", "Content-Length", "Content-Range", "X-Request-Id"},
		MaxAge:         300,
	})
}
