package kit

import (
	"net/http"
	"slices"

	"github.com/go-chi/cors"
)

// CORS applies the cross-origin policy. With a wildcard origin every
// response carries "Access-Control-Allow-Origin: *", including requests
// that sent no Origin header.
func CORS(origins []string) func(http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id", "Retry-After"},
		MaxAge:         300,
	})
	wildcard := slices.Contains(origins, "*")

	return func(next http.Handler) http.Handler {
		h := c.Handler(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if wildcard && r.Header.Get("Origin") == "" {
				w.Header().Set("Access-Control-Allow-Origin", "*")
			}
			h.ServeHTTP(w, r)
		})
	}
}
