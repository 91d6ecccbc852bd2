package middleware

import (
	"net/http"
	"strings"

	"github.com/go-chi/cors"
)

const localStorefrontOrigin = "http://localhost:3000"

// CORS returns middleware that allows the storefront client origin plus local dev.
func CORS(clientBaseURL string) func(http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins(clientBaseURL),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", IdempotencyHeader, "X-Requested-With", RequestIDHeader},
		ExposedHeaders:   []string{RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler
}

func allowedOrigins(clientBaseURL string) []string {
	origins := []string{localStorefrontOrigin}
	for _, origin := range strings.Split(clientBaseURL, ",") {
		origin = strings.TrimRight(strings.TrimSpace(origin), "/")
		if origin == "" || origin == localStorefrontOrigin {
			continue
		}
		origins = append(origins, origin)
	}
	return origins
}
