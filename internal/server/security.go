package server

import (
	"net/http"
	"strings"
)

// SecurityConfig controls the hardening applied to every HTTP response.
type SecurityConfig struct {
	// EnableCORS enables cross-origin resource sharing headers.
	EnableCORS bool
	// AllowedOrigins lists origins allowed to read the endpoints.
	// A single "*" entry allows any origin.
	AllowedOrigins []string
	// AllowedMethods lists the HTTP methods advertised to browsers.
	AllowedMethods []string
	// MaxRequestBytes caps the accepted request body size. The endpoints
	// are read-only, so anything beyond a small bound is suspect.
	MaxRequestBytes int64
}

// DefaultSecurityConfig returns the security configuration used unless
// overridden. The endpoints expose read-only measurement data, so CORS
// defaults to permissive.
func DefaultSecurityConfig() SecurityConfig {
	return SecurityConfig{
		EnableCORS:      true,
		AllowedOrigins:  []string{"*"},
		AllowedMethods:  []string{"GET", "OPTIONS"},
		MaxRequestBytes: 1 << 20,
	}
}

// SecurityMiddleware wraps a handler with security headers and CORS
// handling. OPTIONS preflight requests are answered directly and never
// reach the next handler.
func SecurityMiddleware(config SecurityConfig, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Standard hardening headers on every response
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")

		if config.EnableCORS {
			if origin := corsOrigin(config.AllowedOrigins, r.Header.Get("Origin")); origin != "" {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", strings.Join(config.AllowedMethods, ", "))
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
				w.Header().Set("Access-Control-Max-Age", "86400")
			}
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		if config.MaxRequestBytes > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, config.MaxRequestBytes)
		}

		next(w, r)
	}
}

// corsOrigin returns the Access-Control-Allow-Origin value for a request
// origin, or "" if the origin is not allowed. A wildcard entry matches
// regardless of the request origin.
func corsOrigin(allowed []string, origin string) string {
	for _, a := range allowed {
		if a == "*" {
			return "*"
		}
		if origin != "" && a == origin {
			return origin
		}
	}
	return ""
}
