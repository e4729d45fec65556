package middleware

import (
	"crypto/subtle"
	"net/http"

	"lobomat-api/pkg/apierror"
)

// NewLoginKeyMiddleware guards admin routes with the X-Login-Key header.
// With no key configured, admin routes stay closed.
func NewLoginKeyMiddleware(loginKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			provided := r.Header.Get("X-Login-Key")
			if loginKey == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(loginKey)) != 1 {
				err := apierror.Unauthorized("Invalid login key")
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(err.StatusCode)
				w.Write(err.ToJSON())
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
