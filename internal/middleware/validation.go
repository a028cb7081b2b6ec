package middleware

import (
	"mime"
	"net/http"

	"github.com/google/uuid"
)

// RequireJSON rejects POST bodies that are not JSON, which also refuses
// cross-site form posts carrying the session cookie.
func RequireJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && r.ContentLength != 0 {
			mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
			if err != nil || mediaType != "application/json" {
				writeError(w, http.StatusUnsupportedMediaType, "content type must be application/json", 0)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// ValidateID rejects path ids that are not UUIDs with a 404, as an unknown
// id would be.
func ValidateID(param func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, err := uuid.Parse(param(r)); err != nil {
				writeError(w, http.StatusNotFound, "not found", 0)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
