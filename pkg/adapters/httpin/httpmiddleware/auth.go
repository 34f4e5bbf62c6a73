package httpmiddleware

import (
	"crypto/subtle"
	"net/http"
)

const unauthorizedBody = `{"error":"missing or invalid bearer token"}`

// Auth accepts only requests carrying "Authorization: Bearer <token>".
func Auth(token string) func(http.Handler) http.Handler {
	expected := []byte("Bearer " + token)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			received := []byte(r.Header.Get("Authorization"))

			if subtle.ConstantTimeCompare(received, expected) != 1 {
				w.Header().Set("WWW-Authenticate", `Bearer realm="syncbatcher"`)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(unauthorizedBody)) //nolint:errcheck
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
