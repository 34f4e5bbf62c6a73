package httpmiddleware

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
)

const internalErrorBody = `{"error":"internal error"}`

// NewRecoverer turns a panicking invocation into a 500. http.ErrAbortHandler
// is re-raised so net/http can abort the response.
func NewRecoverer(l *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rvr := recover()
				if rvr == nil {
					return
				}

				if err, ok := rvr.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(rvr)
				}

				l.Error("request handler panicked", "method", r.Method, "path", r.URL.Path,
					"panic", fmt.Sprint(rvr), "stack", string(debug.Stack()))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte(internalErrorBody)) //nolint:errcheck
			}()

			next.ServeHTTP(w, r)
		})
	}
}
