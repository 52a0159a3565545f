package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"manpower/internal/transport/http/api"
)

func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				reqID := GetRequestID(r.Context())
				slog.Error("panic serving request", "panic", rec, "path", r.URL.Path, "requestId", reqID, "stack", string(debug.Stack()))
				api.Fail(w, http.StatusInternalServerError, "internal_error", "internal server error", reqID)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
