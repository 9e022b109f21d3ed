package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"spendwise/backend/logging"
)

// Recover turns a panic in a handler into a 500 response and logs the stack
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logging.FromContextOr(r.Context(), logger).Error("panic serving request",
					slog.Any("panic", rec),
					slog.String(logging.FieldPath, r.URL.Path),
					slog.String("stack", string(debug.Stack())))

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte(`{"error":"Something went wrong"}` + "\n"))
			}()
			next.ServeHTTP(w, r)
		})
	}
}
