package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prephub/prephub-api/internal/logging"
	"github.com/prephub/prephub-api/internal/utils"
	"github.com/samber/oops"
)

// RequestObserver receives one call per finished request.
type RequestObserver interface {
	ObserveRequest(method, route string, status int, seconds float64)
}

// RequestLogger logs each request and feeds the observer. The route label is
// chi's route pattern, not the raw path.
func RequestLogger(logger *slog.Logger, observer RequestObserver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if p := rctx.RoutePattern(); p != "" {
					route = p
				}
			}
			elapsed := time.Since(start)

			if observer != nil {
				observer.ObserveRequest(r.Method, route, status, elapsed.Seconds())
			}
			logger.InfoContext(r.Context(), "request",
				"method", r.Method,
				"path", r.URL.Path,
				"route", route,
				"status", status,
				"bytes", ww.BytesWritten(),
				"duration_ms", elapsed.Milliseconds(),
			)
		})
	}
}

// Recoverer turns a handler panic into the JSON 500 body and logs it.
func Recoverer(logger *slog.Logger) func(http.Handler) http.Handler {
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
				err := oops.Code("HTTP_PANIC").With("path", r.URL.Path).Errorf("panic: %v", rec)
				logging.LogError(r.Context(), logger, "handler panicked", err)
				utils.WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// NotFound is the JSON body for unknown routes.
func NotFound(w http.ResponseWriter, _ *http.Request) {
	utils.WriteJSON(w, http.StatusNotFound, map[string]string{"error": "Route not found"})
}
