package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"journal/logger"
)

// requestLogger attaches a request-scoped logger to the context and logs
// method, path, status and duration once the handler returns.
func (h *Handlers) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		reqLog := logger.Logger{Logger: h.log.With().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Logger()}
		r = r.WithContext(reqLog.WithContext(r.Context()))

		next.ServeHTTP(ww, r)

		reqLog.Info().
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}
