package ui

import (
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/thep200/github-portfolio-sync/pkg/log"
)

// RequestLogger logs method, path, status and duration of every request.
func RequestLogger(logger log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			logger.Info(r.Context(), "%s %s %d %dB %v [%s]",
				r.Method, r.URL.Path, status, ww.BytesWritten(), time.Since(start), chimiddleware.GetReqID(r.Context()))
		})
	}
}
