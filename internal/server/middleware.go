package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	logx "formrelay/pkg/logx"
)

// requestLogger writes one debug record per request.
func requestLogger(log logx.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !log.Enabled(logx.LevelDebug) {
				next.ServeHTTP(w, r)
				return
			}
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Debug("http request",
				logx.String("method", r.Method),
				logx.String("path", r.URL.Path),
				logx.Int("status", ww.Status()),
				logx.Int("bytes", ww.BytesWritten()),
				logx.Duration("took", time.Since(start)),
				logx.String("remote", r.RemoteAddr),
				logx.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}
