package logging

import (
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

// RequestLogger is middleware that logs HTTP requests and stores a
// request-scoped logger in the request context.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Skip noisy paths
		if r.URL.Path == "/health" || r.URL.Path == "/metrics" || strings.HasPrefix(r.URL.Path, "/static/") {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		reqLog := Log.With(zap.String("method", r.Method), zap.String("path", r.URL.Path))
		next.ServeHTTP(rw, r.WithContext(WithLogger(r.Context(), reqLog)))

		level := zapcore.InfoLevel
		if rw.status >= 500 {
			level = zapcore.ErrorLevel
		} else if rw.status >= 400 {
			level = zapcore.WarnLevel
		}

		if ce := reqLog.Check(level, "request"); ce != nil {
			ce.Write(
				zap.Int("status", rw.status),
				zap.Duration("duration", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
			)
		}
	})
}
