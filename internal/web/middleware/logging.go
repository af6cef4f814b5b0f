// Package middleware provides HTTP middleware for the web server.
package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/Stas2664/x2-backend/internal/logging"
)

// SlowRequest is the duration above which a request is logged at warn.
var SlowRequest = 30 * time.Second

// Logger logs one line per request with method, path, status, duration,
// client ip, user agent and body size. Imports can take minutes, so slow
// requests are logged at warn.
func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Wrap response writer to capture status code
		ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(ww, r)

		duration := time.Since(start)
		logger := logging.FromContext(r.Context())

		level := slog.LevelInfo
		if duration > SlowRequest {
			level = slog.LevelWarn
		}

		// RemoteAddr was already rewritten by TrustedRealIP for trusted proxies.
		logger.Log(r.Context(), level, "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.status,
			"duration_ms", duration.Milliseconds(),
			"ip", clientIP(r),
			"user_agent", r.UserAgent(),
			"content_length", r.ContentLength,
		)
	})
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *responseWriter) WriteHeader(status int) {
	if w.wroteHeader {
		return
	}
	w.status = status
	w.wroteHeader = true
	w.ResponseWriter.WriteHeader(status)
}

func (w *responseWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

// Unwrap exposes the underlying ResponseWriter to http.ResponseController.
func (w *responseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// clientIP returns the bare IP of RemoteAddr, or RemoteAddr itself when it
// does not parse.
func clientIP(r *http.Request) string {
	if ip, ok := extractAddr(r.RemoteAddr); ok {
		return ip.String()
	}
	return r.RemoteAddr
}
