package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"survey-bot/internal/infra/logger"
)

// Monitors hit these every few minutes; they are logged at debug level.
var quietPaths = map[string]bool{
	"/health":      true,
	"/healthCheck": true,
	"/ping":        true,
	"/uptime":      true,
	"/keep-alive":  true,
	"/metrics":     true,
}

func LoggingMiddleware(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrappedWriter := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrappedWriter, r)

			fields := logrus.Fields{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      wrappedWriter.statusCode,
				"duration_ms": time.Since(start).Milliseconds(),
				"remote":      r.RemoteAddr,
			}
			message := fmt.Sprintf("Request: %s %s %d", r.Method, r.URL.Path, wrappedWriter.statusCode)
			switch {
			case wrappedWriter.statusCode >= http.StatusInternalServerError:
				log.Error(message, fields)
			case quietPaths[r.URL.Path]:
				log.Debug(message, fields)
			default:
				log.Info(message, fields)
			}
		})
	}
}

// CORSMiddleware lets browser-based uptime monitors read the keep-alive endpoints.
func CORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Origin, X-Requested-With, Content-Type, Accept")
		next.ServeHTTP(w, r)
	})
}

type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	return rw.ResponseWriter.Write(b)
}
