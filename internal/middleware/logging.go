// internal/middleware/logging.go

package middleware

import (
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// statusWriter records the response status for the access log. Unwrap keeps
// http.ResponseController (and the websocket hijack) working through the
// wrapper.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

// LogMiddleware logs every request with Logrus: method, matched route
// pattern, response status, duration, and remote address.
func LogMiddleware(logger *logrus.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(sw, r)

			logger.WithFields(logrus.Fields{
				"method":   r.Method,
				"path":     r.URL.Path,
				"route":    r.Pattern,
				"status":   sw.status,
				"duration": time.Since(start),
				"remote":   r.RemoteAddr,
			}).Info("http request")
		})
	}
}

// LogWebSocketConnect logs a room member's event stream attaching, once the
// upgrade is accepted.
func LogWebSocketConnect(logger *logrus.Logger, roomCode, remoteAddr string) {
	logger.WithFields(logrus.Fields{
		"room":   roomCode,
		"remote": remoteAddr,
	}).Info("websocket connected")
}

// LogWebSocketDisconnect logs the stream detaching.
func LogWebSocketDisconnect(logger *logrus.Logger, roomCode, remoteAddr string, err error) {
	fields := logrus.Fields{
		"room":   roomCode,
		"remote": remoteAddr,
	}
	if err != nil {
		fields["error"] = err
	}
	logger.WithFields(fields).Info("websocket disconnected")
}
