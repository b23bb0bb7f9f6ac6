// Package middleware holds HTTP middleware shared by the handler
// chain.
package middleware

import (
	"net/http"

	"github.com/felixge/httpsnoop"
	"github.com/sirupsen/logrus"
)

// LoggingHandler emits one structured log line per served request,
// including the response status, size and handling duration.
func LoggingHandler(h http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		m := httpsnoop.CaptureMetrics(h, rw, r)

		logrus.WithFields(logrus.Fields{
			"method":     r.Method,
			"path":       r.RequestURI,
			"remote":     r.RemoteAddr,
			"user-agent": r.UserAgent(),
			"status":     m.Code,
			"size":       m.Written,
			"duration":   float64(m.Duration.Microseconds()) / float64(1000),
		}).Info("HTTP request")
	})
}
