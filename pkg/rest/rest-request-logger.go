package rest

import (
	"context"
	"net/http"

	"github.com/gofrs/uuid"
	"github.com/sirupsen/logrus"
)

type contextKey string

const loggerKey contextKey = "requestLogger"

// RequestLogger tags every request with a unique id and stores a derived field logger
// in the request context, so handlers can log with consistent request metadata.
func (e *Engine) RequestLogger() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, request *http.Request) {
			reqUUID, err := uuid.NewV4()
			if err != nil {
				e.baseLogger.WithError(err).Error("can't generate a request UUID")
				w.WriteHeader(http.StatusInternalServerError)
				return
			}

			// create a request specific logger
			var logger = e.baseLogger.WithFields(logrus.Fields{
				"reqid":     reqUUID.String(),
				"remote-ip": request.RemoteAddr,
			})

			logger.WithFields(logrus.Fields{
				"method": request.Method,
				"path":   request.URL.Path,
			}).Debug("request received")

			next.ServeHTTP(w, request.WithContext(context.WithValue(request.Context(), loggerKey, logger)))
		})
	}
}

// GetLogger returns the request scoped logger, or nil when the middleware didn't run.
func GetLogger(request *http.Request) logrus.FieldLogger {
	if logger, ok := request.Context().Value(loggerKey).(logrus.FieldLogger); ok {
		return logger
	}
	return nil
}
