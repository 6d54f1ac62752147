package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/aretw0/callflow/pkg/domain"
)

// ErrorHandler writes the response for a failed request.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// DefaultErrorHandler maps malformed requests to 400, lock contention to 503 and
// everything else to 500. Internal details are logged, not sent to the carrier.
func DefaultErrorHandler(logger *slog.Logger) ErrorHandler {
	return func(w http.ResponseWriter, r *http.Request, err error) {
		attrs := []any{"err", err, "path", r.URL.Path, "request_id", RequestID(r.Context())}

		switch {
		case errors.Is(err, domain.ErrBadRequest):
			logger.Warn("Rejected webhook request", attrs...)
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, domain.ErrLockAcquire):
			logger.Warn("Session busy", attrs...)
			http.Error(w, "Session busy", http.StatusServiceUnavailable)
		default:
			var cfgErr *domain.ConfigurationError
			if errors.As(err, &cfgErr) {
				logger.Error("Flow misconfigured", attrs...)
			} else {
				logger.Error("Webhook request failed", attrs...)
			}
			http.Error(w, "Internal server error", http.StatusInternalServerError)
		}
	}
}
