package handlers

import (
	"log/slog"
	"net/http"
)

// logError logs a handler failure with the request context so the access log
// request_id is attached.
func logError(r *http.Request, msg string, err error) {
	slog.ErrorContext(r.Context(), msg, "error", err, "path", r.URL.Path)
}
