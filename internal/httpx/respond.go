// Package httpx holds the JSON response helpers shared by the HTTP handlers.
package httpx

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

func WriteJSON(w http.ResponseWriter, logger *slog.Logger, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}

func WriteError(w http.ResponseWriter, logger *slog.Logger, status int, message string) {
	WriteJSON(w, logger, status, map[string]string{"error": message})
}

// WriteInternal logs err and answers with a generic 500.
func WriteInternal(w http.ResponseWriter, r *http.Request, logger *slog.Logger, msg string, err error) {
	logger.ErrorContext(r.Context(), msg, "error", err, "path", r.URL.Path)
	WriteError(w, logger, http.StatusInternalServerError, "internal server error")
}

// Redirect answers 303 See Other with a JSON body, so API clients see the
// message while browsers follow Location.
func Redirect(w http.ResponseWriter, logger *slog.Logger, location string, body any) {
	w.Header().Set("Location", location)
	WriteJSON(w, logger, http.StatusSeeOther, body)
}
