package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
)

// ErrorResponse writes a JSON error body. The error code is derived from the
// status text, e.g. 405 becomes "method_not_allowed".
func ErrorResponse(w http.ResponseWriter, statusCode int, message string) error {
	code := strings.ReplaceAll(strings.ToLower(http.StatusText(statusCode)), " ", "_")
	return WriteJSON(w, statusCode, map[string]string{
		"error":   code,
		"message": message,
	})
}

// WriteJSON writes a JSON response and returns any encoding error.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}
