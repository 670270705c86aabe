package utils

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Envelope is the response shape shared by every JSON endpoint.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.Error("failed to write JSON", "error", err)
	}
}

func WriteSuccess(w http.ResponseWriter, status int, data any, msg string) {
	WriteJSON(w, status, Envelope{Success: true, Data: data, Message: msg})
}

// WriteError writes a failure envelope. cause, when non-nil, is passed
// through in the error field.
func WriteError(w http.ResponseWriter, status int, msg string, cause error) {
	env := Envelope{Success: false, Message: msg}
	if cause != nil {
		env.Error = cause.Error()
	}
	WriteJSON(w, status, env)
}

// WriteHTML writes a pre-rendered HTML body.
func WriteHTML(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		slog.Error("failed to write HTML", "error", err)
	}
}
