// Package httperror simplifies returning an error as JSON from an HTTP
// handler. The {"error": ...} shape matches what the remote workboard
// services use, so front ends handle both the same way.
package httperror

import (
	"encoding/json"
	"fmt"
	"net/http"
)

type jsonError struct {
	Error string `json:"error"`
}

func Send(w http.ResponseWriter, req *http.Request, status int, message string) {
	if message == "" {
		message = http.StatusText(status)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	m := jsonError{Error: message}
	json.NewEncoder(w).Encode(m)
}

func Sendf(w http.ResponseWriter, req *http.Request, status int, format string, args ...any) {
	Send(w, req, status, fmt.Sprintf(format, args...))
}
