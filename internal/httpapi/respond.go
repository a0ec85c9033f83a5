package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"keai-site/pkg/keai"
)

// maxRequestBytes caps JSON request bodies; image payloads arrive base64
// encoded and dominate the budget.
const maxRequestBytes = 10 << 20

// respond writes one JSON payload with the given status.
func (s *Server) respond(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Warn("response encode failed", "error", err)
	}
}

// errorResponse is the failure half of the envelope.
type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// fail writes one failure envelope.
func (s *Server) fail(w http.ResponseWriter, status int, message string) {
	s.respond(w, status, errorResponse{Error: message})
}

// failErr maps a domain error onto a status code and failure envelope.
func (s *Server) failErr(w http.ResponseWriter, r *http.Request, err error) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		s.logger.ErrorContext(r.Context(), "request failed",
			"path", r.URL.Path, "method", r.Method, "error", err)
	}

	s.fail(w, status, err.Error())
}

// statusForError maps the error taxonomy onto HTTP statuses. Upstream and
// unknown failures both surface as 500; the envelope carries the detail.
func statusForError(err error) int {
	switch {
	case keai.IsValidationError(err):
		return http.StatusBadRequest
	case errors.Is(err, keai.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, keai.ErrUnauthorized):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// methodNotAllowed writes the standard 405 envelope.
func (s *Server) methodNotAllowed(w http.ResponseWriter) {
	s.fail(w, http.StatusMethodNotAllowed, "method not allowed")
}

// decodeBody decodes one JSON request body into target.
func decodeBody(r *http.Request, target any) error {
	reader := http.MaxBytesReader(nil, r.Body, maxRequestBytes)
	if err := json.NewDecoder(reader).Decode(target); err != nil {
		return &keai.ValidationError{Field: "body", Reason: fmt.Sprintf("invalid JSON: %v", err)}
	}

	return nil
}
