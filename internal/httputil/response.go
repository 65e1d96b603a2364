// Package httputil holds the JSON response helpers shared by the handlers
// and the auth middleware.
package httputil

import (
	"encoding/json"
	"net/http"

	"github.com/petermazzocco/recipe-api/internal/logger"
)

// ErrorResponse is the error envelope for every API error. Details carries
// field-level messages for validation failures.
type ErrorResponse struct {
	Error   string              `json:"error"`
	Details map[string][]string `json:"details,omitempty"`
}

// JSON writes data with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("json encode failed", "error", err)
	}
}

func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, data)
}

func Created(w http.ResponseWriter, data any) {
	JSON(w, http.StatusCreated, data)
}

func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, ErrorResponse{Error: message})
}

// Invalid writes a 400 with per-field messages.
func Invalid(w http.ResponseWriter, message string, details map[string][]string) {
	JSON(w, http.StatusBadRequest, ErrorResponse{Error: message, Details: details})
}

func BadRequest(w http.ResponseWriter, message string) {
	Error(w, http.StatusBadRequest, message)
}

func Unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("WWW-Authenticate", `Token`)
	Error(w, http.StatusUnauthorized, message)
}

func NotFound(w http.ResponseWriter) {
	Error(w, http.StatusNotFound, "not found")
}

func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	Error(w, http.StatusMethodNotAllowed, "method \""+r.Method+"\" not allowed")
}

// InternalError logs err and answers with a generic 500 so that driver and
// storage details never reach the client.
func InternalError(w http.ResponseWriter, err error) {
	logger.Error("internal error", "error", err)
	Error(w, http.StatusInternalServerError, "internal server error")
}
